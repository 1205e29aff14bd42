package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"ecusim/internal/calibration"
	"ecusim/internal/config"
	"ecusim/internal/simulate"
)

func newCalibCommand(ctx *commandContext) *cobra.Command {
	calibCmd := &cobra.Command{
		Use:   "calib",
		Short: "Inspect and scaffold calibration documents",
	}

	calibCmd.AddCommand(newCalibShowCommand(ctx))
	calibCmd.AddCommand(newCalibInitCommand(ctx))
	calibCmd.AddCommand(newCalibKeysCommand())

	return calibCmd
}

// resolveCalibrationPath picks the --calibration flag, then the config.
func resolveCalibrationPath(ctx *commandContext, flagValue string) (string, error) {
	path := strings.TrimSpace(flagValue)
	if path == "" {
		cfg, err := ctx.ensureConfig()
		if err != nil {
			return "", err
		}
		path = cfg.Paths.CalibrationFile
	}
	return config.ExpandPath(path)
}

func newCalibShowCommand(ctx *commandContext) *cobra.Command {
	var path string
	var format string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective calibration",
		Long:  "Loads the calibration exactly as a run would and prints the effective values after defaults and corrections.",
		RunE: func(cmd *cobra.Command, args []string) error {
			resolved, err := resolveCalibrationPath(ctx, path)
			if err != nil {
				return fmt.Errorf("resolve calibration path: %w", err)
			}
			cal, report, err := calibration.Load(resolved)
			if err != nil {
				return simulate.Wrap(simulate.ErrInput, "load calibration", resolved, err)
			}

			out := cmd.OutOrStdout()
			switch strings.ToLower(strings.TrimSpace(format)) {
			case "", "table":
				printCalibrationTable(out, &cal, report, shouldColorize(out))
				return nil
			case "text", "txt":
				return calibration.WriteText(out, &cal)
			case "toml":
				data, err := toml.Marshal(calibration.Map(&cal))
				if err != nil {
					return fmt.Errorf("encode toml: %w", err)
				}
				_, err = out.Write(data)
				return err
			case "yaml", "yml":
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				if err := enc.Encode(calibration.Map(&cal)); err != nil {
					return fmt.Errorf("encode yaml: %w", err)
				}
				return enc.Close()
			case "json":
				return writeJSON(out, calibration.Map(&cal))
			default:
				return simulate.Wrap(simulate.ErrUsage, "calib show", fmt.Sprintf("unsupported format %q", format), nil)
			}
		},
	}

	cmd.Flags().StringVar(&path, "calibration", "", "Calibration document (overrides paths.calibration_file)")
	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format: table, text, toml, yaml or json")
	return cmd
}

func printCalibrationTable(w io.Writer, cal *calibration.Config, report calibration.Report, colorize bool) {
	source := report.Path
	kind := statusOK
	if !report.Found {
		source += " (not found, defaults)"
		kind = statusInfo
	}
	fmt.Fprintln(w, renderStatusLine("Calibration", kind, source, colorize))

	keys := calibration.Keys()
	rows := make([][]string, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, []string{
			keyGroup(key.Name),
			key.Name,
			key.Value(cal),
			report.Source(key.Name),
			key.Help,
		})
	}
	fmt.Fprintln(w, renderTable(
		[]string{"Group", "Key", "Value", "Source", "Description"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
	))

	var notes []string
	for _, c := range report.Corrections {
		notes = append(notes, renderStatusLine("Corrected", statusWarn, c.String(), colorize))
	}
	for _, e := range report.Rejected {
		notes = append(notes, renderStatusLine("Rejected", statusWarn, entryLabel(e), colorize))
	}
	for _, e := range report.Unknown {
		notes = append(notes, renderStatusLine("Ignored", statusWarn, entryLabel(e), colorize))
	}
	if len(notes) > 0 {
		fmt.Fprintln(w, renderSectionHeader("Findings", colorize))
		fprintBlock(w, notes...)
	}
}

func entryLabel(e calibration.Entry) string {
	label := fmt.Sprintf("%s = %q", e.Key, e.Value)
	if e.Line > 0 {
		label += fmt.Sprintf(" (line %d)", e.Line)
	}
	return label
}

var keyGroups = []struct {
	prefix string
	group  string
}{
	{"cc_", "cruise_control"},
	{"gear_", "gearbox"},
	{"drag_", "coastdown"},
	{"idle_", "idle"},
	{"slew_", "slew_rate"},
	{"limp_", "limp_mode"},
	{"rev_", "rev_limiter"},
	{"bto_", "brake_throttle_override"},
}

func keyGroup(name string) string {
	for _, g := range keyGroups {
		if strings.HasPrefix(name, g.prefix) {
			return titleCase(g.group)
		}
	}
	return titleCase("engine")
}

func newCalibInitCommand(ctx *commandContext) *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default calibration as a text document",
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := resolveCalibrationPath(ctx, targetPath)
			if err != nil {
				return fmt.Errorf("resolve calibration path: %w", err)
			}

			if err := writeSample("calibration", target, overwrite, calibration.CreateSample); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote default calibration to %s\n", target)
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the calibration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite an existing calibration file")
	return cmd
}

func newCalibKeysCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "keys",
		Short:       "List the documented calibration keys and defaults",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			defaults := calibration.Default()
			keys := calibration.Keys()
			rows := make([][]string, 0, len(keys))
			for _, key := range keys {
				rows = append(rows, []string{key.Name, key.Value(&defaults), key.Help})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Key", "Default", "Description"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}
}
