package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"ecusim/internal/calibration"
	"ecusim/internal/config"
	"ecusim/internal/simulate"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigValidateCommand(ctx))
	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigShowCommand(ctx))

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool
	var withCalibration bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := resolveInitPath(targetPath, config.DefaultConfigPath)
			if err != nil {
				return fmt.Errorf("resolve config path: %w", err)
			}
			if err := writeSample("config", target, overwrite, config.CreateSample); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)

			if !withCalibration {
				fmt.Fprintf(out, "Point paths.calibration_file (or %s) at your calibration, or run `ecusim calib init`.\n", config.CalibrationEnv)
				return nil
			}
			calPath, err := config.ExpandPath(config.Default().Paths.CalibrationFile)
			if err != nil {
				return fmt.Errorf("resolve calibration path: %w", err)
			}
			if err := writeSample("calibration", calPath, overwrite, calibration.CreateSample); err != nil {
				return err
			}
			fmt.Fprintf(out, "Wrote default calibration to %s\n", calPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing files if present")
	cmd.Flags().BoolVar(&withCalibration, "with-calibration", false, "Also write the default calibration to its default location")
	return cmd
}

// resolveInitPath expands an explicit destination or falls back to fallback.
func resolveInitPath(explicit string, fallback func() (string, error)) (string, error) {
	if target := strings.TrimSpace(explicit); target != "" {
		return config.ExpandPath(target)
	}
	return fallback()
}

// writeSample refuses to replace an existing file unless overwrite is set.
func writeSample(kind, target string, overwrite bool, create func(string) error) error {
	if !overwrite {
		if _, err := os.Stat(target); err == nil {
			return fmt.Errorf("%s file already exists at %s (use --overwrite to replace it)", kind, target)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("check %s path: %w", kind, err)
		}
	}
	if err := create(target); err != nil {
		return simulate.Wrap(simulate.ErrOutput, "write "+kind, target, err)
	}
	return nil
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("ensure directories: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s\n", ctx.configPath)
			if !ctx.configSeen {
				fmt.Fprintln(out, "Config file did not exist; defaults were used")
			}
			fmt.Fprintf(out, "Calibration: %s\n", cfg.Paths.CalibrationFile)
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as TOML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			data, err := toml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("encode config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
