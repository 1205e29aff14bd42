package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"ecusim/internal/simulate"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var opts simulate.Options
	var jsonOut bool
	var quiet bool

	cmd := &cobra.Command{
		Use:   "run <input.csv> <output.csv>",
		Short: "Simulate the controller over an input series",
		Long: "Reads driver inputs from <input.csv>, evaluates the control pipeline row by row " +
			"and writes time,engine_state,engine_speed to <output.csv>. Use - for stdin or stdout.",
		Args: exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			opts.InputPath = args[0]
			opts.OutputPath = args[1]
			runner := simulate.NewRunner(cfg, logger)
			runner.Stdin = cmd.InOrStdin()
			runner.Stdout = cmd.OutOrStdout()

			summary, err := runner.Run(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if quiet {
				return nil
			}

			out := reportWriter(cmd, opts.OutputPath == simulate.StdioPath)
			if jsonOut {
				return writeJSON(out, summary)
			}
			printRunSummary(out, summary, shouldColorize(out))
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.CalibrationPath, "calibration", "", "Calibration document (overrides paths.calibration_file)")
	cmd.Flags().StringVar(&opts.TracePath, "trace", "", "Write the per-stage trace CSV to this path")
	cmd.Flags().StringVar(&opts.MetricsPath, "metrics-file", "", "Write Prometheus textfile metrics to this path")
	cmd.Flags().BoolVar(&opts.NoHistory, "no-history", false, "Do not record this run in the history")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the run summary as JSON")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Print nothing on success")
	return cmd
}

func printRunSummary(w io.Writer, s *simulate.Summary, colorize bool) {
	kind := statusOK
	message := fmt.Sprintf("%d rows in %s", s.Rows, formatElapsed(s.Elapsed))
	if len(s.Corrections) > 0 || len(s.RejectedKeys) > 0 {
		kind = statusWarn
		message += " (calibration adjusted)"
	}
	fmt.Fprintln(w, renderStatusLine("Run "+shortID(s.RunID), kind, message, colorize))

	calibration := s.CalibrationPath
	if !s.CalibrationFound {
		calibration += " (not found, defaults)"
	}
	limp := "no"
	if s.LimpLatched {
		limp = "latched"
		if s.LimpLatchRow >= 0 {
			limp += " at row " + strconv.FormatInt(s.LimpLatchRow, 10)
		}
	}
	corrections := make([]string, 0, len(s.Corrections))
	for _, c := range s.Corrections {
		corrections = append(corrections, c.String())
	}

	fmt.Fprintln(w, renderFields([][2]string{
		{"Run ID", s.RunID},
		{"Input", s.InputPath},
		{"Output", s.OutputPath},
		{"Calibration", calibration},
		{"Rows", strconv.FormatInt(s.Rows, 10)},
		{"Engine On Rows", strconv.FormatInt(s.RowsOn, 10)},
		{"Peak Speed", formatRPM(s.PeakSpeed)},
		{"Final Speed", formatRPM(s.FinalSpeed)},
		{"Limp Mode", limp},
		{"Rev Cuts", strconv.Itoa(s.RevCutActivations)},
		{"Corrections", joinList(corrections)},
		{"Ignored Keys", joinList(s.IgnoredKeys)},
		{"Rejected Keys", joinList(s.RejectedKeys)},
		{"Trace", s.TracePath},
		{"Metrics", s.MetricsPath},
	}))
}
