package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"ecusim/internal/history"
	"ecusim/internal/simulate"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "Browse the run history",
	}

	runsCmd.AddCommand(newRunsListCommand(ctx))
	runsCmd.AddCommand(newRunsShowCommand(ctx))
	runsCmd.AddCommand(newRunsClearCommand(ctx))

	return runsCmd
}

func (c *commandContext) withStore(fn func(*history.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := history.Open(cfg)
	if err != nil {
		return fmt.Errorf("open run history: %w", err)
	}
	defer store.Close()
	return fn(store)
}

// runView is the JSON shape of a history record.
type runView struct {
	ID                     string  `json:"id"`
	Status                 string  `json:"status"`
	StartedAt              string  `json:"started_at"`
	FinishedAt             string  `json:"finished_at"`
	DurationSeconds        float64 `json:"duration_seconds"`
	InputPath              string  `json:"input_path"`
	OutputPath             string  `json:"output_path"`
	CalibrationPath        string  `json:"calibration_path,omitempty"`
	CalibrationFound       bool    `json:"calibration_found"`
	CalibrationCorrections int     `json:"calibration_corrections"`
	Rows                   int64   `json:"rows"`
	RowsOn                 int64   `json:"rows_on"`
	PeakSpeed              int     `json:"peak_speed"`
	FinalSpeed             int     `json:"final_speed"`
	LimpLatched            bool    `json:"limp_latched"`
	RevCutActivations      int     `json:"rev_cut_activations"`
	TracePath              string  `json:"trace_path,omitempty"`
	ErrorMessage           string  `json:"error_message,omitempty"`
}

func newRunView(run *history.Run) runView {
	return runView{
		ID:                     run.ID,
		Status:                 string(run.Status),
		StartedAt:              run.StartedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		FinishedAt:             run.FinishedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		DurationSeconds:        run.Duration().Seconds(),
		InputPath:              run.InputPath,
		OutputPath:             run.OutputPath,
		CalibrationPath:        run.CalibrationPath,
		CalibrationFound:       run.CalibrationFound,
		CalibrationCorrections: run.CalibrationCorrections,
		Rows:                   run.Rows,
		RowsOn:                 run.RowsOn,
		PeakSpeed:              run.PeakSpeed,
		FinalSpeed:             run.FinalSpeed,
		LimpLatched:            run.LimpLatched,
		RevCutActivations:      run.RevCutActivations,
		TracePath:              run.TracePath,
		ErrorMessage:           run.ErrorMessage,
	}
}

func newRunsListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return simulate.Wrap(simulate.ErrUsage, "runs list", "--limit must be >= 0", nil)
			}
			return ctx.withStore(func(store *history.Store) error {
				runs, err := store.List(cmd.Context(), limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if jsonOut {
					views := make([]runView, 0, len(runs))
					for _, run := range runs {
						views = append(views, newRunView(run))
					}
					return writeJSON(out, views)
				}
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs recorded")
					return nil
				}
				rows := make([][]string, 0, len(runs))
				for _, run := range runs {
					rows = append(rows, []string{
						shortID(run.ID),
						formatTimestamp(run.StartedAt),
						titleCase(string(run.Status)),
						strconv.FormatInt(run.Rows, 10),
						formatRPM(run.PeakSpeed),
						yesNo(run.LimpLatched),
						strconv.Itoa(run.RevCutActivations),
						run.InputPath,
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Started", "Status", "Rows", "Peak", "Limp", "Rev Cuts", "Input"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum runs to list (0 for all)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print runs as JSON")
	return cmd
}

func newRunsShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one recorded run (full id or unique prefix)",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *history.Store) error {
				run, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if run == nil {
					return fmt.Errorf("run %s not found", strings.TrimSpace(args[0]))
				}
				out := cmd.OutOrStdout()
				if jsonOut {
					return writeJSON(out, newRunView(run))
				}
				kind := statusOK
				if run.Status == history.StatusFailed {
					kind = statusError
				}
				colorize := shouldColorize(out)
				fmt.Fprintln(out, renderStatusLine("Run "+shortID(run.ID), kind, titleCase(string(run.Status)), colorize))
				fmt.Fprintln(out, renderFields([][2]string{
					{"Run ID", run.ID},
					{"Started", formatTimestamp(run.StartedAt)},
					{"Duration", formatElapsed(run.Duration())},
					{"Input", run.InputPath},
					{"Output", run.OutputPath},
					{"Calibration", run.CalibrationPath},
					{"Calibration Found", yesNo(run.CalibrationFound)},
					{"Corrections", strconv.Itoa(run.CalibrationCorrections)},
					{"Rows", strconv.FormatInt(run.Rows, 10)},
					{"Engine On Rows", strconv.FormatInt(run.RowsOn, 10)},
					{"Peak Speed", formatRPM(run.PeakSpeed)},
					{"Final Speed", formatRPM(run.FinalSpeed)},
					{"Limp Mode", yesNo(run.LimpLatched)},
					{"Rev Cuts", strconv.Itoa(run.RevCutActivations)},
					{"Trace", run.TracePath},
					{"Error", run.ErrorMessage},
				}))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the run as JSON")
	return cmd
}

func newRunsClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every recorded run",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *history.Store) error {
				removed, err := store.Clear(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d run(s)\n", removed)
				return nil
			})
		},
	}
}
