package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"ecusim/internal/logging"
	"ecusim/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool
	var runID string
	var raw bool

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the run log",
		Long:  "Prints the tail of " + logging.LogFileName + " from the log directory, optionally limited to one run.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := filepath.Join(cfg.Paths.LogDir, logging.LogFileName)
			out := cmd.OutOrStdout()
			emit := func(batch []string) {
				for _, line := range batch {
					if !raw {
						line = logs.Render(line)
					}
					fmt.Fprintln(out, line)
				}
			}

			result, err := logs.Tail(cmd.Context(), path, logs.TailOptions{Offset: -1, Limit: lines, RunID: runID})
			if err != nil {
				return err
			}
			emit(result.Lines)
			if !follow {
				return nil
			}

			followCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			offset := result.Offset
			for {
				result, err := logs.Tail(followCtx, path, logs.TailOptions{
					Offset: offset,
					Follow: true,
					Wait:   time.Second,
					RunID:  runID,
				})
				if err != nil {
					if errors.Is(err, context.Canceled) {
						return nil
					}
					return err
				}
				emit(result.Lines)
				offset = result.Offset
				if len(result.Lines) == 0 {
					// The log may not exist yet; Tail returns immediately then.
					select {
					case <-followCtx.Done():
						return nil
					case <-time.After(time.Second):
					}
				}
			}
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Follow the log for new records")
	cmd.Flags().StringVar(&runID, "run", "", "Only show records for this run id (prefix)")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print JSON records unformatted")
	return cmd
}
