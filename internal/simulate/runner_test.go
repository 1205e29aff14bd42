package simulate_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofrs/flock"

	"ecusim/internal/config"
	"ecusim/internal/csvio"
	"ecusim/internal/history"
	"ecusim/internal/simulate"
	"ecusim/internal/testsupport"
)

func runOnce(t *testing.T, cfg *config.Config, opts simulate.Options) (*simulate.Summary, error) {
	t.Helper()
	return simulate.NewRunner(cfg, nil).Run(context.Background(), opts)
}

func paths(t *testing.T, cfg *config.Config, header string, rows ...string) simulate.Options {
	t.Helper()
	base := testsupport.BaseDir(cfg)
	return simulate.Options{
		InputPath:  testsupport.WriteInput(t, base, "input.csv", header, rows...),
		OutputPath: filepath.Join(base, "out", "output.csv"),
	}
}

func TestRunWritesOutputSeries(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	opts := paths(t, cfg, "time,ignition_switch,acc_pedal_position,current_gear",
		"100,1,20,3",
		"200,1,20,3",
		"300,0,20,3",
	)

	summary, err := runOnce(t, cfg, opts)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	got := testsupport.ReadLines(t, opts.OutputPath)
	want := []string{"time,engine_state,engine_speed", "100,1,40", "200,1,80", "300,0,0"}
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Fatalf("unexpected output:\n%s", strings.Join(got, "\n"))
	}
	if summary.Rows != 3 || summary.RowsOn != 2 {
		t.Fatalf("expected 3 rows (2 on), got %d (%d on)", summary.Rows, summary.RowsOn)
	}
	if summary.PeakSpeed != 80 || summary.FinalSpeed != 0 {
		t.Fatalf("unexpected peak/final: %d/%d", summary.PeakSpeed, summary.FinalSpeed)
	}
	if summary.CalibrationFound {
		t.Fatal("expected defaults when calibration file is missing")
	}
	if summary.RunID == "" {
		t.Fatal("expected run id")
	}
}

func TestRunWithoutTimeColumnCountsRows(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	opts := paths(t, cfg, "ignition_switch,acc_pedal_position", "1,20", "", "1,20")

	if _, err := runOnce(t, cfg, opts); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	got := testsupport.ReadLines(t, opts.OutputPath)
	want := []string{"time,engine_state,engine_speed", "0,1,40", "1,1,80"}
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Fatalf("unexpected output:\n%s", strings.Join(got, "\n"))
	}
}

func TestRunUsesStdio(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithoutHistory())
	runner := simulate.NewRunner(cfg, nil)
	runner.Stdin = strings.NewReader("ignition_switch,acc_pedal_position\n1,20\n")
	var out bytes.Buffer
	runner.Stdout = &out

	if _, err := runner.Run(context.Background(), simulate.Options{InputPath: "-", OutputPath: "-"}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got := out.String(); got != "time,engine_state,engine_speed\n0,1,40\n" {
		t.Fatalf("unexpected stdout %q", got)
	}
}

func TestRunErrorsMapToExitCodes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"missing ignition column", "time,acc_pedal_position\n0,10\n", simulate.ExitMissingColumn},
		{"empty input", "", simulate.ExitEmptyInput},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testsupport.NewConfig(t)
			base := testsupport.BaseDir(cfg)
			input := filepath.Join(base, "input.csv")
			testsupport.WriteText(t, input, tc.input)
			output := filepath.Join(base, "output.csv")

			_, err := runOnce(t, cfg, simulate.Options{InputPath: input, OutputPath: output})
			if got := simulate.ExitCode(err); got != tc.want {
				t.Fatalf("expected exit %d, got %d (%v)", tc.want, got, err)
			}
			if _, statErr := os.Stat(output); !os.IsNotExist(statErr) {
				t.Fatalf("expected no output file after header failure, stat err %v", statErr)
			}
		})
	}
}

func TestRunMissingInputIsInputError(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	base := testsupport.BaseDir(cfg)
	_, err := runOnce(t, cfg, simulate.Options{
		InputPath:  filepath.Join(base, "nope.csv"),
		OutputPath: filepath.Join(base, "out.csv"),
	})
	if got := simulate.ExitCode(err); got != simulate.ExitInput {
		t.Fatalf("expected exit %d, got %d (%v)", simulate.ExitInput, got, err)
	}
}

func TestRunUnwritableOutputIsOutputError(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	opts := paths(t, cfg, "ignition_switch", "1")
	blocker := filepath.Join(testsupport.BaseDir(cfg), "blocker")
	testsupport.WriteText(t, blocker, "file, not a directory")
	opts.OutputPath = filepath.Join(blocker, "output.csv")

	_, err := runOnce(t, cfg, opts)
	if got := simulate.ExitCode(err); got != simulate.ExitOutput {
		t.Fatalf("expected exit %d, got %d (%v)", simulate.ExitOutput, got, err)
	}
}

func TestRunRequiresPaths(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	_, err := runOnce(t, cfg, simulate.Options{InputPath: "in.csv"})
	if got := simulate.ExitCode(err); got != simulate.ExitUsage {
		t.Fatalf("expected exit %d, got %d (%v)", simulate.ExitUsage, got, err)
	}
}

func TestRunBusyWhenLockHeld(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	held := flock.New(cfg.LockPath())
	ok, err := held.TryLock()
	if err != nil || !ok {
		t.Fatalf("expected to hold lock, ok=%v err=%v", ok, err)
	}
	t.Cleanup(func() { _ = held.Unlock() })

	opts := paths(t, cfg, "ignition_switch", "1")
	_, err = runOnce(t, cfg, opts)
	if got := simulate.ExitCode(err); got != simulate.ExitBusy {
		t.Fatalf("expected exit %d, got %d (%v)", simulate.ExitBusy, got, err)
	}
}

func TestRunAppliesCalibrationFile(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithCalibration(
		"max_engine_speed = 100 rpm\nturbo_boost = 9\n",
	))
	opts := paths(t, cfg, "ignition_switch,acc_pedal_position,current_gear", "1,45,5")

	summary, err := runOnce(t, cfg, opts)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !summary.CalibrationFound || summary.CalibrationPath != cfg.Paths.CalibrationFile {
		t.Fatalf("expected calibration from %q, got %q (found=%v)", cfg.Paths.CalibrationFile, summary.CalibrationPath, summary.CalibrationFound)
	}
	if summary.PeakSpeed != 100 {
		t.Fatalf("expected speed capped at 100, got %d", summary.PeakSpeed)
	}
	if len(summary.IgnoredKeys) != 1 || summary.IgnoredKeys[0] != "turbo_boost" {
		t.Fatalf("expected turbo_boost ignored, got %v", summary.IgnoredKeys)
	}
}

func TestRunCalibrationFlagOverridesConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithCalibration("max_engine_speed = 100\n"))
	opts := paths(t, cfg, "ignition_switch,acc_pedal_position,current_gear", "1,45,5")
	override := filepath.Join(testsupport.BaseDir(cfg), "override.toml")
	testsupport.WriteText(t, override, "max_engine_speed = 50\n")
	opts.CalibrationPath = override

	summary, err := runOnce(t, cfg, opts)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.PeakSpeed != 50 {
		t.Fatalf("expected override calibration cap 50, got %d", summary.PeakSpeed)
	}
}

func TestRunReportsLimpLatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	opts := paths(t, cfg, "ignition_switch,acc_pedal_position,brake_pedal_position",
		"1,20,20", "1,20,20", "1,20,20", "1,20,20")

	summary, err := runOnce(t, cfg, opts)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !summary.LimpLatched || summary.LimpLatchRow != 2 {
		t.Fatalf("expected latch on row 2, got latched=%v row=%d", summary.LimpLatched, summary.LimpLatchRow)
	}
}

func TestRunWritesTraceAndMetrics(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithTraceDir(), testsupport.WithMetricsTextfile())
	opts := paths(t, cfg, "ignition_switch,acc_pedal_position", "1,20", "1,0", "0,0")

	summary, err := runOnce(t, cfg, opts)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	wantTrace := filepath.Join(cfg.Output.TraceDir, summary.RunID+".csv")
	if summary.TracePath != wantTrace {
		t.Fatalf("expected trace at %q, got %q", wantTrace, summary.TracePath)
	}
	lines := testsupport.ReadLines(t, summary.TracePath)
	if len(lines) != 4 {
		t.Fatalf("expected header plus 3 trace rows, got %d", len(lines))
	}
	if lines[0] != strings.Join(csvio.TraceHeader, ",") {
		t.Fatalf("unexpected trace header %q", lines[0])
	}

	if summary.MetricsPath != cfg.Metrics.TextfilePath {
		t.Fatalf("expected metrics at %q, got %q", cfg.Metrics.TextfilePath, summary.MetricsPath)
	}
	data, err := os.ReadFile(summary.MetricsPath)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	if !strings.Contains(string(data), `ecusim_run_rows_total{engine_state="on"} 2`) {
		t.Fatalf("metrics missing row counter:\n%s", data)
	}
}

func TestRunRecordsHistory(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	opts := paths(t, cfg, "ignition_switch,acc_pedal_position", "1,20", "1,20")

	summary, err := runOnce(t, cfg, opts)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	store := testsupport.MustOpenStore(t, cfg)
	run, err := store.Get(context.Background(), summary.RunID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if run == nil {
		t.Fatal("expected run to be recorded")
	}
	if run.Status != history.StatusCompleted || run.Rows != 2 || run.PeakSpeed != 80 {
		t.Fatalf("unexpected history record: %#v", run)
	}
}

func TestRunRecordsFailedRun(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	opts := paths(t, cfg, "time,acc_pedal_position", "0,10")

	summary, err := runOnce(t, cfg, opts)
	if err == nil {
		t.Fatal("expected missing column error")
	}
	if summary == nil {
		t.Fatal("expected summary for failed run")
	}

	store := testsupport.MustOpenStore(t, cfg)
	run, err := store.Get(context.Background(), summary.RunID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if run == nil || run.Status != history.StatusFailed || run.ErrorMessage == "" {
		t.Fatalf("expected failed run with message, got %#v", run)
	}
}

func TestRunHistoryDisabled(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	opts := paths(t, cfg, "ignition_switch", "1")
	opts.NoHistory = true

	if _, err := runOnce(t, cfg, opts); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	store := testsupport.MustOpenStore(t, cfg)
	count, err := store.Count(context.Background())
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no recorded runs, got %d", count)
	}
}

func TestRunPrunesHistory(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithRetention(2))
	opts := paths(t, cfg, "ignition_switch", "1")

	for i := 0; i < 3; i++ {
		if _, err := runOnce(t, cfg, opts); err != nil {
			t.Fatalf("Run %d failed: %v", i, err)
		}
	}
	store := testsupport.MustOpenStore(t, cfg)
	count, err := store.Count(context.Background())
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected retention to keep 2 runs, got %d", count)
	}
}
