package simulate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"ecusim/internal/calibration"
	"ecusim/internal/config"
	"ecusim/internal/control"
	"ecusim/internal/csvio"
	"ecusim/internal/history"
	"ecusim/internal/logging"
	"ecusim/internal/metrics"
)

// StdioPath selects stdin for the input or stdout for the output.
const StdioPath = "-"

// Options selects the files for one run. Empty optional paths fall back to
// the application config.
type Options struct {
	InputPath       string
	OutputPath      string
	CalibrationPath string
	TracePath       string
	MetricsPath     string
	NoHistory       bool
}

// Runner executes simulation runs against one application config.
type Runner struct {
	cfg    *config.Config
	logger *slog.Logger

	Stdin  io.Reader
	Stdout io.Writer

	now   func() time.Time
	newID func() string
}

// NewRunner constructs a runner. A nil logger discards output.
func NewRunner(cfg *config.Config, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "simulate"),
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Run evaluates every input row and writes the outputs. The returned summary
// is non-nil whenever the run got far enough to be assigned an ID, including
// failed runs.
func (r *Runner) Run(ctx context.Context, opts Options) (summary *Summary, err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if r.cfg == nil {
		return nil, errors.New("runner requires config")
	}
	opts.InputPath = strings.TrimSpace(opts.InputPath)
	opts.OutputPath = strings.TrimSpace(opts.OutputPath)
	if opts.InputPath == "" || opts.OutputPath == "" {
		return nil, Wrap(ErrUsage, "run", "input and output paths are required", nil)
	}

	if err := r.cfg.EnsureDirectories(); err != nil {
		return nil, Wrap(ErrOutput, "prepare directories", "", err)
	}
	lock := flock.New(r.cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return nil, Wrap(ErrOutput, "acquire run lock", r.cfg.LockPath(), err)
	}
	if !ok {
		return nil, Wrap(ErrBusy, "acquire run lock", r.cfg.LockPath(), nil)
	}
	defer func() {
		if unlockErr := lock.Unlock(); unlockErr != nil {
			r.logger.Warn("failed to release run lock", logging.Args(logging.Error(unlockErr))...)
		}
	}()

	summary = newSummary(r.newID(), r.now())
	summary.InputPath = opts.InputPath
	summary.OutputPath = opts.OutputPath
	ctx = logging.WithRunID(ctx, summary.RunID)
	logger := logging.WithContext(ctx, r.logger)

	defer func() {
		summary.FinishedAt = r.now()
		summary.Elapsed = summary.FinishedAt.Sub(summary.StartedAt)
		if !opts.NoHistory && r.cfg.History.Enabled {
			r.recordHistory(ctx, logger, summary, err)
		}
		if err != nil {
			logging.ErrorWithContext(logger, "run failed", "run_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, errorHint(err)),
			)
		}
	}()

	cal, err := r.loadCalibration(logger, opts, summary)
	if err != nil {
		return summary, err
	}

	logger.Info("run started",
		logging.Args(
			logging.String("input", opts.InputPath),
			logging.String("output", opts.OutputPath),
			logging.String("calibration", summary.CalibrationPath),
		)...,
	)

	recorder := metrics.NewRecorder(r.cfg.Metrics.Namespace)
	if err := r.execute(ctx, logger, cal, opts, summary, recorder); err != nil {
		return summary, err
	}

	recorder.Finish(r.now().Sub(summary.StartedAt), r.now())
	if path := r.metricsPath(opts); path != "" {
		if err := recorder.WriteTextfile(path); err != nil {
			logging.WarnWithContext(logger, "metrics textfile not written", "metrics_write_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check metrics.textfile_path permissions"),
				logging.String(logging.FieldImpact, "run metrics unavailable to the node exporter"),
			)
		} else {
			summary.MetricsPath = path
		}
	}

	logger.Info("run complete",
		logging.Args(
			logging.Int64("rows", summary.Rows),
			logging.Int("peak_speed", summary.PeakSpeed),
			logging.Int("final_speed", summary.FinalSpeed),
			logging.Bool("limp_latched", summary.LimpLatched),
			logging.Int("rev_cut_activations", summary.RevCutActivations),
			logging.Duration("elapsed", r.now().Sub(summary.StartedAt)),
		)...,
	)
	return summary, nil
}

func (r *Runner) loadCalibration(logger *slog.Logger, opts Options, summary *Summary) (calibration.Config, error) {
	path := strings.TrimSpace(opts.CalibrationPath)
	if path == "" {
		path = r.cfg.Paths.CalibrationFile
	}
	expanded, err := config.ExpandPath(path)
	if err != nil {
		return calibration.Default(), Wrap(ErrInput, "resolve calibration path", path, err)
	}
	cal, report, err := calibration.Load(expanded)
	if err != nil {
		summary.CalibrationPath = expanded
		return cal, Wrap(ErrInput, "load calibration", expanded, err)
	}
	summary.applyReport(report)
	logCalibrationReport(logger, report)
	return cal, nil
}

func logCalibrationReport(logger *slog.Logger, report calibration.Report) {
	if !report.Found {
		logger.Info("calibration file not found; using defaults",
			logging.Args(logging.String("calibration", report.Path))...)
	}
	for _, e := range report.Unknown {
		logging.WarnWithContext(logger, "unknown calibration key ignored", "calibration_unknown_key",
			logging.String("key", e.Key),
			logging.Int("line", e.Line),
			logging.String(logging.FieldErrorHint, "check the key spelling against `ecusim calib show`"),
			logging.String(logging.FieldImpact, "value has no effect"),
		)
	}
	for _, e := range report.Rejected {
		logging.WarnWithContext(logger, "calibration value rejected", "calibration_rejected_value",
			logging.String("key", e.Key),
			logging.String("value", e.Value),
			logging.Int("line", e.Line),
			logging.String(logging.FieldErrorHint, "values must be numeric and non-negative"),
			logging.String(logging.FieldImpact, "default value retained"),
		)
	}
	for _, c := range report.Corrections {
		logging.WarnWithContext(logger, "calibration value corrected", "calibration_corrected",
			logging.String("key", c.Key),
			logging.String("from", c.From),
			logging.String("to", c.To),
			logging.String("reason", c.Reason),
			logging.String(logging.FieldImpact, "corrected value used for this run"),
		)
	}
	for _, e := range report.Shadowed {
		logger.Debug("duplicate calibration key ignored",
			logging.Args(logging.String("key", e.Key), logging.Int("line", e.Line))...)
	}
}

// execute streams rows from input to output. The header is read before the
// output is created so header failures leave no partial output behind.
func (r *Runner) execute(ctx context.Context, logger *slog.Logger, cal calibration.Config, opts Options, summary *Summary, recorder *metrics.Recorder) error {
	input, closeInput, err := r.openInput(opts.InputPath)
	if err != nil {
		return err
	}
	defer closeInput()

	reader, err := csvio.NewReader(input)
	if err != nil {
		return Wrap(ErrInput, "read input header", opts.InputPath, err)
	}

	output, closeOutput, err := r.openOutput(opts.OutputPath)
	if err != nil {
		return err
	}
	outputClosed := false
	defer func() {
		if !outputClosed {
			_ = closeOutput()
		}
	}()
	writer, err := csvio.NewWriter(output)
	if err != nil {
		return Wrap(ErrOutput, "write output header", opts.OutputPath, err)
	}

	tracer, closeTrace, err := r.openTrace(opts, summary)
	if err != nil {
		return err
	}
	defer closeTrace()

	pipeline := control.New(cal)
	for row := int64(0); ; row++ {
		if row%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("run cancelled: %w", err)
			}
		}
		in, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Wrap(ErrInput, "read input row", fmt.Sprintf("line %d", reader.Line()), err)
		}

		out, trace := pipeline.Step(in)
		if err := writer.Write(out); err != nil {
			return Wrap(ErrOutput, "write output row", opts.OutputPath, err)
		}
		if tracer != nil {
			if err := tracer.Write(out, trace); err != nil {
				return Wrap(ErrOutput, "write trace row", summary.TracePath, err)
			}
		}
		recorder.Observe(out, trace)
		summary.observe(row, out, trace)
		logRowEvents(logger, row, reader.Line(), trace)
	}

	if err := writer.Flush(); err != nil {
		return Wrap(ErrOutput, "flush output", opts.OutputPath, err)
	}
	if tracer != nil {
		if err := tracer.Flush(); err != nil {
			return Wrap(ErrOutput, "flush trace", summary.TracePath, err)
		}
	}
	outputClosed = true
	if err := closeOutput(); err != nil {
		return Wrap(ErrOutput, "close output", opts.OutputPath, err)
	}
	return nil
}

func logRowEvents(logger *slog.Logger, row int64, line int, trace control.Trace) {
	if trace.LimpLatchedNow {
		logger.Debug("limp mode latched",
			logging.Args(
				logging.String(logging.FieldStage, control.StageLimpMonitor),
				logging.Int64(logging.FieldRow, row),
				logging.Int("line", line),
			)...,
		)
	}
	if trace.RevCutActivated {
		logger.Debug("hard rev cut engaged",
			logging.Args(
				logging.String(logging.FieldStage, control.StageRevLimiter),
				logging.Int64(logging.FieldRow, row),
				logging.Int("line", line),
			)...,
		)
	}
	if trace.RevCutReleased {
		logger.Debug("hard rev cut released",
			logging.Args(
				logging.String(logging.FieldStage, control.StageRevLimiter),
				logging.Int64(logging.FieldRow, row),
				logging.Int("line", line),
			)...,
		)
	}
}

func (r *Runner) openInput(path string) (io.Reader, func(), error) {
	if path == StdioPath {
		return r.Stdin, func() {}, nil
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, Wrap(ErrInput, "open input", path, err)
	}
	return file, func() { _ = file.Close() }, nil
}

func (r *Runner) openOutput(path string) (io.Writer, func() error, error) {
	if path == StdioPath {
		return r.Stdout, func() error { return nil }, nil
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, Wrap(ErrOutput, "create output directory", dir, err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, nil, Wrap(ErrOutput, "create output", path, err)
	}
	return file, file.Close, nil
}

func (r *Runner) openTrace(opts Options, summary *Summary) (*csvio.TraceWriter, func(), error) {
	path := strings.TrimSpace(opts.TracePath)
	if path == "" && strings.TrimSpace(r.cfg.Output.TraceDir) != "" {
		path = filepath.Join(r.cfg.Output.TraceDir, summary.RunID+".csv")
	}
	if path == "" {
		return nil, func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, Wrap(ErrOutput, "create trace directory", path, err)
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, nil, Wrap(ErrOutput, "create trace", path, err)
	}
	tracer, err := csvio.NewTraceWriter(file)
	if err != nil {
		_ = file.Close()
		return nil, nil, Wrap(ErrOutput, "write trace header", path, err)
	}
	summary.TracePath = path
	return tracer, func() { _ = file.Close() }, nil
}

func (r *Runner) metricsPath(opts Options) string {
	if path := strings.TrimSpace(opts.MetricsPath); path != "" {
		return path
	}
	return strings.TrimSpace(r.cfg.Metrics.TextfilePath)
}

func (r *Runner) recordHistory(ctx context.Context, logger *slog.Logger, summary *Summary, runErr error) {
	store, err := history.Open(r.cfg)
	if err != nil {
		logging.WarnWithContext(logger, "run history unavailable", "history_open_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "clear the history with `ecusim runs clear` or delete "+r.cfg.HistoryPath()),
			logging.String(logging.FieldImpact, "run not recorded"),
		)
		return
	}
	defer store.Close()

	// Recording must succeed even when the run itself was cancelled.
	ctx = context.WithoutCancel(ctx)
	if err := store.Record(ctx, summary.historyRun(runErr)); err != nil {
		logging.WarnWithContext(logger, "run not recorded", "history_record_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "run missing from `ecusim runs list`"),
		)
		return
	}
	removed, err := store.Prune(ctx, r.cfg.History.RetentionRuns)
	if err != nil {
		logging.WarnWithContext(logger, "run history prune failed", "history_prune_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "history grows past retention_runs"),
		)
		return
	}
	if removed > 0 {
		logger.Debug("pruned run history", logging.Args(logging.Int64("removed", removed))...)
	}
}

func errorHint(err error) string {
	switch ExitCode(err) {
	case ExitEmptyInput:
		return "input file has no header row"
	case ExitMissingColumn:
		return "add an " + csvio.ColumnIgnition + " column to the input header"
	case ExitInput:
		return "check the input and calibration paths"
	case ExitOutput:
		return "check the output location is writable"
	case ExitBusy:
		return "wait for the other run to finish"
	default:
		return "check logs for details"
	}
}
