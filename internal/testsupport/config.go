package testsupport

import (
	"path/filepath"
	"testing"

	"ecusim/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The calibration file points at a path that does not exist, so runs use the
// default calibration unless WithCalibration is applied.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.CalibrationFile = filepath.Join(base, "calibration.txt")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "state", "logs")
	cfgVal.Logging.Level = "debug"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithCalibration writes contents to the config's calibration file.
func WithCalibration(contents string) ConfigOption {
	return func(b *configBuilder) {
		WriteText(b.t, b.cfg.Paths.CalibrationFile, contents)
	}
}

// WithTraceDir enables per-run trace files under the temp directory.
func WithTraceDir() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Output.TraceDir = filepath.Join(b.baseDir, "traces")
	}
}

// WithMetricsTextfile enables the Prometheus textfile export.
func WithMetricsTextfile() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Metrics.TextfilePath = filepath.Join(b.baseDir, "metrics", "ecusim.prom")
	}
}

// WithoutHistory disables run recording.
func WithoutHistory() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.History.Enabled = false
	}
}

// WithRetention overrides the history retention count.
func WithRetention(runs int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.History.RetentionRuns = runs
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
