package preflight

import (
	"context"
	"path/filepath"
	"strings"

	"ecusim/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))

	if dir := strings.TrimSpace(cfg.Output.TraceDir); dir != "" {
		results = append(results, CheckDirectoryAccess("Trace directory", dir))
	}
	if path := strings.TrimSpace(cfg.Metrics.TextfilePath); path != "" {
		results = append(results, CheckDirectoryAccess("Metrics directory", filepath.Dir(path)))
	}

	results = append(results, CheckCalibration(cfg.Paths.CalibrationFile))

	if cfg.History.Enabled {
		results = append(results, CheckHistory(ctx, cfg))
	}
	results = append(results, CheckRunLock(cfg.LockPath()))

	return results
}

// Failed reports whether any result did not pass.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return true
		}
	}
	return false
}
