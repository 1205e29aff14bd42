package preflight

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/gofrs/flock"
	"golang.org/x/sys/unix"

	"ecusim/internal/calibration"
	"ecusim/internal/config"
	"ecusim/internal/history"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckCalibration loads the calibration the way a run would. A missing file
// passes since runs fall back to defaults; a document that cannot be decoded
// fails.
func CheckCalibration(path string) Result {
	const name = "Calibration"

	_, report, err := calibration.Load(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	if !report.Found {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (not found, defaults in use)", path)}
	}

	var findings []string
	if n := len(report.Unknown); n > 0 {
		findings = append(findings, fmt.Sprintf("%d unknown key(s)", n))
	}
	if n := len(report.Rejected); n > 0 {
		findings = append(findings, fmt.Sprintf("%d rejected value(s)", n))
	}
	if n := len(report.Corrections); n > 0 {
		findings = append(findings, fmt.Sprintf("%d correction(s)", n))
	}
	detail := fmt.Sprintf("%s (%s, %d key(s) set)", path, report.Format, len(report.Applied))
	if len(findings) > 0 {
		detail += "; " + strings.Join(findings, ", ")
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckHistory opens the history database and counts recorded runs.
func CheckHistory(ctx context.Context, cfg *config.Config) Result {
	const name = "Run history"

	store, err := history.Open(cfg)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", cfg.HistoryPath(), err)}
	}
	defer store.Close()

	count, err := store.Count(ctx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", cfg.HistoryPath(), err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d run(s) recorded)", cfg.HistoryPath(), count)}
}

// CheckRunLock reports whether another simulation currently holds the run lock.
func CheckRunLock(path string) Result {
	const name = "Run lock"

	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	if !ok {
		return Result{Name: name, Detail: fmt.Sprintf("%s (held by a running simulation)", path)}
	}
	_ = lock.Unlock()
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (free)", path)}
}
