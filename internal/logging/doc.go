// Package logging assembles structured slog loggers and formatting helpers used
// across ecusim.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so run code can tag log lines
// with run identifiers and stage names. The package also provides a no-op
// logger for tests and wiring code that cannot fail.
package logging
