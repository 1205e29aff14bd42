// Package simulate drives one controller run end to end.
//
// Runner.Run resolves and loads the calibration, streams input rows from CSV
// through a control.Pipeline, writes the output (and optional stage trace),
// aggregates run metrics and records the run in the history store. A file
// lock in the state directory keeps concurrent invocations from interleaving
// history writes.
//
// Fatal conditions are tagged with the sentinel errors in errors.go so the
// CLI can map them to the process exit codes with ExitCode.
package simulate
