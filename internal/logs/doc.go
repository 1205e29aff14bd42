// Package logs reads back the JSON run log written by the logging package.
//
// Tail returns the last N lines (or the lines appended after an offset) with
// bounded memory, optionally restricted to one run ID, and powers
// `ecusim logs --follow`. Render turns a JSON record into a single readable
// line for terminal output.
package logs
