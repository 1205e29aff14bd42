// Package csvio reads controller input rows from CSV and writes the emitted
// engine-speed series and per-row stage traces back out as CSV.
//
// Input columns are looked up by exact header name. Only ignition_switch is
// mandatory; every other column falls back to the row defaults of the
// control package when absent or blank. Cells are read as leading base-10
// integers, so "12rpm" reads as 12 and non-numeric text reads as 0.
package csvio
