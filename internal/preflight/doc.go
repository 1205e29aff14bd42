// Package preflight provides readiness checks for the filesystem paths and
// documents a simulation run depends on.
//
// The CLI "ecusim doctor" command runs RunAll and prints one status line per
// check. Optional outputs (trace directory, metrics textfile, history) are
// only checked when the config enables them.
package preflight
