// Package main hosts the ecusim CLI entrypoint and command graph.
//
// The Cobra-based command tree runs simulations, inspects and scaffolds
// calibration documents, browses the run history, and manages the
// application config. Configuration resolution and logger setup are
// centralized in commandContext so subcommands stay declarative; the
// simulation itself lives in internal/simulate.
package main
