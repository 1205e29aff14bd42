// Package calibration owns the engine-speed controller's calibration set.
//
// It defines the typed Config consumed by the control pipeline, the
// documented fallback value for every key, and permissive loaders for the
// supported file shapes: line-oriented key/value text, TOML, and YAML. Every
// key is validated on its own; unknown keys are ignored, malformed or
// out-of-range values leave the default in place, and the first valid
// occurrence of a key wins. Normalize enforces the cross-key invariants
// (non-negative rates, soft rev limit strictly below the hard limit) and
// reports each correction it makes.
//
// Load once per run and hand the resulting Config to the pipeline by value;
// nothing in this package is mutated after loading.
package calibration
