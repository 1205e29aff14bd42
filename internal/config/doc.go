// Package config loads, normalizes, and validates ecusim application
// configuration.
//
// It supplies defaults, expands user paths (including tilde shortcuts),
// reads TOML files, and resolves the calibration file location from the
// ECU_CALIB_PATH environment variable when the file does not name one. The
// calibration itself is not part of this package; see internal/calibration.
package config
