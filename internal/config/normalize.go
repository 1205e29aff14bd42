package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeOutputs(); err != nil {
		return err
	}
	c.normalizeLogging()
	if c.History.RetentionRuns < 0 {
		c.History.RetentionRuns = 0
	}
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	c.Paths.CalibrationFile = strings.TrimSpace(c.Paths.CalibrationFile)
	if c.Paths.CalibrationFile == "" {
		if value, ok := os.LookupEnv(CalibrationEnv); ok && strings.TrimSpace(value) != "" {
			c.Paths.CalibrationFile = strings.TrimSpace(value)
		} else {
			c.Paths.CalibrationFile = defaultCalibrationFile
		}
	}
	if c.Paths.CalibrationFile, err = expandPath(c.Paths.CalibrationFile); err != nil {
		return fmt.Errorf("paths.calibration_file: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeOutputs() error {
	var err error
	c.Metrics.TextfilePath = strings.TrimSpace(c.Metrics.TextfilePath)
	if c.Metrics.TextfilePath, err = expandPath(c.Metrics.TextfilePath); err != nil {
		return fmt.Errorf("metrics.textfile_path: %w", err)
	}
	c.Metrics.Namespace = strings.TrimSpace(c.Metrics.Namespace)
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = defaultMetricsNS
	}
	c.Output.TraceDir = strings.TrimSpace(c.Output.TraceDir)
	if c.Output.TraceDir, err = expandPath(c.Output.TraceDir); err != nil {
		return fmt.Errorf("output.trace_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
