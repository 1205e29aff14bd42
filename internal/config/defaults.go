package config

const (
	defaultConfigPath      = "~/.config/ecusim/config.toml"
	projectConfigFile      = "ecusim.toml"
	defaultCalibrationFile = "~/.config/ecusim/calibration.txt"
	defaultStateDir        = "~/.local/share/ecusim"
	defaultLogDir          = "~/.local/share/ecusim/logs"
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
	defaultRetentionRuns   = 200
	defaultMetricsNS       = "ecusim"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		History: History{
			Enabled:       true,
			RetentionRuns: defaultRetentionRuns,
		},
		Metrics: Metrics{
			Namespace: defaultMetricsNS,
		},
	}
}
