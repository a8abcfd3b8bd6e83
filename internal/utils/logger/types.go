package logger

// LoggingConfig defines the configuration for logging.
type LoggingConfig struct {
	// Enabled controls whether file logging is active; console logging to
	// stderr is always available.
	Enabled bool `yaml:"enabled"`
	// Level is the minimum log level (debug, info).
	Level string `yaml:"level"`
	// Path is the log file path.
	Path string `yaml:"path"`
	// MaxSize is the maximum size in MB before rotation.
	MaxSize int `yaml:"max_size"`
	// MaxBackups is the maximum number of rotated files kept.
	MaxBackups int `yaml:"max_backups"`
	// MaxAge is the maximum age in days of rotated files.
	MaxAge int `yaml:"max_age"`
	// Compress controls gzip compression of rotated files.
	Compress bool `yaml:"compress"`
}
