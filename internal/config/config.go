// Package config loads application settings from environment variables.
// Every field has a default, so an empty environment is a valid config.
package config

// Config holds all application configuration.
type Config struct {
	Output  OutputConfig
	Input   InputConfig
	Rules   RulesConfig
	UI      UIConfig
	Logging LoggingConfig
}

// OutputConfig controls how results are written.
type OutputConfig struct {
	// Encoding is utf-8-sig, utf-8 or cp932 (default: utf-8-sig)
	Encoding string `env:"COLMAP_OUTPUT_ENCODING" envDefault:"utf-8-sig"`

	// Format is csv or xlsx (default: csv)
	Format string `env:"COLMAP_OUTPUT_FORMAT" envDefault:"csv"`

	// LineEnding is lf or crlf (default: lf)
	LineEnding string `env:"COLMAP_LINE_ENDING" envDefault:"lf"`

	// ErrorSentinel fills columns whose transform failed (default: ERROR)
	ErrorSentinel string `env:"COLMAP_ERROR_SENTINEL" envDefault:"ERROR"`
}

// InputConfig limits what is read.
type InputConfig struct {
	// MaxFileSize is the largest accepted input in bytes (default: 100MB)
	MaxFileSize int64 `env:"COLMAP_MAX_FILE_SIZE" envDefault:"104857600"`
}

// RulesConfig locates the optional rules file.
type RulesConfig struct {
	// File is a rules YAML imported at startup; empty starts with the default rule set.
	File string `env:"COLMAP_RULES_FILE"`
}

// UIConfig holds interactive display settings.
type UIConfig struct {
	PreviewRows  int `env:"COLMAP_PREVIEW_ROWS" envDefault:"5"`
	SampleLength int `env:"COLMAP_SAMPLE_LENGTH" envDefault:"10"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is debug, info, warn or error (default: info)
	Level string `env:"LOG_LEVEL" envDefault:"info"`

	// Format is console or json (default: console)
	Format string `env:"LOG_FORMAT" envDefault:"console"`

	// File receives log output when set.
	File string `env:"LOG_FILE"`
}

// CRLF reports whether CSV lines end in \r\n.
func (c *OutputConfig) CRLF() bool {
	return c.LineEnding == "crlf"
}
