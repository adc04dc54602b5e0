package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gitlab.com/tozd/go/errors"
)

// LoadDotEnv reads .env from the working directory if there is one.
// Variables already set in the environment win.
func LoadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Errorf("loading .env: %w", err)
	}
	return nil
}

// Load reads configuration from environment variables, applies defaults,
// and validates the result.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, errors.Errorf("config load: %w", err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func (c *Config) normalize() {
	c.Output.Encoding = strings.ToLower(strings.TrimSpace(c.Output.Encoding))
	c.Output.Format = strings.ToLower(strings.TrimSpace(c.Output.Format))
	c.Output.LineEnding = strings.ToLower(strings.TrimSpace(c.Output.LineEnding))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
}

// Validate checks that the configuration is valid and reports every
// problem at once.
func (c *Config) Validate() error {
	var errs []string

	validEncodings := map[string]bool{"utf-8-sig": true, "utf-8": true, "cp932": true}
	if !validEncodings[c.Output.Encoding] {
		errs = append(errs, fmt.Sprintf("COLMAP_OUTPUT_ENCODING (%q) must be one of: utf-8-sig, utf-8, cp932", c.Output.Encoding))
	}
	if c.Output.Format != "csv" && c.Output.Format != "xlsx" {
		errs = append(errs, fmt.Sprintf("COLMAP_OUTPUT_FORMAT (%q) must be csv or xlsx", c.Output.Format))
	}
	if c.Output.LineEnding != "lf" && c.Output.LineEnding != "crlf" {
		errs = append(errs, fmt.Sprintf("COLMAP_LINE_ENDING (%q) must be lf or crlf", c.Output.LineEnding))
	}
	if c.Output.ErrorSentinel == "" {
		errs = append(errs, "COLMAP_ERROR_SENTINEL must not be empty")
	}

	if c.Input.MaxFileSize <= 0 {
		errs = append(errs, "COLMAP_MAX_FILE_SIZE must be positive")
	}

	if c.UI.PreviewRows <= 0 {
		errs = append(errs, "COLMAP_PREVIEW_ROWS must be positive")
	}
	if c.UI.SampleLength <= 0 {
		errs = append(errs, "COLMAP_SAMPLE_LENGTH must be positive")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}
	if c.Logging.Format != "console" && c.Logging.Format != "json" {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be console or json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return errors.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}
