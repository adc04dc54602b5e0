package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/nconklindev/colmap/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, ParseLevel(tt.input), tt.input)
	}
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "warn", "json", true)

	logger.Info().Msg("hidden")
	logger.Warn().Str("column", "金額").Msg("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"column":"金額"`)
	assert.Contains(t, out, `"level":"warn"`)
}

func TestNewConsole(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "info", "console", true)

	logger.Info().Str("rule_set", "A").Msg("conversion started")
	assert.Contains(t, buf.String(), "conversion started")
	assert.Contains(t, buf.String(), "rule_set=A")
}

func TestSetupFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "colmap.log")

	logger, closer, err := Setup(config.LoggingConfig{Level: "info", Format: "json", File: path}, true)
	require.NoError(t, err)

	logger.Info().Msg("to file")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
}

func TestSetupInteractiveDiscards(t *testing.T) {
	logger, closer, err := Setup(config.LoggingConfig{Level: "debug", Format: "console"}, true)
	require.NoError(t, err)
	defer closer.Close()

	require.NotNil(t, zerolog.DefaultContextLogger)
	logger.Info().Msg("discarded")
}

func TestSetupBadFile(t *testing.T) {
	_, _, err := Setup(config.LoggingConfig{File: filepath.Join(t.TempDir(), "missing", "x.log")}, false)
	require.Error(t, err)
}
