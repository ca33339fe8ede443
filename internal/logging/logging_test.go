package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"off", zerolog.Disabled},
		{"", zerolog.InfoLevel},
		{"bogus", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), "level %q", tt.in)
	}
}

func TestInitWritesToConsoleAndFile(t *testing.T) {
	var buf bytes.Buffer
	logFile := filepath.Join(t.TempDir(), "logs", "error.txt")

	logger, closer, err := Init(Options{Level: "info", File: logFile, Console: &buf})
	require.NoError(t, err)

	logger.Info().Str("path", "/tmp/x").Msg("deleted")
	logger.Debug().Msg("hidden")
	require.NoError(t, closer.Close())

	assert.Contains(t, buf.String(), `"path":"/tmp/x"`)
	assert.NotContains(t, buf.String(), "hidden")

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "deleted")
}

func TestComponentTagsLogger(t *testing.T) {
	var buf bytes.Buffer
	_, _, err := Init(Options{Console: &buf})
	require.NoError(t, err)

	l := Component("walker")
	l.Info().Msg("hello")
	assert.Contains(t, buf.String(), `"component":"walker"`)
}
