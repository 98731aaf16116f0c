package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FawadHussainshah110/screen-sharing-flutter-app/internal/config"
)

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, level)

	level, err = ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, zerolog.DebugLevel, level)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestWriter_FileGetsJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "relay.log")
	var stderr bytes.Buffer

	w, closer, err := writer(config.LogConfig{Format: "json", File: path, MaxSizeMB: 1}, &stderr)
	require.NoError(t, err)

	logger := zerolog.New(w)
	logger.Info().Str("module", "test").Msg("hello")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"module":"test"`)
	assert.Contains(t, stderr.String(), `"message":"hello"`)
}

func TestWriter_RejectsUnknownFormat(t *testing.T) {
	_, _, err := writer(config.LogConfig{Format: "xml"}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestSetup(t *testing.T) {
	prev := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(prev) })

	closer, err := Setup(config.LogConfig{Level: "warn", Format: "json"})
	require.NoError(t, err)
	defer closer.Close()
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())
}
