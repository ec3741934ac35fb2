package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialize_FileSinkReceivesLogLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rfr.log")
	Initialize("debug", path)

	l := GetForComponent("sink_check")
	l.Info().Msg("file sink online")

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(contents), "file sink online")
	assert.Contains(t, string(contents), `"component":"sink_check"`)
}

func TestInitialize_UnwritableFileFallsBackToConsole(t *testing.T) {
	Initialize("info", filepath.Join(t.TempDir(), "missing", "rfr.log"))

	// The logger must stay usable on the console sink alone.
	assert.NotPanics(t, func() {
		l := GetForComponent("fallback_check")
		l.Info().Msg("console only")
	})
}

func TestInitialize_EmptyPathDisablesFileSink(t *testing.T) {
	Initialize("warn", "")
	assert.NotPanics(t, func() {
		l := GetForComponent("console_check")
		l.Warn().Msg("no file sink")
	})
}
