package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qcomposer.log")
	log, closeFn := New(Options{File: path, Level: slog.LevelInfo, MaxSizeMB: 1})

	log.Debug("hidden", "k", 1)
	log.Info("Wire added", "qubits", 4)
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `msg="Wire added" qubits=4`)
	assert.NotContains(t, string(data), "hidden")
}

func TestJSONLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qcomposer.json")
	log, closeFn := New(Options{File: path, Level: slog.LevelDebug, JSON: true})
	log.Debug("Drag started", "kind", "H")
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"Drag started","kind":"H"`)
}

func TestDiscardLogger(t *testing.T) {
	log, closeFn := New(Options{})
	assert.False(t, log.Enabled(t.Context(), slog.LevelError))
	assert.NoError(t, closeFn())
}
