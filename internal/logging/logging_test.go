package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "carlist.log")

	logger, closeFn, err := New(Options{Path: path})
	require.NoError(t, err)

	logger.Info("loaded listings")
	logger.Debug("hidden at info level")
	closeFn()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "loaded listings")
	assert.NotContains(t, string(data), "hidden at info level")
}

func TestNewVerboseEnablesDebug(t *testing.T) {
	path := filepath.Join(t.TempDir(), "carlist.log")

	logger, closeFn, err := New(Options{Path: path, Verbose: true})
	require.NoError(t, err)

	logger.Debug("fetch started")
	closeFn()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "fetch started"))
}
