package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_DuplicatesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "site.log")

	logger, err := NewLogger(Options{Service: "aimatrix-site", Env: "test", File: path})
	require.NoError(t, err)

	logger.Info("boot")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"boot"`)
	assert.Contains(t, string(data), `"service":"aimatrix-site"`)
}

func TestNewLogger_RejectsUnknownLevel(t *testing.T) {
	_, err := NewLogger(Options{Service: "s", Env: "e", Level: "loud"})
	assert.Error(t, err)
}
