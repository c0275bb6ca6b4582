package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "tasker.log")
	logger, err := New(path, "info")
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("action succeeded", zap.String("action", "complete"))
	_ = logger.Sync()

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"action":"complete"`)
	assert.NotContains(t, string(b), "hidden")
}

func TestNewRejectsLevel(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "x.log"), "loud")
	assert.Error(t, err)
}
