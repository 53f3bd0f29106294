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
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	logger, err := New("debug", path)
	require.NoError(t, err)

	logger.Debug("hello", zap.String("translation", "KJV"))
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
	assert.Contains(t, string(data), `"translation":"KJV"`)
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New("loud", "")
	assert.Error(t, err)
}
