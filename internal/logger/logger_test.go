package logger

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sql-orchestrator/internal/config"
	"sql-orchestrator/internal/platform/paths"
)

func TestWriterFormatsFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf, false)

	log.Info("batch done", String("service", "orders"), Int("tables", 3))
	log.Error("close failed", errors.New("boom"), String("connection", "erp"))
	log.Debug("hidden")
	log.Warn("   ")

	out := buf.String()
	assert.Contains(t, out, "[INFO] batch done service=orders tables=3\n")
	assert.Contains(t, out, "[ERROR] close failed: boom connection=erp\n")
	assert.NotContains(t, out, "hidden")
	assert.NotContains(t, out, "[WARN]")
}

func TestDebugEnabled(t *testing.T) {
	var buf bytes.Buffer
	NewWriter(&buf, true).Debug("visible")
	assert.Contains(t, buf.String(), "[DEBUG] visible")
}

func TestNewWritesLogFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(paths.ConfigEnv, filepath.Join(dir, "config.yaml"))

	log, err := New(config.Default())
	require.NoError(t, err)
	log.Success("started")
	require.NoError(t, log.Close())

	assert.FileExists(t, filepath.Join(dir, "server.log"))
}
