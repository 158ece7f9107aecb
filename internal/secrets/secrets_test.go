package secrets

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sql-orchestrator/internal/platform/paths"
)

func TestSetGetDelete(t *testing.T) {
	t.Setenv(paths.ConfigEnv, filepath.Join(t.TempDir(), "config.yaml"))

	key := DBPasswordKey("erp main")

	_, err := Get(key)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, Set(key, []byte("p@ss")))
	got, err := Get(key)
	require.NoError(t, err)
	assert.Equal(t, "p@ss", string(got))

	require.NoError(t, Delete(key))
	require.NoError(t, Delete(key))
	_, err = Get(key)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSanitizeKey(t *testing.T) {
	assert.Equal(t, "db_password_erp_main", sanitizeKey("db_password_erp main"))
	assert.Equal(t, "empty", sanitizeKey("  "))
}
