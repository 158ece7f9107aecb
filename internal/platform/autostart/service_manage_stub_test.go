//go:build !windows

package autostart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceControlUnsupported(t *testing.T) {
	isService, err := IsWindowsService()
	require.NoError(t, err)
	assert.False(t, isService)

	err = RunService("sql-orchestratord", &fakeApp{})
	assert.ErrorIs(t, err, ErrServiceUnsupported)
	assert.Contains(t, err.Error(), `"sql-orchestratord"`)

	_, err = Install(ServiceSpec{Name: "sql-orchestratord"})
	assert.ErrorIs(t, err, ErrServiceUnsupported)
	assert.ErrorIs(t, Start("sql-orchestratord"), ErrServiceUnsupported)
	assert.ErrorIs(t, Stop("sql-orchestratord", 0), ErrServiceUnsupported)
	_, err = Status("sql-orchestratord")
	assert.ErrorIs(t, err, ErrServiceUnsupported)
}
