package autostart

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sql-orchestrator/internal/logger"
)

type fakeApp struct {
	startErr error
	errCh    chan error
	stopped  int
}

func (a *fakeApp) Start() error                 { return a.startErr }
func (a *fakeApp) Stop(context.Context)         { a.stopped++ }
func (a *fakeApp) Errors() <-chan error         { return a.errCh }
func (a *fakeApp) Logger() logger.LoggerService { return logger.Nop() }

func TestRunForegroundStartFailure(t *testing.T) {
	app := &fakeApp{startErr: errors.New("bind: address in use")}
	err := RunForeground(app)
	require.Error(t, err)
	assert.Zero(t, app.stopped)
}

func TestRunForegroundServerError(t *testing.T) {
	app := &fakeApp{errCh: make(chan error, 1)}
	app.errCh <- errors.New("listener closed")

	err := RunForeground(app)
	require.EqualError(t, err, "listener closed")
	assert.Equal(t, 1, app.stopped)
}

func TestRunForegroundServerClosed(t *testing.T) {
	app := &fakeApp{errCh: make(chan error, 1)}
	app.errCh <- http.ErrServerClosed

	assert.NoError(t, RunForeground(app))
	assert.Equal(t, 1, app.stopped)
}
