// Package autostart runs the daemon either in the foreground or under the
// Windows service manager, and installs it as an automatic service.
package autostart

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"

	"sql-orchestrator/internal/logger"
)

const stopTimeout = 10 * time.Second

type ServiceApp interface {
	Start() error
	Stop(ctx context.Context)
	Errors() <-chan error
	Logger() logger.LoggerService
}

// ServiceSpec describes the installed service.
type ServiceSpec struct {
	Name        string
	DisplayName string
	Description string
	ExePath     string
}

// RunForeground starts app and blocks until it fails or the process is
// interrupted.
func RunForeground(app ServiceApp) error {
	if err := app.Start(); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case err := <-app.Errors():
		stopApp(app)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case sig := <-sigCh:
		if log := app.Logger(); log != nil {
			log.Info("shutdown signal", logger.String("signal", sig.String()))
		}
		stopApp(app)
		return nil
	}
}

func stopApp(app ServiceApp) {
	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	app.Stop(ctx)
}
