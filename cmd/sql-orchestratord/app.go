package main

import (
	"context"
	"net/http"

	"github.com/pkg/errors"

	"sql-orchestrator/internal/api"
	"sql-orchestrator/internal/config"
	"sql-orchestrator/internal/db"
	"sql-orchestrator/internal/logger"
	"sql-orchestrator/internal/service"
)

const windowsServiceName = "sql-orchestratord"

type serverApp struct {
	cfg     config.Config
	logSvc  logger.LoggerService
	adapter *db.SQLAdapter
	srv     *http.Server
	errCh   chan error
}

func (a *serverApp) Start() error {
	bootstrapLog := logger.NewStderr()

	cfg, err := config.Load()
	if err != nil {
		if errors.Is(err, config.ErrNotFound) {
			bootstrapLog.Error("config not found; run `sql-orchestrator config set` to create it", nil)
			return err
		}
		bootstrapLog.Error("failed to load config", err)
		return err
	}
	a.cfg = cfg

	logSvc, err := logger.New(cfg)
	if err != nil {
		bootstrapLog.Error("logger init failed; using stderr", err)
		logSvc = bootstrapLog
	}
	a.logSvc = logSvc

	a.adapter = db.NewSQLAdapter(cfg, db.OptionsFromConfig(cfg.Pool), db.SecretPasswords, logSvc)
	svc := service.New(a.adapter, cfg, logSvc)

	srv, err := api.NewServer(cfg, api.ServerDeps{
		Service:        svc,
		Pinger:         a.adapter,
		Logger:         logSvc,
		RequestTimeout: svc.Timeout(),
	})
	if err != nil {
		logSvc.Error("config validation error", err)
		a.Stop(context.Background())
		return err
	}
	a.srv = srv

	a.errCh = make(chan error, 1)
	go func() {
		a.errCh <- srv.ListenAndServe()
	}()

	logSvc.Info("sql-orchestratord listening",
		logger.String("addr", srv.Addr),
		logger.Int("connections", len(cfg.Connections)))
	return nil
}

func (a *serverApp) Stop(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	if a.srv != nil {
		_ = a.srv.Shutdown(ctx)
	}
	if a.adapter != nil {
		if err := a.adapter.Close(); err != nil && a.logSvc != nil {
			a.logSvc.Error("close connection pools", err)
		}
	}
	if a.logSvc != nil {
		_ = a.logSvc.Close()
	}
}

func (a *serverApp) Errors() <-chan error {
	return a.errCh
}

func (a *serverApp) Logger() logger.LoggerService {
	return a.logSvc
}
