package api

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"sql-orchestrator/internal/api/handlers"
	"sql-orchestrator/internal/api/middleware"
	"sql-orchestrator/internal/api/utils"
	"sql-orchestrator/internal/config"
	"sql-orchestrator/internal/logger"
)

const defaultWriteTimeout = 30 * time.Second

type ServerDeps struct {
	Service handlers.Requester
	Pinger  handlers.Pinger
	Logger  logger.LoggerService
	// RequestTimeout is the longest a batch may run. The write timeout is
	// stretched to cover it.
	RequestTimeout time.Duration
}

func NewServer(cfg config.Config, deps ServerDeps) (*http.Server, error) {
	addr := strings.TrimSpace(cfg.APIListen)
	if err := validateListenAddr(addr); err != nil {
		return nil, err
	}

	token := strings.TrimSpace(cfg.BearerToken)
	if token == "" {
		return nil, errors.New("bearerToken is required")
	}

	return &http.Server{
		Addr:              addr,
		Handler:           NewHandler(token, deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      writeTimeout(deps.RequestTimeout),
		IdleTimeout:       60 * time.Second,
	}, nil
}

// NewHandler builds the routed, authenticated API handler.
func NewHandler(token string, deps ServerDeps) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/health", handlers.NewHealthHandler(deps.Pinger))
	mux.Handle("/api/service/request", handlers.NewServiceHandler(deps.Service))
	mux.Handle("/api/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteNotFound(w)
	}))

	return middleware.Logging(deps.Logger, true, middleware.Auth(token, mux))
}

func writeTimeout(request time.Duration) time.Duration {
	if t := request + 10*time.Second; t > defaultWriteTimeout {
		return t
	}
	return defaultWriteTimeout
}

func validateListenAddr(addr string) error {
	if addr == "" {
		return errors.New("apiListen is required")
	}

	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return errors.New("apiListen must be in host:port format")
	}
	if host == "" {
		return errors.New("apiListen host is required")
	}

	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return errors.New("apiListen port is invalid")
	}

	return nil
}
