package handlers

import (
	"context"
	"net/http"
	"time"

	"sql-orchestrator/internal/api/dto"
	"sql-orchestrator/internal/api/utils"
)

const healthPingTimeout = 3 * time.Second

// Pinger checks the configured connections.
type Pinger interface {
	ConnectionNames() []string
	Ping(ctx context.Context, name string) error
}

func NewHealthHandler(p Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			utils.WriteMethodNotAllowed(w, http.MethodGet)
			return
		}

		resp := dto.HealthResponse{Status: "ok", Connections: make([]dto.HealthConnection, 0)}
		if p != nil {
			for _, name := range p.ConnectionNames() {
				ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
				err := p.Ping(ctx, name)
				cancel()

				c := dto.HealthConnection{Name: name, Status: "ok"}
				if err != nil {
					c.Status = "unavailable"
					c.Error = err.Error()
					resp.Status = "degraded"
				}
				resp.Connections = append(resp.Connections, c)
			}
		}

		status := http.StatusOK
		if resp.Status != "ok" {
			status = http.StatusServiceUnavailable
		}
		utils.WriteJSON(w, status, resp)
	}
}
