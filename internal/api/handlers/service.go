package handlers

import (
	"context"
	"io"
	"mime"
	"net/http"
	"time"

	"sql-orchestrator/internal/api/dto"
	"sql-orchestrator/internal/api/middleware"
	"sql-orchestrator/internal/api/utils"
	"sql-orchestrator/internal/service"
)

const serviceMaxBodyBytes = 8 << 20

// Requester runs one batch.
type Requester interface {
	Request(ctx context.Context, data *service.ServiceData) *service.Response
}

// NewServiceHandler accepts a batch as JSON, or YAML when the content type
// says so, and returns the batch response.
func NewServiceHandler(svc Requester) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			utils.WriteMethodNotAllowed(w, http.MethodPost)
			return
		}
		if svc == nil {
			utils.WriteError(w, http.StatusServiceUnavailable, "Service unavailable", "SERVICE_UNAVAILABLE", nil)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, serviceMaxBodyBytes)
		defer r.Body.Close()

		data, err := decodeRequest(r)
		if err != nil {
			utils.WriteError(w, http.StatusBadRequest, "Invalid request body", "INVALID_BODY", map[string]any{"reason": err.Error()})
			return
		}

		start := time.Now()
		resp := svc.Request(r.Context(), data)

		utils.WriteJSON(w, statusFor(resp), dto.ServiceResponse{
			API:    r.URL.Path,
			Status: string(resp.Status),
			Result: resp,
			Meta: dto.ServiceMeta{
				RequestID:  middleware.RequestID(r.Context()),
				DurationMs: time.Since(start).Milliseconds(),
				Tables:     resp.DataSet.Len(),
			},
		})
	}
}

func decodeRequest(r *http.Request) (*service.ServiceData, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/yaml", "application/x-yaml", "text/yaml", "text/x-yaml":
		b, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, err
		}
		return service.DecodeYAML(b)
	default:
		return service.DecodeJSON(r.Body)
	}
}

func statusFor(resp *service.Response) int {
	if resp.OK() || resp.Error == nil {
		return http.StatusOK
	}
	switch resp.Error.Code {
	case service.KindValidation.Code():
		return http.StatusBadRequest
	case service.KindDomain.Code():
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
