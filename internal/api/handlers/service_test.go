package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sql-orchestrator/internal/dataset"
	"sql-orchestrator/internal/service"
)

type stubRequester struct {
	got  *service.ServiceData
	resp *service.Response
}

func (s *stubRequester) Request(_ context.Context, data *service.ServiceData) *service.Response {
	s.got = data
	return s.resp
}

func okResponse() *service.Response {
	t := dataset.NewTable("0")
	t.AddColumn("n", "int64")
	_ = t.AddRow(int64(1))
	ds := dataset.New()
	ds.Add(t)
	return &service.Response{Status: service.StatusOK, DataSet: ds}
}

func TestServiceHandlerJSON(t *testing.T) {
	stub := &stubRequester{resp: okResponse()}
	body := `{"serviceName":"sql-orchestrator.DefaultService","commands":{"b":{"connectionName":"x","values":[{"Query":"select 1"}]},"a":{"connectionName":"x","values":[]}}}`

	req := httptest.NewRequest(http.MethodPost, "/api/service/request", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	NewServiceHandler(stub).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, stub.got)
	require.Len(t, stub.got.Commands, 2)
	assert.Equal(t, "b", stub.got.Commands[0].Name)
	assert.Equal(t, "a", stub.got.Commands[1].Name)

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "/api/service/request", out["api"])
	assert.Equal(t, "OK", out["status"])
	result := out["result"].(map[string]any)
	tables := result["dataSet"].(map[string]any)["tables"].([]any)
	require.Len(t, tables, 1)
	assert.Equal(t, "0", tables[0].(map[string]any)["name"])
	assert.EqualValues(t, 1, out["meta"].(map[string]any)["tables"])
}

func TestServiceHandlerYAML(t *testing.T) {
	stub := &stubRequester{resp: &service.Response{Status: service.StatusOK}}
	body := "serviceName: sql-orchestrator.DefaultService\ncommands:\n  only:\n    connectionName: x\n    values:\n      - Query: select 1\n"

	req := httptest.NewRequest(http.MethodPost, "/api/service/request", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/yaml; charset=utf-8")
	rec := httptest.NewRecorder()
	NewServiceHandler(stub).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, stub.got)
	assert.Equal(t, "only", stub.got.Commands[0].Name)
	assert.Contains(t, rec.Body.String(), `"dataSet":null`)
}

func TestServiceHandlerErrors(t *testing.T) {
	tests := []struct {
		name   string
		method string
		body   string
		resp   *service.Response
		status int
		code   string
	}{
		{
			name:   "wrong method",
			method: http.MethodGet,
			status: http.StatusMethodNotAllowed,
			code:   "METHOD_NOT_ALLOWED",
		},
		{
			name:   "bad json",
			method: http.MethodPost,
			body:   `{"serviceName":`,
			status: http.StatusBadRequest,
			code:   "INVALID_BODY",
		},
		{
			name:   "validation",
			method: http.MethodPost,
			body:   `{"serviceName":"nope"}`,
			resp:   &service.Response{Status: service.StatusError, Error: &service.ErrorDetail{Code: "VALIDATION_ERROR", Message: "bad"}},
			status: http.StatusBadRequest,
		},
		{
			name:   "domain",
			method: http.MethodPost,
			body:   `{"serviceName":"x"}`,
			resp:   &service.Response{Status: service.StatusError, Error: &service.ErrorDetail{Code: "DOMAIN_ERROR", Message: "no adapter"}},
			status: http.StatusServiceUnavailable,
		},
		{
			name:   "execution",
			method: http.MethodPost,
			body:   `{"serviceName":"x"}`,
			resp:   &service.Response{Status: service.StatusError, Error: &service.ErrorDetail{Code: "EXECUTION_ERROR", Message: "boom"}},
			status: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubRequester{resp: tt.resp}
			req := httptest.NewRequest(tt.method, "/api/service/request", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			NewServiceHandler(stub).ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.code != "" {
				var out map[string]any
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
				assert.Equal(t, tt.code, out["code"])
			}
		})
	}
}

func TestServiceHandlerWithoutService(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/service/request", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	NewServiceHandler(nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
