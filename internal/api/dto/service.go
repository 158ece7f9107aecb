package dto

import "sql-orchestrator/internal/service"

type ServiceMeta struct {
	RequestID  string `json:"requestId,omitempty"`
	DurationMs int64  `json:"durationMs"`
	Tables     int    `json:"tables"`
}

type ServiceResponse struct {
	API    string            `json:"api"`
	Status string            `json:"status"`
	Result *service.Response `json:"result"`
	Meta   ServiceMeta       `json:"meta"`
}

type HealthConnection struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type HealthResponse struct {
	Status      string             `json:"status"`
	Connections []HealthConnection `json:"connections"`
}
