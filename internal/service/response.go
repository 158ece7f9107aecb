package service

import (
	"sql-orchestrator/internal/dataset"
)

type Status string

const (
	StatusOK    Status = "OK"
	StatusError Status = "Error"
)

type ErrorDetail struct {
	Code    string `json:"code" yaml:"code"`
	Message string `json:"message" yaml:"message"`
}

// Response is the batch result. A nil DataSet means the batch produced no
// content, which is distinct from an empty table list.
type Response struct {
	Status  Status           `json:"status" yaml:"status"`
	DataSet *dataset.DataSet `json:"dataSet" yaml:"dataSet"`
	Error   *ErrorDetail     `json:"error,omitempty" yaml:"error,omitempty"`
}

func (r *Response) OK() bool {
	return r != nil && r.Status == StatusOK
}

func errorResponse(err error) *Response {
	return &Response{
		Status: StatusError,
		Error: &ErrorDetail{
			Code:    KindOf(err).Code(),
			Message: err.Error(),
		},
	}
}
