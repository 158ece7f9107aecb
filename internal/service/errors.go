package service

import (
	"github.com/pkg/errors"

	"sql-orchestrator/internal/db"
)

var ErrServiceName = errors.New("service name mismatch")

type Kind int

const (
	KindExecution Kind = iota
	KindValidation
	KindDomain
)

func (k Kind) Code() string {
	switch k {
	case KindValidation:
		return "VALIDATION_ERROR"
	case KindDomain:
		return "DOMAIN_ERROR"
	default:
		return "EXECUTION_ERROR"
	}
}

// Error classifies a failure that ended a request.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string { return e.Err.Error() }

func (e *Error) Unwrap() error { return e.Err }

func validationError(err error) error {
	return &Error{Kind: KindValidation, Err: err}
}

func domainError(err error) error {
	return &Error{Kind: KindDomain, Err: err}
}

// KindOf reports the kind of err. Unclassified errors are execution errors,
// except for the adapter's domain failures.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, db.ErrAdapterUnavailable) {
		return KindDomain
	}
	return KindExecution
}
