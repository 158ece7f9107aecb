package db

import (
	"bytes"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/lib/pq"
	mssql "github.com/microsoft/go-mssqldb"
	"github.com/pkg/errors"
)

var (
	ErrAdapterUnavailable = errors.New("database adapter unavailable")
	ErrUnknownConnection  = errors.New("unknown connection")
	ErrUnsupported        = errors.New("unsupported command")
	ErrRowLimit           = errors.New("row limit exceeded")
)

const (
	// SyntaxErrorCode is the SQLSTATE PostgreSQL reports for syntax errors.
	SyntaxErrorCode = "42601"
)

// clarifyError adds the server's error code to driver errors so callers see
// it in the response message.
func clarifyError(query string, err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == SyntaxErrorCode && bytes.Contains([]byte(query), []byte{160}) {
			return errors.WithMessage(err,
				`there are "non-breaking spaces" in the command text (ASCII code 160)`)
		}
		return errors.WithMessage(err, fmt.Sprintf("SQLSTATE %s", pgErr.Code))
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return errors.WithMessage(err, fmt.Sprintf("SQLSTATE %s", pqErr.Code))
	}

	var msErr mssql.Error
	if errors.As(err, &msErr) {
		return errors.WithMessage(err, fmt.Sprintf("mssql error %d", msErr.Number))
	}

	return err
}
