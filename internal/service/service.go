// Package service executes batches of named database commands in order,
// forwards output parameters between them and collects every result table
// into one response.
package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"sql-orchestrator/internal/config"
	"sql-orchestrator/internal/dataset"
	"sql-orchestrator/internal/db"
	"sql-orchestrator/internal/logger"
)

const (
	// Name is the identity requests must carry in ServiceData.ServiceName.
	Name = "sql-orchestrator.DefaultService"

	// GetDatabaseConnectionNames is the reserved command that lists the
	// configured connections instead of running the batch.
	GetDatabaseConnectionNames = "GetDatabaseConnectionNames"

	connectionNamesTable = "DatabaseNames"

	DefaultTimeout = 60000 * time.Millisecond
)

type AttributeSource interface {
	Attribute(name string) (string, bool)
}

type Service struct {
	adapter db.Adapter
	timeout time.Duration
	log     logger.LoggerService
}

func New(adapter db.Adapter, attrs AttributeSource, log logger.LoggerService) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		adapter: adapter,
		timeout: serviceTimeout(attrs, log),
		log:     log,
	}
}

func serviceTimeout(attrs AttributeSource, log logger.LoggerService) time.Duration {
	if attrs == nil {
		log.Warn("service timeout not configured, using default", logger.Any("timeout", DefaultTimeout))
		return DefaultTimeout
	}
	raw, ok := attrs.Attribute(config.AttrServiceTimeout)
	if !ok {
		log.Warn("service timeout not configured, using default", logger.Any("timeout", DefaultTimeout))
		return DefaultTimeout
	}
	ms, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || ms <= 0 {
		log.Warn("invalid service timeout, using default", logger.String("value", raw), logger.Any("timeout", DefaultTimeout))
		return DefaultTimeout
	}
	return time.Duration(ms) * time.Millisecond
}

func (s *Service) Timeout() time.Duration {
	return s.timeout
}

// Request runs one batch. It never panics and never returns nil: failures
// come back as a Response with StatusError.
func (s *Service) Request(ctx context.Context, data *ServiceData) (resp *Response) {
	if ctx == nil {
		ctx = context.Background()
	}
	requestID := uuid.NewString()
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err := errors.Errorf("panic: %v", r)
			s.log.Error("request failed", err, logger.String("request", requestID))
			resp = errorResponse(err)
		}
	}()

	if err := validate(data); err != nil {
		s.log.Error("request rejected", err, logger.String("request", requestID))
		return errorResponse(err)
	}

	if data.Commands.Has(GetDatabaseConnectionNames) {
		resp, err := s.connectionNames()
		if err != nil {
			s.log.Error("list connections", err, logger.String("request", requestID))
			return errorResponse(err)
		}
		return resp
	}

	if s.adapter == nil {
		err := domainError(db.ErrAdapterUnavailable)
		s.log.Error("request failed", err, logger.String("request", requestID))
		return errorResponse(err)
	}

	var scope *txScope
	if data.TransactionScope {
		scope = newTxScope(s.log, s.timeout)
		ctx = scope.begin(ctx)
	}

	resp, err := s.execute(ctx, data, scope)
	if err != nil {
		s.log.Error("request failed", err,
			logger.String("request", requestID),
			logger.Any("duration", time.Since(start).Truncate(time.Millisecond)))
		return errorResponse(err)
	}

	s.log.Info("request done",
		logger.String("request", requestID),
		logger.Int("commands", len(data.Commands)),
		logger.Int("tables", resp.DataSet.Len()),
		logger.Any("duration", time.Since(start).Truncate(time.Millisecond)))
	return resp
}

func validate(data *ServiceData) error {
	if data == nil {
		return validationError(errors.New("request is empty"))
	}
	if data.ServiceName == "" || data.ServiceName != Name {
		return validationError(errors.Wrapf(ErrServiceName, "not %s", Name))
	}
	return nil
}

// execute opens the connections, runs the batch and resolves the scope.
// Connections are closed after the scope commits or rolls back.
func (s *Service) execute(ctx context.Context, data *ServiceData, scope *txScope) (*Response, error) {
	reg := newRegistry(s.adapter, s.log)
	defer reg.closeAll()

	if scope != nil {
		defer scope.rollback()
	}

	if err := reg.open(ctx, data.Commands.ConnectionNames()); err != nil {
		return nil, err
	}

	if scope != nil {
		for _, conn := range reg.all() {
			if err := scope.enlist(conn); err != nil {
				return nil, err
			}
		}
	}

	resp, err := newExecutor(reg, s.log).run(ctx, data.Commands)
	if err != nil {
		return nil, err
	}

	if scope != nil {
		if err := scope.commitIfOK(resp.Status); err != nil {
			return nil, err
		}
	}

	return resp, nil
}

func (s *Service) connectionNames() (*Response, error) {
	if s.adapter == nil {
		return nil, domainError(db.ErrAdapterUnavailable)
	}

	t := dataset.NewTable(connectionNamesTable)
	t.AddColumn(connectionNamesTable, dataset.TypeString)
	for _, name := range s.adapter.ConnectionNames() {
		if err := t.AddRow(name); err != nil {
			return nil, err
		}
	}

	ds := dataset.New()
	ds.Add(t)
	return &Response{Status: StatusOK, DataSet: ds}, nil
}
