package service

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"sql-orchestrator/internal/db"
	"sql-orchestrator/internal/logger"
)

// txScope spans one transaction per enlisted connection. It commits only
// when told the batch succeeded; anything else rolls back. There is no
// retry.
type txScope struct {
	log     logger.LoggerService
	timeout time.Duration
	ctx     context.Context
	cancel  context.CancelFunc
	conns   []db.Connection
	done    bool
}

func newTxScope(log logger.LoggerService, timeout time.Duration) *txScope {
	return &txScope{log: log, timeout: timeout}
}

// begin derives the scope's context. Work done with the returned context is
// aborted once the timeout passes.
func (s *txScope) begin(ctx context.Context) context.Context {
	s.ctx, s.cancel = context.WithTimeout(ctx, s.timeout)
	return s.ctx
}

func (s *txScope) enlist(conn db.Connection) error {
	if err := conn.Begin(s.ctx); err != nil {
		return err
	}
	s.conns = append(s.conns, conn)
	return nil
}

// commitIfOK commits every enlisted transaction when status is OK and rolls
// them back otherwise. A failed commit rolls back the connections that were
// not committed yet.
func (s *txScope) commitIfOK(status Status) error {
	if s.done {
		return nil
	}
	if status != StatusOK {
		s.rollback()
		return nil
	}
	s.done = true
	defer s.release()

	if s.ctx == nil {
		return errors.New("transaction scope was not started")
	}
	if err := s.ctx.Err(); err != nil {
		s.rollbackFrom(0)
		return errors.Wrap(err, "transaction scope timed out")
	}

	for i, conn := range s.conns {
		if err := conn.Commit(); err != nil {
			s.rollbackFrom(i + 1)
			return err
		}
	}
	return nil
}

// rollback is safe to call more than once and after commitIfOK.
func (s *txScope) rollback() {
	if s.done {
		return
	}
	s.done = true
	defer s.release()
	s.rollbackFrom(0)
}

func (s *txScope) rollbackFrom(start int) {
	for _, conn := range s.conns[start:] {
		if err := conn.Rollback(); err != nil {
			s.log.Error("rollback", err, logger.String("connection", conn.Name()))
		}
	}
}

func (s *txScope) release() {
	if s.cancel != nil {
		s.cancel()
	}
}
