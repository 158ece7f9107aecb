package service

import (
	"context"

	"github.com/pkg/errors"

	"sql-orchestrator/internal/db"
	"sql-orchestrator/internal/logger"
)

// registry owns every connection opened for one request.
type registry struct {
	adapter db.Adapter
	log     logger.LoggerService
	handles map[string]db.Connection
	order   []string
}

func newRegistry(adapter db.Adapter, log logger.LoggerService) *registry {
	return &registry{
		adapter: adapter,
		log:     log,
		handles: make(map[string]db.Connection),
	}
}

// open creates one handle per name. Empty names are skipped and names that
// already have a handle are not reopened.
func (r *registry) open(ctx context.Context, names []string) error {
	for _, name := range names {
		if name == "" {
			continue
		}
		if _, ok := r.handles[name]; ok {
			continue
		}
		conn, err := r.adapter.CreateConnection(ctx, name)
		if err != nil {
			return errors.Wrapf(err, "open connection %q", name)
		}
		if conn == nil {
			continue
		}
		r.handles[name] = conn
		r.order = append(r.order, name)
	}
	return nil
}

func (r *registry) get(name string) (db.Connection, error) {
	conn, ok := r.handles[name]
	if !ok {
		return nil, errors.Wrapf(db.ErrUnknownConnection, "%q is not open", name)
	}
	return conn, nil
}

// all returns the open handles in opening order.
func (r *registry) all() []db.Connection {
	out := make([]db.Connection, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.handles[name])
	}
	return out
}

// closeAll attempts to close every handle. Failures are logged and never
// stop the remaining closes.
func (r *registry) closeAll() {
	for _, name := range r.order {
		if err := r.handles[name].Close(); err != nil {
			r.log.Error("close connection", err, logger.String("connection", name))
		}
	}
	r.handles = make(map[string]db.Connection)
	r.order = nil
}
