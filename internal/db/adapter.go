package db

import (
	"context"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"sql-orchestrator/internal/config"
	"sql-orchestrator/internal/dataset"
	"sql-orchestrator/internal/logger"
	"sql-orchestrator/internal/secrets"
)

// Adapter resolves connection names to live handles.
type Adapter interface {
	CreateConnection(ctx context.Context, name string) (Connection, error)
	ConnectionNames() []string
}

// Connection is one dedicated database session. It is not safe for
// concurrent use.
type Connection interface {
	Name() string
	// Fill executes stmt and returns every result table it produced, in
	// order. Output capable parameters hold their captured values afterwards.
	Fill(ctx context.Context, stmt *Statement) ([]*dataset.Table, error)
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error
	Close() error
}

// PasswordSource returns the password for a named connection.
type PasswordSource func(connection string) (string, error)

// SecretPasswords reads passwords from the local secret store. A missing
// secret means an empty password.
func SecretPasswords(connection string) (string, error) {
	b, err := secrets.Get(secrets.DBPasswordKey(connection))
	if err != nil {
		if errors.Is(err, secrets.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	return string(b), nil
}

// SQLAdapter opens database/sql pools lazily, one per configured connection
// name, and hands out dedicated sessions from them.
type SQLAdapter struct {
	cfg       config.Config
	opt       Options
	passwords PasswordSource
	log       logger.LoggerService

	mu    sync.Mutex
	pools map[string]*sqlx.DB
}

func NewSQLAdapter(cfg config.Config, opt Options, passwords PasswordSource, log logger.LoggerService) *SQLAdapter {
	if passwords == nil {
		passwords = SecretPasswords
	}
	if log == nil {
		log = logger.Nop()
	}
	return &SQLAdapter{
		cfg:       cfg,
		opt:       opt,
		passwords: passwords,
		log:       log,
		pools:     make(map[string]*sqlx.DB),
	}
}

func (a *SQLAdapter) ConnectionNames() []string {
	return a.cfg.ConnectionNames()
}

func (a *SQLAdapter) CreateConnection(ctx context.Context, name string) (Connection, error) {
	connCfg, ok := a.cfg.Connection(name)
	if !ok {
		return nil, errors.Wrapf(ErrUnknownConnection, "%q", name)
	}

	d, err := dialectFor(connCfg.Driver)
	if err != nil {
		return nil, err
	}

	pool, err := a.pool(ctx, name, connCfg)
	if err != nil {
		return nil, err
	}

	conn, err := pool.Connx(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "acquire connection %q", name)
	}

	return &sqlConnection{
		name:    name,
		conn:    conn,
		dialect: d,
		maxRows: a.opt.MaxRows,
	}, nil
}

func (a *SQLAdapter) pool(ctx context.Context, name string, connCfg config.ConnectionConfig) (*sqlx.DB, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if p, ok := a.pools[name]; ok {
		return p, nil
	}

	password, err := a.passwords(name)
	if err != nil {
		return nil, errors.Wrapf(err, "load password for %q", name)
	}

	p, err := Open(ctx, connCfg, password, a.opt)
	if err != nil {
		return nil, errors.Wrapf(err, "open connection %q", name)
	}

	a.pools[name] = p
	a.log.Info("connection pool opened", logger.String("connection", name), logger.String("driver", string(connCfg.Driver)))
	return p, nil
}

// Ping opens the named pool if needed and checks that it is reachable.
func (a *SQLAdapter) Ping(ctx context.Context, name string) error {
	conn, err := a.CreateConnection(ctx, name)
	if err != nil {
		return err
	}
	return conn.Close()
}

func (a *SQLAdapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var firstErr error
	for name, p := range a.pools {
		if err := p.Close(); err != nil {
			a.log.Error("close connection pool", err, logger.String("connection", name))
			if firstErr == nil {
				firstErr = err
			}
		}
		delete(a.pools, name)
	}
	return firstErr
}
