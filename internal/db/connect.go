package db

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	// drivers addressed by config.DBDriver
	_ "github.com/jackc/pgx/v4/stdlib"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	_ "github.com/microsoft/go-mssqldb"

	"sql-orchestrator/internal/config"
)

type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	PingTimeout     time.Duration
	// MaxRows caps the rows drained from one execution. Zero disables it.
	MaxRows int
}

func DefaultOptions() Options {
	return OptionsFromConfig(config.DefaultPool())
}

func OptionsFromConfig(p config.PoolConfig) Options {
	return Options{
		MaxOpenConns:    p.MaxOpenConns,
		MaxIdleConns:    p.MaxIdleConns,
		ConnMaxLifetime: p.ConnMaxLifetime,
		PingTimeout:     p.PingTimeout,
		MaxRows:         p.MaxRows,
	}
}

func Open(ctx context.Context, cfg config.ConnectionConfig, password string, opt Options) (*sqlx.DB, error) {
	driverName, dsn, err := buildDSN(cfg, password)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}

	if opt.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opt.MaxOpenConns)
	}
	if opt.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opt.MaxIdleConns)
	}
	if opt.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opt.ConnMaxLifetime)
	}

	if opt.PingTimeout <= 0 {
		opt.PingTimeout = 5 * time.Second
	}

	if ctx == nil {
		ctx = context.Background()
	}
	pingCtx, cancel := context.WithTimeout(ctx, opt.PingTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, clarifyError("", err)
	}

	return db, nil
}

func buildDSN(cfg config.ConnectionConfig, password string) (driverName string, dsn string, err error) {
	switch cfg.Driver {
	case config.DBDriverMSSQL:
		driverName = "sqlserver"
	case config.DBDriverPostgres:
		driverName = "postgres"
	case config.DBDriverPgx:
		driverName = "pgx"
	case config.DBDriverSQLite:
		driverName = "sqlite3"
	default:
		return "", "", errors.Errorf("unsupported driver: %q", cfg.Driver)
	}

	if cfg.DSN != "" {
		return driverName, cfg.DSN, nil
	}

	if cfg.Driver == config.DBDriverSQLite {
		if cfg.Database == "" {
			return "", "", errors.New("database is required for sqlite3")
		}
		return driverName, cfg.Database, nil
	}

	host := cfg.Host
	port := cfg.Port
	user := cfg.User

	if host == "" {
		return "", "", errors.New("host is required")
	}
	if port <= 0 || port > 65535 {
		return "", "", errors.New("port is invalid")
	}
	if user == "" {
		return "", "", errors.New("user is required")
	}

	q := url.Values{}
	u := &url.URL{
		User: url.UserPassword(user, password),
		Host: fmt.Sprintf("%s:%d", host, port),
	}

	switch cfg.Driver {
	case config.DBDriverMSSQL:
		u.Scheme = "sqlserver"
		if cfg.Database != "" {
			q.Set("database", cfg.Database)
		}
	default:
		u.Scheme = "postgres"
		if cfg.Database != "" {
			u.Path = "/" + cfg.Database
		}
		sslMode := cfg.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		q.Set("sslmode", sslMode)
	}
	u.RawQuery = q.Encode()

	return driverName, u.String(), nil
}

func TestConnection(ctx context.Context, cfg config.ConnectionConfig, password string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	db, err := Open(ctx, cfg, password, DefaultOptions())
	if err != nil {
		return err
	}
	return db.Close()
}
