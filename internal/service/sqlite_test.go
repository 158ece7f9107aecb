package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sql-orchestrator/internal/config"
	"sql-orchestrator/internal/db"
	"sql-orchestrator/internal/logger"
)

func newSQLiteService(t *testing.T) *Service {
	t.Helper()
	cfg := config.Default()
	cfg.Connections["local"] = config.ConnectionConfig{
		Driver:   config.DBDriverSQLite,
		Database: filepath.Join(t.TempDir(), "orders.db"),
	}
	noPassword := func(string) (string, error) { return "", nil }
	a := db.NewSQLAdapter(cfg, db.DefaultOptions(), noPassword, logger.Nop())
	t.Cleanup(func() { _ = a.Close() })
	return New(a, cfg, logger.Nop())
}

func TestSQLiteBatch(t *testing.T) {
	svc := newSQLiteService(t)
	ctx := context.Background()

	setup := request(false, NamedCommand{Name: "ddl", Command: textCommand("local",
		"create table orders (id integer primary key, customer text not null)",
	)})
	require.True(t, svc.Request(ctx, setup).OK())

	batch := request(true,
		NamedCommand{Name: "insert", Command: textCommand("local",
			"insert into orders (customer) values ('acme')",
			"insert into orders (customer) values ('globex')",
		)},
		NamedCommand{Name: "read", Command: textCommand("local",
			"select id, customer from orders order by id",
			"select count(*) as n from orders",
		)},
	)
	resp := svc.Request(ctx, batch)
	require.True(t, resp.OK(), "%+v", resp.Error)
	require.Equal(t, 2, resp.DataSet.Len())

	rows := resp.DataSet.Table("0")
	require.NotNil(t, rows)
	require.Equal(t, 2, rows.RowCount())
	v, _ := rows.Value(1, "customer")
	assert.Equal(t, "globex", v)

	count := resp.DataSet.Table("1")
	require.NotNil(t, count)
	v, _ = count.Value(0, "n")
	assert.EqualValues(t, 2, v)
}

func TestSQLiteBatchRollsBack(t *testing.T) {
	svc := newSQLiteService(t)
	ctx := context.Background()

	setup := request(false, NamedCommand{Name: "ddl", Command: textCommand("local",
		"create table orders (id integer primary key, customer text not null)",
	)})
	require.True(t, svc.Request(ctx, setup).OK())

	failing := request(true,
		NamedCommand{Name: "insert", Command: textCommand("local", "insert into orders (customer) values ('acme')")},
		NamedCommand{Name: "broken", Command: textCommand("local", "insert into orders (customer) values (null)")},
	)
	resp := svc.Request(ctx, failing)
	assert.Equal(t, StatusError, resp.Status)
	assert.Contains(t, resp.Error.Message, `command "broken"`)

	check := svc.Request(ctx, request(false, NamedCommand{Name: "count", Command: textCommand("local",
		"select count(*) as n from orders",
	)}))
	require.True(t, check.OK())
	v, _ := check.DataSet.Table("0").Value(0, "n")
	assert.EqualValues(t, 0, v)
}
