package service

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"sql-orchestrator/internal/dataset"
	"sql-orchestrator/internal/db"
)

// journal records connection calls across every fake of one test.
type journal struct {
	mu     sync.Mutex
	events []string
}

func (j *journal) add(ev string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, ev)
}

func (j *journal) all() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.events...)
}

type call struct {
	Type   db.CommandType
	Text   string
	Params map[string]any
}

type fillFunc func(ctx context.Context, stmt *db.Statement) ([]*dataset.Table, error)

type fakeConn struct {
	name      string
	j         *journal
	fill      fillFunc
	closeErr  error
	commitErr error

	calls  []call
	closes int
}

func (c *fakeConn) Name() string { return c.name }

func (c *fakeConn) Fill(ctx context.Context, stmt *db.Statement) ([]*dataset.Table, error) {
	params := make(map[string]any, len(stmt.Parameters))
	for _, p := range stmt.Parameters {
		params[p.Name] = p.Value
	}
	c.calls = append(c.calls, call{Type: stmt.Type, Text: stmt.Text, Params: params})
	c.j.add("fill:" + c.name)
	if c.fill == nil {
		return nil, nil
	}
	return c.fill(ctx, stmt)
}

func (c *fakeConn) Begin(context.Context) error {
	c.j.add("begin:" + c.name)
	return nil
}

func (c *fakeConn) Commit() error {
	c.j.add("commit:" + c.name)
	return c.commitErr
}

func (c *fakeConn) Rollback() error {
	c.j.add("rollback:" + c.name)
	return nil
}

func (c *fakeConn) Close() error {
	c.closes++
	c.j.add("close:" + c.name)
	return c.closeErr
}

type fakeAdapter struct {
	j       *journal
	conns   map[string]*fakeConn
	openErr map[string]error
	opens   int
}

func newFakeAdapter(names ...string) *fakeAdapter {
	a := &fakeAdapter{
		j:       &journal{},
		conns:   make(map[string]*fakeConn),
		openErr: make(map[string]error),
	}
	for _, n := range names {
		a.conns[n] = &fakeConn{name: n, j: a.j}
	}
	return a
}

func (a *fakeAdapter) CreateConnection(_ context.Context, name string) (db.Connection, error) {
	if err := a.openErr[name]; err != nil {
		return nil, err
	}
	c, ok := a.conns[name]
	if !ok {
		return nil, errors.Wrap(db.ErrUnknownConnection, name)
	}
	a.opens++
	a.j.add("open:" + name)
	return c, nil
}

func (a *fakeAdapter) ConnectionNames() []string {
	out := make([]string, 0, len(a.conns))
	for n := range a.conns {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

type attrs map[string]string

func (a attrs) Attribute(name string) (string, bool) {
	v, ok := a[name]
	return v, ok
}

func table(rows ...any) *dataset.Table {
	t := dataset.NewTable("")
	t.AddColumn("v", dataset.TypeString)
	for _, r := range rows {
		_ = t.AddRow(r)
	}
	return t
}

func returns(tables ...*dataset.Table) fillFunc {
	return func(context.Context, *db.Statement) ([]*dataset.Table, error) {
		return tables, nil
	}
}

// textCommand builds a Text command with one row per query.
func textCommand(conn string, queries ...string) *Command {
	c := &Command{ConnectionName: conn, CommandType: db.CommandText}
	for _, q := range queries {
		c.Values = append(c.Values, map[string]any{QueryKey: q})
	}
	return c
}

func request(tx bool, cmds ...NamedCommand) *ServiceData {
	return &ServiceData{ServiceName: Name, TransactionScope: tx, Commands: cmds}
}
