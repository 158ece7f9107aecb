package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/pkg/errors"

	"sql-orchestrator/internal/dataset"
	"sql-orchestrator/internal/db"
	"sql-orchestrator/internal/logger"
)

// resultCollector names tables with one counter shared by the whole batch.
type resultCollector struct {
	tables []*dataset.Table
	next   int
}

func (c *resultCollector) add(tables []*dataset.Table) {
	for _, t := range tables {
		t.Name = strconv.Itoa(c.next)
		c.next++
		c.tables = append(c.tables, t)
	}
}

type executor struct {
	reg     *registry
	log     logger.LoggerService
	outputs *outputStore
	results *resultCollector
}

func newExecutor(reg *registry, log logger.LoggerService) *executor {
	return &executor{
		reg:     reg,
		log:     log,
		outputs: newOutputStore(),
		results: &resultCollector{},
	}
}

// run executes every command in order, then aggregates the results.
func (e *executor) run(ctx context.Context, cmds Commands) (*Response, error) {
	for _, nc := range cmds {
		if err := e.runCommand(ctx, nc.Name, nc.Command); err != nil {
			return nil, errors.Wrapf(err, "command %q", nc.Name)
		}
	}
	return e.aggregate(), nil
}

func (e *executor) runCommand(ctx context.Context, name string, cmd *Command) error {
	if cmd == nil {
		return errors.New("command is empty")
	}

	conn, err := e.reg.get(cmd.ConnectionName)
	if err != nil {
		return err
	}

	stmt := &db.Statement{Type: cmd.Type()}
	if stmt.Type != db.CommandText {
		declareParameters(stmt, name, cmd, e.outputs)
	}

	for row := range cmd.Values {
		if stmt.Type != db.CommandText {
			bindRow(stmt, name, cmd, e.outputs, row)
		}

		switch stmt.Type {
		case db.CommandText:
			stmt.Text = queryText(cmd.Value(QueryKey, row))
		case db.CommandStoredProcedure:
			stmt.Text = cmd.CommandText
		case db.CommandTableDirect:
			e.log.Debug("table direct command skipped", logger.String("command", name), logger.Int("row", row))
			continue
		}

		tables, err := conn.Fill(ctx, stmt)
		if err != nil {
			return errors.Wrapf(err, "row %d", row)
		}
		e.results.add(tables)
		e.captureOutputs(name, stmt)
	}

	stmt.ClearParameters()
	return nil
}

func (e *executor) captureOutputs(name string, stmt *db.Statement) {
	for _, p := range stmt.Parameters {
		if !p.Direction.CanOutput() {
			continue
		}
		e.outputs.resolve(slot{command: name, parameter: p.Name}, p.Value)
	}
}

func (e *executor) aggregate() *Response {
	resp := &Response{Status: StatusOK}
	if len(e.results.tables) == 0 && e.outputs.len() == 0 {
		return resp
	}

	ds := dataset.New()
	for _, t := range e.results.tables {
		ds.Add(t)
	}
	if e.outputs.len() > 0 {
		ds.Add(e.outputs.auditTable(strconv.Itoa(e.results.next)))
	}
	resp.DataSet = ds
	return resp
}

func queryText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

// Type defaults to Text when the request leaves it out.
func (c *Command) Type() db.CommandType {
	if c.CommandType == 0 {
		return db.CommandText
	}
	return c.CommandType
}
