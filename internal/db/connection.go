package db

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"sql-orchestrator/internal/dataset"
)

type sqlConnection struct {
	name    string
	conn    *sqlx.Conn
	tx      *sqlx.Tx
	dialect dialect
	maxRows int
}

func (c *sqlConnection) Name() string {
	return c.name
}

func (c *sqlConnection) queryer() sqlx.QueryerContext {
	if c.tx != nil {
		return c.tx
	}
	return c.conn
}

func (c *sqlConnection) Fill(ctx context.Context, stmt *Statement) ([]*dataset.Table, error) {
	bound, err := c.dialect.bind(stmt)
	if err != nil {
		return nil, err
	}

	rows, err := c.queryer().QueryxContext(ctx, bound.query, bound.args...)
	if err != nil {
		return nil, clarifyError(bound.query, err)
	}

	tables, err := drainTables(rows, c.maxRows)
	closeErr := rows.Close()
	if err != nil {
		return nil, clarifyError(bound.query, err)
	}
	if closeErr != nil {
		return nil, clarifyError(bound.query, closeErr)
	}

	if bound.outputRow {
		if len(tables) > 0 {
			captureFromRow(stmt, tables[0])
			tables = tables[1:]
		}
	} else if bound.capture != nil {
		bound.capture()
	}

	return tables, nil
}

// drainTables reads every result set of rows. Result sets without columns
// (row counts of non-query statements) produce no table.
func drainTables(rows *sqlx.Rows, maxRows int) ([]*dataset.Table, error) {
	tables := make([]*dataset.Table, 0, 1)
	total := 0

	for {
		colTypes, err := rows.ColumnTypes()
		if err != nil {
			return nil, err
		}

		var t *dataset.Table
		if len(colTypes) > 0 {
			t = dataset.NewTable("")
			for _, ct := range colTypes {
				t.AddColumn(ct.Name(), ct.DatabaseTypeName())
			}
		}

		for rows.Next() {
			if maxRows > 0 && total >= maxRows {
				return nil, ErrRowLimit
			}
			values, err := rows.SliceScan()
			if err != nil {
				return nil, err
			}
			if t == nil {
				continue
			}
			for i := range values {
				values[i] = normalizeColumnValue(values[i], t.Columns[i].DataType)
			}
			if err := t.AddRow(values...); err != nil {
				return nil, err
			}
			total++
		}
		if err := rows.Err(); err != nil {
			return nil, err
		}

		if t != nil {
			tables = append(tables, t)
		}
		if !rows.NextResultSet() {
			break
		}
	}

	return tables, nil
}

func (c *sqlConnection) Begin(ctx context.Context) error {
	if c.tx != nil {
		return errors.Errorf("connection %q already has an open transaction", c.name)
	}
	tx, err := c.conn.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return errors.Wrapf(err, "begin transaction on %q", c.name)
	}
	c.tx = tx
	return nil
}

func (c *sqlConnection) Commit() error {
	if c.tx == nil {
		return nil
	}
	tx := c.tx
	c.tx = nil
	return errors.Wrapf(tx.Commit(), "commit %q", c.name)
}

func (c *sqlConnection) Rollback() error {
	if c.tx == nil {
		return nil
	}
	tx := c.tx
	c.tx = nil
	err := tx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return errors.Wrapf(err, "rollback %q", c.name)
}

// Close rolls back a transaction left open and returns the session to its
// pool.
func (c *sqlConnection) Close() error {
	rbErr := c.Rollback()
	if err := c.conn.Close(); err != nil {
		return errors.Wrapf(err, "close %q", c.name)
	}
	return rbErr
}
