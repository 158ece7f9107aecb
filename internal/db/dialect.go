package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/golang-sql/civil"
	"github.com/google/uuid"
	mssql "github.com/microsoft/go-mssqldb"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"sql-orchestrator/internal/config"
	"sql-orchestrator/internal/dataset"
)

// boundStatement is a Statement rendered for one driver.
type boundStatement struct {
	query string
	args  []any
	// capture copies output values into the statement once all result sets
	// are consumed. It is nil when the dialect returns outputs as a row.
	capture func()
	// outputRow marks that the first result table carries the output values.
	outputRow bool
}

type dialect interface {
	name() string
	bind(stmt *Statement) (*boundStatement, error)
}

func dialectFor(driver config.DBDriver) (dialect, error) {
	switch driver {
	case config.DBDriverMSSQL:
		return sqlserverDialect{}, nil
	case config.DBDriverPostgres, config.DBDriverPgx:
		return postgresDialect{driver: string(driver)}, nil
	case config.DBDriverSQLite:
		return sqliteDialect{}, nil
	default:
		return nil, errors.Errorf("unsupported driver: %q", driver)
	}
}

func bindText(stmt *Statement) (*boundStatement, error) {
	if strings.TrimSpace(stmt.Text) == "" {
		return nil, errors.New("command text is empty")
	}
	return &boundStatement{query: stmt.Text}, nil
}

type sqlserverDialect struct{}

func (sqlserverDialect) name() string { return string(config.DBDriverMSSQL) }

// bind renders stored procedures as RPC calls: go-mssqldb executes a bare
// procedure name with named arguments as a procedure call.
func (d sqlserverDialect) bind(stmt *Statement) (*boundStatement, error) {
	if stmt.Type == CommandText {
		return bindText(stmt)
	}
	if stmt.Type != CommandStoredProcedure {
		return nil, errors.Wrapf(ErrUnsupported, "%s command on %s", stmt.Type, d.name())
	}

	proc := strings.TrimSpace(stmt.Text)
	if proc == "" {
		return nil, errors.New("stored procedure name is empty")
	}

	args := make([]any, 0, len(stmt.Parameters))
	type pending struct {
		param *Parameter
		dest  any
	}
	outs := make([]pending, 0)

	for _, p := range stmt.Parameters {
		val, err := d.inputValue(p)
		if err != nil {
			return nil, errors.Wrapf(err, "parameter %s", p.Name)
		}
		if !p.Direction.CanOutput() {
			args = append(args, sql.Named(paramName(p.Name), val))
			continue
		}
		dest := outputDest(p.Type, val)
		args = append(args, sql.Named(paramName(p.Name), sql.Out{
			Dest: dest,
			In:   p.Direction == DirectionInputOutput,
		}))
		outs = append(outs, pending{param: p, dest: dest})
	}

	return &boundStatement{
		query: proc,
		args:  args,
		capture: func() {
			for _, o := range outs {
				o.param.Value = outputValue(o.dest)
			}
		},
	}, nil
}

func (sqlserverDialect) inputValue(p *Parameter) (any, error) {
	v, err := ConvertInput(p.Type, p.Value)
	if err != nil || v == nil {
		return v, err
	}
	switch x := v.(type) {
	case time.Time:
		switch p.Type {
		case DbDate:
			return civil.DateOf(x), nil
		case DbTime:
			return civil.TimeOf(x), nil
		case DbDateTime2:
			return civil.DateTimeOf(x), nil
		case DbDateTime:
			return mssql.DateTime1(x), nil
		}
		return x, nil
	case uuid.UUID:
		return mssql.UniqueIdentifier(x), nil
	case string:
		if p.Type == DbAnsiString || p.Type == DbAnsiStringFixedLength {
			return mssql.VarChar(x), nil
		}
		return x, nil
	default:
		return v, nil
	}
}

// outputDest allocates a nullable destination for an output parameter,
// seeded with the input value for InputOutput parameters.
func outputDest(t DbType, in any) any {
	switch t {
	case DbByte, DbInt16, DbInt32, DbInt64:
		d := &sql.NullInt64{}
		if n, ok := in.(int64); ok {
			d.Int64, d.Valid = n, true
		}
		return d
	case DbSingle, DbDouble:
		d := &sql.NullFloat64{}
		if f, ok := in.(float64); ok {
			d.Float64, d.Valid = f, true
		}
		return d
	case DbDecimal, DbCurrency, DbVarNumeric:
		d := &decimal.NullDecimal{}
		if n, ok := in.(decimal.Decimal); ok {
			d.Decimal, d.Valid = n, true
		}
		return d
	case DbBoolean:
		d := &sql.NullBool{}
		if b, ok := in.(bool); ok {
			d.Bool, d.Valid = b, true
		}
		return d
	case DbDate, DbDateTime, DbDateTime2, DbDateTimeOffset, DbTime:
		d := &sql.NullTime{}
		switch x := in.(type) {
		case time.Time:
			d.Time, d.Valid = x, true
		case civil.Date:
			d.Time, d.Valid = x.In(time.UTC), true
		case civil.DateTime:
			d.Time, d.Valid = x.In(time.UTC), true
		case civil.Time:
			d.Time, d.Valid = time.Date(0, 1, 1, x.Hour, x.Minute, x.Second, x.Nanosecond, time.UTC), true
		case mssql.DateTime1:
			d.Time, d.Valid = time.Time(x), true
		}
		return d
	case DbBinary:
		// a nil slice is sent and read back as NULL
		d := new([]byte)
		if b, ok := in.([]byte); ok {
			*d = b
		}
		return d
	default:
		d := &sql.NullString{}
		if in != nil {
			d.String, d.Valid = fmt.Sprint(in), true
		}
		return d
	}
}

func outputValue(dest any) any {
	switch d := dest.(type) {
	case *sql.NullInt64:
		if d.Valid {
			return d.Int64
		}
	case *sql.NullFloat64:
		if d.Valid {
			return d.Float64
		}
	case *decimal.NullDecimal:
		if d.Valid {
			return d.Decimal
		}
	case *sql.NullBool:
		if d.Valid {
			return d.Bool
		}
	case *sql.NullTime:
		if d.Valid {
			return d.Time
		}
	case *sql.NullString:
		if d.Valid {
			return d.String
		}
	case *[]byte:
		if *d != nil {
			return *d
		}
	}
	return nil
}

type postgresDialect struct {
	driver string
}

func (d postgresDialect) name() string { return d.driver }

// bind renders stored procedures as CALL with positional placeholders in
// declaration order. PostgreSQL returns INOUT values as a single row.
func (d postgresDialect) bind(stmt *Statement) (*boundStatement, error) {
	if stmt.Type == CommandText {
		return bindText(stmt)
	}
	if stmt.Type != CommandStoredProcedure {
		return nil, errors.Wrapf(ErrUnsupported, "%s command on %s", stmt.Type, d.name())
	}

	proc := strings.TrimSpace(stmt.Text)
	if proc == "" {
		return nil, errors.New("stored procedure name is empty")
	}

	args := make([]any, 0, len(stmt.Parameters))
	placeholders := make([]string, 0, len(stmt.Parameters))
	hasOutput := false

	for i, p := range stmt.Parameters {
		val, err := ConvertInput(p.Type, p.Value)
		if err != nil {
			return nil, errors.Wrapf(err, "parameter %s", p.Name)
		}
		if id, ok := val.(uuid.UUID); ok {
			val = id.String()
		}
		args = append(args, val)
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
		if p.Direction.CanOutput() {
			hasOutput = true
		}
	}

	return &boundStatement{
		query:     fmt.Sprintf("CALL %s(%s)", proc, strings.Join(placeholders, ", ")),
		args:      args,
		outputRow: hasOutput,
	}, nil
}

type sqliteDialect struct{}

func (sqliteDialect) name() string { return string(config.DBDriverSQLite) }

func (d sqliteDialect) bind(stmt *Statement) (*boundStatement, error) {
	if stmt.Type == CommandText {
		return bindText(stmt)
	}
	return nil, errors.Wrapf(ErrUnsupported, "%s command on %s", stmt.Type, d.name())
}

// captureFromRow copies the values of the first row of t into the output
// capable parameters with matching column names.
func captureFromRow(stmt *Statement, t *dataset.Table) {
	if t == nil || t.RowCount() == 0 {
		return
	}
	for _, p := range stmt.Parameters {
		if !p.Direction.CanOutput() {
			continue
		}
		if v, ok := t.Value(0, paramName(p.Name)); ok {
			p.Value = v
		}
	}
}
