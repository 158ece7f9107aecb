package db

import (
	"database/sql"
	"testing"
	"time"

	"github.com/golang-sql/civil"
	mssql "github.com/microsoft/go-mssqldb"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sql-orchestrator/internal/config"
	"sql-orchestrator/internal/dataset"
)

func procStatement() *Statement {
	stmt := &Statement{Type: CommandStoredProcedure, Text: "dbo.CreateOrder"}
	stmt.AddParameter("@CustomerId", DbInt32, 0).Value = int64(7)
	stmt.AddParameter("OrderDate", DbDate, 0).Value = "2024-03-01"
	out := stmt.AddParameter("OrderId", DbInt64, 0)
	out.Direction = DirectionInputOutput
	return stmt
}

func TestSQLServerBindStoredProcedure(t *testing.T) {
	stmt := procStatement()

	bound, err := sqlserverDialect{}.bind(stmt)
	require.NoError(t, err)
	assert.Equal(t, "dbo.CreateOrder", bound.query)
	require.Len(t, bound.args, 3)
	assert.False(t, bound.outputRow)

	first := bound.args[0].(sql.NamedArg)
	assert.Equal(t, "CustomerId", first.Name)
	assert.Equal(t, int64(7), first.Value)

	second := bound.args[1].(sql.NamedArg)
	assert.Equal(t, civil.Date{Year: 2024, Month: time.March, Day: 1}, second.Value)

	third := bound.args[2].(sql.NamedArg)
	out, ok := third.Value.(sql.Out)
	require.True(t, ok)
	assert.True(t, out.In)

	// the driver writes into Dest; simulate it
	dest := out.Dest.(*sql.NullInt64)
	dest.Int64, dest.Valid = 42, true
	bound.capture()
	assert.Equal(t, int64(42), stmt.Parameter("OrderId").Value)
}

func TestSQLServerInputValues(t *testing.T) {
	d := sqlserverDialect{}

	v, err := d.inputValue(&Parameter{Type: DbAnsiString, Value: "abc"})
	require.NoError(t, err)
	assert.Equal(t, mssql.VarChar("abc"), v)

	v, err = d.inputValue(&Parameter{Type: DbGuid, Value: "6f9619ff-8b86-d011-b42d-00c04fc964ff"})
	require.NoError(t, err)
	assert.IsType(t, mssql.UniqueIdentifier{}, v)

	v, err = d.inputValue(&Parameter{Type: DbInt32, Value: nil})
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = d.inputValue(&Parameter{Type: DbInt32, Value: "x"})
	assert.Error(t, err)
}

func TestOutputDestNullRoundTrip(t *testing.T) {
	dest := outputDest(DbDecimal, nil)
	assert.Nil(t, outputValue(dest))

	dest = outputDest(DbDecimal, decimal.RequireFromString("1.25"))
	assert.Equal(t, "1.25", outputValue(dest).(decimal.Decimal).String())

	dest = outputDest(DbString, "x")
	assert.Equal(t, "x", outputValue(dest))

	dest = outputDest(DbBinary, nil)
	assert.Nil(t, outputValue(dest))

	dest = outputDest(DbBinary, []byte{1, 2})
	assert.Equal(t, []byte{1, 2}, outputValue(dest))
}

func TestSQLServerInputOutputKeepsValue(t *testing.T) {
	tests := []struct {
		name  string
		param *Parameter
		want  any
	}{
		{
			name:  "time",
			param: &Parameter{Name: "At", Type: DbTime, Direction: DirectionInputOutput, Value: "10:30:00"},
			want:  time.Date(0, 1, 1, 10, 30, 0, 0, time.UTC),
		},
		{
			name:  "binary",
			param: &Parameter{Name: "Blob", Type: DbBinary, Direction: DirectionInputOutput, Value: []byte{1, 2}},
			want:  []byte{1, 2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt := &Statement{Type: CommandStoredProcedure, Text: "dbo.Touch", Parameters: []*Parameter{tt.param}}
			bound, err := sqlserverDialect{}.bind(stmt)
			require.NoError(t, err)
			require.Len(t, bound.args, 1)

			named, ok := bound.args[0].(sql.NamedArg)
			require.True(t, ok)
			out, ok := named.Value.(sql.Out)
			require.True(t, ok)
			assert.True(t, out.In)
			assert.Equal(t, tt.want, outputValue(out.Dest))
		})
	}
}

func TestPostgresBindStoredProcedure(t *testing.T) {
	stmt := procStatement()

	bound, err := postgresDialect{driver: "pgx"}.bind(stmt)
	require.NoError(t, err)
	assert.Equal(t, "CALL dbo.CreateOrder($1, $2, $3)", bound.query)
	assert.Len(t, bound.args, 3)
	assert.True(t, bound.outputRow)

	row := dataset.NewTable("")
	row.AddColumn("orderid", "INT8")
	require.NoError(t, row.AddRow(int64(99)))
	captureFromRow(stmt, row)
	assert.Equal(t, int64(99), stmt.Parameter("OrderId").Value)
	// input only parameters are untouched
	assert.Equal(t, int64(7), stmt.Parameter("@CustomerId").Value)
}

func TestDialectRejections(t *testing.T) {
	_, err := sqliteDialect{}.bind(procStatement())
	assert.ErrorIs(t, err, ErrUnsupported)

	_, err = sqlserverDialect{}.bind(&Statement{Type: CommandTableDirect, Text: "Orders"})
	assert.ErrorIs(t, err, ErrUnsupported)

	_, err = postgresDialect{}.bind(&Statement{Type: CommandText})
	assert.Error(t, err)

	_, err = dialectFor(config.DBDriver("oracle"))
	assert.Error(t, err)
}
