package db

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

type CommandType int

// Values match the ADO.NET CommandType codes that clients send.
const (
	CommandText            CommandType = 1
	CommandStoredProcedure CommandType = 4
	CommandTableDirect     CommandType = 512
)

var commandTypeNames = map[CommandType]string{
	CommandText:            "Text",
	CommandStoredProcedure: "StoredProcedure",
	CommandTableDirect:     "TableDirect",
}

func (t CommandType) String() string {
	if s, ok := commandTypeNames[t]; ok {
		return s
	}
	return "CommandType(" + strconv.Itoa(int(t)) + ")"
}

func (t CommandType) MarshalText() ([]byte, error) {
	if _, ok := commandTypeNames[t]; !ok {
		return nil, errors.Errorf("unknown command type %d", int(t))
	}
	return []byte(t.String()), nil
}

func (t *CommandType) UnmarshalText(b []byte) error {
	s := strings.TrimSpace(string(b))
	if n, err := strconv.Atoi(s); err == nil {
		if _, ok := commandTypeNames[CommandType(n)]; !ok {
			return errors.Errorf("unknown command type %d", n)
		}
		*t = CommandType(n)
		return nil
	}
	for k, v := range commandTypeNames {
		if strings.EqualFold(v, s) {
			*t = k
			return nil
		}
	}
	return errors.Errorf("unknown command type %q", s)
}

func (t *CommandType) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	return t.UnmarshalText([]byte(strings.Trim(string(b), `"`)))
}

// DbType is the abstract parameter type. Codes follow System.Data.DbType.
type DbType int

const (
	DbAnsiString            DbType = 0
	DbBinary                DbType = 1
	DbByte                  DbType = 2
	DbBoolean               DbType = 3
	DbCurrency              DbType = 4
	DbDate                  DbType = 5
	DbDateTime              DbType = 6
	DbDecimal               DbType = 7
	DbDouble                DbType = 8
	DbGuid                  DbType = 9
	DbInt16                 DbType = 10
	DbInt32                 DbType = 11
	DbInt64                 DbType = 12
	DbObject                DbType = 13
	DbSingle                DbType = 15
	DbString                DbType = 16
	DbTime                  DbType = 17
	DbVarNumeric            DbType = 21
	DbAnsiStringFixedLength DbType = 22
	DbStringFixedLength     DbType = 23
	DbXml                   DbType = 25
	DbDateTime2             DbType = 26
	DbDateTimeOffset        DbType = 27
)

var dbTypeNames = map[DbType]string{
	DbAnsiString:            "AnsiString",
	DbBinary:                "Binary",
	DbByte:                  "Byte",
	DbBoolean:               "Boolean",
	DbCurrency:              "Currency",
	DbDate:                  "Date",
	DbDateTime:              "DateTime",
	DbDecimal:               "Decimal",
	DbDouble:                "Double",
	DbGuid:                  "Guid",
	DbInt16:                 "Int16",
	DbInt32:                 "Int32",
	DbInt64:                 "Int64",
	DbObject:                "Object",
	DbSingle:                "Single",
	DbString:                "String",
	DbTime:                  "Time",
	DbVarNumeric:            "VarNumeric",
	DbAnsiStringFixedLength: "AnsiStringFixedLength",
	DbStringFixedLength:     "StringFixedLength",
	DbXml:                   "Xml",
	DbDateTime2:             "DateTime2",
	DbDateTimeOffset:        "DateTimeOffset",
}

func (t DbType) String() string {
	if s, ok := dbTypeNames[t]; ok {
		return s
	}
	return "DbType(" + strconv.Itoa(int(t)) + ")"
}

func (t DbType) MarshalText() ([]byte, error) {
	if _, ok := dbTypeNames[t]; !ok {
		return nil, errors.Errorf("unknown db type %d", int(t))
	}
	return []byte(t.String()), nil
}

func (t *DbType) UnmarshalText(b []byte) error {
	s := strings.TrimSpace(string(b))
	if n, err := strconv.Atoi(s); err == nil {
		if _, ok := dbTypeNames[DbType(n)]; !ok {
			return errors.Errorf("unknown db type %d", n)
		}
		*t = DbType(n)
		return nil
	}
	for k, v := range dbTypeNames {
		if strings.EqualFold(v, s) {
			*t = k
			return nil
		}
	}
	return errors.Errorf("unknown db type %q", s)
}

func (t *DbType) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		return t.UnmarshalText([]byte(s))
	}
	return t.UnmarshalText(b)
}

type ParameterDirection int

const (
	DirectionInput ParameterDirection = iota + 1
	DirectionOutput
	DirectionInputOutput
)

// CanOutput reports whether the driver writes a value back after execution.
func (d ParameterDirection) CanOutput() bool {
	return d == DirectionOutput || d == DirectionInputOutput
}

// Parameter is one declared driver parameter. Value holds the bound input
// before execution and the captured output afterwards.
type Parameter struct {
	Name      string
	Type      DbType
	Size      int
	Direction ParameterDirection
	Value     any
}

// Statement is the mutable command a connection executes: text, type and
// the parameters declared for the current command.
type Statement struct {
	Type       CommandType
	Text       string
	Parameters []*Parameter
}

func (s *Statement) AddParameter(name string, t DbType, size int) *Parameter {
	p := &Parameter{
		Name:      name,
		Type:      t,
		Size:      size,
		Direction: DirectionInput,
	}
	s.Parameters = append(s.Parameters, p)
	return p
}

func (s *Statement) Parameter(name string) *Parameter {
	for _, p := range s.Parameters {
		if p.Name == name {
			return p
		}
	}
	return nil
}

func (s *Statement) ClearParameters() {
	s.Parameters = nil
}

// paramName strips the driver prefix callers often keep on parameter names.
func paramName(name string) string {
	return strings.TrimLeft(strings.TrimSpace(name), "@:$")
}
