// Package dataset holds the driver independent tabular model returned to callers.
package dataset

import (
	"strings"

	"github.com/pkg/errors"
)

const TypeString = "string"

type Column struct {
	Name     string `json:"name" yaml:"name"`
	DataType string `json:"dataType" yaml:"dataType"`
}

// Row values are positional and aligned with the owning table's columns.
type Row struct {
	Values []any `json:"values" yaml:"values"`
}

type Table struct {
	Name    string   `json:"name" yaml:"name"`
	Columns []Column `json:"columns" yaml:"columns"`
	Rows    []Row    `json:"rows" yaml:"rows"`
}

type DataSet struct {
	Tables []*Table `json:"tables" yaml:"tables"`
}

func NewTable(name string) *Table {
	return &Table{
		Name:    name,
		Columns: make([]Column, 0),
		Rows:    make([]Row, 0),
	}
}

func (t *Table) AddColumn(name, dataType string) {
	t.Columns = append(t.Columns, Column{Name: name, DataType: dataType})
}

func (t *Table) AddRow(values ...any) error {
	if len(values) != len(t.Columns) {
		return errors.Errorf("table %q: row has %d values, want %d", t.Name, len(values), len(t.Columns))
	}
	t.Rows = append(t.Rows, Row{Values: values})
	return nil
}

// ColumnIndex matches names case-insensitively, the way SQL engines report them.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if strings.EqualFold(c.Name, name) {
			return i
		}
	}
	return -1
}

func (t *Table) Value(row int, column string) (any, bool) {
	if row < 0 || row >= len(t.Rows) {
		return nil, false
	}
	idx := t.ColumnIndex(column)
	if idx < 0 || idx >= len(t.Rows[row].Values) {
		return nil, false
	}
	return t.Rows[row].Values[idx], true
}

func (t *Table) RowCount() int {
	return len(t.Rows)
}

func New() *DataSet {
	return &DataSet{Tables: make([]*Table, 0)}
}

func (d *DataSet) Add(t *Table) {
	d.Tables = append(d.Tables, t)
}

func (d *DataSet) Table(name string) *Table {
	if d == nil {
		return nil
	}
	for _, t := range d.Tables {
		if t.Name == name {
			return t
		}
	}
	return nil
}

func (d *DataSet) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Tables)
}
