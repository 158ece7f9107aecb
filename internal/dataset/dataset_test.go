package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableRows(t *testing.T) {
	tbl := NewTable("0")
	tbl.AddColumn("Id", "int")
	tbl.AddColumn("Name", TypeString)

	require.NoError(t, tbl.AddRow(int64(1), "a"))
	require.NoError(t, tbl.AddRow(int64(2), nil))
	assert.Error(t, tbl.AddRow(int64(3)))

	assert.Equal(t, 2, tbl.RowCount())

	v, ok := tbl.Value(0, "name")
	assert.True(t, ok)
	assert.Equal(t, "a", v)

	v, ok = tbl.Value(1, "Name")
	assert.True(t, ok)
	assert.Nil(t, v)

	_, ok = tbl.Value(0, "missing")
	assert.False(t, ok)
	_, ok = tbl.Value(5, "Id")
	assert.False(t, ok)
}

func TestDataSetLookup(t *testing.T) {
	var empty *DataSet
	assert.Equal(t, 0, empty.Len())
	assert.Nil(t, empty.Table("0"))

	ds := New()
	ds.Add(NewTable("0"))
	ds.Add(NewTable("DatabaseNames"))

	assert.Equal(t, 2, ds.Len())
	assert.NotNil(t, ds.Table("DatabaseNames"))
	assert.Nil(t, ds.Table("1"))
}
