package dataset

import (
	"strings"
	"testing"

	"github.com/Velocidex/ordereddict"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"www.velocidex.com/golang/dataframe/types"
)

func TestFromRows(t *testing.T) {
	ds, err := FromRows(
		ordereddict.NewDict().Set("b1", int64(1)).Set("b2", int64(1)),
		ordereddict.NewDict().Set("b1", int64(2)).Set("b2", int64(4)),

		// A sparse row - b2 missing, b3 appears late.
		ordereddict.NewDict().Set("b1", 2.5).Set("b3", "hello"),
	)
	require.NoError(t, err)

	assert.Equal(t, int64(3), ds.EntryCount())
	assert.Equal(t, []string{"b1", "b2", "b3"}, ds.Columns())

	// b1 mixes int and float -> float.
	assert.Equal(t, types.Float64Type, ds.ColumnType("b1"))
	assert.Equal(t, types.Int64Type, ds.ColumnType("b2"))

	// b3 only appears in the last row but is still typed.
	assert.Equal(t, types.StringType, ds.ColumnType("b3"))

	// Missing cells read as Null.
	value, err := ds.ReadValue(2, "b2")
	require.NoError(t, err)
	assert.Equal(t, types.Null{}, value)

	value, err = ds.ReadValue(0, "b3")
	require.NoError(t, err)
	assert.Equal(t, types.Null{}, value)

	// Present cells are preserved exactly.
	value, err = ds.ReadValue(1, "b2")
	require.NoError(t, err)
	assert.Equal(t, int64(4), value)

	// Read errors.
	_, err = ds.ReadValue(0, "nosuch")
	assert.Error(t, err)

	_, err = ds.ReadValue(100, "b1")
	assert.Error(t, err)

	assert.True(t, ds.HasColumn("b2"))
	assert.False(t, ds.HasColumn("nosuch"))
}

func TestFromColumns(t *testing.T) {
	ds, err := FromColumns(ordereddict.NewDict().
		Set("b1", []int64{0, 1, 2, 3}).
		Set("b2", []float64{0, 1, 4, 9}).
		Set("name", []string{"a", "b", "c", "d"}))
	require.NoError(t, err)

	assert.Equal(t, int64(4), ds.EntryCount())
	assert.Equal(t, types.Int64Type, ds.ColumnType("b1"))
	assert.Equal(t, types.Float64Type, ds.ColumnType("b2"))
	assert.Equal(t, types.StringType, ds.ColumnType("name"))

	value, err := ds.ReadValue(3, "b2")
	require.NoError(t, err)
	assert.Equal(t, float64(9), value)

	// Ragged columns are rejected.
	_, err = FromColumns(ordereddict.NewDict().
		Set("b1", []int64{0, 1, 2}).
		Set("b2", []int64{0, 1}))
	assert.Error(t, err)

	// Non slice values are rejected.
	_, err = FromColumns(ordereddict.NewDict().Set("b1", 42))
	assert.Error(t, err)
}

func TestRow(t *testing.T) {
	ds, err := FromColumns(ordereddict.NewDict().
		Set("b1", []int64{1, 2}).
		Set("b2", []string{"x", "y"}))
	require.NoError(t, err)

	row := ds.Row(1)
	assert.Equal(t, []string{"b1", "b2"}, row.Keys())

	value, _ := row.Get("b2")
	assert.Equal(t, "y", value)
}

const sample_csv = `name,count,ratio,ok
alpha,4,0.5,true
beta,9,1.25,false
gamma,16,,true
`

func TestFromCSV(t *testing.T) {
	ds, err := FromCSV(strings.NewReader(sample_csv))
	require.NoError(t, err)

	assert.Equal(t, int64(3), ds.EntryCount())
	assert.Equal(t, []string{"name", "count", "ratio", "ok"}, ds.Columns())

	assert.Equal(t, types.StringType, ds.ColumnType("name"))
	assert.Equal(t, types.Int64Type, ds.ColumnType("count"))
	assert.Equal(t, types.Float64Type, ds.ColumnType("ratio"))
	assert.Equal(t, types.BoolType, ds.ColumnType("ok"))

	value, err := ds.ReadValue(1, "count")
	require.NoError(t, err)
	assert.Equal(t, int64(9), value)

	value, err = ds.ReadValue(1, "ok")
	require.NoError(t, err)
	assert.Equal(t, false, value)

	// The empty ratio cell is Null.
	value, err = ds.ReadValue(2, "ratio")
	require.NoError(t, err)
	assert.Equal(t, types.Null{}, value)

	// Ragged records fail.
	_, err = FromCSV(strings.NewReader("a,b\n1\n"))
	assert.Error(t, err)

	_, err = FromCSV(strings.NewReader(""))
	assert.Error(t, err)
}
