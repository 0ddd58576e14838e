/*

Package dataset provides in memory implementations of the
types.ColumnReader contract.

The InMemory reader stores cells column major so a scan which only
touches two columns of a wide dataset never pages the others through
memory. Datasets are immutable once built which makes the reader
trivially safe for concurrent scan workers.

*/
package dataset

import (
	"encoding/json"

	"github.com/Velocidex/ordereddict"
	errors "github.com/pkg/errors"
	"www.velocidex.com/golang/dataframe/types"
	"www.velocidex.com/golang/dataframe/utils"
)

// An in memory columnar dataset.
type InMemory struct {
	column_names  []string
	column_values map[string][]types.Any
	column_types  map[string]types.ColumnType
	count         int64
}

// FromRows builds a dataset from row oriented dicts. The column set
// is the union of all keys in first appearance order. Rows do not
// have to be homogeneous - a missing cell reads back as Null.
func FromRows(rows ...*ordereddict.Dict) (*InMemory, error) {
	result := newInMemory()
	result.count = int64(len(rows))

	for _, row := range rows {
		for _, name := range row.Keys() {
			_, pres := result.column_values[name]
			if !pres {
				result.column_names = append(result.column_names, name)
				result.column_values[name] = nil
				result.column_types[name] = types.AnyType
			}
		}
	}

	seen := make(map[string]bool)
	for _, row := range rows {
		for _, name := range result.column_names {
			value, pres := row.Get(name)
			if !pres || utils.IsNil(value) {
				value = types.Null{}
			} else {
				result.column_types[name] = mergeType(
					result.column_types[name], sniffValue(value),
					!seen[name])
				seen[name] = true
			}

			result.column_values[name] = append(
				result.column_values[name], value)
		}
	}

	// Columns we never saw a value for stay AnyType.
	return result, nil
}

// FromColumns builds a dataset from a dict mapping column names to
// equal length slices.
func FromColumns(columns *ordereddict.Dict) (*InMemory, error) {
	result := newInMemory()

	for _, name := range columns.Keys() {
		raw, _ := columns.Get(name)
		values, ok := utils.ToSlice(raw)
		if !ok {
			return nil, errors.Errorf(
				"FromColumns: column %v: expected a slice, got %T",
				name, raw)
		}

		if len(result.column_names) == 0 {
			result.count = int64(len(values))
		} else if int64(len(values)) != result.count {
			return nil, errors.Errorf(
				"FromColumns: column %v has %v values, expected %v",
				name, len(values), result.count)
		}

		column_type := types.AnyType
		first := true
		stored := make([]types.Any, 0, len(values))
		for _, value := range values {
			if utils.IsNil(value) {
				stored = append(stored, types.Null{})
				continue
			}
			column_type = mergeType(
				column_type, sniffValue(value), first)
			first = false
			stored = append(stored, value)
		}

		result.column_names = append(result.column_names, name)
		result.column_values[name] = stored
		result.column_types[name] = column_type
	}

	return result, nil
}

func newInMemory() *InMemory {
	return &InMemory{
		column_values: make(map[string][]types.Any),
		column_types:  make(map[string]types.ColumnType),
	}
}

func (self *InMemory) EntryCount() int64 {
	return self.count
}

func (self *InMemory) HasColumn(name string) bool {
	_, pres := self.column_values[name]
	return pres
}

func (self *InMemory) ColumnType(name string) types.ColumnType {
	column_type, pres := self.column_types[name]
	if !pres {
		return types.AnyType
	}
	return column_type
}

func (self *InMemory) ReadValue(entry int64, name string) (types.Any, error) {
	values, pres := self.column_values[name]
	if !pres {
		return nil, errors.Errorf("no such column %v", name)
	}

	if entry < 0 || entry >= self.count {
		return nil, errors.Errorf(
			"entry %v out of range (dataset has %v entries)",
			entry, self.count)
	}

	return values[entry], nil
}

// Columns returns the column names in their original order.
func (self *InMemory) Columns() []string {
	return append([]string{}, self.column_names...)
}

// Row materializes a single entry as a dict. Mostly useful for
// debugging and display.
func (self *InMemory) Row(entry int64) *ordereddict.Dict {
	result := ordereddict.NewDict()
	if entry < 0 || entry >= self.count {
		return result
	}

	for _, name := range self.column_names {
		result.Set(name, self.column_values[name][entry])
	}
	return result
}

func (self *InMemory) MarshalJSON() ([]byte, error) {
	rows := make([]*ordereddict.Dict, 0, self.count)
	for i := int64(0); i < self.count; i++ {
		rows = append(rows, self.Row(i))
	}
	return json.Marshal(rows)
}

// Derive the column type of a single cell.
func sniffValue(value types.Any) types.ColumnType {
	switch value.(type) {
	case bool:
		return types.BoolType

	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return types.Int64Type

	case float32, float64:
		return types.Float64Type

	case string:
		return types.StringType
	}

	if utils.IsArray(value) {
		return types.SliceType
	}

	return types.AnyType
}

// Fold the type of a new cell into the column type seen so far. Ints
// and floats mix to float, anything else inconsistent degrades to
// AnyType.
func mergeType(so_far, seen types.ColumnType, first bool) types.ColumnType {
	if first || so_far == seen {
		return seen
	}

	if (so_far == types.Int64Type && seen == types.Float64Type) ||
		(so_far == types.Float64Type && seen == types.Int64Type) {
		return types.Float64Type
	}

	return types.AnyType
}
