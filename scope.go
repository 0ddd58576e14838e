package dataframe

import (
	"www.velocidex.com/golang/dataframe/types"
	"www.velocidex.com/golang/dataframe/utils"
)

// An entryScope resolves column references while one entry is being
// walked through the graph. Cell reads go through a small cache so an
// entry shared by many filters and actions only touches the reader
// once per column, and branch bindings are pushed while the walk is
// inside their subtree.
//
// Scopes are reused across entries of a block - reset() clears them
// without dropping the backing arrays. The arrays are linear scanned
// rather than map backed because graphs reference a handful of
// columns and bindings at most.
type entryScope struct {
	reader types.ColumnReader
	stats  *types.Stats
	entry  int64

	binding_names  []string
	binding_values []types.Any

	cache_names  []string
	cache_values []types.Any
}

func newEntryScope(reader types.ColumnReader, stats *types.Stats) *entryScope {
	return &entryScope{
		reader: reader,
		stats:  stats,
	}
}

func (self *entryScope) reset(entry int64) {
	self.entry = entry
	self.binding_names = self.binding_names[:0]
	self.binding_values = self.binding_values[:0]
	self.cache_names = self.cache_names[:0]
	self.cache_values = self.cache_values[:0]
}

func (self *entryScope) push(name string, value types.Any) {
	self.binding_names = append(self.binding_names, name)
	self.binding_values = append(self.binding_values, value)
}

func (self *entryScope) pop() {
	self.binding_names = self.binding_names[:len(self.binding_names)-1]
	self.binding_values = self.binding_values[:len(self.binding_values)-1]
}

// Resolve implements expr.Resolver. Branch bindings shadow dataset
// columns and inner bindings shadow outer ones, so the walk is in
// reverse.
func (self *entryScope) Resolve(name string) (types.Any, error) {
	for i := len(self.binding_names) - 1; i >= 0; i-- {
		if self.binding_names[i] == name {
			return self.binding_values[i], nil
		}
	}

	for i := 0; i < len(self.cache_names); i++ {
		if self.cache_names[i] == name {
			return self.cache_values[i], nil
		}
	}

	value, err := self.reader.ReadValue(self.entry, name)
	if err != nil {
		return nil, err
	}
	if utils.IsNil(value) {
		value = types.Null{}
	}

	self.stats.IncValuesRead()
	self.cache_names = append(self.cache_names, name)
	self.cache_values = append(self.cache_values, value)

	return value, nil
}

// Gather the values of several columns in order. This backs the
// positional calling convention of the Go callback interfaces.
func (self *entryScope) resolveColumns(columns []string) ([]types.Any, error) {
	if len(columns) == 0 {
		return nil, nil
	}

	result := make([]types.Any, 0, len(columns))
	for _, column := range columns {
		value, err := self.Resolve(column)
		if err != nil {
			return nil, err
		}
		result = append(result, value)
	}

	return result, nil
}
