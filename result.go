package dataframe

import (
	"context"
	"fmt"

	"www.velocidex.com/golang/dataframe/types"
	"www.velocidex.com/golang/dataframe/utils"
)

// A Result is the lazy handle returned when an action is booked.
// Booking does nothing - the value is produced by the first Get()
// (or an explicit DataFrame.Run()) and is then stable: later Gets
// return the same value without rescanning, even if other actions
// have been booked and run since.
type Result[T any] struct {
	graph  *graph
	action int
	value  T
}

// Get triggers a scan if this result has not been produced yet and
// returns the value. One scan serves every result which is pending
// at the time, so booking several actions and then Getting them in
// turn still costs a single pass over the dataset.
func (self *Result[T]) Get(ctx context.Context, options ...RunOption) (T, error) {
	err := self.graph.ensureFinalized(ctx, self.action, options...)
	if err != nil {
		var zero T
		return zero, err
	}

	self.graph.mu.Lock()
	defer self.graph.mu.Unlock()
	return self.value, nil
}

// IsFinalized reports whether the value has been produced. It never
// triggers a scan.
func (self *Result[T]) IsFinalized() bool {
	self.graph.mu.Lock()
	defer self.graph.mu.Unlock()
	return self.graph.nodes[self.action].finalized
}

// set is called by the engine while publishing, under the graph
// lock.
func (self *Result[T]) set(value T) {
	self.value = value
}

// Cell converters used by Collect to give its values a static type.
// The supported element types mirror the column types a reader can
// advertise.
func converterFor[T any]() func(value types.Any) (types.Any, error) {
	var zero T

	switch any(zero).(type) {
	case float64:
		return func(value types.Any) (types.Any, error) {
			value_float, ok := utils.ToFloat(value)
			if !ok {
				return nil, conversionError(value, "float64")
			}
			return value_float, nil
		}

	case int64:
		return func(value types.Any) (types.Any, error) {
			if !utils.IsInt(value) {
				return nil, conversionError(value, "int64")
			}
			value_int, _ := utils.ToInt64(value)
			return value_int, nil
		}

	case string:
		return func(value types.Any) (types.Any, error) {
			value_str, ok := utils.ToString(value)
			if !ok {
				return nil, conversionError(value, "string")
			}
			return value_str, nil
		}

	case bool:
		return func(value types.Any) (types.Any, error) {
			return utils.Bool(value), nil
		}

	default:
		// Anything else must hold the exact type already.
		return func(value types.Any) (types.Any, error) {
			typed, ok := value.(T)
			if !ok {
				return nil, conversionError(value, fmt.Sprintf("%T", zero))
			}
			return typed, nil
		}
	}
}

func conversionError(value types.Any, expected string) error {
	return &TypeMismatchError{
		Column:   "",
		Expected: expected,
		Got:      fmt.Sprintf("%T", value),
	}
}
