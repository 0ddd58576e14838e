package dataframe

import (
	"fmt"

	"www.velocidex.com/golang/dataframe/histo"
	"www.velocidex.com/golang/dataframe/types"
	"www.velocidex.com/golang/dataframe/utils"
)

// Accumulators carry the partial state of one action over one block
// of entries. Each block of each scan gets fresh accumulators so no
// locking is needed while scanning, then the engine merges them back
// together in block order.
//
// Numeric reductions skip Null cells (a sparse column contributes
// only its present values) but reject cells which are present and
// not coercible.
type accumulator interface {
	update(scope *entryScope) error
	merge(other accumulator) error
}

func coerceNumeric(scope *entryScope, column string) (float64, bool, error) {
	value, err := scope.Resolve(column)
	if err != nil {
		return 0, false, err
	}

	if utils.IsNil(value) {
		return 0, false, nil
	}

	value_float, ok := utils.ToFloat(value)
	if !ok {
		return 0, false, &TypeMismatchError{
			Column:   column,
			Expected: "a numeric value",
			Got:      fmt.Sprintf("%T", value),
		}
	}

	return value_float, true, nil
}

type countAcc struct {
	count uint64
}

func (self *countAcc) update(scope *entryScope) error {
	self.count++
	return nil
}

func (self *countAcc) merge(other accumulator) error {
	self.count += other.(*countAcc).count
	return nil
}

type minAcc struct {
	column string
	seen   bool
	value  float64
}

func (self *minAcc) update(scope *entryScope) error {
	value, present, err := coerceNumeric(scope, self.column)
	if err != nil || !present {
		return err
	}

	if !self.seen || value < self.value {
		self.value = value
		self.seen = true
	}
	return nil
}

func (self *minAcc) merge(other accumulator) error {
	other_min := other.(*minAcc)
	if other_min.seen && (!self.seen || other_min.value < self.value) {
		self.value = other_min.value
		self.seen = true
	}
	return nil
}

type maxAcc struct {
	column string
	seen   bool
	value  float64
}

func (self *maxAcc) update(scope *entryScope) error {
	value, present, err := coerceNumeric(scope, self.column)
	if err != nil || !present {
		return err
	}

	if !self.seen || value > self.value {
		self.value = value
		self.seen = true
	}
	return nil
}

func (self *maxAcc) merge(other accumulator) error {
	other_max := other.(*maxAcc)
	if other_max.seen && (!self.seen || other_max.value > self.value) {
		self.value = other_max.value
		self.seen = true
	}
	return nil
}

type meanAcc struct {
	column string
	sum    float64
	count  uint64
}

func (self *meanAcc) update(scope *entryScope) error {
	value, present, err := coerceNumeric(scope, self.column)
	if err != nil || !present {
		return err
	}

	self.sum += value
	self.count++
	return nil
}

func (self *meanAcc) merge(other accumulator) error {
	other_mean := other.(*meanAcc)
	self.sum += other_mean.sum
	self.count += other_mean.count
	return nil
}

type histoAcc struct {
	column    string
	histogram *histo.Histogram
}

func (self *histoAcc) update(scope *entryScope) error {
	value, present, err := coerceNumeric(scope, self.column)
	if err != nil || !present {
		return err
	}

	self.histogram.Fill(value)
	return nil
}

func (self *histoAcc) merge(other accumulator) error {
	return self.histogram.Merge(other.(*histoAcc).histogram)
}

// Foreach has no result - the accumulator just relays values to the
// callback. With more than one worker the callback runs concurrently
// from several blocks, so it must be safe for that.
type foreachAcc struct {
	fn      ForeachFunc
	columns []string
}

func (self *foreachAcc) update(scope *entryScope) error {
	values, err := scope.resolveColumns(self.columns)
	if err != nil {
		return err
	}

	return self.fn(values...)
}

func (self *foreachAcc) merge(other accumulator) error {
	return nil
}

// getAcc collects the values of one column in entry order. The
// optional convert hook is how Collect[T] coerces cells to a static
// type - conversion failures surface at the failing entry.
type getAcc struct {
	column  string
	convert func(value types.Any) (types.Any, error)
	values  []types.Any
}

func (self *getAcc) update(scope *entryScope) error {
	value, err := scope.Resolve(self.column)
	if err != nil {
		return err
	}

	if self.convert != nil {
		value, err = self.convert(value)
		if err != nil {
			return err
		}
	}

	self.values = append(self.values, value)
	return nil
}

func (self *getAcc) merge(other accumulator) error {
	self.values = append(self.values, other.(*getAcc).values...)
	return nil
}
