/*

The dataframe library implements a declarative, lazily evaluated
query engine over row oriented datasets.

Overview::

Analysis code over tabular data tends to degenerate into hand written
event loops: open the data, loop over entries, check some conditions,
update some counters. Each new question adds another loop, another
pass over the data, and another chance to get the bookkeeping wrong.

This library turns those loops inside out. Callers declare what they
want - filters, derived columns and terminal actions arranged in a
tree rooted at the dataset - and the engine delivers every requested
result in a single shared pass:

    df, err := dataframe.NewDataFrame(reader)

    evens, err := df.Where("b2 % 2 == 0")
    count := evens.Count()
    mean, err := evens.Mean("b1")

    // Nothing has been read yet. The first Get triggers one pass
    // which serves both booked actions.
    n, err := count.Get(ctx)
    m, err := mean.Get(ctx)

Filters and derived columns ("branches") can also be supplied as Go
callbacks when an expression string is not enough:

    odd, err := df.Filter(func(values ...dataframe.Any) (bool, error) {
        return values[0].(int64)%2 == 1, nil
    }, "b1")

    df.AddBranch("b1_sq", func(values ...dataframe.Any) (dataframe.Any, error) {
        v, _ := values[0].(int64)
        return v * v, nil
    }, "b1")

A derived column is visible in the subtree below its branch node, so
two independent analyses can derive different columns under the same
name without colliding.

Laziness and repeated runs::

Booking an action returns a typed Result handle immediately. The scan
happens when a handle's Get() is first called (or on an explicit
Run()) and serves every action booked anywhere in the tree which has
not yet produced its value. Results are stable once produced: booking
more actions later and triggering again runs a new pass for the new
actions only.

Parallelism::

A pass can be forked over contiguous blocks of entries:

    n, err := count.Get(ctx, dataframe.Workers(4))

Each block scans into private accumulators which are merged in block
order, so worker scheduling never affects a result: collected values
keep entry order and reductions fold in dataset order.

Datasets::

Anything implementing types.ColumnReader can be scanned. The dataset
package provides in memory readers built from rows, columns or CSV
files.

*/
package dataframe

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"

	"github.com/Velocidex/ordereddict"
	errors "github.com/pkg/errors"
	"www.velocidex.com/golang/dataframe/expr"
	"www.velocidex.com/golang/dataframe/histo"
	"www.velocidex.com/golang/dataframe/types"
	"www.velocidex.com/golang/dataframe/utils"
)

// The Go callback forms of filters, branches and Foreach receive the
// values of their declared input columns positionally.
type PredicateFunc func(values ...types.Any) (bool, error)
type BranchFunc func(values ...types.Any) (types.Any, error)
type ForeachFunc func(values ...types.Any) error

// A DataFrame is a lightweight handle naming one node of the
// computation graph. Handles share the graph - deriving and booking
// through any handle is visible to all of them, and a handle is only
// needed long enough to derive or book through it.
type DataFrame struct {
	graph *graph
	node  int

	// Used as the input columns for Filter, AddBranch and Foreach
	// calls which do not name their own.
	default_columns []string
}

// NewDataFrame roots a new computation graph at the dataset exposed
// by reader. The optional default columns are handed to callbacks
// booked without an explicit column list.
func NewDataFrame(reader types.ColumnReader, default_columns ...string) (*DataFrame, error) {
	if utils.IsNil(reader) {
		return nil, errors.New("NewDataFrame: a reader is required")
	}

	for _, column := range default_columns {
		if !reader.HasColumn(column) {
			return nil, &SchemaError{Op: "NewDataFrame", Column: column}
		}
	}

	return &DataFrame{
		graph:           newGraph(reader),
		node:            0,
		default_columns: default_columns,
	}, nil
}

// SetLogger receives DEBUG: and ERROR: prefixed messages about scan
// passes.
func (self *DataFrame) SetLogger(logger *log.Logger) {
	self.graph.SetLogger(logger)
}

// Stats returns a snapshot of the engine counters for this graph.
func (self *DataFrame) Stats() *ordereddict.Dict {
	return self.graph.stats.Snapshot()
}

// Run triggers a pass serving every booked action which has not
// produced its value yet. Run on a graph with nothing pending is a
// no-op.
func (self *DataFrame) Run(ctx context.Context, options ...RunOption) error {
	return self.graph.run(ctx, options...)
}

func (self *DataFrame) inputColumns(columns []string) []string {
	if len(columns) > 0 {
		return columns
	}
	return self.default_columns
}

// derive returns a handle on a freshly added node.
func (self *DataFrame) derive(node_id int) *DataFrame {
	return &DataFrame{
		graph:           self.graph,
		node:            node_id,
		default_columns: self.default_columns,
	}
}

// Filter derives a handle which only sees entries the predicate
// accepts. With no columns the default columns are passed, which may
// legitimately be none for a constant predicate.
func (self *DataFrame) Filter(pred PredicateFunc, columns ...string) (*DataFrame, error) {
	if pred == nil {
		return nil, errors.New("Filter: a predicate is required")
	}

	inputs := self.inputColumns(columns)

	self.graph.run_mu.Lock()
	defer self.graph.run_mu.Unlock()
	self.graph.mu.Lock()
	defer self.graph.mu.Unlock()

	err := self.graph.checkColumns("Filter", self.node, inputs)
	if err != nil {
		return nil, err
	}

	id := self.graph.addNode(&node{
		parent:  self.node,
		kind:    filterNode,
		label:   fmt.Sprintf("func(%v)", strings.Join(inputs, ", ")),
		columns: inputs,
		predicate: func(scope *entryScope) (bool, error) {
			values, err := scope.resolveColumns(inputs)
			if err != nil {
				return false, err
			}
			return pred(values...)
		},
	})

	return self.derive(id), nil
}

// Where is the expression form of Filter. The input columns are
// inferred from the expression.
func (self *DataFrame) Where(expression string) (*DataFrame, error) {
	compiled, err := expr.Compile(expression)
	if err != nil {
		return nil, errors.Wrap(err, "Where")
	}

	inputs := compiled.Columns()

	self.graph.run_mu.Lock()
	defer self.graph.run_mu.Unlock()
	self.graph.mu.Lock()
	defer self.graph.mu.Unlock()

	err = self.graph.checkColumns("Where", self.node, inputs)
	if err != nil {
		return nil, err
	}

	id := self.graph.addNode(&node{
		parent:  self.node,
		kind:    filterNode,
		label:   compiled.ToString(),
		columns: inputs,
		predicate: func(scope *entryScope) (bool, error) {
			return compiled.ReduceBool(scope)
		},
	})

	return self.derive(id), nil
}

// AddBranch derives a handle whose subtree sees an extra column
// computed per entry by fn. The new name must not collide with any
// column visible here.
func (self *DataFrame) AddBranch(name string, fn BranchFunc, columns ...string) (*DataFrame, error) {
	if name == "" {
		return nil, errors.New("AddBranch: a column name is required")
	}
	if fn == nil {
		return nil, errors.New("AddBranch: a branch function is required")
	}

	inputs := self.inputColumns(columns)

	self.graph.run_mu.Lock()
	defer self.graph.run_mu.Unlock()
	self.graph.mu.Lock()
	defer self.graph.mu.Unlock()

	if self.graph.isVisible(self.node, name) {
		return nil, &NameCollisionError{Op: "AddBranch", Name: name}
	}

	err := self.graph.checkColumns("AddBranch", self.node, inputs)
	if err != nil {
		return nil, err
	}

	id := self.graph.addNode(&node{
		parent:  self.node,
		kind:    branchNode,
		name:    name,
		label:   fmt.Sprintf("%v = func(%v)", name, strings.Join(inputs, ", ")),
		columns: inputs,
		derive: func(scope *entryScope) (types.Any, error) {
			values, err := scope.resolveColumns(inputs)
			if err != nil {
				return nil, err
			}
			return fn(values...)
		},
	})

	return self.derive(id), nil
}

// Let is the expression form of AddBranch.
func (self *DataFrame) Let(name string, expression string) (*DataFrame, error) {
	if name == "" {
		return nil, errors.New("Let: a column name is required")
	}

	compiled, err := expr.Compile(expression)
	if err != nil {
		return nil, errors.Wrap(err, "Let")
	}

	inputs := compiled.Columns()

	self.graph.run_mu.Lock()
	defer self.graph.run_mu.Unlock()
	self.graph.mu.Lock()
	defer self.graph.mu.Unlock()

	if self.graph.isVisible(self.node, name) {
		return nil, &NameCollisionError{Op: "Let", Name: name}
	}

	err = self.graph.checkColumns("Let", self.node, inputs)
	if err != nil {
		return nil, err
	}

	id := self.graph.addNode(&node{
		parent:  self.node,
		kind:    branchNode,
		name:    name,
		label:   fmt.Sprintf("%v = %v", name, compiled.ToString()),
		columns: inputs,
		derive: func(scope *entryScope) (types.Any, error) {
			return compiled.Reduce(scope)
		},
	})

	return self.derive(id), nil
}

// Count books a count of the entries reaching this node.
func (self *DataFrame) Count() *Result[uint64] {
	self.graph.run_mu.Lock()
	defer self.graph.run_mu.Unlock()
	self.graph.mu.Lock()
	defer self.graph.mu.Unlock()

	result := &Result[uint64]{graph: self.graph}
	result.action = self.graph.bookAction(&node{
		parent: self.node,
		kind:   actionNode,
		action: actionCount,
		label:  "count",
		new_acc: func() accumulator {
			return &countAcc{}
		},
		publish: func(acc accumulator) error {
			result.set(acc.(*countAcc).count)
			return nil
		},
	})

	return result
}

// Min books the minimum of a numeric column over the entries
// reaching this node. An empty selection produces NaN.
func (self *DataFrame) Min(column string) (*Result[float64], error) {
	return self.bookMinMax("Min", actionMin, column)
}

// Max books the maximum of a numeric column over the entries
// reaching this node. An empty selection produces NaN.
func (self *DataFrame) Max(column string) (*Result[float64], error) {
	return self.bookMinMax("Max", actionMax, column)
}

// Reductions over an empty selection have no meaningful value.
func emptyToNaN(value float64, seen bool) float64 {
	if !seen {
		return math.NaN()
	}
	return value
}

func (self *DataFrame) bookMinMax(op string, kind actionKind, column string) (
	*Result[float64], error) {
	self.graph.run_mu.Lock()
	defer self.graph.run_mu.Unlock()
	self.graph.mu.Lock()
	defer self.graph.mu.Unlock()

	err := self.graph.checkNumericColumn(op, self.node, column)
	if err != nil {
		return nil, err
	}

	result := &Result[float64]{graph: self.graph}
	result.action = self.graph.bookAction(&node{
		parent:  self.node,
		kind:    actionNode,
		action:  kind,
		label:   fmt.Sprintf("%v(%v)", strings.ToLower(op), column),
		columns: []string{column},
		new_acc: func() accumulator {
			if kind == actionMin {
				return &minAcc{column: column}
			}
			return &maxAcc{column: column}
		},
		publish: func(acc accumulator) error {
			switch t := acc.(type) {
			case *minAcc:
				result.set(emptyToNaN(t.value, t.seen))
			case *maxAcc:
				result.set(emptyToNaN(t.value, t.seen))
			}
			return nil
		},
	})

	return result, nil
}

// Mean books the arithmetic mean of a numeric column over the
// entries reaching this node. An empty selection produces NaN.
func (self *DataFrame) Mean(column string) (*Result[float64], error) {
	self.graph.run_mu.Lock()
	defer self.graph.run_mu.Unlock()
	self.graph.mu.Lock()
	defer self.graph.mu.Unlock()

	err := self.graph.checkNumericColumn("Mean", self.node, column)
	if err != nil {
		return nil, err
	}

	result := &Result[float64]{graph: self.graph}
	result.action = self.graph.bookAction(&node{
		parent:  self.node,
		kind:    actionNode,
		action:  actionMean,
		label:   fmt.Sprintf("mean(%v)", column),
		columns: []string{column},
		new_acc: func() accumulator {
			return &meanAcc{column: column}
		},
		publish: func(acc accumulator) error {
			mean_acc := acc.(*meanAcc)
			if mean_acc.count == 0 {
				result.set(math.NaN())
				return nil
			}
			result.set(mean_acc.sum / float64(mean_acc.count))
			return nil
		},
	})

	return result, nil
}

// Histo books a histogram of a numeric column over the entries
// reaching this node. Without an explicit histo.Range the axis is
// derived from the data when the result is finalized.
func (self *DataFrame) Histo(column string, options ...histo.Option) (
	*Result[*histo.Histogram], error) {
	self.graph.run_mu.Lock()
	defer self.graph.run_mu.Unlock()
	self.graph.mu.Lock()
	defer self.graph.mu.Unlock()

	err := self.graph.checkNumericColumn("Histo", self.node, column)
	if err != nil {
		return nil, err
	}

	result := &Result[*histo.Histogram]{graph: self.graph}
	result.action = self.graph.bookAction(&node{
		parent:  self.node,
		kind:    actionNode,
		action:  actionHisto,
		label:   fmt.Sprintf("histo(%v)", column),
		columns: []string{column},
		new_acc: func() accumulator {
			return &histoAcc{
				column:    column,
				histogram: histo.New(options...),
			}
		},
		publish: func(acc accumulator) error {
			histogram := acc.(*histoAcc).histogram
			histogram.Finalize()
			result.set(histogram)
			return nil
		},
	})

	return result, nil
}

// Foreach books a callback invoked with the input column values of
// every entry reaching this node. There is no result handle - the
// callback is the consumer. When the triggering run uses more than
// one worker the callback is invoked concurrently from different
// blocks and must be safe for that.
func (self *DataFrame) Foreach(fn ForeachFunc, columns ...string) error {
	if fn == nil {
		return errors.New("Foreach: a function is required")
	}

	inputs := self.inputColumns(columns)

	self.graph.run_mu.Lock()
	defer self.graph.run_mu.Unlock()
	self.graph.mu.Lock()
	defer self.graph.mu.Unlock()

	err := self.graph.checkColumns("Foreach", self.node, inputs)
	if err != nil {
		return err
	}

	self.graph.bookAction(&node{
		parent:  self.node,
		kind:    actionNode,
		action:  actionForeach,
		label:   fmt.Sprintf("foreach(%v)", strings.Join(inputs, ", ")),
		columns: inputs,
		new_acc: func() accumulator {
			return &foreachAcc{fn: fn, columns: inputs}
		},
		publish: func(acc accumulator) error {
			return nil
		},
	})

	return nil
}

// Get books the collection of a column's values, in entry order,
// over the entries reaching this node. Values are preserved exactly
// as the reader (or branch) produced them.
func (self *DataFrame) Get(column string) (*Result[[]types.Any], error) {
	self.graph.run_mu.Lock()
	defer self.graph.run_mu.Unlock()
	self.graph.mu.Lock()
	defer self.graph.mu.Unlock()

	err := self.graph.checkColumns("Get", self.node, []string{column})
	if err != nil {
		return nil, err
	}

	result := &Result[[]types.Any]{graph: self.graph}
	result.action = self.graph.bookAction(&node{
		parent:  self.node,
		kind:    actionNode,
		action:  actionGet,
		label:   fmt.Sprintf("get(%v)", column),
		columns: []string{column},
		new_acc: func() accumulator {
			return &getAcc{column: column}
		},
		publish: func(acc accumulator) error {
			result.set(acc.(*getAcc).values)
			return nil
		},
	})

	return result, nil
}

// Collect books the collection of a column's values coerced to a
// static element type. A cell which can not be coerced fails the
// run at that entry.
func Collect[T any](self *DataFrame, column string) (*Result[[]T], error) {
	self.graph.run_mu.Lock()
	defer self.graph.run_mu.Unlock()
	self.graph.mu.Lock()
	defer self.graph.mu.Unlock()

	err := self.graph.checkColumns("Collect", self.node, []string{column})
	if err != nil {
		return nil, err
	}

	convert := converterFor[T]()

	result := &Result[[]T]{graph: self.graph}
	result.action = self.graph.bookAction(&node{
		parent:  self.node,
		kind:    actionNode,
		action:  actionGet,
		label:   fmt.Sprintf("collect(%v)", column),
		columns: []string{column},
		new_acc: func() accumulator {
			return &getAcc{
				column: column,
				convert: func(value types.Any) (types.Any, error) {
					converted, err := convert(value)
					if err != nil {
						mismatch, ok := err.(*TypeMismatchError)
						if ok {
							mismatch.Column = column
						}
						return nil, err
					}
					return converted, nil
				},
			}
		},
		publish: func(acc accumulator) error {
			values := acc.(*getAcc).values
			typed := make([]T, 0, len(values))
			for _, value := range values {
				typed = append(typed, value.(T))
			}
			result.set(typed)
			return nil
		},
	})

	return result, nil
}
