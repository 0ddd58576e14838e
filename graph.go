package dataframe

import (
	"fmt"
	"log"
	"sync"

	"www.velocidex.com/golang/dataframe/types"
)

// graphState tracks the lifecycle of the computation graph as a
// whole. Transitions only happen under the graph lock.
type graphState int

const (
	// Nodes may exist but nothing is waiting for a scan.
	stateUnbooked graphState = iota

	// At least one booked action is waiting for a scan.
	stateBooked

	// A scan is in flight.
	stateRunning

	// Every booked action has produced its value. Booking another
	// action moves the graph back to stateBooked.
	stateFinalized
)

func (self graphState) String() string {
	switch self {
	case stateBooked:
		return "booked"
	case stateRunning:
		return "running"
	case stateFinalized:
		return "finalized"
	default:
		return "unbooked"
	}
}

type nodeKind int

const (
	rootNode nodeKind = iota
	filterNode
	branchNode
	actionNode
)

type actionKind int

const (
	noAction actionKind = iota
	actionCount
	actionMin
	actionMax
	actionMean
	actionHisto
	actionForeach
	actionGet
)

// A single node of the computation graph. Nodes live in the graph's
// arena and refer to each other by index - handles carry indexes too,
// so node lifetime is tied to the graph and never to the handle
// objects users pass around.
type node struct {
	id     int
	parent int
	kind   nodeKind

	// Rendering label and the columns this node reads.
	label   string
	columns []string

	// filterNode: decides whether an entry continues down this
	// subtree.
	predicate func(scope *entryScope) (bool, error)

	// branchNode: the derived column name and how to compute it.
	name   string
	derive func(scope *entryScope) (types.Any, error)

	// actionNode: a fresh per block accumulator, and how to hand
	// the merged accumulator to the booked result.
	action    actionKind
	new_acc   func() accumulator
	publish   func(acc accumulator) error
	finalized bool

	children []int
}

// The graph owns the node arena, the reader and the execution state
// shared by every handle derived from one dataset.
type graph struct {
	mu sync.Mutex

	// Taken for the duration of a scan pass. Booking operations
	// also take it briefly, so the graph never changes shape under
	// a running scan.
	run_mu sync.Mutex

	reader types.ColumnReader
	nodes  []*node

	// Action node ids in booking order.
	actions []int

	state graphState

	logger *log.Logger
	stats  types.Stats
}

func newGraph(reader types.ColumnReader) *graph {
	self := &graph{reader: reader}
	self.nodes = append(self.nodes, &node{
		id:     0,
		parent: -1,
		kind:   rootNode,
		label:  "dataset",
	})
	return self
}

// Append a node under its parent. Caller must hold mu.
func (self *graph) addNode(new_node *node) int {
	new_node.id = len(self.nodes)
	self.nodes = append(self.nodes, new_node)

	parent := self.nodes[new_node.parent]
	parent.children = append(parent.children, new_node.id)

	return new_node.id
}

// Book an action node. Caller must hold mu.
func (self *graph) bookAction(new_node *node) int {
	id := self.addNode(new_node)
	self.actions = append(self.actions, id)

	// Booking re-opens a finalized graph.
	if self.state == stateUnbooked || self.state == stateFinalized {
		self.state = stateBooked
	}

	return id
}

// A column is visible at a node when the dataset has it, or an
// ancestor branch defines it. Derived columns are only visible in
// the subtree below their branch node. Caller must hold mu.
func (self *graph) isVisible(node_id int, column string) bool {
	for id := node_id; id >= 0; id = self.nodes[id].parent {
		visited := self.nodes[id]
		if visited.kind == branchNode && visited.name == column {
			return true
		}
	}

	return self.reader.HasColumn(column)
}

// The advertised type of a column as seen from a node. Derived
// columns are dynamically typed. Caller must hold mu.
func (self *graph) visibleType(node_id int, column string) types.ColumnType {
	for id := node_id; id >= 0; id = self.nodes[id].parent {
		visited := self.nodes[id]
		if visited.kind == branchNode && visited.name == column {
			return types.AnyType
		}
	}

	return self.reader.ColumnType(column)
}

// Reject booking requests referencing columns which are not visible
// at the node. Caller must hold mu.
func (self *graph) checkColumns(op string, node_id int, columns []string) error {
	for _, column := range columns {
		if !self.isVisible(node_id, column) {
			return &SchemaError{Op: op, Column: column}
		}
	}
	return nil
}

// Numeric reductions additionally reject columns whose advertised
// type can not be coerced to float64. Caller must hold mu.
func (self *graph) checkNumericColumn(op string, node_id int, column string) error {
	if !self.isVisible(node_id, column) {
		return &SchemaError{Op: op, Column: column}
	}

	column_type := self.visibleType(node_id, column)
	if !column_type.Numeric() {
		return &TypeMismatchError{
			Column:   column,
			Expected: "a numeric column",
			Got:      column_type.String(),
		}
	}

	return nil
}

func (self *graph) SetLogger(logger *log.Logger) {
	self.mu.Lock()
	defer self.mu.Unlock()

	self.logger = logger
}

func (self *graph) Log(format string, a ...interface{}) {
	self.mu.Lock()
	logger := self.logger
	self.mu.Unlock()

	if logger != nil {
		msg := fmt.Sprintf(format, a...)
		logger.Print(msg)
	}
}

func (self *graph) Error(format string, a ...interface{}) {
	self.Log("ERROR:"+format, a...)
}

func (self *graph) Debug(format string, a ...interface{}) {
	self.Log("DEBUG:"+format, a...)
}
