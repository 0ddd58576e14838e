package types

import (
	"sync/atomic"

	"github.com/Velocidex/ordereddict"
)

// A lightweight struct for accumulating general stats. Workers update
// the counters concurrently during a scan so all access is atomic.
type Stats struct {
	// All entries visited by all runs (an entry scanned by two runs
	// counts twice).
	_EntriesScanned uint64

	// Cell values actually fetched from the reader. Lazy evaluation
	// means this is usually much smaller than entries x columns.
	_ValuesRead uint64

	// Total number of filter predicate evaluations.
	_PredicatesEvaluated uint64

	// Total number of derived column computations.
	_BranchesComputed uint64

	// Number of completed scan passes.
	_RunsCompleted uint64
}

func (self *Stats) IncEntriesScanned() {
	atomic.AddUint64(&self._EntriesScanned, uint64(1))
}

func (self *Stats) IncValuesRead() {
	atomic.AddUint64(&self._ValuesRead, uint64(1))
}

func (self *Stats) IncPredicatesEvaluated() {
	atomic.AddUint64(&self._PredicatesEvaluated, uint64(1))
}

func (self *Stats) IncBranchesComputed() {
	atomic.AddUint64(&self._BranchesComputed, uint64(1))
}

func (self *Stats) IncRunsCompleted() {
	atomic.AddUint64(&self._RunsCompleted, uint64(1))
}

func (self *Stats) EntriesScanned() uint64 {
	return atomic.LoadUint64(&self._EntriesScanned)
}

func (self *Stats) RunsCompleted() uint64 {
	return atomic.LoadUint64(&self._RunsCompleted)
}

func (self *Stats) Snapshot() *ordereddict.Dict {
	return ordereddict.NewDict().
		Set("EntriesScanned", atomic.LoadUint64(&self._EntriesScanned)).
		Set("ValuesRead", atomic.LoadUint64(&self._ValuesRead)).
		Set("PredicatesEvaluated", atomic.LoadUint64(&self._PredicatesEvaluated)).
		Set("BranchesComputed", atomic.LoadUint64(&self._BranchesComputed)).
		Set("RunsCompleted", atomic.LoadUint64(&self._RunsCompleted))
}
