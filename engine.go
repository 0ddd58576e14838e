package dataframe

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	errors "github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"www.velocidex.com/golang/dataframe/types"
)

// run executes one scan pass serving every booked action which has
// not produced its value yet. The pass either completes fully - all
// pending actions finalized together - or fails and leaves the graph
// booked exactly as before, so a failed run can simply be repeated.
func (self *graph) run(ctx context.Context, options ...RunOption) error {
	self.run_mu.Lock()
	defer self.run_mu.Unlock()

	opts := getRunOptions(options)

	self.mu.Lock()
	pending := make([]int, 0, len(self.actions))
	for _, id := range self.actions {
		if !self.nodes[id].finalized {
			pending = append(pending, id)
		}
	}
	if len(pending) == 0 {
		self.mu.Unlock()
		return nil
	}

	self.state = stateRunning
	entry_count := self.reader.EntryCount()

	// Per block accumulators, indexed [block][pending slot]. Built
	// under the lock because new_acc closures live in the arena.
	// An empty dataset still runs one degenerate block so actions
	// finalize to their empty values.
	blocks := partitionBlocks(entry_count, opts)
	if len(blocks) == 0 {
		blocks = []block{{start: 0, end: 0}}
	}
	accs := make([][]accumulator, len(blocks))
	for block_idx := range blocks {
		row := make([]accumulator, 0, len(pending))
		for _, id := range pending {
			row = append(row, self.nodes[id].new_acc())
		}
		accs[block_idx] = row
	}

	// Maps action node id to its slot in the accumulator rows.
	slot := make(map[int]int)
	for idx, id := range pending {
		slot[id] = idx
	}
	self.mu.Unlock()

	run_id := uuid.New().String()
	start := time.Now()
	self.Debug("run %v: scanning %v entries in %v blocks with %v workers for %v actions",
		run_id, entry_count, len(blocks), opts.workers, len(pending))

	eg, group_ctx := errgroup.WithContext(ctx)
	eg.SetLimit(opts.workers)
	for block_idx, b := range blocks {
		block_idx, b := block_idx, b
		eg.Go(func() error {
			return self.scanBlock(group_ctx, b, slot, accs[block_idx], opts)
		})
	}

	err := eg.Wait()
	if err == nil {
		err = self.mergeAndPublish(pending, accs)
	}

	self.mu.Lock()
	if err != nil {
		// Leave every pending action untouched so the run can be
		// retried.
		self.state = stateBooked
		self.mu.Unlock()

		self.Error("run %v: %v", run_id, err)
		return err
	}

	for _, id := range pending {
		self.nodes[id].finalized = true
	}
	self.state = stateFinalized
	self.stats.IncRunsCompleted()
	self.mu.Unlock()

	self.Debug("run %v: completed in %v", run_id, time.Since(start))
	return nil
}

// ensureFinalized triggers a scan if the action has not produced its
// value yet. This is what makes result handles lazy.
func (self *graph) ensureFinalized(
	ctx context.Context, action int, options ...RunOption) error {
	self.mu.Lock()
	finalized := self.nodes[action].finalized
	self.mu.Unlock()

	if finalized {
		return nil
	}

	return self.run(ctx, options...)
}

// scanBlock walks every entry of one contiguous block through the
// graph, feeding this block's accumulators. Panics from user
// callbacks become errors instead of taking the process down.
func (self *graph) scanBlock(
	ctx context.Context, b block,
	slot map[int]int, accs []accumulator,
	opts *runOptions) (err error) {

	entry := b.start
	defer func() {
		r := recover()
		if r != nil {
			err = &ExecutionError{
				Entry: entry,
				Err:   fmt.Errorf("panic: %v", r),
			}
		}
	}()

	// Readers with per cursor state hand each worker a clone.
	reader := self.reader
	cloner, ok := reader.(types.ReaderCloner)
	if ok {
		reader = cloner.CloneForWorker()
	}

	scope := newEntryScope(reader, &self.stats)

	for ; entry < b.end; entry++ {
		if opts.throttler != nil {
			opts.throttler.ChargeOp()
		}

		// A failing sibling block cancels the group - stop early
		// rather than scanning to the end.
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		scope.reset(entry)
		self.stats.IncEntriesScanned()

		err := self.visitChildren(0, scope, slot, accs)
		if err != nil {
			return &ExecutionError{Entry: entry, Err: err}
		}
	}

	return nil
}

// visitChildren recursively evaluates the subtree below a node for
// the current entry. Filters prune, branches bind their value for
// the duration of their subtree, actions update their accumulator.
func (self *graph) visitChildren(
	id int, scope *entryScope,
	slot map[int]int, accs []accumulator) error {

	for _, child_id := range self.nodes[id].children {
		child := self.nodes[child_id]

		switch child.kind {
		case filterNode:
			passed, err := child.predicate(scope)
			if err != nil {
				return errors.Wrapf(err, "filter %v", child.label)
			}
			self.stats.IncPredicatesEvaluated()
			if !passed {
				continue
			}

			err = self.visitChildren(child_id, scope, slot, accs)
			if err != nil {
				return err
			}

		case branchNode:
			value, err := child.derive(scope)
			if err != nil {
				return errors.Wrapf(err, "branch %v", child.name)
			}
			self.stats.IncBranchesComputed()

			scope.push(child.name, value)
			err = self.visitChildren(child_id, scope, slot, accs)
			scope.pop()
			if err != nil {
				return err
			}

		case actionNode:
			// Actions finalized by an earlier pass have no slot
			// and are skipped.
			acc_idx, pres := slot[child_id]
			if !pres {
				continue
			}

			err := accs[acc_idx].update(scope)
			if err != nil {
				return err
			}
		}
	}

	return nil
}

// mergeAndPublish folds the per block accumulators together in block
// order and hands the merged state to each booked result. Nothing is
// published unless every merge succeeds. This runs on the triggering
// goroutine, so a panic in a merge or publish callback is converted
// to a failed run here rather than escaping through Result.Get.
func (self *graph) mergeAndPublish(pending []int, accs [][]accumulator) (err error) {
	defer func() {
		r := recover()
		if r != nil {
			err = errors.Errorf("publish: panic: %v", r)
		}
	}()

	merged := accs[0]
	for _, row := range accs[1:] {
		for idx := range merged {
			err := merged[idx].merge(row[idx])
			if err != nil {
				return err
			}
		}
	}

	self.mu.Lock()
	defer self.mu.Unlock()

	for idx, id := range pending {
		err := self.nodes[id].publish(merged[idx])
		if err != nil {
			return err
		}
	}

	return nil
}
