package dataframe

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/Velocidex/ordereddict"
	"github.com/stretchr/testify/assert"
	"www.velocidex.com/golang/dataframe/dataset"
)

// A thousand entries is enough to split into many blocks.
func makeLargeFrame(t *testing.T) *DataFrame {
	values := make([]int64, 0, 1000)
	for i := 0; i < 1000; i++ {
		values = append(values, int64(i))
	}

	reader, err := dataset.FromColumns(ordereddict.NewDict().
		Set("v", values))
	assert.NoError(t, err)

	df, err := NewDataFrame(reader)
	assert.NoError(t, err)

	return df
}

// A forked pass must produce exactly what a sequential pass produces,
// including the entry order of collected values.
func TestParallelDeterminism(t *testing.T) {
	ctx := context.Background()

	book := func(df *DataFrame) (
		*Result[uint64], *Result[float64], *Result[[]Any]) {
		filtered, err := df.Where("v % 3 == 0")
		assert.NoError(t, err)

		count := filtered.Count()
		mean, err := filtered.Mean("v")
		assert.NoError(t, err)
		values, err := filtered.Get("v")
		assert.NoError(t, err)

		return count, mean, values
	}

	sequential := makeLargeFrame(t)
	seq_count, seq_mean, seq_values := book(sequential)
	err := sequential.Run(ctx)
	assert.NoError(t, err)

	parallel := makeLargeFrame(t)
	par_count, par_mean, par_values := book(parallel)
	err = parallel.Run(ctx, Workers(4), BlockSize(97))
	assert.NoError(t, err)

	seq_n, err := seq_count.Get(ctx)
	assert.NoError(t, err)
	par_n, err := par_count.Get(ctx)
	assert.NoError(t, err)
	assert.Equal(t, seq_n, par_n)

	seq_m, err := seq_mean.Get(ctx)
	assert.NoError(t, err)
	par_m, err := par_mean.Get(ctx)
	assert.NoError(t, err)
	assert.Equal(t, seq_m, par_m)

	seq_list, err := seq_values.Get(ctx)
	assert.NoError(t, err)
	par_list, err := par_values.Get(ctx)
	assert.NoError(t, err)
	assert.Equal(t, seq_list, par_list)
}

// Block size must not affect results - one entry per block, uneven
// tails and a single oversized block all agree.
func TestBlockSizes(t *testing.T) {
	ctx := context.Background()

	for _, block_size := range []int64{1, 7, 64, 1000, 5000} {
		df := makeLargeFrame(t)

		filtered, err := df.Where("v % 7 == 0")
		assert.NoError(t, err)
		count := filtered.Count()
		values, err := filtered.Get("v")
		assert.NoError(t, err)

		err = df.Run(ctx, Workers(3), BlockSize(block_size))
		assert.NoError(t, err)

		n, err := count.Get(ctx)
		assert.NoError(t, err)
		// Multiples of 7 below 1000.
		assert.Equal(t, uint64(143), n,
			"block size %v", block_size)

		list, err := values.Get(ctx)
		assert.NoError(t, err)
		assert.Equal(t, 143, len(list))
		assert.Equal(t, int64(0), list[0])
		assert.Equal(t, int64(994), list[142])
	}
}

// A Foreach booked into a forked pass sees every entry exactly once
// across all blocks.
func TestParallelForeach(t *testing.T) {
	df := makeLargeFrame(t)
	ctx := context.Background()

	var calls int64
	var sum int64
	err := df.Foreach(func(values ...Any) error {
		atomic.AddInt64(&calls, 1)
		atomic.AddInt64(&sum, values[0].(int64))
		return nil
	}, "v")
	assert.NoError(t, err)

	err = df.Run(ctx, Workers(4), BlockSize(50))
	assert.NoError(t, err)

	assert.Equal(t, int64(1000), atomic.LoadInt64(&calls))
	assert.Equal(t, int64(999*1000/2), atomic.LoadInt64(&sum))
}

// A panicking callback fails the run cleanly instead of taking the
// process down, and names the entry being scanned.
func TestWorkerPanic(t *testing.T) {
	df := makeLargeFrame(t)
	ctx := context.Background()

	filtered, err := df.Filter(func(values ...Any) (bool, error) {
		if values[0].(int64) == 700 {
			panic("boom")
		}
		return true, nil
	}, "v")
	assert.NoError(t, err)

	count := filtered.Count()
	_, err = count.Get(ctx, Workers(4), BlockSize(100))
	assert.Error(t, err)

	var exec_err *ExecutionError
	assert.True(t, errors.As(err, &exec_err))
	assert.Equal(t, int64(700), exec_err.Entry)
	assert.Contains(t, err.Error(), "panic")

	assert.False(t, count.IsFinalized())
	assert.Equal(t, uint64(0), df.graph.stats.RunsCompleted())
}

// A failed pass publishes nothing - not even for healthy sibling
// actions - and can simply be repeated once the cause is gone.
func TestFailedRunIsRepeatable(t *testing.T) {
	df := makeLargeFrame(t)
	ctx := context.Background()

	fail := true
	flaky, err := df.Filter(func(values ...Any) (bool, error) {
		if fail && values[0].(int64) == 500 {
			return false, errors.New("transient read failure")
		}
		return values[0].(int64)%2 == 0, nil
	}, "v")
	assert.NoError(t, err)

	count := flaky.Count()
	total := df.Count()

	_, err = count.Get(ctx)
	assert.Error(t, err)

	var exec_err *ExecutionError
	assert.True(t, errors.As(err, &exec_err))
	assert.Equal(t, int64(500), exec_err.Entry)

	assert.False(t, count.IsFinalized())
	assert.False(t, total.IsFinalized())

	fail = false
	value, err := count.Get(ctx)
	assert.NoError(t, err)
	assert.Equal(t, uint64(500), value)

	total_value, err := total.Get(ctx)
	assert.NoError(t, err)
	assert.Equal(t, uint64(1000), total_value)
}

func TestCancelledRun(t *testing.T) {
	df := makeLargeFrame(t)
	count := df.Count()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := count.Get(ctx)
	assert.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, count.IsFinalized())

	// A fresh context completes the pass.
	value, err := count.Get(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, uint64(1000), value)
}

type countingThrottler struct {
	mu    sync.Mutex
	calls int
}

func (self *countingThrottler) ChargeOp() {
	self.mu.Lock()
	defer self.mu.Unlock()

	self.calls++
}

func (self *countingThrottler) Close() {}

// The throttler is charged once per entry whatever the fork layout.
func TestThrottler(t *testing.T) {
	df := makeTestFrame(t)
	ctx := context.Background()

	throttler := &countingThrottler{}
	count := df.Count()

	value, err := count.Get(ctx, Workers(2), BlockSize(5),
		WithThrottler(throttler))
	assert.NoError(t, err)
	assert.Equal(t, uint64(20), value)
	assert.Equal(t, 20, throttler.calls)
}

// Cell reads are cached per entry, so a pass only fetches the values
// it actually needs.
func TestScanStats(t *testing.T) {
	df := makeTestFrame(t)
	ctx := context.Background()

	evens, err := df.Where("b1 % 2 == 0")
	assert.NoError(t, err)
	mean, err := evens.Mean("b2")
	assert.NoError(t, err)

	_, err = mean.Get(ctx)
	assert.NoError(t, err)

	snapshot := df.Stats()

	scanned, _ := snapshot.Get("EntriesScanned")
	assert.Equal(t, uint64(20), scanned)

	predicates, _ := snapshot.Get("PredicatesEvaluated")
	assert.Equal(t, uint64(20), predicates)

	// b1 is read for every entry, b2 only for the ten which pass.
	values_read, _ := snapshot.Get("ValuesRead")
	assert.Equal(t, uint64(30), values_read)
}
