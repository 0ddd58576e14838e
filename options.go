package dataframe

import (
	"www.velocidex.com/golang/dataframe/types"
)

// Blocks smaller than this are not worth the accumulator and
// scheduling overhead.
const minBlockSize = 1024

// Execution parameters for a single scan pass. Parallelism is chosen
// per run rather than through any global switch, so two frames over
// the same dataset can run with different worker counts.
type runOptions struct {
	workers    int
	block_size int64
	throttler  types.Throttler
}

type RunOption func(*runOptions)

// Workers sets how many blocks are scanned concurrently. The default
// is 1 which makes the pass strictly sequential.
func Workers(n int) RunOption {
	return func(self *runOptions) {
		if n > 0 {
			self.workers = n
		}
	}
}

// BlockSize overrides the derived block size. Mostly useful in tests
// and benchmarks - the default sizing gives each worker several
// blocks to smooth out unevenly filtered regions.
func BlockSize(n int64) RunOption {
	return func(self *runOptions) {
		if n > 0 {
			self.block_size = n
		}
	}
}

// WithThrottler charges one op per entry scanned to the throttler,
// slowing the pass down. The throttler is shared by all workers.
func WithThrottler(throttler types.Throttler) RunOption {
	return func(self *runOptions) {
		self.throttler = throttler
	}
}

func getRunOptions(options []RunOption) *runOptions {
	result := &runOptions{
		workers: 1,
	}

	for _, option := range options {
		option(result)
	}

	return result
}

// Carve [0, count) into contiguous blocks. Results are merged in
// block order later so the carve only affects scheduling, never
// results.
func partitionBlocks(count int64, opts *runOptions) []block {
	if count <= 0 {
		return nil
	}

	size := opts.block_size
	if size <= 0 {
		// A sequential pass needs no partitioning at all.
		if opts.workers <= 1 {
			return []block{{start: 0, end: count}}
		}

		size = count / int64(opts.workers*4)
		if size < minBlockSize {
			size = minBlockSize
		}
	}

	result := make([]block, 0, count/size+1)
	for start := int64(0); start < count; start += size {
		end := start + size
		if end > count {
			end = count
		}
		result = append(result, block{start: start, end: end})
	}

	return result
}

type block struct {
	start int64
	end   int64
}
