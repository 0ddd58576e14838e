package benchmarks

import (
	"context"
	"testing"

	"github.com/Velocidex/ordereddict"
	"github.com/alecthomas/assert"
	"www.velocidex.com/golang/dataframe"
	"www.velocidex.com/golang/dataframe/dataset"
)

const benchmark_entries = 100000

var benchmark_reader *dataset.InMemory

// The dataset is shared between benchmarks - building it is not what
// we are measuring.
func makeReader(b *testing.B) *dataset.InMemory {
	if benchmark_reader == nil {
		values := make([]int64, 0, benchmark_entries)
		weights := make([]float64, 0, benchmark_entries)
		for i := 0; i < benchmark_entries; i++ {
			values = append(values, int64(i))
			weights = append(weights, float64(i)*0.5)
		}

		reader, err := dataset.FromColumns(ordereddict.NewDict().
			Set("value", values).
			Set("weight", weights))
		assert.NoError(b, err, "Failed to build dataset: %v", err)
		benchmark_reader = reader
	}

	return benchmark_reader
}

func runCount(b *testing.B, options ...dataframe.RunOption) {
	df, err := dataframe.NewDataFrame(makeReader(b))
	assert.NoError(b, err)

	filtered, err := df.Where("value % 3 == 0")
	assert.NoError(b, err)

	count := filtered.Count()
	n, err := count.Get(context.Background(), options...)
	assert.NoError(b, err)
	assert.Equal(b, uint64(33334), n)
}

// One pass serving several reductions at once.
func runSharedPass(b *testing.B, options ...dataframe.RunOption) {
	df, err := dataframe.NewDataFrame(makeReader(b))
	assert.NoError(b, err)

	filtered, err := df.Where("value % 2 == 0")
	assert.NoError(b, err)

	count := filtered.Count()
	mean, err := filtered.Mean("weight")
	assert.NoError(b, err)
	max, err := df.Max("weight")
	assert.NoError(b, err)

	err = df.Run(context.Background(), options...)
	assert.NoError(b, err)

	_, err = count.Get(context.Background())
	assert.NoError(b, err)
	_, err = mean.Get(context.Background())
	assert.NoError(b, err)
	_, err = max.Get(context.Background())
	assert.NoError(b, err)
}

func BenchmarkCount100k(b *testing.B) {
	makeReader(b)
	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		runCount(b)
	}
}

func BenchmarkCount100kWithWorkers(b *testing.B) {
	makeReader(b)
	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		runCount(b, dataframe.Workers(8))
	}
}

func BenchmarkSharedPass100k(b *testing.B) {
	makeReader(b)
	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		runSharedPass(b)
	}
}

func BenchmarkSharedPass100kWithWorkers(b *testing.B) {
	makeReader(b)
	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		runSharedPass(b, dataframe.Workers(8))
	}
}

// The callback form of the same filter, to measure the expression
// evaluator overhead.
func BenchmarkCallbackCount100k(b *testing.B) {
	makeReader(b)
	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		df, err := dataframe.NewDataFrame(makeReader(b))
		assert.NoError(b, err)

		filtered, err := df.Filter(func(values ...dataframe.Any) (bool, error) {
			return values[0].(int64)%3 == 0, nil
		}, "value")
		assert.NoError(b, err)

		count := filtered.Count()
		n, err := count.Get(context.Background())
		assert.NoError(b, err)
		assert.Equal(b, uint64(33334), n)
	}
}
