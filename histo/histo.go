/*

Package histo implements the one dimensional histograms produced by
the DataFrame Histo action.

A histogram built with an explicit Range() fills directly into its
bins. Without a range the histogram buffers every value and derives
the axis when it is finalized, so the binning depends only on the
data seen and never on how a scan was partitioned between workers.
The cost is that an unranged histogram holds all its values in memory
until finalized - callers with very large filtered datasets should
pass Range() explicitly.

Histograms are not safe for concurrent filling. The scan engine gives
each worker block a private histogram and merges them afterwards.

*/
package histo

import (
	"fmt"
	"math"
	"strings"

	errors "github.com/pkg/errors"
)

const default_bins = 64

type Option func(*Histogram)

// Bins sets the number of bins. The default is 64.
func Bins(n int) Option {
	return func(self *Histogram) {
		if n > 0 {
			self.nbins = n
		}
	}
}

// Range fixes the axis to [min, max]. Values on the upper edge land
// in the last bin, values outside the range are counted as underflow
// or overflow and excluded from the moments.
func Range(min, max float64) Option {
	return func(self *Histogram) {
		self.xmin = min
		self.xmax = max
		self.has_axis = true
	}
}

type Histogram struct {
	nbins    int
	xmin     float64
	xmax     float64
	has_axis bool

	bins      []uint64
	underflow uint64
	overflow  uint64

	// Moments over in range values.
	in_range uint64
	sum      float64
	sum_sq   float64

	// All Fill calls, in range or not.
	entries uint64

	// Values held until the axis is known.
	buffer []float64
}

func New(options ...Option) *Histogram {
	result := &Histogram{
		nbins: default_bins,
	}

	for _, option := range options {
		option(result)
	}

	if result.has_axis {
		if result.xmax < result.xmin {
			result.xmin, result.xmax = result.xmax, result.xmin
		}
		result.bins = make([]uint64, result.nbins)
	}

	return result
}

// Fill records one value. Values the axis can not place - out of
// range, infinite or NaN - count as underflow or overflow and stay
// out of the moments.
func (self *Histogram) Fill(value float64) {
	self.entries++

	if !self.has_axis {
		self.buffer = append(self.buffer, value)
		return
	}

	self.fillAxis(value)
}

func (self *Histogram) fillAxis(value float64) {
	// NaN compares false against both edges and has no bin.
	if math.IsNaN(value) {
		self.overflow++
		return
	}
	if value < self.xmin {
		self.underflow++
		return
	}
	if value > self.xmax {
		self.overflow++
		return
	}

	idx := 0
	width := self.xmax - self.xmin
	if width > 0 {
		idx = int((value - self.xmin) / width * float64(self.nbins))
	}
	// The upper edge belongs to the last bin.
	if idx >= self.nbins {
		idx = self.nbins - 1
	}

	self.bins[idx]++
	self.in_range++
	self.sum += value
	self.sum_sq += value * value
}

// Finalize derives the axis from the buffered values and flushes
// them. Safe to call more than once.
func (self *Histogram) Finalize() {
	if self.has_axis {
		return
	}

	// Only finite values can define the axis. NaN and infinities in
	// the buffer fall into the flow counters when flushed below.
	xmin, xmax := 0.0, 1.0
	seen := false
	for _, value := range self.buffer {
		if math.IsNaN(value) || math.IsInf(value, 0) {
			continue
		}
		if !seen {
			xmin, xmax = value, value
			seen = true
			continue
		}
		if value < xmin {
			xmin = value
		}
		if value > xmax {
			xmax = value
		}
	}
	if seen && xmin == xmax {
		xmin -= 0.5
		xmax += 0.5
	}

	self.xmin = xmin
	self.xmax = xmax
	self.has_axis = true
	self.bins = make([]uint64, self.nbins)

	buffer := self.buffer
	self.buffer = nil
	for _, value := range buffer {
		self.fillAxis(value)
	}
}

// Merge folds other into self. Buffered histograms merge by
// concatenating their buffers so the eventual axis still covers all
// values. Finalized histograms must share the same axis.
func (self *Histogram) Merge(other *Histogram) error {
	if self.nbins != other.nbins {
		return errors.Errorf(
			"histogram merge: bin counts differ (%v vs %v)",
			self.nbins, other.nbins)
	}

	self.entries += other.entries

	if !self.has_axis && !other.has_axis {
		self.buffer = append(self.buffer, other.buffer...)
		return nil
	}

	if self.has_axis && !other.has_axis {
		for _, value := range other.buffer {
			self.fillAxis(value)
		}
		return nil
	}

	if !self.has_axis {
		// Adopt the axis of the finalized side, then flush our
		// buffer into it.
		buffer := self.buffer
		self.buffer = nil
		self.xmin = other.xmin
		self.xmax = other.xmax
		self.has_axis = true
		self.bins = make([]uint64, self.nbins)
		for _, value := range buffer {
			self.fillAxis(value)
		}
	}

	if self.xmin != other.xmin || self.xmax != other.xmax {
		return errors.Errorf(
			"histogram merge: axes differ ([%v, %v] vs [%v, %v])",
			self.xmin, self.xmax, other.xmin, other.xmax)
	}

	for i, count := range other.bins {
		self.bins[i] += count
	}
	self.underflow += other.underflow
	self.overflow += other.overflow
	self.in_range += other.in_range
	self.sum += other.sum
	self.sum_sq += other.sum_sq

	return nil
}

// Entries counts every Fill call, including out of range values.
func (self *Histogram) Entries() uint64 {
	return self.entries
}

// Mean of the in range values. Zero for an empty histogram.
func (self *Histogram) Mean() float64 {
	self.Finalize()
	if self.in_range == 0 {
		return 0
	}
	return self.sum / float64(self.in_range)
}

func (self *Histogram) StdDev() float64 {
	self.Finalize()
	if self.in_range == 0 {
		return 0
	}

	mean := self.sum / float64(self.in_range)
	variance := self.sum_sq/float64(self.in_range) - mean*mean
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}

func (self *Histogram) NBins() int {
	return self.nbins
}

func (self *Histogram) BinContent(i int) uint64 {
	self.Finalize()
	if i < 0 || i >= self.nbins {
		return 0
	}
	return self.bins[i]
}

func (self *Histogram) BinWidth() float64 {
	self.Finalize()
	return (self.xmax - self.xmin) / float64(self.nbins)
}

func (self *Histogram) BinLowEdge(i int) float64 {
	self.Finalize()
	return self.xmin + self.BinWidth()*float64(i)
}

func (self *Histogram) Underflow() uint64 {
	return self.underflow
}

func (self *Histogram) Overflow() uint64 {
	return self.overflow
}

func (self *Histogram) String() string {
	self.Finalize()
	return fmt.Sprintf("Histogram{entries: %v, bins: %v, range: [%v, %v]}",
		self.entries, self.nbins, self.xmin, self.xmax)
}

// Render draws a simple horizontal bar chart. Useful for quick looks
// from a terminal.
func (self *Histogram) Render(width int) string {
	self.Finalize()
	if width <= 0 {
		width = 40
	}

	max_count := uint64(1)
	for _, count := range self.bins {
		if count > max_count {
			max_count = count
		}
	}

	result := &strings.Builder{}
	for i, count := range self.bins {
		bar := int(float64(width) * float64(count) / float64(max_count))
		fmt.Fprintf(result, "%10.4g | %-*s %v\n",
			self.BinLowEdge(i), width, strings.Repeat("*", bar), count)
	}
	return result.String()
}
