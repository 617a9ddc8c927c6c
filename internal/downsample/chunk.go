// Package downsample turns unbounded, live-appending signals into bounded,
// visually faithful point sets.
//
// Each downsampler is a resumable state machine: Advance() consumes newly
// available source samples, writes at most maxPoints+1 output points into its
// chunk buffer, and reports whether more output is pending and whether the
// previously emitted trailing point must be retracted before the new chunk
// is integrated. State survives across calls, so a growing source is never
// re-scanned from index 0.
package downsample

import "fmt"

// SplitTime splits a float64 time into a (high, low) float32 pair.
//
// GPU pipelines are single precision; on long traces the absolute time value
// eats all the mantissa and positions jitter at high zoom. Shaders subtract
// a similarly split reference offset high-from-high and low-from-low, which
// recovers the sub-pixel residue. This is a correctness requirement, not an
// optimization.
func SplitTime(t float64) (high, low float32) {
	high = float32(t)
	low = float32(t - float64(high))
	return high, low
}

// ChunkBuffer is a reusable, fixed-capacity holder of output points stored
// as matched (timeHigh, timeLow, value) float32 triples, laid out as three
// parallel slices ready for upload.
//
// Capacity is maxPoints+1: the extra slot holds the provisional trailing
// point a downsampler appends after its commit loop has already produced a
// full chunk.
type ChunkBuffer struct {
	maxPoints int
	timeHigh  []float32
	timeLow   []float32
	value     []float32
}

// NewChunkBuffer creates a chunk buffer holding up to maxPoints+1 points.
func NewChunkBuffer(maxPoints int) *ChunkBuffer {
	if maxPoints < 1 {
		panic(fmt.Sprintf("downsample: maxPoints must be >= 1, got %d", maxPoints))
	}
	capacity := maxPoints + 1
	return &ChunkBuffer{
		maxPoints: maxPoints,
		timeHigh:  make([]float32, 0, capacity),
		timeLow:   make([]float32, 0, capacity),
		value:     make([]float32, 0, capacity),
	}
}

// Append splits t and appends one (timeHigh, timeLow, value) triple.
// Panics when the buffer is full; the downsamplers bound their commit loops
// so this only fires on a broken invariant.
func (c *ChunkBuffer) Append(t, v float64) {
	if len(c.timeHigh) >= c.maxPoints+1 {
		panic(fmt.Sprintf("downsample: chunk buffer overflow (cap %d)", c.maxPoints+1))
	}
	high, low := SplitTime(t)
	c.timeHigh = append(c.timeHigh, high)
	c.timeLow = append(c.timeLow, low)
	c.value = append(c.value, float32(v))
}

// Len returns the number of points currently held.
func (c *ChunkBuffer) Len() int { return len(c.timeHigh) }

// MaxPoints returns the commit-loop bound (capacity minus the slack slot).
func (c *ChunkBuffer) MaxPoints() int { return c.maxPoints }

// Reset logically empties the buffer, retaining capacity.
func (c *ChunkBuffer) Reset() {
	c.timeHigh = c.timeHigh[:0]
	c.timeLow = c.timeLow[:0]
	c.value = c.value[:0]
}

// TimeHigh returns the high float32 time components for upload.
func (c *ChunkBuffer) TimeHigh() []float32 { return c.timeHigh }

// TimeLow returns the low float32 time components for upload.
func (c *ChunkBuffer) TimeLow() []float32 { return c.timeLow }

// Values returns the float32 values for upload.
func (c *ChunkBuffer) Values() []float32 { return c.value }

// TimeAt recombines the split time at index i.
func (c *ChunkBuffer) TimeAt(i int) float64 {
	return float64(c.timeHigh[i]) + float64(c.timeLow[i])
}

// ValueAt returns the value at index i.
func (c *ChunkBuffer) ValueAt(i int) float64 { return float64(c.value[i]) }
