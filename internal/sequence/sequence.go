// Package sequence provides append-only numeric sample storage for tracescope.
//
// A Sequence is one axis (time or value) of a signal. Producers append,
// the downsampling pipeline reads by index. Historical samples never change:
// once ValueAt(i) has been observed for i < Len(), it stays the same forever.
// Len() itself may grow between calls while a producer is live, so consumers
// must re-query it rather than caching.
package sequence

import (
	"fmt"
	"math"
	"sync"
)

// Sequence is a randomly indexable, append-only source of float64 samples.
//
// Len must be queried fresh on every access; a live producer may have
// appended since the last call. ValueAt is defined for 0 <= i < Len();
// out-of-range access is a programming error and panics.
type Sequence interface {
	Len() int
	Min() float64
	Max() float64
	ValueAt(i int) float64
}

// Converted is implemented by sequences whose raw samples map to a display
// representation (enum labels, unit conversions). Consumers that deduplicate
// on value equality must compare converted values when available, because
// two distinct raw codes may render as the same label.
type Converted interface {
	ConvertedValueAt(i int) string
}

// Appender is the producer-side write interface.
type Appender interface {
	Push(v float64)
}

// Slice is a slice-backed Sequence with running min/max.
//
// Push is safe to call across frame boundaries while the pipeline reads;
// a short mutex protects the backing slice.
type Slice struct {
	mu       sync.RWMutex
	samples  []float64
	min, max float64
}

// NewSlice creates an empty sequence.
func NewSlice() *Slice {
	return &Slice{
		min: math.Inf(1),
		max: math.Inf(-1),
	}
}

// FromValues creates a sequence pre-filled with the given samples.
// Useful for tests and file loaders that decode in one pass.
func FromValues(values ...float64) *Slice {
	s := NewSlice()
	for _, v := range values {
		s.Push(v)
	}
	return s
}

// Push appends one sample and updates the running extrema.
func (s *Slice) Push(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples = append(s.samples, v)
	if v < s.min {
		s.min = v
	}
	if v > s.max {
		s.max = v
	}
}

// Len returns the current sample count. Grows monotonically.
func (s *Slice) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.samples)
}

// Min returns the smallest sample ever appended (+Inf when empty).
func (s *Slice) Min() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.min
}

// Max returns the largest sample ever appended (-Inf when empty).
func (s *Slice) Max() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.max
}

// ValueAt returns the sample at index i.
// Panics on out-of-range access: that is a broken invariant upstream, and
// continuing would silently corrupt the rendered trace.
func (s *Slice) ValueAt(i int) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.samples) {
		panic(fmt.Sprintf("sequence: index %d out of range [0,%d)", i, len(s.samples)))
	}
	return s.samples[i]
}
