package downsample

import (
	"math"
	"testing"

	"github.com/tracescope/tracescope/internal/sequence"
)

func TestGradient_SpikeIsPreserved(t *testing.T) {
	// A flat-spike-flat shape: every corner is a slope change and must
	// survive even the aggressive threshold.
	sig := makeSignal(
		[]float64{0, 1, 2, 3, 4},
		[]float64{0, 0, 10, 0, 0},
	)
	g := NewGradient(sig, 1.0, 16)

	res := g.Advance()
	chunk := g.Chunk()

	want := []point{{0, 0}, {1, 0}, {2, 10}, {3, 0}, {4, 0}}
	if chunk.Len() != len(want) {
		t.Fatalf("chunk len = %d, want %d", chunk.Len(), len(want))
	}
	for i, w := range want {
		if chunk.TimeAt(i) != w.t || chunk.ValueAt(i) != w.v {
			t.Errorf("point %d = (%v, %v), want (%v, %v)",
				i, chunk.TimeAt(i), chunk.ValueAt(i), w.t, w.v)
		}
	}
	if !res.OverwriteNext {
		t.Error("trailing point should be provisional")
	}
	if res.HasMore {
		t.Error("drained input should not report more")
	}
}

func TestGradient_FlatLineCollapses(t *testing.T) {
	sig := makeSignal(
		[]float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9},
		[]float64{5, 5, 5, 5, 5, 5, 5, 5, 5, 5},
	)
	g := NewGradient(sig, 0.1, 16)

	res := g.Advance()
	chunk := g.Chunk()

	// First sample plus the provisional tail, nothing in between.
	if chunk.Len() != 2 {
		t.Fatalf("chunk len = %d, want 2", chunk.Len())
	}
	if chunk.TimeAt(0) != 0 || chunk.TimeAt(1) != 9 {
		t.Errorf("points at t=%v,%v, want 0,9", chunk.TimeAt(0), chunk.TimeAt(1))
	}
	if !res.OverwriteNext {
		t.Error("trailing point should be provisional")
	}
}

func TestGradient_CollinearPointsDropped(t *testing.T) {
	// A perfect line: interior samples carry no shape information.
	n := 20
	times := make([]float64, n)
	values := make([]float64, n)
	for i := 0; i < n; i++ {
		times[i] = float64(i)
		values[i] = 2*float64(i) + 1
	}

	var c collector
	c.integrate(NewGradient(makeSignal(times, values), 0, 64))

	if len(c.points) != 2 {
		t.Fatalf("got %d points for a straight line, want 2", len(c.points))
	}

	// Linear interpolation between the two kept points reconstructs every
	// original sample.
	p0, p1 := c.points[0], c.points[1]
	for i := 0; i < n; i++ {
		frac := (times[i] - p0.t) / (p1.t - p0.t)
		recon := p0.v + frac*(p1.v-p0.v)
		if math.Abs(recon-values[i]) > 1e-4 {
			t.Errorf("sample %d: reconstructed %v, want %v", i, recon, values[i])
		}
	}
}

func TestGradient_LosslessKeepsEveryKink(t *testing.T) {
	// Piecewise linear with distinct slopes at every sample.
	sig := makeSignal(
		[]float64{0, 1, 2, 3, 4},
		[]float64{0, 1, -1, 2, 2},
	)

	var c collector
	c.integrate(NewGradient(sig, 0, 16))

	// All five survive: four kinks plus the provisional tail.
	if len(c.points) != 5 {
		t.Fatalf("got %d points, want 5", len(c.points))
	}
}

func TestGradient_ThresholdSuppressesSmallWiggle(t *testing.T) {
	// Slope alternates between 0.0 and 0.05: below the normal threshold,
	// the wiggle is noise and collapses; lossless keeps it.
	times := []float64{0, 1, 2, 3, 4, 5, 6, 7}
	values := []float64{0, 0.05, 0.05, 0.10, 0.10, 0.15, 0.15, 0.20}

	var normal collector
	normal.integrate(NewGradient(makeSignal(times, values), 0.1, 64))

	var lossless collector
	lossless.integrate(NewGradient(makeSignal(times, values), 0, 64))

	if len(normal.points) >= len(lossless.points) {
		t.Errorf("normal kept %d points, lossless %d; threshold should reduce output",
			len(normal.points), len(lossless.points))
	}
	if len(normal.points) != 2 {
		t.Errorf("normal kept %d points, want 2 (endpoints only)", len(normal.points))
	}
}

func TestGradient_SingleSample(t *testing.T) {
	sig := makeSignal([]float64{10}, []float64{3})
	g := NewGradient(sig, 0.1, 8)

	res := g.Advance()
	chunk := g.Chunk()

	if chunk.Len() != 1 {
		t.Fatalf("chunk len = %d, want 1", chunk.Len())
	}
	if chunk.TimeAt(0) != 10 || chunk.ValueAt(0) != 3 {
		t.Errorf("point = (%v, %v), want (10, 3)", chunk.TimeAt(0), chunk.ValueAt(0))
	}
	// A single sample is the whole truth so far, not a provisional trend.
	if res.OverwriteNext {
		t.Error("single-sample output must not be provisional")
	}
}

func TestGradient_SingleSampleThenGrowth(t *testing.T) {
	timeSeq := sequence.NewSlice()
	valSeq := sequence.NewSlice()
	sig := &sequence.Signal{ID: "g", Mode: sequence.ModeContinuous, Time: timeSeq, Value: valSeq}
	g := NewGradient(sig, 0.1, 8)

	timeSeq.Push(0)
	valSeq.Push(1)

	var c collector
	c.integrate(g)
	if len(c.points) != 1 {
		t.Fatalf("after single sample: %d points, want 1", len(c.points))
	}

	timeSeq.Push(1)
	valSeq.Push(2)
	timeSeq.Push(2)
	valSeq.Push(3)
	c.integrate(g)

	// The first sample must not be committed twice.
	count := 0
	for _, p := range c.points {
		if p.t == 0 {
			count++
		}
	}
	if count != 1 {
		t.Errorf("sample at t=0 committed %d times, want 1", count)
	}

	// Collinear growth: only the origin and the provisional tail remain.
	if len(c.points) != 2 {
		t.Errorf("got %d points, want 2", len(c.points))
	}
	last := c.points[len(c.points)-1]
	if last.t != 2 || last.v != 3 {
		t.Errorf("tail = (%v, %v), want (2, 3)", last.t, last.v)
	}
}

func TestGradient_VerticalStepBreaksTrend(t *testing.T) {
	// Two samples at the same time: slope is undefined (vertical) and
	// must always commit regardless of threshold.
	sig := makeSignal(
		[]float64{0, 1, 1, 2},
		[]float64{0, 1, 5, 6},
	)

	var c collector
	c.integrate(NewGradient(sig, 1e9, 16)) // huge threshold

	// The vertical edge forces a commit at (1,1) even though every finite
	// slope difference is below threshold.
	found := false
	for _, p := range c.points {
		if p.t == 1 && p.v == 1 {
			found = true
		}
	}
	if !found {
		t.Errorf("vertical step not committed; points = %v", c.points)
	}
}

func TestGradient_ProvisionalTailRetractedOnTrendContinuation(t *testing.T) {
	timeSeq := sequence.NewSlice()
	valSeq := sequence.NewSlice()
	sig := &sequence.Signal{ID: "g", Mode: sequence.ModeContinuous, Time: timeSeq, Value: valSeq}
	g := NewGradient(sig, 0.1, 8)

	// Phase 1: a line up to t=3.
	for i := 0; i <= 3; i++ {
		timeSeq.Push(float64(i))
		valSeq.Push(float64(i))
	}
	var c collector
	c.integrate(g)

	if last := c.points[len(c.points)-1]; last.t != 3 {
		t.Fatalf("tail at t=%v, want 3", last.t)
	}
	tailCount := len(c.points)

	// Phase 2: the same line continues; the old tail is a non-kink and
	// must vanish, replaced by the new tail.
	for i := 4; i <= 6; i++ {
		timeSeq.Push(float64(i))
		valSeq.Push(float64(i))
	}
	c.integrate(g)

	if len(c.points) != tailCount {
		t.Errorf("point count changed %d -> %d; tail should be replaced, not appended",
			tailCount, len(c.points))
	}
	for _, p := range c.points {
		if p.t == 3 {
			t.Errorf("retracted tail at t=3 still present: %v", c.points)
		}
	}
	if last := c.points[len(c.points)-1]; last.t != 6 {
		t.Errorf("new tail at t=%v, want 6", last.t)
	}
}
