package downsample

import (
	"math"

	"github.com/tracescope/tracescope/internal/sequence"
)

// Gradient is a causal, online line simplifier.
//
// It keeps the last examined sample and the gradient of the last committed
// edge. A sample is only committed once the slope into its successor differs
// from that gradient by more than the threshold; samples on the same
// approximate line are skipped. When the input is drained the newest sample
// is emitted provisionally: a future sample may continue the trend, in which
// case the point is retracted instead of surviving as a kink.
type Gradient struct {
	signal    *sequence.Signal
	chunk     *ChunkBuffer
	threshold float64

	cursor       int
	haveLast     bool
	lastTime     float64
	lastValue    float64
	lastGradient float64

	// lastConfirmed marks the held sample as already emitted without
	// OverwriteNext (only the single-sample case). It must not be
	// re-emitted on the next gradient break.
	lastConfirmed bool
}

// NewGradient creates a gradient downsampler with the given threshold.
// A threshold of 0 keeps every genuine slope change (lossless).
func NewGradient(sig *sequence.Signal, threshold float64, maxPoints int) *Gradient {
	return &Gradient{
		signal:    sig,
		chunk:     NewChunkBuffer(maxPoints),
		threshold: threshold,
	}
}

// Chunk returns the output buffer of the most recent Advance.
func (g *Gradient) Chunk() *ChunkBuffer { return g.chunk }

// Advance consumes newly available samples and commits slope changes.
func (g *Gradient) Advance() Result {
	g.chunk.Reset()

	n := g.signal.ProcessedLen()
	progressed := false

	for g.cursor < n && g.chunk.Len() < g.chunk.MaxPoints() {
		t := g.signal.Time.ValueAt(g.cursor)
		v := g.signal.Value.ValueAt(g.cursor)
		g.cursor++
		progressed = true

		if !g.haveLast {
			// lastGradient starts at +Inf so the first sample commits
			// unconditionally on the first comparison.
			g.haveLast = true
			g.lastTime, g.lastValue = t, v
			g.lastGradient = math.Inf(1)
			continue
		}

		grad := gradientBetween(g.lastTime, g.lastValue, t, v)
		if math.Abs(grad-g.lastGradient) > g.threshold {
			if !g.lastConfirmed {
				g.chunk.Append(g.lastTime, g.lastValue)
			}
			g.lastGradient = grad
		}
		g.lastConfirmed = false
		g.lastTime, g.lastValue = t, v
	}

	if g.cursor < n {
		// Chunk full mid-input: no trailing point yet, more chunks pending.
		return Result{HasMore: true}
	}
	if !progressed || !g.haveLast {
		// Empty source, or a repeat call with no growth: no-op chunk.
		return Result{}
	}
	if g.cursor == 1 {
		// Single-sample source: emit exactly that sample, never retracted.
		g.chunk.Append(g.lastTime, g.lastValue)
		g.lastConfirmed = true
		return Result{}
	}

	// The trend may still continue past the newest sample, so the tail is
	// provisional. The slack slot guarantees room even after a full commit
	// loop.
	g.chunk.Append(g.lastTime, g.lastValue)
	return Result{OverwriteNext: true}
}

// gradientBetween returns the slope of the edge (t0,v0)→(t1,v1).
// A zero time delta is a vertical step and always breaks the trend.
func gradientBetween(t0, v0, t1, v1 float64) float64 {
	dt := t1 - t0
	if dt == 0 {
		return math.Inf(1)
	}
	return (v1 - v0) / dt
}
