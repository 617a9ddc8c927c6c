package downsample

import "github.com/tracescope/tracescope/internal/sequence"

// Raw is the passthrough downsampler: chunking only, no simplification.
// It is what PolicyOff selects, and the correctness oracle the lossy
// policies are measured against (same endpoints, never more points).
type Raw struct {
	signal *sequence.Signal
	chunk  *ChunkBuffer
	cursor int
}

// NewRaw creates a raw downsampler over sig emitting up to maxPoints per
// Advance.
func NewRaw(sig *sequence.Signal, maxPoints int) *Raw {
	return &Raw{
		signal: sig,
		chunk:  NewChunkBuffer(maxPoints),
	}
}

// Chunk returns the output buffer of the most recent Advance.
func (r *Raw) Chunk() *ChunkBuffer { return r.chunk }

// Advance copies up to maxPoints source samples in order.
// Raw output is never provisional.
func (r *Raw) Advance() Result {
	r.chunk.Reset()

	// Snapshot once; the producer may append while chunks drain.
	n := r.signal.ProcessedLen()

	for r.cursor < n && r.chunk.Len() < r.chunk.MaxPoints() {
		r.chunk.Append(r.signal.Time.ValueAt(r.cursor), r.signal.Value.ValueAt(r.cursor))
		r.cursor++
	}

	return Result{HasMore: r.cursor < n}
}
