package downsample

import (
	"strconv"

	"github.com/tracescope/tracescope/internal/sequence"
)

// Enum is the run-length downsampler for discrete/enumerated signals.
//
// It commits a point only when the display value changes (a transition);
// equal consecutive values coalesce into one run no matter how many raw
// samples they span. When the input is drained it appends a provisional
// point at the newest time so the "current state extends to now" segment
// keeps growing without a confirmed transition.
type Enum struct {
	signal *sequence.Signal
	chunk  *ChunkBuffer

	// conv is consulted before the raw value: two distinct raw codes that
	// render as the same label belong to the same run.
	conv sequence.Converted

	cursor        int
	started       bool
	lastKey       string
	lastSeenTime  float64
	lastSeenValue float64
}

// NewEnum creates an enum run-length downsampler over sig.
func NewEnum(sig *sequence.Signal, maxPoints int) *Enum {
	conv, _ := sig.Value.(sequence.Converted)
	return &Enum{
		signal: sig,
		chunk:  NewChunkBuffer(maxPoints),
		conv:   conv,
	}
}

// Chunk returns the output buffer of the most recent Advance.
func (e *Enum) Chunk() *ChunkBuffer { return e.chunk }

// Advance consumes newly available samples and commits transitions.
func (e *Enum) Advance() Result {
	e.chunk.Reset()

	n := e.signal.ProcessedLen()
	progressed := false

	for e.cursor < n && e.chunk.Len() < e.chunk.MaxPoints() {
		t := e.signal.Time.ValueAt(e.cursor)
		v := e.signal.Value.ValueAt(e.cursor)
		key := e.keyAt(e.cursor, v)
		e.cursor++
		progressed = true

		if !e.started || key != e.lastKey {
			e.chunk.Append(t, v)
			e.started = true
			e.lastKey = key
		}
		e.lastSeenTime, e.lastSeenValue = t, v
	}

	if e.cursor < n {
		return Result{HasMore: true}
	}
	if !progressed || !e.started {
		return Result{}
	}

	// Input drained: extend the current run to the newest sample. The tail
	// is retracted and re-emitted further right as time passes.
	e.chunk.Append(e.lastSeenTime, e.lastSeenValue)
	return Result{OverwriteNext: true}
}

// keyAt returns the run identity of sample i: the converted display value
// when available, the exact raw value otherwise.
func (e *Enum) keyAt(i int, raw float64) string {
	if e.conv != nil {
		return e.conv.ConvertedValueAt(i)
	}
	return strconv.FormatFloat(raw, 'g', -1, 64)
}
