package stream

import (
	"fmt"

	"github.com/tracescope/tracescope/internal/device"
	"github.com/tracescope/tracescope/internal/downsample"
	"github.com/tracescope/tracescope/internal/sequence"
)

// Stream is the buffer stream controller for one signal.
//
// Each frame the scheduler calls Pump, which drains chunks from the
// downsampler into the device buffer triple, honoring the overwrite
// protocol: a chunk whose predecessor ended with a provisional point first
// retracts that point by decrementing the committed length.
//
// A Stream is single-owner and not safe for concurrent use; the pipeline is
// cooperative and frame-driven.
type Stream struct {
	signal *sequence.Signal
	ds     downsample.Downsampler
	dev    device.Device
	triple Triple

	pendingOverwrite bool
	failed           error
	closed           bool

	// Counters for metrics and the dashboard.
	chunks      uint64
	retractions uint64
	grows       uint64
	slotsSent   uint64
}

// New creates a stream for sig under the given policy.
func New(sig *sequence.Signal, policy downsample.Policy, maxPoints int, dev device.Device) *Stream {
	return &Stream{
		signal: sig,
		ds:     downsample.New(sig, policy, maxPoints),
		dev:    dev,
	}
}

// Signal returns the signal this stream renders.
func (s *Stream) Signal() *sequence.Signal { return s.signal }

// Pump drains available downsampler output into the device buffers.
//
// keepGoing is consulted between chunks; when it returns false the pump
// stops and reports more=true so the caller re-requests a render next
// frame. A nil keepGoing drains everything available.
//
// A failed stream (device allocation error) keeps returning its error and
// does no further work. Pumping a closed stream is a contract violation and
// panics.
func (s *Stream) Pump(keepGoing func() bool) (more bool, err error) {
	if s.closed {
		panic("stream: pump on closed stream")
	}
	if s.failed != nil {
		return false, s.failed
	}

	// Snapshot the source length once per pass; the producer may append
	// again before the next frame. The +1 covers the provisional tail,
	// which briefly coexists with a point per source sample.
	required := s.signal.ProcessedLen() + 1
	if err := s.ensure(required); err != nil {
		return false, err
	}

	for {
		res := s.ds.Advance()
		chunk := s.ds.Chunk()

		if chunk.Len() > 0 {
			if s.pendingOverwrite {
				// Retract the provisional tail before integrating.
				s.triple.length--
				s.retractions++
				s.pendingOverwrite = false
			}
			if err := s.ensure(s.triple.length + chunk.Len()); err != nil {
				return false, err
			}
			if err := s.triple.Upload(s.dev, chunk); err != nil {
				s.failed = err
				return false, err
			}
			s.chunks++
			s.slotsSent += uint64(chunk.Len() * 3)
			s.pendingOverwrite = res.OverwriteNext
		}

		if !res.HasMore {
			return false, nil
		}
		if keepGoing != nil && !keepGoing() {
			return true, nil
		}
	}
}

// ensure grows the triple, recording failures as terminal.
func (s *Stream) ensure(required int) error {
	grew, err := s.triple.EnsureCapacity(s.dev, required)
	if err != nil {
		s.failed = fmt.Errorf("stream %q: %w", s.signal.ID, err)
		return s.failed
	}
	if grew {
		s.grows++
	}
	return nil
}

// Close releases the device buffers. The stream must not be pumped again.
func (s *Stream) Close() {
	if s.closed {
		return
	}
	s.triple.release(s.dev)
	s.closed = true
}

// Failed returns the terminal error, if any.
func (s *Stream) Failed() error { return s.failed }

// Triple exposes the device buffer triple for draw calls.
func (s *Stream) Triple() *Triple { return &s.triple }

// Stats is a snapshot of the stream's counters for metrics and the TUI.
type Stats struct {
	SignalID    string
	Mode        string
	SourceLen   int
	Committed   int
	Capacity    int
	Chunks      uint64
	Retractions uint64
	Grows       uint64
	SlotsSent   uint64
	Failed      bool
}

// Snapshot returns current counters.
func (s *Stream) Snapshot() Stats {
	return Stats{
		SignalID:    s.signal.ID,
		Mode:        s.signal.Mode.String(),
		SourceLen:   s.signal.ProcessedLen(),
		Committed:   s.triple.length,
		Capacity:    s.triple.capacity,
		Chunks:      s.chunks,
		Retractions: s.retractions,
		Grows:       s.grows,
		SlotsSent:   s.slotsSent,
		Failed:      s.failed != nil,
	}
}
