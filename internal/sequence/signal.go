package sequence

// RenderMode hints how a signal should be drawn and which downsampling
// policy family applies.
type RenderMode int

const (
	// ModeContinuous draws straight lines between samples.
	ModeContinuous RenderMode = iota

	// ModeStepped holds each value until the next sample (discrete traces).
	ModeStepped

	// ModeEnum is a stepped trace over enumerated codes with labels.
	ModeEnum
)

// String returns the mode name used in flags, logs, and the dashboard.
func (m RenderMode) String() string {
	switch m {
	case ModeContinuous:
		return "continuous"
	case ModeStepped:
		return "stepped"
	case ModeEnum:
		return "enum"
	default:
		return "unknown"
	}
}

// Signal pairs a time sequence with a value sequence.
//
// The two sequences may be appended out of lockstep by the producer;
// ProcessedLen is the authoritative length for every consumer.
type Signal struct {
	ID    string
	Label string
	Unit  string
	Mode  RenderMode

	Time  Sequence
	Value Sequence
}

// ProcessedLen returns min(time length, value length), the number of
// complete (time, value) pairs available right now.
func (s *Signal) ProcessedLen() int {
	tl := s.Time.Len()
	vl := s.Value.Len()
	if tl < vl {
		return tl
	}
	return vl
}
