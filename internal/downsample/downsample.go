package downsample

import (
	"fmt"
	"strings"

	"github.com/tracescope/tracescope/internal/sequence"
)

// Result reports the outcome of one Advance step.
type Result struct {
	// HasMore means output beyond this chunk is already pending for the
	// current source length. The caller must drain it (keep calling
	// Advance) before treating the signal as caught up.
	HasMore bool

	// OverwriteNext marks the last point of this chunk as provisional:
	// it stands for "the value as of the end of available data" and must
	// be replaced, not appended after, when the next non-empty chunk is
	// integrated. The consumer applies it by decrementing its committed
	// length by one before that integration.
	OverwriteNext bool
}

// Downsampler is a resumable reduction from a growing signal to a bounded
// point set. One instance exists per (signal, policy) pair; instances are
// recreated when the policy changes or the source is swapped, never
// converted in place.
//
// Advance leaves newly produced points in Chunk(). Calling Advance again
// after a terminal HasMore=false with no source growth is legal and yields
// an empty chunk.
type Downsampler interface {
	Advance() Result
	Chunk() *ChunkBuffer
}

// Policy selects a downsampling configuration.
type Policy int

const (
	// PolicyOff disables simplification: raw passthrough with chunking.
	PolicyOff Policy = iota

	// PolicyAggressive drops everything within a gradient delta of 1.
	PolicyAggressive

	// PolicyNormal drops everything within a gradient delta of 0.1.
	PolicyNormal

	// PolicyLossless keeps every genuine slope change (threshold 0).
	PolicyLossless
)

// ParsePolicy parses the policy names exposed on the config surface.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(s) {
	case "off":
		return PolicyOff, nil
	case "aggressive":
		return PolicyAggressive, nil
	case "normal":
		return PolicyNormal, nil
	case "lossless":
		return PolicyLossless, nil
	default:
		return PolicyOff, fmt.Errorf("unknown policy %q (want off, aggressive, normal, or lossless)", s)
	}
}

// String returns the config-surface name of the policy.
func (p Policy) String() string {
	switch p {
	case PolicyOff:
		return "off"
	case PolicyAggressive:
		return "aggressive"
	case PolicyNormal:
		return "normal"
	case PolicyLossless:
		return "lossless"
	default:
		return "unknown"
	}
}

// Threshold returns the gradient threshold the policy maps to.
func (p Policy) Threshold() float64 {
	switch p {
	case PolicyAggressive:
		return 1.0
	case PolicyNormal:
		return 0.1
	default:
		return 0
	}
}

// New creates the downsampler for a signal under the given policy.
// Enumerated signals get run-length compression unless downsampling is off;
// everything else gets gradient simplification or raw passthrough.
func New(sig *sequence.Signal, policy Policy, maxPoints int) Downsampler {
	if policy == PolicyOff {
		return NewRaw(sig, maxPoints)
	}
	if sig.Mode == sequence.ModeEnum {
		return NewEnum(sig, maxPoints)
	}
	return NewGradient(sig, policy.Threshold(), maxPoints)
}
