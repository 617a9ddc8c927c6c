package schedule

import (
	"log/slog"
	"time"

	"github.com/influxdata/tdigest"
)

// Clock provides time for the scheduler; injectable for deterministic tests.
type Clock interface {
	Now() time.Time
}

// realClock uses time.Now() in production.
type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// minBudget is the floor of the per-frame work budget.
const minBudget = time.Millisecond

// FrameScheduler apportions the per-frame time budget across all live
// signals.
//
// Each frame it computes availableTime = max(1ms, targetInterval -
// fixedOverhead) and pumps signals in registry order, re-checking elapsed
// time before each one. When the budget runs out mid-pass it stops and
// reports that work is pending, so the caller re-requests a render instead
// of blocking the frame.
//
// The iteration starting index rotates every frame, so a signal early in
// registration order cannot starve later ones under sustained overload.
// Measured pump costs feed a t-digest; the p90 estimate gates whether the
// next signal is even attempted with the time left.
type FrameScheduler struct {
	registry       *Registry
	targetInterval time.Duration
	fixedOverhead  time.Duration
	clock          Clock
	logger         *slog.Logger

	start      int
	costDigest *tdigest.TDigest

	frames       uint64
	lastUsed     time.Duration
	lastPumped   int
	lastDeferred int
}

// NewFrameScheduler creates a scheduler over the registry. targetInterval
// is derived from the configured frame rate; fixedOverhead reserves time
// for the render pass itself.
func NewFrameScheduler(reg *Registry, targetInterval, fixedOverhead time.Duration, logger *slog.Logger) *FrameScheduler {
	return NewFrameSchedulerWithClock(reg, targetInterval, fixedOverhead, logger, realClock{})
}

// NewFrameSchedulerWithClock creates a scheduler with a custom clock for
// testing.
func NewFrameSchedulerWithClock(reg *Registry, targetInterval, fixedOverhead time.Duration, logger *slog.Logger, clock Clock) *FrameScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &FrameScheduler{
		registry:       reg,
		targetInterval: targetInterval,
		fixedOverhead:  fixedOverhead,
		clock:          clock,
		logger:         logger,
		costDigest:     tdigest.NewWithCompression(100),
	}
}

// Available returns the per-frame work budget.
func (s *FrameScheduler) Available() time.Duration {
	available := s.targetInterval - s.fixedOverhead
	if available < minBudget {
		available = minBudget
	}
	return available
}

// RunFrame performs one frame's worth of pipeline work.
// Returns true when work remains (budget exhausted or downsamplers still
// have chunks pending), signaling the caller to schedule another frame.
func (s *FrameScheduler) RunFrame() bool {
	frameStart := s.clock.Now()
	available := s.Available()

	ids := s.registry.IDs()
	n := len(ids)
	s.frames++
	s.lastPumped = 0
	s.lastDeferred = 0
	if n == 0 {
		s.lastUsed = 0
		return false
	}

	start := s.start % n
	s.start = (s.start + 1) % n

	morePending := false
	for i := 0; i < n; i++ {
		id := ids[(start+i)%n]
		p, ok := s.registry.Get(id)
		if !ok {
			continue
		}

		elapsed := s.clock.Now().Sub(frameStart)
		remaining := available - elapsed
		if remaining <= 0 {
			s.lastDeferred = n - i
			morePending = true
			break
		}
		// Skip ahead-of-cost signals, but always attempt at least one
		// so the pipeline cannot stall entirely.
		if i > 0 && s.estimatedCost() > remaining {
			s.lastDeferred = n - i
			morePending = true
			break
		}

		workStart := s.clock.Now()
		more, err := p.Pump(func() bool {
			return s.clock.Now().Sub(frameStart) < available
		})
		cost := s.clock.Now().Sub(workStart)
		s.costDigest.Add(cost.Seconds(), 1)
		s.lastPumped++

		if err != nil {
			// The stream is terminally failed; others keep going.
			s.logger.Error("signal_pump_failed", "signal", id, "error", err)
			continue
		}
		if more {
			morePending = true
		}
	}

	s.lastUsed = s.clock.Now().Sub(frameStart)
	return morePending
}

// estimatedCost returns the p90 of measured per-signal pump costs.
func (s *FrameScheduler) estimatedCost() time.Duration {
	q := s.costDigest.Quantile(0.9)
	if q != q || q <= 0 { // NaN before any sample
		return 0
	}
	return time.Duration(q * float64(time.Second))
}

// FrameStats is a snapshot of scheduler behavior for metrics and the TUI.
type FrameStats struct {
	Frames    uint64
	Available time.Duration
	LastUsed  time.Duration
	Pumped    int
	Deferred  int
	CostP50   time.Duration
	CostP90   time.Duration
}

// Snapshot returns current scheduler statistics.
func (s *FrameScheduler) Snapshot() FrameStats {
	return FrameStats{
		Frames:    s.frames,
		Available: s.Available(),
		LastUsed:  s.lastUsed,
		Pumped:    s.lastPumped,
		Deferred:  s.lastDeferred,
		CostP50:   s.quantile(0.5),
		CostP90:   s.quantile(0.9),
	}
}

func (s *FrameScheduler) quantile(q float64) time.Duration {
	v := s.costDigest.Quantile(q)
	if v != v || v < 0 {
		return 0
	}
	return time.Duration(v * float64(time.Second))
}
