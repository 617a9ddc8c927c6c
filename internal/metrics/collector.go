package metrics

import (
	"github.com/tracescope/tracescope/internal/schedule"
	"github.com/tracescope/tracescope/internal/stream"
	"github.com/tracescope/tracescope/internal/timeseries"
)

// Collector maps pipeline snapshots onto the Prometheus metrics.
//
// Stream and scheduler counters are cumulative snapshots; the collector
// diffs them against the previous update so the exported counters only
// ever move forward.
type Collector struct {
	perSignal bool

	prevChunks      uint64
	prevRetractions uint64
	prevGrows       uint64
	prevBytes       int64
	prevFrames      uint64
	prevDeferred    uint64

	deferredFrames uint64
}

// NewCollector creates a collector. perSignal enables the tier-2 gauges.
func NewCollector(perSignal bool) *Collector {
	return &Collector{perSignal: perSignal}
}

// Update publishes one round of snapshots. Called once per frame or per
// sampling tick.
func (c *Collector) Update(streams []stream.Stats, frame schedule.FrameStats, upload timeseries.UploadStats) {
	var (
		source      int
		committed   int
		chunks      uint64
		retractions uint64
		grows       uint64
		failed      int
	)

	for _, st := range streams {
		source += st.SourceLen
		committed += st.Committed
		chunks += st.Chunks
		retractions += st.Retractions
		grows += st.Grows
		if st.Failed {
			failed++
		}
		if c.perSignal {
			signalCommittedPoints.WithLabelValues(st.SignalID, st.Mode).Set(float64(st.Committed))
			signalBufferCapacity.WithLabelValues(st.SignalID, st.Mode).Set(float64(st.Capacity))
		}
	}

	signalsActive.Set(float64(len(streams)))
	sourceSamples.Set(float64(source))
	pointsCommitted.Set(float64(committed))
	streamsFailed.Set(float64(failed))
	if committed > 0 {
		compressionRatio.Set(float64(source) / float64(committed))
	}

	chunksUploadedTotal.Add(float64(counterDelta(chunks, &c.prevChunks)))
	retractionsTotal.Add(float64(counterDelta(retractions, &c.prevRetractions)))
	bufferGrowsTotal.Add(float64(counterDelta(grows, &c.prevGrows)))

	// Upload throughput.
	if upload.TotalBytes > c.prevBytes {
		uploadBytesTotal.Add(float64(upload.TotalBytes - c.prevBytes))
		c.prevBytes = upload.TotalBytes
	}
	uploadBytesPerSec.Set(upload.BytesPerSec10s)

	// Frame budget.
	newFrames := counterDelta(frame.Frames, &c.prevFrames)
	framesTotal.Add(float64(newFrames))
	if newFrames > 0 {
		frameWorkSeconds.Observe(frame.LastUsed.Seconds())
	}
	if frame.Deferred > 0 {
		c.deferredFrames++
	}
	framesDeferredTotal.Add(float64(counterDelta(c.deferredFrames, &c.prevDeferred)))
	pumpCostP50Seconds.Set(frame.CostP50.Seconds())
	pumpCostP90Seconds.Set(frame.CostP90.Seconds())
}

// counterDelta returns current-prev, clamped at zero, and stores current.
func counterDelta(current uint64, prev *uint64) uint64 {
	if current < *prev {
		*prev = current
		return 0
	}
	d := current - *prev
	*prev = current
	return d
}
