// Package timeseries provides time-windowed tracking of upload throughput.
//
// The stream controller reports every chunk it uploads; the tracker keeps
// cumulative bytes and points plus rolling averages over short windows so
// the dashboard and Prometheus gauges can show current pipeline pressure.
//
// Thread-safe: AddChunk uses atomics, RecordSample/GetStats take the ring
// lock.
package timeseries

import (
	"sync"
	"sync/atomic"
	"time"
)

const (
	// ringSize is the number of samples retained (1 minute at 1 sample/sec,
	// or ~1 second at 60 samples/sec when sampled per frame).
	ringSize = 600

	// Rolling average windows.
	window1s  = 1 * time.Second
	window10s = 10 * time.Second
	window60s = 60 * time.Second
)

// Clock provides time; injectable for deterministic tests.
type Clock interface {
	Now() time.Time
}

// realClock uses time.Now() in production.
type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// sample is a point-in-time snapshot of the cumulative counters.
type sample struct {
	timestamp time.Time
	bytes     int64
	points    int64
}

// UploadTracker tracks cumulative uploaded bytes/points and computes
// rolling averages over fixed windows.
type UploadTracker struct {
	totalBytes  atomic.Int64
	totalPoints atomic.Int64

	mu       sync.RWMutex
	samples  []sample
	writeIdx int

	startTime time.Time
	clock     Clock
}

// UploadStats contains computed throughput at a point in time.
type UploadStats struct {
	TotalBytes  int64
	TotalPoints int64

	// Rolling averages, bytes per second.
	BytesPerSec1s  float64
	BytesPerSec10s float64
	BytesPerSec60s float64

	// Rolling average, points per second, over the 10s window.
	PointsPerSec10s float64

	// Averages since tracking started.
	BytesPerSecOverall  float64
	PointsPerSecOverall float64
}

// NewUploadTracker creates a tracker with the real clock.
func NewUploadTracker() *UploadTracker {
	return NewUploadTrackerWithClock(realClock{})
}

// NewUploadTrackerWithClock creates a tracker with a custom clock for
// testing.
func NewUploadTrackerWithClock(clock Clock) *UploadTracker {
	now := clock.Now()
	t := &UploadTracker{
		samples:   make([]sample, 0, ringSize),
		startTime: now,
		clock:     clock,
	}
	t.samples = append(t.samples, sample{timestamp: now})
	return t
}

// AddChunk records one uploaded chunk of points occupying bytes on the
// device. Lock-free; called from the frame loop per chunk.
func (t *UploadTracker) AddChunk(points int, bytes int64) {
	if points > 0 {
		t.totalPoints.Add(int64(points))
	}
	if bytes > 0 {
		t.totalBytes.Add(bytes)
	}
}

// RecordSample snapshots the cumulative counters with a timestamp.
// Called once per frame (or per second in headless mode).
func (t *UploadTracker) RecordSample() {
	now := t.clock.Now()
	s := sample{
		timestamp: now,
		bytes:     t.totalBytes.Load(),
		points:    t.totalPoints.Load(),
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.samples) < ringSize {
		t.samples = append(t.samples, s)
	} else {
		t.samples[t.writeIdx] = s
		t.writeIdx = (t.writeIdx + 1) % ringSize
	}
}

// GetStats computes current throughput. Always returns valid data, using
// whatever history exists.
func (t *UploadTracker) GetStats() UploadStats {
	now := t.clock.Now()
	bytes := t.totalBytes.Load()
	points := t.totalPoints.Load()

	t.mu.RLock()
	defer t.mu.RUnlock()

	stats := UploadStats{
		TotalBytes:  bytes,
		TotalPoints: points,
	}

	elapsed := now.Sub(t.startTime).Seconds()
	if elapsed > 0 {
		stats.BytesPerSecOverall = float64(bytes) / elapsed
		stats.PointsPerSecOverall = float64(points) / elapsed
	}

	stats.BytesPerSec1s, _ = t.rateOverWindow(now, bytes, points, window1s)
	stats.BytesPerSec10s, stats.PointsPerSec10s = t.rateOverWindow(now, bytes, points, window10s)
	stats.BytesPerSec60s, _ = t.rateOverWindow(now, bytes, points, window60s)

	return stats
}

// rateOverWindow computes byte and point rates against the sample closest
// to (but not after) now-window. Must be called with mu held.
func (t *UploadTracker) rateOverWindow(now time.Time, bytes, points int64, window time.Duration) (bytesPerSec, pointsPerSec float64) {
	if len(t.samples) == 0 {
		return 0, 0
	}

	target := now.Add(-window)

	var best *sample
	var bestDiff time.Duration = -1
	for i := range t.samples {
		s := &t.samples[i]
		if s.timestamp.After(target) {
			continue
		}
		diff := target.Sub(s.timestamp)
		if bestDiff < 0 || diff < bestDiff {
			best = s
			bestDiff = diff
		}
	}
	if best == nil {
		best = t.oldest()
	}
	if best == nil {
		return 0, 0
	}

	elapsed := now.Sub(best.timestamp).Seconds()
	if elapsed <= 0 {
		return 0, 0
	}
	return float64(bytes-best.bytes) / elapsed, float64(points-best.points) / elapsed
}

// oldest returns the oldest retained sample. Must be called with mu held.
func (t *UploadTracker) oldest() *sample {
	if len(t.samples) == 0 {
		return nil
	}
	if len(t.samples) < ringSize {
		return &t.samples[0]
	}
	return &t.samples[t.writeIdx]
}

// Reset clears all history and restarts tracking.
func (t *UploadTracker) Reset() {
	now := t.clock.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	t.totalBytes.Store(0)
	t.totalPoints.Store(0)
	t.samples = t.samples[:0]
	t.samples = append(t.samples, sample{timestamp: now})
	t.writeIdx = 0
	t.startTime = now
}

// SampleCount returns the retained sample count. Test helper.
func (t *UploadTracker) SampleCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.samples)
}
