// Package engine coordinates the tracescope pipeline: producers appending
// samples, the frame scheduler pumping streams, and metrics publication.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tracescope/tracescope/internal/config"
	"github.com/tracescope/tracescope/internal/device"
	"github.com/tracescope/tracescope/internal/downsample"
	"github.com/tracescope/tracescope/internal/metrics"
	"github.com/tracescope/tracescope/internal/producer"
	"github.com/tracescope/tracescope/internal/schedule"
	"github.com/tracescope/tracescope/internal/stream"
	"github.com/tracescope/tracescope/internal/timeseries"
)

// bytesPerSlot is the device-side size of one float32 slot. A committed
// point occupies three slots (timeHigh, timeLow, value).
const bytesPerSlot = 4

// enumStates is the state map used by synthetic enumerated signals.
var enumStates = map[int64]string{
	0: "idle",
	1: "running",
	2: "waiting",
	3: "error",
}

// Engine owns the full pipeline for a run.
//
// The frame loop is single-threaded; Snapshot is safe to call from other
// goroutines (the dashboard) because the engine mutex covers each frame.
type Engine struct {
	cfg    *config.Config
	logger *slog.Logger
	dev    device.Device

	producers []*producer.Producer
	streams   []*stream.Stream
	registry  *schedule.Registry
	scheduler *schedule.FrameScheduler
	tracker   *timeseries.UploadTracker
	collector *metrics.Collector

	mu        sync.Mutex
	startTime time.Time
	prevSlots uint64
}

// New builds the pipeline: synthetic producers per the config, one stream
// per signal, and the frame scheduler over all of them.
func New(cfg *config.Config, dev device.Device, logger *slog.Logger) (*Engine, error) {
	policy, err := downsample.ParsePolicy(cfg.Policy)
	if err != nil {
		return nil, err
	}

	var noise *producer.NoiseSource
	if cfg.Seed != 0 {
		noise = producer.NewNoiseSource(cfg.Seed)
	} else {
		noise = producer.NewNoiseSourceFromTime()
	}

	// A large epoch origin exercises the high/low time split: float32
	// alone cannot represent sub-second deltas at this magnitude.
	base := float64(time.Now().Unix())

	e := &Engine{
		cfg:       cfg,
		logger:    logger,
		dev:       dev,
		registry:  schedule.NewRegistry(),
		tracker:   timeseries.NewUploadTracker(),
		collector: metrics.NewCollector(cfg.PerSignalMetrics),
	}

	for i := 0; i < cfg.Signals; i++ {
		id := fmt.Sprintf("cont.%d", i)
		var p *producer.Producer
		switch i % 3 {
		case 0:
			p = producer.NewSine(id, base, cfg.SampleRate, 0.5+0.25*float64(i), 1.0, 0.05, noise)
		case 1:
			p = producer.NewSawtooth(id, base, cfg.SampleRate, 2.0+float64(i), 1.0, noise)
		default:
			p = producer.NewRandomWalk(id, base, cfg.SampleRate, 0.01, noise)
		}
		e.producers = append(e.producers, p)
	}
	for i := 0; i < cfg.EnumSignals; i++ {
		id := fmt.Sprintf("enum.%d", i)
		p := producer.NewEnumWalker(id, base, cfg.SampleRate, enumStates, 0.001, noise)
		e.producers = append(e.producers, p)
	}

	for _, p := range e.producers {
		st := stream.New(p.Signal(), policy, cfg.MaxPoints, dev)
		e.streams = append(e.streams, st)
		if err := e.registry.Add(p.Signal().ID, st); err != nil {
			return nil, err
		}
	}

	e.scheduler = schedule.NewFrameScheduler(
		e.registry, cfg.FrameInterval(), cfg.FixedOverhead, logger)

	return e, nil
}

// Run drives the frame loop until ctx is cancelled or the configured
// duration elapses. It blocks.
func (e *Engine) Run(ctx context.Context) error {
	e.mu.Lock()
	e.startTime = time.Now()
	e.mu.Unlock()

	e.logger.Info("engine_starting",
		"signals", len(e.producers),
		"policy", e.cfg.Policy,
		"max_points", e.cfg.MaxPoints,
		"frame_interval", e.cfg.FrameInterval().String(),
		"sample_rate", e.cfg.SampleRate,
	)

	ticker := time.NewTicker(e.cfg.FrameInterval())
	defer ticker.Stop()

	var durationTimer <-chan time.Time
	if e.cfg.Duration > 0 {
		durationTimer = time.After(e.cfg.Duration)
	}

	lastSample := time.Now()
	for {
		select {
		case <-ctx.Done():
			e.logger.Info("engine_stopping", "reason", "context_cancelled")
			return nil
		case <-durationTimer:
			e.logger.Info("engine_stopping", "reason", "duration_elapsed",
				"duration", e.cfg.Duration.String())
			return nil
		case now := <-ticker.C:
			e.Step(now)
			if now.Sub(lastSample) >= time.Second {
				e.sample()
				lastSample = now
			}
		}
	}
}

// Step performs one frame: append new samples, then pump within budget.
func (e *Engine) Step(now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	elapsed := now.Sub(e.startTime).Seconds()
	for _, p := range e.producers {
		p.AppendUntil(elapsed)
	}

	e.scheduler.RunFrame()

	// Feed upload throughput from the streams' cumulative slot counters.
	var slots uint64
	for _, st := range e.streams {
		slots += st.Snapshot().SlotsSent
	}
	if slots > e.prevSlots {
		delta := slots - e.prevSlots
		e.tracker.AddChunk(int(delta/3), int64(delta)*bytesPerSlot)
		e.prevSlots = slots
	}
}

// sample publishes one round of metrics. Called at 1Hz from the frame loop.
func (e *Engine) sample() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.tracker.RecordSample()
	e.collector.Update(e.streamStats(), e.scheduler.Snapshot(), e.tracker.GetStats())
}

// streamStats snapshots all streams. Caller holds e.mu.
func (e *Engine) streamStats() []stream.Stats {
	out := make([]stream.Stats, 0, len(e.streams))
	for _, st := range e.streams {
		out = append(out, st.Snapshot())
	}
	return out
}

// Snapshot is the read surface for the dashboard.
type Snapshot struct {
	Uptime  time.Duration
	Streams []stream.Stats
	Frame   schedule.FrameStats
	Upload  timeseries.UploadStats
}

// Snapshot returns the current pipeline state. Safe for concurrent use.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	var uptime time.Duration
	if !e.startTime.IsZero() {
		uptime = time.Since(e.startTime)
	}
	return Snapshot{
		Uptime:  uptime,
		Streams: e.streamStats(),
		Frame:   e.scheduler.Snapshot(),
		Upload:  e.tracker.GetStats(),
	}
}

// Close releases all device buffers.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, p := range e.producers {
		e.registry.Remove(p.Signal().ID)
	}
}

// PrintExitSummary writes a human-readable run summary to stdout.
func (e *Engine) PrintExitSummary() {
	snap := e.Snapshot()

	var source, committed int
	var chunks, retractions, grows uint64
	failed := 0
	for _, st := range snap.Streams {
		source += st.SourceLen
		committed += st.Committed
		chunks += st.Chunks
		retractions += st.Retractions
		grows += st.Grows
		if st.Failed {
			failed++
		}
	}

	fmt.Println()
	fmt.Println("═══════════════════════════════════════════════════════════════════")
	fmt.Println("                        tracescope Exit Summary")
	fmt.Println("═══════════════════════════════════════════════════════════════════")
	fmt.Printf("Run Duration:           %s\n", formatDuration(snap.Uptime))
	fmt.Printf("Signals:                %d (%d failed)\n", len(snap.Streams), failed)
	fmt.Println()

	fmt.Println("Pipeline:")
	fmt.Printf("  Source Samples:       %d\n", source)
	fmt.Printf("  Committed Points:     %d\n", committed)
	if committed > 0 {
		fmt.Printf("  Compression Ratio:    %.2fx\n", float64(source)/float64(committed))
	}
	fmt.Printf("  Chunks Uploaded:      %d\n", chunks)
	fmt.Printf("  Point Retractions:    %d\n", retractions)
	fmt.Printf("  Buffer Grows:         %d\n", grows)
	fmt.Println()

	fmt.Println("Frame Budget:")
	fmt.Printf("  Frames:               %d\n", snap.Frame.Frames)
	fmt.Printf("  Budget:               %s\n", snap.Frame.Available)
	fmt.Printf("  Pump Cost P50:        %s\n", snap.Frame.CostP50)
	fmt.Printf("  Pump Cost P90:        %s\n", snap.Frame.CostP90)
	fmt.Println()

	fmt.Printf("Upload:                 %s total, %.1f MB/s (10s window)\n",
		formatBytes(snap.Upload.TotalBytes),
		snap.Upload.BytesPerSec10s/1e6)
	fmt.Printf("Metrics endpoint was:   http://%s/metrics\n", e.cfg.MetricsAddr)
	fmt.Println("═══════════════════════════════════════════════════════════════════")
}

// formatDuration formats a duration as HH:MM:SS.
func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// formatBytes renders a byte count with a binary-ish human suffix.
func formatBytes(b int64) string {
	switch {
	case b >= 1e9:
		return fmt.Sprintf("%.2f GB", float64(b)/1e9)
	case b >= 1e6:
		return fmt.Sprintf("%.2f MB", float64(b)/1e6)
	case b >= 1e3:
		return fmt.Sprintf("%.2f KB", float64(b)/1e3)
	default:
		return fmt.Sprintf("%d B", b)
	}
}
