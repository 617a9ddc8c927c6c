// Package metrics provides Prometheus metrics for the tracescope pipeline.
//
// Metrics are organized into two tiers:
//   - Tier 1 (always enabled): aggregate metrics, safe for any signal count
//   - Tier 2 (optional, -per-signal-metrics): per-signal gauges for
//     debugging, high cardinality with many signals
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// --- Tier 1: pipeline overview ---
var (
	scopeInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tracescope_info",
			Help: "Information about the pipeline (value always 1)",
		},
		[]string{"version", "policy", "device"},
	)

	signalsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tracescope_signals_active",
			Help: "Signals currently registered for rendering",
		},
	)

	sourceSamples = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tracescope_source_samples",
			Help: "Total source samples across all signals",
		},
	)

	pointsCommitted = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tracescope_points_committed",
			Help: "Points currently committed to device buffers (retractions decrease this)",
		},
	)

	compressionRatio = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tracescope_compression_ratio",
			Help: "Source samples per committed point (1.0 = no reduction)",
		},
	)
)

// --- Tier 1: upload path ---
var (
	chunksUploadedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tracescope_chunks_uploaded_total",
			Help: "Total chunks integrated into device buffers",
		},
	)

	retractionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tracescope_point_retractions_total",
			Help: "Total provisional trailing points retracted before new data",
		},
	)

	bufferGrowsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tracescope_buffer_grows_total",
			Help: "Total device buffer growth events (allocate, device-side copy, free)",
		},
	)

	uploadBytesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tracescope_upload_bytes_total",
			Help: "Total bytes uploaded to device buffers",
		},
	)

	uploadBytesPerSec = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tracescope_upload_bytes_per_second",
			Help: "Upload throughput averaged over the last 10 seconds",
		},
	)

	streamsFailed = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tracescope_streams_failed",
			Help: "Signals whose pipeline failed hard (device allocation failure)",
		},
	)
)

// --- Tier 1: frame budget ---
var (
	framesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tracescope_frames_total",
			Help: "Total frames scheduled",
		},
	)

	framesDeferredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tracescope_frames_deferred_total",
			Help: "Frames that ended with work still pending (budget exhausted)",
		},
	)

	frameWorkSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name: "tracescope_frame_work_seconds",
			Help: "Per-frame pipeline work time distribution",
			Buckets: []float64{
				0.0005, 0.001, 0.002, 0.004,
				0.008, 0.016, 0.033, 0.066, 0.1,
			},
		},
	)

	pumpCostP50Seconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tracescope_pump_cost_p50_seconds",
			Help: "Median measured per-signal pump cost",
		},
	)

	pumpCostP90Seconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tracescope_pump_cost_p90_seconds",
			Help: "p90 measured per-signal pump cost (gates scheduling)",
		},
	)
)

// --- Tier 2: per-signal (optional) ---
var (
	signalCommittedPoints = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tracescope_signal_points_committed",
			Help: "Committed points per signal",
		},
		[]string{"signal", "mode"},
	)

	signalBufferCapacity = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tracescope_signal_buffer_capacity_slots",
			Help: "Device buffer capacity per signal, in slots",
		},
		[]string{"signal", "mode"},
	)
)

var registerOnce sync.Once

// Register registers all pipeline metrics with the default registry.
// Safe to call more than once.
func Register(perSignal bool) {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			scopeInfo,
			signalsActive,
			sourceSamples,
			pointsCommitted,
			compressionRatio,
			chunksUploadedTotal,
			retractionsTotal,
			bufferGrowsTotal,
			uploadBytesTotal,
			uploadBytesPerSec,
			streamsFailed,
			framesTotal,
			framesDeferredTotal,
			frameWorkSeconds,
			pumpCostP50Seconds,
			pumpCostP90Seconds,
		)
		if perSignal {
			prometheus.MustRegister(signalCommittedPoints, signalBufferCapacity)
		}
	})
}

// SetInfo publishes the static pipeline information gauge.
func SetInfo(version, policy, device string) {
	scopeInfo.WithLabelValues(version, policy, device).Set(1)
}
