// Package config provides configuration management for tracescope.
package config

import "time"

// Config holds all configuration options for the pipeline and demo binary.
type Config struct {
	// Downsampling
	Policy    string `json:"policy"`     // off, aggressive, normal, lossless
	MaxPoints int    `json:"max_points"` // output points per chunk

	// Frame budget
	TargetFPS     int           `json:"target_fps"`
	FixedOverhead time.Duration `json:"fixed_overhead"` // reserved for the render pass

	// Device backend
	Device string `json:"device"` // mem, gl

	// Synthetic signal source (demo binary)
	Signals     int           `json:"signals"`      // continuous signals
	EnumSignals int           `json:"enum_signals"` // enumerated signals
	SampleRate  float64       `json:"sample_rate"`  // samples/sec per signal
	Seed        int64         `json:"seed"`         // 0 = seed from time
	Duration    time.Duration `json:"duration"`     // 0 = forever

	// Observability
	MetricsAddr      string `json:"metrics_addr"`
	PerSignalMetrics bool   `json:"per_signal_metrics"`
	DumpMetrics      bool   `json:"dump_metrics"`
	Verbose          bool   `json:"verbose"`
	LogFormat        string `json:"log_format"` // json, text

	// Dashboard
	TUIEnabled bool `json:"tui"`

	// Diagnostic modes
	Check bool `json:"check"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		// Downsampling
		Policy:    "normal",
		MaxPoints: 512,

		// Frame budget
		TargetFPS:     60,
		FixedOverhead: 2 * time.Millisecond,

		// Device backend
		Device: "mem",

		// Synthetic signals
		Signals:     6,
		EnumSignals: 2,
		SampleRate:  10_000,
		Seed:        0,
		Duration:    0, // Forever

		// Observability
		MetricsAddr: "0.0.0.0:17092",
		Verbose:     false,
		LogFormat:   "json",

		// Dashboard
		TUIEnabled: true,
	}
}

// FrameInterval returns the target frame interval derived from TargetFPS.
func (c *Config) FrameInterval() time.Duration {
	if c.TargetFPS <= 0 {
		return time.Second / 60
	}
	return time.Second / time.Duration(c.TargetFPS)
}

// ApplyCheckMode modifies config for -check mode: a short, small smoke run.
func ApplyCheckMode(cfg *Config) {
	cfg.Signals = 1
	cfg.EnumSignals = 1
	cfg.Duration = 10 * time.Second
	cfg.Verbose = true
}
