package config

import (
	"flag"
	"fmt"
	"os"
)

// ParseFlags parses command-line flags and returns a Config.
func ParseFlags() (*Config, error) {
	cfg := DefaultConfig()

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `tracescope - incremental downsampling and GPU-buffer streaming for live traces

Usage:
  tracescope [flags]

Downsampling Flags:
`)
		printFlagCategory([]string{"policy", "max-points"})

		fmt.Fprintf(os.Stderr, "\nFrame Budget:\n")
		printFlagCategory([]string{"fps", "overhead"})

		fmt.Fprintf(os.Stderr, "\nDevice:\n")
		printFlagCategory([]string{"device"})

		fmt.Fprintf(os.Stderr, "\nSynthetic Signals:\n")
		printFlagCategory([]string{"signals", "enum-signals", "rate", "seed", "duration"})

		fmt.Fprintf(os.Stderr, "\nObservability:\n")
		printFlagCategory([]string{"metrics", "per-signal-metrics", "dump-metrics", "v", "log-format"})

		fmt.Fprintf(os.Stderr, "\nDashboard:\n")
		printFlagCategory([]string{"tui"})

		fmt.Fprintf(os.Stderr, "\nDiagnostics:\n")
		printFlagCategory([]string{"check"})

		fmt.Fprintf(os.Stderr, `
Examples:
  # Default run: 8 synthetic signals at 10k samples/sec, live dashboard
  tracescope

  # Stress the budget: many dense signals, headless, metrics only
  tracescope -signals 64 -rate 100000 -tui=false

  # Lossless pipeline smoke test
  tracescope -policy lossless -check

`)
	}

	// Downsampling
	flag.StringVar(&cfg.Policy, "policy", cfg.Policy, `Downsampling policy: "off", "aggressive", "normal", "lossless"`)
	flag.IntVar(&cfg.MaxPoints, "max-points", cfg.MaxPoints, "Maximum output points per chunk")

	// Frame budget
	flag.IntVar(&cfg.TargetFPS, "fps", cfg.TargetFPS, "Target frame rate the time budget is derived from")
	flag.DurationVar(&cfg.FixedOverhead, "overhead", cfg.FixedOverhead, "Frame time reserved for the render pass")

	// Device backend
	flag.StringVar(&cfg.Device, "device", cfg.Device,
		`Buffer backend: "mem" (in-process) or "gl" (requires a current OpenGL context)`)

	// Synthetic signals
	flag.IntVar(&cfg.Signals, "signals", cfg.Signals, "Number of continuous synthetic signals")
	flag.IntVar(&cfg.EnumSignals, "enum-signals", cfg.EnumSignals, "Number of enumerated synthetic signals")
	flag.Float64Var(&cfg.SampleRate, "rate", cfg.SampleRate, "Samples per second per signal")
	flag.Int64Var(&cfg.Seed, "seed", cfg.Seed, "Noise seed for reproducible runs (0 = from time)")
	flag.DurationVar(&cfg.Duration, "duration", cfg.Duration, "Run duration (0 = forever)")

	// Observability
	flag.StringVar(&cfg.MetricsAddr, "metrics", cfg.MetricsAddr, "Prometheus metrics address")
	flag.BoolVar(&cfg.PerSignalMetrics, "per-signal-metrics", cfg.PerSignalMetrics,
		"Enable per-signal Prometheus metrics (high cardinality with many signals)")
	flag.BoolVar(&cfg.DumpMetrics, "dump-metrics", cfg.DumpMetrics,
		"Write a final metrics snapshot to stdout on exit (text exposition format)")
	flag.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "Verbose logging")
	flag.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, `Log format: "json" or "text"`)

	// Dashboard
	flag.BoolVar(&cfg.TUIEnabled, "tui", cfg.TUIEnabled, "Enable live terminal dashboard (use -tui=false to disable)")

	// Diagnostics
	flag.BoolVar(&cfg.Check, "check", cfg.Check, "Validate config and run a 10 second smoke test")

	flag.Parse()

	return cfg, nil
}

// printFlagCategory prints flags matching the given names (helper for usage).
func printFlagCategory(names []string) {
	flag.VisitAll(func(f *flag.Flag) {
		for _, name := range names {
			if f.Name == name {
				fmt.Fprintf(os.Stderr, "  -%s\n    \t%s", f.Name, f.Usage)
				if f.DefValue != "" && f.DefValue != "false" && f.DefValue != "0" && f.DefValue != "0s" {
					fmt.Fprintf(os.Stderr, " (default %s)", f.DefValue)
				}
				fmt.Fprintln(os.Stderr)
				return
			}
		}
	})
}
