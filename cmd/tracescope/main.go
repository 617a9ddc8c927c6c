// Package main provides the tracescope CLI entry point.
//
// tracescope streams live time-series signals through an incremental
// downsampling pipeline into growable device buffers, bounded by a
// per-frame time budget. The demo binary drives synthetic signals and
// shows the pipeline on a live terminal dashboard.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tracescope/tracescope/internal/config"
	"github.com/tracescope/tracescope/internal/device"
	"github.com/tracescope/tracescope/internal/engine"
	"github.com/tracescope/tracescope/internal/logging"
	"github.com/tracescope/tracescope/internal/metrics"
	"github.com/tracescope/tracescope/internal/tui"
)

// version is set at build time via ldflags:
//
//	go build -ldflags "-X main.version=1.0.0" ./cmd/tracescope
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// Handle version flag early (before flag parsing)
	if len(os.Args) > 1 {
		arg := os.Args[1]
		if arg == "-version" || arg == "--version" || arg == "version" {
			fmt.Printf("tracescope %s\n", version)
			return 0
		}
	}

	// Parse command-line flags
	cfg, err := config.ParseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		return 1
	}

	// Initialize logger
	// When the TUI is enabled, stderr would corrupt the display; log into
	// a ring buffer the dashboard reads instead.
	var logger *slog.Logger
	var ring *logging.RingHandler
	if cfg.TUIEnabled {
		logger, ring = logging.NewRingLogger("info", cfg.Verbose)
	} else {
		logger = logging.NewLogger(cfg.LogFormat, "info", cfg.Verbose)
	}
	logging.SetDefault(logger)

	// Validate configuration
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		return 1
	}

	// Apply --check mode modifications
	if cfg.Check {
		config.ApplyCheckMode(cfg)
		logger.Info("check_mode_enabled",
			"signals", cfg.Signals+cfg.EnumSignals, "duration", cfg.Duration)
	}

	// Select device backend
	var dev device.Device
	switch cfg.Device {
	case "gl":
		glDev, err := device.NewGL()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Device error: %v (the gl backend needs a current OpenGL context)\n", err)
			return 1
		}
		dev = glDev
	default:
		dev = device.NewMem()
	}

	// Log startup
	logger.Info("starting",
		"version", version,
		"policy", cfg.Policy,
		"device", cfg.Device,
		"signals", cfg.Signals+cfg.EnumSignals,
		"sample_rate", cfg.SampleRate,
		"metrics_addr", cfg.MetricsAddr,
	)

	// Register and serve metrics
	metrics.Register(cfg.PerSignalMetrics)
	metrics.SetInfo(version, cfg.Policy, cfg.Device)
	metricsServer := metrics.NewServer(cfg.MetricsAddr, logger)
	metricsServer.Start()

	// Build the pipeline
	eng, err := engine.New(cfg, dev, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Pipeline error: %v\n", err)
		return 1
	}
	defer eng.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	exitCode := 0
	if cfg.TUIEnabled {
		exitCode = runWithTUI(ctx, cfg, eng, ring, logger)
	} else {
		printBanner(cfg)
		if err := eng.Run(ctx); err != nil {
			logger.Error("engine_failed", "error", err)
			exitCode = 1
		}
	}

	// Graceful metrics shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("metrics_server_shutdown_error", "error", err)
	}

	eng.PrintExitSummary()

	if cfg.DumpMetrics {
		if err := metrics.DumpText(os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Metrics dump error: %v\n", err)
		}
	}

	return exitCode
}

// runWithTUI runs the engine in the background with the dashboard in the
// foreground. Quitting the dashboard stops the engine and vice versa.
func runWithTUI(ctx context.Context, cfg *config.Config, eng *engine.Engine, ring *logging.RingHandler, logger *slog.Logger) int {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := tui.New(tui.Config{
		Policy:      cfg.Policy,
		MaxPoints:   cfg.MaxPoints,
		MetricsAddr: cfg.MetricsAddr,
		Source:      eng,
		Logs:        ring,
	})
	program := tea.NewProgram(model, tea.WithAltScreen())

	engineDone := make(chan error, 1)
	go func() {
		engineDone <- eng.Run(ctx)
		tui.SendQuit(program)
	}()

	exitCode := 0
	if _, err := program.Run(); err != nil {
		logger.Error("tui_failed", "error", err)
		exitCode = 1
	}
	cancel()

	if err := <-engineDone; err != nil {
		logger.Error("engine_failed", "error", err)
		exitCode = 1
	}
	return exitCode
}

// printBanner prints the startup banner for headless runs.
func printBanner(cfg *config.Config) {
	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════════════════════════════════╗")
	fmt.Println("║                           tracescope                              ║")
	fmt.Println("║     Incremental Downsampling and Device Buffer Streaming          ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf("  Signals:     %d continuous, %d enumerated at %.0f samples/sec\n",
		cfg.Signals, cfg.EnumSignals, cfg.SampleRate)
	fmt.Printf("  Policy:      %s (max %d points per chunk)\n", cfg.Policy, cfg.MaxPoints)
	fmt.Printf("  Budget:      %s per frame at %d fps (%s render overhead)\n",
		cfg.FrameInterval(), cfg.TargetFPS, cfg.FixedOverhead)
	fmt.Printf("  Device:      %s\n", cfg.Device)
	fmt.Printf("  Metrics:     http://%s/metrics\n", cfg.MetricsAddr)
	if cfg.Duration > 0 {
		fmt.Printf("  Duration:    %s\n", cfg.Duration)
	}
	fmt.Println()
	fmt.Println("Press Ctrl+C to stop.")
	fmt.Println()
}
