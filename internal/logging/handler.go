package logging

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const (
	// MaxLineLength is the maximum length of a rendered log line before truncation.
	MaxLineLength = 4096

	// MaxBufferedLines is the maximum number of lines the ring retains.
	MaxBufferedLines = 100
)

// RingHandler is a slog.Handler that keeps the most recent rendered log
// lines in a circular buffer. While the dashboard owns the terminal,
// log output cannot go to stderr without corrupting the display, so the
// dashboard reads RecentLines instead.
type RingHandler struct {
	level slog.Level

	buffer []string
	bufIdx int
	mu     sync.Mutex
}

// NewRingHandler creates a RingHandler that records lines at or above level.
func NewRingHandler(level slog.Level) *RingHandler {
	return &RingHandler{
		level:  level,
		buffer: make([]string, MaxBufferedLines),
	}
}

// NewRingLogger returns a logger backed by a RingHandler plus the handler
// itself for reading lines back.
func NewRingLogger(level string, verbose bool) (*slog.Logger, *RingHandler) {
	logLevel := parseLevel(level)
	if verbose {
		logLevel = slog.LevelDebug
	}
	h := NewRingHandler(logLevel)
	return slog.New(h), h
}

// Enabled implements slog.Handler.
func (h *RingHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

// Handle implements slog.Handler. Records are rendered to a single line.
func (h *RingHandler) Handle(_ context.Context, r slog.Record) error {
	line := fmt.Sprintf("%s %s %s",
		r.Time.Format(time.TimeOnly), r.Level.String(), r.Message)
	r.Attrs(func(a slog.Attr) bool {
		line += fmt.Sprintf(" %s=%v", a.Key, a.Value.Any())
		return true
	})

	if len(line) > MaxLineLength {
		line = line[:MaxLineLength] + "...(truncated)"
	}

	h.mu.Lock()
	h.buffer[h.bufIdx] = line
	h.bufIdx = (h.bufIdx + 1) % MaxBufferedLines
	h.mu.Unlock()
	return nil
}

// WithAttrs implements slog.Handler. Attrs are folded into each record's
// message rather than tracked per-group; the ring is a display aid, not
// a structured sink.
func (h *RingHandler) WithAttrs(_ []slog.Attr) slog.Handler { return h }

// WithGroup implements slog.Handler.
func (h *RingHandler) WithGroup(_ string) slog.Handler { return h }

// RecentLines returns up to n of the most recent lines, oldest first.
func (h *RingHandler) RecentLines(n int) []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	if n > MaxBufferedLines {
		n = MaxBufferedLines
	}

	lines := make([]string, 0, n)
	for i := 0; i < n; i++ {
		idx := (h.bufIdx - n + i + MaxBufferedLines) % MaxBufferedLines
		if h.buffer[idx] != "" {
			lines = append(lines, h.buffer[idx])
		}
	}
	return lines
}
