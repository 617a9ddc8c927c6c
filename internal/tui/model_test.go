package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tracescope/tracescope/internal/engine"
	"github.com/tracescope/tracescope/internal/schedule"
	"github.com/tracescope/tracescope/internal/stream"
	"github.com/tracescope/tracescope/internal/timeseries"
)

// stubSource returns a canned snapshot.
type stubSource struct {
	snap  engine.Snapshot
	calls int
}

func (s *stubSource) Snapshot() engine.Snapshot {
	s.calls++
	return s.snap
}

// stubLogs returns canned log lines.
type stubLogs struct{ lines []string }

func (s *stubLogs) RecentLines(n int) []string {
	if n > len(s.lines) {
		n = len(s.lines)
	}
	return s.lines[len(s.lines)-n:]
}

func testSnapshot() engine.Snapshot {
	return engine.Snapshot{
		Uptime: 90 * time.Second,
		Streams: []stream.Stats{
			{
				SignalID: "cont.0", Mode: "continuous",
				SourceLen: 10_000, Committed: 512, Capacity: 1024,
				Chunks: 20, Grows: 2,
			},
			{
				SignalID: "enum.0", Mode: "enum",
				SourceLen: 10_000, Committed: 12, Capacity: 256,
				Chunks: 20,
			},
			{
				SignalID: "cont.1", Mode: "continuous",
				SourceLen: 5_000, Committed: 300, Capacity: 512,
				Failed: true,
			},
		},
		Frame: schedule.FrameStats{
			Frames:    5400,
			Available: 14 * time.Millisecond,
			LastUsed:  3 * time.Millisecond,
			Pumped:    3,
			CostP50:   500 * time.Microsecond,
			CostP90:   1200 * time.Microsecond,
		},
		Upload: timeseries.UploadStats{
			TotalBytes:     9_600_000,
			TotalPoints:    800_000,
			BytesPerSec1s:  110_000,
			BytesPerSec10s: 105_000,
			BytesPerSec60s: 100_000,
		},
	}
}

func testModel() Model {
	return New(Config{
		Policy:      "normal",
		MaxPoints:   512,
		MetricsAddr: "0.0.0.0:17092",
	})
}

func TestNew(t *testing.T) {
	m := testModel()

	if m.policy != "normal" {
		t.Errorf("policy = %q", m.policy)
	}
	if m.width != 80 || m.height != 24 {
		t.Errorf("default size = %dx%d, want 80x24", m.width, m.height)
	}
	if m.snap != nil {
		t.Error("fresh model should have no snapshot")
	}
}

func TestUpdate_QuitKeys(t *testing.T) {
	for _, key := range []string{"q", "ctrl+c", "esc"} {
		t.Run(key, func(t *testing.T) {
			m := testModel()
			msg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
			if key == "ctrl+c" {
				msg = tea.KeyMsg{Type: tea.KeyCtrlC}
			}
			if key == "esc" {
				msg = tea.KeyMsg{Type: tea.KeyEsc}
			}

			updated, cmd := m.Update(msg)
			if cmd == nil {
				t.Fatal("expected tea.Quit command")
			}
			if !updated.(Model).quitting {
				t.Error("quitting flag not set")
			}
		})
	}
}

func TestUpdate_DetailToggle(t *testing.T) {
	m := testModel()

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")})
	if !updated.(Model).detailedView {
		t.Error("d should enable the detailed view")
	}

	updated, _ = updated.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")})
	if updated.(Model).detailedView {
		t.Error("second d should toggle back")
	}
}

func TestUpdate_WindowSize(t *testing.T) {
	m := testModel()

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	got := updated.(Model)
	if got.width != 120 || got.height != 40 {
		t.Errorf("size = %dx%d, want 120x40", got.width, got.height)
	}
}

func TestUpdate_TickPullsSnapshot(t *testing.T) {
	src := &stubSource{snap: testSnapshot()}
	m := New(Config{Policy: "normal", MaxPoints: 512, Source: src})

	updated, cmd := m.Update(TickMsg(time.Now()))
	got := updated.(Model)

	if src.calls != 1 {
		t.Errorf("source called %d times, want 1", src.calls)
	}
	if got.snap == nil || len(got.snap.Streams) != 3 {
		t.Error("tick did not store the snapshot")
	}
	if cmd == nil {
		t.Error("tick should schedule the next tick")
	}
}

func TestUpdate_SnapshotMsg(t *testing.T) {
	m := testModel()

	updated, _ := m.Update(SnapshotMsg(testSnapshot()))
	got := updated.(Model)
	if got.snap == nil || got.snap.Frame.Frames != 5400 {
		t.Error("SnapshotMsg not applied")
	}
}

func TestUpdate_QuitMsg(t *testing.T) {
	m := testModel()

	updated, cmd := m.Update(QuitMsg{})
	if cmd == nil || !updated.(Model).quitting {
		t.Error("QuitMsg should quit")
	}
}

func TestView_NoSnapshot(t *testing.T) {
	m := testModel()

	out := m.View()
	if out == "" {
		t.Fatal("summary view rendered empty without a snapshot")
	}
	if !strings.Contains(out, "tracescope") {
		t.Error("view missing application header")
	}
}

func TestView_WithSnapshot(t *testing.T) {
	m := testModel()
	updated, _ := m.Update(SnapshotMsg(testSnapshot()))
	m = updated.(Model)

	out := m.View()
	if !strings.Contains(out, "cont.0") {
		t.Error("view missing signal row")
	}
	if !strings.Contains(out, "normal") {
		t.Error("view missing policy")
	}
	if !strings.Contains(out, "17092") {
		t.Error("view missing metrics endpoint")
	}
}

func TestView_DetailedView(t *testing.T) {
	m := testModel()
	updated, _ := m.Update(SnapshotMsg(testSnapshot()))
	updated, _ = updated.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")})
	m = updated.(Model)

	out := m.View()
	for _, id := range []string{"cont.0", "cont.1", "enum.0"} {
		if !strings.Contains(out, id) {
			t.Errorf("detailed view missing %s", id)
		}
	}
}

func TestView_QuittingRendersNothing(t *testing.T) {
	m := testModel()
	updated, _ := m.Update(QuitMsg{})

	if out := updated.(Model).View(); out != "" {
		t.Errorf("quitting view = %q, want empty", out)
	}
}

func TestView_LogPanel(t *testing.T) {
	logs := &stubLogs{lines: []string{"12:00:00 INFO engine_starting signals=3"}}
	m := New(Config{Policy: "normal", MaxPoints: 512, Logs: logs})
	updated, _ := m.Update(SnapshotMsg(testSnapshot()))
	m = updated.(Model)

	if !strings.Contains(m.View(), "engine_starting") {
		t.Error("view missing log panel line")
	}
}

func TestAccessors(t *testing.T) {
	m := testModel()
	updated, _ := m.Update(SnapshotMsg(testSnapshot()))
	m = updated.(Model)

	if got := m.SignalCount(); got != 3 {
		t.Errorf("SignalCount = %d, want 3", got)
	}
	if got := m.FailedCount(); got != 1 {
		t.Errorf("FailedCount = %d, want 1", got)
	}
	use := m.BudgetUse()
	if use < 0.2 || use > 0.25 {
		t.Errorf("BudgetUse = %v, want 3ms/14ms", use)
	}
	// 25000 samples over 824 committed points.
	ratio := m.CompressionRatio()
	if ratio < 30 || ratio > 31 {
		t.Errorf("CompressionRatio = %v, want ~30.3", ratio)
	}
	if m.Elapsed() != 90*time.Second {
		t.Errorf("Elapsed = %v, want snapshot uptime", m.Elapsed())
	}
}

func TestAccessors_NilSnapshot(t *testing.T) {
	m := testModel()

	if m.SignalCount() != 0 || m.FailedCount() != 0 {
		t.Error("counts should be zero without a snapshot")
	}
	if m.BudgetUse() != 0 || m.CompressionRatio() != 0 {
		t.Error("ratios should be zero without a snapshot")
	}
}

func TestFormatters(t *testing.T) {
	if got := formatDuration(3661 * time.Second); got != "01:01:01" {
		t.Errorf("formatDuration = %q", got)
	}
	if got := formatNumber(1_500_000); got != "1.5M" {
		t.Errorf("formatNumber = %q", got)
	}
	if got := formatNumber(2500); got != "2.5K" {
		t.Errorf("formatNumber = %q", got)
	}
	if got := formatBytes(2_500_000); got != "2.50 MB" {
		t.Errorf("formatBytes = %q", got)
	}
	if got := formatMicro(1500 * time.Microsecond); got != "1.50ms" {
		t.Errorf("formatMicro = %q", got)
	}
	if got := formatMicro(250 * time.Microsecond); got != "250µs" {
		t.Errorf("formatMicro = %q", got)
	}
	if got := formatRate(2500); got != "2.5K/s" {
		t.Errorf("formatRate = %q", got)
	}
	if got := formatRatio(0); got != "N/A" {
		t.Errorf("formatRatio = %q", got)
	}
	if got := formatRatio(12.5); got != "12.50x" {
		t.Errorf("formatRatio = %q", got)
	}
}
