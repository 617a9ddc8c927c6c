package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tracescope/tracescope/internal/engine"
)

// =============================================================================
// Messages
// =============================================================================

// TickMsg is sent periodically to update the display.
type TickMsg time.Time

// SnapshotMsg carries an updated pipeline snapshot.
type SnapshotMsg engine.Snapshot

// QuitMsg signals the TUI should exit.
type QuitMsg struct{}

// =============================================================================
// Model
// =============================================================================

// SnapshotSource provides pipeline snapshots. *engine.Engine implements it.
type SnapshotSource interface {
	Snapshot() engine.Snapshot
}

// LogSource provides recent log lines for the log panel.
type LogSource interface {
	RecentLines(n int) []string
}

// Model represents the TUI state.
type Model struct {
	// Configuration
	policy      string
	maxPoints   int
	metricsAddr string

	// Current state
	snap         *engine.Snapshot
	startTime    time.Time
	lastUpdate   time.Time
	detailedView bool

	// Display options
	width  int
	height int

	// Snapshot source (for fetching updates)
	source SnapshotSource

	// Optional log panel source
	logs LogSource

	// Quit flag
	quitting bool
}

// Config holds TUI configuration.
type Config struct {
	Policy      string
	MaxPoints   int
	MetricsAddr string
	Source      SnapshotSource
	Logs        LogSource
}

// New creates a new TUI model.
func New(cfg Config) Model {
	return Model{
		policy:      cfg.Policy,
		maxPoints:   cfg.MaxPoints,
		metricsAddr: cfg.MetricsAddr,
		source:      cfg.Source,
		logs:        cfg.Logs,
		startTime:   time.Now(),
		lastUpdate:  time.Now(),
		width:       80,
		height:      24,
	}
}

// =============================================================================
// Bubble Tea Interface
// =============================================================================

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	// Note: tea.WithAltScreen() is passed when creating the program,
	// so we don't need tea.EnterAltScreen here.
	return tickCmd()
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "d":
			m.detailedView = !m.detailedView
			return m, nil
		case "r":
			// Force refresh
			return m, tickCmd()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case TickMsg:
		if m.source != nil {
			snap := m.source.Snapshot()
			m.snap = &snap
		}
		m.lastUpdate = time.Now()
		return m, tickCmd()

	case SnapshotMsg:
		snap := engine.Snapshot(msg)
		m.snap = &snap
		m.lastUpdate = time.Now()
		return m, nil

	case QuitMsg:
		m.quitting = true
		return m, tea.Quit
	}

	return m, nil
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	if m.detailedView && m.snap != nil && len(m.snap.Streams) > 0 {
		return m.renderDetailedView()
	}
	return m.renderSummaryView()
}

// =============================================================================
// Commands
// =============================================================================

// tickCmd returns a command that sends a tick after 500ms.
func tickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// =============================================================================
// Accessors
// =============================================================================

// Elapsed returns the time since the run started.
func (m Model) Elapsed() time.Duration {
	if m.snap != nil && m.snap.Uptime > 0 {
		return m.snap.Uptime
	}
	return time.Since(m.startTime)
}

// SignalCount returns the number of live signals.
func (m Model) SignalCount() int {
	if m.snap == nil {
		return 0
	}
	return len(m.snap.Streams)
}

// FailedCount returns the number of terminally failed streams.
func (m Model) FailedCount() int {
	if m.snap == nil {
		return 0
	}
	n := 0
	for _, st := range m.snap.Streams {
		if st.Failed {
			n++
		}
	}
	return n
}

// BudgetUse returns last frame work time as a fraction of the budget.
func (m Model) BudgetUse() float64 {
	if m.snap == nil || m.snap.Frame.Available <= 0 {
		return 0
	}
	return float64(m.snap.Frame.LastUsed) / float64(m.snap.Frame.Available)
}

// CompressionRatio returns source samples per committed point.
func (m Model) CompressionRatio() float64 {
	if m.snap == nil {
		return 0
	}
	var source, committed int
	for _, st := range m.snap.Streams {
		source += st.SourceLen
		committed += st.Committed
	}
	if committed == 0 {
		return 0
	}
	return float64(source) / float64(committed)
}

// =============================================================================
// Helper for external use
// =============================================================================

// SendSnapshot sends a snapshot update to the TUI.
func SendSnapshot(p *tea.Program, snap engine.Snapshot) {
	if p != nil {
		p.Send(SnapshotMsg(snap))
	}
}

// SendQuit sends a quit message to the TUI.
func SendQuit(p *tea.Program) {
	if p != nil {
		p.Send(QuitMsg{})
	}
}

// =============================================================================
// Formatting Helpers (used by view.go)
// =============================================================================

// formatDuration formats a duration as HH:MM:SS.
func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// formatNumber formats a number with K/M suffixes.
func formatNumber(n int64) string {
	if n >= 1_000_000 {
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	}
	if n >= 1_000 {
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	}
	return fmt.Sprintf("%d", n)
}

// formatBytes formats bytes with KB/MB/GB suffixes.
func formatBytes(n int64) string {
	if n >= 1_000_000_000 {
		return fmt.Sprintf("%.2f GB", float64(n)/1_000_000_000)
	}
	if n >= 1_000_000 {
		return fmt.Sprintf("%.2f MB", float64(n)/1_000_000)
	}
	if n >= 1_000 {
		return fmt.Sprintf("%.2f KB", float64(n)/1_000)
	}
	return fmt.Sprintf("%d B", n)
}

// formatMicro formats a duration at microsecond granularity.
func formatMicro(d time.Duration) string {
	if d >= time.Millisecond {
		return fmt.Sprintf("%.2fms", float64(d.Microseconds())/1000)
	}
	return fmt.Sprintf("%dµs", d.Microseconds())
}

// formatRate formats a rate with appropriate precision.
func formatRate(rate float64) string {
	if rate >= 1000 {
		return fmt.Sprintf("%.1fK/s", rate/1000)
	}
	if rate >= 1 {
		return fmt.Sprintf("%.1f/s", rate)
	}
	return fmt.Sprintf("%.2f/s", rate)
}

// formatRatio formats a compression ratio.
func formatRatio(r float64) string {
	if r == 0 {
		return "N/A"
	}
	return fmt.Sprintf("%.2fx", r)
}
