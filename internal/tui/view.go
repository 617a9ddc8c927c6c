package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tracescope/tracescope/internal/stream"
)

// =============================================================================
// Main View Rendering
// =============================================================================

// renderSummaryView renders the main summary dashboard.
func (m Model) renderSummaryView() string {
	var sections []string

	// Header
	sections = append(sections, m.renderHeader())

	// Frame budget section
	sections = append(sections, m.renderBudget())

	// Stats sections (only if we have a snapshot)
	if m.snap != nil {
		sections = append(sections, m.renderPipelineStats())
		sections = append(sections, m.renderSignalTable(6))
		sections = append(sections, m.renderUploadStats())
	}

	// Log panel (only if a source is wired)
	if m.logs != nil {
		if panel := m.renderLogPanel(); panel != "" {
			sections = append(sections, panel)
		}
	}

	// Footer
	sections = append(sections, m.renderFooter())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderDetailedView renders the full per-signal table.
func (m Model) renderDetailedView() string {
	var sections []string

	sections = append(sections, m.renderHeader())
	sections = append(sections, m.renderSignalTable(len(m.snap.Streams)))
	sections = append(sections, m.renderFooter())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// =============================================================================
// Header
// =============================================================================

func (m Model) renderHeader() string {
	budgetLabel := GetBudgetLabel(m.BudgetUse())

	header := fmt.Sprintf(
		" tracescope │ %s │ Signals: %d │ Policy: %s │ Elapsed: %s ",
		budgetLabel,
		m.SignalCount(),
		m.policy,
		formatDuration(m.Elapsed()),
	)

	return headerStyle.Width(m.width).Render(header)
}

// =============================================================================
// Frame Budget Section
// =============================================================================

func (m Model) renderBudget() string {
	use := m.BudgetUse()

	barWidth := m.width - 30
	if barWidth < 20 {
		barWidth = 20
	}
	budgetBar := RenderProgressBar(use, barWidth)

	var status string
	switch GetBudgetStatus(use) {
	case BudgetStatusOverrun:
		status = statusError.Render("✗ Frame budget overrun, work deferred")
	case BudgetStatusTight:
		status = statusWarning.Render("△ Frame budget tight")
	default:
		status = statusOK.Render("✓ Within frame budget")
	}

	var detail string
	if m.snap != nil {
		f := m.snap.Frame
		detail = dimStyle.Render(fmt.Sprintf(
			"used %s of %s │ pumped %d, deferred %d │ pump cost p50 %s p90 %s",
			formatMicro(f.LastUsed), formatMicro(f.Available),
			f.Pumped, f.Deferred,
			formatMicro(f.CostP50), formatMicro(f.CostP90),
		))
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		sectionHeaderStyle.Render("Frame Budget"),
		budgetBar,
		status,
		detail,
	)

	return boxStyle.Width(m.width - 2).Render(content)
}

// =============================================================================
// Pipeline Statistics
// =============================================================================

func (m Model) renderPipelineStats() string {
	if m.snap == nil {
		return ""
	}

	var source, committed, capacity int
	var chunks, retractions, grows uint64
	for _, st := range m.snap.Streams {
		source += st.SourceLen
		committed += st.Committed
		capacity += st.Capacity
		chunks += st.Chunks
		retractions += st.Retractions
		grows += st.Grows
	}

	ratio := m.CompressionRatio()
	ratioLabel := GetRatioStyle(ratio).Render(formatRatio(ratio))

	rows := []string{
		renderStatRow("Source Samples", formatNumber(int64(source)),
			formatRate(m.snap.Upload.PointsPerSec10s)),
		renderStatRow("Committed Points", formatNumber(int64(committed)),
			fmt.Sprintf("cap %s", formatNumber(int64(capacity)))),
		lipgloss.JoinHorizontal(lipgloss.Left,
			labelWideStyle.Render("Compression Ratio:"),
			ratioLabel,
		),
		renderStatRow("Chunks Uploaded", formatNumber(int64(chunks)),
			fmt.Sprintf("%s retractions", formatNumber(int64(retractions)))),
		renderStatRow("Buffer Grows", formatNumber(int64(grows)), ""),
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		append([]string{sectionHeaderStyle.Render("Pipeline")}, rows...)...,
	)

	return boxStyle.Width(m.width - 2).Render(content)
}

func renderStatRow(label, value, rate string) string {
	row := lipgloss.JoinHorizontal(lipgloss.Left,
		labelWideStyle.Render(label+":"),
		valueStyle.Width(12).Render(value),
	)
	if rate != "" {
		row = lipgloss.JoinHorizontal(lipgloss.Left,
			row,
			mutedStyle.Render(" ("),
			valueStyle.Render(rate),
			mutedStyle.Render(")"),
		)
	}
	return row
}

// =============================================================================
// Signal Table
// =============================================================================

// renderSignalTable renders up to maxRows signal rows.
func (m Model) renderSignalTable(maxRows int) string {
	if m.snap == nil || len(m.snap.Streams) == 0 {
		return ""
	}

	header := tableHeaderStyle.Render(fmt.Sprintf(
		"%-12s %-11s %10s %10s %8s %8s %7s %6s %s",
		"SIGNAL", "MODE", "SAMPLES", "POINTS", "RATIO", "CAP", "CHUNKS", "GROWS", "STATE"))

	rows := []string{header}
	shown := 0
	for i, st := range m.snap.Streams {
		if shown >= maxRows {
			remaining := len(m.snap.Streams) - shown
			rows = append(rows, dimStyle.Render(
				fmt.Sprintf("  … %d more (press d for all)", remaining)))
			break
		}

		rowStyle := tableRowEvenStyle
		if i%2 == 1 {
			rowStyle = tableRowOddStyle
		}
		rows = append(rows, rowStyle.Render(renderSignalRow(st)))
		shown++
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		append([]string{sectionHeaderStyle.Render("Signals")}, rows...)...,
	)

	return boxStyle.Width(m.width - 2).Render(content)
}

func renderSignalRow(st stream.Stats) string {
	ratio := "N/A"
	if st.Committed > 0 {
		ratio = fmt.Sprintf("%.2fx", float64(st.SourceLen)/float64(st.Committed))
	}

	state := "ok"
	if st.Failed {
		state = statusError.Render("FAILED")
	}

	return fmt.Sprintf("%-12s %-11s %10s %10s %8s %8s %7s %6d %s",
		truncate(st.SignalID, 12),
		st.Mode,
		formatNumber(int64(st.SourceLen)),
		formatNumber(int64(st.Committed)),
		ratio,
		formatNumber(int64(st.Capacity)),
		formatNumber(int64(st.Chunks)),
		st.Grows,
		state,
	)
}

// =============================================================================
// Upload Statistics
// =============================================================================

func (m Model) renderUploadStats() string {
	if m.snap == nil {
		return ""
	}
	u := m.snap.Upload

	rows := []string{
		renderStatRow("Total Uploaded", formatBytes(u.TotalBytes),
			formatBytes(int64(u.BytesPerSec10s))+"/s"),
		renderStatRow("Total Points", formatNumber(u.TotalPoints),
			formatRate(u.PointsPerSec10s)),
		lipgloss.JoinHorizontal(lipgloss.Left,
			labelWideStyle.Render("Windows (1s/10s/60s):"),
			valueStyle.Render(fmt.Sprintf("%s/s  %s/s  %s/s",
				formatBytes(int64(u.BytesPerSec1s)),
				formatBytes(int64(u.BytesPerSec10s)),
				formatBytes(int64(u.BytesPerSec60s)))),
		),
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		append([]string{sectionHeaderStyle.Render("Upload")}, rows...)...,
	)

	return boxStyle.Width(m.width - 2).Render(content)
}

// =============================================================================
// Log Panel
// =============================================================================

func (m Model) renderLogPanel() string {
	lines := m.logs.RecentLines(5)
	if len(lines) == 0 {
		return ""
	}

	rendered := make([]string, 0, len(lines)+1)
	rendered = append(rendered, sectionHeaderStyle.Render("Recent Logs"))
	for _, line := range lines {
		rendered = append(rendered, dimStyle.Render(truncate(line, m.width-6)))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, rendered...)
	return boxStyle.Width(m.width - 2).Render(content)
}

// =============================================================================
// Footer
// =============================================================================

func (m Model) renderFooter() string {
	keys := []string{
		"q: quit",
		"d: toggle detail",
		"r: refresh",
	}

	left := strings.Join(keys, " │ ")
	right := fmt.Sprintf("metrics: http://%s/metrics", m.metricsAddr)

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}

	return footerStyle.Render(left + strings.Repeat(" ", gap) + right)
}

// =============================================================================
// Helpers
// =============================================================================

func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	if max <= 1 {
		return s[:max]
	}
	return s[:max-1] + "…"
}
