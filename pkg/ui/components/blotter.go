package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// ExecutionRow is one settled execution in the blotter.
type ExecutionRow struct {
	Time     string
	Provider string
	Symbol   string
	Side     string
	Status   string
	NetPnL   decimal.Decimal
	PnLAsset string
	PnLBps   decimal.Decimal
	Error    string
}

// BlotterComponent renders recent executions, newest first.
type BlotterComponent struct {
	rows    []ExecutionRow
	maxRows int
}

// NewBlotterComponent creates a blotter that keeps the last maxRows entries.
func NewBlotterComponent(maxRows int) *BlotterComponent {
	if maxRows <= 0 {
		maxRows = 20
	}
	return &BlotterComponent{maxRows: maxRows}
}

// Add prepends an execution row.
func (b *BlotterComponent) Add(row ExecutionRow) {
	b.rows = append([]ExecutionRow{row}, b.rows...)
	if len(b.rows) > b.maxRows {
		b.rows = b.rows[:b.maxRows]
	}
}

// Clear empties the blotter.
func (b *BlotterComponent) Clear() {
	b.rows = nil
}

// View renders the blotter.
func (b *BlotterComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	mutedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	winStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	lossStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))

	var sb strings.Builder
	sb.WriteString(headerStyle.Render("EXECUTION BLOTTER"))
	sb.WriteString("\n\n")

	if len(b.rows) == 0 {
		sb.WriteString(mutedStyle.Render("  No executions yet"))
		return sb.String()
	}

	for _, row := range b.rows {
		if row.Status != "SUCCESS" {
			line := fmt.Sprintf("  %s %-10s %s %s FAILED: %s",
				row.Time, row.Provider, row.Symbol, row.Side, row.Error)
			sb.WriteString(lossStyle.Render(line))
			sb.WriteString("\n")
			continue
		}

		line := fmt.Sprintf("  %s %-10s %s %-4s %12s %s (%s bps)",
			row.Time, row.Provider, row.Symbol, row.Side,
			row.NetPnL.StringFixed(6), row.PnLAsset, row.PnLBps.StringFixed(2))
		if row.NetPnL.IsNegative() {
			sb.WriteString(lossStyle.Render(line))
		} else {
			sb.WriteString(winStyle.Render(line))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
