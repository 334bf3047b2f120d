// Package components provides reusable TUI components.
package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// QuoteRow is one provider's standing in the leaderboard.
type QuoteRow struct {
	Provider    string
	RawPrice    decimal.Decimal
	Latency     time.Duration
	TimeLeft    time.Duration
	Locked      bool
	ClientPrice decimal.Decimal // filled on the locked row only
}

// LeaderboardComponent renders the per-provider quote table with the
// locked row highlighted.
type LeaderboardComponent struct {
	rows      []QuoteRow
	symbol    string
	side      string
	pollCount int
}

// NewLeaderboardComponent creates a new leaderboard component.
func NewLeaderboardComponent() *LeaderboardComponent {
	return &LeaderboardComponent{}
}

// Update replaces the leaderboard contents.
func (l *LeaderboardComponent) Update(rows []QuoteRow, symbol, side string, pollCount int) {
	l.rows = rows
	l.symbol = symbol
	l.side = side
	l.pollCount = pollCount
}

// View renders the leaderboard.
func (l *LeaderboardComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	mutedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	lockedStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#10B981"))

	var sb strings.Builder
	title := "LP LEADERBOARD"
	if l.symbol != "" {
		title = fmt.Sprintf("LP LEADERBOARD  %s %s  (poll #%d)", l.symbol, l.side, l.pollCount)
	}
	sb.WriteString(headerStyle.Render(title))
	sb.WriteString("\n\n")

	if len(l.rows) == 0 {
		sb.WriteString(mutedStyle.Render("  Waiting for quotes..."))
		return sb.String()
	}

	sb.WriteString(mutedStyle.Render(fmt.Sprintf("  %-10s %14s %9s %8s", "PROVIDER", "RAW PRICE", "LATENCY", "TTL")))
	sb.WriteString("\n")

	for _, row := range l.rows {
		line := fmt.Sprintf("  %-10s %14s %7dms %7.1fs",
			row.Provider,
			row.RawPrice.StringFixed(2),
			row.Latency.Milliseconds(),
			row.TimeLeft.Seconds(),
		)
		if row.Locked {
			line += fmt.Sprintf("  ⬅ LOCKED @ %s", row.ClientPrice.StringFixed(2))
			sb.WriteString(lockedStyle.Render(line))
		} else {
			sb.WriteString(line)
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
