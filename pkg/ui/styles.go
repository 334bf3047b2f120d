// Package ui provides the Bubble Tea TUI for the RFQ desk.
package ui

import "github.com/charmbracelet/lipgloss"

// Colors
var (
	ColorPrimary = lipgloss.Color("#7C3AED") // Purple
	ColorProfit  = lipgloss.Color("#10B981") // Green
	ColorDanger  = lipgloss.Color("#EF4444") // Red
	ColorWarning = lipgloss.Color("#F59E0B") // Amber
	ColorMuted   = lipgloss.Color("#6B7280") // Gray
	ColorBorder  = lipgloss.Color("#374151") // Dark gray
)

// Styles
var (
	// Box styles
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	// Title style
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(ColorPrimary).
			Padding(0, 2)

	// Status styles
	StatusConnected = lipgloss.NewStyle().
			Foreground(ColorProfit).
			Bold(true)

	StatusDisconnected = lipgloss.NewStyle().
				Foreground(ColorDanger).
				Bold(true)

	// Value styles
	MutedValue = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// Help style
	HelpStyle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			Padding(0, 1)
)
