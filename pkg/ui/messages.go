// Package ui provides the Bubble Tea TUI for the RFQ desk.
package ui

import (
	"time"

	executionDomain "github.com/quotedesk/rfq-aggregator/business/execution/domain"
	quotingApp "github.com/quotedesk/rfq-aggregator/business/quoting/app"
)

// Message types for TUI updates

// StreamUpdateMsg carries one streaming cycle's outcome.
type StreamUpdateMsg struct {
	Event quotingApp.UpdateEvent
}

// ExecutionMsg is sent when an execution reaches its terminal state.
type ExecutionMsg struct {
	Result *executionDomain.ExecutionResult
}

// ConnectionStatusMsg is sent when a provider's connection state changes.
type ConnectionStatusMsg struct {
	Name      string
	Connected bool
	Latency   time.Duration
}

// ErrorMsg is sent when an error occurs.
type ErrorMsg struct {
	Error error
}

// TickMsg is sent periodically for UI updates.
type TickMsg struct{}

// StartModulesMsg signals that modules should start loading.
type StartModulesMsg struct{}

// LogMsg is sent to display a log message in the UI.
type LogMsg struct {
	Level   string // "info", "warn", "error"
	Message string
}

// StartupMsg is sent during application startup to show progress.
type StartupMsg struct {
	Step    string // Current step name
	Status  string // "connecting", "connected", "failed"
	Message string // Optional message
}
