// Package ui provides the Bubble Tea TUI for the RFQ desk.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	quotingApp "github.com/quotedesk/rfq-aggregator/business/quoting/app"
	quotingDomain "github.com/quotedesk/rfq-aggregator/business/quoting/domain"
	"github.com/quotedesk/rfq-aggregator/pkg/ui/components"
)

// ConnectionInfo holds connection state and latency for one provider.
type ConnectionInfo struct {
	Connected bool
	Latency   time.Duration
	LastSeen  time.Time
}

// StartupStep represents a step in the startup process.
type StartupStep struct {
	Name   string
	Status string // "pending", "connecting", "connected", "failed"
}

// Phase represents the current UI phase.
type Phase string

const (
	PhaseWelcome   Phase = "welcome"   // Initial welcome screen
	PhaseStartup   Phase = "startup"   // Loading/connecting
	PhaseDashboard Phase = "dashboard" // Main dashboard
)

// WelcomeDuration is how long the welcome screen shows before auto-advancing.
const WelcomeDuration = 2 * time.Second

// ErrorEntry represents an error with timestamp.
type ErrorEntry struct {
	Message   string
	Timestamp time.Time
}

// Model is the main Bubble Tea model for the TUI.
type Model struct {
	// Components
	leaderboard *components.LeaderboardComponent
	blotter     *components.BlotterComponent
	keys        KeyMap

	// Phase state
	phase        Phase
	welcomeStart time.Time

	// State
	ready           bool
	quitting        bool
	width           int
	height          int
	connectionState map[string]*ConnectionInfo
	lastUpdate      time.Time
	errors          []ErrorEntry // Persistent error panel (last 3)
	logs            []string     // Recent log messages

	// Streaming state
	lockedQuote    *quotingDomain.ClientQuote
	lockedProvider string
	pollCount      int
	executing      bool
	execCount      int
	activityFeed   []string

	// Startup state
	startupComplete bool
	startupSteps    map[string]*StartupStep
	startupTime     time.Time
}

// New creates a new TUI model.
func New() Model {
	now := time.Now()
	return Model{
		leaderboard:     components.NewLeaderboardComponent(),
		blotter:         components.NewBlotterComponent(20),
		keys:            DefaultKeyMap(),
		phase:           PhaseWelcome,
		welcomeStart:    now,
		connectionState: make(map[string]*ConnectionInfo),
		logs:            make([]string, 0, 10),
		errors:          make([]ErrorEntry, 0, 3),
		activityFeed:    make([]string, 0, 8),
		startupSteps: map[string]*StartupStep{
			"config":    {Name: "Loading configuration", Status: "pending"},
			"providers": {Name: "Connecting liquidity providers", Status: "pending"},
			"streamer":  {Name: "Starting quote stream", Status: "pending"},
		},
		startupTime: now,
	}
}

// Init initializes the TUI model.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// tickCmd returns a command that sends a tick every 100ms for smooth animations.
func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg{}
	})
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Always allow quit
		if key.Matches(msg, m.keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
		// During welcome phase, any other key skips to startup
		if m.phase == PhaseWelcome {
			m.phase = PhaseStartup
			m.startupTime = time.Now()
			// Trigger callback directly (don't use Send() from within Update)
			if OnStartModules != nil {
				go OnStartModules()
			}
			return m, tickCmd()
		}
		// Normal key handling
		switch {
		case key.Matches(msg, m.keys.Confirm):
			if m.lockedQuote != nil && !m.executing {
				m.executing = true
				m.activityFeed = addActivity(m.activityFeed,
					fmt.Sprintf("Confirming %s @ %s via %s",
						m.lockedQuote.Symbol, m.lockedQuote.ClientPrice.StringFixed(2), m.lockedProvider))
				if OnConfirm != nil {
					go OnConfirm()
				}
			}
			return m, nil
		case key.Matches(msg, m.keys.Requote):
			m.activityFeed = addActivity(m.activityFeed, "Re-quote requested")
			if OnRequote != nil {
				go OnRequote()
			}
			return m, nil
		case key.Matches(msg, m.keys.Clear):
			m.blotter.Clear()
			return m, nil
		case msg.String() == "e":
			// Clear errors
			m.errors = make([]ErrorEntry, 0, 3)
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

	case TickMsg:
		// Check if welcome timeout has elapsed
		if m.phase == PhaseWelcome && time.Since(m.welcomeStart) >= WelcomeDuration {
			m.phase = PhaseStartup
			m.startupTime = time.Now()
			// Trigger callback directly (don't use Send() from within Update)
			if OnStartModules != nil {
				go OnStartModules()
			}
		}
		return m, tickCmd()

	case StreamUpdateMsg:
		m.applyStreamEvent(msg.Event)
		m.lastUpdate = time.Now()

	case ExecutionMsg:
		m.executing = false
		if msg.Result != nil {
			r := msg.Result
			row := components.ExecutionRow{
				Time:     r.ExecutedAt.Format("15:04:05"),
				Provider: r.Provider,
				Symbol:   r.Symbol,
				Side:     string(r.ClientSide),
				Status:   string(r.Status),
				NetPnL:   r.NetPnL,
				PnLAsset: r.PnLAsset,
				PnLBps:   r.PnLBps,
				Error:    r.ErrorMessage,
			}
			m.blotter.Add(row)
			m.execCount++

			if r.Status == "SUCCESS" {
				m.activityFeed = addActivity(m.activityFeed,
					fmt.Sprintf("Executed %s via %s: %s %s net (%s bps)",
						r.Symbol, r.Provider, r.NetPnL.StringFixed(6), r.PnLAsset, r.PnLBps.StringFixed(2)))
			} else {
				m.activityFeed = addActivity(m.activityFeed,
					fmt.Sprintf("Execution failed via %s: %s", r.Provider, r.ErrorMessage))
			}
			m.lastUpdate = time.Now()
		}

	case ConnectionStatusMsg:
		m.connectionState[msg.Name] = &ConnectionInfo{
			Connected: msg.Connected,
			Latency:   msg.Latency,
			LastSeen:  time.Now(),
		}
		m.lastUpdate = time.Now()

		if step, ok := m.startupSteps["providers"]; ok {
			if msg.Connected {
				step.Status = "connected"
			} else {
				step.Status = "connecting"
			}
		}
		if m.startupSteps["config"] != nil {
			m.startupSteps["config"].Status = "done"
		}

	case ErrorMsg:
		m.executing = false
		m.logs = addLog(m.logs, "error", msg.Error.Error())
		// Add to persistent errors (keep last 3)
		m.errors = append(m.errors, ErrorEntry{
			Message:   msg.Error.Error(),
			Timestamp: time.Now(),
		})
		if len(m.errors) > 3 {
			m.errors = m.errors[len(m.errors)-3:]
		}

	case LogMsg:
		m.logs = addLog(m.logs, msg.Level, msg.Message)

	case StartupMsg:
		if step, ok := m.startupSteps[msg.Step]; ok {
			step.Status = msg.Status
		}
		// Check if all steps are complete
		allConnected := true
		for _, step := range m.startupSteps {
			if step.Status != "connected" && step.Status != "done" {
				allConnected = false
				break
			}
		}
		if allConnected {
			m.startupComplete = true
		}
	}

	return m, nil
}

// applyStreamEvent folds one streaming transition into the model.
func (m *Model) applyStreamEvent(event quotingApp.UpdateEvent) {
	m.pollCount = event.PollCount

	switch event.Kind {
	case quotingApp.EventLocked:
		m.lockedQuote = event.Locked
		m.lockedProvider = event.LockedProvider
		m.activityFeed = addActivity(m.activityFeed,
			fmt.Sprintf("Locked %s @ %s", event.LockedProvider, event.Locked.ClientPrice.StringFixed(2)))
		if m.startupSteps["streamer"] != nil {
			m.startupSteps["streamer"].Status = "done"
		}
		m.startupComplete = true
	case quotingApp.EventImprovement:
		m.activityFeed = addActivity(m.activityFeed,
			fmt.Sprintf("Improved: switched to %s @ %s (was %s)",
				event.LockedProvider, event.Locked.ClientPrice.StringFixed(2), m.lockedProvider))
		m.lockedQuote = event.Locked
		m.lockedProvider = event.LockedProvider
	case quotingApp.EventExpired:
		m.activityFeed = addActivity(m.activityFeed,
			fmt.Sprintf("Quote from %s expired", event.LockedProvider))
		m.lockedQuote = nil
		m.lockedProvider = ""
	case quotingApp.EventNoQuotes:
		m.activityFeed = addActivity(m.activityFeed, "No quotes available this cycle")
		m.lockedQuote = nil
		m.lockedProvider = ""
	case quotingApp.EventNoChange:
		m.lockedQuote = event.Locked
	}

	// Rebuild the leaderboard from this cycle's provider quotes.
	now := time.Now()
	rows := make([]components.QuoteRow, 0, len(event.Providers))
	for _, pq := range event.Providers {
		row := components.QuoteRow{
			Provider: pq.Provider,
			RawPrice: pq.Price,
			Latency:  pq.Latency,
			TimeLeft: pq.TimeRemaining(now),
			Locked:   pq.Provider == event.LockedProvider,
		}
		if row.Locked && event.Locked != nil {
			row.ClientPrice = event.Locked.ClientPrice
		}
		rows = append(rows, row)
	}

	symbol, side := "", ""
	if event.Locked != nil {
		symbol = event.Locked.Symbol
		side = string(event.Locked.Side)
	}
	m.leaderboard.Update(rows, symbol, side, event.PollCount)
}

// addLog adds a log message and returns the updated slice (keeps last 5).
func addLog(logs []string, level, message string) []string {
	timestamp := time.Now().Format("15:04:05")
	logLine := fmt.Sprintf("[%s] %s: %s", timestamp, level, message)
	logs = append(logs, logLine)
	if len(logs) > 5 {
		logs = logs[len(logs)-5:]
	}
	return logs
}

// addActivity adds an activity message and returns the updated slice (keeps last 6).
func addActivity(feed []string, message string) []string {
	timestamp := time.Now().Format("15:04:05")
	line := fmt.Sprintf("[%s] %s", timestamp, message)
	feed = append(feed, line)
	if len(feed) > 6 {
		feed = feed[len(feed)-6:]
	}
	return feed
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return "\n  Goodbye!\n\n"
	}

	// Phase-based rendering
	switch m.phase {
	case PhaseWelcome:
		return m.renderWelcomeScreen()
	case PhaseStartup:
		// Show startup until the first lock lands
		if !m.startupComplete {
			return m.renderStartupScreen()
		}
		// Transition to dashboard when ready
		m.phase = PhaseDashboard
		fallthrough
	case PhaseDashboard:
		// Continue to main dashboard
	}

	var b strings.Builder

	// Title
	title := TitleStyle.Render(" 📡 RFQ Aggregator Desk ")
	b.WriteString(title)
	b.WriteString("\n\n")

	// Status bar
	b.WriteString(m.renderStatusBar())
	b.WriteString("\n\n")

	// Main content: leaderboard on left, activity + blotter on right
	leftCol := m.leaderboard.View()

	var rightContent strings.Builder
	rightContent.WriteString(m.renderActivityFeed())
	rightContent.WriteString("\n\n")
	rightContent.WriteString(m.blotter.View())
	rightCol := rightContent.String()

	// Side by side if enough width
	if m.width > 100 {
		left := BoxStyle.Width(m.width/2 - 2).Render(leftCol)
		right := BoxStyle.Width(m.width/2 - 2).Render(rightCol)
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, right))
	} else {
		b.WriteString(BoxStyle.Width(m.width - 4).Render(leftCol))
		b.WriteString("\n")
		b.WriteString(BoxStyle.Width(m.width - 4).Render(rightCol))
	}

	b.WriteString("\n\n")

	// Persistent error panel (show last 3 errors)
	if len(m.errors) > 0 {
		errorStyle := lipgloss.NewStyle().Foreground(ColorDanger)
		errorHeader := lipgloss.NewStyle().Bold(true).Foreground(ColorDanger)
		mutedError := lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))

		b.WriteString(errorHeader.Render("ERRORS"))
		b.WriteString(mutedError.Render(" (e: clear)"))
		b.WriteString("\n")
		for _, err := range m.errors {
			ago := time.Since(err.Timestamp).Round(time.Second)
			b.WriteString(errorStyle.Render(fmt.Sprintf("  • %s ", err.Message)))
			b.WriteString(mutedError.Render(fmt.Sprintf("(%s ago)", ago)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	// Help
	helpText := "q: quit • enter: confirm • r: re-quote • c: clear blotter"
	if m.executing {
		execStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F59E0B"))
		b.WriteString(execStyle.Render("⏳ EXECUTING"))
		b.WriteString(" • ")
	}
	b.WriteString(HelpStyle.Render(helpText))

	return b.String()
}

// renderActivityFeed renders the recent activity feed.
func (m Model) renderActivityFeed() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	mutedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	lockStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#60A5FA"))

	var sb strings.Builder
	sb.WriteString(headerStyle.Render("LIVE ACTIVITY"))
	sb.WriteString("\n\n")

	if len(m.activityFeed) == 0 {
		sb.WriteString(mutedStyle.Render("  Waiting for quotes..."))
	} else {
		for _, activity := range m.activityFeed {
			if strings.Contains(activity, "Locked") || strings.Contains(activity, "Improved") {
				sb.WriteString(lockStyle.Render("  " + activity))
			} else {
				sb.WriteString(mutedStyle.Render("  " + activity))
			}
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

// renderWelcomeScreen renders the animated welcome screen.
func (m Model) renderWelcomeScreen() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#7C3AED"))

	goldStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#F59E0B"))

	mutedStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#6B7280"))

	greenStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#10B981"))

	// Animated dots based on time
	elapsed := time.Since(m.welcomeStart)
	dotCount := int(elapsed.Milliseconds()/300) % 4
	dots := strings.Repeat(".", dotCount)

	var sb strings.Builder

	// Center the content vertically
	sb.WriteString("\n\n\n\n")

	// ASCII art logo
	logo := `
   ██████╗ ███████╗ ██████╗
   ██╔══██╗██╔════╝██╔═══██╗
   ██████╔╝█████╗  ██║   ██║
   ██╔══██╗██╔══╝  ██║▄▄ ██║
   ██║  ██║██║     ╚██████╔╝
   ╚═╝  ╚═╝╚═╝      ╚══▀▀═╝
`
	sb.WriteString(titleStyle.Render(logo))
	sb.WriteString("\n")

	// Subtitle
	subtitle := "        L P   A G G R E G A T O R"
	sb.WriteString(mutedStyle.Render(subtitle))
	sb.WriteString("\n\n\n")

	tagline := "       💱  Best quote wins the lock  💱"
	sb.WriteString(goldStyle.Render(tagline))
	sb.WriteString("\n\n\n")

	// Loading indicator
	loading := fmt.Sprintf("           Initializing%s", dots)
	sb.WriteString(greenStyle.Render(loading))
	sb.WriteString("\n\n")

	// Skip hint
	hint := "     Press any key to skip, or wait..."
	sb.WriteString(mutedStyle.Render(hint))
	sb.WriteString("\n")

	return sb.String()
}

// renderStartupScreen renders the loading/startup screen.
func (m Model) renderStartupScreen() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#7C3AED")).
		MarginBottom(1)

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FFFFFF"))

	mutedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	successStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	connectingStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	failedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))

	var sb strings.Builder

	sb.WriteString("\n\n")
	sb.WriteString(titleStyle.Render("  📡 RFQ Aggregator Desk"))
	sb.WriteString("\n\n")
	sb.WriteString(headerStyle.Render("  Starting up..."))
	sb.WriteString("\n\n")

	// Show startup steps in order
	stepOrder := []string{"config", "providers", "streamer"}
	for _, key := range stepOrder {
		step, ok := m.startupSteps[key]
		if !ok {
			continue
		}

		var icon, statusText string
		var style lipgloss.Style

		switch step.Status {
		case "connected", "done":
			icon = "✓"
			statusText = "Ready"
			style = successStyle
		case "connecting":
			// Animated spinner based on time
			spinners := []string{"◐", "◓", "◑", "◒"}
			idx := int(time.Since(m.startupTime).Milliseconds()/200) % len(spinners)
			icon = spinners[idx]
			statusText = "Connecting..."
			style = connectingStyle
		case "failed":
			icon = "✗"
			statusText = "Failed"
			style = failedStyle
		default:
			icon = "○"
			statusText = "Pending"
			style = mutedStyle
		}

		sb.WriteString(fmt.Sprintf("  %s %s %s\n",
			style.Render(icon),
			mutedStyle.Render(step.Name),
			style.Render(statusText),
		))
	}

	sb.WriteString("\n")
	elapsed := time.Since(m.startupTime).Round(time.Second)
	sb.WriteString(mutedStyle.Render(fmt.Sprintf("  Elapsed: %s", elapsed)))
	sb.WriteString("\n\n")

	sb.WriteString(mutedStyle.Render("  Waiting for first locked quote..."))
	sb.WriteString("\n")

	return sb.String()
}

func (m Model) renderStatusBar() string {
	var parts []string

	// Locked quote with live TTL countdown
	if m.lockedQuote != nil {
		remaining := m.lockedQuote.TimeRemaining(time.Now())
		lockStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
		if remaining < 3*time.Second {
			lockStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")).Bold(true)
		}
		parts = append(parts, lockStyle.Render(fmt.Sprintf("🔒 %s @ %s (%.1fs)",
			m.lockedProvider, m.lockedQuote.ClientPrice.StringFixed(2), remaining.Seconds())))
	} else {
		parts = append(parts, MutedValue.Render("🔓 unlocked"))
	}

	// Poll counter
	parts = append(parts, fmt.Sprintf("Poll: #%d", m.pollCount))

	// Execution count
	if m.execCount > 0 {
		execStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
		parts = append(parts, execStyle.Render(fmt.Sprintf("Fills: %d", m.execCount)))
	}

	// Connection status
	for name, info := range m.connectionState {
		var statusStyle lipgloss.Style
		var icon string
		var status string
		if info != nil && info.Connected {
			statusStyle = StatusConnected
			icon = "●"
			if info.Latency > 0 {
				status = fmt.Sprintf("%s (%dms)", name, info.Latency.Milliseconds())
			} else {
				status = name
			}
		} else {
			statusStyle = StatusDisconnected
			icon = "○"
			status = name + " (disconnected)"
		}
		parts = append(parts, statusStyle.Render(icon+" "+status))
	}

	// Last update with activity indicator
	if !m.lastUpdate.IsZero() {
		ago := time.Since(m.lastUpdate).Round(time.Second)
		indicator := ""
		if ago < 2*time.Second {
			indicator = "▪"
		}
		parts = append(parts, MutedValue.Render(fmt.Sprintf("Updated: %s ago %s", ago, indicator)))
	}

	return strings.Join(parts, "  │  ")
}

// Program holds the Bubble Tea program instance for external access.
var Program *tea.Program

// OnStartModules is called when the welcome screen completes and modules should start.
// This is set by main.go to signal when to begin loading modules.
var OnStartModules func()

// OnConfirm is called when the operator confirms the locked quote.
var OnConfirm func()

// OnRequote is called when the operator requests a fresh quote stream.
var OnRequote func()

// Run starts the Bubble Tea program.
func Run() error {
	Program = tea.NewProgram(New(), tea.WithAltScreen())
	_, err := Program.Run()
	return err
}

// Send sends a message to the running program.
func Send(msg tea.Msg) {
	if Program != nil {
		Program.Send(msg)
	}
	// Call OnStartModules callback when StartModulesMsg is sent
	if _, ok := msg.(StartModulesMsg); ok && OnStartModules != nil {
		OnStartModules()
	}
}
