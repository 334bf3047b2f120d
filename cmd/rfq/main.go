// Package main is the entry point for the RFQ aggregation desk.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/quotedesk/rfq-aggregator/business/execution"
	executionDI "github.com/quotedesk/rfq-aggregator/business/execution/di"
	"github.com/quotedesk/rfq-aggregator/business/quoting"
	quotingApp "github.com/quotedesk/rfq-aggregator/business/quoting/app"
	quotingDI "github.com/quotedesk/rfq-aggregator/business/quoting/di"
	quotingDomain "github.com/quotedesk/rfq-aggregator/business/quoting/domain"
	quotingInfra "github.com/quotedesk/rfq-aggregator/business/quoting/infra"
	"github.com/quotedesk/rfq-aggregator/internal/apm"
	"github.com/quotedesk/rfq-aggregator/internal/config"
	"github.com/quotedesk/rfq-aggregator/internal/health"
	"github.com/quotedesk/rfq-aggregator/internal/logger"
	"github.com/quotedesk/rfq-aggregator/internal/market"
	"github.com/quotedesk/rfq-aggregator/internal/metrics"
	"github.com/quotedesk/rfq-aggregator/internal/monolith"
	"github.com/quotedesk/rfq-aggregator/pkg/ui"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	// Parse flags
	configPath := flag.String("config", "", "Path to configuration file")
	cliMode := flag.Bool("cli", false, "Run in CLI mode with interactive prompt (no TUI)")
	showVersion := flag.Bool("version", false, "Show version information")
	symbol := flag.String("symbol", "BTCUSDT", "Pair symbol for the TUI quote stream")
	side := flag.String("side", "BUY", "Client side for the TUI quote stream (BUY/SELL)")
	amount := flag.String("amount", "1.5", "Amount for the TUI quote stream")
	target := flag.String("target", "", "Target asset for the TUI quote stream (defaults to the pair base)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("rfq-aggregator %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	// TUI is the default, CLI is for debugging and scripted runs
	tuiMode := !*cliMode

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		if !tuiMode {
			fmt.Fprintf(os.Stderr, "received shutdown signal: %v\n", sig)
		}
		cancel()
	}()

	req := requestFlags{symbol: *symbol, side: *side, amount: *amount, target: *target}
	if err := run(ctx, *configPath, tuiMode, req); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// requestFlags carries the TUI-mode quote request from the command line.
type requestFlags struct {
	symbol string
	side   string
	amount string
	target string
}

func run(ctx context.Context, configPath string, tuiMode bool, reqFlags requestFlags) error {
	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Set TUI mode in config so modules know
	cfg.App.TUIMode = tuiMode

	// Setup logger (only log to stderr in CLI mode)
	logLevel := logger.LevelInfo
	switch cfg.App.LogLevel {
	case "debug":
		logLevel = logger.LevelDebug
	case "warn":
		logLevel = logger.LevelWarn
	case "error":
		logLevel = logger.LevelError
	}

	var log *logger.Logger
	if tuiMode {
		// In TUI mode, suppress logs (discard output)
		log = logger.New(io.Discard, logLevel, cfg.App.Name, nil)
	} else {
		log = logger.New(os.Stderr, logLevel, cfg.App.Name, nil)
		log.Info(ctx, "starting RFQ aggregation desk",
			"version", version,
			"environment", cfg.App.Environment,
		)
	}

	// Initialize observability if enabled
	var traceProvider apm.TraceProvider
	if cfg.Telemetry.Enabled {
		if cfg.Telemetry.ServiceName != "" {
			os.Setenv("OTEL_SERVICE_NAME", cfg.Telemetry.ServiceName)
		}
		if cfg.Telemetry.OTLPEndpoint != "" {
			os.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Telemetry.OTLPEndpoint)
		}

		traceProvider = apm.NewTraceProvider(log, apm.WithProvider(apm.ZipkinProvider, log))
		log.Info(ctx, "tracing initialized", "provider", "zipkin", "endpoint", cfg.Telemetry.OTLPEndpoint)

		metrics.NewMetricProvider(
			metrics.WithServiceName(cfg.Telemetry.ServiceName),
			metrics.WithProviderConfig(metrics.ProviderCfg{
				Provider: metrics.PrometheusProvider,
			}),
		)

		// Start Prometheus metrics server in background
		port := cfg.Telemetry.PrometheusPort
		if port == 0 {
			port = 9090
		}
		go metrics.ServePrometheusMetrics(metrics.WithPort(strconv.Itoa(port)))
		log.Info(ctx, "prometheus metrics server started", "port", port)
	}
	defer func() {
		if traceProvider != nil {
			traceProvider.Stop()
		}
	}()

	// Start health check server
	healthPort := cfg.Telemetry.HealthPort
	if healthPort == 0 {
		healthPort = 8081
	}
	healthServer := health.NewServer(healthPort, version)
	if err := healthServer.Start(); err != nil {
		log.Warn(ctx, "failed to start health server", "error", err)
	} else {
		log.Info(ctx, "health server started", "port", healthPort)
	}
	defer healthServer.Stop(ctx)

	// Create monolith (application container)
	mono, err := monolith.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create monolith: %w", err)
	}

	// Define modules in dependency order
	modules := []monolith.Module{
		&quoting.Module{},   // Providers, aggregator, streamer
		&execution.Module{}, // Depends on quoting for providers
	}

	// Register all module services
	if err := mono.RegisterModules(modules...); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}

	if tuiMode {
		// Start modules lazily so the TUI shows its welcome screen first.
		startFunc := func() error {
			return mono.StartModules(ctx, modules...)
		}
		return runTUI(ctx, mono, startFunc, reqFlags)
	}

	// CLI mode: Start modules synchronously
	if err := mono.StartModules(ctx, modules...); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}

	return runCLI(ctx, mono, log)
}

// buildRequest validates the request fields against the pair registry.
func buildRequest(pairs *market.Registry, symbol, sideStr, amountStr, targetAsset string) (quotingDomain.QuoteRequest, error) {
	pair, ok := pairs.Get(strings.ToUpper(symbol))
	if !ok {
		return quotingDomain.QuoteRequest{}, fmt.Errorf("unknown pair %q", symbol)
	}

	side, err := quotingDomain.ParseSide(sideStr)
	if err != nil {
		return quotingDomain.QuoteRequest{}, err
	}

	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return quotingDomain.QuoteRequest{}, fmt.Errorf("invalid amount %q", amountStr)
	}

	if targetAsset == "" {
		targetAsset = pair.Base()
	}
	return quotingDomain.NewQuoteRequest(side, amount, strings.ToUpper(targetAsset), pair)
}

// runTUI drives the dashboard: the stream pump forwards session events to the
// UI, and the confirm callback hands the locked quote to the execution manager.
func runTUI(ctx context.Context, mono monolith.Monolith, startFunc func() error, reqFlags requestFlags) error {
	// Channel to receive StartModulesMsg signal
	startSignal := make(chan struct{}, 1)
	ui.OnStartModules = func() {
		select {
		case startSignal <- struct{}{}:
		default:
		}
	}

	streamer := func() *quotingApp.QuoteStreamer { return quotingDI.GetStreamer(mono.Services()) }

	ui.OnConfirm = func() {
		qs := streamer()
		locked := qs.Locked()
		if locked == nil {
			ui.Send(ui.ErrorMsg{Error: fmt.Errorf("no locked quote to confirm")})
			return
		}
		// Freeze the stream before executing so the lock cannot move
		// underneath the trade.
		qs.Stop()

		manager := executionDI.GetManager(mono.Services())
		result, err := manager.Execute(ctx, locked.Quote, locked.ProviderQuote)
		if err != nil {
			ui.Send(ui.ErrorMsg{Error: err})
			return
		}
		ui.Send(ui.ExecutionMsg{Result: result})
	}

	ui.OnRequote = func() {
		req, err := buildRequest(mono.Pairs(), reqFlags.symbol, reqFlags.side, reqFlags.amount, reqFlags.target)
		if err != nil {
			ui.Send(ui.ErrorMsg{Error: err})
			return
		}
		session := streamer().Start(ctx, req)
		go pumpSession(session)
	}

	// Create and start the TUI program IMMEDIATELY (shows welcome screen)
	p := tea.NewProgram(ui.New(), tea.WithAltScreen())
	ui.Program = p

	// Run desk logic in background (non-blocking)
	errCh := make(chan error, 1)
	go func() {
		// Wait for welcome screen to complete (StartModulesMsg signal)
		select {
		case <-startSignal:
			// Welcome complete, start modules
		case <-ctx.Done():
			errCh <- nil
			return
		}

		ui.Send(ui.StartupMsg{Step: "config", Status: "done"})
		ui.Send(ui.StartupMsg{Step: "providers", Status: "connecting"})

		if err := startFunc(); err != nil {
			ui.Send(ui.StartupMsg{Step: "providers", Status: "failed"})
			ui.Send(ui.ErrorMsg{Error: err})
			errCh <- err
			return
		}
		ui.Send(ui.StartupMsg{Step: "providers", Status: "connected"})
		ui.Send(ui.StartupMsg{Step: "streamer", Status: "connecting"})

		req, err := buildRequest(mono.Pairs(), reqFlags.symbol, reqFlags.side, reqFlags.amount, reqFlags.target)
		if err != nil {
			ui.Send(ui.ErrorMsg{Error: err})
			errCh <- err
			return
		}
		session := streamer().Start(ctx, req)
		go pumpSession(session)

		// Wait for context cancellation
		<-ctx.Done()
		streamer().Stop()
		errCh <- nil
	}()

	// Run TUI (blocking) - shows immediately with welcome screen
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	// Check for desk errors
	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}

// pumpSession forwards one session's events to the TUI until it ends.
func pumpSession(session *quotingApp.Session) {
	for event := range session.Events() {
		ui.Send(ui.StreamUpdateMsg{Event: event})
	}
}

// runCLI is the interactive prompt loop: request entry, then p/c/q while a
// stream is live.
func runCLI(ctx context.Context, mono monolith.Monolith, log *logger.Logger) error {
	reporter := quotingInfra.NewConsoleReporter()
	reporter.Start()
	defer reporter.Stop()

	streamer := quotingDI.GetStreamer(mono.Services())
	manager := executionDI.GetManager(mono.Services())

	var session *quotingApp.Session

	stopStream := func() {
		if session != nil {
			streamer.Stop()
			session = nil
		}
	}
	defer stopStream()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	fmt.Print("> ")
	for {
		var line string
		var ok bool
		select {
		case <-ctx.Done():
			return nil
		case line, ok = <-lines:
			if !ok {
				return nil
			}
		}

		input := strings.TrimSpace(strings.ToLower(line))
		switch input {
		case "":
			fmt.Print("> ")
			continue

		case "q":
			return nil

		case "h":
			recent, err := manager.Recent(ctx, 10)
			if err != nil {
				log.Error(ctx, "failed to load recent executions", "error", err)
				fmt.Print("> ")
				continue
			}
			if len(recent) == 0 {
				fmt.Println("No executions yet")
			}
			for _, result := range recent {
				reporter.ReportExecution(result)
			}
			fmt.Print("> ")
			continue

		case "c":
			stopStream()
			fmt.Println("Stream cancelled. Enter a new quote request.")
			fmt.Print("> ")
			continue

		case "p":
			locked := streamer.Locked()
			if session == nil || locked == nil {
				fmt.Println("No locked quote available")
				fmt.Print("> ")
				continue
			}
			stopStream()

			fmt.Println("\nExecuting trade...")
			result, err := manager.Execute(ctx, locked.Quote, locked.ProviderQuote)
			if err != nil {
				log.Error(ctx, "execution refused", "error", err)
				fmt.Print("> ")
				continue
			}
			reporter.ReportExecution(result)
			fmt.Println("Enter a new quote request.")
			fmt.Print("> ")
			continue
		}

		// Anything else is a quote request: <side> <amount> <target> <pair>
		req, err := parseRequestLine(input, mono.Pairs())
		if err != nil {
			fmt.Printf("Invalid request: %v\n", err)
			fmt.Print("> ")
			continue
		}

		stopStream()
		session = streamer.Start(ctx, req)
		go func(s *quotingApp.Session) {
			for event := range s.Events() {
				reporter.ReportUpdate(event)
			}
		}(session)
		fmt.Print("> ")
	}
}

// parseRequestLine parses "<side> <amount> <target_asset> <pair>", e.g.
// "b 1.5 btc btcusdt".
func parseRequestLine(input string, pairs *market.Registry) (quotingDomain.QuoteRequest, error) {
	fields := strings.Fields(input)
	if len(fields) != 4 {
		return quotingDomain.QuoteRequest{}, fmt.Errorf("expected <side> <amount> <target_asset> <pair>")
	}

	sideStr := fields[0]
	switch sideStr {
	case "b":
		sideStr = "BUY"
	case "s":
		sideStr = "SELL"
	}

	return buildRequest(pairs, fields[3], sideStr, fields[1], fields[2])
}
