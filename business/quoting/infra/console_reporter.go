// Package infra contains infrastructure adapters for the quoting context.
package infra

import (
	"fmt"
	"io"
	"os"
	"time"

	executionDomain "github.com/quotedesk/rfq-aggregator/business/execution/domain"
	"github.com/quotedesk/rfq-aggregator/business/quoting/app"
)

const rule = "======================================================================"

// ConsoleReporter renders streaming updates and execution results to plain
// console output for CLI mode.
type ConsoleReporter struct {
	out io.Writer
}

// NewConsoleReporter creates a new ConsoleReporter writing to stdout.
func NewConsoleReporter() *ConsoleReporter {
	return &ConsoleReporter{
		out: os.Stdout,
	}
}

// Start prints the session banner.
func (r *ConsoleReporter) Start() {
	fmt.Fprintln(r.out, rule)
	fmt.Fprintln(r.out, "LP AGGREGATION RFQ SYSTEM")
	fmt.Fprintln(r.out, rule)
	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, "Enter Quote Request:")
	fmt.Fprintln(r.out, "  Format: <side> <amount> <target_asset> <pair>")
	fmt.Fprintln(r.out, "  Example: b 1.5 BTC BTCUSDT")
	fmt.Fprintln(r.out, "  Example: s 50000 USDT BTCUSDT")
	fmt.Fprintln(r.out, "")
}

// ReportUpdate prints one streaming transition. Only locks, improvements,
// expiries and dry cycles produce output; NO_CHANGE cycles stay quiet.
func (r *ConsoleReporter) ReportUpdate(event app.UpdateEvent) {
	switch event.Kind {
	case app.EventLocked, app.EventImprovement:
		header := "QUOTE LOCKED"
		if event.Kind == app.EventImprovement {
			header = "IMPROVED QUOTE"
		}
		q := event.Locked

		fmt.Fprintln(r.out, "")
		fmt.Fprintln(r.out, rule)
		fmt.Fprintln(r.out, header)
		fmt.Fprintln(r.out, rule)
		fmt.Fprintf(r.out, "  LP:             %s\n", event.LockedProvider)
		fmt.Fprintf(r.out, "  Side:           %s %s %s\n", q.Side, q.Amount, q.TargetAsset)
		fmt.Fprintf(r.out, "  Client Pays:    %s %s\n", q.GivesAmount, q.GivesAsset)
		fmt.Fprintf(r.out, "  Client Gets:    %s %s\n", q.ReceivesAmount, q.ReceivesAsset)
		fmt.Fprintf(r.out, "  Price:          %s %s\n", q.ClientPrice.StringFixed(4), q.QuoteAsset)
		fmt.Fprintf(r.out, "  Valid for:      %.1fs\n", q.TimeRemaining(time.Now()).Seconds())
		fmt.Fprintf(r.out, "  Poll:           #%d\n", event.PollCount)
		fmt.Fprintln(r.out, rule)
		fmt.Fprintln(r.out, "")
		fmt.Fprintln(r.out, "Commands: [p] proceed  [c] cancel  [h] history  [q] quit")
		fmt.Fprintln(r.out, "")

	case app.EventExpired:
		fmt.Fprintln(r.out, "")
		fmt.Fprintf(r.out, "Quote from %s expired\n", event.LockedProvider)
		fmt.Fprintln(r.out, "")

	case app.EventNoQuotes:
		fmt.Fprintln(r.out, "")
		fmt.Fprintf(r.out, "No quotes available (poll #%d)\n", event.PollCount)
		fmt.Fprintln(r.out, "")
	}
}

// ReportExecution prints the terminal execution record.
func (r *ConsoleReporter) ReportExecution(result *executionDomain.ExecutionResult) {
	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, rule)
	if result.Status == executionDomain.StatusSuccess {
		fmt.Fprintln(r.out, "EXECUTION SUCCESSFUL")
		fmt.Fprintln(r.out, rule)
		fmt.Fprintf(r.out, "  Execution ID:   %s\n", result.ID)
		fmt.Fprintf(r.out, "  Hedge:          %s %s %s\n", result.Hedge.ExchangeSide, result.ExecutedQty, result.Symbol)
		fmt.Fprintf(r.out, "  Avg Price:      %s\n", result.AvgPrice.StringFixed(2))
		fmt.Fprintf(r.out, "  Commission:     %s %s\n", result.Commission, result.CommissionAsset)
		fmt.Fprintf(r.out, "  Net P&L:        %s %s (%s bps)\n",
			result.NetPnL.StringFixed(8), result.PnLAsset, result.PnLBps.StringFixed(2))
	} else {
		fmt.Fprintf(r.out, "EXECUTION FAILED: %s\n", result.ErrorMessage)
	}
	fmt.Fprintln(r.out, rule)
	fmt.Fprintln(r.out, "")
}

// Stop prints the shutdown line.
func (r *ConsoleReporter) Stop() {
	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, "Goodbye!")
}
