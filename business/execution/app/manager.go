package app

import (
	"context"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/quotedesk/rfq-aggregator/business/execution/domain"
	quotingDomain "github.com/quotedesk/rfq-aggregator/business/quoting/domain"
	"github.com/quotedesk/rfq-aggregator/internal/apperror"
	"github.com/quotedesk/rfq-aggregator/internal/logger"
)

const (
	tracerName = "execution"
	meterName  = "execution"
)

type managerMetrics struct {
	executionsTotal  metric.Int64Counter
	executionLatency metric.Float64Histogram
}

// ManagerConfig holds execution settings.
type ManagerConfig struct {
	HedgeTimeout time.Duration
}

// Manager orchestrates one confirmed execution at a time: client leg with
// the provider, hedge leg on the exchange, P&L, and the terminal record.
// A confirm while another execution is in flight is rejected, not queued.
type Manager struct {
	executors map[string]TradeExecutor
	hedger    HedgeExecutor
	store     ExecutionStore
	config    ManagerConfig
	logger    logger.LoggerInterface

	inFlight atomic.Bool

	tracer  trace.Tracer
	metrics *managerMetrics
}

// NewManager creates an execution manager over the given provider-side
// executors.
func NewManager(
	executors []TradeExecutor,
	hedger HedgeExecutor,
	store ExecutionStore,
	cfg ManagerConfig,
	log logger.LoggerInterface,
) (*Manager, error) {
	m := &Manager{
		executors: make(map[string]TradeExecutor, len(executors)),
		hedger:    hedger,
		store:     store,
		config:    cfg,
		logger:    log,
		tracer:    otel.Tracer(tracerName),
	}
	for _, e := range executors {
		m.executors[e.Name()] = e
	}

	if err := m.initMetrics(); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *Manager) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	m.metrics = &managerMetrics{}

	m.metrics.executionsTotal, err = meter.Int64Counter(
		"executions_total",
		metric.WithDescription("Execution attempts by terminal status"),
	)
	if err != nil {
		return err
	}

	m.metrics.executionLatency, err = meter.Float64Histogram(
		"execution_latency_ms",
		metric.WithDescription("End to end execution latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Execute runs the full execution flow for a confirmed client quote.
//
// Pre-flight refusals (another execution in flight, expired quote) return
// an error and record nothing. Once the flow starts, failures are absorbed
// into a FAILED ExecutionResult, which is recorded and returned with a nil
// error.
func (m *Manager) Execute(ctx context.Context, client *quotingDomain.ClientQuote, provider *quotingDomain.ProviderQuote) (*domain.ExecutionResult, error) {
	if !m.inFlight.CompareAndSwap(false, true) {
		return nil, apperror.New(apperror.CodeExecutionInFlight, apperror.WithContext(client.ID))
	}
	defer m.inFlight.Store(false)

	if client.IsExpired(time.Now()) {
		return nil, apperror.New(apperror.CodeQuoteExpired,
			apperror.WithMessage("client quote expired before confirm"),
			apperror.WithContext(client.ID))
	}

	ctx, span := m.tracer.Start(ctx, "execution.execute",
		trace.WithAttributes(
			attribute.String("quote_id", client.ID),
			attribute.String("provider", client.Provider),
			attribute.String("symbol", client.Symbol),
			attribute.String("side", string(client.Side)),
		),
	)
	defer span.End()

	start := time.Now()
	result := m.run(ctx, client, provider)
	m.metrics.executionLatency.Record(ctx, float64(time.Since(start).Milliseconds()))
	m.metrics.executionsTotal.Add(ctx, 1,
		metric.WithAttributes(attribute.String("status", string(result.Status))))

	if result.Status == domain.StatusFailed {
		span.SetStatus(codes.Error, result.ErrorMessage)
	} else {
		span.SetStatus(codes.Ok, "executed")
	}

	m.record(ctx, result)
	return result, nil
}

func (m *Manager) run(ctx context.Context, client *quotingDomain.ClientQuote, provider *quotingDomain.ProviderQuote) *domain.ExecutionResult {
	hedge := domain.DetermineHedge(client)

	executor, ok := m.executors[client.Provider]
	if !ok {
		return domain.NewFailedResult(client, hedge, "provider not found: "+client.Provider)
	}

	// Client leg first; without it there is nothing to hedge.
	if err := executor.ExecuteTrade(ctx, provider, client); err != nil {
		m.logger.Warn(ctx, "client leg failed",
			"provider", client.Provider, "quote_id", client.ID, "error", err)
		return domain.NewFailedResult(client, hedge, "client leg failed: "+err.Error())
	}

	hctx := ctx
	if m.config.HedgeTimeout > 0 {
		var cancel context.CancelFunc
		hctx, cancel = context.WithTimeout(ctx, m.config.HedgeTimeout)
		defer cancel()
	}

	fill, err := m.hedger.ExecuteHedge(hctx, hedge, client)
	if err != nil {
		m.logger.Warn(ctx, "hedge leg failed",
			"quote_id", client.ID, "error", err)
		return domain.NewFailedResult(client, hedge, "hedge leg failed: "+err.Error())
	}

	pnl := domain.CalculatePnL(client, fill)

	m.logger.Info(ctx, "execution complete",
		"quote_id", client.ID,
		"provider", client.Provider,
		"net_pnl", pnl.Net.String(),
		"pnl_asset", pnl.Asset,
		"pnl_bps", pnl.Bps.StringFixed(2),
	)

	return domain.NewSuccessResult(client, hedge, fill, pnl)
}

// record persists the terminal result. Store failures are logged, never
// propagated; the result itself is still returned to the caller.
func (m *Manager) record(ctx context.Context, result *domain.ExecutionResult) {
	if m.store == nil {
		return
	}
	if err := m.store.Record(ctx, result); err != nil {
		m.logger.Error(ctx, "failed to record execution",
			"execution_id", result.ID, "error", err)
	}
}

// Recent reads back the latest execution records for the blotter.
func (m *Manager) Recent(ctx context.Context, limit int) ([]*domain.ExecutionResult, error) {
	if m.store == nil {
		return nil, nil
	}
	return m.store.Recent(ctx, limit)
}
