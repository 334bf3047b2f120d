package app

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/quotedesk/rfq-aggregator/business/quoting/domain"
	"github.com/quotedesk/rfq-aggregator/internal/apperror"
	"github.com/quotedesk/rfq-aggregator/internal/circuitbreaker"
	"github.com/quotedesk/rfq-aggregator/internal/logger"
	"github.com/quotedesk/rfq-aggregator/internal/market"
)

const (
	tracerName = "quoting"
	meterName  = "quoting"
)

// aggregatorMetrics holds OTEL metric instruments.
type aggregatorMetrics struct {
	quotesReceived metric.Int64Counter
	pollFailures   metric.Int64Counter
	pollLatency    metric.Float64Histogram
}

// PollResult carries one aggregation cycle's outcome: every provider quote
// received this cycle plus the best client-facing quote derived from them.
type PollResult struct {
	Providers []*domain.ProviderQuote
	Best      *domain.ClientQuote
}

// AggregatorConfig holds aggregation settings.
type AggregatorConfig struct {
	ProviderTimeout time.Duration
}

// LPAggregator polls a set of providers concurrently and selects the single
// best client-facing quote via the pricing engine.
type LPAggregator struct {
	providers []QuoteProvider
	engine    *domain.PricingEngine
	pairs     *market.Registry
	config    AggregatorConfig
	logger    logger.LoggerInterface

	breakers map[string]*circuitbreaker.CircuitBreaker[*domain.ProviderQuote]

	tracer  trace.Tracer
	metrics *aggregatorMetrics
}

// NewLPAggregator creates an aggregator over the given providers. Each
// provider gets its own circuit breaker so a flapping provider is excluded
// before it burns a timeout every cycle.
func NewLPAggregator(
	providers []QuoteProvider,
	engine *domain.PricingEngine,
	pairs *market.Registry,
	cfg AggregatorConfig,
	log logger.LoggerInterface,
) (*LPAggregator, error) {
	a := &LPAggregator{
		providers: providers,
		engine:    engine,
		pairs:     pairs,
		config:    cfg,
		logger:    log,
		breakers:  make(map[string]*circuitbreaker.CircuitBreaker[*domain.ProviderQuote], len(providers)),
		tracer:    otel.Tracer(tracerName),
	}

	for _, p := range providers {
		cbCfg := circuitbreaker.DefaultConfig("lp-" + p.Name())
		a.breakers[p.Name()] = circuitbreaker.New[*domain.ProviderQuote](cbCfg)
	}

	if err := a.initMetrics(); err != nil {
		return nil, err
	}

	return a, nil
}

func (a *LPAggregator) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	a.metrics = &aggregatorMetrics{}

	a.metrics.quotesReceived, err = meter.Int64Counter(
		"lp_quotes_received_total",
		metric.WithDescription("Provider quotes received"),
	)
	if err != nil {
		return err
	}

	a.metrics.pollFailures, err = meter.Int64Counter(
		"lp_poll_failures_total",
		metric.WithDescription("Provider poll failures (errors and timeouts)"),
	)
	if err != nil {
		return err
	}

	a.metrics.pollLatency, err = meter.Float64Histogram(
		"lp_poll_latency_ms",
		metric.WithDescription("Provider quote latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Providers returns the names of the configured providers.
func (a *LPAggregator) Providers() []string {
	names := make([]string, 0, len(a.providers))
	for _, p := range a.providers {
		names = append(names, p.Name())
	}
	return names
}

// PollAll polls every configured provider concurrently and returns all
// responses plus the best client quote. Provider failures never abort the
// poll; if no provider responds the error carries CodeNoQuotesAvailable.
func (a *LPAggregator) PollAll(ctx context.Context, req domain.QuoteRequest) (*PollResult, error) {
	return a.poll(ctx, a.providers, req)
}

// PollExcluding polls every provider except the named one. Used during
// quote locking to avoid re-querying the locked provider.
func (a *LPAggregator) PollExcluding(ctx context.Context, excluded string, req domain.QuoteRequest) (*PollResult, error) {
	competitors := make([]QuoteProvider, 0, len(a.providers))
	for _, p := range a.providers {
		if p.Name() != excluded {
			competitors = append(competitors, p)
		}
	}

	if len(competitors) == 0 {
		return nil, apperror.New(apperror.CodeNoProvidersLeft, apperror.WithContext("excluded "+excluded))
	}

	return a.poll(ctx, competitors, req)
}

func (a *LPAggregator) poll(ctx context.Context, providers []QuoteProvider, req domain.QuoteRequest) (*PollResult, error) {
	ctx, span := a.tracer.Start(ctx, "quoting.poll",
		trace.WithAttributes(
			attribute.String("symbol", req.Symbol),
			attribute.String("side", string(req.Side)),
			attribute.Int("providers", len(providers)),
		),
	)
	defer span.End()

	pair, ok := a.pairs.Get(req.Symbol)
	if !ok {
		span.SetStatus(codes.Error, "unsupported pair")
		return nil, apperror.New(apperror.CodeUnsupportedPair, apperror.WithContext(req.Symbol))
	}

	type pollOutcome struct {
		provider string
		quote    *domain.ProviderQuote
		err      error
	}

	results := make(chan pollOutcome, len(providers))
	var wg sync.WaitGroup

	for _, p := range providers {
		wg.Add(1)
		go func(p QuoteProvider) {
			defer wg.Done()

			pctx, cancel := context.WithTimeout(ctx, a.config.ProviderTimeout)
			defer cancel()

			start := time.Now()
			quote, err := a.breakers[p.Name()].Execute(func() (*domain.ProviderQuote, error) {
				return p.RequestQuote(pctx, req)
			})
			latency := time.Since(start)
			a.metrics.pollLatency.Record(ctx, float64(latency.Milliseconds()),
				metric.WithAttributes(attribute.String("provider", p.Name())))

			if err == nil && quote != nil {
				quote.Latency = latency
			}
			results <- pollOutcome{provider: p.Name(), quote: quote, err: err}
		}(p)
	}

	wg.Wait()
	close(results)

	quotes := make([]*domain.ProviderQuote, 0, len(providers))
	for outcome := range results {
		if outcome.err != nil || outcome.quote == nil {
			// Non-responsive this cycle only; never aborts the poll.
			a.metrics.pollFailures.Add(ctx, 1,
				metric.WithAttributes(attribute.String("provider", outcome.provider)))
			a.logger.Warn(ctx, "provider non-responsive",
				"provider", outcome.provider,
				"error", outcome.err,
			)
			continue
		}
		a.metrics.quotesReceived.Add(ctx, 1,
			metric.WithAttributes(attribute.String("provider", outcome.provider)))
		quotes = append(quotes, outcome.quote)
	}

	if len(quotes) == 0 {
		span.SetStatus(codes.Error, "no quotes available")
		return nil, apperror.New(apperror.CodeNoQuotesAvailable, apperror.WithContext(req.Symbol))
	}

	best, err := a.selectBest(quotes, req, pair)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("responsive", len(quotes)),
		attribute.String("best_provider", best.Provider),
		attribute.String("best_price", best.ClientPrice.String()),
	)
	span.SetStatus(codes.Ok, "poll complete")

	return &PollResult{Providers: quotes, Best: best}, nil
}

// selectBest prices every responsive quote and picks the best client price:
// minimum for BUY (client pays less), maximum for SELL (client receives more).
func (a *LPAggregator) selectBest(quotes []*domain.ProviderQuote, req domain.QuoteRequest, pair *market.Pair) (*domain.ClientQuote, error) {
	var best *domain.ClientQuote
	for _, pq := range quotes {
		cq, err := a.engine.Price(pq, req, pair)
		if err != nil {
			a.logger.Warn(context.Background(), "pricing failed for provider quote",
				"provider", pq.Provider,
				"error", err,
			)
			continue
		}

		if best == nil {
			best = cq
			continue
		}

		if req.Side == domain.SideBuy {
			if cq.ClientPrice.LessThan(best.ClientPrice) {
				best = cq
			}
		} else {
			if cq.ClientPrice.GreaterThan(best.ClientPrice) {
				best = cq
			}
		}
	}

	if best == nil {
		return nil, apperror.New(apperror.CodeNoQuotesAvailable, apperror.WithContext(req.Symbol))
	}
	return best, nil
}
