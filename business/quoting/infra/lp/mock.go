// Package lp contains liquidity provider adapters: simulated providers for
// development and a websocket adapter for real RFQ endpoints.
package lp

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quotedesk/rfq-aggregator/business/quoting/domain"
	"github.com/quotedesk/rfq-aggregator/internal/apperror"
	"github.com/quotedesk/rfq-aggregator/internal/config"
)

var bpsDivisor = decimal.NewFromInt(10000)

// MockProvider simulates a liquidity provider: mid price jitters around a
// base price, responses take a random latency inside a configured window,
// and a failure rate makes it drop requests.
type MockProvider struct {
	name        string
	basePrice   float64
	spreadBps   float64
	jitterBps   float64
	latencyMin  time.Duration
	latencyMax  time.Duration
	failureRate float64
	validFor    time.Duration
}

// NewMockProvider creates a simulated provider from config. Zero latency
// and validity fields get usable defaults.
func NewMockProvider(cfg config.MockProviderConfig) *MockProvider {
	p := &MockProvider{
		name:        cfg.Name,
		basePrice:   cfg.BasePrice,
		spreadBps:   cfg.SpreadBps,
		jitterBps:   cfg.JitterBps,
		latencyMin:  cfg.LatencyMin,
		latencyMax:  cfg.LatencyMax,
		failureRate: cfg.FailureRate,
		validFor:    cfg.ValidFor,
	}
	if p.basePrice == 0 {
		p.basePrice = 100000
	}
	if p.jitterBps == 0 {
		p.jitterBps = 100
	}
	if p.validFor == 0 {
		p.validFor = 10 * time.Second
	}
	return p
}

func (p *MockProvider) Name() string { return p.name }

// RequestQuote simulates a quote request. The returned quote covers twice
// the requested amount.
func (p *MockProvider) RequestQuote(ctx context.Context, req domain.QuoteRequest) (*domain.ProviderQuote, error) {
	if err := simulateLatency(ctx, p.latencyMin, p.latencyMax); err != nil {
		return nil, err
	}

	if p.failureRate > 0 && rand.Float64() < p.failureRate {
		return nil, apperror.New(apperror.CodeProviderUnavailable, apperror.WithContext(p.name))
	}

	jitter := (rand.Float64()*2 - 1) * p.jitterBps / 10000
	mid := p.basePrice * (1 + jitter)

	return &domain.ProviderQuote{
		Provider:    p.name,
		Price:       applySpread(mid, p.spreadBps, req.Side),
		MaxQuantity: req.Amount.Mul(decimal.NewFromInt(2)),
		Validity:    p.validFor,
		Side:        req.Side,
		IssuedAt:    time.Now(),
	}, nil
}

// ExecuteTrade simulates the client-leg fill against this provider's quote.
// An expired quote cannot be executed.
func (p *MockProvider) ExecuteTrade(ctx context.Context, quote *domain.ProviderQuote, client *domain.ClientQuote) error {
	return simulateExecution(ctx, p.name, quote)
}

// applySpread turns a mid price into the side-appropriate quote price: ask
// for a client BUY, bid for a client SELL.
func applySpread(mid, spreadBps float64, side domain.Side) decimal.Decimal {
	var price float64
	if side == domain.SideBuy {
		price = mid * (1 + spreadBps/10000)
	} else {
		price = mid * (1 - spreadBps/10000)
	}
	return decimal.NewFromFloat(price).Round(4)
}

func simulateLatency(ctx context.Context, min, max time.Duration) error {
	if max <= 0 {
		return nil
	}
	delay := min
	if max > min {
		delay += time.Duration(rand.Int64N(int64(max - min)))
	}
	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func simulateExecution(ctx context.Context, name string, quote *domain.ProviderQuote) error {
	if err := simulateLatency(ctx, 200*time.Millisecond, 500*time.Millisecond); err != nil {
		return err
	}
	if quote.IsExpired(time.Now()) {
		return apperror.New(apperror.CodeQuoteExpired,
			apperror.WithMessage("provider quote expired before execution"),
			apperror.WithContext(name))
	}
	return nil
}
