package lp

import (
	"context"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quotedesk/rfq-aggregator/business/quoting/domain"
	"github.com/quotedesk/rfq-aggregator/internal/config"
)

// SineProvider quotes a mid price that oscillates on a sine wave with an
// optional linear drift:
//
//	mid(t) = base + amplitude*sin(2*pi*frequency*t + phase) + trend*t
//
// Running several of these with phases a quarter wave apart makes the best
// price rotate between providers, which exercises lock switching.
type SineProvider struct {
	name       string
	basePrice  float64
	amplitude  float64
	frequency  float64
	phase      float64
	trend      float64
	spreadBps  float64
	latencyMin time.Duration
	latencyMax time.Duration
	validFor   time.Duration
	startedAt  time.Time
}

// NewSineProvider creates an oscillating provider from config.
func NewSineProvider(cfg config.MockProviderConfig) *SineProvider {
	p := &SineProvider{
		name:       cfg.Name,
		basePrice:  cfg.BasePrice,
		amplitude:  cfg.SineAmplitude,
		frequency:  cfg.SineFrequency,
		phase:      cfg.SinePhase,
		trend:      cfg.TrendPerSec,
		spreadBps:  cfg.SpreadBps,
		latencyMin: cfg.LatencyMin,
		latencyMax: cfg.LatencyMax,
		validFor:   cfg.ValidFor,
		startedAt:  time.Now(),
	}
	if p.basePrice == 0 {
		p.basePrice = 100000
	}
	if p.frequency == 0 {
		p.frequency = 0.05
	}
	if p.validFor == 0 {
		p.validFor = 10 * time.Second
	}
	return p
}

func (p *SineProvider) Name() string { return p.name }

func (p *SineProvider) midPrice(now time.Time) float64 {
	elapsed := now.Sub(p.startedAt).Seconds()
	return p.basePrice +
		p.amplitude*math.Sin(2*math.Pi*p.frequency*elapsed+p.phase) +
		p.trend*elapsed
}

// RequestQuote returns a quote at the wave's current position.
func (p *SineProvider) RequestQuote(ctx context.Context, req domain.QuoteRequest) (*domain.ProviderQuote, error) {
	if err := simulateLatency(ctx, p.latencyMin, p.latencyMax); err != nil {
		return nil, err
	}

	return &domain.ProviderQuote{
		Provider:    p.name,
		Price:       applySpread(p.midPrice(time.Now()), p.spreadBps, req.Side),
		MaxQuantity: req.Amount.Mul(decimal.NewFromInt(2)),
		Validity:    p.validFor,
		Side:        req.Side,
		IssuedAt:    time.Now(),
	}, nil
}

// ExecuteTrade simulates the client-leg fill.
func (p *SineProvider) ExecuteTrade(ctx context.Context, quote *domain.ProviderQuote, client *domain.ClientQuote) error {
	return simulateExecution(ctx, p.name, quote)
}
