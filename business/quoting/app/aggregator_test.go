package app_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quotedesk/rfq-aggregator/business/quoting/app"
	"github.com/quotedesk/rfq-aggregator/business/quoting/domain"
	"github.com/quotedesk/rfq-aggregator/internal/apperror"
	"github.com/quotedesk/rfq-aggregator/internal/logger"
	"github.com/quotedesk/rfq-aggregator/internal/market"
)

// stubProvider is a scriptable provider for aggregator tests. The price can
// be swapped at runtime; delay and fail make it slow or broken.
type stubProvider struct {
	name     string
	price    atomic.Pointer[decimal.Decimal]
	validity time.Duration
	delay    time.Duration
	fail     atomic.Bool
}

func newStubProvider(name, price string, validity time.Duration) *stubProvider {
	p := &stubProvider{name: name, validity: validity}
	p.setPrice(price)
	return p
}

func (p *stubProvider) setPrice(price string) {
	d := decimal.RequireFromString(price)
	p.price.Store(&d)
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) RequestQuote(ctx context.Context, req domain.QuoteRequest) (*domain.ProviderQuote, error) {
	if p.fail.Load() {
		return nil, errors.New("simulated outage")
	}
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return &domain.ProviderQuote{
		Provider:    p.name,
		Price:       *p.price.Load(),
		MaxQuantity: req.Amount.Mul(decimal.NewFromInt(2)),
		Validity:    p.validity,
		Side:        req.Side,
		IssuedAt:    time.Now(),
	}, nil
}

func testRegistry(t *testing.T) *market.Registry {
	t.Helper()
	reg := market.NewRegistry()
	pair := market.NewPair("BTCUSDT", "BTC", "USDT",
		decimal.NewFromInt(10), 5, 2,
		decimal.NewFromFloat(0.0001), market.ProfitInQuote)
	if err := reg.Register(pair); err != nil {
		t.Fatalf("register pair: %v", err)
	}
	return reg
}

func testLogger() logger.LoggerInterface {
	return logger.New(discard{}, logger.LevelError, "test", nil)
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func newAggregator(t *testing.T, providers ...app.QuoteProvider) *app.LPAggregator {
	t.Helper()
	engine := domain.NewPricingEngine(0, 0)
	agg, err := app.NewLPAggregator(providers, engine, testRegistry(t),
		app.AggregatorConfig{ProviderTimeout: 100 * time.Millisecond}, testLogger())
	if err != nil {
		t.Fatalf("new aggregator: %v", err)
	}
	return agg
}

func buyRequest(t *testing.T, amount string) domain.QuoteRequest {
	t.Helper()
	pair := market.NewPair("BTCUSDT", "BTC", "USDT",
		decimal.NewFromInt(10), 5, 2,
		decimal.NewFromFloat(0.0001), market.ProfitInQuote)
	req, err := domain.NewQuoteRequest(domain.SideBuy, decimal.RequireFromString(amount), "BTC", pair)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	return req
}

func TestPollAll_SelectsBestBuy(t *testing.T) {
	cheap := newStubProvider("LP-CHEAP", "99000", 10*time.Second)
	mid := newStubProvider("LP-MID", "100000", 10*time.Second)
	rich := newStubProvider("LP-RICH", "101000", 10*time.Second)

	agg := newAggregator(t, cheap, mid, rich)

	result, err := agg.PollAll(context.Background(), buyRequest(t, "1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Providers) != 3 {
		t.Errorf("expected 3 provider quotes, got %d", len(result.Providers))
	}
	if result.Best.Provider != "LP-CHEAP" {
		t.Errorf("expected LP-CHEAP to win the BUY, got %s", result.Best.Provider)
	}
	// 99000 * 1.001
	if !result.Best.ClientPrice.Equal(decimal.RequireFromString("99099")) {
		t.Errorf("expected client price 99099, got %s", result.Best.ClientPrice)
	}
}

func TestPollAll_SelectsBestSell(t *testing.T) {
	low := newStubProvider("LP-LOW", "99000", 10*time.Second)
	high := newStubProvider("LP-HIGH", "101000", 10*time.Second)

	agg := newAggregator(t, low, high)

	pair := market.NewPair("BTCUSDT", "BTC", "USDT",
		decimal.NewFromInt(10), 5, 2,
		decimal.NewFromFloat(0.0001), market.ProfitInQuote)
	req, err := domain.NewQuoteRequest(domain.SideSell, decimal.NewFromInt(1), "BTC", pair)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}

	result, err := agg.PollAll(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Best.Provider != "LP-HIGH" {
		t.Errorf("expected LP-HIGH to win the SELL, got %s", result.Best.Provider)
	}
}

func TestPollAll_ToleratesPartialFailure(t *testing.T) {
	healthy := newStubProvider("LP-OK", "100000", 10*time.Second)
	broken := newStubProvider("LP-DOWN", "99000", 10*time.Second)
	broken.fail.Store(true)
	slow := newStubProvider("LP-SLOW", "98000", 10*time.Second)
	slow.delay = 500 * time.Millisecond // beyond the 100ms provider timeout

	agg := newAggregator(t, healthy, broken, slow)

	result, err := agg.PollAll(context.Background(), buyRequest(t, "1"))
	if err != nil {
		t.Fatalf("expected partial success, got %v", err)
	}
	if len(result.Providers) != 1 {
		t.Errorf("expected only 1 responsive provider, got %d", len(result.Providers))
	}
	if result.Best.Provider != "LP-OK" {
		t.Errorf("expected LP-OK, got %s", result.Best.Provider)
	}
}

func TestPollAll_NoQuotesAvailable(t *testing.T) {
	broken := newStubProvider("LP-DOWN", "100000", 10*time.Second)
	broken.fail.Store(true)

	agg := newAggregator(t, broken)

	_, err := agg.PollAll(context.Background(), buyRequest(t, "1"))
	if apperror.GetCode(err) != apperror.CodeNoQuotesAvailable {
		t.Errorf("expected CodeNoQuotesAvailable, got %v", err)
	}
}

func TestPollAll_UnsupportedPair(t *testing.T) {
	agg := newAggregator(t, newStubProvider("LP-1", "100000", 10*time.Second))

	req := buyRequest(t, "1")
	req.Symbol = "DOGEUSDT"

	_, err := agg.PollAll(context.Background(), req)
	if apperror.GetCode(err) != apperror.CodeUnsupportedPair {
		t.Errorf("expected CodeUnsupportedPair, got %v", err)
	}
}

func TestPollExcluding_SkipsLockedProvider(t *testing.T) {
	a := newStubProvider("LP-A", "99000", 10*time.Second)
	b := newStubProvider("LP-B", "100000", 10*time.Second)

	agg := newAggregator(t, a, b)

	result, err := agg.PollExcluding(context.Background(), "LP-A", buyRequest(t, "1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Providers) != 1 || result.Providers[0].Provider != "LP-B" {
		t.Errorf("expected only LP-B to be polled, got %+v", result.Providers)
	}
}

func TestPollExcluding_NoProvidersLeft(t *testing.T) {
	only := newStubProvider("LP-ONLY", "100000", 10*time.Second)

	agg := newAggregator(t, only)

	_, err := agg.PollExcluding(context.Background(), "LP-ONLY", buyRequest(t, "1"))
	if apperror.GetCode(err) != apperror.CodeNoProvidersLeft {
		t.Errorf("expected CodeNoProvidersLeft, got %v", err)
	}
}

func TestPollAll_SetsQuoteLatency(t *testing.T) {
	p := newStubProvider("LP-1", "100000", 10*time.Second)
	p.delay = 10 * time.Millisecond

	agg := newAggregator(t, p)

	result, err := agg.PollAll(context.Background(), buyRequest(t, "1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Providers[0].Latency < 10*time.Millisecond {
		t.Errorf("expected latency >= 10ms, got %s", result.Providers[0].Latency)
	}
}
