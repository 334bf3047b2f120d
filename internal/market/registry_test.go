package market_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/quotedesk/rfq-aggregator/internal/config"
	"github.com/quotedesk/rfq-aggregator/internal/market"
)

func btcusdt() *market.Pair {
	return market.NewPair("BTCUSDT", "BTC", "USDT",
		decimal.NewFromInt(10), 5, 2,
		decimal.NewFromFloat(0.0001), market.ProfitInQuote)
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := market.NewRegistry()
	if err := r.Register(btcusdt()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p, ok := r.Get("BTCUSDT")
	if !ok {
		t.Fatal("expected pair to be registered")
	}
	if p.Base() != "BTC" || p.Quote() != "USDT" {
		t.Errorf("unexpected pair sides: %s/%s", p.Base(), p.Quote())
	}
	if r.Count() != 1 {
		t.Errorf("expected count 1, got %d", r.Count())
	}
}

func TestRegistry_DuplicateSymbol(t *testing.T) {
	r := market.NewRegistry()
	if err := r.Register(btcusdt()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.Register(btcusdt()); err == nil {
		t.Error("expected error on duplicate registration")
	}
}

func TestRegistry_FromConfig(t *testing.T) {
	pairs := []config.PairConfig{
		{Symbol: "ETHUSDT", Base: "ETH", Quote: "USDT", MarkupBps: 10, BaseDecimals: 4, QuoteDecimals: 2, MinAmount: 0.001, ProfitAsset: "quote"},
		{Symbol: "USDCUSDT", Base: "USDC", Quote: "USDT", MarkupBps: 3, BaseDecimals: 2, QuoteDecimals: 4, MinAmount: 10, ProfitAsset: "quote"},
	}

	r, err := market.NewRegistryFromConfig(pairs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	all := r.All()
	if len(all) != 2 {
		t.Fatalf("expected 2 pairs, got %d", len(all))
	}
	// Registration order is preserved.
	if all[0].Symbol() != "ETHUSDT" || all[1].Symbol() != "USDCUSDT" {
		t.Errorf("unexpected order: %s, %s", all[0].Symbol(), all[1].Symbol())
	}
}

func TestPair_Sides(t *testing.T) {
	p := btcusdt()

	if !p.IsBase("BTC") || !p.IsBase("btc") {
		t.Error("expected BTC to be base (case-insensitive)")
	}
	if !p.IsQuote("USDT") {
		t.Error("expected USDT to be quote")
	}
	if p.Counter("BTC") != "USDT" {
		t.Errorf("expected counter of BTC to be USDT, got %s", p.Counter("BTC"))
	}
	if p.Counter("USDT") != "BTC" {
		t.Errorf("expected counter of USDT to be BTC, got %s", p.Counter("USDT"))
	}
	if p.Counter("SOL") != "" {
		t.Error("expected empty counter for unknown asset")
	}
	if p.DecimalsFor("BTC") != 5 || p.DecimalsFor("USDT") != 2 {
		t.Error("unexpected decimals")
	}
}
