package infra_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/quotedesk/rfq-aggregator/business/execution/domain"
	"github.com/quotedesk/rfq-aggregator/business/execution/infra"
	quotingDomain "github.com/quotedesk/rfq-aggregator/business/quoting/domain"
	"github.com/quotedesk/rfq-aggregator/internal/config"
)

func simClientQuote() *quotingDomain.ClientQuote {
	return &quotingDomain.ClientQuote{
		BaseAsset:  "BTC",
		QuoteAsset: "USDT",
		RawPrice:   decimal.NewFromInt(100000),
	}
}

func TestExecuteHedge_BuyBaseQuantity(t *testing.T) {
	sim := infra.NewSimulator(config.ExecutionConfig{CommissionBps: 10})

	fill, err := sim.ExecuteHedge(context.Background(), domain.HedgeParams{
		ExchangeSide: quotingDomain.SideBuy,
		Basis:        domain.BasisBase,
		Amount:       decimal.RequireFromString("1.5"),
	}, simClientQuote())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Commission 10 bps of 1.5 BTC = 0.0015, taken from the received base.
	if !fill.Commission.Equal(decimal.RequireFromString("0.0015")) {
		t.Errorf("expected commission 0.0015, got %s", fill.Commission)
	}
	if fill.CommissionAsset != "BTC" {
		t.Errorf("expected commission in BTC on a BUY, got %s", fill.CommissionAsset)
	}
	if !fill.ExecutedQty.Equal(decimal.RequireFromString("1.4985")) {
		t.Errorf("expected executed qty 1.4985, got %s", fill.ExecutedQty)
	}
	if !fill.ExecutedNotional.Equal(decimal.NewFromInt(150000)) {
		t.Errorf("expected notional 150000, got %s", fill.ExecutedNotional)
	}
	if !fill.AvgPrice.Equal(decimal.NewFromInt(100000)) {
		t.Errorf("expected fill at raw price, got %s", fill.AvgPrice)
	}
}

func TestExecuteHedge_SellQuoteNotional(t *testing.T) {
	sim := infra.NewSimulator(config.ExecutionConfig{CommissionBps: 10})

	fill, err := sim.ExecuteHedge(context.Background(), domain.HedgeParams{
		ExchangeSide: quotingDomain.SideSell,
		Basis:        domain.BasisQuote,
		Amount:       decimal.NewFromInt(150000),
	}, simClientQuote())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 150000 / 100000 = 1.5 BTC sold; commission on the received quote.
	if !fill.ExecutedQty.Equal(decimal.RequireFromString("1.5")) {
		t.Errorf("expected executed qty 1.5, got %s", fill.ExecutedQty)
	}
	if fill.CommissionAsset != "USDT" {
		t.Errorf("expected commission in USDT on a SELL, got %s", fill.CommissionAsset)
	}
	// Commission 10 bps of 150000 = 150.
	if !fill.ExecutedNotional.Equal(decimal.NewFromInt(149850)) {
		t.Errorf("expected notional 149850 after commission, got %s", fill.ExecutedNotional)
	}
}

func TestExecuteHedge_SlippageMovesAgainstDesk(t *testing.T) {
	sim := infra.NewSimulator(config.ExecutionConfig{SlippageBps: 10})

	buy, err := sim.ExecuteHedge(context.Background(), domain.HedgeParams{
		ExchangeSide: quotingDomain.SideBuy,
		Basis:        domain.BasisBase,
		Amount:       decimal.NewFromInt(1),
	}, simClientQuote())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !buy.AvgPrice.Equal(decimal.NewFromInt(100100)) {
		t.Errorf("BUY slippage must raise the price, got %s", buy.AvgPrice)
	}

	sell, err := sim.ExecuteHedge(context.Background(), domain.HedgeParams{
		ExchangeSide: quotingDomain.SideSell,
		Basis:        domain.BasisBase,
		Amount:       decimal.NewFromInt(1),
	}, simClientQuote())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sell.AvgPrice.Equal(decimal.NewFromInt(99900)) {
		t.Errorf("SELL slippage must lower the price, got %s", sell.AvgPrice)
	}
}
