package domain_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/quotedesk/rfq-aggregator/business/execution/domain"
	quotingDomain "github.com/quotedesk/rfq-aggregator/business/quoting/domain"
	"github.com/quotedesk/rfq-aggregator/internal/market"
)

func TestCalculatePnL_BuyBaseProfitQuote(t *testing.T) {
	// Client buys 1.5 BTC at 100050 and pays 150075 USDT. The hedge buys
	// 1.5 BTC at the raw price 100000, spending 150000 USDT.
	cq := &quotingDomain.ClientQuote{
		ID:             "q-1",
		Symbol:         "BTCUSDT",
		BaseAsset:      "BTC",
		QuoteAsset:     "USDT",
		TargetAsset:    "BTC",
		Side:           quotingDomain.SideBuy,
		ProfitAsset:    market.ProfitInQuote,
		RawPrice:       decimal.NewFromInt(100000),
		ClientPrice:    decimal.NewFromInt(100050),
		GivesAmount:    decimal.NewFromInt(150075),
		GivesAsset:     "USDT",
		ReceivesAmount: decimal.RequireFromString("1.5"),
		ReceivesAsset:  "BTC",
	}
	fill := &domain.ExecutedHedge{
		Side:             quotingDomain.SideBuy,
		ExecutedQty:      decimal.RequireFromString("1.5"),
		ExecutedNotional: decimal.NewFromInt(150000),
		AvgPrice:         decimal.NewFromInt(100000),
	}

	pnl := domain.CalculatePnL(cq, fill)

	if !pnl.Gross.Equal(decimal.NewFromInt(75)) {
		t.Errorf("expected gross 75 USDT, got %s", pnl.Gross)
	}
	if pnl.Asset != "USDT" {
		t.Errorf("expected pnl in USDT, got %s", pnl.Asset)
	}
	if !pnl.Net.Equal(pnl.Gross) {
		t.Errorf("no commission, expected net == gross, got %s", pnl.Net)
	}
	// 75 / 150075 * 10000 = 4.9975...
	if pnl.Bps.Sub(decimal.RequireFromString("4.9975")).Abs().GreaterThan(decimal.RequireFromString("0.001")) {
		t.Errorf("expected ~4.9975 bps, got %s", pnl.Bps)
	}
}

func TestCalculatePnL_BuyBaseProfitBase(t *testing.T) {
	// Spending the client's full 150075 USDT at 100000 buys 1.50075 BTC;
	// the client is owed 1.5, leaving 0.00075 BTC.
	cq := &quotingDomain.ClientQuote{
		BaseAsset:      "BTC",
		QuoteAsset:     "USDT",
		TargetAsset:    "BTC",
		Side:           quotingDomain.SideBuy,
		ProfitAsset:    market.ProfitInBase,
		RawPrice:       decimal.NewFromInt(100000),
		GivesAmount:    decimal.NewFromInt(150075),
		GivesAsset:     "USDT",
		ReceivesAmount: decimal.RequireFromString("1.5"),
		ReceivesAsset:  "BTC",
	}
	fill := &domain.ExecutedHedge{
		Side:             quotingDomain.SideBuy,
		ExecutedQty:      decimal.RequireFromString("1.50075"),
		ExecutedNotional: decimal.NewFromInt(150075),
		AvgPrice:         decimal.NewFromInt(100000),
	}

	pnl := domain.CalculatePnL(cq, fill)

	if !pnl.Gross.Equal(decimal.RequireFromString("0.00075")) {
		t.Errorf("expected gross 0.00075 BTC, got %s", pnl.Gross)
	}
	if pnl.Asset != "BTC" {
		t.Errorf("expected pnl in BTC, got %s", pnl.Asset)
	}
	// 0.00075 BTC at raw price 100000 = 75 USDT over 150075 notional.
	if pnl.Bps.Sub(decimal.RequireFromString("4.9975")).Abs().GreaterThan(decimal.RequireFromString("0.001")) {
		t.Errorf("expected ~4.9975 bps, got %s", pnl.Bps)
	}
}

func TestCalculatePnL_SellBaseProfitQuote(t *testing.T) {
	// Client sells 2 BTC at 99950 and is owed 199900 USDT; the hedge sells
	// the 2 BTC at 100000 for 200000 USDT.
	cq := &quotingDomain.ClientQuote{
		BaseAsset:      "BTC",
		QuoteAsset:     "USDT",
		TargetAsset:    "BTC",
		Side:           quotingDomain.SideSell,
		ProfitAsset:    market.ProfitInQuote,
		RawPrice:       decimal.NewFromInt(100000),
		GivesAmount:    decimal.NewFromInt(2),
		GivesAsset:     "BTC",
		ReceivesAmount: decimal.NewFromInt(199900),
		ReceivesAsset:  "USDT",
	}
	fill := &domain.ExecutedHedge{
		Side:             quotingDomain.SideSell,
		ExecutedQty:      decimal.NewFromInt(2),
		ExecutedNotional: decimal.NewFromInt(200000),
		AvgPrice:         decimal.NewFromInt(100000),
	}

	pnl := domain.CalculatePnL(cq, fill)

	if !pnl.Gross.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected gross 100 USDT, got %s", pnl.Gross)
	}
	if pnl.Asset != "USDT" {
		t.Errorf("expected pnl in USDT, got %s", pnl.Asset)
	}
}

func TestCalculatePnL_QuoteTargetMirrorsBase(t *testing.T) {
	// Client buys 50000 USDT, paying BTC; we sell that BTC for quote.
	// Economically identical to a base-target SELL.
	cq := &quotingDomain.ClientQuote{
		BaseAsset:      "BTC",
		QuoteAsset:     "USDT",
		TargetAsset:    "USDT",
		Side:           quotingDomain.SideBuy,
		ProfitAsset:    market.ProfitInQuote,
		RawPrice:       decimal.NewFromInt(100000),
		GivesAmount:    decimal.RequireFromString("0.50026"),
		GivesAsset:     "BTC",
		ReceivesAmount: decimal.NewFromInt(50000),
		ReceivesAsset:  "USDT",
	}
	fill := &domain.ExecutedHedge{
		Side:             quotingDomain.SideSell,
		ExecutedQty:      decimal.RequireFromString("0.50026"),
		ExecutedNotional: decimal.NewFromInt(50026),
		AvgPrice:         decimal.NewFromInt(100000),
	}

	pnl := domain.CalculatePnL(cq, fill)

	if !pnl.Gross.Equal(decimal.NewFromInt(26)) {
		t.Errorf("expected gross 26 USDT, got %s", pnl.Gross)
	}
	if pnl.Asset != "USDT" {
		t.Errorf("expected pnl in USDT, got %s", pnl.Asset)
	}
}

func TestCalculatePnL_CommissionConvertedAcrossAssets(t *testing.T) {
	// Commission charged in BTC while P&L is held in USDT; it converts at
	// the fill price: 0.0001 BTC * 100000 = 10 USDT.
	cq := &quotingDomain.ClientQuote{
		BaseAsset:      "BTC",
		QuoteAsset:     "USDT",
		TargetAsset:    "BTC",
		Side:           quotingDomain.SideBuy,
		ProfitAsset:    market.ProfitInQuote,
		RawPrice:       decimal.NewFromInt(100000),
		GivesAmount:    decimal.NewFromInt(150075),
		GivesAsset:     "USDT",
		ReceivesAmount: decimal.RequireFromString("1.5"),
		ReceivesAsset:  "BTC",
	}
	fill := &domain.ExecutedHedge{
		Side:             quotingDomain.SideBuy,
		ExecutedQty:      decimal.RequireFromString("1.5"),
		ExecutedNotional: decimal.NewFromInt(150000),
		AvgPrice:         decimal.NewFromInt(100000),
		Commission:       decimal.RequireFromString("0.0001"),
		CommissionAsset:  "BTC",
	}

	pnl := domain.CalculatePnL(cq, fill)

	if !pnl.Gross.Equal(decimal.NewFromInt(75)) {
		t.Errorf("expected gross 75, got %s", pnl.Gross)
	}
	if !pnl.Net.Equal(decimal.NewFromInt(65)) {
		t.Errorf("expected net 65 after 10 USDT commission, got %s", pnl.Net)
	}
}

func TestCalculatePnL_NegativeWhenHedgeWorse(t *testing.T) {
	// Hedge filled above the client price; the desk loses money and the
	// sign must say so.
	cq := &quotingDomain.ClientQuote{
		BaseAsset:      "BTC",
		QuoteAsset:     "USDT",
		TargetAsset:    "BTC",
		Side:           quotingDomain.SideBuy,
		ProfitAsset:    market.ProfitInQuote,
		RawPrice:       decimal.NewFromInt(100200),
		GivesAmount:    decimal.NewFromInt(150075),
		GivesAsset:     "USDT",
		ReceivesAmount: decimal.RequireFromString("1.5"),
		ReceivesAsset:  "BTC",
	}
	fill := &domain.ExecutedHedge{
		Side:             quotingDomain.SideBuy,
		ExecutedQty:      decimal.RequireFromString("1.5"),
		ExecutedNotional: decimal.NewFromInt(150300),
		AvgPrice:         decimal.NewFromInt(100200),
	}

	pnl := domain.CalculatePnL(cq, fill)

	if !pnl.Gross.IsNegative() {
		t.Errorf("expected negative gross, got %s", pnl.Gross)
	}
	if !pnl.Bps.IsNegative() {
		t.Errorf("expected negative bps, got %s", pnl.Bps)
	}
}

func TestCalculatePnL_ZeroNotionalYieldsZeroBps(t *testing.T) {
	cq := &quotingDomain.ClientQuote{
		BaseAsset:   "BTC",
		QuoteAsset:  "USDT",
		TargetAsset: "BTC",
		Side:        quotingDomain.SideBuy,
		ProfitAsset: market.ProfitInQuote,
		RawPrice:    decimal.NewFromInt(100000),
		GivesAsset:  "USDT",
	}
	pnl := domain.CalculatePnL(cq, &domain.ExecutedHedge{AvgPrice: decimal.NewFromInt(100000)})

	if !pnl.Bps.IsZero() {
		t.Errorf("expected 0 bps on zero notional, got %s", pnl.Bps)
	}
}
