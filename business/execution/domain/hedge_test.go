package domain_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/quotedesk/rfq-aggregator/business/execution/domain"
	quotingDomain "github.com/quotedesk/rfq-aggregator/business/quoting/domain"
	"github.com/quotedesk/rfq-aggregator/internal/market"
)

// clientQuote builds a quote with distinguishable gives/receives amounts so
// each hedge branch's choice is observable.
func clientQuote(side quotingDomain.Side, target string, profit market.ProfitAsset) *quotingDomain.ClientQuote {
	return &quotingDomain.ClientQuote{
		ID:             "q-1",
		Provider:       "LP-1",
		Symbol:         "BTCUSDT",
		BaseAsset:      "BTC",
		QuoteAsset:     "USDT",
		TargetAsset:    target,
		Side:           side,
		ProfitAsset:    profit,
		GivesAmount:    decimal.RequireFromString("111"),
		ReceivesAmount: decimal.RequireFromString("222"),
	}
}

func TestDetermineHedge_AllEightScenarios(t *testing.T) {
	gives := decimal.RequireFromString("111")
	receives := decimal.RequireFromString("222")

	tests := []struct {
		name   string
		side   quotingDomain.Side
		target string
		profit market.ProfitAsset

		wantSide   quotingDomain.Side
		wantBasis  domain.QuantityBasis
		wantAmount decimal.Decimal
	}{
		{
			name: "buy base, profit quote: buy exact base received",
			side: quotingDomain.SideBuy, target: "BTC", profit: market.ProfitInQuote,
			wantSide: quotingDomain.SideBuy, wantBasis: domain.BasisBase, wantAmount: receives,
		},
		{
			name: "buy base, profit base: spend full quote paid",
			side: quotingDomain.SideBuy, target: "BTC", profit: market.ProfitInBase,
			wantSide: quotingDomain.SideBuy, wantBasis: domain.BasisQuote, wantAmount: gives,
		},
		{
			name: "sell base, profit quote: sell full base paid",
			side: quotingDomain.SideSell, target: "BTC", profit: market.ProfitInQuote,
			wantSide: quotingDomain.SideSell, wantBasis: domain.BasisBase, wantAmount: gives,
		},
		{
			name: "sell base, profit base: raise exact quote owed",
			side: quotingDomain.SideSell, target: "BTC", profit: market.ProfitInBase,
			wantSide: quotingDomain.SideSell, wantBasis: domain.BasisQuote, wantAmount: receives,
		},
		{
			name: "buy quote, profit quote: sell full base paid",
			side: quotingDomain.SideBuy, target: "USDT", profit: market.ProfitInQuote,
			wantSide: quotingDomain.SideSell, wantBasis: domain.BasisBase, wantAmount: gives,
		},
		{
			name: "buy quote, profit base: raise exact quote owed",
			side: quotingDomain.SideBuy, target: "USDT", profit: market.ProfitInBase,
			wantSide: quotingDomain.SideSell, wantBasis: domain.BasisQuote, wantAmount: receives,
		},
		{
			name: "sell quote, profit quote: buy exact base owed",
			side: quotingDomain.SideSell, target: "USDT", profit: market.ProfitInQuote,
			wantSide: quotingDomain.SideBuy, wantBasis: domain.BasisBase, wantAmount: receives,
		},
		{
			name: "sell quote, profit base: spend full quote paid",
			side: quotingDomain.SideSell, target: "USDT", profit: market.ProfitInBase,
			wantSide: quotingDomain.SideBuy, wantBasis: domain.BasisQuote, wantAmount: gives,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := domain.DetermineHedge(clientQuote(tt.side, tt.target, tt.profit))

			if params.ExchangeSide != tt.wantSide {
				t.Errorf("exchange side: want %s, got %s", tt.wantSide, params.ExchangeSide)
			}
			if params.Basis != tt.wantBasis {
				t.Errorf("basis: want %s, got %s", tt.wantBasis, params.Basis)
			}
			if !params.Amount.Equal(tt.wantAmount) {
				t.Errorf("amount: want %s, got %s", tt.wantAmount, params.Amount)
			}
		})
	}
}

func TestDetermineHedge_MirrorsClientSideOnBase(t *testing.T) {
	// For target=base the exchange side equals the client side; for
	// target=quote it is the opposite, regardless of profit asset.
	for _, profit := range []market.ProfitAsset{market.ProfitInBase, market.ProfitInQuote} {
		if got := domain.DetermineHedge(clientQuote(quotingDomain.SideBuy, "BTC", profit)); got.ExchangeSide != quotingDomain.SideBuy {
			t.Errorf("buy base: expected exchange BUY, got %s", got.ExchangeSide)
		}
		if got := domain.DetermineHedge(clientQuote(quotingDomain.SideBuy, "USDT", profit)); got.ExchangeSide != quotingDomain.SideSell {
			t.Errorf("buy quote: expected exchange SELL, got %s", got.ExchangeSide)
		}
	}
}
