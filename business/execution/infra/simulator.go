// Package infra contains the exchange simulator for the hedge leg.
package infra

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/quotedesk/rfq-aggregator/business/execution/domain"
	quotingDomain "github.com/quotedesk/rfq-aggregator/business/quoting/domain"
	"github.com/quotedesk/rfq-aggregator/internal/config"
)

var bpsDivisor = decimal.NewFromInt(10000)

// Simulator fills hedge orders at the provider's raw price, optionally
// shifted by a slippage allowance, with commission charged on the asset
// the desk receives.
type Simulator struct {
	commissionBps decimal.Decimal
	slippageBps   decimal.Decimal
}

// NewSimulator creates a simulator from execution config.
func NewSimulator(cfg config.ExecutionConfig) *Simulator {
	return &Simulator{
		commissionBps: decimal.NewFromFloat(cfg.CommissionBps),
		slippageBps:   decimal.NewFromFloat(cfg.SlippageBps),
	}
}

// ExecuteHedge simulates the exchange fill. Slippage always moves the
// price against the desk: up on a BUY, down on a SELL.
func (s *Simulator) ExecuteHedge(ctx context.Context, params domain.HedgeParams, client *quotingDomain.ClientQuote) (*domain.ExecutedHedge, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	price := client.RawPrice
	if !s.slippageBps.IsZero() {
		slip := price.Mul(s.slippageBps).Div(bpsDivisor)
		if params.ExchangeSide == quotingDomain.SideBuy {
			price = price.Add(slip)
		} else {
			price = price.Sub(slip)
		}
	}

	var qty, notional decimal.Decimal
	if params.Basis == domain.BasisBase {
		qty = params.Amount
		notional = qty.Mul(price)
	} else {
		notional = params.Amount
		qty = notional.Div(price)
	}

	// Commission comes out of the received side of the fill.
	var commission decimal.Decimal
	var commissionAsset string
	if params.ExchangeSide == quotingDomain.SideBuy {
		commission = qty.Mul(s.commissionBps).Div(bpsDivisor)
		commissionAsset = client.BaseAsset
		qty = qty.Sub(commission)
	} else {
		commission = notional.Mul(s.commissionBps).Div(bpsDivisor)
		commissionAsset = client.QuoteAsset
		notional = notional.Sub(commission)
	}

	return &domain.ExecutedHedge{
		OrderID:          "SIM-" + uuid.NewString(),
		Side:             params.ExchangeSide,
		ExecutedQty:      qty,
		ExecutedNotional: notional,
		AvgPrice:         price,
		Commission:       commission,
		CommissionAsset:  commissionAsset,
	}, nil
}
