// Package domain contains hedge sizing, P&L accounting and execution
// records for the execution context.
package domain

import (
	"github.com/shopspring/decimal"

	quotingDomain "github.com/quotedesk/rfq-aggregator/business/quoting/domain"
)

// QuantityBasis says which asset the hedge order is sized in.
type QuantityBasis string

const (
	// BasisBase sizes the hedge as an exact base asset quantity.
	BasisBase QuantityBasis = "BASE"
	// BasisQuote sizes the hedge as an exact quote asset notional to
	// spend or receive in full.
	BasisQuote QuantityBasis = "QUOTE"
)

// HedgeParams describes the exchange order that offsets one client trade.
type HedgeParams struct {
	ExchangeSide quotingDomain.Side
	Basis        QuantityBasis
	Amount       decimal.Decimal
}

// DetermineHedge sizes the hedge for a client quote.
//
// The exchange side mirrors the client's trade relative to the base asset.
// The quantity basis is the one decision that differs per scenario: when
// profit accrues in the asset the client pays, we hedge the exact amount
// the client receives and keep the surplus on the payment side; when
// profit accrues in the asset the client receives, we commit the client's
// full payment and keep the surplus on the receiving side. All eight
// (target, side, profit) combinations are enumerated explicitly.
func DetermineHedge(cq *quotingDomain.ClientQuote) HedgeParams {
	profitInBase := cq.ProfitAsset.IsBase()

	if cq.TargetAsset == cq.BaseAsset {
		if cq.Side == quotingDomain.SideBuy {
			// Client buys base from us, we buy base on the exchange.
			if profitInBase {
				// Spend everything the client paid, surplus base is profit.
				return HedgeParams{quotingDomain.SideBuy, BasisQuote, cq.GivesAmount}
			}
			// Buy exactly what the client receives, surplus quote is profit.
			return HedgeParams{quotingDomain.SideBuy, BasisBase, cq.ReceivesAmount}
		}
		// Client sells base to us, we sell base on the exchange.
		if profitInBase {
			// Sell only enough base to cover the client's quote payout.
			return HedgeParams{quotingDomain.SideSell, BasisQuote, cq.ReceivesAmount}
		}
		// Sell everything the client gave us, surplus quote is profit.
		return HedgeParams{quotingDomain.SideSell, BasisBase, cq.GivesAmount}
	}

	// Client trades the quote asset; the exchange leg mirrors on base.
	if cq.Side == quotingDomain.SideBuy {
		// Client buys quote from us, we sell base to raise quote.
		if profitInBase {
			// Sell only enough base to cover the client's quote payout.
			return HedgeParams{quotingDomain.SideSell, BasisQuote, cq.ReceivesAmount}
		}
		// Sell all the base the client paid, surplus quote is profit.
		return HedgeParams{quotingDomain.SideSell, BasisBase, cq.GivesAmount}
	}
	// Client sells quote to us, we buy base with it.
	if profitInBase {
		// Spend everything the client paid, surplus base is profit.
		return HedgeParams{quotingDomain.SideBuy, BasisQuote, cq.GivesAmount}
	}
	// Buy exactly what the client receives, surplus quote is profit.
	return HedgeParams{quotingDomain.SideBuy, BasisBase, cq.ReceivesAmount}
}
