package domain

import (
	"github.com/shopspring/decimal"

	quotingDomain "github.com/quotedesk/rfq-aggregator/business/quoting/domain"
)

var bpsMultiplier = decimal.NewFromInt(10000)

// ExecutedHedge is the exchange-side fill of a hedge order.
type ExecutedHedge struct {
	OrderID          string
	Side             quotingDomain.Side
	ExecutedQty      decimal.Decimal // base asset
	ExecutedNotional decimal.Decimal // quote asset
	AvgPrice         decimal.Decimal
	Commission       decimal.Decimal
	CommissionAsset  string
}

// PnL is the desk's outcome for one execution. Positive is favorable to
// the desk.
type PnL struct {
	Gross decimal.Decimal
	Net   decimal.Decimal
	Asset string
	Bps   decimal.Decimal
}

// CalculatePnL compares the client's settlement flows with the hedge fill
// and expresses the difference in the pair's profit asset.
//
// Net P&L subtracts the hedge commission, converted into the profit asset
// at the fill price when it was charged in the other asset. Bps is net
// P&L relative to the quote-denominated trade size, converted at the raw
// provider price when P&L is held in base.
func CalculatePnL(cq *quotingDomain.ClientQuote, hedge *ExecutedHedge) PnL {
	clientPays := cq.GivesAmount
	clientReceives := cq.ReceivesAmount
	weGotBase := hedge.ExecutedQty
	weSpentQuote := hedge.ExecutedNotional
	profitInBase := cq.ProfitAsset.IsBase()

	var gross decimal.Decimal
	var asset string

	if cq.TargetAsset == cq.BaseAsset {
		if cq.Side == quotingDomain.SideBuy {
			// Client pays quote for base; we bought base with quote.
			if profitInBase {
				gross, asset = weGotBase.Sub(clientReceives), cq.BaseAsset
			} else {
				gross, asset = clientPays.Sub(weSpentQuote), cq.QuoteAsset
			}
		} else {
			// Client pays base for quote; we sold base for quote.
			if profitInBase {
				gross, asset = clientPays.Sub(weGotBase), cq.BaseAsset
			} else {
				gross, asset = weSpentQuote.Sub(clientReceives), cq.QuoteAsset
			}
		}
	} else {
		if cq.Side == quotingDomain.SideBuy {
			// Client pays base for quote; we sold base for quote.
			if profitInBase {
				gross, asset = clientPays.Sub(weGotBase), cq.BaseAsset
			} else {
				gross, asset = weSpentQuote.Sub(clientReceives), cq.QuoteAsset
			}
		} else {
			// Client pays quote for base; we bought base with quote.
			if profitInBase {
				gross, asset = weGotBase.Sub(clientReceives), cq.BaseAsset
			} else {
				gross, asset = clientPays.Sub(weSpentQuote), cq.QuoteAsset
			}
		}
	}

	commission := hedge.Commission
	if hedge.CommissionAsset != asset && !commission.IsZero() && hedge.AvgPrice.IsPositive() {
		if hedge.CommissionAsset == cq.BaseAsset {
			commission = commission.Mul(hedge.AvgPrice)
		} else {
			commission = commission.Div(hedge.AvgPrice)
		}
	}
	net := gross.Sub(commission)

	return PnL{
		Gross: gross,
		Net:   net,
		Asset: asset,
		Bps:   pnlBps(cq, net, asset),
	}
}

func pnlBps(cq *quotingDomain.ClientQuote, net decimal.Decimal, asset string) decimal.Decimal {
	notional := cq.QuoteNotional()
	if !notional.IsPositive() {
		return decimal.Zero
	}

	inQuote := net
	if asset == cq.BaseAsset {
		inQuote = net.Mul(cq.RawPrice)
	}
	return inQuote.Div(notional).Mul(bpsMultiplier)
}
