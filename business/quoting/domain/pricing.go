package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/quotedesk/rfq-aggregator/internal/apperror"
	"github.com/quotedesk/rfq-aggregator/internal/market"
)

var bpsDivisor = decimal.NewFromInt(10000)

// PricingEngine turns raw provider prices into client-facing quotes.
// Price is deterministic for a given clock reading; all arithmetic is
// decimal.
type PricingEngine struct {
	safetyBuffer time.Duration // subtracted from provider validity
	minValidity  time.Duration // floor for client validity
}

// NewPricingEngine creates a pricing engine with the given validity policy.
func NewPricingEngine(safetyBuffer, minValidity time.Duration) *PricingEngine {
	return &PricingEngine{
		safetyBuffer: safetyBuffer,
		minValidity:  minValidity,
	}
}

// Price derives a ClientQuote from one provider quote.
//
// Spread direction depends jointly on the side and on which asset the
// requested amount is denominated in. When the client targets the quote
// asset the spread inverts: buying quote is economically selling base,
// so a BUY gets a discount on the base price and a SELL a premium.
func (e *PricingEngine) Price(pq *ProviderQuote, req QuoteRequest, pair *market.Pair) (*ClientQuote, error) {
	if !pq.Price.IsPositive() {
		return nil, apperror.New(apperror.CodeProviderError,
			apperror.WithMessage("provider returned non-positive price"),
			apperror.WithContext(pq.Provider))
	}

	markup := pair.MarkupBps().Div(bpsDivisor)
	one := decimal.NewFromInt(1)

	var clientPrice decimal.Decimal
	if req.TargetIsBase() {
		if req.Side == SideBuy {
			clientPrice = pq.Price.Mul(one.Add(markup))
		} else {
			clientPrice = pq.Price.Mul(one.Sub(markup))
		}
	} else {
		// Inverted spread for quote-denominated requests.
		if req.Side == SideBuy {
			clientPrice = pq.Price.Mul(one.Sub(markup))
		} else {
			clientPrice = pq.Price.Mul(one.Add(markup))
		}
	}

	var gives, receives decimal.Decimal
	var givesAsset, receivesAsset string

	if req.TargetIsBase() {
		counter := req.Amount.Mul(clientPrice)
		if req.Side == SideBuy {
			// Client buys base, pays quote.
			receives, receivesAsset = req.Amount, req.BaseAsset
			gives, givesAsset = counter, req.QuoteAsset
		} else {
			// Client sells base, receives quote.
			gives, givesAsset = req.Amount, req.BaseAsset
			receives, receivesAsset = counter, req.QuoteAsset
		}
	} else {
		// Amount is already in quote terms; the counter-amount divides.
		counter := req.Amount.Div(clientPrice)
		if req.Side == SideBuy {
			// Client buys quote, pays base.
			receives, receivesAsset = req.Amount, req.QuoteAsset
			gives, givesAsset = counter, req.BaseAsset
		} else {
			// Client sells quote, receives base.
			gives, givesAsset = req.Amount, req.QuoteAsset
			receives, receivesAsset = counter, req.BaseAsset
		}
	}

	// Protective rounding, after the raw arithmetic: what the client
	// gives rounds up, what the client receives rounds down.
	gives = gives.RoundUp(pair.DecimalsFor(givesAsset))
	receives = receives.RoundDown(pair.DecimalsFor(receivesAsset))

	validity := pq.Validity - e.safetyBuffer
	if validity < e.minValidity {
		validity = e.minValidity
	}

	return &ClientQuote{
		ID:             uuid.NewString(),
		ClientPrice:    clientPrice,
		RawPrice:       pq.Price,
		Provider:       pq.Provider,
		MarkupBps:      pair.MarkupBps(),
		Side:           req.Side,
		Amount:         req.Amount,
		Symbol:         pair.Symbol(),
		BaseAsset:      req.BaseAsset,
		QuoteAsset:     req.QuoteAsset,
		TargetAsset:    req.TargetAsset,
		ProfitAsset:    pair.ProfitAsset(),
		GivesAmount:    gives,
		GivesAsset:     givesAsset,
		ReceivesAmount: receives,
		ReceivesAsset:  receivesAsset,
		Validity:       validity,
		CreatedAt:      time.Now(),
	}, nil
}
