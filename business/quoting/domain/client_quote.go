package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/quotedesk/rfq-aggregator/internal/market"
)

// ClientQuote is the client-facing quote derived from one ProviderQuote.
// A new one is always a new value, never mutated in place.
type ClientQuote struct {
	ID string

	// Pricing
	ClientPrice decimal.Decimal // after markup
	RawPrice    decimal.Decimal // provider price before markup
	Provider    string
	MarkupBps   decimal.Decimal

	// Trade details
	Side        Side
	Amount      decimal.Decimal
	Symbol      string
	BaseAsset   string
	QuoteAsset  string
	TargetAsset string
	ProfitAsset market.ProfitAsset

	// Client flows
	GivesAmount    decimal.Decimal
	GivesAsset     string
	ReceivesAmount decimal.Decimal
	ReceivesAsset  string

	// Validity
	Validity  time.Duration
	CreatedAt time.Time
}

// IsExpired reports whether the client quote's validity has elapsed.
func (q *ClientQuote) IsExpired(now time.Time) bool {
	return now.Sub(q.CreatedAt) > q.Validity
}

// TimeRemaining returns the time left before expiry, floored at zero.
func (q *ClientQuote) TimeRemaining(now time.Time) time.Duration {
	remaining := q.Validity - now.Sub(q.CreatedAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// QuoteNotional returns the quote-asset-denominated size of the trade.
func (q *ClientQuote) QuoteNotional() decimal.Decimal {
	if q.GivesAsset == q.QuoteAsset {
		return q.GivesAmount
	}
	return q.ReceivesAmount
}
