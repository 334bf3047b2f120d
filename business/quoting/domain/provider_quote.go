package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProviderQuote is a raw quote from a single liquidity provider.
// Produced once per poll per provider; immutable.
type ProviderQuote struct {
	Provider    string
	Price       decimal.Decimal
	MaxQuantity decimal.Decimal
	Validity    time.Duration
	Latency     time.Duration
	Side        Side
	IssuedAt    time.Time
}

// IsExpired reports whether the quote's validity has elapsed.
func (q *ProviderQuote) IsExpired(now time.Time) bool {
	return now.Sub(q.IssuedAt) > q.Validity
}

// TimeRemaining returns the time left before expiry, floored at zero.
func (q *ProviderQuote) TimeRemaining(now time.Time) time.Duration {
	remaining := q.Validity - now.Sub(q.IssuedAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}
