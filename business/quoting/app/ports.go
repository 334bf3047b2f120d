// Package app contains application services and port definitions for the quoting context.
package app

import (
	"context"

	"github.com/quotedesk/rfq-aggregator/business/quoting/domain"
)

// QuoteProvider is the liquidity provider capability the aggregator polls.
// Implementations may be slow or fail; the caller bounds every call with a
// timeout.
type QuoteProvider interface {
	// Name returns the unique provider identifier.
	Name() string

	// RequestQuote requests a quote for the given request.
	RequestQuote(ctx context.Context, req domain.QuoteRequest) (*domain.ProviderQuote, error)
}
