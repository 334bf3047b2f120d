// Package app contains the execution orchestration service and its ports.
package app

import (
	"context"

	"github.com/quotedesk/rfq-aggregator/business/execution/domain"
	quotingDomain "github.com/quotedesk/rfq-aggregator/business/quoting/domain"
)

// TradeExecutor is the provider capability for the client leg: filling the
// quote the provider itself issued. The LP adapters implement it alongside
// quoting.
type TradeExecutor interface {
	Name() string

	// ExecuteTrade fills the provider's quote for the client leg. An
	// expired quote must be refused.
	ExecuteTrade(ctx context.Context, quote *quotingDomain.ProviderQuote, client *quotingDomain.ClientQuote) error
}

// HedgeExecutor fills the exchange-side hedge order.
type HedgeExecutor interface {
	ExecuteHedge(ctx context.Context, params domain.HedgeParams, client *quotingDomain.ClientQuote) (*domain.ExecutedHedge, error)
}

// ExecutionStore persists terminal execution records and reads them back
// for the blotter.
type ExecutionStore interface {
	Record(ctx context.Context, result *domain.ExecutionResult) error
	Recent(ctx context.Context, limit int) ([]*domain.ExecutionResult, error)
}
