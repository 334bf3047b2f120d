// Package di contains dependency injection tokens for the quoting context.
package di

import (
	"github.com/quotedesk/rfq-aggregator/business/quoting/app"
	"github.com/quotedesk/rfq-aggregator/business/quoting/domain"
	"github.com/quotedesk/rfq-aggregator/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Aggregator = di.NewToken[*app.LPAggregator]("quoting.LPAggregator")
	Streamer   = di.NewToken[*app.QuoteStreamer]("quoting.QuoteStreamer")
)

// Private dependency tokens - internal to quoting module
var (
	Providers     = di.NewToken[[]app.QuoteProvider]("quoting:providers")
	PricingEngine = di.NewToken[*domain.PricingEngine]("quoting:pricingEngine")
)

// Helper functions for type-safe access
func GetAggregator(c di.ServiceRegistry) *app.LPAggregator {
	return di.GetToken(c, Aggregator)
}

func GetStreamer(c di.ServiceRegistry) *app.QuoteStreamer {
	return di.GetToken(c, Streamer)
}

func GetProviders(c di.ServiceRegistry) []app.QuoteProvider {
	return di.GetToken(c, Providers)
}

func GetPricingEngine(c di.ServiceRegistry) *domain.PricingEngine {
	return di.GetToken(c, PricingEngine)
}
