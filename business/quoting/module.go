// Package quoting implements the quoting bounded context: LP polling,
// markup pricing and quote locking.
package quoting

import (
	"context"

	"github.com/quotedesk/rfq-aggregator/business/quoting/app"
	quotingDI "github.com/quotedesk/rfq-aggregator/business/quoting/di"
	"github.com/quotedesk/rfq-aggregator/business/quoting/domain"
	"github.com/quotedesk/rfq-aggregator/business/quoting/infra/lp"
	"github.com/quotedesk/rfq-aggregator/internal/config"
	"github.com/quotedesk/rfq-aggregator/internal/di"
	"github.com/quotedesk/rfq-aggregator/internal/logger"
	"github.com/quotedesk/rfq-aggregator/internal/market"
	"github.com/quotedesk/rfq-aggregator/internal/monolith"
)

// Module implements the quoting bounded context.
type Module struct{}

// RegisterServices registers all quoting services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Register providers - private dependency
	di.RegisterToken(c, quotingDI.Providers, func(sr di.ServiceRegistry) []app.QuoteProvider {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		providers := make([]app.QuoteProvider, 0,
			len(cfg.Providers.Mock)+len(cfg.Providers.Remote))

		for _, mc := range cfg.Providers.Mock {
			if mc.SineAmplitude != 0 {
				providers = append(providers, lp.NewSineProvider(mc))
			} else {
				providers = append(providers, lp.NewMockProvider(mc))
			}
		}

		for _, rc := range cfg.Providers.Remote {
			provider, err := lp.NewRemoteProvider(rc, log)
			if err != nil {
				panic("failed to create remote provider " + rc.Name + ": " + err.Error())
			}
			providers = append(providers, provider)
		}

		return providers
	})

	// Register pricing engine - private dependency
	di.RegisterToken(c, quotingDI.PricingEngine, func(sr di.ServiceRegistry) *domain.PricingEngine {
		cfg := sr.Get("config").(*config.Config)
		return domain.NewPricingEngine(cfg.Quoting.SafetyBuffer, cfg.Quoting.MinClientValidity)
	})

	// Register aggregator (public - exposed to other modules)
	di.RegisterToken(c, quotingDI.Aggregator, func(sr di.ServiceRegistry) *app.LPAggregator {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		pairs := sr.Get("pairRegistry").(*market.Registry)

		aggregator, err := app.NewLPAggregator(
			quotingDI.GetProviders(sr),
			quotingDI.GetPricingEngine(sr),
			pairs,
			app.AggregatorConfig{ProviderTimeout: cfg.Quoting.ProviderTimeout},
			log,
		)
		if err != nil {
			panic("failed to create lp aggregator: " + err.Error())
		}
		return aggregator
	})

	// Register streamer (public - exposed to other modules)
	di.RegisterToken(c, quotingDI.Streamer, func(sr di.ServiceRegistry) *app.QuoteStreamer {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		return app.NewQuoteStreamer(
			quotingDI.GetAggregator(sr),
			app.StreamerConfig{
				PollInterval:            cfg.Quoting.RefreshInterval,
				ImprovementThresholdBps: cfg.Quoting.ImprovementThresholdBps(),
				AutoRefresh:             cfg.Quoting.AutoRefresh,
			},
			log,
		)
	})

	return nil
}

// Startup initializes the quoting module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()

	// Remote providers connect lazily; a venue being down must not block
	// startup since the simulated providers still quote.
	for _, provider := range quotingDI.GetProviders(mono.Services()) {
		connector, ok := provider.(interface{ Connect(context.Context) error })
		if !ok {
			continue
		}
		if err := connector.Connect(ctx); err != nil {
			log.Warn(ctx, "provider connection failed",
				"provider", provider.Name(), "error", err)
		}
	}

	log.Info(ctx, "quoting module started", "providers", len(quotingDI.GetProviders(mono.Services())))
	return nil
}
