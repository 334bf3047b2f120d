// Package monolith provides the application container and module interface.
package monolith

import (
	"context"

	"github.com/quotedesk/rfq-aggregator/internal/config"
	"github.com/quotedesk/rfq-aggregator/internal/di"
	"github.com/quotedesk/rfq-aggregator/internal/logger"
	"github.com/quotedesk/rfq-aggregator/internal/market"
)

// Monolith is the main application container providing access to shared infrastructure.
type Monolith interface {
	Config() *config.Config
	Logger() logger.LoggerInterface
	Pairs() *market.Registry
	Services() di.ServiceRegistry
}

// Module represents a bounded context module that can register services and start up.
type Module interface {
	RegisterServices(di.Container) error
	Startup(context.Context, Monolith) error
}

// app implements the Monolith interface.
type app struct {
	config    *config.Config
	logger    logger.LoggerInterface
	pairs     *market.Registry
	container di.Container
}

// New creates a new Monolith instance.
func New(cfg *config.Config, log logger.LoggerInterface) (*app, error) {
	pairs, err := market.NewRegistryFromConfig(cfg.Pairs)
	if err != nil {
		return nil, err
	}

	container := di.NewContainer()

	// Register global services
	container.Register("config", cfg)
	container.Register("logger", log)
	container.Register("pairRegistry", pairs)

	return &app{
		config:    cfg,
		logger:    log,
		pairs:     pairs,
		container: container,
	}, nil
}

func (a *app) Config() *config.Config {
	return a.config
}

func (a *app) Logger() logger.LoggerInterface {
	return a.logger
}

func (a *app) Pairs() *market.Registry {
	return a.pairs
}

func (a *app) Services() di.ServiceRegistry {
	return a.container
}

// Container returns the DI container for module registration.
func (a *app) Container() di.Container {
	return a.container
}

// RegisterModules registers all provided modules.
func (a *app) RegisterModules(modules ...Module) error {
	for _, m := range modules {
		if err := m.RegisterServices(a.container); err != nil {
			return err
		}
	}
	return nil
}

// StartModules starts all provided modules.
func (a *app) StartModules(ctx context.Context, modules ...Module) error {
	for _, m := range modules {
		if err := m.Startup(ctx, a); err != nil {
			return err
		}
	}
	return nil
}
