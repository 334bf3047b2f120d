// Package execution implements the execution bounded context: client leg,
// hedge leg, P&L and the execution record.
package execution

import (
	"context"
	"time"

	"github.com/quotedesk/rfq-aggregator/business/execution/app"
	executionDI "github.com/quotedesk/rfq-aggregator/business/execution/di"
	"github.com/quotedesk/rfq-aggregator/business/execution/infra"
	"github.com/quotedesk/rfq-aggregator/business/execution/infra/store"
	quotingDI "github.com/quotedesk/rfq-aggregator/business/quoting/di"
	"github.com/quotedesk/rfq-aggregator/internal/config"
	"github.com/quotedesk/rfq-aggregator/internal/di"
	"github.com/quotedesk/rfq-aggregator/internal/logger"
	"github.com/quotedesk/rfq-aggregator/internal/monolith"
)

// Module implements the execution bounded context.
type Module struct{}

// RegisterServices registers all execution services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Register hedge executor - private dependency
	di.RegisterToken(c, executionDI.Hedger, func(sr di.ServiceRegistry) app.HedgeExecutor {
		cfg := sr.Get("config").(*config.Config)

		execCfg := cfg.Execution
		if !execCfg.HedgeEnabled {
			// No hedging: the simulator degenerates to a frictionless
			// paper fill at the raw price.
			execCfg.CommissionBps = 0
			execCfg.SlippageBps = 0
		}
		return infra.NewSimulator(execCfg)
	})

	// Register execution store - private dependency
	di.RegisterToken(c, executionDI.Store, func(sr di.ServiceRegistry) app.ExecutionStore {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		if !cfg.Execution.RecordExecutions || cfg.Database.URL == "" {
			return store.NewMemoryStore(0)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		pg, err := store.NewPostgresStore(ctx, cfg.Database)
		if err != nil {
			log.Warn(ctx, "postgres unavailable, keeping executions in memory", "error", err)
			return store.NewMemoryStore(0)
		}
		return pg
	})

	// Register manager (public - exposed to other modules)
	di.RegisterToken(c, executionDI.Manager, func(sr di.ServiceRegistry) *app.Manager {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		// The LP adapters execute their own quotes; pick up every quoting
		// provider that carries the trade capability.
		var executors []app.TradeExecutor
		for _, provider := range quotingDI.GetProviders(sr) {
			if executor, ok := provider.(app.TradeExecutor); ok {
				executors = append(executors, executor)
			}
		}

		manager, err := app.NewManager(
			executors,
			executionDI.GetHedger(sr),
			executionDI.GetStore(sr),
			app.ManagerConfig{HedgeTimeout: cfg.Execution.HedgeTimeout},
			log,
		)
		if err != nil {
			panic("failed to create execution manager: " + err.Error())
		}
		return manager
	})

	return nil
}

// Startup initializes the execution module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	// Force construction so wiring errors surface at startup, not on the
	// first confirm.
	executionDI.GetManager(mono.Services())

	mono.Logger().Info(ctx, "execution module started")
	return nil
}
