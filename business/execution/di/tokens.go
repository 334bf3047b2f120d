// Package di contains dependency injection tokens for the execution context.
package di

import (
	"github.com/quotedesk/rfq-aggregator/business/execution/app"
	"github.com/quotedesk/rfq-aggregator/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Manager = di.NewToken[*app.Manager]("execution.Manager")
)

// Private dependency tokens - internal to execution module
var (
	Hedger = di.NewToken[app.HedgeExecutor]("execution:hedger")
	Store  = di.NewToken[app.ExecutionStore]("execution:store")
)

// Helper functions for type-safe access
func GetManager(c di.ServiceRegistry) *app.Manager {
	return di.GetToken(c, Manager)
}

func GetHedger(c di.ServiceRegistry) app.HedgeExecutor {
	return di.GetToken(c, Hedger)
}

func GetStore(c di.ServiceRegistry) app.ExecutionStore {
	return di.GetToken(c, Store)
}
