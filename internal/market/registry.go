package market

import (
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/quotedesk/rfq-aggregator/internal/config"
)

// Registry is a thread-safe registry of known trading pairs.
type Registry struct {
	bySymbol map[string]*Pair
	order    []string // registration order, for stable listing
	mu       sync.RWMutex
}

// NewRegistry creates a new empty pair registry.
func NewRegistry() *Registry {
	return &Registry{
		bySymbol: make(map[string]*Pair),
	}
}

// NewRegistryFromConfig builds a registry from pair configuration.
func NewRegistryFromConfig(pairs []config.PairConfig) (*Registry, error) {
	r := NewRegistry()
	for _, pc := range pairs {
		p := NewPair(
			pc.Symbol,
			pc.Base,
			pc.Quote,
			decimal.NewFromFloat(pc.MarkupBps),
			pc.BaseDecimals,
			pc.QuoteDecimals,
			decimal.NewFromFloat(pc.MinAmount),
			ProfitAsset(pc.ProfitAsset),
		)
		if err := r.Register(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a pair to the registry.
func (r *Registry) Register(p *Pair) error {
	if p == nil {
		return fmt.Errorf("market: cannot register nil pair")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.bySymbol[p.Symbol()]; exists {
		return fmt.Errorf("market: %s already registered", p.Symbol())
	}

	r.bySymbol[p.Symbol()] = p
	r.order = append(r.order, p.Symbol())
	return nil
}

// Get retrieves a pair by its symbol.
func (r *Registry) Get(symbol string) (*Pair, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.bySymbol[symbol]
	return p, ok
}

// MustGet retrieves a pair by symbol, panics if not found.
func (r *Registry) MustGet(symbol string) *Pair {
	p, ok := r.Get(symbol)
	if !ok {
		panic(fmt.Sprintf("market: %s not found in registry", symbol))
	}
	return p
}

// All returns all registered pairs in registration order.
func (r *Registry) All() []*Pair {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Pair, 0, len(r.order))
	for _, sym := range r.order {
		result = append(result, r.bySymbol[sym])
	}
	return result
}

// Count returns the number of registered pairs.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bySymbol)
}

// Has returns true if a pair with the given symbol is registered.
func (r *Registry) Has(symbol string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.bySymbol[symbol]
	return ok
}
