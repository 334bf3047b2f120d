// Package di provides a minimal typed-token dependency injection container.
//
// Modules register lazy factories under typed tokens; the first Get resolves
// the factory and caches the instance. Tokens are typed, so cross-module
// lookups stay compile-time safe.
package di

import (
	"fmt"
	"sync"
)

// ServiceRegistry is the read side of the container.
type ServiceRegistry interface {
	// Get returns the instance registered under key, resolving a factory
	// on first use. Panics if the key is unknown.
	Get(key string) any
}

// Container is the full registration + lookup surface.
type Container interface {
	ServiceRegistry
	// Register stores a ready-made instance under key.
	Register(key string, instance any)
	// RegisterFactory stores a lazy factory under key.
	RegisterFactory(key string, factory func(ServiceRegistry) any)
}

// Token is a typed service key.
type Token[T any] struct {
	key string
}

// NewToken creates a typed token with a unique key.
func NewToken[T any](key string) Token[T] {
	return Token[T]{key: key}
}

// Key returns the raw string key of the token.
func (t Token[T]) Key() string { return t.key }

// RegisterToken registers a typed factory under the token's key.
func RegisterToken[T any](c Container, token Token[T], factory func(ServiceRegistry) T) {
	c.RegisterFactory(token.key, func(sr ServiceRegistry) any {
		return factory(sr)
	})
}

// GetToken resolves the instance registered under the token.
func GetToken[T any](sr ServiceRegistry, token Token[T]) T {
	return sr.Get(token.key).(T)
}

type entry struct {
	instance any
	factory  func(ServiceRegistry) any
	resolved bool
}

type container struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// NewContainer creates an empty container.
func NewContainer() Container {
	return &container{entries: make(map[string]*entry)}
}

func (c *container) Register(key string, instance any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = &entry{instance: instance, resolved: true}
}

func (c *container) RegisterFactory(key string, factory func(ServiceRegistry) any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = &entry{factory: factory}
}

func (c *container) Get(key string) any {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		c.mu.Unlock()
		panic(fmt.Sprintf("di: unknown service %q", key))
	}
	if e.resolved {
		c.mu.Unlock()
		return e.instance
	}
	// Resolve outside the lock so factories can Get their own deps.
	factory := e.factory
	c.mu.Unlock()

	instance := factory(c)

	c.mu.Lock()
	e.instance = instance
	e.resolved = true
	c.mu.Unlock()

	return instance
}
