// Package circuitbreaker wraps sony/gobreaker with typed results and
// application defaults.
package circuitbreaker

import (
	"time"

	"github.com/sony/gobreaker/v2"
)

// Config holds circuit breaker settings.
type Config struct {
	Name          string
	MaxRequests   uint32        // allowed requests in half-open state
	Interval      time.Duration // cyclic period to clear counts in closed state
	Timeout       time.Duration // open -> half-open transition delay
	FailureRatio  float64       // trip when failure ratio exceeds this
	MinRequests   uint32        // minimum requests before the ratio applies
	OnStateChange func(name string, from, to gobreaker.State)
}

// DefaultConfig returns breaker settings suitable for provider calls.
func DefaultConfig(name string) Config {
	return Config{
		Name:         name,
		MaxRequests:  1,
		Interval:     60 * time.Second,
		Timeout:      15 * time.Second,
		FailureRatio: 0.6,
		MinRequests:  5,
	}
}

// CircuitBreaker is a typed wrapper around gobreaker.CircuitBreaker.
type CircuitBreaker[T any] struct {
	cb *gobreaker.CircuitBreaker[T]
}

// New creates a typed circuit breaker from Config.
func New[T any](cfg Config) *CircuitBreaker[T] {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
		OnStateChange: cfg.OnStateChange,
	}

	return &CircuitBreaker[T]{cb: gobreaker.NewCircuitBreaker[T](settings)}
}

// Execute runs fn through the breaker.
func (c *CircuitBreaker[T]) Execute(fn func() (T, error)) (T, error) {
	return c.cb.Execute(fn)
}

// State returns the current breaker state.
func (c *CircuitBreaker[T]) State() gobreaker.State {
	return c.cb.State()
}
