// Package ratelimit provides a wrapper around golang.org/x/time/rate.
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter wraps rate.Limiter with convenience constructors.
type Limiter struct {
	limiter *rate.Limiter
}

// New creates a rate limiter allowing requestsPerSecond with the given burst.
func New(requestsPerSecond float64, burst int) *Limiter {
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

// PerMinute creates a rate limiter from a requests-per-minute budget.
// Burst is 10% of the budget, minimum 1.
func PerMinute(requestsPerMinute int) *Limiter {
	burst := requestsPerMinute / 10
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), burst),
	}
}

// Wait blocks until a token is available or the context is cancelled.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// Allow reports whether an event may happen now.
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}

// Tokens returns the current number of available tokens.
func (l *Limiter) Tokens() float64 {
	return l.limiter.Tokens()
}
