package app

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/quotedesk/rfq-aggregator/business/quoting/domain"
	"github.com/quotedesk/rfq-aggregator/internal/apperror"
	"github.com/quotedesk/rfq-aggregator/internal/logger"
)

// EventKind classifies a streaming transition.
type EventKind string

const (
	EventLocked      EventKind = "LOCKED"      // initial lock or re-lock after refresh
	EventImprovement EventKind = "IMPROVEMENT" // lock switched to a better competitor
	EventNoChange    EventKind = "NO_CHANGE"   // cycle completed, lock kept
	EventExpired     EventKind = "EXPIRED"     // locked quote's validity elapsed
	EventNoQuotes    EventKind = "NO_QUOTES"   // no provider responded this cycle
)

// UpdateEvent is the only outward surface of a streaming session. One event
// is emitted per transition.
type UpdateEvent struct {
	Kind           EventKind
	Providers      []*domain.ProviderQuote
	Locked         *domain.ClientQuote
	PollCount      int
	IsImprovement  bool
	LockedProvider string
}

// LockState is the streamer-owned lock snapshot. It is replaced wholesale
// on every transition, never mutated in place.
type LockState struct {
	Provider      string
	Quote         *domain.ClientQuote
	ProviderQuote *domain.ProviderQuote
	PollCount     int
}

// StreamerConfig holds streaming settings.
type StreamerConfig struct {
	PollInterval            time.Duration
	ImprovementThresholdBps decimal.Decimal
	AutoRefresh             bool
}

// QuoteStreamer cycles the aggregator on a fixed cadence, owns the locked
// best quote, and emits an UpdateEvent on every transition. At most one
// session is active; starting a new one supersedes the previous session.
type QuoteStreamer struct {
	aggregator *LPAggregator
	config     StreamerConfig
	logger     logger.LoggerInterface
	tracer     trace.Tracer

	mu      sync.Mutex // guards session lifecycle
	session *Session

	lock atomic.Pointer[LockState] // published snapshot, single writer
}

// Session is one streaming run for one QuoteRequest. Events carries every
// transition; it is closed when the session ends.
type Session struct {
	Request domain.QuoteRequest

	events chan UpdateEvent
	cancel context.CancelFunc
	done   chan struct{}
}

// Events returns the session's event channel.
func (s *Session) Events() <-chan UpdateEvent {
	return s.events
}

// Done is closed when the session's loop has fully stopped.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// NewQuoteStreamer creates a streamer over the aggregator.
func NewQuoteStreamer(aggregator *LPAggregator, cfg StreamerConfig, log logger.LoggerInterface) *QuoteStreamer {
	return &QuoteStreamer{
		aggregator: aggregator,
		config:     cfg,
		logger:     log,
		tracer:     otel.Tracer(tracerName),
	}
}

// Locked returns the current lock snapshot, or nil when unlocked. The
// returned value is immutable.
func (qs *QuoteStreamer) Locked() *LockState {
	return qs.lock.Load()
}

// Start begins streaming for the request. Any previous session is cancelled
// first and its in-flight provider calls are discarded; the two sessions
// never interleave events.
func (qs *QuoteStreamer) Start(ctx context.Context, req domain.QuoteRequest) *Session {
	qs.mu.Lock()
	defer qs.mu.Unlock()

	if qs.session != nil {
		qs.session.cancel()
		<-qs.session.done
	}
	qs.lock.Store(nil)

	sctx, cancel := context.WithCancel(ctx)
	session := &Session{
		Request: req,
		events:  make(chan UpdateEvent, 16),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	qs.session = session

	go qs.run(sctx, session)

	return session
}

// Stop ends the current session, if any.
func (qs *QuoteStreamer) Stop() {
	qs.mu.Lock()
	session := qs.session
	qs.session = nil
	qs.mu.Unlock()

	if session != nil {
		session.cancel()
		<-session.done
	}
	qs.lock.Store(nil)
}

// run is the session's single cycle loop. Cycles never overlap: each tick
// runs poll, compare and emit to completion before the next is considered.
func (qs *QuoteStreamer) run(ctx context.Context, session *Session) {
	defer close(session.done)
	defer close(session.events)

	ctx, span := qs.tracer.Start(ctx, "quoting.stream",
		trace.WithAttributes(
			attribute.String("symbol", session.Request.Symbol),
			attribute.String("side", string(session.Request.Side)),
		),
	)
	defer span.End()

	pollCount := 0

	// Initial lock: poll everyone; whichever provider wins is always
	// reported as a lock regardless of price.
	if !qs.acquireLock(ctx, session, &pollCount) {
		if ctx.Err() != nil {
			return
		}
	}

	ticker := time.NewTicker(qs.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		locked := qs.lock.Load()
		if locked == nil {
			// Unlocked (startup failure or post-expiry refresh): retry a
			// full poll on the cadence.
			if !qs.acquireLock(ctx, session, &pollCount) && ctx.Err() != nil {
				return
			}
			continue
		}

		// Expiry check before polling.
		if locked.Quote.IsExpired(time.Now()) {
			if !qs.handleExpiry(ctx, session, locked, &pollCount) {
				return
			}
			continue
		}

		pollCount++
		result, err := qs.aggregator.PollExcluding(ctx, locked.Provider, session.Request)
		if ctx.Err() != nil {
			// Superseded or stopped mid-poll; discard the result.
			return
		}

		// The locked quote may have expired during the poll.
		if locked.Quote.IsExpired(time.Now()) {
			if !qs.handleExpiry(ctx, session, locked, &pollCount) {
				return
			}
			continue
		}

		if err != nil {
			// Competitors all failed; keep the lock and report no change.
			if apperror.GetCode(err) != apperror.CodeNoQuotesAvailable &&
				apperror.GetCode(err) != apperror.CodeNoProvidersLeft {
				qs.logger.Warn(ctx, "competitor poll failed", "error", err)
			}
			qs.keepLock(ctx, session, locked, nil, pollCount)
			continue
		}

		if qs.isImprovement(result.Best, locked.Quote, session.Request.Side) {
			next := &LockState{
				Provider:      result.Best.Provider,
				Quote:         result.Best,
				ProviderQuote: findProviderQuote(result.Providers, result.Best.Provider),
				PollCount:     pollCount,
			}
			qs.lock.Store(next)

			// Keep the displaced provider's frozen quote visible so the
			// display shows it competing again next cycle.
			display := result.Providers
			if locked.ProviderQuote != nil {
				display = append(append([]*domain.ProviderQuote{}, result.Providers...), locked.ProviderQuote)
			}

			qs.emit(ctx, session, UpdateEvent{
				Kind:           EventImprovement,
				Providers:      display,
				Locked:         next.Quote,
				PollCount:      pollCount,
				IsImprovement:  true,
				LockedProvider: next.Provider,
			})
			continue
		}

		qs.keepLock(ctx, session, locked, result.Providers, pollCount)
	}
}

// acquireLock polls all providers and locks the winner. Returns false when
// no lock was acquired.
func (qs *QuoteStreamer) acquireLock(ctx context.Context, session *Session, pollCount *int) bool {
	*pollCount++
	result, err := qs.aggregator.PollAll(ctx, session.Request)
	if ctx.Err() != nil {
		return false
	}
	if err != nil {
		qs.emit(ctx, session, UpdateEvent{
			Kind:      EventNoQuotes,
			PollCount: *pollCount,
		})
		return false
	}

	next := &LockState{
		Provider:      result.Best.Provider,
		Quote:         result.Best,
		ProviderQuote: findProviderQuote(result.Providers, result.Best.Provider),
		PollCount:     *pollCount,
	}
	qs.lock.Store(next)

	qs.emit(ctx, session, UpdateEvent{
		Kind:           EventLocked,
		Providers:      result.Providers,
		Locked:         next.Quote,
		PollCount:      *pollCount,
		IsImprovement:  true,
		LockedProvider: next.Provider,
	})
	return true
}

// handleExpiry emits the expiry event and either schedules a refresh or
// ends the session. Returns false when the session should stop.
func (qs *QuoteStreamer) handleExpiry(ctx context.Context, session *Session, locked *LockState, pollCount *int) bool {
	qs.lock.Store(nil)

	qs.emit(ctx, session, UpdateEvent{
		Kind:           EventExpired,
		Locked:         locked.Quote,
		PollCount:      *pollCount,
		LockedProvider: locked.Provider,
	})

	if !qs.config.AutoRefresh {
		return false
	}

	// Refresh immediately rather than waiting a full tick. The poll
	// counter stays monotonic within the session.
	return qs.acquireLock(ctx, session, pollCount) || ctx.Err() == nil
}

// keepLock refreshes the poll counter and reports no change. The previous
// snapshot's quote stays locked; only the counter moves.
func (qs *QuoteStreamer) keepLock(ctx context.Context, session *Session, locked *LockState, competitors []*domain.ProviderQuote, pollCount int) {
	next := &LockState{
		Provider:      locked.Provider,
		Quote:         locked.Quote,
		ProviderQuote: locked.ProviderQuote,
		PollCount:     pollCount,
	}
	qs.lock.Store(next)

	display := competitors
	if locked.ProviderQuote != nil {
		display = append(append([]*domain.ProviderQuote{}, competitors...), locked.ProviderQuote)
	}

	qs.emit(ctx, session, UpdateEvent{
		Kind:           EventNoChange,
		Providers:      display,
		Locked:         locked.Quote,
		PollCount:      pollCount,
		LockedProvider: locked.Provider,
	})
}

// isImprovement applies the strict threshold: a competitor at exactly the
// boundary price must NOT trigger a switch.
func (qs *QuoteStreamer) isImprovement(competitor, locked *domain.ClientQuote, side domain.Side) bool {
	if competitor == nil {
		return false
	}

	threshold := locked.ClientPrice.Mul(qs.config.ImprovementThresholdBps).Div(bpsDivisor)

	if side == domain.SideBuy {
		// Lower is better for the client.
		return competitor.ClientPrice.LessThan(locked.ClientPrice.Sub(threshold))
	}
	return competitor.ClientPrice.GreaterThan(locked.ClientPrice.Add(threshold))
}

func (qs *QuoteStreamer) emit(ctx context.Context, session *Session, event UpdateEvent) {
	select {
	case session.events <- event:
	case <-ctx.Done():
	}
}

func findProviderQuote(quotes []*domain.ProviderQuote, provider string) *domain.ProviderQuote {
	for _, q := range quotes {
		if q.Provider == provider {
			return q
		}
	}
	return nil
}

var bpsDivisor = decimal.NewFromInt(10000)
