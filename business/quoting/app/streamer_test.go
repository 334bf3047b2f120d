package app_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quotedesk/rfq-aggregator/business/quoting/app"
)

func newStreamer(t *testing.T, agg *app.LPAggregator, thresholdBps string, autoRefresh bool) *app.QuoteStreamer {
	t.Helper()
	return app.NewQuoteStreamer(agg, app.StreamerConfig{
		PollInterval:            5 * time.Millisecond,
		ImprovementThresholdBps: decimal.RequireFromString(thresholdBps),
		AutoRefresh:             autoRefresh,
	}, testLogger())
}

// waitForEvent drains the session until an event of the wanted kind arrives.
// Any improvement seen while draining fails the test when forbidImprovement
// is set.
func waitForEvent(t *testing.T, session *app.Session, want app.EventKind, forbidImprovement bool) app.UpdateEvent {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case event, ok := <-session.Events():
			if !ok {
				t.Fatalf("session ended while waiting for %s", want)
			}
			if forbidImprovement && event.Kind == app.EventImprovement {
				t.Fatalf("unexpected improvement event: locked %s", event.LockedProvider)
			}
			if event.Kind == want {
				return event
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", want)
		}
	}
}

func TestStreamer_LocksInitialBest(t *testing.T) {
	a := newStubProvider("LP-A", "100000", 10*time.Second)
	b := newStubProvider("LP-B", "100500", 10*time.Second)
	agg := newAggregator(t, a, b)
	streamer := newStreamer(t, agg, "1", false)
	defer streamer.Stop()

	session := streamer.Start(context.Background(), buyRequest(t, "1"))

	event := waitForEvent(t, session, app.EventLocked, false)
	if event.LockedProvider != "LP-A" {
		t.Errorf("expected initial lock on LP-A, got %s", event.LockedProvider)
	}
	if !event.IsImprovement {
		t.Error("initial lock must be flagged as an improvement")
	}
	if event.PollCount != 1 {
		t.Errorf("expected poll count 1 on initial lock, got %d", event.PollCount)
	}

	locked := streamer.Locked()
	if locked == nil || locked.Provider != "LP-A" {
		t.Fatalf("expected lock snapshot on LP-A, got %+v", locked)
	}
}

func TestStreamer_SwitchesOnImprovement(t *testing.T) {
	a := newStubProvider("LP-A", "100000", 10*time.Second)
	b := newStubProvider("LP-B", "100500", 10*time.Second)
	agg := newAggregator(t, a, b)
	streamer := newStreamer(t, agg, "1", false)
	defer streamer.Stop()

	session := streamer.Start(context.Background(), buyRequest(t, "1"))
	waitForEvent(t, session, app.EventLocked, false)

	// Competitor drops well below the locked price.
	b.setPrice("99000")

	event := waitForEvent(t, session, app.EventImprovement, false)
	if event.LockedProvider != "LP-B" {
		t.Errorf("expected switch to LP-B, got %s", event.LockedProvider)
	}
	if streamer.Locked().Provider != "LP-B" {
		t.Errorf("lock snapshot not updated, still %s", streamer.Locked().Provider)
	}
}

func TestStreamer_BoundaryPriceDoesNotSwitch(t *testing.T) {
	// Markup 10 bps, threshold 10 bps. Locked: 100000 * 1.001 = 100100.
	// Boundary competitor price is 100100 * 0.999 = 99999.9, which a raw
	// price of 99900 lands on exactly. Equality must not switch.
	a := newStubProvider("LP-A", "100000", 10*time.Second)
	b := newStubProvider("LP-B", "100500", 10*time.Second)
	agg := newAggregator(t, a, b)
	streamer := newStreamer(t, agg, "10", false)
	defer streamer.Stop()

	session := streamer.Start(context.Background(), buyRequest(t, "1"))
	waitForEvent(t, session, app.EventLocked, false)

	b.setPrice("99900")

	// Several full cycles at the boundary, none may switch.
	for i := 0; i < 5; i++ {
		waitForEvent(t, session, app.EventNoChange, true)
	}

	// One tick below the boundary does switch.
	b.setPrice("99899")
	event := waitForEvent(t, session, app.EventImprovement, false)
	if event.LockedProvider != "LP-B" {
		t.Errorf("expected switch to LP-B below the boundary, got %s", event.LockedProvider)
	}
}

func TestStreamer_KeepsLockWhenCompetitorsFail(t *testing.T) {
	a := newStubProvider("LP-A", "100000", 10*time.Second)
	b := newStubProvider("LP-B", "100500", 10*time.Second)
	agg := newAggregator(t, a, b)
	streamer := newStreamer(t, agg, "1", false)
	defer streamer.Stop()

	session := streamer.Start(context.Background(), buyRequest(t, "1"))
	waitForEvent(t, session, app.EventLocked, false)

	b.fail.Store(true)

	event := waitForEvent(t, session, app.EventNoChange, true)
	if event.LockedProvider != "LP-A" {
		t.Errorf("expected lock kept on LP-A, got %s", event.LockedProvider)
	}
}

func TestStreamer_ExpiryEndsSessionWithoutAutoRefresh(t *testing.T) {
	a := newStubProvider("LP-A", "100000", 30*time.Millisecond)
	agg := newAggregator(t, a)
	streamer := newStreamer(t, agg, "1", false)
	defer streamer.Stop()

	session := streamer.Start(context.Background(), buyRequest(t, "1"))
	waitForEvent(t, session, app.EventLocked, false)
	waitForEvent(t, session, app.EventExpired, false)

	select {
	case <-session.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("session did not end after expiry")
	}
	if streamer.Locked() != nil {
		t.Error("lock snapshot must be cleared after expiry")
	}
}

func TestStreamer_AutoRefreshKeepsCounterMonotonic(t *testing.T) {
	a := newStubProvider("LP-A", "100000", 30*time.Millisecond)
	agg := newAggregator(t, a)
	streamer := newStreamer(t, agg, "1", true)
	defer streamer.Stop()

	session := streamer.Start(context.Background(), buyRequest(t, "1"))

	first := waitForEvent(t, session, app.EventLocked, false)
	expired := waitForEvent(t, session, app.EventExpired, false)
	second := waitForEvent(t, session, app.EventLocked, false)

	if second.PollCount <= first.PollCount {
		t.Errorf("poll counter reset on refresh: %d then %d", first.PollCount, second.PollCount)
	}
	if second.PollCount <= expired.PollCount {
		t.Errorf("re-lock poll count %d not past expiry count %d", second.PollCount, expired.PollCount)
	}
}

func TestStreamer_StartSupersedesPreviousSession(t *testing.T) {
	a := newStubProvider("LP-A", "100000", 10*time.Second)
	agg := newAggregator(t, a)
	streamer := newStreamer(t, agg, "1", false)
	defer streamer.Stop()

	first := streamer.Start(context.Background(), buyRequest(t, "1"))
	waitForEvent(t, first, app.EventLocked, false)

	second := streamer.Start(context.Background(), buyRequest(t, "2"))

	select {
	case <-first.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("first session not cancelled by supersede")
	}

	event := waitForEvent(t, second, app.EventLocked, false)
	if event.PollCount != 1 {
		t.Errorf("new session must start its own poll counter, got %d", event.PollCount)
	}
}

func TestStreamer_Stop(t *testing.T) {
	a := newStubProvider("LP-A", "100000", 10*time.Second)
	agg := newAggregator(t, a)
	streamer := newStreamer(t, agg, "1", false)

	session := streamer.Start(context.Background(), buyRequest(t, "1"))
	waitForEvent(t, session, app.EventLocked, false)

	streamer.Stop()

	select {
	case <-session.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("session did not stop")
	}
	if streamer.Locked() != nil {
		t.Error("lock snapshot must be cleared on stop")
	}
}
