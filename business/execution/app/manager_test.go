package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quotedesk/rfq-aggregator/business/execution/app"
	"github.com/quotedesk/rfq-aggregator/business/execution/domain"
	quotingDomain "github.com/quotedesk/rfq-aggregator/business/quoting/domain"
	"github.com/quotedesk/rfq-aggregator/internal/apperror"
	"github.com/quotedesk/rfq-aggregator/internal/logger"
	"github.com/quotedesk/rfq-aggregator/internal/market"
)

type stubExecutor struct {
	name    string
	fail    bool
	block   chan struct{} // when set, ExecuteTrade waits for it
	calls   int
	callsMu sync.Mutex
}

func (e *stubExecutor) Name() string { return e.name }

func (e *stubExecutor) ExecuteTrade(ctx context.Context, quote *quotingDomain.ProviderQuote, client *quotingDomain.ClientQuote) error {
	e.callsMu.Lock()
	e.calls++
	e.callsMu.Unlock()

	if e.block != nil {
		select {
		case <-e.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if e.fail {
		return errors.New("venue rejected")
	}
	return nil
}

func (e *stubExecutor) callCount() int {
	e.callsMu.Lock()
	defer e.callsMu.Unlock()
	return e.calls
}

type stubHedger struct {
	fail bool
}

func (h *stubHedger) ExecuteHedge(ctx context.Context, params domain.HedgeParams, client *quotingDomain.ClientQuote) (*domain.ExecutedHedge, error) {
	if h.fail {
		return nil, errors.New("exchange down")
	}
	qty := params.Amount
	notional := qty.Mul(client.RawPrice)
	if params.Basis == domain.BasisQuote {
		notional = params.Amount
		qty = notional.Div(client.RawPrice)
	}
	return &domain.ExecutedHedge{
		OrderID:          "SIM-1",
		Side:             params.ExchangeSide,
		ExecutedQty:      qty,
		ExecutedNotional: notional,
		AvgPrice:         client.RawPrice,
	}, nil
}

type recordingStore struct {
	mu      sync.Mutex
	results []*domain.ExecutionResult
}

func (s *recordingStore) Record(ctx context.Context, result *domain.ExecutionResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, result)
	return nil
}

func (s *recordingStore) Recent(ctx context.Context, limit int) ([]*domain.ExecutionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit > len(s.results) {
		limit = len(s.results)
	}
	return s.results[len(s.results)-limit:], nil
}

func (s *recordingStore) recorded() []*domain.ExecutionResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*domain.ExecutionResult{}, s.results...)
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func testLogger() logger.LoggerInterface {
	return logger.New(discard{}, logger.LevelError, "test", nil)
}

func validQuote() (*quotingDomain.ClientQuote, *quotingDomain.ProviderQuote) {
	cq := &quotingDomain.ClientQuote{
		ID:             "q-1",
		Provider:       "LP-1",
		Symbol:         "BTCUSDT",
		BaseAsset:      "BTC",
		QuoteAsset:     "USDT",
		TargetAsset:    "BTC",
		Side:           quotingDomain.SideBuy,
		ProfitAsset:    market.ProfitInQuote,
		RawPrice:       decimal.NewFromInt(100000),
		ClientPrice:    decimal.NewFromInt(100050),
		GivesAmount:    decimal.NewFromInt(150075),
		GivesAsset:     "USDT",
		ReceivesAmount: decimal.RequireFromString("1.5"),
		ReceivesAsset:  "BTC",
		Validity:       10 * time.Second,
		CreatedAt:      time.Now(),
	}
	pq := &quotingDomain.ProviderQuote{
		Provider: "LP-1",
		Price:    decimal.NewFromInt(100000),
		Validity: 10 * time.Second,
		Side:     quotingDomain.SideBuy,
		IssuedAt: time.Now(),
	}
	return cq, pq
}

func newManager(t *testing.T, executor app.TradeExecutor, hedger app.HedgeExecutor, store app.ExecutionStore) *app.Manager {
	t.Helper()
	m, err := app.NewManager([]app.TradeExecutor{executor}, hedger, store,
		app.ManagerConfig{HedgeTimeout: time.Second}, testLogger())
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m
}

func TestExecute_Success(t *testing.T) {
	store := &recordingStore{}
	m := newManager(t, &stubExecutor{name: "LP-1"}, &stubHedger{}, store)

	cq, pq := validQuote()
	result, err := m.Execute(context.Background(), cq, pq)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Status != domain.StatusSuccess {
		t.Fatalf("expected SUCCESS, got %s (%s)", result.Status, result.ErrorMessage)
	}
	if !result.GrossPnL.Equal(decimal.NewFromInt(75)) {
		t.Errorf("expected gross pnl 75, got %s", result.GrossPnL)
	}
	if result.PnLAsset != "USDT" {
		t.Errorf("expected pnl in USDT, got %s", result.PnLAsset)
	}
	if len(store.recorded()) != 1 {
		t.Errorf("expected 1 recorded result, got %d", len(store.recorded()))
	}
}

func TestExecute_ExpiredQuoteRefusedBeforeProviderCall(t *testing.T) {
	store := &recordingStore{}
	executor := &stubExecutor{name: "LP-1"}
	m := newManager(t, executor, &stubHedger{}, store)

	cq, pq := validQuote()
	cq.CreatedAt = time.Now().Add(-time.Minute)

	_, err := m.Execute(context.Background(), cq, pq)
	if apperror.GetCode(err) != apperror.CodeQuoteExpired {
		t.Fatalf("expected CodeQuoteExpired, got %v", err)
	}
	if executor.callCount() != 0 {
		t.Error("provider must not be called for an expired quote")
	}
	if len(store.recorded()) != 0 {
		t.Error("a refused confirm must not be recorded")
	}
}

func TestExecute_ClientLegFailureRecordedAsFailed(t *testing.T) {
	store := &recordingStore{}
	m := newManager(t, &stubExecutor{name: "LP-1", fail: true}, &stubHedger{}, store)

	cq, pq := validQuote()
	result, err := m.Execute(context.Background(), cq, pq)
	if err != nil {
		t.Fatalf("failures must surface as results, got error: %v", err)
	}
	if result.Status != domain.StatusFailed {
		t.Fatalf("expected FAILED, got %s", result.Status)
	}
	if result.ErrorMessage == "" {
		t.Error("expected an error message on the failed result")
	}
	if len(store.recorded()) != 1 {
		t.Errorf("failed execution must still be recorded, got %d records", len(store.recorded()))
	}
}

func TestExecute_HedgeFailureRecordedAsFailed(t *testing.T) {
	store := &recordingStore{}
	m := newManager(t, &stubExecutor{name: "LP-1"}, &stubHedger{fail: true}, store)

	cq, pq := validQuote()
	result, err := m.Execute(context.Background(), cq, pq)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != domain.StatusFailed {
		t.Fatalf("expected FAILED, got %s", result.Status)
	}
	recorded := store.recorded()
	if len(recorded) != 1 || recorded[0].Status != domain.StatusFailed {
		t.Error("hedge failure must be recorded as FAILED")
	}
}

func TestExecute_UnknownProviderRecordedAsFailed(t *testing.T) {
	store := &recordingStore{}
	m := newManager(t, &stubExecutor{name: "LP-OTHER"}, &stubHedger{}, store)

	cq, pq := validQuote()
	result, err := m.Execute(context.Background(), cq, pq)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != domain.StatusFailed {
		t.Fatalf("expected FAILED, got %s", result.Status)
	}
}

func TestExecute_DoubleConfirmRejected(t *testing.T) {
	store := &recordingStore{}
	block := make(chan struct{})
	executor := &stubExecutor{name: "LP-1", block: block}
	m := newManager(t, executor, &stubHedger{}, store)

	cq, pq := validQuote()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := m.Execute(context.Background(), cq, pq); err != nil {
			t.Errorf("first execute failed: %v", err)
		}
	}()

	// Wait until the first execution is inside the provider call.
	deadline := time.After(2 * time.Second)
	for executor.callCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("first execution never reached the provider")
		case <-time.After(time.Millisecond):
		}
	}

	_, err := m.Execute(context.Background(), cq, pq)
	if apperror.GetCode(err) != apperror.CodeExecutionInFlight {
		t.Fatalf("expected CodeExecutionInFlight, got %v", err)
	}

	close(block)
	<-done

	// With the first execution finished, a new confirm is accepted again.
	cq2, pq2 := validQuote()
	if _, err := m.Execute(context.Background(), cq2, pq2); err != nil {
		t.Fatalf("execute after completion failed: %v", err)
	}
}
