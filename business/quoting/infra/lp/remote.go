package lp

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/quotedesk/rfq-aggregator/business/quoting/domain"
	"github.com/quotedesk/rfq-aggregator/internal/apperror"
	"github.com/quotedesk/rfq-aggregator/internal/config"
	"github.com/quotedesk/rfq-aggregator/internal/logger"
	"github.com/quotedesk/rfq-aggregator/internal/ratelimit"
	"github.com/quotedesk/rfq-aggregator/internal/wsconn"
)

// Wire message types for the RFQ websocket protocol.
const (
	msgRFQ       = "rfq"
	msgQuote     = "quote"
	msgExecute   = "execute"
	msgExecution = "execution"
	msgError     = "error"
)

type rfqMessage struct {
	Type        string `json:"type"`
	ID          string `json:"id"`
	Symbol      string `json:"symbol,omitempty"`
	Side        string `json:"side,omitempty"`
	Amount      string `json:"amount,omitempty"`
	TargetAsset string `json:"target_asset,omitempty"`
	QuoteID     string `json:"quote_id,omitempty"`

	Price       string `json:"price,omitempty"`
	MaxQuantity string `json:"max_quantity,omitempty"`
	ValidityMs  int64  `json:"validity_ms,omitempty"`
	Status      string `json:"status,omitempty"`
	Message     string `json:"message,omitempty"`
}

// RemoteProvider speaks JSON RFQ over a websocket. Requests are correlated
// with responses by message id; outgoing traffic is rate limited to the
// venue's quota.
type RemoteProvider struct {
	name    string
	conn    *wsconn.Client
	limiter *ratelimit.Limiter
	logger  logger.LoggerInterface

	mu      sync.Mutex
	pending map[string]chan rfqMessage
}

// NewRemoteProvider creates a websocket RFQ provider. Connect must be
// called before the first quote request.
func NewRemoteProvider(cfg config.RemoteProviderConfig, log logger.LoggerInterface) (*RemoteProvider, error) {
	wsCfg := wsconn.DefaultConfig(cfg.URL, cfg.Name)
	wsCfg.DialTimeout = cfg.DialTimeout
	if cfg.APIKey != "" {
		wsCfg.Headers = map[string]string{"X-Api-Key": cfg.APIKey}
	}

	conn, err := wsconn.New(wsCfg)
	if err != nil {
		return nil, err
	}

	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 600
	}

	p := &RemoteProvider{
		name:    cfg.Name,
		conn:    conn,
		limiter: ratelimit.PerMinute(rpm),
		logger:  log,
		pending: make(map[string]chan rfqMessage),
	}
	conn.OnMessage(p.dispatch)

	return p, nil
}

func (p *RemoteProvider) Name() string { return p.name }

// Connect establishes the websocket session.
func (p *RemoteProvider) Connect(ctx context.Context) error {
	return p.conn.Connect(ctx)
}

// Close tears down the websocket and fails any in-flight requests.
func (p *RemoteProvider) Close() error {
	err := p.conn.Close()

	p.mu.Lock()
	for id, ch := range p.pending {
		close(ch)
		delete(p.pending, id)
	}
	p.mu.Unlock()

	return err
}

// RequestQuote sends an RFQ and waits for the correlated quote message.
func (p *RemoteProvider) RequestQuote(ctx context.Context, req domain.QuoteRequest) (*domain.ProviderQuote, error) {
	reply, err := p.roundTrip(ctx, rfqMessage{
		Type:        msgRFQ,
		ID:          uuid.NewString(),
		Symbol:      req.Symbol,
		Side:        string(req.Side),
		Amount:      req.Amount.String(),
		TargetAsset: req.TargetAsset,
	})
	if err != nil {
		return nil, err
	}
	if reply.Type != msgQuote {
		return nil, apperror.New(apperror.CodeProviderError,
			apperror.WithMessage("unexpected reply type "+reply.Type),
			apperror.WithContext(p.name))
	}

	price, err := decimal.NewFromString(reply.Price)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeProviderError, p.name+": bad price")
	}
	maxQty := req.Amount
	if reply.MaxQuantity != "" {
		maxQty, err = decimal.NewFromString(reply.MaxQuantity)
		if err != nil {
			return nil, apperror.Wrap(err, apperror.CodeProviderError, p.name+": bad max quantity")
		}
	}

	return &domain.ProviderQuote{
		Provider:    p.name,
		Price:       price,
		MaxQuantity: maxQty,
		Validity:    time.Duration(reply.ValidityMs) * time.Millisecond,
		Side:        req.Side,
		IssuedAt:    time.Now(),
	}, nil
}

// ExecuteTrade asks the venue to fill its earlier quote.
func (p *RemoteProvider) ExecuteTrade(ctx context.Context, quote *domain.ProviderQuote, client *domain.ClientQuote) error {
	if quote.IsExpired(time.Now()) {
		return apperror.New(apperror.CodeQuoteExpired, apperror.WithContext(p.name))
	}

	reply, err := p.roundTrip(ctx, rfqMessage{
		Type:    msgExecute,
		ID:      uuid.NewString(),
		QuoteID: client.ID,
	})
	if err != nil {
		return err
	}
	if reply.Type != msgExecution || reply.Status != "FILLED" {
		return apperror.New(apperror.CodeExecutionFailed,
			apperror.WithMessage("venue rejected execution: "+reply.Status),
			apperror.WithContext(p.name))
	}
	return nil
}

func (p *RemoteProvider) roundTrip(ctx context.Context, msg rfqMessage) (rfqMessage, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return rfqMessage{}, err
	}

	ch := make(chan rfqMessage, 1)
	p.mu.Lock()
	p.pending[msg.ID] = ch
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		delete(p.pending, msg.ID)
		p.mu.Unlock()
	}()

	if err := p.conn.SendJSON(ctx, msg); err != nil {
		return rfqMessage{}, apperror.Wrap(err, apperror.CodeWebSocketSendError, p.name)
	}

	select {
	case reply, ok := <-ch:
		if !ok {
			return rfqMessage{}, apperror.New(apperror.CodeWebSocketClosed, apperror.WithContext(p.name))
		}
		if reply.Type == msgError {
			return rfqMessage{}, apperror.New(apperror.CodeProviderError,
				apperror.WithMessage(reply.Message),
				apperror.WithContext(p.name))
		}
		return reply, nil
	case <-ctx.Done():
		return rfqMessage{}, apperror.Wrap(ctx.Err(), apperror.CodeProviderTimeout, p.name)
	}
}

func (p *RemoteProvider) dispatch(ctx context.Context, data []byte) {
	var msg rfqMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		p.logger.Warn(ctx, "malformed provider message", "provider", p.name, "error", err)
		return
	}

	p.mu.Lock()
	ch, ok := p.pending[msg.ID]
	p.mu.Unlock()
	if !ok {
		// Late reply for a request that already timed out.
		return
	}

	select {
	case ch <- msg:
	default:
	}
}
