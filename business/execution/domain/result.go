package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	quotingDomain "github.com/quotedesk/rfq-aggregator/business/quoting/domain"
)

// Status is the terminal outcome of one execution attempt.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
)

// ExecutionResult is the terminal record of one confirmed execution. It is
// created once, never updated, and handed to the store verbatim.
type ExecutionResult struct {
	ID         string
	QuoteID    string
	Status     Status
	Provider   string
	Symbol     string
	ClientSide quotingDomain.Side

	Hedge HedgeParams

	ExecutedQty      decimal.Decimal
	ExecutedNotional decimal.Decimal
	AvgPrice         decimal.Decimal
	Commission       decimal.Decimal
	CommissionAsset  string

	GrossPnL decimal.Decimal
	NetPnL   decimal.Decimal
	PnLBps   decimal.Decimal
	PnLAsset string

	ErrorMessage string
	ExecutedAt   time.Time
}

// NewFailedResult builds a FAILED record for a quote whose execution did
// not complete.
func NewFailedResult(cq *quotingDomain.ClientQuote, hedge HedgeParams, reason string) *ExecutionResult {
	return &ExecutionResult{
		ID:           uuid.NewString(),
		QuoteID:      cq.ID,
		Status:       StatusFailed,
		Provider:     cq.Provider,
		Symbol:       cq.Symbol,
		ClientSide:   cq.Side,
		Hedge:        hedge,
		ErrorMessage: reason,
		ExecutedAt:   time.Now(),
	}
}

// NewSuccessResult builds a SUCCESS record from the hedge fill and P&L.
func NewSuccessResult(cq *quotingDomain.ClientQuote, hedge HedgeParams, fill *ExecutedHedge, pnl PnL) *ExecutionResult {
	return &ExecutionResult{
		ID:               uuid.NewString(),
		QuoteID:          cq.ID,
		Status:           StatusSuccess,
		Provider:         cq.Provider,
		Symbol:           cq.Symbol,
		ClientSide:       cq.Side,
		Hedge:            hedge,
		ExecutedQty:      fill.ExecutedQty,
		ExecutedNotional: fill.ExecutedNotional,
		AvgPrice:         fill.AvgPrice,
		Commission:       fill.Commission,
		CommissionAsset:  fill.CommissionAsset,
		GrossPnL:         pnl.Gross,
		NetPnL:           pnl.Net,
		PnLBps:           pnl.Bps,
		PnLAsset:         pnl.Asset,
		ExecutedAt:       time.Now(),
	}
}
