package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quotedesk/rfq-aggregator/internal/apperror"
	"github.com/quotedesk/rfq-aggregator/internal/market"
)

// QuoteRequest is an operator request for pricing. Immutable once created.
type QuoteRequest struct {
	Side        Side
	Amount      decimal.Decimal
	BaseAsset   string
	QuoteAsset  string
	TargetAsset string // asset the Amount is denominated in
	Symbol      string
	CreatedAt   time.Time
}

// NewQuoteRequest validates and constructs a QuoteRequest against the pair.
// The target asset must be one of the pair's two sides; invalid requests are
// rejected here, before any provider is polled.
func NewQuoteRequest(side Side, amount decimal.Decimal, targetAsset string, pair *market.Pair) (QuoteRequest, error) {
	if side != SideBuy && side != SideSell {
		return QuoteRequest{}, apperror.New(apperror.CodeInvalidSide, apperror.WithContext(string(side)))
	}
	if !amount.IsPositive() {
		return QuoteRequest{}, apperror.New(apperror.CodeInvalidAmount,
			apperror.WithContext(amount.String()))
	}
	if !pair.IsBase(targetAsset) && !pair.IsQuote(targetAsset) {
		return QuoteRequest{}, apperror.New(apperror.CodeInvalidTargetAsset,
			apperror.WithContext(fmt.Sprintf("target %s on %s/%s", targetAsset, pair.Base(), pair.Quote())))
	}
	if amount.LessThan(pair.MinAmount()) && pair.IsBase(targetAsset) {
		return QuoteRequest{}, apperror.New(apperror.CodeBelowMinAmount,
			apperror.WithContext(fmt.Sprintf("%s < %s %s", amount, pair.MinAmount(), pair.Base())))
	}

	return QuoteRequest{
		Side:        side,
		Amount:      amount,
		BaseAsset:   pair.Base(),
		QuoteAsset:  pair.Quote(),
		TargetAsset: targetAsset,
		Symbol:      pair.Symbol(),
		CreatedAt:   time.Now(),
	}, nil
}

// TargetIsBase reports whether the requested amount is denominated in the
// pair's base asset.
func (r QuoteRequest) TargetIsBase() bool {
	return r.TargetAsset == r.BaseAsset
}

func (r QuoteRequest) String() string {
	return fmt.Sprintf("%s %s %s on %s/%s", r.Side, r.Amount, r.TargetAsset, r.BaseAsset, r.QuoteAsset)
}
