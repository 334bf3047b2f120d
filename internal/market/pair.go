// Package market holds trading pair metadata shared across contexts.
package market

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ProfitAsset names which side of the pair desk profit is preferred in.
type ProfitAsset string

const (
	ProfitInBase  ProfitAsset = "base"
	ProfitInQuote ProfitAsset = "quote"
)

// IsBase reports whether profit accrues in the base asset.
func (p ProfitAsset) IsBase() bool {
	return p == ProfitInBase
}

// Pair represents the metadata of a tradeable pair.
// It is a reference entity with stable identity (its symbol).
type Pair struct {
	symbol        string
	base          string
	quote         string
	markupBps     decimal.Decimal
	baseDecimals  int32
	quoteDecimals int32
	minAmount     decimal.Decimal
	profitAsset   ProfitAsset
}

// NewPair creates a new Pair with the given parameters.
func NewPair(symbol, base, quote string, markupBps decimal.Decimal, baseDecimals, quoteDecimals int32, minAmount decimal.Decimal, profitAsset ProfitAsset) *Pair {
	if symbol == "" {
		panic("market: empty pair symbol")
	}
	if base == "" || quote == "" {
		panic("market: empty base or quote asset")
	}
	if markupBps.IsNegative() {
		panic("market: negative markup")
	}
	if profitAsset != ProfitInBase && profitAsset != ProfitInQuote {
		panic("market: profit asset must be base or quote")
	}

	return &Pair{
		symbol:        symbol,
		base:          base,
		quote:         quote,
		markupBps:     markupBps,
		baseDecimals:  baseDecimals,
		quoteDecimals: quoteDecimals,
		minAmount:     minAmount,
		profitAsset:   profitAsset,
	}
}

// Symbol returns the pair symbol (e.g., "BTCUSDT").
func (p *Pair) Symbol() string {
	return p.symbol
}

// Base returns the base asset symbol (e.g., "BTC").
func (p *Pair) Base() string {
	return p.base
}

// Quote returns the quote asset symbol (e.g., "USDT").
func (p *Pair) Quote() string {
	return p.quote
}

// MarkupBps returns the desk markup in basis points.
func (p *Pair) MarkupBps() decimal.Decimal {
	return p.markupBps
}

// BaseDecimals returns the display precision for base amounts.
func (p *Pair) BaseDecimals() int32 {
	return p.baseDecimals
}

// QuoteDecimals returns the display precision for quote amounts.
func (p *Pair) QuoteDecimals() int32 {
	return p.quoteDecimals
}

// MinAmount returns the minimum requestable amount for this pair.
func (p *Pair) MinAmount() decimal.Decimal {
	return p.minAmount
}

// ProfitAsset returns which asset desk profit is preferred in.
func (p *Pair) ProfitAsset() ProfitAsset {
	return p.profitAsset
}

// DecimalsFor returns the display precision for the given asset of the pair.
func (p *Pair) DecimalsFor(asset string) int32 {
	if strings.EqualFold(asset, p.base) {
		return p.baseDecimals
	}
	return p.quoteDecimals
}

// IsBase reports whether the given asset is the pair's base asset.
func (p *Pair) IsBase(asset string) bool {
	return strings.EqualFold(asset, p.base)
}

// IsQuote reports whether the given asset is the pair's quote asset.
func (p *Pair) IsQuote(asset string) bool {
	return strings.EqualFold(asset, p.quote)
}

// Counter returns the opposite asset of the pair, or "" if asset is
// neither side.
func (p *Pair) Counter(asset string) string {
	switch {
	case p.IsBase(asset):
		return p.quote
	case p.IsQuote(asset):
		return p.base
	default:
		return ""
	}
}

// String returns a human-readable representation.
func (p *Pair) String() string {
	return p.symbol
}
