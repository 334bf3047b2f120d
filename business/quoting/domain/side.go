// Package domain contains the core domain types for the quoting context.
package domain

import (
	"strings"

	"github.com/quotedesk/rfq-aggregator/internal/apperror"
)

// Side is the client's side of the trade.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// ParseSide parses a side string, case-insensitive.
func ParseSide(s string) (Side, error) {
	switch strings.ToUpper(s) {
	case "BUY":
		return SideBuy, nil
	case "SELL":
		return SideSell, nil
	default:
		return "", apperror.New(apperror.CodeInvalidSide, apperror.WithContext(s))
	}
}

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

func (s Side) String() string {
	return string(s)
}
