// Package types provides common type aliases and utilities.
package types

import (
	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors.
type Money = decimal.Decimal

// Quantity represents a stock quantity. Quantities share the exact decimal
// representation with Money so that valuation math (quantity x price) never
// passes through binary floating point.
type Quantity = decimal.Decimal

// NewMoneyFromString creates a Money value from a string.
// This is the preferred method for monetary values.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// NewQuantity creates a Quantity from an integer count.
func NewQuantity(n int64) Quantity {
	return decimal.NewFromInt(n)
}

// Zero returns the zero decimal value.
func Zero() Money {
	return decimal.Zero
}

// RoundPresentation rounds a value for display using banker's rounding
// (round-half-even) at 2 decimal places. Intermediate sums must stay unrounded;
// apply this only at presentation boundaries.
func RoundPresentation(v Money) Money {
	return v.RoundBank(2)
}
