// Package types provides common type aliases and utilities.
package types

import (
	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors; ledger
// invariants (debit == credit) rely on exact decimal equality.
type Money = decimal.Decimal

// Zero returns zero Money value.
func Zero() Money {
	return decimal.Zero
}

// NewMoneyFromString creates a Money value from a string.
// This is the preferred constructor for monetary values.
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

// RoundCents rounds to 2 decimal places, the precision journal amounts
// are persisted with (NUMERIC(15,2)).
func RoundCents(m Money) Money {
	return m.Round(2)
}

// Rate represents a VAT percentage (e.g. 21 for 21%).
type Rate = decimal.Decimal

// MustRate creates a Rate from a string, panics on error.
func MustRate(s string) Rate {
	return MustMoney(s)
}
