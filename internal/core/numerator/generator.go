// Package numerator provides domain contracts for document auto-numbering.
// Implementations live in infrastructure layer.
package numerator

import (
	"context"
	"time"
)

// Generator generates sequential document numbers.
// This is the domain contract - implementations live in infrastructure layer.
//
// Numbers are scoped per tenant and, with a yearly ResetPeriod, per year.
// Allocation goes through a single authoritative counter row, never by
// counting existing documents; concurrent posters therefore can never
// observe the same number.
type Generator interface {
	// GetNextNumber generates the next document number.
	// Pattern: PREFIX-YEAR-XXXXX (e.g., JE-2026-00001)
	//
	// When called inside a transaction the increment joins that
	// transaction, so a rolled-back posting does not burn a number.
	GetNextNumber(ctx context.Context, cfg Config, opts *Options, period time.Time) (string, error)

	// SetNextNumber sets the next number value (for migration purposes).
	SetNextNumber(ctx context.Context, cfg Config, period time.Time, value int64) error
}
