// Package numerator provides PostgreSQL implementation of document auto-numbering.
// This is the infrastructure layer - it implements core/numerator.Generator interface.
package numerator

import (
	"context"
	"fmt"
	"sync"
	"time"

	corenumerator "grootboek/internal/core/numerator"
	"grootboek/internal/core/tenant"
	"grootboek/internal/infrastructure/storage/postgres"
)

type cachedRange struct {
	current int64
	max     int64
}

// Service provides document numbering backed by the sys_sequences table.
// Counters are keyed (tenant_id, sequence_type, year), so numbering is
// independent per tenant and restarts at 1 every year.
//
// Queries go through the transaction manager: when the caller runs
// inside a transaction the increment joins it, so a rolled-back posting
// does not burn a number.
type Service struct {
	txManager *postgres.TxManager

	// cacheMu protects ranges map
	cacheMu sync.Mutex
	// ranges stores active ranges for each key.
	// Keys include tenant ID to prevent collisions.
	ranges map[string]*cachedRange
}

// Ensure compile-time interface compliance.
var _ corenumerator.Generator = (*Service)(nil)

// New creates a new numerator service.
func New(txManager *postgres.TxManager) *Service {
	return &Service{
		txManager: txManager,
		ranges:    make(map[string]*cachedRange),
	}
}

// GetNextNumber generates the next document number.
// Pattern: PREFIX-YEAR-XXXXX (e.g., JE-2026-00001)
//
// Supports Strict (DB-level) and Cached (Memory-level) strategies.
func (s *Service) GetNextNumber(ctx context.Context, cfg corenumerator.Config, opts *corenumerator.Options, period time.Time) (string, error) {
	if s == nil {
		return "", fmt.Errorf("numerator service is not initialized")
	}

	if opts == nil {
		opts = corenumerator.DefaultOptions()
	}

	tenantID, err := tenant.FromContext(ctx)
	if err != nil {
		return "", fmt.Errorf("numerator: %w", err)
	}

	seqType, year := sequenceKey(cfg, period)
	cacheKey := fmt.Sprintf("%s:%s:%d", tenantID, seqType, year)

	var num int64
	switch opts.Strategy {
	case corenumerator.StrategyCached:
		num, err = s.getNextCached(ctx, tenantID.String(), seqType, year, cacheKey, opts)
	case corenumerator.StrategyStrict:
		fallthrough
	default:
		num, err = s.getNextStrict(ctx, tenantID.String(), seqType, year)
	}

	if err != nil {
		return "", err
	}

	return formatNumber(cfg, period, num), nil
}

// getNextStrict fetches the next number directly from DB using UPSERT + RETURNING.
func (s *Service) getNextStrict(ctx context.Context, tenantID, seqType string, year int) (int64, error) {
	querier := s.txManager.GetQuerier(ctx)
	var num int64

	err := querier.QueryRow(ctx, `
        INSERT INTO sys_sequences (tenant_id, sequence_type, year, current_val)
        VALUES ($1, $2, $3, 1)
        ON CONFLICT (tenant_id, sequence_type, year) DO UPDATE SET current_val = sys_sequences.current_val + 1
        RETURNING current_val
	`, tenantID, seqType, year).Scan(&num)

	if err != nil {
		return 0, fmt.Errorf("strict next: %w", err)
	}
	return num, nil
}

// getNextCached fetches next number from memory, refilling from DB if needed.
func (s *Service) getNextCached(ctx context.Context, tenantID, seqType string, year int, cacheKey string, opts *corenumerator.Options) (int64, error) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	rng, exists := s.ranges[cacheKey]
	if !exists {
		rng = &cachedRange{}
		s.ranges[cacheKey] = rng
	}

	// allocate new range if needed
	if rng.current >= rng.max {
		size := opts.RangeSize
		if size <= 0 {
			size = 50 // default
		}

		querier := s.txManager.GetQuerier(ctx)
		var newMax int64

		err := querier.QueryRow(ctx, `
            INSERT INTO sys_sequences (tenant_id, sequence_type, year, current_val)
            VALUES ($1, $2, $3, $4)
            ON CONFLICT (tenant_id, sequence_type, year) DO UPDATE SET current_val = sys_sequences.current_val + $4
            RETURNING current_val
		`, tenantID, seqType, year, size).Scan(&newMax)

		if err != nil {
			return 0, fmt.Errorf("reserve range: %w", err)
		}

		// newMax is the end of our range; the range starts at
		// newMax - size + 1.
		rng.current = newMax - size
		rng.max = newMax
	}

	rng.current++
	return rng.current, nil
}

// SetNextNumber sets the next number value (for migration purposes).
func (s *Service) SetNextNumber(ctx context.Context, cfg corenumerator.Config, period time.Time, value int64) error {
	tenantID, err := tenant.FromContext(ctx)
	if err != nil {
		return fmt.Errorf("numerator: %w", err)
	}

	querier := s.txManager.GetQuerier(ctx)
	seqType, year := sequenceKey(cfg, period)

	var result int64
	err = querier.QueryRow(ctx, `
		INSERT INTO sys_sequences (tenant_id, sequence_type, year, current_val)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (tenant_id, sequence_type, year) DO UPDATE SET current_val = $4
		RETURNING current_val
	`, tenantID, seqType, year, value).Scan(&result)

	// Invalidate cache for this key if exists
	s.cacheMu.Lock()
	cacheKey := fmt.Sprintf("%s:%s:%d", tenantID, seqType, year)
	delete(s.ranges, cacheKey)
	s.cacheMu.Unlock()

	return err
}

// sequenceKey resolves the sys_sequences row a config addresses.
// Every strategy and SetNextNumber must derive the key through here:
// the (sequence_type, year) pair is the counter's identity, and two
// derivations drifting apart would silently split one sequence in two.
func sequenceKey(cfg corenumerator.Config, period time.Time) (string, int) {
	switch cfg.ResetPeriod {
	case "month":
		return fmt.Sprintf("%s_%s", cfg.Prefix, period.Format("01")), period.Year()
	case "year":
		return cfg.Prefix, period.Year()
	default:
		return cfg.Prefix, 0
	}
}

// formatNumber creates the final number string.
func formatNumber(cfg corenumerator.Config, period time.Time, num int64) string {
	padWidth := cfg.PadWidth
	if padWidth == 0 {
		padWidth = 5
	}

	if cfg.IncludeYear {
		return fmt.Sprintf("%s-%s-%0*d", cfg.Prefix, period.Format("2006"), padWidth, num)
	}
	return fmt.Sprintf("%s-%0*d", cfg.Prefix, padWidth, num)
}

// ParseNumber extracts numeric part from formatted number.
// Returns -1 if parsing fails.
func ParseNumber(formatted string) int64 {
	var num int64
	patterns := []string{
		"%*[^-]-%*d-%d",
		"%*[^-]-%d",
	}

	for _, pattern := range patterns {
		if _, err := fmt.Sscanf(formatted, pattern, &num); err == nil {
			return num
		}
	}

	return -1
}
