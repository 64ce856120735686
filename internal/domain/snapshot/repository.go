package snapshot

import (
	"context"
	"time"

	"grootboek/internal/core/id"
	"grootboek/internal/core/types"
)

// Repository persists snapshots and answers the aggregation queries the
// builder needs. Snapshots are insert-only: there is deliberately no
// Update or Delete.
type Repository interface {
	// Create inserts the snapshot. A snapshot already existing for the
	// same period surfaces as a SNAPSHOT_IMMUTABLE error.
	Create(ctx context.Context, s *Snapshot) error
	GetByID(ctx context.Context, tenantID, snapshotID id.ID) (*Snapshot, error)
	GetByPeriod(ctx context.Context, tenantID, periodID id.ID) (*Snapshot, error)
	ExistsForPeriod(ctx context.Context, tenantID, periodID id.ID) (bool, error)

	// TrialBalance aggregates posted journal lines per account for
	// entry dates in [from, to).
	TrialBalance(ctx context.Context, tenantID id.ID, from, to time.Time) ([]TrialBalanceRow, error)

	// OpenItems aggregates outstanding per-party balances on asset and
	// liability accounts for entry dates in [from, to).
	OpenItems(ctx context.Context, tenantID id.ID, from, to time.Time) ([]OpenItem, error)

	// VatPosition sums VAT over the period's lineage, split into
	// payable (non-purchase categories) and receivable (purchases).
	VatPosition(ctx context.Context, tenantID, periodID id.ID) (payable, receivable types.Money, err error)
}
