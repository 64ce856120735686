package period

import (
	"context"
	"time"

	"grootboek/internal/core/id"
	"grootboek/internal/domain"
)

// Repository defines persistence operations for accounting periods.
type Repository interface {
	Create(ctx context.Context, p *Period) error
	GetByID(ctx context.Context, tenantID, periodID id.ID) (*Period, error)
	// GetForUpdate loads the period with a row lock. Post, Finalize and
	// Lock serialize on this lock so a finalize-in-progress and a
	// concurrent post into the same period cannot both succeed.
	GetForUpdate(ctx context.Context, tenantID, periodID id.ID) (*Period, error)
	// FindByDate resolves the period containing date ([start, end)).
	FindByDate(ctx context.Context, tenantID id.ID, date time.Time) (*Period, error)
	// FindByDateForUpdate resolves and locks the period containing date.
	FindByDateForUpdate(ctx context.Context, tenantID id.ID, date time.Time) (*Period, error)
	// Update persists status and transition stamps with optimistic locking.
	Update(ctx context.Context, p *Period) error
	List(ctx context.Context, tenantID id.ID, filter domain.ListFilter) (domain.ListResult[*Period], error)
	// ExistsOverlapping reports whether any period of the tenant overlaps
	// [start, end).
	ExistsOverlapping(ctx context.Context, tenantID id.ID, start, end time.Time) (bool, error)

	// AppendAuditRow writes one append-only transition record.
	AppendAuditRow(ctx context.Context, row AuditRow) error
	ListAuditRows(ctx context.Context, tenantID, periodID id.ID) ([]AuditRow, error)
}

// DraftSource lists draft journal entries dated inside a period.
// Implemented by the journal repository; declared here so Period Control
// does not depend on the Journal Engine package.
type DraftSource interface {
	ListDraftEntryIDs(ctx context.Context, tenantID id.ID, from, to time.Time) ([]id.ID, error)
}

// LineageRebuilder regenerates VAT box lineage for a period.
// Implemented by the VAT box indexer.
type LineageRebuilder interface {
	RebuildInTx(ctx context.Context, tenantID, periodID id.ID) error
}

// SnapshotBuilder freezes a period's computed statements.
// Implemented by the snapshot service; runs inside the finalize transaction.
type SnapshotBuilder interface {
	BuildForPeriod(ctx context.Context, p *Period, actor string) (id.ID, error)
}
