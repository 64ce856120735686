package journal

import (
	"context"
	"time"

	"grootboek/internal/core/id"
	"grootboek/internal/domain"
)

// Repository defines persistence operations for journal entries.
// The journal engine exclusively owns entry and line rows.
type Repository interface {
	// Create inserts a draft entry together with its lines.
	Create(ctx context.Context, entry *Entry) error
	GetByID(ctx context.Context, tenantID, entryID id.ID) (*Entry, error)
	// GetForUpdate loads the entry (with lines) under a row lock.
	GetForUpdate(ctx context.Context, tenantID, entryID id.ID) (*Entry, error)
	GetByNumber(ctx context.Context, tenantID id.ID, number string) (*Entry, error)
	// Update persists entry fields with optimistic locking.
	Update(ctx context.Context, entry *Entry) error
	// SaveLines replaces the draft's lines (delete existing + insert new).
	SaveLines(ctx context.Context, entryID id.ID, lines []Line) error
	List(ctx context.Context, tenantID id.ID, filter ListFilter) (domain.ListResult[*Entry], error)
	// ListDraftEntryIDs returns ids of DRAFT entries dated in [from, to).
	// Period Control calls this through its DraftSource port before
	// finalizing.
	ListDraftEntryIDs(ctx context.Context, tenantID id.ID, from, to time.Time) ([]id.ID, error)
}

// ListFilter filters entry listings.
type ListFilter struct {
	domain.ListFilter

	Status      *Status
	PeriodID    *id.ID
	AccountID   *id.ID
	DateFrom    *time.Time
	DateTo      *time.Time
	DocumentRef string
}
