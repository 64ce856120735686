package vatbox

import (
	"context"

	"grootboek/internal/core/id"
	"grootboek/internal/domain"
)

// Repository defines persistence operations for VAT box lineage.
// The indexer exclusively owns a period's lineage rows.
type Repository interface {
	// ListSources returns every posted line in the period that carries a
	// VAT code, with entry context joined in.
	ListSources(ctx context.Context, tenantID, periodID id.ID) ([]SourceLine, error)
	// Replace deletes all lineage rows of (tenant, period) and inserts
	// the fresh set. Callers must run it inside one transaction so no
	// reader ever observes a partial set.
	Replace(ctx context.Context, tenantID, periodID id.ID, rows []LineageRow) error
	// Totals aggregates net/vat/line count per box for a period.
	Totals(ctx context.Context, tenantID, periodID id.ID) (map[string]BoxTotal, error)
	// Lines pages through one box's lineage rows.
	Lines(ctx context.Context, tenantID, periodID id.ID, boxCode string, filter LineFilter) (domain.ListResult[LineageRow], error)
}

// LineFilter filters box drilldown queries.
type LineFilter struct {
	domain.ListFilter

	PartyRef    string
	DocumentRef string
	EntryNumber string
}
