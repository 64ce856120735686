// Package vatbox derives per-box VAT return contributions from posted
// journal lines. Every cent reported to the tax authority traces back
// through a lineage row to its source line and document.
package vatbox

import (
	"time"

	"grootboek/internal/core/id"
	"grootboek/internal/core/types"
)

// Role classifies a lineage row by the mapping slot that produced it.
type Role string

const (
	RoleTurnover   Role = "TURNOVER"
	RoleVat        Role = "VAT"
	RoleDeductible Role = "DEDUCTIBLE"
)

// LineageRow is one contribution of a journal line to a VAT return box.
// A period's rows are always regenerated as a whole (delete + reinsert);
// no other actor ever patches them.
type LineageRow struct {
	ID       id.ID `db:"id" json:"id"`
	TenantID id.ID `db:"tenant_id" json:"tenantId"`
	PeriodID id.ID `db:"period_id" json:"periodId"`

	// BoxCode is an opaque return-box key ("1a".."5g" for the Dutch
	// BTW aangifte; other jurisdictions substitute their own scheme).
	BoxCode string `db:"box_code" json:"boxCode"`

	// BoxRole records which mapping slot put the row in its box. The
	// frozen VAT position splits on it: DEDUCTIBLE rows are receivable,
	// everything else payable.
	BoxRole Role `db:"box_role" json:"boxRole"`

	NetAmount types.Money `db:"net_amount" json:"netAmount"`
	VatAmount types.Money `db:"vat_amount" json:"vatAmount"`

	// Traceability back to the source.
	SourceType  string `db:"source_type" json:"sourceType,omitempty"`
	DocumentRef string `db:"document_ref" json:"documentRef,omitempty"`
	EntryID     id.ID  `db:"entry_id" json:"entryId"`
	EntryNumber string `db:"entry_number" json:"entryNumber"`
	LineID      id.ID  `db:"line_id" json:"lineId"`
	VatCodeID   id.ID  `db:"vat_code_id" json:"vatCodeId"`
	VatCode     string `db:"vat_code" json:"vatCode"`
	PartyRef    string `db:"party_ref" json:"partyRef,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// BoxTotal aggregates one box over a period.
type BoxTotal struct {
	Net       types.Money `db:"net" json:"net"`
	Vat       types.Money `db:"vat" json:"vat"`
	LineCount int64       `db:"line_count" json:"lineCount"`
}

// SourceLine is a posted journal line carrying a VAT code, joined with
// enough entry context to build lineage rows. Read-only view over rows
// the journal engine owns.
type SourceLine struct {
	EntryID     id.ID       `db:"entry_id"`
	EntryNumber string      `db:"entry_number"`
	EntryDate   time.Time   `db:"entry_date"`
	SourceType  string      `db:"source_type"`
	DocumentRef string      `db:"document_ref"`
	LineID      id.ID       `db:"line_id"`
	AccountID   id.ID       `db:"account_id"`
	Debit       types.Money `db:"debit"`
	Credit      types.Money `db:"credit"`
	VatCodeID   id.ID       `db:"vat_code_id"`
	VatAmount   types.Money `db:"vat_amount"`
	VatBase     types.Money `db:"vat_base_amount"`
	PartyRef    string      `db:"party_ref"`
}
