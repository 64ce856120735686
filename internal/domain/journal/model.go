// Package journal provides the double-entry journal engine.
//
// Entries are created as drafts, become immutable when posted, and are
// countered by reversal entries rather than edited or deleted. The ledger
// is append-only: a POSTED entry's history can always be reproduced.
package journal

import (
	"context"
	"time"

	"grootboek/internal/core/apperror"
	"grootboek/internal/core/id"
	"grootboek/internal/core/types"
)

// Status is the lifecycle state of a journal entry.
type Status string

const (
	StatusDraft    Status = "DRAFT"
	StatusPosted   Status = "POSTED"
	StatusReversed Status = "REVERSED"
)

// Entry is one journal entry (a balanced financial event).
type Entry struct {
	ID       id.ID  `db:"id" json:"id"`
	TenantID id.ID  `db:"tenant_id" json:"tenantId"`
	PeriodID *id.ID `db:"period_id" json:"periodId,omitempty"` // stamped on post

	// Number is the legal entry number, JE-{year}-{seq}, allocated at
	// posting time. Drafts carry no number.
	Number string `db:"number" json:"number,omitempty"`

	EntryDate   time.Time `db:"entry_date" json:"entryDate"`
	Description string    `db:"description" json:"description"`
	DocumentRef string    `db:"document_ref" json:"documentRef,omitempty"`
	SourceType  string    `db:"source_type" json:"sourceType,omitempty"`
	Status      Status    `db:"status" json:"status"`

	TotalDebit  types.Money `db:"total_debit" json:"totalDebit"`
	TotalCredit types.Money `db:"total_credit" json:"totalCredit"`

	// At most one link each direction.
	ReversesID   *id.ID `db:"reverses_id" json:"reversesId,omitempty"`
	ReversedByID *id.ID `db:"reversed_by_id" json:"reversedById,omitempty"`

	PostedAt *time.Time `db:"posted_at" json:"postedAt,omitempty"`
	PostedBy string     `db:"posted_by" json:"postedBy,omitempty"`

	Version   int       `db:"version" json:"version"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	CreatedBy string    `db:"created_by" json:"createdBy,omitempty"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`

	Lines []Line `db:"-" json:"lines"`
}

// Line is one account movement inside an entry.
//
// Debit and Credit may both be nonzero on a single line; the engine only
// requires them to be non-negative. (The balance invariant holds over the
// entry, not per line.)
type Line struct {
	ID      id.ID `db:"id" json:"id"`
	EntryID id.ID `db:"entry_id" json:"entryId"`
	// LineNo is 1-based and unique within the entry.
	LineNo    int   `db:"line_no" json:"lineNo"`
	AccountID id.ID `db:"account_id" json:"accountId"`

	Debit  types.Money `db:"debit" json:"debit"`
	Credit types.Money `db:"credit" json:"credit"`

	VatCodeID     *id.ID      `db:"vat_code_id" json:"vatCodeId,omitempty"`
	VatAmount     types.Money `db:"vat_amount" json:"vatAmount"`
	VatBaseAmount types.Money `db:"vat_base_amount" json:"vatBaseAmount"`
	VatCountry    string      `db:"vat_country" json:"vatCountry,omitempty"`
	ReverseCharge bool        `db:"reverse_charge" json:"reverseCharge"`

	// PartyRef identifies the counterparty (customer/supplier) for
	// drilldown from VAT box totals back to the source.
	PartyRef    string `db:"party_ref" json:"partyRef,omitempty"`
	Description string `db:"line_description" json:"description,omitempty"`
}

// NewEntry creates a draft entry without lines.
func NewEntry(tenantID id.ID, entryDate time.Time, description string) *Entry {
	now := time.Now().UTC()
	return &Entry{
		ID:          id.New(),
		TenantID:    tenantID,
		EntryDate:   entryDate,
		Description: description,
		Status:      StatusDraft,
		TotalDebit:  types.Zero(),
		TotalCredit: types.Zero(),
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// SetLines replaces the entry's lines, assigning sequential 1-based line
// numbers and recomputing totals.
func (e *Entry) SetLines(lines []Line) {
	for i := range lines {
		if id.IsNil(lines[i].ID) {
			lines[i].ID = id.New()
		}
		lines[i].EntryID = e.ID
		lines[i].LineNo = i + 1
	}
	e.Lines = lines
	e.recalculateTotals()
}

// recalculateTotals updates entry totals from lines.
func (e *Entry) recalculateTotals() {
	debit := types.Zero()
	credit := types.Zero()
	for _, line := range e.Lines {
		debit = debit.Add(line.Debit)
		credit = credit.Add(line.Credit)
	}
	e.TotalDebit = debit
	e.TotalCredit = credit
}

// IsBalanced is derived, never settable: exact decimal equality of the
// debit and credit totals.
func (e *Entry) IsBalanced() bool {
	return e.TotalDebit.Equal(e.TotalCredit)
}

// Validate checks entry invariants that hold without database access.
func (e *Entry) Validate(ctx context.Context) error {
	if id.IsNil(e.TenantID) {
		return apperror.NewValidation("tenant is required").
			WithDetail("field", "tenantId")
	}
	if e.EntryDate.IsZero() {
		return apperror.NewValidation("entry date is required").
			WithDetail("field", "entryDate")
	}
	if len(e.Lines) == 0 {
		return apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines").
			WithDetail("entry_id", e.ID.String())
	}
	for _, line := range e.Lines {
		if id.IsNil(line.AccountID) {
			return apperror.NewValidation("account is required").
				WithDetail("field", "lines").
				WithDetail("line_no", line.LineNo)
		}
		if line.Debit.IsNegative() || line.Credit.IsNegative() {
			return apperror.NewValidation("amounts cannot be negative").
				WithDetail("field", "lines").
				WithDetail("line_no", line.LineNo)
		}
	}
	return nil
}

// CanModify reports whether the entry still accepts edits.
// Only drafts are mutable.
func (e *Entry) CanModify() error {
	if e.Status != StatusDraft {
		return apperror.NewAlreadyPosted(e.ID.String(), string(e.Status))
	}
	return nil
}

// MarkPosted stamps the posting fields.
func (e *Entry) MarkPosted(number string, periodID id.ID, actor string) {
	now := time.Now().UTC()
	e.Number = number
	e.PeriodID = &periodID
	e.Status = StatusPosted
	e.PostedAt = &now
	e.PostedBy = actor
	e.Touch()
}

// ReversalLines returns this entry's lines with debit and credit swapped.
// VAT magnitudes are preserved; their reporting sign follows the side.
func (e *Entry) ReversalLines() []Line {
	lines := make([]Line, len(e.Lines))
	for i, line := range e.Lines {
		rev := line
		rev.ID = id.New()
		rev.Debit = line.Credit
		rev.Credit = line.Debit
		lines[i] = rev
	}
	return lines
}

// Touch updates the timestamp and increments version.
func (e *Entry) Touch() {
	e.UpdatedAt = time.Now().UTC()
	e.Version++
}
