// Package period provides the accounting-period state machine.
//
// A period moves OPEN -> REVIEW -> FINALIZED -> LOCKED (OPEN -> FINALIZED
// directly is permitted). The sequence is monotonic: there is no way back,
// and LOCKED is terminal. Every transition appends exactly one audit row.
package period

import (
	"context"
	"time"

	"grootboek/internal/core/apperror"
	"grootboek/internal/core/id"
)

// Status is the lifecycle state of an accounting period.
type Status string

const (
	StatusOpen      Status = "OPEN"
	StatusReview    Status = "REVIEW"
	StatusFinalized Status = "FINALIZED"
	StatusLocked    Status = "LOCKED"
)

// transitions is the full legal transition table.
var transitions = map[Status][]Status{
	StatusOpen:      {StatusReview, StatusFinalized},
	StatusReview:    {StatusFinalized},
	StatusFinalized: {StatusLocked},
	StatusLocked:    {},
}

// CanTransitionTo reports whether moving from s to target is legal.
func (s Status) CanTransitionTo(target Status) bool {
	for _, next := range transitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// Period is one accounting period of a tenant. Date range is half-open:
// [StartDate, EndDate).
type Period struct {
	ID         id.ID     `db:"id" json:"id"`
	TenantID   id.ID     `db:"tenant_id" json:"tenantId"`
	Name       string    `db:"name" json:"name"`
	PeriodType string    `db:"period_type" json:"periodType"` // month, quarter, year
	StartDate  time.Time `db:"start_date" json:"startDate"`
	EndDate    time.Time `db:"end_date" json:"endDate"`
	Status     Status    `db:"status" json:"status"`

	ReviewStartedAt *time.Time `db:"review_started_at" json:"reviewStartedAt,omitempty"`
	ReviewStartedBy string     `db:"review_started_by" json:"reviewStartedBy,omitempty"`
	FinalizedAt     *time.Time `db:"finalized_at" json:"finalizedAt,omitempty"`
	FinalizedBy     string     `db:"finalized_by" json:"finalizedBy,omitempty"`
	LockedAt        *time.Time `db:"locked_at" json:"lockedAt,omitempty"`
	LockedBy        string     `db:"locked_by" json:"lockedBy,omitempty"`

	Version   int       `db:"version" json:"version"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// New creates an OPEN period.
func New(tenantID id.ID, name, periodType string, start, end time.Time) *Period {
	now := time.Now().UTC()
	return &Period{
		ID:         id.New(),
		TenantID:   tenantID,
		Name:       name,
		PeriodType: periodType,
		StartDate:  start,
		EndDate:    end,
		Status:     StatusOpen,
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Validate checks entity invariants.
func (p *Period) Validate(ctx context.Context) error {
	if id.IsNil(p.TenantID) {
		return apperror.NewValidation("tenant is required").
			WithDetail("field", "tenantId")
	}
	if p.Name == "" {
		return apperror.NewValidation("period name is required").
			WithDetail("field", "name")
	}
	if !p.EndDate.After(p.StartDate) {
		return apperror.NewValidation("period end must be after start").
			WithDetail("field", "endDate")
	}
	return nil
}

// Contains reports whether date falls inside the period ([start, end)).
func (p *Period) Contains(date time.Time) bool {
	return !date.Before(p.StartDate) && date.Before(p.EndDate)
}

// CanAcceptPostings is true only while the period is OPEN or REVIEW.
func (p *Period) CanAcceptPostings() bool {
	return p.Status == StatusOpen || p.Status == StatusReview
}

// IsImmutable is true only for LOCKED periods.
func (p *Period) IsImmutable() bool {
	return p.Status == StatusLocked
}

// Touch updates the timestamp and increments version.
func (p *Period) Touch() {
	p.UpdatedAt = time.Now().UTC()
	p.Version++
}

// AuditRow is one append-only record of a period transition.
// Rows are never updated or deleted.
type AuditRow struct {
	ID         id.ID     `db:"id" json:"id"`
	TenantID   id.ID     `db:"tenant_id" json:"tenantId"`
	PeriodID   id.ID     `db:"period_id" json:"periodId"`
	FromStatus Status    `db:"from_status" json:"fromStatus"`
	ToStatus   Status    `db:"to_status" json:"toStatus"`
	Actor      string    `db:"actor" json:"actor"`
	SnapshotID *id.ID    `db:"snapshot_id" json:"snapshotId,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// NewAuditRow creates a transition audit row.
func NewAuditRow(p *Period, from, to Status, actor string, snapshotID *id.ID) AuditRow {
	return AuditRow{
		ID:         id.New(),
		TenantID:   p.TenantID,
		PeriodID:   p.ID,
		FromStatus: from,
		ToStatus:   to,
		Actor:      actor,
		SnapshotID: snapshotID,
		CreatedAt:  time.Now().UTC(),
	}
}
