package dto

import (
	"time"

	"grootboek/internal/core/apperror"
	"grootboek/internal/core/id"
	"grootboek/internal/domain/period"
)

// --- Request DTOs ---

// CreatePeriodRequest represents a request to create an accounting period.
type CreatePeriodRequest struct {
	Name       string    `json:"name" binding:"required"`
	PeriodType string    `json:"periodType" binding:"required,oneof=month quarter year"`
	StartDate  time.Time `json:"startDate" binding:"required"`
	EndDate    time.Time `json:"endDate" binding:"required"`
}

// ToEntity converts request to domain entity. Tenant comes from context.
func (r *CreatePeriodRequest) ToEntity(tenantID id.ID) *period.Period {
	return period.New(tenantID, r.Name, r.PeriodType, r.StartDate, r.EndDate)
}

// CanAcceptPostingsRequest asks whether a date falls in a postable period.
type CanAcceptPostingsRequest struct {
	Date string `form:"date" binding:"required"` // YYYY-MM-DD
}

// ParseDate parses the request date.
func (r *CanAcceptPostingsRequest) ParseDate() (time.Time, error) {
	d, err := time.Parse("2006-01-02", r.Date)
	if err != nil {
		return time.Time{}, apperror.NewValidation("invalid date, expected YYYY-MM-DD").
			WithDetail("date", r.Date)
	}
	return d, nil
}

// --- Response DTOs ---

// PeriodResponse represents an accounting period in API responses.
type PeriodResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	PeriodType string    `json:"periodType"`
	StartDate  time.Time `json:"startDate"`
	EndDate    time.Time `json:"endDate"`
	Status     string    `json:"status"`

	ReviewStartedAt *time.Time `json:"reviewStartedAt,omitempty"`
	ReviewStartedBy string     `json:"reviewStartedBy,omitempty"`
	FinalizedAt     *time.Time `json:"finalizedAt,omitempty"`
	FinalizedBy     string     `json:"finalizedBy,omitempty"`
	LockedAt        *time.Time `json:"lockedAt,omitempty"`
	LockedBy        string     `json:"lockedBy,omitempty"`

	Version   int       `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FromPeriod converts domain entity to response DTO.
func FromPeriod(p *period.Period) *PeriodResponse {
	return &PeriodResponse{
		ID:              p.ID.String(),
		Name:            p.Name,
		PeriodType:      p.PeriodType,
		StartDate:       p.StartDate,
		EndDate:         p.EndDate,
		Status:          string(p.Status),
		ReviewStartedAt: p.ReviewStartedAt,
		ReviewStartedBy: p.ReviewStartedBy,
		FinalizedAt:     p.FinalizedAt,
		FinalizedBy:     p.FinalizedBy,
		LockedAt:        p.LockedAt,
		LockedBy:        p.LockedBy,
		Version:         p.Version,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

// FromPeriods converts a slice of periods.
func FromPeriods(periods []*period.Period) []*PeriodResponse {
	out := make([]*PeriodResponse, len(periods))
	for i, p := range periods {
		out[i] = FromPeriod(p)
	}
	return out
}

// PeriodAuditRowResponse represents one status transition in the period history.
type PeriodAuditRowResponse struct {
	ID         string    `json:"id"`
	PeriodID   string    `json:"periodId"`
	FromStatus string    `json:"fromStatus"`
	ToStatus   string    `json:"toStatus"`
	Actor      string    `json:"actor"`
	SnapshotID string    `json:"snapshotId,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// FromAuditRows converts period audit rows.
func FromAuditRows(rows []period.AuditRow) []PeriodAuditRowResponse {
	out := make([]PeriodAuditRowResponse, len(rows))
	for i, row := range rows {
		out[i] = PeriodAuditRowResponse{
			ID:         row.ID.String(),
			PeriodID:   row.PeriodID.String(),
			FromStatus: string(row.FromStatus),
			ToStatus:   string(row.ToStatus),
			Actor:      row.Actor,
			CreatedAt:  row.CreatedAt,
		}
		if row.SnapshotID != nil {
			out[i].SnapshotID = row.SnapshotID.String()
		}
	}
	return out
}

// CanAcceptPostingsResponse reports whether postings are accepted for a date.
type CanAcceptPostingsResponse struct {
	Date            string `json:"date"`
	AcceptsPostings bool   `json:"acceptsPostings"`
}
