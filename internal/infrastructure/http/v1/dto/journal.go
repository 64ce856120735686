package dto

import (
	"time"

	"grootboek/internal/core/apperror"
	"grootboek/internal/core/id"
	"grootboek/internal/core/types"
	"grootboek/internal/domain/journal"
)

// --- Request DTOs ---

// CreateEntryRequest represents a request to create or replace a draft entry.
type CreateEntryRequest struct {
	EntryDate   time.Time          `json:"entryDate" binding:"required"`
	Description string             `json:"description" binding:"required"`
	DocumentRef string             `json:"documentRef,omitempty"`
	SourceType  string             `json:"sourceType,omitempty"`
	Lines       []EntryLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// EntryLineRequest represents a line in a create/update request.
type EntryLineRequest struct {
	AccountID     string      `json:"accountId" binding:"required"`
	Debit         types.Money `json:"debit"`
	Credit        types.Money `json:"credit"`
	VatCodeID     string      `json:"vatCodeId,omitempty"`
	VatAmount     types.Money `json:"vatAmount"`
	VatBaseAmount types.Money `json:"vatBaseAmount"`
	VatCountry    string      `json:"vatCountry,omitempty"`
	ReverseCharge bool        `json:"reverseCharge,omitempty"`
	PartyRef      string      `json:"partyRef,omitempty"`
	Description   string      `json:"description,omitempty"`
}

// ToInput converts the request to a draft input.
func (r *CreateEntryRequest) ToInput() (journal.CreateDraftInput, error) {
	in := journal.CreateDraftInput{
		EntryDate:   r.EntryDate,
		Description: r.Description,
		DocumentRef: r.DocumentRef,
		SourceType:  r.SourceType,
		Lines:       make([]journal.DraftLine, 0, len(r.Lines)),
	}
	for i, lr := range r.Lines {
		accountID, err := id.Parse(lr.AccountID)
		if err != nil {
			return in, apperror.NewValidation("invalid account id").
				WithDetail("line", i+1).
				WithDetail("accountId", lr.AccountID)
		}
		line := journal.DraftLine{
			AccountID:     accountID,
			Debit:         lr.Debit,
			Credit:        lr.Credit,
			VatAmount:     lr.VatAmount,
			VatBaseAmount: lr.VatBaseAmount,
			VatCountry:    lr.VatCountry,
			ReverseCharge: lr.ReverseCharge,
			PartyRef:      lr.PartyRef,
			Description:   lr.Description,
		}
		if lr.VatCodeID != "" {
			vatCodeID, err := id.Parse(lr.VatCodeID)
			if err != nil {
				return in, apperror.NewValidation("invalid VAT code id").
					WithDetail("line", i+1).
					WithDetail("vatCodeId", lr.VatCodeID)
			}
			line.VatCodeID = &vatCodeID
		}
		in.Lines = append(in.Lines, line)
	}
	return in, nil
}

// ListEntriesRequest represents entry listing parameters.
type ListEntriesRequest struct {
	ListRequest

	Status      string `form:"status" binding:"omitempty,oneof=DRAFT POSTED REVERSED"`
	PeriodID    string `form:"periodId"`
	AccountID   string `form:"accountId"`
	DateFrom    string `form:"dateFrom"` // YYYY-MM-DD
	DateTo      string `form:"dateTo"`   // YYYY-MM-DD, exclusive
	DocumentRef string `form:"documentRef"`
}

// ToFilter converts the request to an entry list filter.
func (r *ListEntriesRequest) ToFilter() (journal.ListFilter, error) {
	f := journal.ListFilter{
		ListFilter:  r.ListRequest.ToFilter(),
		DocumentRef: r.DocumentRef,
	}
	if r.Status != "" {
		st := journal.Status(r.Status)
		f.Status = &st
	}
	if r.PeriodID != "" {
		periodID, err := id.Parse(r.PeriodID)
		if err != nil {
			return f, apperror.NewValidation("invalid period id").
				WithDetail("periodId", r.PeriodID)
		}
		f.PeriodID = &periodID
	}
	if r.AccountID != "" {
		accountID, err := id.Parse(r.AccountID)
		if err != nil {
			return f, apperror.NewValidation("invalid account id").
				WithDetail("accountId", r.AccountID)
		}
		f.AccountID = &accountID
	}
	if r.DateFrom != "" {
		from, err := time.Parse("2006-01-02", r.DateFrom)
		if err != nil {
			return f, apperror.NewValidation("invalid dateFrom, expected YYYY-MM-DD").
				WithDetail("dateFrom", r.DateFrom)
		}
		f.DateFrom = &from
	}
	if r.DateTo != "" {
		to, err := time.Parse("2006-01-02", r.DateTo)
		if err != nil {
			return f, apperror.NewValidation("invalid dateTo, expected YYYY-MM-DD").
				WithDetail("dateTo", r.DateTo)
		}
		f.DateTo = &to
	}
	return f, nil
}

// --- Response DTOs ---

// EntryResponse represents a journal entry in API responses.
type EntryResponse struct {
	ID          string    `json:"id"`
	Number      string    `json:"number,omitempty"`
	PeriodID    string    `json:"periodId,omitempty"`
	EntryDate   time.Time `json:"entryDate"`
	Description string    `json:"description"`
	DocumentRef string    `json:"documentRef,omitempty"`
	SourceType  string    `json:"sourceType,omitempty"`
	Status      string    `json:"status"`

	TotalDebit  types.Money `json:"totalDebit"`
	TotalCredit types.Money `json:"totalCredit"`

	ReversesID   string `json:"reversesId,omitempty"`
	ReversedByID string `json:"reversedById,omitempty"`

	PostedAt *time.Time `json:"postedAt,omitempty"`
	PostedBy string     `json:"postedBy,omitempty"`

	Lines []EntryLineResponse `json:"lines,omitempty"`

	Version   int       `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	CreatedBy string    `json:"createdBy,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// EntryLineResponse represents a line in API responses.
type EntryLineResponse struct {
	LineID        string      `json:"lineId"`
	LineNo        int         `json:"lineNo"`
	AccountID     string      `json:"accountId"`
	Debit         types.Money `json:"debit"`
	Credit        types.Money `json:"credit"`
	VatCodeID     string      `json:"vatCodeId,omitempty"`
	VatAmount     types.Money `json:"vatAmount"`
	VatBaseAmount types.Money `json:"vatBaseAmount"`
	VatCountry    string      `json:"vatCountry,omitempty"`
	ReverseCharge bool        `json:"reverseCharge,omitempty"`
	PartyRef      string      `json:"partyRef,omitempty"`
	Description   string      `json:"description,omitempty"`
}

// FromEntry converts domain entity to response DTO.
func FromEntry(e *journal.Entry) *EntryResponse {
	resp := &EntryResponse{
		ID:          e.ID.String(),
		Number:      e.Number,
		EntryDate:   e.EntryDate,
		Description: e.Description,
		DocumentRef: e.DocumentRef,
		SourceType:  e.SourceType,
		Status:      string(e.Status),
		TotalDebit:  e.TotalDebit,
		TotalCredit: e.TotalCredit,
		PostedAt:    e.PostedAt,
		PostedBy:    e.PostedBy,
		Version:     e.Version,
		CreatedAt:   e.CreatedAt,
		CreatedBy:   e.CreatedBy,
		UpdatedAt:   e.UpdatedAt,
	}
	if e.PeriodID != nil {
		resp.PeriodID = e.PeriodID.String()
	}
	if e.ReversesID != nil {
		resp.ReversesID = e.ReversesID.String()
	}
	if e.ReversedByID != nil {
		resp.ReversedByID = e.ReversedByID.String()
	}

	resp.Lines = make([]EntryLineResponse, len(e.Lines))
	for i, line := range e.Lines {
		lr := EntryLineResponse{
			LineID:        line.ID.String(),
			LineNo:        line.LineNo,
			AccountID:     line.AccountID.String(),
			Debit:         line.Debit,
			Credit:        line.Credit,
			VatAmount:     line.VatAmount,
			VatBaseAmount: line.VatBaseAmount,
			VatCountry:    line.VatCountry,
			ReverseCharge: line.ReverseCharge,
			PartyRef:      line.PartyRef,
			Description:   line.Description,
		}
		if line.VatCodeID != nil {
			lr.VatCodeID = line.VatCodeID.String()
		}
		resp.Lines[i] = lr
	}

	return resp
}

// FromEntries converts a slice of entries. Listings carry no lines.
func FromEntries(entries []*journal.Entry) []*EntryResponse {
	out := make([]*EntryResponse, len(entries))
	for i, e := range entries {
		out[i] = FromEntry(e)
		if len(e.Lines) == 0 {
			out[i].Lines = nil
		}
	}
	return out
}
