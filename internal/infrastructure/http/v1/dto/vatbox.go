package dto

import (
	"sort"
	"time"

	"grootboek/internal/core/types"
	"grootboek/internal/domain/vatbox"
)

// --- Request DTOs ---

// BoxLinesRequest represents drilldown listing parameters for one box.
type BoxLinesRequest struct {
	ListRequest

	PartyRef    string `form:"partyRef"`
	DocumentRef string `form:"documentRef"`
	EntryNumber string `form:"entryNumber"`
}

// ToFilter converts the request to a lineage line filter.
func (r *BoxLinesRequest) ToFilter() vatbox.LineFilter {
	return vatbox.LineFilter{
		ListFilter:  r.ListRequest.ToFilter(),
		PartyRef:    r.PartyRef,
		DocumentRef: r.DocumentRef,
		EntryNumber: r.EntryNumber,
	}
}

// --- Response DTOs ---

// BoxTotalResponse represents totals of one return box over a period.
type BoxTotalResponse struct {
	BoxCode   string      `json:"boxCode"`
	Net       types.Money `json:"net"`
	Vat       types.Money `json:"vat"`
	LineCount int64       `json:"lineCount"`
}

// BoxTotalsResponse represents the per-box aggregation of a period.
type BoxTotalsResponse struct {
	PeriodID string             `json:"periodId"`
	Boxes    []BoxTotalResponse `json:"boxes"`
}

// FromBoxTotals converts the totals map to an ordered response.
func FromBoxTotals(periodID string, totals map[string]vatbox.BoxTotal) BoxTotalsResponse {
	codes := make([]string, 0, len(totals))
	for code := range totals {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	resp := BoxTotalsResponse{
		PeriodID: periodID,
		Boxes:    make([]BoxTotalResponse, 0, len(codes)),
	}
	for _, code := range codes {
		t := totals[code]
		resp.Boxes = append(resp.Boxes, BoxTotalResponse{
			BoxCode:   code,
			Net:       t.Net,
			Vat:       t.Vat,
			LineCount: t.LineCount,
		})
	}
	return resp
}

// LineageRowResponse represents one lineage row in drilldown responses.
type LineageRowResponse struct {
	ID       string `json:"id"`
	PeriodID string `json:"periodId"`
	BoxCode  string `json:"boxCode"`
	BoxRole  string `json:"boxRole"`

	NetAmount types.Money `json:"netAmount"`
	VatAmount types.Money `json:"vatAmount"`

	SourceType  string `json:"sourceType,omitempty"`
	DocumentRef string `json:"documentRef,omitempty"`
	EntryID     string `json:"entryId"`
	EntryNumber string `json:"entryNumber"`
	LineID      string `json:"lineId"`
	VatCodeID   string `json:"vatCodeId"`
	VatCode     string `json:"vatCode"`
	PartyRef    string `json:"partyRef,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// FromLineageRows converts lineage rows.
func FromLineageRows(rows []vatbox.LineageRow) []*LineageRowResponse {
	out := make([]*LineageRowResponse, len(rows))
	for i, row := range rows {
		out[i] = &LineageRowResponse{
			ID:          row.ID.String(),
			PeriodID:    row.PeriodID.String(),
			BoxCode:     row.BoxCode,
			BoxRole:     string(row.BoxRole),
			NetAmount:   row.NetAmount,
			VatAmount:   row.VatAmount,
			SourceType:  row.SourceType,
			DocumentRef: row.DocumentRef,
			EntryID:     row.EntryID.String(),
			EntryNumber: row.EntryNumber,
			LineID:      row.LineID.String(),
			VatCodeID:   row.VatCodeID.String(),
			VatCode:     row.VatCode,
			PartyRef:    row.PartyRef,
			CreatedAt:   row.CreatedAt,
		}
	}
	return out
}
