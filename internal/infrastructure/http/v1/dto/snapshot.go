package dto

import (
	"encoding/json"
	"time"

	"grootboek/internal/core/types"
	"grootboek/internal/domain/snapshot"
)

// SnapshotResponse represents a frozen period statement set.
// The statement bodies are returned exactly as they were frozen.
type SnapshotResponse struct {
	ID       string `json:"id"`
	PeriodID string `json:"periodId"`

	BalanceSheet json.RawMessage `json:"balanceSheet"`
	ProfitLoss   json.RawMessage `json:"profitLoss"`
	VatSummary   json.RawMessage `json:"vatSummary"`
	TrialBalance json.RawMessage `json:"trialBalance"`
	OpenItems    json.RawMessage `json:"openItems"`
	Issues       json.RawMessage `json:"issues"`

	TotalAssets        types.Money `json:"totalAssets"`
	TotalLiabilities   types.Money `json:"totalLiabilities"`
	TotalEquity        types.Money `json:"totalEquity"`
	NetIncome          types.Money `json:"netIncome"`
	AccountsReceivable types.Money `json:"accountsReceivable"`
	AccountsPayable    types.Money `json:"accountsPayable"`
	VatPayable         types.Money `json:"vatPayable"`
	VatReceivable      types.Money `json:"vatReceivable"`

	CreatedAt time.Time `json:"createdAt"`
	CreatedBy string    `json:"createdBy,omitempty"`
}

// FromSnapshot converts domain entity to response DTO.
func FromSnapshot(s *snapshot.Snapshot) *SnapshotResponse {
	return &SnapshotResponse{
		ID:                 s.ID.String(),
		PeriodID:           s.PeriodID.String(),
		BalanceSheet:       json.RawMessage(s.BalanceSheet),
		ProfitLoss:         json.RawMessage(s.ProfitLoss),
		VatSummary:         json.RawMessage(s.VatSummary),
		TrialBalance:       json.RawMessage(s.TrialBalance),
		OpenItems:          json.RawMessage(s.OpenItems),
		Issues:             json.RawMessage(s.Issues),
		TotalAssets:        s.TotalAssets,
		TotalLiabilities:   s.TotalLiabilities,
		TotalEquity:        s.TotalEquity,
		NetIncome:          s.NetIncome,
		AccountsReceivable: s.AccountsReceivable,
		AccountsPayable:    s.AccountsPayable,
		VatPayable:         s.VatPayable,
		VatReceivable:      s.VatReceivable,
		CreatedAt:          s.CreatedAt,
		CreatedBy:          s.CreatedBy,
	}
}
