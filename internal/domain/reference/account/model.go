// Package account provides the Chart of Accounts catalog.
package account

import (
	"context"
	"time"

	"grootboek/internal/core/apperror"
	"grootboek/internal/core/id"
)

// Type classifies an account for statement building.
type Type string

const (
	TypeAsset     Type = "ASSET"
	TypeLiability Type = "LIABILITY"
	TypeEquity    Type = "EQUITY"
	TypeRevenue   Type = "REVENUE"
	TypeExpense   Type = "EXPENSE"
)

// IsValid reports whether t is a known account type.
func (t Type) IsValid() bool {
	switch t {
	case TypeAsset, TypeLiability, TypeEquity, TypeRevenue, TypeExpense:
		return true
	}
	return false
}

// IsDebitNormal reports whether the account type increases on the debit side.
// Used when deriving balance sheet and P&L figures from trial balance rows.
func (t Type) IsDebitNormal() bool {
	return t == TypeAsset || t == TypeExpense
}

// IsProfitLoss reports whether the account type feeds the P&L statement.
func (t Type) IsProfitLoss() bool {
	return t == TypeRevenue || t == TypeExpense
}

// Account is one ledger account in a tenant's chart.
// Once referenced by a posted journal line the account is immutable
// except for renaming; the service layer enforces this.
type Account struct {
	ID       id.ID  `db:"id" json:"id"`
	TenantID id.ID  `db:"tenant_id" json:"tenantId"`
	Code     string `db:"code" json:"code"`
	Name     string `db:"name" json:"name"`
	Type     Type   `db:"account_type" json:"type"`
	ParentID *id.ID `db:"parent_id" json:"parentId,omitempty"`
	Active   bool   `db:"active" json:"active"`

	Version   int       `db:"version" json:"version"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// New creates a new active account.
func New(tenantID id.ID, code, name string, accountType Type) *Account {
	now := time.Now().UTC()
	return &Account{
		ID:        id.New(),
		TenantID:  tenantID,
		Code:      code,
		Name:      name,
		Type:      accountType,
		Active:    true,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks entity invariants.
func (a *Account) Validate(ctx context.Context) error {
	if id.IsNil(a.TenantID) {
		return apperror.NewValidation("tenant is required").
			WithDetail("field", "tenantId")
	}
	if a.Code == "" {
		return apperror.NewValidation("account code is required").
			WithDetail("field", "code")
	}
	if a.Name == "" {
		return apperror.NewValidation("account name is required").
			WithDetail("field", "name")
	}
	if !a.Type.IsValid() {
		return apperror.NewValidation("unknown account type").
			WithDetail("field", "type").
			WithDetail("value", string(a.Type))
	}
	return nil
}

// Touch updates the timestamp and increments version.
func (a *Account) Touch() {
	a.UpdatedAt = time.Now().UTC()
	a.Version++
}
