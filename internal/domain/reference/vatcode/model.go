// Package vatcode provides the VAT code catalog: rates, categories and
// the mapping from codes to tax-return boxes.
package vatcode

import (
	"context"
	"time"

	"grootboek/internal/core/apperror"
	"grootboek/internal/core/id"
	"grootboek/internal/core/types"
)

// Category groups VAT codes by their reporting behavior.
type Category string

const (
	CategorySales         Category = "SALES"
	CategoryPurchases     Category = "PURCHASES"
	CategoryReverseCharge Category = "REVERSE_CHARGE"
	CategoryIntraEU       Category = "INTRA_EU"
	CategoryExempt        Category = "EXEMPT"
	CategoryZeroRate      Category = "ZERO_RATE"
)

// IsValid reports whether c is a known category.
func (c Category) IsValid() bool {
	switch c {
	case CategorySales, CategoryPurchases, CategoryReverseCharge,
		CategoryIntraEU, CategoryExempt, CategoryZeroRate:
		return true
	}
	return false
}

// BoxMapping assigns return boxes to a VAT code. Box codes are opaque
// strings (Dutch BTW aangifte uses "1a".."5g") so other jurisdictions'
// schemes can be substituted without schema change. Empty string means
// the slot is unset.
type BoxMapping struct {
	// TurnoverBox receives the net (base) amount.
	TurnoverBox string `db:"turnover_box" json:"turnoverBox,omitempty"`
	// VatBox receives the VAT amount.
	VatBox string `db:"vat_box" json:"vatBox,omitempty"`
	// DeductibleBox receives deductible VAT (net stays zero).
	// Reverse-charge codes typically set both VatBox and DeductibleBox.
	DeductibleBox string `db:"deductible_box" json:"deductibleBox,omitempty"`
}

// IsEmpty reports whether no box is mapped at all.
func (m BoxMapping) IsEmpty() bool {
	return m.TurnoverBox == "" && m.VatBox == "" && m.DeductibleBox == ""
}

// VatCode is one entry of the platform-wide VAT catalog.
// Codes are reference data shared by all tenants.
type VatCode struct {
	ID          id.ID      `db:"id" json:"id"`
	Code        string     `db:"code" json:"code"`
	Description string     `db:"description" json:"description"`
	Rate        types.Rate `db:"rate" json:"rate"`
	Category    Category   `db:"category" json:"category"`

	BoxMapping

	EUOnly            bool `db:"eu_only" json:"euOnly"`
	RequiresVatNumber bool `db:"requires_vat_number" json:"requiresVatNumber"`
	IsReverseCharge   bool `db:"is_reverse_charge" json:"isReverseCharge"`
	IsICP             bool `db:"is_icp" json:"isIcp"`
	Active            bool `db:"active" json:"active"`

	Version   int       `db:"version" json:"version"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// New creates a new active VAT code.
func New(code string, rate types.Rate, category Category) *VatCode {
	now := time.Now().UTC()
	return &VatCode{
		ID:        id.New(),
		Code:      code,
		Rate:      rate,
		Category:  category,
		Active:    true,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks entity invariants.
func (v *VatCode) Validate(ctx context.Context) error {
	if v.Code == "" {
		return apperror.NewValidation("VAT code is required").
			WithDetail("field", "code")
	}
	if !v.Category.IsValid() {
		return apperror.NewValidation("unknown VAT category").
			WithDetail("field", "category").
			WithDetail("value", string(v.Category))
	}
	if v.Rate.IsNegative() {
		return apperror.NewValidation("VAT rate cannot be negative").
			WithDetail("field", "rate")
	}
	return nil
}

// Touch updates the timestamp and increments version.
func (v *VatCode) Touch() {
	v.UpdatedAt = time.Now().UTC()
	v.Version++
}
