package dto

import (
	"time"

	"grootboek/internal/core/apperror"
	"grootboek/internal/core/id"
	"grootboek/internal/core/types"
	"grootboek/internal/domain/reference/account"
	"grootboek/internal/domain/reference/vatcode"
)

// --- Account DTOs ---

// CreateAccountRequest represents a request to create a ledger account.
type CreateAccountRequest struct {
	Code     string `json:"code" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Type     string `json:"type" binding:"required,oneof=ASSET LIABILITY EQUITY REVENUE EXPENSE"`
	ParentID string `json:"parentId,omitempty"`
}

// ToEntity converts request to domain entity. Tenant comes from context.
func (r *CreateAccountRequest) ToEntity(tenantID id.ID) (*account.Account, error) {
	acc := account.New(tenantID, r.Code, r.Name, account.Type(r.Type))
	if r.ParentID != "" {
		parentID, err := id.Parse(r.ParentID)
		if err != nil {
			return nil, apperror.NewValidation("invalid parent id").
				WithDetail("parentId", r.ParentID)
		}
		acc.ParentID = &parentID
	}
	return acc, nil
}

// UpdateAccountRequest represents a request to update an account.
type UpdateAccountRequest struct {
	Name   *string `json:"name,omitempty"`
	Active *bool   `json:"active,omitempty"`
}

// ApplyTo applies updates to an existing entity.
func (r *UpdateAccountRequest) ApplyTo(acc *account.Account) {
	if r.Name != nil {
		acc.Name = *r.Name
	}
	if r.Active != nil {
		acc.Active = *r.Active
	}
}

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	ParentID  string    `json:"parentId,omitempty"`
	Active    bool      `json:"active"`
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FromAccount converts domain entity to response DTO.
func FromAccount(acc *account.Account) *AccountResponse {
	resp := &AccountResponse{
		ID:        acc.ID.String(),
		Code:      acc.Code,
		Name:      acc.Name,
		Type:      string(acc.Type),
		Active:    acc.Active,
		Version:   acc.Version,
		CreatedAt: acc.CreatedAt,
		UpdatedAt: acc.UpdatedAt,
	}
	if acc.ParentID != nil {
		resp.ParentID = acc.ParentID.String()
	}
	return resp
}

// FromAccounts converts a slice of accounts.
func FromAccounts(accounts []*account.Account) []*AccountResponse {
	out := make([]*AccountResponse, len(accounts))
	for i, acc := range accounts {
		out[i] = FromAccount(acc)
	}
	return out
}

// --- VAT code DTOs ---

// CreateVatCodeRequest represents a request to create a VAT code.
type CreateVatCodeRequest struct {
	Code        string     `json:"code" binding:"required"`
	Description string     `json:"description,omitempty"`
	Rate        types.Rate `json:"rate"`
	Category    string     `json:"category" binding:"required,oneof=SALES PURCHASES REVERSE_CHARGE INTRA_EU EXEMPT ZERO_RATE"`

	TurnoverBox   string `json:"turnoverBox,omitempty"`
	VatBox        string `json:"vatBox,omitempty"`
	DeductibleBox string `json:"deductibleBox,omitempty"`

	EUOnly            bool `json:"euOnly,omitempty"`
	RequiresVatNumber bool `json:"requiresVatNumber,omitempty"`
	IsReverseCharge   bool `json:"isReverseCharge,omitempty"`
	IsICP             bool `json:"isIcp,omitempty"`
}

// ToEntity converts request to domain entity.
func (r *CreateVatCodeRequest) ToEntity() *vatcode.VatCode {
	code := vatcode.New(r.Code, r.Rate, vatcode.Category(r.Category))
	code.Description = r.Description
	code.BoxMapping = vatcode.BoxMapping{
		TurnoverBox:   r.TurnoverBox,
		VatBox:        r.VatBox,
		DeductibleBox: r.DeductibleBox,
	}
	code.EUOnly = r.EUOnly
	code.RequiresVatNumber = r.RequiresVatNumber
	code.IsReverseCharge = r.IsReverseCharge
	code.IsICP = r.IsICP
	return code
}

// UpdateVatCodeRequest represents a request to update a VAT code.
type UpdateVatCodeRequest struct {
	Description   *string `json:"description,omitempty"`
	TurnoverBox   *string `json:"turnoverBox,omitempty"`
	VatBox        *string `json:"vatBox,omitempty"`
	DeductibleBox *string `json:"deductibleBox,omitempty"`
	Active        *bool   `json:"active,omitempty"`
}

// ApplyTo applies updates to an existing entity.
func (r *UpdateVatCodeRequest) ApplyTo(code *vatcode.VatCode) {
	if r.Description != nil {
		code.Description = *r.Description
	}
	if r.TurnoverBox != nil {
		code.TurnoverBox = *r.TurnoverBox
	}
	if r.VatBox != nil {
		code.VatBox = *r.VatBox
	}
	if r.DeductibleBox != nil {
		code.DeductibleBox = *r.DeductibleBox
	}
	if r.Active != nil {
		code.Active = *r.Active
	}
}

// VatCodeResponse represents a VAT code in API responses.
type VatCodeResponse struct {
	ID          string     `json:"id"`
	Code        string     `json:"code"`
	Description string     `json:"description,omitempty"`
	Rate        types.Rate `json:"rate"`
	Category    string     `json:"category"`

	TurnoverBox   string `json:"turnoverBox,omitempty"`
	VatBox        string `json:"vatBox,omitempty"`
	DeductibleBox string `json:"deductibleBox,omitempty"`

	EUOnly            bool `json:"euOnly,omitempty"`
	RequiresVatNumber bool `json:"requiresVatNumber,omitempty"`
	IsReverseCharge   bool `json:"isReverseCharge,omitempty"`
	IsICP             bool `json:"isIcp,omitempty"`
	Active            bool `json:"active"`

	Version   int       `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FromVatCode converts domain entity to response DTO.
func FromVatCode(code *vatcode.VatCode) *VatCodeResponse {
	return &VatCodeResponse{
		ID:                code.ID.String(),
		Code:              code.Code,
		Description:       code.Description,
		Rate:              code.Rate,
		Category:          string(code.Category),
		TurnoverBox:       code.TurnoverBox,
		VatBox:            code.VatBox,
		DeductibleBox:     code.DeductibleBox,
		EUOnly:            code.EUOnly,
		RequiresVatNumber: code.RequiresVatNumber,
		IsReverseCharge:   code.IsReverseCharge,
		IsICP:             code.IsICP,
		Active:            code.Active,
		Version:           code.Version,
		CreatedAt:         code.CreatedAt,
		UpdatedAt:         code.UpdatedAt,
	}
}

// FromVatCodes converts a slice of VAT codes.
func FromVatCodes(codes []*vatcode.VatCode) []*VatCodeResponse {
	out := make([]*VatCodeResponse, len(codes))
	for i, code := range codes {
		out[i] = FromVatCode(code)
	}
	return out
}
