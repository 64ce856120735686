package vatcode

import (
	"context"

	"grootboek/internal/core/id"
	"grootboek/internal/domain"
)

// Repository defines persistence operations for the VAT code catalog.
type Repository interface {
	Create(ctx context.Context, code *VatCode) error
	GetByID(ctx context.Context, codeID id.ID) (*VatCode, error)
	// GetByIDs returns the requested codes keyed by id.
	GetByIDs(ctx context.Context, codeIDs []id.ID) (map[id.ID]*VatCode, error)
	GetByCode(ctx context.Context, code string) (*VatCode, error)
	Update(ctx context.Context, code *VatCode) error
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*VatCode], error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
}
