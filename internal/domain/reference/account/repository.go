// Package account provides the Chart of Accounts repository contract.
package account

import (
	"context"

	"grootboek/internal/core/id"
	"grootboek/internal/domain"
)

// Repository defines persistence operations for accounts.
// All queries are tenant-scoped.
type Repository interface {
	Create(ctx context.Context, acc *Account) error
	GetByID(ctx context.Context, tenantID, accountID id.ID) (*Account, error)
	// GetByIDs returns the requested accounts keyed by id.
	// Missing ids are simply absent from the map.
	GetByIDs(ctx context.Context, tenantID id.ID, accountIDs []id.ID) (map[id.ID]*Account, error)
	GetByCode(ctx context.Context, tenantID id.ID, code string) (*Account, error)
	// Update modifies an account with optimistic locking.
	Update(ctx context.Context, acc *Account) error
	List(ctx context.Context, tenantID id.ID, filter domain.ListFilter) (domain.ListResult[*Account], error)
	// IsReferenced reports whether any posted journal line points at the account.
	IsReferenced(ctx context.Context, tenantID, accountID id.ID) (bool, error)
	ExistsByCode(ctx context.Context, tenantID id.ID, code string) (bool, error)
}
