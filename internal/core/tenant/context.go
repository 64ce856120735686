// Package tenant provides tenant scoping for the bookkeeping platform.
// Tenancy is column-based: every ledger table carries tenant_id and all
// repository queries are scoped by the tenant resolved from the request.
package tenant

import (
	"context"
	"errors"

	"grootboek/internal/core/id"
)

type ctxKey int

const tenantKey ctxKey = iota

// ErrNoTenantInContext is returned when a tenant-scoped operation runs
// without a resolved tenant.
var ErrNoTenantInContext = errors.New("tenant not found in context")

// WithTenant stores the tenant id in context.
func WithTenant(ctx context.Context, tenantID id.ID) context.Context {
	return context.WithValue(ctx, tenantKey, tenantID)
}

// FromContext retrieves the tenant id from context.
func FromContext(ctx context.Context) (id.ID, error) {
	tenantID, ok := ctx.Value(tenantKey).(id.ID)
	if !ok || id.IsNil(tenantID) {
		return id.Nil(), ErrNoTenantInContext
	}
	return tenantID, nil
}

// MustFromContext retrieves the tenant id or panics.
// Use in places where a missing tenant is a programming error.
func MustFromContext(ctx context.Context) id.ID {
	tenantID, err := FromContext(ctx)
	if err != nil {
		panic("tenant not in context: " + err.Error())
	}
	return tenantID
}
