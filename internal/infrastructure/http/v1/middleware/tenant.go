package middleware

import (
	"github.com/gin-gonic/gin"

	"grootboek/internal/core/apperror"
	appctx "grootboek/internal/core/context"
	"grootboek/internal/core/id"
	"grootboek/internal/core/tenant"
)

// TenantHeader is the HTTP header for tenant identification.
const TenantHeader = "X-Tenant-ID"

// Tenant middleware resolves the tenant for the request and stores it
// in the context; every repository query is scoped by it. Runs after
// Auth: the header must match the token's tenant when both are present.
func Tenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		rawTenantID := c.GetHeader(TenantHeader)

		// Fall back to the token's tenant when the header is absent.
		if rawTenantID == "" {
			if actor := appctx.GetActor(c.Request.Context()); actor != nil {
				rawTenantID = actor.TenantID
			}
		}

		if rawTenantID == "" {
			_ = c.Error(
				apperror.NewValidation("tenant is required").
					WithDetail("header", TenantHeader),
			)
			c.Abort()
			return
		}

		tenantID, err := id.Parse(rawTenantID)
		if err != nil {
			_ = c.Error(
				apperror.NewValidation("invalid tenant id").
					WithDetail("header", TenantHeader).
					WithDetail("value", rawTenantID),
			)
			c.Abort()
			return
		}

		// Enforce tenant match: header must agree with token tenant.
		if actor := appctx.GetActor(c.Request.Context()); actor != nil {
			if actor.TenantID != "" && actor.TenantID != tenantID.String() && !actor.IsAdmin {
				_ = c.Error(
					apperror.NewForbidden("tenant mismatch").
						WithDetail("header_tenant_id", tenantID.String()).
						WithDetail("token_tenant_id", actor.TenantID),
				)
				c.Abort()
				return
			}
		}

		ctx := tenant.WithTenant(c.Request.Context(), tenantID)
		c.Request = c.Request.WithContext(ctx)

		c.Set("tenant_id", tenantID.String())

		c.Next()
	}
}
