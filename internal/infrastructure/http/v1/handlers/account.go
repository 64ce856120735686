package handlers

import (
	"github.com/gin-gonic/gin"

	"grootboek/internal/core/tenant"
	"grootboek/internal/domain/reference/account"
	"grootboek/internal/infrastructure/http/v1/dto"
)

// AccountHandler handles HTTP requests for the chart of accounts.
type AccountHandler struct {
	*BaseHandler
	service *account.Service
}

// NewAccountHandler creates a new account handler.
func NewAccountHandler(base *BaseHandler, service *account.Service) *AccountHandler {
	return &AccountHandler{BaseHandler: base, service: service}
}

// Create handles POST /accounts.
func (h *AccountHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateAccountRequest
	if !h.BindJSON(c, &req) {
		return
	}

	tenantID, err := tenant.FromContext(ctx)
	if err != nil {
		h.Error(c, err)
		return
	}

	acc, err := req.ToEntity(tenantID)
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.Create(ctx, acc); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromAccount(acc))
}

// Update handles PUT /accounts/:id.
func (h *AccountHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	accountID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateAccountRequest
	if !h.BindJSON(c, &req) {
		return
	}

	acc, err := h.service.GetByID(ctx, accountID)
	if err != nil {
		h.Error(c, err)
		return
	}

	req.ApplyTo(acc)

	if err := h.service.Update(ctx, acc); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromAccount(acc))
}

// Get handles GET /accounts/:id.
func (h *AccountHandler) Get(c *gin.Context) {
	accountID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	acc, err := h.service.GetByID(c.Request.Context(), accountID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromAccount(acc))
}

// GetByCode handles GET /accounts/by-code/:code.
func (h *AccountHandler) GetByCode(c *gin.Context) {
	acc, err := h.service.GetByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromAccount(acc))
}

// List handles GET /accounts.
func (h *AccountHandler) List(c *gin.Context) {
	var req dto.ListRequest
	if !h.BindQuery(c, &req) {
		return
	}

	res, err := h.service.List(c.Request.Context(), req.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{
		Items:      dto.FromAccounts(res.Items),
		TotalCount: res.TotalCount,
		Limit:      res.Limit,
		Offset:     res.Offset,
	})
}
