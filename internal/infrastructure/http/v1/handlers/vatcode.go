package handlers

import (
	"github.com/gin-gonic/gin"

	"grootboek/internal/domain/reference/vatcode"
	"grootboek/internal/infrastructure/http/v1/dto"
)

// VatCodeHandler handles HTTP requests for the VAT code catalog.
type VatCodeHandler struct {
	*BaseHandler
	service *vatcode.Service
}

// NewVatCodeHandler creates a new VAT code handler.
func NewVatCodeHandler(base *BaseHandler, service *vatcode.Service) *VatCodeHandler {
	return &VatCodeHandler{BaseHandler: base, service: service}
}

// Create handles POST /vat-codes.
func (h *VatCodeHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateVatCodeRequest
	if !h.BindJSON(c, &req) {
		return
	}

	code := req.ToEntity()
	if err := h.service.Create(ctx, code); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromVatCode(code))
}

// Update handles PUT /vat-codes/:id.
func (h *VatCodeHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	codeID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateVatCodeRequest
	if !h.BindJSON(c, &req) {
		return
	}

	code, err := h.service.GetByID(ctx, codeID)
	if err != nil {
		h.Error(c, err)
		return
	}

	req.ApplyTo(code)

	if err := h.service.Update(ctx, code); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromVatCode(code))
}

// Get handles GET /vat-codes/:id.
func (h *VatCodeHandler) Get(c *gin.Context) {
	codeID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	code, err := h.service.GetByID(c.Request.Context(), codeID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromVatCode(code))
}

// List handles GET /vat-codes.
func (h *VatCodeHandler) List(c *gin.Context) {
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
		Items:      dto.FromVatCodes(res.Items),
		TotalCount: res.TotalCount,
		Limit:      res.Limit,
		Offset:     res.Offset,
	})
}
