package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"grootboek/internal/core/id"
	"grootboek/internal/core/tenant"
	"grootboek/internal/domain/period"
	"grootboek/internal/infrastructure/http/v1/dto"
)

// PeriodHandler handles HTTP requests for accounting periods.
type PeriodHandler struct {
	*BaseHandler
	service *period.Service
}

// NewPeriodHandler creates a new period handler.
func NewPeriodHandler(base *BaseHandler, service *period.Service) *PeriodHandler {
	return &PeriodHandler{BaseHandler: base, service: service}
}

// Create handles POST /periods.
func (h *PeriodHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreatePeriodRequest
	if !h.BindJSON(c, &req) {
		return
	}

	tenantID, err := tenant.FromContext(ctx)
	if err != nil {
		h.Error(c, err)
		return
	}

	p := req.ToEntity(tenantID)
	if err := h.service.Create(ctx, p); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromPeriod(p))
}

// StartReview handles POST /periods/:id/start-review.
func (h *PeriodHandler) StartReview(c *gin.Context) {
	h.transition(c, h.service.StartReview)
}

// Finalize handles POST /periods/:id/finalize.
func (h *PeriodHandler) Finalize(c *gin.Context) {
	h.transition(c, h.service.Finalize)
}

// Lock handles POST /periods/:id/lock.
func (h *PeriodHandler) Lock(c *gin.Context) {
	h.transition(c, h.service.Lock)
}

// Get handles GET /periods/:id.
func (h *PeriodHandler) Get(c *gin.Context) {
	periodID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	p, err := h.service.GetByID(c.Request.Context(), periodID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromPeriod(p))
}

// List handles GET /periods.
func (h *PeriodHandler) List(c *gin.Context) {
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
		Items:      dto.FromPeriods(res.Items),
		TotalCount: res.TotalCount,
		Limit:      res.Limit,
		Offset:     res.Offset,
	})
}

// History handles GET /periods/:id/history.
func (h *PeriodHandler) History(c *gin.Context) {
	periodID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	rows, err := h.service.History(c.Request.Context(), periodID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromAuditRows(rows))
}

// CanAcceptPostings handles GET /periods/can-accept-postings?date=YYYY-MM-DD.
func (h *PeriodHandler) CanAcceptPostings(c *gin.Context) {
	var req dto.CanAcceptPostingsRequest
	if !h.BindQuery(c, &req) {
		return
	}

	date, err := req.ParseDate()
	if err != nil {
		h.Error(c, err)
		return
	}

	accepts, err := h.service.CanAcceptPostings(c.Request.Context(), date)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.CanAcceptPostingsResponse{
		Date:            req.Date,
		AcceptsPostings: accepts,
	})
}

// transition runs one status transition and returns the updated period.
func (h *PeriodHandler) transition(c *gin.Context, fn func(ctx context.Context, periodID id.ID, actor string) error) {
	ctx := c.Request.Context()

	periodID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := fn(ctx, periodID, h.Actor(c)); err != nil {
		h.Error(c, err)
		return
	}

	p, err := h.service.GetByID(ctx, periodID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromPeriod(p))
}
