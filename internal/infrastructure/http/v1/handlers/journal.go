package handlers

import (
	"github.com/gin-gonic/gin"

	"grootboek/internal/domain/journal"
	"grootboek/internal/infrastructure/http/v1/dto"
)

// JournalHandler handles HTTP requests for journal entries.
type JournalHandler struct {
	*BaseHandler
	service *journal.Service
}

// NewJournalHandler creates a new journal handler.
func NewJournalHandler(base *BaseHandler, service *journal.Service) *JournalHandler {
	return &JournalHandler{BaseHandler: base, service: service}
}

// CreateDraft handles POST /journal-entries.
func (h *JournalHandler) CreateDraft(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateEntryRequest
	if !h.BindJSON(c, &req) {
		return
	}

	input, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	entry, err := h.service.CreateDraft(ctx, input)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromEntry(entry))
}

// UpdateDraft handles PUT /journal-entries/:id.
// Only DRAFT entries accept modification; the lines are replaced wholesale.
func (h *JournalHandler) UpdateDraft(c *gin.Context) {
	ctx := c.Request.Context()

	entryID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.CreateEntryRequest
	if !h.BindJSON(c, &req) {
		return
	}

	input, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	entry, err := h.service.UpdateDraft(ctx, entryID, input)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromEntry(entry))
}

// Post handles POST /journal-entries/:id/post.
func (h *JournalHandler) Post(c *gin.Context) {
	entryID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	entry, err := h.service.Post(c.Request.Context(), entryID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromEntry(entry))
}

// Reverse handles POST /journal-entries/:id/reverse.
// Returns the newly created reversal entry.
func (h *JournalHandler) Reverse(c *gin.Context) {
	entryID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	reversal, err := h.service.Reverse(c.Request.Context(), entryID, h.Actor(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromEntry(reversal))
}

// Get handles GET /journal-entries/:id.
func (h *JournalHandler) Get(c *gin.Context) {
	entryID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	entry, err := h.service.GetByID(c.Request.Context(), entryID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromEntry(entry))
}

// List handles GET /journal-entries.
func (h *JournalHandler) List(c *gin.Context) {
	var req dto.ListEntriesRequest
	if !h.BindQuery(c, &req) {
		return
	}

	filter, err := req.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	res, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{
		Items:      dto.FromEntries(res.Items),
		TotalCount: res.TotalCount,
		Limit:      res.Limit,
		Offset:     res.Offset,
	})
}
