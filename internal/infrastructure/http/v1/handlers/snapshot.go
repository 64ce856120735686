package handlers

import (
	"github.com/gin-gonic/gin"

	"grootboek/internal/domain/snapshot"
	"grootboek/internal/infrastructure/http/v1/dto"
)

// SnapshotHandler handles HTTP requests for frozen period statements.
// Snapshots are created by period finalization, never through this API.
type SnapshotHandler struct {
	*BaseHandler
	builder *snapshot.Builder
}

// NewSnapshotHandler creates a new snapshot handler.
func NewSnapshotHandler(base *BaseHandler, builder *snapshot.Builder) *SnapshotHandler {
	return &SnapshotHandler{BaseHandler: base, builder: builder}
}

// GetByPeriod handles GET /periods/:id/snapshot.
func (h *SnapshotHandler) GetByPeriod(c *gin.Context) {
	periodID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	snap, err := h.builder.GetSnapshot(c.Request.Context(), periodID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromSnapshot(snap))
}

// Get handles GET /snapshots/:id.
func (h *SnapshotHandler) Get(c *gin.Context) {
	snapshotID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	snap, err := h.builder.GetByID(c.Request.Context(), snapshotID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromSnapshot(snap))
}
