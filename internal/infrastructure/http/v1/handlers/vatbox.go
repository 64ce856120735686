package handlers

import (
	"github.com/gin-gonic/gin"

	"grootboek/internal/domain/vatbox"
	"grootboek/internal/infrastructure/http/v1/dto"
)

// VatBoxHandler handles HTTP requests for the VAT box lineage index.
type VatBoxHandler struct {
	*BaseHandler
	indexer *vatbox.Indexer
}

// NewVatBoxHandler creates a new VAT box handler.
func NewVatBoxHandler(base *BaseHandler, indexer *vatbox.Indexer) *VatBoxHandler {
	return &VatBoxHandler{BaseHandler: base, indexer: indexer}
}

// Totals handles GET /periods/:id/vat-boxes.
func (h *VatBoxHandler) Totals(c *gin.Context) {
	periodID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	totals, err := h.indexer.BoxTotals(c.Request.Context(), periodID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromBoxTotals(periodID.String(), totals))
}

// Lines handles GET /periods/:id/vat-boxes/:box/lines.
// Drills down from a box total to the journal lines that produced it.
func (h *VatBoxHandler) Lines(c *gin.Context) {
	periodID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.BoxLinesRequest
	if !h.BindQuery(c, &req) {
		return
	}

	res, err := h.indexer.BoxLines(c.Request.Context(), periodID, c.Param("box"), req.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{
		Items:      dto.FromLineageRows(res.Items),
		TotalCount: res.TotalCount,
		Limit:      res.Limit,
		Offset:     res.Offset,
	})
}

// Rebuild handles POST /periods/:id/vat-boxes/rebuild.
// Regenerates the lineage index from posted journal lines.
func (h *VatBoxHandler) Rebuild(c *gin.Context) {
	periodID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.indexer.Rebuild(c.Request.Context(), periodID); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "lineage index rebuilt")
}
