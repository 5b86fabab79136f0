package handlers

import (
	"github.com/gin-gonic/gin"

	"ordercore/internal/domain/documents/commercial"
	"ordercore/internal/infrastructure/http/v1/dto"
)

// HistoryHandler serves the change history of documents.
type HistoryHandler struct {
	*BaseHandler
	service *commercial.Service
	reader  commercial.HistoryReader
}

func NewHistoryHandler(base *BaseHandler, service *commercial.Service, reader commercial.HistoryReader) *HistoryHandler {
	return &HistoryHandler{BaseHandler: base, service: service, reader: reader}
}

// List handles GET /documents/:id/history
func (h *HistoryHandler) List(c *gin.Context) {
	docID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	var q dto.HistoryQuery
	if !h.BindQuery(c, &q) {
		return
	}

	ctx := c.Request.Context()
	doc, err := h.service.GetByID(ctx, docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	entries, err := h.reader.History(ctx, docID, q.EffectiveLimit())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromHistory(doc, entries))
}
