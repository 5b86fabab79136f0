package handlers

import (
	"github.com/gin-gonic/gin"

	"ordercore/internal/domain/documents/commercial"
	"ordercore/internal/infrastructure/http/v1/dto"
)

// LifecycleHandler exposes the status graph.
type LifecycleHandler struct {
	*BaseHandler
}

// NewLifecycleHandler creates a lifecycle handler.
func NewLifecycleHandler(base *BaseHandler) *LifecycleHandler {
	return &LifecycleHandler{BaseHandler: base}
}

// Transitions handles GET /lifecycle/transitions?kind=
// Labels follow kind, defaulting to SalesOrder.
func (h *LifecycleHandler) Transitions(c *gin.Context) {
	kind := commercial.KindSalesOrder
	if raw := c.Query("kind"); raw != "" {
		k, err := commercial.ParseKind(raw)
		if err != nil {
			h.Error(c, err)
			return
		}
		kind = k
	}

	h.OK(c, dto.FromTransitionTable(kind))
}
