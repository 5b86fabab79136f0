package handlers

import (
	"github.com/gin-gonic/gin"

	"ordercore/internal/domain/documents/commercial"
	"ordercore/internal/domain/pricing"
	"ordercore/internal/infrastructure/http/v1/dto"
)

// ComputeHandler prices lines and documents without storing them.
type ComputeHandler struct {
	*BaseHandler
	policies commercial.PolicySet
}

// NewComputeHandler creates a compute handler. policies resolve the policy of a kind.
func NewComputeHandler(base *BaseHandler, policies commercial.PolicySet) *ComputeHandler {
	if policies == nil {
		policies = commercial.DefaultPolicySet()
	}
	return &ComputeHandler{BaseHandler: base, policies: policies}
}

// Line handles POST /compute/line
func (h *ComputeHandler) Line(c *gin.Context) {
	var req dto.ComputeLineRequest
	if !h.BindJSON(c, &req) {
		return
	}

	policy, err := req.Policy()
	if err != nil {
		h.Error(c, err)
		return
	}

	b, err := pricing.Compute(req.ToInput(), policy)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ComputeLineResponse{
		AdjustmentPolicy:  string(policy),
		BreakdownResponse: dto.FromBreakdown(b),
	})
}

// Document handles POST /compute/document
func (h *ComputeHandler) Document(c *gin.Context) {
	var req dto.ComputeDocumentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	policy, err := req.Policy(h.policies)
	if err != nil {
		h.Error(c, err)
		return
	}

	res, err := pricing.ComputeDocument(req.Inputs(), req.Charges.Value, policy)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromResult(policy, req.Charges, res))
}
