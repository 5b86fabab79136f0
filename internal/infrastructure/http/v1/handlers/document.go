package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"ordercore/internal/core/apperror"
	"ordercore/internal/domain/documents/commercial"
	"ordercore/internal/infrastructure/http/v1/dto"
)

// HeaderIdempotencyKey supplies transactionId when the body omits it.
const HeaderIdempotencyKey = "X-Idempotency-Key"

// DocumentHandler serves commercial documents and their ledgers.
type DocumentHandler struct {
	*BaseHandler
	service *commercial.Service
}

// NewDocumentHandler creates a new document handler.
func NewDocumentHandler(base *BaseHandler, service *commercial.Service) *DocumentHandler {
	return &DocumentHandler{BaseHandler: base, service: service}
}

// Create handles POST /documents
func (h *DocumentHandler) Create(c *gin.Context) {
	var req dto.CreateDocumentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	cmd, err := req.ToCommand()
	if err != nil {
		h.Error(c, err)
		return
	}

	doc, err := h.service.Create(c.Request.Context(), cmd)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromDocument(doc))
}

// List handles GET /documents
func (h *DocumentHandler) List(c *gin.Context) {
	var q dto.ListDocumentsQuery
	if !h.BindQuery(c, &q) {
		return
	}

	res, err := h.service.List(c.Request.Context(), q.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.NewListResponse(res, dto.FromDocumentListItem))
}

// Get handles GET /documents/:id
func (h *DocumentHandler) Get(c *gin.Context) {
	docID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	doc, err := h.service.GetByID(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromDocument(doc))
}

// Update handles PUT /documents/:id
func (h *DocumentHandler) Update(c *gin.Context) {
	docID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateDocumentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	cmd, err := req.ToCommand()
	if err != nil {
		h.Error(c, err)
		return
	}

	doc, err := h.service.Update(c.Request.Context(), docID, cmd)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromDocument(doc))
}

// Transition handles POST /documents/:id/transition
func (h *DocumentHandler) Transition(c *gin.Context) {
	docID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	var req dto.TransitionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.service.Transition(c.Request.Context(), docID, req.ToCommand())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromDocument(doc))
}

// Actions handles GET /documents/:id/actions
func (h *DocumentHandler) Actions(c *gin.Context) {
	docID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	doc, set, err := h.service.Actions(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromActions(doc, set))
}

// RecordPayment handles POST /documents/:id/payments
func (h *DocumentHandler) RecordPayment(c *gin.Context) {
	docID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	var req dto.RecordPaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	key, ok := h.transactionKey(c, req.TransactionID)
	if !ok {
		return
	}
	req.TransactionID = key

	doc, payment, err := h.service.RecordPayment(c.Request.Context(), docID, req.ToCommand())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.PaymentResultResponse{
		Payment:  dto.FromPayment(payment),
		Document: dto.FromDocument(doc),
	})
}

// ReversePayment handles POST /documents/:id/payments/:paymentId/reverse
func (h *DocumentHandler) ReversePayment(c *gin.Context) {
	docID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	paymentID, ok := h.ParamID(c, "paymentId")
	if !ok {
		return
	}

	var req dto.ReversePaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	key, ok := h.transactionKey(c, req.TransactionID)
	if !ok {
		return
	}
	req.TransactionID = key

	doc, reversal, err := h.service.ReversePayment(c.Request.Context(), docID, req.ToCommand(paymentID))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.PaymentResultResponse{
		Payment:  dto.FromPayment(reversal),
		Document: dto.FromDocument(doc),
	})
}

// Position handles GET /documents/:id/position
func (h *DocumentHandler) Position(c *gin.Context) {
	docID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	doc, pos, err := h.service.Position(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromPosition(doc, pos))
}

// TransferAdvance handles POST /documents/:id/advance-transfer
func (h *DocumentHandler) TransferAdvance(c *gin.Context) {
	targetID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	var req dto.AdvanceTransferRequest
	if !h.BindJSON(c, &req) {
		return
	}
	key, ok := h.transactionKey(c, req.TransactionID)
	if !ok {
		return
	}
	req.TransactionID = key

	cmd, err := req.ToCommand(targetID)
	if err != nil {
		h.Error(c, apperror.NewValidationKind(apperror.KindInvalidFormat, "sourceDocumentId", "invalid id format"))
		return
	}

	target, source, err := h.service.TransferAdvance(c.Request.Context(), cmd)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.AdvanceTransferResponse{
		Target: dto.FromDocument(target),
		Source: dto.FromDocument(source),
	})
}

// transactionKey prefers the body value and falls back to the idempotency header.
func (h *DocumentHandler) transactionKey(c *gin.Context, fromBody string) (string, bool) {
	if fromBody != "" {
		return fromBody, true
	}
	header := strings.TrimSpace(c.GetHeader(HeaderIdempotencyKey))
	if header == "" {
		return "", true
	}
	if !dto.ValidTransactionKey(header) {
		h.Error(c, apperror.NewValidationKind(apperror.KindInvalidFormat, HeaderIdempotencyKey, "invalid idempotency key"))
		return "", false
	}
	return header, true
}
