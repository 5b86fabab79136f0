package dto

import (
	"encoding/json"
	"time"

	"ordercore/internal/core/id"
	"ordercore/internal/domain/documents/commercial"
	"ordercore/internal/domain/ledger"
)

// RecordPaymentRequest records a receipt.
type RecordPaymentRequest struct {
	Amount        Number     `json:"amount"`
	Mode          string     `json:"mode" binding:"required,payment_mode"`
	TransactionID string     `json:"transactionId" binding:"omitempty,transaction_key"`
	Date          *time.Time `json:"date"`
	Version       int        `json:"version" binding:"required,min=1"`
}

// ToCommand converts the request into a payment command.
func (r *RecordPaymentRequest) ToCommand() commercial.PaymentCommand {
	cmd := commercial.PaymentCommand{
		Version: r.Version,
		Receipt: ledger.Receipt{
			Amount:        r.Amount.Value,
			Mode:          ledger.Mode(r.Mode),
			TransactionID: r.TransactionID,
		},
	}
	if r.Date != nil {
		cmd.Receipt.Date = r.Date.UTC()
	}
	return cmd
}

// ReversePaymentRequest reverses a payment.
type ReversePaymentRequest struct {
	TransactionID string     `json:"transactionId" binding:"omitempty,transaction_key"`
	Date          *time.Time `json:"date"`
	Version       int        `json:"version" binding:"required,min=1"`
}

// ToCommand converts the request into a reverse command.
func (r *ReversePaymentRequest) ToCommand(paymentID id.ID) commercial.ReverseCommand {
	cmd := commercial.ReverseCommand{
		Version:       r.Version,
		PaymentID:     paymentID,
		TransactionID: r.TransactionID,
	}
	if r.Date != nil {
		cmd.Date = r.Date.UTC()
	}
	return cmd
}

// AdvanceTransferRequest moves carry-forward advance from a source document.
// A zero or missing amount moves as much as the target still owes.
type AdvanceTransferRequest struct {
	SourceDocumentID string `json:"sourceDocumentId" binding:"required,uuid"`
	SourceVersion    int    `json:"sourceVersion" binding:"required,min=1"`
	Version          int    `json:"version" binding:"required,min=1"`
	TransactionID    string `json:"transactionId" binding:"omitempty,transaction_key"`
	Amount           Number `json:"amount"`
}

// ToCommand converts the request into a transfer command.
func (r *AdvanceTransferRequest) ToCommand(targetID id.ID) (commercial.TransferCommand, error) {
	sourceID, err := id.Parse(r.SourceDocumentID)
	if err != nil {
		return commercial.TransferCommand{}, err
	}
	return commercial.TransferCommand{
		TargetID:      targetID,
		TargetVersion: r.Version,
		SourceID:      sourceID,
		SourceVersion: r.SourceVersion,
		TransactionID: r.TransactionID,
		Amount:        r.Amount.Value,
	}, nil
}

// PaymentResultResponse is returned by ledger operations.
type PaymentResultResponse struct {
	Payment  PaymentResponse  `json:"payment"`
	Document DocumentResponse `json:"document"`
}

// AdvanceTransferResponse returns both sides of a transfer.
type AdvanceTransferResponse struct {
	Target DocumentResponse `json:"target"`
	Source DocumentResponse `json:"source"`
}

// PositionResponse is the net standing of a document.
type PositionResponse struct {
	DocumentID          string      `json:"documentId"`
	Version             int         `json:"version"`
	NetAmountAfterTax   json.Number `json:"netAmountAfterTax"`
	Paid                json.Number `json:"paid"`
	NetReceivable       json.Number `json:"netReceivable"`
	CarryForwardAdvance json.Number `json:"carryForwardAdvance"`
}

// FromPosition renders pos for d.
func FromPosition(d *commercial.Document, pos ledger.Position) PositionResponse {
	return PositionResponse{
		DocumentID:          d.ID.String(),
		Version:             d.Version,
		NetAmountAfterTax:   Money(pos.NetAmountAfterTax),
		Paid:                Money(pos.Paid),
		NetReceivable:       Money(pos.NetReceivable),
		CarryForwardAdvance: Money(pos.CarryForwardAdvance),
	}
}
