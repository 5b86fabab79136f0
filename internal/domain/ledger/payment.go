// Package ledger is the append-only payment record of a document.
package ledger

import (
	"fmt"
	"strings"
	"time"

	"ordercore/internal/core/apperror"
	"ordercore/internal/core/id"
	"ordercore/internal/core/types"
)

// Mode is how money moved.
type Mode string

const (
	ModeCash         Mode = "Cash"
	ModeCard         Mode = "Card"
	ModeOnline       Mode = "Online"
	ModeUPI          Mode = "UPI"
	ModeCrypto       Mode = "Crypto"
	ModeBarter       Mode = "Barter"
	ModeCarryForward Mode = "CarryForward"
)

// tenderModes are the modes a caller may record directly.
var tenderModes = []Mode{ModeCash, ModeCard, ModeOnline, ModeUPI, ModeCrypto, ModeBarter}

// ParseMode accepts a tender mode case-insensitively and returns its canonical form.
// CarryForward is reserved for advance transfers and is rejected here.
func ParseMode(s string) (Mode, error) {
	for _, m := range tenderModes {
		if strings.EqualFold(string(m), strings.TrimSpace(s)) {
			return m, nil
		}
	}
	return "", apperror.NewValidationKind(apperror.KindInvalidEnum, "mode",
		fmt.Sprintf("unknown payment mode %q", s))
}

// EntryType distinguishes receipts from corrections and transfers.
type EntryType string

const (
	TypePayment     EntryType = "payment"
	TypeReversal    EntryType = "reversal"
	TypeTransferIn  EntryType = "transfer_in"
	TypeTransferOut EntryType = "transfer_out"
)

// Payment is one immutable ledger entry.
type Payment struct {
	ID            id.ID       `db:"id" json:"paymentId"`
	DocumentID    id.ID       `db:"document_id" json:"documentId"`
	Type          EntryType   `db:"entry_type" json:"type"`
	Amount        types.Money `db:"amount" json:"amount"`
	Mode          Mode        `db:"mode" json:"mode"`
	TransactionID string      `db:"transaction_id" json:"transactionId"`
	Date          time.Time   `db:"payment_date" json:"date"`
	ReversalOf    *id.ID      `db:"reversal_of" json:"reversalOf,omitempty"`
	// CounterDocumentID links the two halves of an advance transfer.
	CounterDocumentID *id.ID    `db:"counter_document_id" json:"counterDocumentId,omitempty"`
	CreatedAt         time.Time `db:"created_at" json:"createdAt"`
	CreatedBy         string    `db:"created_by" json:"createdBy,omitempty"`
}

// Receipt is a caller-submitted payment.
type Receipt struct {
	Amount        types.Money
	Mode          Mode
	TransactionID string
	Date          time.Time
}

// Position is the net standing of a document.
type Position struct {
	NetAmountAfterTax   types.Money
	Paid                types.Money
	NetReceivable       types.Money
	CarryForwardAdvance types.Money
}
