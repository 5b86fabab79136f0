package ledger

import (
	"strings"
	"time"

	"ordercore/internal/core/apperror"
	"ordercore/internal/core/id"
	"ordercore/internal/core/types"
)

// Ledger holds the entries of one document in recording order.
// The zero value is an empty ledger.
type Ledger struct {
	documentID id.ID
	entries    []Payment
}

// New creates a ledger for documentID from persisted entries.
func New(documentID id.ID, entries []Payment) Ledger {
	return Ledger{documentID: documentID, entries: append([]Payment(nil), entries...)}
}

// Entries returns a copy of the entries.
func (l Ledger) Entries() []Payment {
	return append([]Payment(nil), l.entries...)
}

// Len returns the number of entries.
func (l Ledger) Len() int {
	return len(l.entries)
}

// Paid is the signed sum of all entries.
func (l Ledger) Paid() types.Money {
	sum := types.Zero()
	for _, p := range l.entries {
		sum = sum.Add(p.Amount)
	}
	return sum
}

// Position derives the outstanding balance against net.
// An overpayment is reported as carry-forward advance; neither figure is negative.
func (l Ledger) Position(net types.Money) Position {
	paid := l.Paid()
	outstanding := net.Sub(paid)

	pos := Position{
		NetAmountAfterTax:   net,
		Paid:                paid,
		NetReceivable:       outstanding,
		CarryForwardAdvance: types.Zero(),
	}
	if outstanding.IsNegative() {
		pos.CarryForwardAdvance = outstanding.Neg()
		pos.NetReceivable = types.Zero()
	}
	return pos
}

// HasKey reports whether an entry with transactionID exists.
func (l Ledger) HasKey(transactionID string) bool {
	for _, p := range l.entries {
		if p.TransactionID == transactionID {
			return true
		}
	}
	return false
}

// Find returns the entry with paymentID.
func (l Ledger) Find(paymentID id.ID) (Payment, bool) {
	for _, p := range l.entries {
		if p.ID == paymentID {
			return p, true
		}
	}
	return Payment{}, false
}

// Record appends a receipt and returns the stored entry.
func (l *Ledger) Record(r Receipt) (Payment, error) {
	key, err := l.checkKey(r.TransactionID)
	if err != nil {
		return Payment{}, err
	}
	if r.Mode == "" {
		return Payment{}, apperror.NewValidationKind(apperror.KindRequired, "mode", "payment mode is required")
	}
	mode, err := ParseMode(string(r.Mode))
	if err != nil {
		return Payment{}, err
	}
	if !r.Amount.IsPositive() {
		return Payment{}, apperror.NewPaymentRejected(apperror.ReasonNonPositiveAmount,
			"payment amount must be greater than zero").
			WithDetail("amount", r.Amount.String())
	}

	return l.append(Payment{
		Type:          TypePayment,
		Amount:        r.Amount,
		Mode:          mode,
		TransactionID: key,
		Date:          r.Date,
	}), nil
}

// Reverse appends the negative counterpart of a payment.
func (l *Ledger) Reverse(paymentID id.ID, transactionID string, date time.Time) (Payment, error) {
	key, err := l.checkKey(transactionID)
	if err != nil {
		return Payment{}, err
	}

	orig, ok := l.Find(paymentID)
	if !ok {
		return Payment{}, apperror.NewNotFound("payment", paymentID)
	}
	if orig.Type != TypePayment {
		return Payment{}, apperror.NewPaymentRejected(apperror.ReasonNotReversible,
			"only payments can be reversed").
			WithDetail("type", string(orig.Type))
	}
	for _, p := range l.entries {
		if p.ReversalOf != nil && *p.ReversalOf == paymentID {
			return Payment{}, apperror.NewPaymentRejected(apperror.ReasonAlreadyReversed,
				"payment is already reversed").
				WithDetail("reversalId", p.ID.String())
		}
	}

	ref := orig.ID
	return l.append(Payment{
		Type:          TypeReversal,
		Amount:        orig.Amount.Neg(),
		Mode:          orig.Mode,
		TransactionID: key,
		Date:          date,
		ReversalOf:    &ref,
	}), nil
}

// TransferOut consumes up to available advance credit.
func (l *Ledger) TransferOut(transactionID string, amount, available types.Money, counter id.ID, date time.Time) (Payment, error) {
	key, err := l.checkKey(transactionID)
	if err != nil {
		return Payment{}, err
	}
	if !amount.IsPositive() {
		return Payment{}, apperror.NewPaymentRejected(apperror.ReasonNonPositiveAmount,
			"transfer amount must be greater than zero")
	}
	if amount.GreaterThan(available) {
		return Payment{}, apperror.NewPaymentRejected(apperror.ReasonNoAdvance,
			"not enough carry-forward advance").
			WithDetail("available", available.String())
	}

	return l.append(Payment{
		Type:              TypeTransferOut,
		Amount:            amount.Neg(),
		Mode:              ModeCarryForward,
		TransactionID:     key,
		Date:              date,
		CounterDocumentID: &counter,
	}), nil
}

// TransferIn credits advance moved from another document.
func (l *Ledger) TransferIn(transactionID string, amount types.Money, counter id.ID, date time.Time) (Payment, error) {
	key, err := l.checkKey(transactionID)
	if err != nil {
		return Payment{}, err
	}
	if !amount.IsPositive() {
		return Payment{}, apperror.NewPaymentRejected(apperror.ReasonNonPositiveAmount,
			"transfer amount must be greater than zero")
	}

	return l.append(Payment{
		Type:              TypeTransferIn,
		Amount:            amount,
		Mode:              ModeCarryForward,
		TransactionID:     key,
		Date:              date,
		CounterDocumentID: &counter,
	}), nil
}

func (l *Ledger) checkKey(transactionID string) (string, error) {
	key := strings.TrimSpace(transactionID)
	if key == "" {
		return "", apperror.NewValidationKind(apperror.KindRequired, "transactionId",
			"transactionId is required")
	}
	if l.HasKey(key) {
		return "", apperror.NewPaymentRejected(apperror.ReasonDuplicateKey,
			"a ledger entry with this transactionId already exists").
			WithDetail("transactionId", key)
	}
	return key, nil
}

func (l *Ledger) append(p Payment) Payment {
	now := time.Now().UTC()
	p.ID = id.New()
	p.DocumentID = l.documentID
	p.CreatedAt = now
	if p.Date.IsZero() {
		p.Date = now
	}
	l.entries = append(l.entries, p)
	return p
}
