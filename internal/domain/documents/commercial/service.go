package commercial

import (
	"context"
	"fmt"
	"time"

	"ordercore/internal/core/apperror"
	"ordercore/internal/core/id"
	"ordercore/internal/core/numerator"
	"ordercore/internal/core/tx"
	"ordercore/internal/core/types"
	"ordercore/internal/domain"
	"ordercore/internal/domain/audit"
	"ordercore/internal/domain/ledger"
	"ordercore/internal/domain/lifecycle"
	"ordercore/pkg/logger"
)

// Service provides business operations for commercial documents.
// Every mutation loads the document, checks the caller's version and saves
// through a compare-and-swap inside one transaction.
type Service struct {
	repo      Repository
	txManager tx.Manager
	numerator numerator.Generator
	machine   *lifecycle.Machine
	policies  PolicySet
	events    EventPublisher
	hooks     *domain.HookRegistry[*Document]
	now       func() time.Time
}

// ServiceConfig configures the document service.
type ServiceConfig struct {
	Repo      Repository
	TxManager tx.Manager
	Numerator numerator.Generator
	Machine   *lifecycle.Machine // Optional, defaults to a PermissionGuard machine
	Policies  PolicySet          // Optional, defaults to DefaultPolicySet
	Events    EventPublisher     // Optional
}

// NewService creates a new document service with audit enrichment hooks registered.
func NewService(cfg ServiceConfig) *Service {
	s := &Service{
		repo:      cfg.Repo,
		txManager: cfg.TxManager,
		numerator: cfg.Numerator,
		machine:   cfg.Machine,
		policies:  cfg.Policies,
		events:    cfg.Events,
		hooks:     domain.NewHookRegistry[*Document](),
		now:       func() time.Time { return time.Now().UTC() },
	}
	if s.machine == nil {
		s.machine = lifecycle.NewMachine(nil)
	}
	if s.policies == nil {
		s.policies = DefaultPolicySet()
	}
	if s.events == nil {
		s.events = NopPublisher
	}

	s.hooks.OnBeforeCreate(audit.EnrichCreatedBy[*Document])
	s.hooks.OnBeforeUpdate(audit.EnrichUpdatedBy[*Document])
	return s
}

// Hooks returns the hook registry for registering callbacks.
func (s *Service) Hooks() *domain.HookRegistry[*Document] {
	return s.hooks
}

// Policies returns the adjustment policy per kind.
func (s *Service) Policies() PolicySet {
	return s.policies
}

// CreateCommand carries the fields of a new document.
type CreateCommand struct {
	Kind           Kind
	CounterpartyID string
	Lines          []LineDraft
	Charges        types.Money
}

// Create prices and stores a new Draft document.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Document, error) {
	if !cmd.Kind.IsValid() {
		return nil, apperror.NewValidationKind(apperror.KindInvalidEnum, "kind",
			fmt.Sprintf("unknown document kind %q", cmd.Kind))
	}

	doc := NewDocument(cmd.Kind, cmd.CounterpartyID, s.policies.For(cmd.Kind))
	if err := doc.ReplaceLines(cmd.Lines, cmd.Charges); err != nil {
		return nil, err
	}

	if err := s.hooks.Run(ctx, domain.BeforeCreate, doc); err != nil {
		return nil, err
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, err
	}

	cfg := numerator.DefaultConfig(cmd.Kind.NumberPrefix())
	number, err := s.numerator.GetNextNumber(ctx, cfg, &numerator.Options{Strategy: cmd.Kind.NumeratorStrategy()}, s.now())
	if err != nil {
		return nil, fmt.Errorf("generate number: %w", err)
	}
	doc.Number = number

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create document: %w", err)
		}
		return s.publish(ctx, EventDocumentCreated, doc, map[string]any{
			"netAmountAfterTax": doc.NetAmountAfterTax.String(),
			"lines":             len(doc.Lines),
		})
	})
	if err != nil {
		return nil, err
	}

	if err := s.hooks.Run(ctx, domain.AfterCreate, doc); err != nil {
		logger.Warn(ctx, "after-create hook failed", "error", err)
	}

	logger.Info(ctx, "document created",
		"id", doc.ID,
		"number", doc.Number,
		"kind", doc.Kind)

	return doc, nil
}

// GetByID loads a document with lines and ledger.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*Document, error) {
	var doc *Document
	err := s.readOnly(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.repo.GetByID(ctx, docID)
		return err
	})
	return doc, err
}

// List retrieves documents with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Document], error) {
	filter.Normalize()
	var res domain.ListResult[*Document]
	err := s.readOnly(ctx, func(ctx context.Context) error {
		var err error
		res, err = s.repo.List(ctx, filter)
		return err
	})
	return res, err
}

// UpdateCommand replaces lines and document-level charges.
type UpdateCommand struct {
	Version int
	Lines   []LineDraft
	Charges types.Money
}

// Update reprices a document whose status allows line edits.
func (s *Service) Update(ctx context.Context, docID id.ID, cmd UpdateCommand) (*Document, error) {
	return s.mutate(ctx, docID, cmd.Version, func(ctx context.Context, doc *Document) error {
		if err := doc.ReplaceLines(cmd.Lines, cmd.Charges); err != nil {
			return err
		}
		if err := s.save(ctx, doc); err != nil {
			return err
		}
		return s.publish(ctx, EventDocumentUpdated, doc, map[string]any{
			"netAmountAfterTax": doc.NetAmountAfterTax.String(),
			"lines":             len(doc.Lines),
		})
	})
}

// TransitionCommand is a status compare-and-swap.
type TransitionCommand struct {
	Version        int
	ExpectedStatus lifecycle.Status
	Target         lifecycle.Status
}

// Transition moves a document along the lifecycle graph.
func (s *Service) Transition(ctx context.Context, docID id.ID, cmd TransitionCommand) (*Document, error) {
	if cmd.ExpectedStatus == "" {
		return nil, apperror.NewValidationKind(apperror.KindRequired, "expectedStatus", "expectedStatus is required")
	}

	var from lifecycle.Status
	doc, err := s.mutate(ctx, docID, cmd.Version, func(ctx context.Context, doc *Document) error {
		from = doc.Status
		next, err := s.machine.Transition(ctx, lifecycle.TransitionRequest{
			Kind:     string(doc.Kind),
			Current:  doc.Status,
			Expected: cmd.ExpectedStatus,
			Target:   cmd.Target,
			Actor:    lifecycle.ActorFromContext(ctx),
		})
		if err != nil {
			return err
		}
		doc.ApplyStatus(next)

		if err := s.save(ctx, doc); err != nil {
			return err
		}
		return s.publish(ctx, EventDocumentTransitioned, doc, map[string]any{
			"from": string(from),
			"to":   string(next),
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "document transitioned",
		"id", doc.ID,
		"from", from,
		"to", doc.Status)
	return doc, nil
}

// Actions lists what the current actor can do with a document.
func (s *Service) Actions(ctx context.Context, docID id.ID) (*Document, lifecycle.ActionSet, error) {
	doc, err := s.GetByID(ctx, docID)
	if err != nil {
		return nil, lifecycle.ActionSet{}, err
	}
	set, err := s.machine.Actions(ctx, string(doc.Kind), doc.Status, lifecycle.ActorFromContext(ctx))
	if err != nil {
		return nil, lifecycle.ActionSet{}, apperror.NewInternal(err)
	}
	return doc, set, nil
}

// PaymentCommand records a receipt against a document.
type PaymentCommand struct {
	Version int
	Receipt ledger.Receipt
}

// RecordPayment appends a payment and returns the updated document.
func (s *Service) RecordPayment(ctx context.Context, docID id.ID, cmd PaymentCommand) (*Document, ledger.Payment, error) {
	var payment ledger.Payment
	doc, err := s.mutate(ctx, docID, cmd.Version, func(ctx context.Context, doc *Document) error {
		receipt := cmd.Receipt
		if receipt.Date.IsZero() {
			receipt.Date = s.now()
		}
		p, err := doc.RecordPayment(receipt)
		if err != nil {
			return err
		}
		payment = s.stamp(ctx, p)
		if err := s.appendEntry(ctx, doc, payment); err != nil {
			return err
		}
		return s.publish(ctx, EventPaymentRecorded, doc, paymentPayload(payment, doc))
	})
	if err != nil {
		return nil, ledger.Payment{}, err
	}

	logger.Info(ctx, "payment recorded",
		"id", doc.ID,
		"payment_id", payment.ID,
		"amount", payment.Amount.String())
	return doc, payment, nil
}

// ReverseCommand reverses one payment.
type ReverseCommand struct {
	Version       int
	PaymentID     id.ID
	TransactionID string
	Date          time.Time
}

// ReversePayment appends the negative counterpart of a payment.
func (s *Service) ReversePayment(ctx context.Context, docID id.ID, cmd ReverseCommand) (*Document, ledger.Payment, error) {
	var reversal ledger.Payment
	doc, err := s.mutate(ctx, docID, cmd.Version, func(ctx context.Context, doc *Document) error {
		date := cmd.Date
		if date.IsZero() {
			date = s.now()
		}
		p, err := doc.ReversePayment(cmd.PaymentID, cmd.TransactionID, date)
		if err != nil {
			return err
		}
		reversal = s.stamp(ctx, p)
		if err := s.appendEntry(ctx, doc, reversal); err != nil {
			return err
		}
		return s.publish(ctx, EventPaymentReversed, doc, paymentPayload(reversal, doc))
	})
	if err != nil {
		return nil, ledger.Payment{}, err
	}

	logger.Info(ctx, "payment reversed",
		"id", doc.ID,
		"payment_id", cmd.PaymentID,
		"reversal_id", reversal.ID)
	return doc, reversal, nil
}

// Position returns the net standing of a document.
func (s *Service) Position(ctx context.Context, docID id.ID) (*Document, ledger.Position, error) {
	doc, err := s.GetByID(ctx, docID)
	if err != nil {
		return nil, ledger.Position{}, err
	}
	return doc, doc.Position(), nil
}

// TransferCommand moves carry-forward advance between two documents.
type TransferCommand struct {
	TargetID      id.ID
	TargetVersion int
	SourceID      id.ID
	SourceVersion int
	TransactionID string
	Amount        types.Money
}

// TransferAdvance moves credit from an overpaid source to the target atomically.
func (s *Service) TransferAdvance(ctx context.Context, cmd TransferCommand) (target, source *Document, err error) {
	if err := requireVersion("version", cmd.TargetVersion); err != nil {
		return nil, nil, err
	}
	if err := requireVersion("sourceVersion", cmd.SourceVersion); err != nil {
		return nil, nil, err
	}

	var out, in ledger.Payment
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		src, err := s.load(ctx, cmd.SourceID, cmd.SourceVersion)
		if err != nil {
			return err
		}
		dst, err := s.load(ctx, cmd.TargetID, cmd.TargetVersion)
		if err != nil {
			return err
		}

		out, in, err = TransferAdvance(src, dst, cmd.TransactionID, cmd.Amount, s.now())
		if err != nil {
			return err
		}
		out, in = s.stamp(ctx, out), s.stamp(ctx, in)

		for _, doc := range []*Document{src, dst} {
			if err := s.hooks.Run(ctx, domain.BeforeUpdate, doc); err != nil {
				return err
			}
		}

		// Lock rows in id order so opposite transfers cannot deadlock.
		first, firstEntry, second, secondEntry := src, out, dst, in
		if dst.ID.String() < src.ID.String() {
			first, firstEntry, second, secondEntry = dst, in, src, out
		}
		if err := s.appendEntry(ctx, first, firstEntry); err != nil {
			return err
		}
		if err := s.appendEntry(ctx, second, secondEntry); err != nil {
			return err
		}

		source, target = src, dst
		return s.publish(ctx, EventAdvanceTransferred, dst, map[string]any{
			"sourceDocumentId": src.ID.String(),
			"targetDocumentId": dst.ID.String(),
			"amount":           in.Amount.String(),
			"transactionId":    in.TransactionID,
		})
	})
	if err != nil {
		return nil, nil, err
	}

	logger.Info(ctx, "advance transferred",
		"source_id", source.ID,
		"target_id", target.ID,
		"amount", in.Amount.String())
	return target, source, nil
}

// readOnly runs fn in a read-only transaction when the manager supports one,
// so a document and its lines and ledger come from one snapshot.
func (s *Service) readOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	if ro, ok := s.txManager.(tx.ReadOnlyManager); ok {
		return ro.ReadOnly(ctx, fn)
	}
	return fn(ctx)
}

// mutate runs fn on a freshly loaded document inside a transaction.
func (s *Service) mutate(ctx context.Context, docID id.ID, version int, fn func(ctx context.Context, doc *Document) error) (*Document, error) {
	if err := requireVersion("version", version); err != nil {
		return nil, err
	}

	var result *Document
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		doc, err := s.load(ctx, docID, version)
		if err != nil {
			return err
		}
		if err := s.hooks.Run(ctx, domain.BeforeUpdate, doc); err != nil {
			return err
		}
		if err := fn(ctx, doc); err != nil {
			return err
		}
		result = doc
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.hooks.Run(ctx, domain.AfterUpdate, result); err != nil {
		logger.Warn(ctx, "after-update hook failed", "error", err)
	}
	return result, nil
}

func (s *Service) load(ctx context.Context, docID id.ID, version int) (*Document, error) {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	if doc.Version != version {
		return nil, apperror.NewConcurrentModification("document", docID).
			WithDetail("expectedVersion", version).
			WithDetail("actualVersion", doc.Version)
	}
	return doc, nil
}

func (s *Service) save(ctx context.Context, doc *Document) error {
	if err := doc.Validate(ctx); err != nil {
		return err
	}
	doc.Touch()
	if err := s.repo.Update(ctx, doc); err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	return nil
}

func (s *Service) appendEntry(ctx context.Context, doc *Document, p ledger.Payment) error {
	doc.Touch()
	if err := s.repo.AppendPayment(ctx, doc, p); err != nil {
		return fmt.Errorf("append payment: %w", err)
	}
	return nil
}

// stamp records the acting user on a ledger entry.
func (s *Service) stamp(ctx context.Context, p ledger.Payment) ledger.Payment {
	p.CreatedBy = lifecycle.ActorFromContext(ctx).UserID
	return p
}

func (s *Service) publish(ctx context.Context, eventType string, doc *Document, payload map[string]any) error {
	if payload == nil {
		payload = make(map[string]any)
	}
	payload["number"] = doc.Number
	payload["kind"] = string(doc.Kind)
	payload["status"] = string(doc.Status)
	payload["version"] = doc.Version

	if err := s.events.Publish(ctx, Event{Type: eventType, AggregateID: doc.ID, Payload: payload}); err != nil {
		return fmt.Errorf("publish %s: %w", eventType, err)
	}
	return nil
}

func paymentPayload(p ledger.Payment, doc *Document) map[string]any {
	pos := doc.Position()
	payload := map[string]any{
		"paymentId":           p.ID.String(),
		"type":                string(p.Type),
		"amount":              p.Amount.String(),
		"mode":                string(p.Mode),
		"transactionId":       p.TransactionID,
		"netReceivable":       pos.NetReceivable.String(),
		"carryForwardAdvance": pos.CarryForwardAdvance.String(),
	}
	if p.ReversalOf != nil {
		payload["reversalOf"] = p.ReversalOf.String()
	}
	return payload
}

func requireVersion(field string, version int) error {
	if version <= 0 {
		return apperror.NewValidationKind(apperror.KindRequired, field, field+" is required")
	}
	return nil
}
