package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ordercore/internal/core/apperror"
	appctx "ordercore/internal/core/context"
	"ordercore/internal/core/id"
	"ordercore/internal/core/types"
	"ordercore/internal/domain"
	"ordercore/internal/domain/documents/commercial"
	"ordercore/internal/domain/ledger"
	"ordercore/internal/domain/lifecycle"
	"ordercore/internal/domain/pricing"
)

func newDoc(t *testing.T, kind commercial.Kind, number, counterparty, price string) *commercial.Document {
	t.Helper()
	doc := commercial.NewDocument(kind, counterparty, pricing.PolicyAfterTax)
	doc.Number = number
	err := doc.ReplaceLines([]commercial.LineDraft{{
		ItemID: "item-1",
		Input:  pricing.LineInput{Quantity: types.NewMoney(1), UnitPrice: types.MustMoney(price)},
	}}, types.Zero())
	require.NoError(t, err)
	return doc
}

func TestCreateAndGetReturnCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewDocumentRepo(NewStore())
	doc := newDoc(t, commercial.KindSalesOrder, "SO-2026-00001", "cp-1", "100")

	require.NoError(t, repo.Create(ctx, doc))

	loaded, err := repo.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "SO-2026-00001", loaded.Number)
	assert.Len(t, loaded.Lines, 1)

	loaded.Lines[0].ItemID = "changed"
	again, err := repo.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "item-1", again.Lines[0].ItemID)
}

func TestGetMissing(t *testing.T) {
	repo := NewDocumentRepo(NewStore())
	doc := newDoc(t, commercial.KindSalesOrder, "SO-1", "cp-1", "1")

	_, err := repo.GetByID(context.Background(), doc.ID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestUpdateIsCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	repo := NewDocumentRepo(NewStore())
	doc := newDoc(t, commercial.KindSalesOrder, "SO-1", "cp-1", "100")
	require.NoError(t, repo.Create(ctx, doc))

	first, _ := repo.GetByID(ctx, doc.ID)
	second, _ := repo.GetByID(ctx, doc.ID)

	first.ApplyStatus(lifecycle.StatusConfirmed)
	require.NoError(t, repo.Update(ctx, first))
	assert.Equal(t, 2, first.Version)

	second.ApplyStatus(lifecycle.StatusCancelled)
	err := repo.Update(ctx, second)
	assert.True(t, apperror.IsConcurrentModification(err))

	stored, _ := repo.GetByID(ctx, doc.ID)
	assert.Equal(t, lifecycle.StatusConfirmed, stored.Status)
}

func TestAppendPaymentRejectsDuplicateKey(t *testing.T) {
	ctx := context.Background()
	repo := NewDocumentRepo(NewStore())
	doc := newDoc(t, commercial.KindSalesOrder, "SO-1", "cp-1", "100")
	require.NoError(t, repo.Create(ctx, doc))

	p, err := doc.RecordPayment(ledger.Receipt{Amount: types.NewMoney(10), Mode: ledger.ModeCash, TransactionID: "tx-1"})
	require.NoError(t, err)
	require.NoError(t, repo.AppendPayment(ctx, doc, p))

	// A second writer that never saw tx-1.
	stale, err := repo.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	dup := p
	err = repo.AppendPayment(ctx, stale, dup)
	assert.True(t, apperror.IsPaymentRejected(err))

	stored, _ := repo.GetByID(ctx, doc.ID)
	assert.Equal(t, 1, stored.Ledger.Len())
	assert.Equal(t, "90", stored.Position().NetReceivable.String())
}

func TestTransactionRollback(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repo := NewDocumentRepo(store)
	outbox := NewOutbox(store)
	txm := NewTxManager(store)

	doc := newDoc(t, commercial.KindSalesOrder, "SO-1", "cp-1", "100")
	boom := errors.New("boom")

	err := txm.RunInTransaction(ctx, func(ctx context.Context) error {
		require.NoError(t, repo.Create(ctx, doc))
		require.NoError(t, outbox.Publish(ctx, commercial.Event{Type: commercial.EventDocumentCreated, AggregateID: doc.ID}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = repo.GetByID(ctx, doc.ID)
	assert.True(t, apperror.IsNotFound(err))
	assert.Empty(t, outbox.Messages())
}

func TestRollbackRestoresPreviousVersion(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repo := NewDocumentRepo(store)
	txm := NewTxManager(store)

	doc := newDoc(t, commercial.KindSalesOrder, "SO-1", "cp-1", "100")
	require.NoError(t, repo.Create(ctx, doc))

	err := txm.RunInTransaction(ctx, func(ctx context.Context) error {
		loaded, err := repo.GetByID(ctx, doc.ID)
		require.NoError(t, err)
		loaded.ApplyStatus(lifecycle.StatusConfirmed)
		require.NoError(t, repo.Update(ctx, loaded))

		// Nested calls join the outer transaction.
		return txm.RunInTransaction(ctx, func(context.Context) error {
			return errors.New("late failure")
		})
	})
	require.Error(t, err)

	stored, _ := repo.GetByID(ctx, doc.ID)
	assert.Equal(t, 1, stored.Version)
	assert.Equal(t, lifecycle.StatusDraft, stored.Status)
}

func TestList(t *testing.T) {
	ctx := context.Background()
	repo := NewDocumentRepo(NewStore())

	docs := []*commercial.Document{
		newDoc(t, commercial.KindSalesOrder, "SO-2026-00001", "acme", "300"),
		newDoc(t, commercial.KindSalesOrder, "SO-2026-00002", "globex", "100"),
		newDoc(t, commercial.KindPurchaseOrder, "PO-2026-00001", "acme", "200"),
	}
	for i, d := range docs {
		d.CreatedAt = time.Date(2026, 1, i+1, 0, 0, 0, 0, time.UTC)
		require.NoError(t, repo.Create(ctx, d))
	}

	t.Run("default order is newest first", func(t *testing.T) {
		res, err := repo.List(ctx, commercial.ListFilter{ListFilter: domain.DefaultListFilter()})
		require.NoError(t, err)
		require.Len(t, res.Items, 3)
		assert.Equal(t, "PO-2026-00001", res.Items[0].Number)
		assert.EqualValues(t, 3, res.TotalCount)
	})

	t.Run("kind filter", func(t *testing.T) {
		kind := commercial.KindSalesOrder
		res, err := repo.List(ctx, commercial.ListFilter{Kind: &kind})
		require.NoError(t, err)
		assert.EqualValues(t, 2, res.TotalCount)
	})

	t.Run("counterparty and amount order", func(t *testing.T) {
		res, err := repo.List(ctx, commercial.ListFilter{
			ListFilter:     domain.ListFilter{OrderBy: "netAmountAfterTax"},
			CounterpartyID: "acme",
		})
		require.NoError(t, err)
		require.Len(t, res.Items, 2)
		assert.Equal(t, "PO-2026-00001", res.Items[0].Number)
		assert.Equal(t, "SO-2026-00001", res.Items[1].Number)
	})

	t.Run("search and paging", func(t *testing.T) {
		res, err := repo.List(ctx, commercial.ListFilter{
			ListFilter: domain.ListFilter{Search: "so-", OrderBy: "number", Limit: 1, Offset: 1},
		})
		require.NoError(t, err)
		assert.EqualValues(t, 2, res.TotalCount)
		require.Len(t, res.Items, 1)
		assert.Equal(t, "SO-2026-00002", res.Items[0].Number)
	})

	t.Run("offset past end", func(t *testing.T) {
		res, err := repo.List(ctx, commercial.ListFilter{ListFilter: domain.ListFilter{Offset: 10}})
		require.NoError(t, err)
		assert.Empty(t, res.Items)
		assert.NotNil(t, res.Items)
	})
}

func TestOutboxHistory(t *testing.T) {
	store := NewStore()
	outbox := NewOutbox(store)
	ctx := appctx.WithUser(context.Background(), &appctx.UserContext{UserID: "u-7"})

	docID, otherID := id.New(), id.New()
	require.NoError(t, outbox.Publish(ctx, commercial.Event{Type: commercial.EventDocumentCreated, AggregateID: docID}))
	require.NoError(t, outbox.Publish(ctx, commercial.Event{Type: commercial.EventDocumentCreated, AggregateID: otherID}))
	require.NoError(t, outbox.Publish(ctx, commercial.Event{
		Type:        commercial.EventPaymentRecorded,
		AggregateID: docID,
		Payload:     map[string]any{"amount": "500"},
	}))

	history, err := outbox.History(ctx, docID, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, commercial.HistoryPayment, history[0].Action)
	assert.JSONEq(t, `{"amount":"500"}`, string(history[0].Changes))
	assert.Equal(t, commercial.HistoryCreate, history[1].Action)
	assert.Equal(t, "u-7", history[1].ActorID)

	limited, err := outbox.History(ctx, docID, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
