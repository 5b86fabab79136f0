// Package memory provides in-process implementations of the storage contracts.
// It backs tests and the database-less development mode.
package memory

import (
	"context"
	"sync"
)

// Store is the shared state behind the memory repositories.
// Transactions are serialized and undone on failure.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	docs   map[string]*record
	outbox []OutboxMessage
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{docs: make(map[string]*record)}
}

type txKey struct{}

type txState struct {
	undo []func()
}

func (t *txState) rollback() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
}

// onRollback registers fn to run if the transaction in ctx fails.
// Outside a transaction writes are immediately final.
func onRollback(ctx context.Context, fn func()) {
	if st, ok := ctx.Value(txKey{}).(*txState); ok {
		st.undo = append(st.undo, fn)
	}
}

// TxManager implements tx.Manager over a Store.
type TxManager struct {
	store *Store
}

// NewTxManager creates a transaction manager for store.
func NewTxManager(store *Store) *TxManager {
	return &TxManager{store: store}
}

// RunInTransaction executes fn under the store's transaction lock.
// Nested calls reuse the outer transaction.
func (m *TxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*txState); ok {
		return fn(ctx)
	}

	m.store.txMu.Lock()
	defer m.store.txMu.Unlock()

	st := &txState{}
	if err := fn(context.WithValue(ctx, txKey{}, st)); err != nil {
		m.store.mu.Lock()
		st.rollback()
		m.store.mu.Unlock()
		return err
	}
	return nil
}

// ReadOnly executes fn without taking the write lock.
func (m *TxManager) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
