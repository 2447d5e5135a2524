// Package store holds the in-memory working sets the app reads from: the
// transaction record store and the category registry. All mutation goes
// through these types; after any mutating call the in-memory state is
// re-read from the backing database rather than patched optimistically.
package store

import (
	"context"
	"sync"

	"pennykeep/internal/core"
	"pennykeep/internal/log"
	"pennykeep/internal/storage"
)

// TransactionStore owns the transaction collection. The repository handle is
// injected at construction; there is no ambient fallback.
type TransactionStore struct {
	mu     sync.Mutex
	repo   *storage.SQLiteRepository
	logger *log.Logger

	transactions []core.Transaction
}

func NewTransactionStore(repo *storage.SQLiteRepository, logger *log.Logger) *TransactionStore {
	return &TransactionStore{
		repo:   repo,
		logger: logger.WithComponent(log.ComponentStore),
	}
}

// Load replaces the in-memory collection with the stored records, ordered by
// date descending. Safe to call repeatedly.
func (s *TransactionStore) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reload(ctx)
}

// Transactions returns a snapshot copy of the current collection.
func (s *TransactionStore) Transactions() []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.transactions...)
}

// Add inserts one record and reloads. A storage failure is logged, not
// returned; the in-memory state is whatever the reload produced.
func (s *TransactionStore) Add(ctx context.Context, tx core.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.repo == nil {
		s.logger.WarnContext(ctx, "No repository attached, dropping add",
			log.FieldOperation, log.OpAdd, log.FieldTitle, tx.Title)
		return
	}
	if err := s.repo.InsertTransaction(ctx, tx); err != nil {
		s.logger.ErrorContext(ctx, "Failed to save transaction",
			log.FieldOperation, log.OpAdd,
			log.FieldTxID, tx.ID,
			log.FieldError, err)
	}
	s.reload(ctx)
}

// Delete removes a record by identity and reloads.
func (s *TransactionStore) Delete(ctx context.Context, tx core.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.repo == nil {
		s.logger.WarnContext(ctx, "No repository attached, dropping delete",
			log.FieldOperation, log.OpDelete, log.FieldTxID, tx.ID)
		return
	}
	if err := s.repo.DeleteTransaction(ctx, tx.ID); err != nil {
		s.logger.ErrorContext(ctx, "Failed to delete transaction",
			log.FieldOperation, log.OpDelete,
			log.FieldTxID, tx.ID,
			log.FieldError, err)
	}
	s.reload(ctx)
}

// Update persists the passed record over the stored one with the same ID and
// reloads.
func (s *TransactionStore) Update(ctx context.Context, tx core.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.repo == nil {
		s.logger.WarnContext(ctx, "No repository attached, dropping update",
			log.FieldOperation, log.OpUpdate, log.FieldTxID, tx.ID)
		return
	}
	if err := s.repo.UpdateTransaction(ctx, tx); err != nil {
		s.logger.ErrorContext(ctx, "Failed to update transaction",
			log.FieldOperation, log.OpUpdate,
			log.FieldTxID, tx.ID,
			log.FieldError, err)
	}
	s.reload(ctx)
}

// Refresh re-reads the backing storage. A nil repository is a logged no-op,
// not a crash.
func (s *TransactionStore) Refresh(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.repo == nil {
		s.logger.WarnContext(ctx, "No repository attached, skipping refresh",
			log.FieldOperation, log.OpRefresh)
		return
	}
	s.reload(ctx)
}

// reload must be called with the lock held.
func (s *TransactionStore) reload(ctx context.Context) {
	if s.repo == nil {
		s.logger.WarnContext(ctx, "No repository attached, keeping in-memory collection",
			log.FieldOperation, log.OpLoad)
		return
	}
	txs, err := s.repo.ListTransactions(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to load transactions",
			log.FieldOperation, log.OpLoad,
			log.FieldError, err)
		return
	}
	s.transactions = txs
	s.logger.InfoContext(ctx, "Loaded transactions", log.FieldCount, len(txs))
}
