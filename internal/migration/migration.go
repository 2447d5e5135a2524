// Package migration moves records from the legacy flat store into the
// structured database, once, and repairs records with a miscategorized or
// invalid transaction type.
package migration

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"pennykeep/internal/core"
	"pennykeep/internal/legacy"
	"pennykeep/internal/log"
	"pennykeep/internal/storage"
)

// legacyTransaction is the old blob schema. originalAmount and currency were
// added late; records written before that carry neither.
type legacyTransaction struct {
	ID             uuid.UUID            `json:"id"`
	Title          string               `json:"title"`
	Amount         float64              `json:"amount"`
	OriginalAmount *float64             `json:"originalAmount"`
	Date           time.Time            `json:"date"`
	Category       string               `json:"category"`
	Type           core.TransactionType `json:"type"`
	Currency       string               `json:"currency"`
}

func (lt legacyTransaction) toTransaction() core.Transaction {
	originalAmount := lt.Amount
	if lt.OriginalAmount != nil {
		originalAmount = *lt.OriginalAmount
	}
	currency := lt.Currency
	if currency == "" {
		currency = core.DefaultCurrency
	}
	id := lt.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	return core.Transaction{
		ID:             id,
		Title:          lt.Title,
		Amount:         lt.Amount,
		OriginalAmount: originalAmount,
		Date:           lt.Date,
		Category:       lt.Category,
		Type:           lt.Type,
		Currency:       currency,
	}
}

// Run performs the one-time migration. If the database already holds any
// transaction or category record it is a no-op and the legacy blobs stay
// untouched. Otherwise the legacy transaction and category blobs are decoded,
// inserted, and deleted; the currency preference keys are a separate live
// setting and are preserved.
//
// A failed database write is logged and not retried, and the legacy blobs
// are still cleared afterwards. Refusing to clear would retry against a
// partially populated database, which the guard above forbids anyway.
func Run(ctx context.Context, repo *storage.SQLiteRepository, store *legacy.Store, logger *log.Logger) (migrated bool) {
	logger = logger.WithComponent(log.ComponentMigration)

	txCount, err := repo.CountTransactions(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to check existing transactions, skipping migration",
			log.FieldError, err)
		return false
	}
	catCount, err := repo.CountCategories(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to check existing categories, skipping migration",
			log.FieldError, err)
		return false
	}
	if txCount > 0 || catCount > 0 {
		logger.InfoContext(ctx, "Database already populated, skipping migration",
			"transactions", txCount, "categories", catCount)
		return false
	}

	logger.InfoContext(ctx, "Starting migration from legacy store")

	migrateTransactions(ctx, repo, store, logger)
	migrateCategories(ctx, repo, store, legacy.KeyExpenseCategories, core.Expense, logger)
	migrateCategories(ctx, repo, store, legacy.KeyIncomeCategories, core.Income, logger)

	// Clear the migrated blobs. selectedCurrency and tempCurrency stay: the
	// currency preference still lives in the legacy store.
	for _, key := range []string{legacy.KeyTransactions, legacy.KeyExpenseCategories, legacy.KeyIncomeCategories} {
		if err := store.Delete(key); err != nil {
			logger.ErrorContext(ctx, "Failed to clear legacy blob", "key", key, log.FieldError, err)
		}
	}

	logger.InfoContext(ctx, "Migration completed")
	return true
}

func migrateTransactions(ctx context.Context, repo *storage.SQLiteRepository, store *legacy.Store, logger *log.Logger) {
	blob := store.Get(legacy.KeyTransactions)
	if blob == nil {
		return
	}
	var saved []legacyTransaction
	if err := json.Unmarshal(blob, &saved); err != nil {
		// Undecodable blob is treated as no legacy data.
		logger.WarnContext(ctx, "Legacy transactions blob is not decodable, skipping",
			log.FieldError, err)
		return
	}

	for _, lt := range saved {
		if err := repo.InsertTransaction(ctx, lt.toTransaction()); err != nil {
			logger.ErrorContext(ctx, "Failed to migrate transaction",
				log.FieldTitle, lt.Title, log.FieldError, err)
		}
	}
	logger.InfoContext(ctx, "Migrated legacy transactions", log.FieldCount, len(saved))
}

func migrateCategories(ctx context.Context, repo *storage.SQLiteRepository, store *legacy.Store, key string, typ core.TransactionType, logger *log.Logger) {
	blob := store.Get(key)
	if blob == nil {
		return
	}
	var names []string
	if err := json.Unmarshal(blob, &names); err != nil {
		logger.WarnContext(ctx, "Legacy categories blob is not decodable, skipping",
			"key", key, log.FieldError, err)
		return
	}

	for order, name := range names {
		if err := repo.InsertCategory(ctx, core.Category{Name: name, Type: typ, Order: order}); err != nil {
			logger.ErrorContext(ctx, "Failed to migrate category",
				log.FieldCategory, name, log.FieldError, err)
		}
	}
	logger.InfoContext(ctx, "Migrated legacy categories",
		log.FieldPartition, typ, log.FieldCount, len(names))
}
