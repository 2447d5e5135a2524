package migration

import (
	"context"

	"pennykeep/internal/core"
	"pennykeep/internal/log"
	"pennykeep/internal/storage"
)

// FixTransactionTypes repairs persisted transactions whose type disagrees
// with the partition their category name belongs to:
//
//   - category found in exactly one partition and the type points at the
//     other: the type is corrected and saved;
//   - category in neither or both partitions: left alone, unless the stored
//     type is not a valid value, in which case it is inferred from partition
//     membership, defaulting to expense.
//
// Returns the number of corrected records.
func FixTransactionTypes(ctx context.Context, repo *storage.SQLiteRepository, expenseNames, incomeNames []string, logger *log.Logger) int {
	logger = logger.WithComponent(log.ComponentMigration)

	txs, err := repo.ListTransactions(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to load transactions for type fixup",
			log.FieldError, err)
		return 0
	}

	inExpense := toSet(expenseNames)
	inIncome := toSet(incomeNames)

	fixed := 0
	for _, tx := range txs {
		expected, ok := expectedType(tx, inExpense[tx.Category], inIncome[tx.Category])
		if !ok || expected == tx.Type {
			continue
		}
		logger.InfoContext(ctx, "Correcting transaction type",
			log.FieldOperation, log.OpFixup,
			log.FieldTxID, tx.ID,
			log.FieldCategory, tx.Category,
			"from", tx.Type,
			"to", expected)
		tx.Type = expected
		if err := repo.UpdateTransaction(ctx, tx); err != nil {
			logger.ErrorContext(ctx, "Failed to save corrected transaction",
				log.FieldTxID, tx.ID, log.FieldError, err)
			continue
		}
		fixed++
	}

	if fixed > 0 {
		logger.InfoContext(ctx, "Type fixup completed", log.FieldCount, fixed)
	}
	return fixed
}

func expectedType(tx core.Transaction, isExpense, isIncome bool) (core.TransactionType, bool) {
	switch {
	case isExpense && !isIncome:
		return core.Expense, true
	case isIncome && !isExpense:
		return core.Income, true
	default:
		// Neither or both partitions: only an invalid stored type gets
		// repaired, and the default is expense.
		if tx.Type.Valid() {
			return "", false
		}
		return core.Expense, true
	}
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}
