package migration

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"pennykeep/internal/core"
	"pennykeep/internal/legacy"
	"pennykeep/internal/log"
	"pennykeep/internal/storage"
)

func testLogger() *log.Logger {
	return log.New(log.Config{
		Component: "test",
		Handler:   slog.NewTextHandler(io.Discard, nil),
	})
}

func testRepo(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "pennykeep.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func testLegacy(t *testing.T) *legacy.Store {
	t.Helper()
	s, err := legacy.Open(filepath.Join(t.TempDir(), "prefs.json"))
	if err != nil {
		t.Fatalf("open legacy store: %v", err)
	}
	return s
}

func TestRunMigratesAndClearsLegacyBlobs(t *testing.T) {
	repo := testRepo(t)
	store := testLegacy(t)
	ctx := context.Background()

	store.Set(legacy.KeyTransactions, []byte(
		`[{"id":"6f1c4ae2-9be1-4f35-8c2a-6f0f1f6d3e01","title":"Coffee","amount":4.5,"date":"2024-01-15T00:00:00Z","category":"Food","type":"expense","currency":"USD"}]`))
	store.SetJSON(legacy.KeyExpenseCategories, []string{"Food"})
	store.SetJSON(legacy.KeySelectedCurrency, "EUR")

	if migrated := Run(ctx, repo, store, testLogger()); !migrated {
		t.Fatal("expected migration to run")
	}

	txs, _ := repo.ListTransactions(ctx)
	if len(txs) != 1 || txs[0].Title != "Coffee" || txs[0].Amount != 4.5 {
		t.Fatalf("migrated transactions: %+v", txs)
	}
	cats, _ := repo.ListCategories(ctx, core.Expense)
	if len(cats) != 1 || cats[0].Name != "Food" || cats[0].Order != 0 {
		t.Fatalf("migrated categories: %+v", cats)
	}

	if store.Has(legacy.KeyTransactions) || store.Has(legacy.KeyExpenseCategories) {
		t.Fatal("migrated blobs must be cleared")
	}
	if !store.Has(legacy.KeySelectedCurrency) {
		t.Fatal("currency preference must be preserved")
	}
}

func TestRunDefaultsMissingLegacyFields(t *testing.T) {
	repo := testRepo(t)
	store := testLegacy(t)
	ctx := context.Background()

	// Oldest schema: no originalAmount, no currency.
	store.Set(legacy.KeyTransactions, []byte(
		`[{"id":"6f1c4ae2-9be1-4f35-8c2a-6f0f1f6d3e02","title":"Bus","amount":2.75,"date":"2023-06-01T00:00:00Z","category":"Transportation","type":"expense"}]`))

	Run(ctx, repo, store, testLogger())

	txs, _ := repo.ListTransactions(ctx)
	if len(txs) != 1 {
		t.Fatalf("expected 1 migrated transaction, got %d", len(txs))
	}
	if txs[0].OriginalAmount != txs[0].Amount {
		t.Fatalf("originalAmount should default to amount: %+v", txs[0])
	}
	if txs[0].Currency != "USD" {
		t.Fatalf("currency should default to USD: %+v", txs[0])
	}
}

func TestRunSkipsWhenDatabasePopulated(t *testing.T) {
	repo := testRepo(t)
	store := testLegacy(t)
	ctx := context.Background()

	existing := core.NewTransaction("Existing", 1,
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "Other", core.Expense, "USD")
	repo.InsertTransaction(ctx, existing)
	store.SetJSON(legacy.KeyExpenseCategories, []string{"Food"})

	if migrated := Run(ctx, repo, store, testLogger()); migrated {
		t.Fatal("migration must be a no-op on a populated database")
	}
	if !store.Has(legacy.KeyExpenseCategories) {
		t.Fatal("legacy blobs must be left untouched when skipping")
	}
	if n, _ := repo.CountTransactions(ctx); n != 1 {
		t.Fatalf("expected untouched database, got %d transactions", n)
	}
}

func TestRunSkipsWhenOnlyCategoriesExist(t *testing.T) {
	repo := testRepo(t)
	store := testLegacy(t)
	ctx := context.Background()

	repo.InsertCategory(ctx, core.Category{Name: "Rent", Type: core.Expense, Order: 0})
	store.SetJSON(legacy.KeyTransactions, []any{})

	if migrated := Run(ctx, repo, store, testLogger()); migrated {
		t.Fatal("any existing record blocks migration")
	}
}

func TestRunTreatsUndecodableBlobAsAbsent(t *testing.T) {
	repo := testRepo(t)
	store := testLegacy(t)
	ctx := context.Background()

	store.Set(legacy.KeyTransactions, []byte(`{definitely not json`))
	store.SetJSON(legacy.KeyIncomeCategories, []string{"Salary"})

	if migrated := Run(ctx, repo, store, testLogger()); !migrated {
		t.Fatal("migration should still run")
	}
	if n, _ := repo.CountTransactions(ctx); n != 0 {
		t.Fatal("bad transactions blob means no transactions migrated")
	}
	cats, _ := repo.ListCategories(ctx, core.Income)
	if len(cats) != 1 {
		t.Fatal("the decodable sub-migration should still happen")
	}
	if store.Has(legacy.KeyTransactions) {
		t.Fatal("blobs are cleared even when undecodable")
	}
}

func TestFixTransactionTypes(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	expense := []string{"Transportation", "Both"}
	income := []string{"Salary", "Both"}

	salaryAsExpense := core.NewTransaction("Pay", 1000,
		time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), "Salary", core.Expense, "USD")
	busAsIncome := core.NewTransaction("Bus", 3,
		time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC), "Transportation", core.Income, "USD")
	orphan := core.NewTransaction("Mystery", 5,
		time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC), "Unknown", core.Income, "USD")
	ambiguous := core.NewTransaction("Either", 7,
		time.Date(2024, 2, 4, 0, 0, 0, 0, time.UTC), "Both", core.Income, "USD")

	for _, tx := range []core.Transaction{salaryAsExpense, busAsIncome, orphan, ambiguous} {
		if err := repo.InsertTransaction(ctx, tx); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	// A record with a bogus type value and a category in no partition.
	bogus := core.NewTransaction("Bogus", 9,
		time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC), "Unknown", "spending", "USD")
	if err := repo.InsertTransaction(ctx, bogus); err != nil {
		t.Fatalf("insert: %v", err)
	}

	fixed := FixTransactionTypes(ctx, repo, expense, income, testLogger())
	if fixed != 3 {
		t.Fatalf("expected 3 corrections, got %d", fixed)
	}

	byID := map[string]core.Transaction{}
	txs, _ := repo.ListTransactions(ctx)
	for _, tx := range txs {
		byID[tx.ID.String()] = tx
	}

	if byID[salaryAsExpense.ID.String()].Type != core.Income {
		t.Fatal("Salary expense should be corrected to income")
	}
	if byID[busAsIncome.ID.String()].Type != core.Expense {
		t.Fatal("Transportation income should be corrected to expense")
	}
	if byID[orphan.ID.String()].Type != core.Income {
		t.Fatal("valid type with unregistered category must be left alone")
	}
	if byID[ambiguous.ID.String()].Type != core.Income {
		t.Fatal("category in both partitions must be left alone")
	}
	if byID[bogus.ID.String()].Type != core.Expense {
		t.Fatal("invalid type defaults to expense")
	}
}
