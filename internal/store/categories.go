package store

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"pennykeep/internal/core"
	"pennykeep/internal/log"
	"pennykeep/internal/storage"
)

var (
	ErrEmptyCategoryName = errors.New("category name is empty")
	ErrDuplicateCategory = errors.New("category already exists")
)

// CategoryRegistry owns both ordered category partitions. Names are held as
// plain string lists the way pick lists consume them; the order column in
// storage is kept contiguous per partition after every mutation.
type CategoryRegistry struct {
	mu     sync.Mutex
	repo   *storage.SQLiteRepository
	logger *log.Logger

	expense []string
	income  []string
}

func NewCategoryRegistry(repo *storage.SQLiteRepository, logger *log.Logger) *CategoryRegistry {
	return &CategoryRegistry{
		repo:   repo,
		logger: logger.WithComponent(log.ComponentRegistry),
	}
}

// Load fetches both partitions sorted by order. Duplicate names are dropped
// from the in-memory lists, first occurrence wins; the rows stay in storage
// until CleanupDuplicates runs.
func (r *CategoryRegistry) Load(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reload(ctx)
}

func (r *CategoryRegistry) ExpenseCategories() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.expense...)
}

func (r *CategoryRegistry) IncomeCategories() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.income...)
}

// Names returns the partition for typ.
func (r *CategoryRegistry) Names(typ core.TransactionType) []string {
	if typ == core.Income {
		return r.IncomeCategories()
	}
	return r.ExpenseCategories()
}

// Contains reports whether name is registered in typ's partition
// (case-sensitive exact match).
func (r *CategoryRegistry) Contains(typ core.TransactionType, name string) bool {
	for _, n := range r.Names(typ) {
		if n == name {
			return true
		}
	}
	return false
}

// Add trims and appends a category to typ's partition with order equal to
// the current count. Empty-after-trim and exact duplicates are rejected.
func (r *CategoryRegistry) Add(ctx context.Context, name string, typ core.TransactionType) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return ErrEmptyCategoryName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current := r.partition(typ)
	for _, n := range current {
		if n == trimmed {
			r.logger.InfoContext(ctx, "Category already exists, ignoring add",
				log.FieldCategory, trimmed, log.FieldPartition, typ)
			return ErrDuplicateCategory
		}
	}

	c := core.Category{Name: trimmed, Type: typ, Order: len(current)}
	if err := r.repo.InsertCategory(ctx, c); err != nil {
		r.logger.ErrorContext(ctx, "Failed to save category",
			log.FieldOperation, log.OpAdd,
			log.FieldCategory, trimmed,
			log.FieldError, err)
		return err
	}
	r.reload(ctx)
	return nil
}

// Delete removes the rows at the given positions from typ's partition and
// renormalizes the survivors' order to 0..n-1.
func (r *CategoryRegistry) Delete(ctx context.Context, typ core.TransactionType, indices ...int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.repo.ListCategories(ctx, typ)
	if err != nil {
		return err
	}
	for _, i := range indices {
		if i < 0 || i >= len(rows) {
			continue
		}
		r.logger.InfoContext(ctx, "Deleting category",
			log.FieldOperation, log.OpDelete,
			log.FieldCategory, rows[i].Name,
			log.FieldPartition, typ)
		if err := r.repo.DeleteCategoryRow(ctx, rows[i].RowID); err != nil {
			r.logger.ErrorContext(ctx, "Failed to delete category",
				log.FieldCategory, rows[i].Name, log.FieldError, err)
		}
	}

	if err := r.renormalize(ctx, typ); err != nil {
		return err
	}
	r.reload(ctx)
	return nil
}

// Move reorders typ's partition: the rows at from are extracted (ascending
// order preserved) and reinserted before the row that was at position to,
// then orders are renormalized.
func (r *CategoryRegistry) Move(ctx context.Context, typ core.TransactionType, from []int, to int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.repo.ListCategories(ctx, typ)
	if err != nil {
		return err
	}

	sorted := append([]int(nil), from...)
	sort.Ints(sorted)

	moving := make(map[int]bool, len(sorted))
	var picked []storage.CategoryRow
	for _, i := range sorted {
		if i < 0 || i >= len(rows) || moving[i] {
			continue
		}
		moving[i] = true
		picked = append(picked, rows[i])
	}
	if len(picked) == 0 {
		return nil
	}

	var rest []storage.CategoryRow
	insertAt := to
	for i, row := range rows {
		if moving[i] {
			if i < to {
				insertAt--
			}
			continue
		}
		rest = append(rest, row)
	}
	if insertAt < 0 {
		insertAt = 0
	}
	if insertAt > len(rest) {
		insertAt = len(rest)
	}

	reordered := make([]storage.CategoryRow, 0, len(rows))
	reordered = append(reordered, rest[:insertAt]...)
	reordered = append(reordered, picked...)
	reordered = append(reordered, rest[insertAt:]...)

	for position, row := range reordered {
		if err := r.repo.UpdateCategoryPosition(ctx, row.RowID, position); err != nil {
			r.logger.ErrorContext(ctx, "Failed to reposition category",
				log.FieldCategory, row.Name, log.FieldError, err)
		}
	}
	r.reload(ctx)
	return nil
}

// CleanupDuplicates scans each partition in order sequence and deletes every
// row whose name was already seen. Repairs data corrupted by an earlier
// release; safe to run unconditionally at startup.
func (r *CategoryRegistry) CleanupDuplicates(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, typ := range []core.TransactionType{core.Expense, core.Income} {
		rows, err := r.repo.ListCategories(ctx, typ)
		if err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan partition for duplicates",
				log.FieldPartition, typ, log.FieldError, err)
			continue
		}
		seen := make(map[string]bool, len(rows))
		removed := 0
		for _, row := range rows {
			if seen[row.Name] {
				if err := r.repo.DeleteCategoryRow(ctx, row.RowID); err != nil {
					r.logger.ErrorContext(ctx, "Failed to delete duplicate category",
						log.FieldCategory, row.Name, log.FieldError, err)
					continue
				}
				removed++
				continue
			}
			seen[row.Name] = true
		}
		if removed > 0 {
			r.logger.InfoContext(ctx, "Removed duplicate categories",
				log.FieldPartition, typ, log.FieldCount, removed)
			if err := r.renormalize(ctx, typ); err != nil {
				r.logger.ErrorContext(ctx, "Failed to renormalize after cleanup",
					log.FieldPartition, typ, log.FieldError, err)
			}
		}
	}
	r.reload(ctx)
}

// SeedDefaults fills any completely empty partition with the fixed default
// list, order equal to the list position, and persists immediately.
func (r *CategoryRegistry) SeedDefaults(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	seed := func(typ core.TransactionType, defaults []string) {
		rows, err := r.repo.ListCategories(ctx, typ)
		if err != nil {
			r.logger.ErrorContext(ctx, "Failed to check partition before seeding",
				log.FieldPartition, typ, log.FieldError, err)
			return
		}
		if len(rows) > 0 {
			return
		}
		for order, name := range defaults {
			if err := r.repo.InsertCategory(ctx, core.Category{Name: name, Type: typ, Order: order}); err != nil {
				r.logger.ErrorContext(ctx, "Failed to seed default category",
					log.FieldCategory, name, log.FieldError, err)
			}
		}
		r.logger.InfoContext(ctx, "Seeded default categories",
			log.FieldPartition, typ, log.FieldCount, len(defaults))
	}

	seed(core.Expense, core.DefaultExpenseCategories)
	seed(core.Income, core.DefaultIncomeCategories)
	r.reload(ctx)
}

// renormalize rewrites positions to 0..n-1 in the current list order.
// Must be called with the lock held.
func (r *CategoryRegistry) renormalize(ctx context.Context, typ core.TransactionType) error {
	rows, err := r.repo.ListCategories(ctx, typ)
	if err != nil {
		return err
	}
	for position, row := range rows {
		if row.Order == position {
			continue
		}
		if err := r.repo.UpdateCategoryPosition(ctx, row.RowID, position); err != nil {
			return err
		}
	}
	return nil
}

// partition returns the in-memory list for typ. Must be called with the lock
// held.
func (r *CategoryRegistry) partition(typ core.TransactionType) []string {
	if typ == core.Income {
		return r.income
	}
	return r.expense
}

// reload must be called with the lock held.
func (r *CategoryRegistry) reload(ctx context.Context) {
	load := func(typ core.TransactionType) []string {
		rows, err := r.repo.ListCategories(ctx, typ)
		if err != nil {
			r.logger.ErrorContext(ctx, "Failed to load categories",
				log.FieldPartition, typ, log.FieldError, err)
			return nil
		}
		seen := make(map[string]bool, len(rows))
		names := make([]string, 0, len(rows))
		for _, row := range rows {
			if seen[row.Name] {
				continue
			}
			seen[row.Name] = true
			names = append(names, row.Name)
		}
		return names
	}
	r.expense = load(core.Expense)
	r.income = load(core.Income)
	r.logger.InfoContext(ctx, "Loaded categories",
		"expense_count", len(r.expense),
		"income_count", len(r.income))
}
