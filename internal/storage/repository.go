package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"pennykeep/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is the backing database for transactions and categories.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const dateLayout = time.RFC3339

// InsertTransaction writes one record.
func (r *SQLiteRepository) InsertTransaction(ctx context.Context, tx core.Transaction) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (id, title, amount, original_amount, date, category, type, currency)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID.String(), tx.Title, tx.Amount, tx.OriginalAmount,
		tx.Date.UTC().Format(dateLayout), tx.Category, string(tx.Type), tx.Currency)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", tx.ID,
		"title", tx.Title,
		"amount", tx.Amount,
		"type", tx.Type)
	return nil
}

// UpdateTransaction replaces the stored record with the same ID.
func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, tx core.Transaction) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions
		 SET title = ?, amount = ?, original_amount = ?, date = ?, category = ?, type = ?, currency = ?
		 WHERE id = ?`,
		tx.Title, tx.Amount, tx.OriginalAmount, tx.Date.UTC().Format(dateLayout),
		tx.Category, string(tx.Type), tx.Currency, tx.ID.String())
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update transaction: no row with id %s", tx.ID)
	}
	return nil
}

// DeleteTransaction removes one record by identity.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id.String()); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return nil
}

// ListTransactions returns every record ordered by date descending.
func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, amount, original_amount, date, category, type, currency
		 FROM transactions ORDER BY date DESC`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var (
			tx       core.Transaction
			id, date string
			typ      string
		)
		if err := rows.Scan(&id, &tx.Title, &tx.Amount, &tx.OriginalAmount, &date, &tx.Category, &typ, &tx.Currency); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		parsedID, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("parse transaction id %q: %w", id, err)
		}
		parsedDate, err := time.Parse(dateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("parse transaction date %q: %w", date, err)
		}
		tx.ID = parsedID
		tx.Date = parsedDate
		tx.Type = core.TransactionType(typ)
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return out, nil
}

// CountTransactions returns the number of stored records.
func (r *SQLiteRepository) CountTransactions(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

// CategoryRow pairs a category with its database row id so the registry can
// delete or reorder specific rows (duplicate names can share a partition).
type CategoryRow struct {
	RowID int64
	core.Category
}

// InsertCategory appends one category row.
func (r *SQLiteRepository) InsertCategory(ctx context.Context, c core.Category) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (name, type, position) VALUES (?, ?, ?)`,
		c.Name, string(c.Type), c.Order)
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

// ListCategories returns one partition sorted by position.
func (r *SQLiteRepository) ListCategories(ctx context.Context, typ core.TransactionType) ([]CategoryRow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, type, position FROM categories WHERE type = ? ORDER BY position ASC, id ASC`,
		string(typ))
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []CategoryRow
	for rows.Next() {
		var (
			row CategoryRow
			t   string
		)
		if err := rows.Scan(&row.RowID, &row.Name, &t, &row.Order); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		row.Type = core.TransactionType(t)
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return out, nil
}

// DeleteCategoryRow removes a single row by its database id.
func (r *SQLiteRepository) DeleteCategoryRow(ctx context.Context, rowID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, rowID); err != nil {
		return fmt.Errorf("delete category row: %w", err)
	}
	return nil
}

// UpdateCategoryPosition rewrites one row's position.
func (r *SQLiteRepository) UpdateCategoryPosition(ctx context.Context, rowID int64, position int) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE categories SET position = ? WHERE id = ?`, position, rowID); err != nil {
		return fmt.Errorf("update category position: %w", err)
	}
	return nil
}

// CountCategories returns the number of category rows across both partitions.
func (r *SQLiteRepository) CountCategories(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count categories: %w", err)
	}
	return n, nil
}
