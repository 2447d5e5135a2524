package core

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	Expense TransactionType = "expense"
	Income  TransactionType = "income"
)

type (
	TransactionType string

	// Transaction is a single income or expense record. Amount is the value
	// converted into the display currency at entry time; OriginalAmount is
	// the value as entered, in Currency. Amount is never re-converted after
	// the record is stored.
	Transaction struct {
		ID             uuid.UUID
		Title          string
		Amount         float64
		OriginalAmount float64
		Date           time.Time
		Category       string
		Type           TransactionType
		Currency       string
	}

	// Category is one entry of an ordered partition (expense or income).
	// Order is the 0-based display position within its partition.
	Category struct {
		Name  string
		Type  TransactionType
		Order int
	}
)

var (
	ErrInvalidType   = errors.New("invalid transaction type")
	ErrEmptyTitle    = errors.New("empty title")
	ErrZeroDate      = errors.New("date cannot be zero")
	ErrEmptyCurrency = errors.New("empty currency code")
)

// DefaultCurrency is used when a record carries no currency of its own.
const DefaultCurrency = "USD"

// DefaultExpenseCategories and DefaultIncomeCategories seed an empty
// partition on first run, in display order.
var (
	DefaultExpenseCategories = []string{"Transportation", "Grocery", "Entertainment", "Other"}
	DefaultIncomeCategories  = []string{"Salary", "Investments", "Gifts", "Other"}
)

func (t TransactionType) Valid() bool {
	return t == Expense || t == Income
}

// Other returns the opposite partition.
func (t TransactionType) Other() TransactionType {
	if t == Income {
		return Expense
	}
	return Income
}

// NewTransaction builds a transaction with a fresh ID. Amount defaults to
// originalAmount; callers that converted the value set Amount afterwards.
func NewTransaction(title string, originalAmount float64, date time.Time, category string, typ TransactionType, currency string) Transaction {
	return Transaction{
		ID:             uuid.New(),
		Title:          title,
		Amount:         originalAmount,
		OriginalAmount: originalAmount,
		Date:           date,
		Category:       category,
		Type:           typ,
		Currency:       currency,
	}
}

func (t Transaction) Validate() error {
	if len(strings.TrimSpace(t.Title)) == 0 {
		return ErrEmptyTitle
	}
	if t.Date.IsZero() {
		return ErrZeroDate
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if strings.TrimSpace(t.Currency) == "" {
		return ErrEmptyCurrency
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("empty category name")
	}
	if !c.Type.Valid() {
		return ErrInvalidType
	}
	return nil
}

// SameDay reports whether a and b fall on the same calendar day.
// Time-of-day is ignored everywhere grouping happens.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// SameMonth reports whether a and b fall in the same calendar month.
func SameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}
