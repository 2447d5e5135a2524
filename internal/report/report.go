// Package report computes the rollups behind the chart and summary views.
// Every function is a pure transformation over a snapshot of transactions;
// callers pass whatever slice the record store currently holds.
package report

import (
	"sort"
	"time"

	"pennykeep/internal/core"
)

// MonthTotal is the income/expense rollup for one calendar month.
type MonthTotal struct {
	Year    int
	Month   time.Month
	Income  float64
	Expense float64
}

// CategoryTotal is the rollup for one category name as it appears in the
// data. Names that are not registered in any partition still get an entry.
type CategoryTotal struct {
	Expense float64
	Income  float64
}

// MonthlyTotals returns exactly monthsBack entries, oldest month first,
// ending at ref's calendar month. Months with no transactions appear with
// zero sums. Grouping compares year and month only.
func MonthlyTotals(txs []core.Transaction, monthsBack int, ref time.Time) []MonthTotal {
	if monthsBack <= 0 {
		return nil
	}
	// Step from the first of ref's month: AddDate on a day-of-month past the
	// target month's end rolls over into the next month (Jan 31 minus two
	// months is Nov 31, which normalizes to Dec 1).
	first := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
	out := make([]MonthTotal, 0, monthsBack)
	for offset := monthsBack - 1; offset >= 0; offset-- {
		m := first.AddDate(0, -offset, 0)
		total := MonthTotal{Year: m.Year(), Month: m.Month()}
		for _, tx := range txs {
			if !core.SameMonth(tx.Date, m) {
				continue
			}
			switch tx.Type {
			case core.Income:
				total.Income += tx.Amount
			case core.Expense:
				total.Expense += tx.Amount
			}
		}
		out = append(out, total)
	}
	return out
}

// CategoryTotals groups by the distinct category strings present in txs.
// Presentation order is the caller's concern; the map is unordered.
func CategoryTotals(txs []core.Transaction) map[string]CategoryTotal {
	out := make(map[string]CategoryTotal)
	for _, tx := range txs {
		total := out[tx.Category]
		switch tx.Type {
		case core.Income:
			total.Income += tx.Amount
		case core.Expense:
			total.Expense += tx.Amount
		}
		out[tx.Category] = total
	}
	return out
}

// AmountSaved returns income minus expense per category.
func AmountSaved(txs []core.Transaction) map[string]float64 {
	out := make(map[string]float64)
	for name, total := range CategoryTotals(txs) {
		out[name] = total.Income - total.Expense
	}
	return out
}

// MonthlySavings returns income minus expense for each of the monthsBack
// months ending at ref, oldest first.
func MonthlySavings(txs []core.Transaction, monthsBack int, ref time.Time) []float64 {
	totals := MonthlyTotals(txs, monthsBack, ref)
	out := make([]float64, len(totals))
	for i, t := range totals {
		out[i] = t.Income - t.Expense
	}
	return out
}

// FilterByDay returns the transactions falling on day's calendar date.
func FilterByDay(txs []core.Transaction, day time.Time) []core.Transaction {
	var out []core.Transaction
	for _, tx := range txs {
		if core.SameDay(tx.Date, day) {
			out = append(out, tx)
		}
	}
	return out
}

// FilterByMonth returns the transactions falling in month's calendar month.
func FilterByMonth(txs []core.Transaction, month time.Time) []core.Transaction {
	var out []core.Transaction
	for _, tx := range txs {
		if core.SameMonth(tx.Date, month) {
			out = append(out, tx)
		}
	}
	return out
}

// RecentFirst returns a copy of txs sorted newest first, for the recent
// transactions listing.
func RecentFirst(txs []core.Transaction) []core.Transaction {
	out := append([]core.Transaction(nil), txs...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out
}
