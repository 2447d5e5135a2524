package httpapi

import (
	"net/http"
	"time"

	"pennykeep/internal/report"
)

type monthTotalPayload struct {
	Year    int     `json:"year"`
	Month   int     `json:"month"`
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
}

// handleMonthlyReport returns per-month income/expense totals for the last
// ?months= calendar months ending now, oldest first.
func (s *Server) handleMonthlyReport(w http.ResponseWriter, r *http.Request) {
	months := parseMonthsBack(r, s.reportMonths)
	totals := report.MonthlyTotals(s.transactions.Transactions(), months, time.Now())

	out := make([]monthTotalPayload, 0, len(totals))
	for _, t := range totals {
		out = append(out, monthTotalPayload{
			Year:    t.Year,
			Month:   int(t.Month),
			Income:  t.Income,
			Expense: t.Expense,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type categoryTotalPayload struct {
	Expense float64 `json:"expense"`
	Income  float64 `json:"income"`
	Saved   float64 `json:"saved"`
}

// handleCategoryReport returns per-category rollups, optionally narrowed to
// one month (?year=&month=). Category names come from the records themselves,
// so names no longer registered in any partition still appear.
func (s *Server) handleCategoryReport(w http.ResponseWriter, r *http.Request) {
	txs := s.transactions.Transactions()
	if r.URL.Query().Has("year") || r.URL.Query().Has("month") {
		year, month, err := parseYearMonth(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		txs = report.FilterByMonth(txs, time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC))
	}

	out := make(map[string]categoryTotalPayload)
	for name, total := range report.CategoryTotals(txs) {
		out[name] = categoryTotalPayload{
			Expense: total.Expense,
			Income:  total.Income,
			Saved:   total.Income - total.Expense,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

type savingsPayload struct {
	Monthly []float64 `json:"monthly"`
	Total   float64   `json:"total"`
}

// handleSavingsReport returns income minus expense per month, oldest first,
// plus the overall balance.
func (s *Server) handleSavingsReport(w http.ResponseWriter, r *http.Request) {
	months := parseMonthsBack(r, s.reportMonths)
	txs := s.transactions.Transactions()

	monthly := report.MonthlySavings(txs, months, time.Now())
	var total float64
	for _, saved := range report.AmountSaved(txs) {
		total += saved
	}
	writeJSON(w, http.StatusOK, savingsPayload{Monthly: monthly, Total: total})
}
