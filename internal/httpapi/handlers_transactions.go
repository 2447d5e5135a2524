package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"pennykeep/internal/core"
	"pennykeep/internal/log"
	"pennykeep/internal/report"
)

// transactionPayload is the wire shape of a record. Amount is the converted
// value in the display currency; originalAmount and currency are the entry
// as typed.
type transactionPayload struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Amount         float64   `json:"amount"`
	OriginalAmount float64   `json:"originalAmount"`
	Date           time.Time `json:"date"`
	Category       string    `json:"category"`
	Type           string    `json:"type"`
	Currency       string    `json:"currency"`
}

func toPayload(tx core.Transaction) transactionPayload {
	return transactionPayload{
		ID:             tx.ID.String(),
		Title:          tx.Title,
		Amount:         tx.Amount,
		OriginalAmount: tx.OriginalAmount,
		Date:           tx.Date,
		Category:       tx.Category,
		Type:           string(tx.Type),
		Currency:       tx.Currency,
	}
}

func toPayloads(txs []core.Transaction) []transactionPayload {
	out := make([]transactionPayload, 0, len(txs))
	for _, tx := range txs {
		out = append(out, toPayload(tx))
	}
	return out
}

// handleListTransactions returns the collection newest first, optionally
// narrowed to one day (?date=YYYY-MM-DD) or one month (?year=&month=).
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txs := s.transactions.Transactions()

	if v := strings.TrimSpace(r.URL.Query().Get("date")); v != "" {
		day, err := time.Parse(dayLayout, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
			return
		}
		txs = report.FilterByDay(txs, day)
	} else if r.URL.Query().Has("year") || r.URL.Query().Has("month") {
		year, month, err := parseYearMonth(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		txs = report.FilterByMonth(txs, time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC))
	}

	writeJSON(w, http.StatusOK, toPayloads(report.RecentFirst(txs)))
}

type createTransactionRequest struct {
	Title    string    `json:"title"`
	Amount   float64   `json:"amount"`
	Date     time.Time `json:"date"`
	Category string    `json:"category"`
	Type     string    `json:"type"`
	Currency string    `json:"currency"`
}

// handleCreateTransaction stores a new record. The amount arrives in the
// request's currency; when that differs from the display currency the stored
// Amount is converted with the rates for the record's date. Conversion
// happens once, here.
func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	display := s.settings.SelectedCurrency()
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = display
	}
	date := req.Date
	if date.IsZero() {
		date = time.Now()
	}

	tx := core.NewTransaction(
		sanitizeInput(req.Title),
		req.Amount,
		date,
		sanitizeInput(req.Category),
		core.TransactionType(req.Type),
		currency,
	)
	if err := tx.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if currency != display && s.rates != nil {
		tx.Amount = s.rates.Convert(r.Context(), tx.OriginalAmount, currency, display, date)
	}

	s.transactions.Add(r.Context(), tx)
	s.logger.InfoContext(r.Context(), "Transaction created",
		log.FieldTxID, tx.ID,
		log.FieldTitle, tx.Title,
		log.FieldTxType, tx.Type,
		log.FieldAmount, tx.Amount,
		log.FieldCurrency, tx.Currency)
	writeJSON(w, http.StatusCreated, toPayload(tx))
}

// handleUpdateTransaction overwrites the stored record with the same ID.
// Amounts are taken as sent; edits do not re-run conversion.
func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}

	var req transactionPayload
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !s.hasTransaction(id) {
		writeError(w, http.StatusNotFound, "transaction not found")
		return
	}

	tx := core.Transaction{
		ID:             id,
		Title:          sanitizeInput(req.Title),
		Amount:         req.Amount,
		OriginalAmount: req.OriginalAmount,
		Date:           req.Date,
		Category:       sanitizeInput(req.Category),
		Type:           core.TransactionType(req.Type),
		Currency:       strings.ToUpper(strings.TrimSpace(req.Currency)),
	}
	if tx.OriginalAmount == 0 {
		tx.OriginalAmount = tx.Amount
	}
	if err := tx.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.transactions.Update(r.Context(), tx)
	writeJSON(w, http.StatusOK, toPayload(tx))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}

	if !s.hasTransaction(id) {
		writeError(w, http.StatusNotFound, "transaction not found")
		return
	}

	s.transactions.Delete(r.Context(), core.Transaction{ID: id})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) hasTransaction(id uuid.UUID) bool {
	for _, tx := range s.transactions.Transactions() {
		if tx.ID == id {
			return true
		}
	}
	return false
}
