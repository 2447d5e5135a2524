package httpapi

import (
	"net/http"
	"strings"

	"pennykeep/internal/log"
)

type currencyPayload struct {
	Currency string `json:"currency"`
}

func (s *Server) handleGetCurrency(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, currencyPayload{Currency: s.settings.SelectedCurrency()})
}

// handleSetCurrency persists a new display currency. Stored records keep the
// amounts they were converted to at entry time.
func (s *Server) handleSetCurrency(w http.ResponseWriter, r *http.Request) {
	var req currencyPayload
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	code := strings.ToUpper(strings.TrimSpace(req.Currency))
	if len(code) != 3 {
		writeError(w, http.StatusUnprocessableEntity, "currency must be a 3-letter code")
		return
	}

	s.settings.SetSelectedCurrency(code)
	s.logger.InfoContext(r.Context(), "Display currency changed", log.FieldCurrency, code)
	writeJSON(w, http.StatusOK, currencyPayload{Currency: code})
}

type parseReceiptRequest struct {
	Text string `json:"text"`
}

// handleParseReceipt structures recognized receipt text into a transaction
// draft. Without configured model credentials the endpoint is unavailable.
func (s *Server) handleParseReceipt(w http.ResponseWriter, r *http.Request) {
	if s.receipts == nil {
		writeError(w, http.StatusServiceUnavailable, "receipt parsing is not configured")
		return
	}

	var req parseReceiptRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusUnprocessableEntity, "text must not be empty")
		return
	}

	writeJSON(w, http.StatusOK, s.receipts.Parse(r.Context(), req.Text))
}

func (s *Server) handleAccountStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.account.Status())
}
