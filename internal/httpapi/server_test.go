package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"pennykeep/internal/account"
	"pennykeep/internal/core"
	"pennykeep/internal/legacy"
	"pennykeep/internal/log"
	"pennykeep/internal/receipt"
	"pennykeep/internal/settings"
	"pennykeep/internal/storage"
	"pennykeep/internal/store"
)

func testLogger() *log.Logger {
	return log.New(log.Config{Component: "test", Handler: slog.NewTextHandler(io.Discard, nil)})
}

type fakeReceiptParser struct {
	draft receipt.Draft
}

func (f *fakeReceiptParser) Parse(ctx context.Context, recognizedText string) receipt.Draft {
	return f.draft
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()

	repo, err := storage.NewSQLiteRepository(filepath.Join(dir, "pennykeep.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	prefs, err := legacy.Open(filepath.Join(dir, "preferences.json"))
	if err != nil {
		t.Fatalf("legacy.Open() error = %v", err)
	}

	logger := testLogger()
	transactions := store.NewTransactionStore(repo, logger)
	transactions.Load(context.Background())
	categories := store.NewCategoryRegistry(repo, logger)
	categories.SeedDefaults(context.Background())

	s := NewServer(":0", Deps{
		Transactions: transactions,
		Categories:   categories,
		Settings:     settings.New(prefs, logger),
		Receipts:     &fakeReceiptParser{draft: receipt.Draft{Title: "Corner Cafe", Amount: "7.50", Date: time.Now()}},
		Account:      account.NewManager(prefs, logger),
		ReportMonths: 6,
	}, logger)
	t.Cleanup(func() { s.Shutdown(context.Background()) })
	return s
}

func doJSON(t *testing.T, s *Server, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doJSON(t, s, http.MethodGet, path, nil)
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s status = %d, want %d", path, rec.Code, http.StatusOK)
		}
	}
}

func TestCreateAndListTransactions(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/transactions", map[string]any{
		"title":    "Coffee",
		"amount":   4.20,
		"date":     time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC),
		"category": "Grocery",
		"type":     "expense",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /api/transactions status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	created := decodeBody[transactionPayload](t, rec)
	if created.ID == "" {
		t.Error("created transaction has empty id")
	}
	if created.Currency != "USD" {
		t.Errorf("created currency = %q, want USD default", created.Currency)
	}
	if created.Amount != 4.20 || created.OriginalAmount != 4.20 {
		t.Errorf("created amounts = (%v, %v), want (4.2, 4.2)", created.Amount, created.OriginalAmount)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/transactions", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/transactions status = %d, want %d", rec.Code, http.StatusOK)
	}
	listed := decodeBody[[]transactionPayload](t, rec)
	if len(listed) != 1 || listed[0].Title != "Coffee" {
		t.Fatalf("listed = %+v, want single Coffee record", listed)
	}
}

func TestCreateTransactionLogsAmount(t *testing.T) {
	s := newTestServer(t)
	var buf bytes.Buffer
	s.logger = log.New(log.Config{Handler: slog.NewTextHandler(&buf, nil)}).WithComponent(log.ComponentHTTP)

	rec := doJSON(t, s, http.MethodPost, "/api/transactions", map[string]any{
		"title":    "Coffee",
		"amount":   4.25,
		"date":     time.Now(),
		"category": "Other",
		"type":     "expense",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusCreated)
	}
	logged := buf.String()
	if !strings.Contains(logged, log.FieldAmount+"=4.25") {
		t.Errorf("create log missing amount field: %s", logged)
	}
	if !strings.Contains(logged, log.FieldCurrency+"=USD") {
		t.Errorf("create log missing currency field: %s", logged)
	}
}

func TestCreateTransactionValidation(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/transactions", map[string]any{
		"title":  "",
		"amount": 1.0,
		"type":   "expense",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("empty title status = %d, want %d", rec.Code, http.StatusUnprocessableEntity)
	}

	rec = doJSON(t, s, http.MethodPost, "/api/transactions", map[string]any{
		"title":  "Mystery",
		"amount": 1.0,
		"type":   "loan",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("invalid type status = %d, want %d", rec.Code, http.StatusUnprocessableEntity)
	}
}

func TestListTransactionsFilters(t *testing.T) {
	s := newTestServer(t)

	for _, tc := range []struct {
		title string
		date  time.Time
	}{
		{"June 10th", time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)},
		{"June 11th", time.Date(2025, 6, 11, 8, 0, 0, 0, time.UTC)},
		{"July", time.Date(2025, 7, 1, 8, 0, 0, 0, time.UTC)},
	} {
		rec := doJSON(t, s, http.MethodPost, "/api/transactions", map[string]any{
			"title":    tc.title,
			"amount":   1.0,
			"date":     tc.date,
			"category": "Other",
			"type":     "expense",
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("seed %s status = %d", tc.title, rec.Code)
		}
	}

	rec := doJSON(t, s, http.MethodGet, "/api/transactions?date=2025-06-10", nil)
	day := decodeBody[[]transactionPayload](t, rec)
	if len(day) != 1 || day[0].Title != "June 10th" {
		t.Errorf("date filter = %+v, want single June 10th record", day)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/transactions?year=2025&month=6", nil)
	month := decodeBody[[]transactionPayload](t, rec)
	if len(month) != 2 {
		t.Errorf("month filter returned %d records, want 2", len(month))
	}

	rec = doJSON(t, s, http.MethodGet, "/api/transactions?date=June", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed date status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	// Malformed year/month filters are rejected like a malformed date.
	for _, target := range []string{
		"/api/transactions?year=twenty",
		"/api/transactions?month=13",
		"/api/transactions?year=2025&month=June",
	} {
		rec = doJSON(t, s, http.MethodGet, target, nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("GET %s status = %d, want %d", target, rec.Code, http.StatusBadRequest)
		}
	}

	// An absent month still defaults to the current date on the other axis.
	rec = doJSON(t, s, http.MethodGet, "/api/transactions?year=2025", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("year-only filter status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestUpdateAndDeleteTransaction(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/transactions", map[string]any{
		"title":    "Lunch",
		"amount":   12.0,
		"date":     time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC),
		"category": "Other",
		"type":     "expense",
	})
	created := decodeBody[transactionPayload](t, rec)

	created.Title = "Team lunch"
	created.Amount = 15.0
	created.OriginalAmount = 15.0
	rec = doJSON(t, s, http.MethodPut, "/api/transactions/"+created.ID, created)
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	rec = doJSON(t, s, http.MethodGet, "/api/transactions", nil)
	listed := decodeBody[[]transactionPayload](t, rec)
	if len(listed) != 1 || listed[0].Title != "Team lunch" || listed[0].Amount != 15.0 {
		t.Fatalf("after update listed = %+v", listed)
	}

	rec = doJSON(t, s, http.MethodDelete, "/api/transactions/"+created.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("DELETE status = %d, want %d", rec.Code, http.StatusNoContent)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/transactions", nil)
	if listed := decodeBody[[]transactionPayload](t, rec); len(listed) != 0 {
		t.Errorf("after delete listed = %+v, want empty", listed)
	}
}

func TestTransactionNotFound(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodDelete, "/api/transactions/0b9caeb4-7559-4a55-8f4b-6a1a8cf5cf3b", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("DELETE unknown id status = %d, want %d", rec.Code, http.StatusNotFound)
	}

	rec = doJSON(t, s, http.MethodDelete, "/api/transactions/not-a-uuid", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("DELETE bad id status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestSettingsCurrency(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/api/settings/currency", nil)
	if got := decodeBody[currencyPayload](t, rec); got.Currency != core.DefaultCurrency {
		t.Errorf("default currency = %q, want %q", got.Currency, core.DefaultCurrency)
	}

	rec = doJSON(t, s, http.MethodPut, "/api/settings/currency", currencyPayload{Currency: "eur"})
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT currency status = %d: %s", rec.Code, rec.Body.String())
	}
	if got := decodeBody[currencyPayload](t, rec); got.Currency != "EUR" {
		t.Errorf("set currency = %q, want EUR", got.Currency)
	}

	rec = doJSON(t, s, http.MethodPut, "/api/settings/currency", currencyPayload{Currency: "euros"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("bad currency status = %d, want %d", rec.Code, http.StatusUnprocessableEntity)
	}
}

func TestParseReceipt(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/receipts/parse", parseReceiptRequest{Text: "CORNER CAFE\nTOTAL 7.50"})
	if rec.Code != http.StatusOK {
		t.Fatalf("parse status = %d: %s", rec.Code, rec.Body.String())
	}
	draft := decodeBody[receipt.Draft](t, rec)
	if draft.Title != "Corner Cafe" || draft.Amount != "7.50" {
		t.Errorf("draft = %+v", draft)
	}

	rec = doJSON(t, s, http.MethodPost, "/api/receipts/parse", parseReceiptRequest{Text: "  "})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("empty text status = %d, want %d", rec.Code, http.StatusUnprocessableEntity)
	}
}

func TestParseReceiptUnconfigured(t *testing.T) {
	s := newTestServer(t)
	s.receipts = nil

	rec := doJSON(t, s, http.MethodPost, "/api/receipts/parse", parseReceiptRequest{Text: "anything"})
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("unconfigured parse status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

func TestAccountStatus(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/api/account", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/account status = %d", rec.Code)
	}
	status := decodeBody[account.Status](t, rec)
	if status.SignedIn {
		t.Errorf("status = %+v, want signed out", status)
	}
}
