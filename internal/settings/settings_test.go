package settings

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"pennykeep/internal/legacy"
	"pennykeep/internal/log"
)

func newSettings(t *testing.T) (*AppSettings, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prefs.json")
	store, err := legacy.Open(path)
	if err != nil {
		t.Fatalf("open legacy store: %v", err)
	}
	logger := log.New(log.Config{Component: "test", Handler: slog.NewTextHandler(io.Discard, nil)})
	return New(store, logger), path
}

func TestSelectedCurrencyDefaultsToUSD(t *testing.T) {
	s, _ := newSettings(t)
	if got := s.SelectedCurrency(); got != "USD" {
		t.Fatalf("expected USD default, got %s", got)
	}
}

func TestSelectedCurrencyRoundTrip(t *testing.T) {
	s, path := newSettings(t)
	s.SetSelectedCurrency("JPY")
	if got := s.SelectedCurrency(); got != "JPY" {
		t.Fatalf("expected JPY, got %s", got)
	}

	// Survives reopening the file.
	store, err := legacy.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if got := store.GetString(legacy.KeySelectedCurrency, "USD"); got != "JPY" {
		t.Fatalf("expected persisted JPY, got %s", got)
	}
}

func TestTempCurrencyIndependentOfSelected(t *testing.T) {
	s, _ := newSettings(t)
	s.SetSelectedCurrency("EUR")
	s.SetTempCurrency("GBP")
	if s.SelectedCurrency() != "EUR" || s.TempCurrency() != "GBP" {
		t.Fatalf("got %s / %s", s.SelectedCurrency(), s.TempCurrency())
	}
}
