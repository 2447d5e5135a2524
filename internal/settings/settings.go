// Package settings reads and writes user preferences. The currency
// preference deliberately stays in the legacy flat store: it was never part
// of the record migration and other installs may still read it from there.
package settings

import (
	"pennykeep/internal/legacy"
	"pennykeep/internal/log"
)

// AppSettings holds the display-currency preference. Changing the selected
// currency affects formatting and future entries only; stored transaction
// amounts are never re-converted.
type AppSettings struct {
	store  *legacy.Store
	logger *log.Logger
}

func New(store *legacy.Store, logger *log.Logger) *AppSettings {
	return &AppSettings{
		store:  store,
		logger: logger.WithComponent(log.ComponentSettings),
	}
}

// SelectedCurrency returns the display currency code, defaulting to USD.
func (s *AppSettings) SelectedCurrency() string {
	return s.store.GetString(legacy.KeySelectedCurrency, "USD")
}

// SetSelectedCurrency persists the display currency.
func (s *AppSettings) SetSelectedCurrency(code string) {
	if err := s.store.SetJSON(legacy.KeySelectedCurrency, code); err != nil {
		s.logger.Error("Failed to save selected currency",
			log.FieldCurrency, code, log.FieldError, err)
	}
}

// TempCurrency is the entry-form currency scratch value, kept across app
// restarts like the original does.
func (s *AppSettings) TempCurrency() string {
	return s.store.GetString(legacy.KeyTempCurrency, "USD")
}

func (s *AppSettings) SetTempCurrency(code string) {
	if err := s.store.SetJSON(legacy.KeyTempCurrency, code); err != nil {
		s.logger.Error("Failed to save temp currency",
			log.FieldCurrency, code, log.FieldError, err)
	}
}
