// Package legacy is the flat key-to-blob store the app used before the
// structured database existed. It survives for two reasons: the one-time
// migration reads record blobs out of it, and the currency preference still
// lives in it.
package legacy

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Well-known keys.
const (
	KeyTransactions      = "transactions"
	KeyExpenseCategories = "expenseCategories"
	KeyIncomeCategories  = "incomeCategories"
	KeySelectedCurrency  = "selectedCurrency"
	KeyTempCurrency      = "tempCurrency"
	KeyUserIdentifier    = "appleSignInUserIdentifier"
	KeyUserEmail         = "appleSignInUserEmail"
)

// Store persists a string-keyed blob map as a single JSON file. Every
// mutation rewrites the file.
type Store struct {
	mu   sync.Mutex
	path string
	data map[string]json.RawMessage
}

func Open(path string) (*Store, error) {
	s := &Store{path: path, data: make(map[string]json.RawMessage)}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read legacy store: %w", err)
	}
	if len(raw) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(raw, &s.data); err != nil {
		return nil, fmt.Errorf("decode legacy store: %w", err)
	}
	return s, nil
}

// Get returns the raw blob for key, or nil if absent.
func (s *Store) Get(key string) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	if blob, ok := s.data[key]; ok {
		return append([]byte(nil), blob...)
	}
	return nil
}

// Has reports whether key is present.
func (s *Store) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.data[key]
	return ok
}

// Set stores the blob under key and persists.
func (s *Store) Set(key string, blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), blob...)
	return s.flush()
}

// SetJSON marshals v and stores it under key.
func (s *Store) SetJSON(key string, v any) error {
	blob, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(key, blob)
}

// GetString returns a string value stored under key, or fallback.
func (s *Store) GetString(key, fallback string) string {
	blob := s.Get(key)
	if blob == nil {
		return fallback
	}
	var v string
	if err := json.Unmarshal(blob, &v); err != nil {
		return fallback
	}
	return v
}

// Delete removes key and persists.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[key]; !ok {
		return nil
	}
	delete(s.data, key)
	return s.flush()
}

func (s *Store) flush() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode legacy store: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create legacy store directory: %w", err)
		}
	}
	if err := os.WriteFile(s.path, raw, 0644); err != nil {
		return fmt.Errorf("write legacy store: %w", err)
	}
	return nil
}
