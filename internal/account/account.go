// Package account exposes the linked cloud account's sign-in state. The
// credentials themselves are written by the platform sign-in flow into the
// preferences store; this package only reads an availability status for
// display.
package account

import (
	"pennykeep/internal/legacy"
	"pennykeep/internal/log"
)

// Status describes the linked account as shown in settings.
type Status struct {
	SignedIn       bool   `json:"signedIn"`
	UserIdentifier string `json:"userIdentifier,omitempty"`
	Email          string `json:"email,omitempty"`
}

type Manager struct {
	store  *legacy.Store
	logger *log.Logger
}

func NewManager(store *legacy.Store, logger *log.Logger) *Manager {
	return &Manager{
		store:  store,
		logger: logger.WithComponent(log.ComponentAccount),
	}
}

// Status reads the saved credentials. A present user identifier means the
// account is linked; everything else is optional decoration.
func (m *Manager) Status() Status {
	id := m.store.GetString(legacy.KeyUserIdentifier, "")
	if id == "" {
		return Status{}
	}
	return Status{
		SignedIn:       true,
		UserIdentifier: id,
		Email:          m.store.GetString(legacy.KeyUserEmail, ""),
	}
}

// Unlink clears the saved credentials.
func (m *Manager) Unlink() {
	for _, key := range []string{legacy.KeyUserIdentifier, legacy.KeyUserEmail} {
		if err := m.store.Delete(key); err != nil {
			m.logger.Error("Failed to clear account credential",
				"key", key, log.FieldError, err)
		}
	}
}
