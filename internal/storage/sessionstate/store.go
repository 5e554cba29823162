// Package sessionstate persists onboarding progress and processed payment IDs
// so restarts neither re-lock widgets nor re-apply funding events.
package sessionstate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const (
	defaultStateDir = "./wal/session"
	defaultScope    = "default"
)

// Store keeps session state for one user in a JSON file.
type Store struct {
	path string
}

// NewStore creates a state store for the user under dir.
func NewStore(dir, userID string) (*Store, error) {
	if dir == "" {
		dir = defaultStateDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create session state dir")
	}

	name := sanitizeScope(userID)
	if name == "" {
		name = defaultScope
	}

	return &Store{path: filepath.Join(dir, fmt.Sprintf("%s.json", name))}, nil
}

// Path returns the backing file.
func (s *Store) Path() string {
	return s.path
}

// State everything restored on startup.
type State struct {
	DocumentsCompleted bool     `json:"documents_completed"`
	PaymentIDs         []string `json:"payment_ids,omitempty"`
	// PendingCredits funding applied locally that the backend has not reported yet, oldest first.
	PendingCredits []Credit `json:"pending_credits,omitempty"`
	// BackendDeposits total deposits of the last backend snapshot; invalid before the first sync.
	BackendDeposits decimal.NullDecimal `json:"backend_deposits"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// Credit one locally applied payment.
type Credit struct {
	PaymentID string          `json:"payment_id"`
	Amount    decimal.Decimal `json:"amount"`
}

// Load reads state from disk. A missing or empty file yields nil state.
func (s *Store) Load() (*State, error) {
	if s == nil || s.path == "" {
		return nil, nil
	}

	payload, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}

		return nil, errors.Wrap(err, "read session state")
	}

	if len(payload) == 0 {
		return nil, nil
	}

	var state State
	if err := json.Unmarshal(payload, &state); err != nil {
		return nil, errors.Wrap(err, "decode session state")
	}

	return &state, nil
}

// Save writes state to disk atomically via temp file. Payment IDs are stored sorted.
func (s *Store) Save(state State) error {
	if s == nil || s.path == "" {
		return nil
	}

	ids := append([]string(nil), state.PaymentIDs...)
	sort.Strings(ids)
	state.PaymentIDs = ids

	payload, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode session state")
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o600); err != nil {
		return errors.Wrap(err, "write session state temp file")
	}

	if err := os.Rename(tmp, s.path); err != nil {
		return errors.Wrap(err, "persist session state")
	}

	return nil
}

func sanitizeScope(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return ""
	}

	var b strings.Builder

	prevUnderscore := false

	for _, r := range value {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)

			prevUnderscore = false

			continue
		}

		if !prevUnderscore {
			b.WriteByte('_')

			prevUnderscore = true
		}
	}

	return strings.Trim(b.String(), "_")
}
