package sessionstate

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_LoadMissing(t *testing.T) {
	s, err := NewStore(t.TempDir(), "user-1")
	require.NoError(t, err)

	state, err := s.Load()
	require.NoError(t, err)
	assert.Nil(t, state)
}

func TestStore_SaveLoad(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir, "User@Example.com")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "user_example_com.json"), s.Path())

	ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, s.Save(State{DocumentsCompleted: true, PaymentIDs: []string{"pi_b", "pi_a"}, UpdatedAt: ts}))

	state, err := s.Load()
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.True(t, state.DocumentsCompleted)
	assert.Equal(t, []string{"pi_a", "pi_b"}, state.PaymentIDs)
	assert.True(t, ts.Equal(state.UpdatedAt))

	_, err = os.Stat(s.Path() + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestStore_Corrupted(t *testing.T) {
	s, err := NewStore(t.TempDir(), "")
	require.NoError(t, err)
	assert.Equal(t, "default.json", filepath.Base(s.Path()))

	require.NoError(t, os.WriteFile(s.Path(), []byte("{nope"), 0o600))
	_, err = s.Load()
	assert.Error(t, err)
}

func TestSanitizeScope(t *testing.T) {
	assert.Equal(t, "abc_123", sanitizeScope("  ABC--123 "))
	assert.Equal(t, "", sanitizeScope("***"))
}

func TestStore_PendingCredits(t *testing.T) {
	s, err := NewStore(t.TempDir(), "u1")
	require.NoError(t, err)

	require.NoError(t, s.Save(State{
		PaymentIDs:      []string{"pi_1"},
		PendingCredits:  []Credit{{PaymentID: "pi_1", Amount: decimal.RequireFromString("5000.25")}},
		BackendDeposits: decimal.NewNullDecimal(decimal.NewFromInt(100000)),
	}))

	state, err := s.Load()
	require.NoError(t, err)
	require.Len(t, state.PendingCredits, 1)
	assert.Equal(t, "pi_1", state.PendingCredits[0].PaymentID)
	assert.Equal(t, "5000.25", state.PendingCredits[0].Amount.String())
	require.True(t, state.BackendDeposits.Valid)
	assert.Equal(t, "100000", state.BackendDeposits.Decimal.String())

	require.NoError(t, s.Save(State{DocumentsCompleted: true}))
	state, err = s.Load()
	require.NoError(t, err)
	assert.False(t, state.BackendDeposits.Valid)
	assert.Empty(t, state.PendingCredits)
}
