package clients

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vadiminshakov/helios/internal/domain"
	"github.com/vadiminshakov/helios/pkg/retrier"
)

func fastRetrier() *retrier.Retrier {
	return retrier.New(retrier.WithMaxRetries(2), retrier.WithInitialInterval(time.Millisecond))
}

func TestSupabaseClient_FetchAccount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, supabaseAccountsPath, r.URL.Path)
		assert.Equal(t, "eq.user-1", r.URL.Query().Get("user_id"))
		assert.Equal(t, "secret", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"balance":2500.5,"available_balance":2000,"total_deposits":3000,"total_withdrawals":499.5,"currency":"EUR","status":"active"}]`))
	}))
	defer srv.Close()

	c, err := NewSupabaseClient(srv.URL+"/", "secret", "user-1", zap.NewNop(), WithRetrier(fastRetrier()))
	require.NoError(t, err)

	acct, err := c.FetchAccount(context.Background())
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("2500.5").Equal(acct.Balance))
	assert.True(t, decimal.RequireFromString("499.5").Equal(acct.TotalWithdrawals))
	assert.Equal(t, "EUR", acct.Currency)
	assert.Equal(t, domain.AccountStatusActive, acct.Status)
	assert.Equal(t, BackendSupabase, c.Name())
}

func TestSupabaseClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`[{"balance":10}]`))
	}))
	defer srv.Close()

	c, err := NewSupabaseClient(srv.URL, "k", "u", nil, WithRetrier(fastRetrier()))
	require.NoError(t, err)

	acct, err := c.FetchAccount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, domain.DefaultCurrency, acct.Currency)
	assert.Equal(t, 10.0, acct.BalanceFloat())
}

func TestSupabaseClient_ClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"message":"JWT expired"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c, err := NewSupabaseClient(srv.URL, "k", "u", nil, WithRetrier(fastRetrier()))
	require.NoError(t, err)

	_, err = c.FetchAccount(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Equal(t, int32(1), calls.Load())
}

func TestSupabaseClient_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c, err := NewSupabaseClient(srv.URL, "k", "u", nil, WithRetrier(fastRetrier()))
	require.NoError(t, err)

	_, err = c.FetchAccount(context.Background())
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestNewSupabaseClient_Validation(t *testing.T) {
	_, err := NewSupabaseClient("", "k", "u", nil)
	assert.Error(t, err)
	_, err = NewSupabaseClient("http://x", "", "u", nil)
	assert.Error(t, err)
	_, err = NewSupabaseClient("http://x", "k", "", nil)
	assert.Error(t, err)
}

func TestStaticClient(t *testing.T) {
	acct := domain.NewAccount(42, 42, 42, 0, "USD", domain.AccountStatusActive)
	c := NewStaticClient(acct)

	got, err := c.FetchAccount(context.Background())
	require.NoError(t, err)
	assert.True(t, acct.Equal(got))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.FetchAccount(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewPostgresClient_Validation(t *testing.T) {
	_, err := NewPostgresClient("", "u")
	assert.Error(t, err)
	_, err = NewPostgresClient("postgres://localhost/db?sslmode=disable", "")
	assert.Error(t, err)

	// sql.Open does not dial
	c, err := NewPostgresClient("postgres://localhost/db?sslmode=disable", "u")
	require.NoError(t, err)
	assert.Equal(t, BackendPostgres, c.Name())
	assert.NoError(t, c.Close())
}

func TestSupabaseClient_NullAndExactAmounts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"balance":"1234567.89","available_balance":null,"total_deposits":0.1,"total_withdrawals":null,"currency":"USD","status":"active"}]`))
	}))
	defer srv.Close()

	c, err := NewSupabaseClient(srv.URL, "k", "u", nil, WithRetrier(fastRetrier()))
	require.NoError(t, err)

	acct, err := c.FetchAccount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1234567.89", acct.Balance.String())
	assert.True(t, acct.AvailableBalance.IsZero())
	assert.Equal(t, "0.1", acct.TotalDeposits.String())
	assert.True(t, acct.TotalWithdrawals.IsZero())
}
