package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/vadiminshakov/helios/internal/domain"
	"github.com/vadiminshakov/helios/pkg/retrier"
)

const (
	supabaseAccountsPath = "/rest/v1/accounts"
	supabaseSelect       = "balance,available_balance,total_deposits,total_withdrawals,currency,status"
	supabaseRatePerSec   = 5
	supabaseBurst        = 5
	supabaseHTTPTimeout  = 10 * time.Second
)

// ErrAccountNotFound is returned when the backend has no row for the user.
var ErrAccountNotFound = errors.New("account not found")

// SupabaseClient reads the account row through the Supabase PostgREST API.
type SupabaseClient struct {
	http    *http.Client
	baseURL string
	apiKey  string
	userID  string
	limiter *rate.Limiter
	retrier *retrier.Retrier
	logger  *zap.Logger
}

// SupabaseOption configures a SupabaseClient.
type SupabaseOption func(*SupabaseClient)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) SupabaseOption {
	return func(s *SupabaseClient) {
		s.http = c
	}
}

// WithRetrier overrides the retry policy.
func WithRetrier(r *retrier.Retrier) SupabaseOption {
	return func(s *SupabaseClient) {
		s.retrier = r
	}
}

// WithRateLimit overrides the request rate.
func WithRateLimit(perSec float64, burst int) SupabaseOption {
	return func(s *SupabaseClient) {
		s.limiter = rate.NewLimiter(rate.Limit(perSec), burst)
	}
}

// NewSupabaseClient creates a client for the project at baseURL.
func NewSupabaseClient(baseURL, apiKey, userID string, logger *zap.Logger, opts ...SupabaseOption) (*SupabaseClient, error) {
	if baseURL == "" {
		return nil, errors.New("supabase url is required")
	}
	if apiKey == "" {
		return nil, errors.New("supabase api key is required")
	}
	if userID == "" {
		return nil, errors.New("supabase user id is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &SupabaseClient{
		http:    &http.Client{Timeout: supabaseHTTPTimeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		userID:  userID,
		limiter: rate.NewLimiter(supabaseRatePerSec, supabaseBurst),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.retrier == nil {
		c.retrier = retrier.New(
			retrier.WithMaxRetries(3),
			retrier.WithInitialInterval(500*time.Millisecond),
			retrier.WithOnRetry(func(attempt int, err error) {
				c.logger.Warn("supabase request failed, retrying", zap.Int("attempt", attempt), zap.Error(err))
			}),
		)
	}

	return c, nil
}

// Name returns the backend name.
func (c *SupabaseClient) Name() string {
	return BackendSupabase
}

// FetchAccount loads the account row of the configured user.
func (c *SupabaseClient) FetchAccount(ctx context.Context) (domain.Account, error) {
	rows, err := retrier.DoWithData(c.retrier, ctx, func(ctx context.Context) ([]accountRow, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, retrier.Permanent(errors.Wrap(err, "rate limiter"))
		}
		return c.getAccountRows(ctx)
	})
	if err != nil {
		return domain.Account{}, errors.Wrap(err, "fetch supabase account")
	}
	if len(rows) == 0 {
		return domain.Account{}, errors.Wrapf(ErrAccountNotFound, "user %s", c.userID)
	}

	return rows[0].toDomain(), nil
}

func (c *SupabaseClient) getAccountRows(ctx context.Context) ([]accountRow, error) {
	q := url.Values{}
	q.Set("user_id", "eq."+c.userID)
	q.Set("select", supabaseSelect)
	endpoint := c.baseURL + supabaseAccountsPath + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, retrier.Permanent(errors.Wrap(err, "build request"))
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "request accounts")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, fmt.Errorf("supabase responded %d", resp.StatusCode)
	case resp.StatusCode >= 400:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, retrier.Permanent(fmt.Errorf("supabase client error %d: %s", resp.StatusCode, string(body)))
	}

	var rows []accountRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, retrier.Permanent(errors.Wrap(err, "decode accounts"))
	}
	return rows, nil
}
