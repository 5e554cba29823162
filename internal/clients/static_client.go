package clients

import (
	"context"

	"github.com/vadiminshakov/helios/internal/domain"
)

// StaticClient serves a fixed account from configuration (demo mode).
type StaticClient struct {
	account domain.Account
}

// NewStaticClient creates a static backend.
func NewStaticClient(acct domain.Account) *StaticClient {
	return &StaticClient{account: acct}
}

// Name returns the backend name.
func (c *StaticClient) Name() string {
	return BackendStatic
}

// FetchAccount returns the configured account.
func (c *StaticClient) FetchAccount(ctx context.Context) (domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return domain.Account{}, err
	}
	return c.account, nil
}
