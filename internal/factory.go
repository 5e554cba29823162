package internal

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/helios/config"
	"github.com/vadiminshakov/helios/internal/clients"
)

const pingTimeout = 5 * time.Second

type noopCloser struct{}

func (noopCloser) Close() error { return nil }

// NewAccountFetcher creates the backend client selected in the configuration.
// This is the single point of truth for dispatching to backend-specific implementations.
func NewAccountFetcher(conf config.BackendConfig, logger *zap.Logger) (clients.AccountFetcher, io.Closer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch conf.Type {
	case config.BackendSupabase:
		c, err := clients.NewSupabaseClient(conf.SupabaseURL, conf.SupabaseKey, conf.UserID, logger)
		if err != nil {
			return nil, nil, errors.Wrap(err, "failed to create supabase client")
		}
		return c, noopCloser{}, nil
	case config.BackendPostgres:
		c, err := clients.NewPostgresClient(conf.PostgresDSN, conf.UserID)
		if err != nil {
			return nil, nil, errors.Wrap(err, "failed to create postgres client")
		}
		ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
		defer cancel()
		if err := c.Ping(ctx); err != nil {
			// scheduled syncs keep retrying
			logger.Warn("postgres is unreachable at startup", zap.Error(err))
		}
		return c, c, nil
	case config.BackendStatic, "":
		return clients.NewStaticClient(conf.StaticAccount), noopCloser{}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported backend type: %s", conf.Type)
	}
}
