package clients

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/vadiminshakov/helios/internal/domain"
)

const accountQuery = `SELECT balance, available_balance, total_deposits, total_withdrawals, currency, status
FROM accounts WHERE user_id = $1 LIMIT 1`

// PostgresClient reads the account row directly from the Supabase Postgres database.
type PostgresClient struct {
	db     *sql.DB
	userID string
}

// NewPostgresClient opens a connection pool for dsn.
func NewPostgresClient(dsn, userID string) (*PostgresClient, error) {
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}
	if userID == "" {
		return nil, errors.New("postgres user id is required")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open postgres")
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &PostgresClient{db: db, userID: userID}, nil
}

// Name returns the backend name.
func (c *PostgresClient) Name() string {
	return BackendPostgres
}

// FetchAccount loads the account row of the configured user.
func (c *PostgresClient) FetchAccount(ctx context.Context) (domain.Account, error) {
	var (
		row      accountRow
		currency sql.NullString
		status   sql.NullString
	)

	err := c.db.QueryRowContext(ctx, accountQuery, c.userID).Scan(
		&row.Balance,
		&row.AvailableBalance,
		&row.TotalDeposits,
		&row.TotalWithdrawals,
		&currency,
		&status,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Account{}, errors.Wrapf(ErrAccountNotFound, "user %s", c.userID)
	}
	if err != nil {
		return domain.Account{}, errors.Wrap(err, "query postgres account")
	}

	row.Currency = currency.String
	row.Status = status.String
	return row.toDomain(), nil
}

// Ping checks connectivity.
func (c *PostgresClient) Ping(ctx context.Context) error {
	return errors.Wrap(c.db.PingContext(ctx), "ping postgres")
}

// Close closes the connection pool.
func (c *PostgresClient) Close() error {
	return c.db.Close()
}
