package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/guillermoBallester/sqlgate/internal/core/domain"
	"github.com/guillermoBallester/sqlgate/internal/core/port"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// sqlStateQueryCanceled is raised when statement_timeout fires.
const sqlStateQueryCanceled = "57014"

var _ port.QueryExecutor = (*Executor)(nil)

// Executor runs statements inside read-only transactions on a pgx pool.
type Executor struct {
	pool         *pgxpool.Pool
	queryTimeout time.Duration
}

func NewExecutor(pool *pgxpool.Pool, queryTimeout time.Duration) *Executor {
	return &Executor{
		pool:         pool,
		queryTimeout: queryTimeout,
	}
}

func (e *Executor) RunCount(ctx context.Context, sql string) (int64, error) {
	var n int64
	err := e.readOnly(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, sql).Scan(&n); err != nil {
			return fmt.Errorf("executing count query: %w", err)
		}
		return nil
	})
	return n, err
}

func (e *Executor) RunPage(ctx context.Context, sql string) ([]domain.Row, error) {
	var out []domain.Row
	err := e.readOnly(ctx, func(ctx context.Context, tx pgx.Tx) error {
		rows, err := tx.Query(ctx, sql)
		if err != nil {
			return fmt.Errorf("executing query: %w", err)
		}
		defer rows.Close()

		out, err = collectRows(rows)
		return err
	})
	return out, err
}

func (e *Executor) readOnly(ctx context.Context, fn func(context.Context, pgx.Tx) error) error {
	ctx, cancel := context.WithTimeout(ctx, e.queryTimeout)
	defer cancel()

	tx, err := e.pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Enforce statement timeout at the database level so PostgreSQL cancels
	// the query server-side even if the Go context is cancelled first.
	// SET LOCAL scopes to this transaction only.
	timeoutMS := e.queryTimeout.Milliseconds()
	if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL statement_timeout = '%d'", timeoutMS)); err != nil {
		return fmt.Errorf("setting statement timeout: %w", err)
	}

	if err := fn(ctx, tx); err != nil {
		return classify(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// classify marks server-side statement cancellation as a timeout.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == sqlStateQueryCanceled {
		return fmt.Errorf("%w: %w", domain.ErrQueryTimeout, err)
	}
	return err
}
