package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/guillermoBallester/sqlgate/internal/core/domain"
	"github.com/guillermoBallester/sqlgate/internal/core/port"
)

// mysqlErrQueryInterrupted is raised when max_execution_time fires.
const mysqlErrQueryInterrupted = 3024

var _ port.QueryExecutor = (*Executor)(nil)

// Executor runs statements in read-only transactions on a *sql.DB.
type Executor struct {
	db           *sql.DB
	queryTimeout time.Duration
}

func NewExecutor(db *sql.DB, queryTimeout time.Duration) *Executor {
	return &Executor{db: db, queryTimeout: queryTimeout}
}

func (e *Executor) RunCount(ctx context.Context, query string) (int64, error) {
	var n int64
	err := e.readOnly(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx, query).Scan(&n); err != nil {
			return fmt.Errorf("executing count query: %w", err)
		}
		return nil
	})
	return n, err
}

func (e *Executor) RunPage(ctx context.Context, query string) ([]domain.Row, error) {
	var out []domain.Row
	err := e.readOnly(ctx, func(ctx context.Context, tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, query)
		if err != nil {
			return fmt.Errorf("executing query: %w", err)
		}
		defer rows.Close()

		out, err = scanRows(rows)
		return err
	})
	return out, err
}

func (e *Executor) readOnly(ctx context.Context, fn func(context.Context, *sql.Tx) error) error {
	if e.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.queryTimeout)
		defer cancel()
	}

	tx, err := e.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(ctx, tx); err != nil {
		return classify(err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func scanRows(rows *sql.Rows) ([]domain.Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns: %w", err)
	}

	var result []domain.Row
	for rows.Next() {
		vals := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		result = append(result, domain.NewRow(columns, vals))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return result, nil
}

func classify(err error) error {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlErrQueryInterrupted {
		return fmt.Errorf("%w: %w", domain.ErrQueryTimeout, err)
	}
	return err
}
