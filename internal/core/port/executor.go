package port

import (
	"context"

	"github.com/guillermoBallester/sqlgate/internal/core/domain"
)

// QueryExecutor runs already validated and rewritten statements.
type QueryExecutor interface {
	// RunCount executes a count query and returns its single scalar.
	RunCount(ctx context.Context, sql string) (int64, error)
	// RunPage executes a paged query and returns its rows in driver column order.
	RunPage(ctx context.Context, sql string) ([]domain.Row, error)
}
