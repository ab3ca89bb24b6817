// Package dryrun provides a QueryExecutor that never reaches a database.
package dryrun

import (
	"context"
	"log/slog"

	"github.com/guillermoBallester/sqlgate/internal/core/domain"
	"github.com/guillermoBallester/sqlgate/internal/core/port"
)

var _ port.QueryExecutor = (*Executor)(nil)

// Executor logs each rewritten statement and reports an empty result.
type Executor struct {
	logger *slog.Logger
}

func NewExecutor(logger *slog.Logger) *Executor {
	return &Executor{logger: logger}
}

func (e *Executor) RunCount(ctx context.Context, sql string) (int64, error) {
	e.logger.InfoContext(ctx, "dry run: count not executed", slog.String("db.statement", sql))
	return 0, nil
}

func (e *Executor) RunPage(ctx context.Context, sql string) ([]domain.Row, error) {
	e.logger.InfoContext(ctx, "dry run: page not executed", slog.String("db.statement", sql))
	return nil, nil
}
