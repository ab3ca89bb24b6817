package mcp

import (
	"context"
	"errors"
	"log/slog"

	"github.com/go-sql-driver/mysql"
	"github.com/guillermoBallester/sqlgate/internal/core/domain"
	"github.com/jackc/pgx/v5/pgconn"
)

const msgTimeout = "query timed out; narrow the query (for example with a date range) and try again"

// sanitizeError turns an error into a message safe to return to the client.
// Validation errors pass through; everything else is logged and replaced.
func sanitizeError(logger *slog.Logger, err error, op string) string {
	if errors.Is(err, domain.ErrRejected) || errors.Is(err, domain.ErrDescriptionNeeded) {
		return err.Error()
	}

	if isTimeout(err) {
		return msgTimeout
	}

	logger.Error("tool failed",
		slog.String("operation", op),
		slog.String("error.message", err.Error()),
	)
	return "internal error while " + op + "; check server logs"
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, domain.ErrQueryTimeout) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "57014" {
		return true
	}
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == 3024
}
