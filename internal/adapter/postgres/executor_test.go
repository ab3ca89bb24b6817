package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/guillermoBallester/sqlgate/internal/adapter/postgres"
	"github.com/guillermoBallester/sqlgate/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCount(t *testing.T) {
	pool := setupTestDB(t)
	executor := postgres.NewExecutor(pool, 10*time.Second)
	ctx := context.Background()

	n, err := executor.RunCount(ctx, domain.BuildCountQuery("SELECT id, region FROM settlements"))
	require.NoError(t, err)
	assert.Equal(t, int64(25), n)

	n, err = executor.RunCount(ctx, domain.BuildCountQuery("SELECT region, SUM(amount) FROM settlements GROUP BY region"))
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestRunPage_LimitOffsetDialect(t *testing.T) {
	pool := setupTestDB(t)
	executor := postgres.NewExecutor(pool, 10*time.Second)
	ctx := context.Background()

	sql := domain.BuildPageQuery("SELECT id, ref, region, amount, settled_on, note FROM settlements ORDER BY id",
		domain.NewPageRequest(3, 10), domain.DialectLimitOffset)

	rows, err := executor.RunPage(ctx, sql)
	require.NoError(t, err)
	require.Len(t, rows, 5)

	first := rows[0]
	assert.Equal(t, []string{"id", "ref", "region", "amount", "settled_on", "note"}, first.Columns)
	assert.Equal(t, domain.IntValue(21), first.Get("id"))
	assert.Equal(t, domain.KindString, first.Get("ref").Kind)
	assert.Len(t, first.Get("ref").String(), 36, "uuid rendered in canonical form")
	assert.Equal(t, "220.50", first.Get("amount").String())
	assert.Equal(t, "2024-01-22", first.Get("settled_on").String())
	assert.True(t, first.Get("note").IsNull(), "every fourth note is NULL")
}

func TestRunPage_ReadOnly(t *testing.T) {
	pool := setupTestDB(t)
	executor := postgres.NewExecutor(pool, 10*time.Second)

	_, err := executor.RunPage(context.Background(), "WITH d AS (DELETE FROM settlements RETURNING id) SELECT id FROM d")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read-only")
}

func TestRunPage_StatementTimeout(t *testing.T) {
	pool := setupTestDB(t)
	executor := postgres.NewExecutor(pool, 1*time.Second)

	_, err := executor.RunPage(context.Background(), "SELECT pg_sleep(30)")
	require.Error(t, err)
	assert.True(t,
		errors.Is(err, domain.ErrQueryTimeout) || errors.Is(err, context.DeadlineExceeded),
		"expected timeout error, got: %s", err,
	)
}

func TestRunPage_SyntaxError(t *testing.T) {
	pool := setupTestDB(t)
	executor := postgres.NewExecutor(pool, 10*time.Second)

	_, err := executor.RunPage(context.Background(), "SELECT id FORM settlements")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrQueryTimeout)
	assert.Contains(t, err.Error(), "syntax error")
}
