package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/guillermoBallester/sqlgate/internal/adapter/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const testSchema = `
	CREATE TABLE settlements (
		id          SERIAL PRIMARY KEY,
		ref         UUID NOT NULL DEFAULT gen_random_uuid(),
		region      TEXT NOT NULL,
		amount      NUMERIC(12,2) NOT NULL,
		settled_on  DATE NOT NULL,
		note        TEXT
	);

	INSERT INTO settlements (region, amount, settled_on, note)
	SELECT
		CASE (i % 3) WHEN 0 THEN '440100' WHEN 1 THEN '440300' ELSE '440600' END,
		(i * 10.5)::numeric(12,2),
		DATE '2024-01-01' + i,
		CASE WHEN i % 4 = 0 THEN NULL ELSE 'note ' || i END
	FROM generate_series(1, 25) AS i;
`

// setupTestDB starts a Postgres container seeded with 25 settlements.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := postgres.NewPool(ctx, connStr, postgres.PoolOptions{MaxConns: 4})
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	_, err = pool.Exec(ctx, testSchema)
	require.NoError(t, err)

	return pool
}
