package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/guillermoBallester/sqlgate/internal/adapter/postgres"
	"github.com/guillermoBallester/sqlgate/internal/adapter/reference"
	"github.com/guillermoBallester/sqlgate/internal/cache"
	"github.com/guillermoBallester/sqlgate/internal/core/domain"
	"github.com/guillermoBallester/sqlgate/internal/core/port"
	"github.com/guillermoBallester/sqlgate/internal/core/service"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const e2eSchema = `
	CREATE TABLE categories (
		id   SERIAL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE
	);

	CREATE TABLE products (
		id          SERIAL PRIMARY KEY,
		category_id INTEGER NOT NULL REFERENCES categories(id),
		name        TEXT NOT NULL,
		status      TEXT NOT NULL,
		price       NUMERIC(10,2) NOT NULL DEFAULT 0
	);

	INSERT INTO categories (name) VALUES ('Electronics'), ('Books'), ('Clothing');

	INSERT INTO products (category_id, name, status, price)
	SELECT
		(i % 3) + 1,
		'Product ' || i,
		CASE (i % 5) WHEN 0 THEN 'inactive' ELSE 'active' END,
		(i * 1.25)::numeric(10,2)
	FROM generate_series(1, 25) AS i;
`

// setupE2E starts a Postgres testcontainer, applies the schema, and returns
// a fully wired MCP server backed by real adapters.
func setupE2E(t *testing.T) *server.MCPServer {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping E2E test in short mode")
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

	pool, err := postgres.NewPool(ctx, connStr, postgres.PoolOptions{})
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	_, err = pool.Exec(ctx, e2eSchema)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	gateway := service.NewGateway(service.GatewayDeps{
		Validator: domain.ChainValidator{domain.NewKeywordValidator(), domain.NewPgQueryValidator()},
		Executor:  postgres.NewExecutor(pool, 10*time.Second),
		Cache:     cache.NewMemoryCache(),
		Auditor:   port.NoopAuditor{},
		Logger:    logger,
		Hints:     domain.MustHintMatcher(domain.DefaultHintRules),
		Dialect:   domain.DialectLimitOffset,
		DBSystem:  "postgresql",
	})
	ref := service.NewReferenceService(reference.NewProvider(&reference.Document{
		Context: reference.ContextConfig{Tables: map[string]reference.TableContext{
			"products": {Description: "Product catalog"},
		}},
	}), logger)

	s := server.NewMCPServer("test-e2e", "0.0.1", server.WithToolCapabilities(true))
	RegisterTools(s, gateway, ref, logger)
	return s
}

func TestE2E_MCPTools(t *testing.T) {
	s := setupE2E(t)

	t.Run("execute_query/first_page", func(t *testing.T) {
		result := callTool(t, s, "execute_query", map[string]any{
			"sql":    "SELECT p.id, p.name, c.name AS category FROM products p JOIN categories c ON c.id = p.category_id",
			"format": "json",
		})
		require.False(t, result.IsError, "unexpected error: %s", toolText(result))

		var report domain.Report
		require.NoError(t, json.Unmarshal([]byte(toolText(result)), &report))
		require.True(t, report.Success, report.Body)
		assert.Equal(t, domain.Pagination{Current: 1, PageSize: 10, Total: 25, TotalPages: 3, HasPrev: false, HasNext: true}, *report.Pagination)
		require.Len(t, report.Table.DataSource, 10)
		assert.Contains(t, report.Table.DataSource[0], "category")
		assert.Contains(t, report.PagedSQL, "LIMIT 10 OFFSET 0")
	})

	t.Run("execute_query/group_by_total", func(t *testing.T) {
		result := callTool(t, s, "execute_query", map[string]any{
			"sql":       "SELECT status, COUNT(*) AS n FROM products GROUP BY status ORDER BY status",
			"page_size": 1,
			"format":    "json",
		})
		var report domain.Report
		require.NoError(t, json.Unmarshal([]byte(toolText(result)), &report))
		require.True(t, report.Success, report.Body)
		assert.Equal(t, int64(2), report.Pagination.Total)
		assert.Equal(t, int64(2), report.Pagination.TotalPages)
	})

	t.Run("execute_query/numeric_text", func(t *testing.T) {
		result := callTool(t, s, "execute_query", map[string]any{
			"sql": "SELECT id, price FROM products WHERE id = 4",
		})
		text := toolText(result)
		assert.Contains(t, text, "5.00")
		assert.Contains(t, text, "- Total rows: 1")
	})

	t.Run("execute_query/rejects_insert", func(t *testing.T) {
		result := callTool(t, s, "execute_query", map[string]any{
			"sql": "INSERT INTO categories (name) VALUES ('test')",
		})
		assert.False(t, result.IsError)
		assert.Equal(t, domain.PolicyMessage, toolText(result))
	})

	t.Run("execute_query/strict_parse_rejects_multi_statement", func(t *testing.T) {
		result := callTool(t, s, "execute_query", map[string]any{
			"sql":    "SELECT 1; SELECT 2",
			"format": "json",
		})
		var report domain.Report
		require.NoError(t, json.Unmarshal([]byte(toolText(result)), &report))
		assert.False(t, report.Success)
		assert.Contains(t, report.Error, "multiple statements")
	})

	t.Run("execute_query/missing_table", func(t *testing.T) {
		result := callTool(t, s, "execute_query", map[string]any{
			"sql": "SELECT id FROM nonexistent_table",
		})
		text := toolText(result)
		assert.Contains(t, text, "Query execution failed.")
		assert.Contains(t, text, "nonexistent_table")
		assert.Contains(t, text, "The referenced table does not exist")
	})

	t.Run("get_database_tables", func(t *testing.T) {
		result := callTool(t, s, "get_database_tables", nil)
		assert.Equal(t, "Tables:\n- products: Product catalog\n", toolText(result))
	})
}
