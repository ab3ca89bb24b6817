package mcp

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/guillermoBallester/sqlgate/internal/core/domain"
	"github.com/guillermoBallester/sqlgate/internal/core/service"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server metadata
const serverName = "sqlgate"

// Output formats accepted by execute_query.
const (
	formatText = "text"
	formatJSON = "json"
)

// Tool descriptions
const (
	descExecuteQuery = "Execute a read-only SELECT statement and return a formatted, paginated result. " +
		"Only statements starting with SELECT are accepted; statements mentioning INSERT, UPDATE, DELETE, " +
		"DROP, CREATE, ALTER, TRUNCATE, EXEC or DECLARE anywhere are refused. " +
		"Pagination is applied server-side: do not add your own LIMIT for paging, use page and page_size. " +
		"Pass description to cache the statement so it can be reused via get_cached_sql."

	descExecuteQuerySQL  = "SQL SELECT statement to execute"
	descExecuteQueryPage = "Page number, starting at 1 (default 1)"
	descExecuteQuerySize = "Rows per page (default 10, max 100)"
	descExecuteQueryDesc = "Natural-language description of the request, used as the cache key (optional)"
	descExecuteQueryFmt  = "Response format: text (default) or json for the structured report"

	descGetCachedSQL = "Look up the SQL previously executed for a natural-language description. " +
		"Call this before generating new SQL; descriptions are matched case-insensitively, " +
		"ignoring punctuation and repeated whitespace."

	descGetCachedSQLParam = "Natural-language description of the request"

	descClearCache = "Remove every cached description to SQL mapping and report how many were removed."

	descListCache = "List the cached descriptions with the time they were cached and a short SQL summary."

	descTables = "List the tables available for querying with a short description of each."

	descStructure = "Describe the columns of the available tables, including types, code formats and business meaning. " +
		"Read this before writing SQL."
)

func RegisterTools(s *server.MCPServer, gateway *service.Gateway, reference *service.ReferenceService, logger *slog.Logger) {
	s.AddTool(
		mcp.NewTool("execute_query",
			mcp.WithDescription(descExecuteQuery),
			mcp.WithString("sql",
				mcp.Required(),
				mcp.Description(descExecuteQuerySQL),
			),
			mcp.WithNumber("page",
				mcp.Description(descExecuteQueryPage),
			),
			mcp.WithNumber("page_size",
				mcp.Description(descExecuteQuerySize),
			),
			mcp.WithString("description",
				mcp.Description(descExecuteQueryDesc),
			),
			mcp.WithString("format",
				mcp.Description(descExecuteQueryFmt),
				mcp.Enum(formatText, formatJSON),
			),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		executeQueryHandler(gateway, logger),
	)

	s.AddTool(
		mcp.NewTool("get_cached_sql",
			mcp.WithDescription(descGetCachedSQL),
			mcp.WithString("description",
				mcp.Required(),
				mcp.Description(descGetCachedSQLParam),
			),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		getCachedSQLHandler(gateway, logger),
	)

	s.AddTool(
		mcp.NewTool("clear_sql_cache",
			mcp.WithDescription(descClearCache),
		),
		clearCacheHandler(gateway),
	)

	s.AddTool(
		mcp.NewTool("list_cached_sqls",
			mcp.WithDescription(descListCache),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		listCacheHandler(gateway),
	)

	s.AddTool(
		mcp.NewTool("get_database_tables",
			mcp.WithDescription(descTables),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText(reference.Tables(ctx)), nil
		},
	)

	s.AddTool(
		mcp.NewTool("get_database_structure",
			mcp.WithDescription(descStructure),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText(reference.Structure(ctx)), nil
		},
	)
}

func executeQueryHandler(gateway *service.Gateway, logger *slog.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sql, err := request.RequireString("sql")
		if err != nil || sql == "" {
			return mcp.NewToolResultError("sql is required"), nil
		}

		format := request.GetString("format", formatText)
		if format != formatText && format != formatJSON {
			return mcp.NewToolResultError("format must be text or json"), nil
		}

		ctx = service.WithToolName(ctx, "execute_query")
		report := gateway.Execute(ctx, service.ExecuteRequest{
			SQL:         sql,
			Page:        request.GetInt("page", domain.DefaultPage),
			PageSize:    request.GetInt("page_size", domain.DefaultPageSize),
			Description: request.GetString("description", ""),
		})

		if format == formatText {
			return mcp.NewToolResultText(report.Body), nil
		}

		data, err := json.Marshal(report)
		if err != nil {
			return mcp.NewToolResultError(sanitizeError(logger, err, "encoding report")), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}

func getCachedSQLHandler(gateway *service.Gateway, logger *slog.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		description := request.GetString("description", "")

		lookup, err := gateway.CachedSQL(ctx, description)
		if err != nil {
			return mcp.NewToolResultError(sanitizeError(logger, err, "looking up cache")), nil
		}
		return mcp.NewToolResultText(lookup.Text()), nil
	}
}

func clearCacheHandler(gateway *service.Gateway) server.ToolHandlerFunc {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText(service.ClearedText(gateway.ClearCache(ctx))), nil
	}
}

func listCacheHandler(gateway *service.Gateway) server.ToolHandlerFunc {
	return func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText(service.CacheListText(gateway.ListCache())), nil
	}
}
