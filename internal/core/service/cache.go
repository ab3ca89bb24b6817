package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/guillermoBallester/sqlgate/internal/core/domain"
)

const (
	cacheTimeLayout = time.DateTime
	sqlSummaryRunes = 50

	msgCacheEmpty = "No cached SQL statements."
)

// CacheLookup is the outcome of a description lookup.
type CacheLookup struct {
	Description string
	Entry       domain.CachedEntry
	Found       bool
}

// CachedSQL looks up the SQL previously executed under description.
func (g *Gateway) CachedSQL(ctx context.Context, description string) (CacheLookup, error) {
	if strings.TrimSpace(description) == "" {
		return CacheLookup{}, domain.ErrDescriptionNeeded
	}

	entry, ok := g.cache.Get(description)
	g.inst.RecordCacheLookup(ctx, ok)
	g.logger.DebugContext(ctx, "cache lookup",
		slog.String("cache.key", domain.NormalizeKey(description)),
		slog.Bool("cache.hit", ok),
	)
	return CacheLookup{Description: description, Entry: entry, Found: ok}, nil
}

// ClearCache empties the cache and returns the number of entries removed.
func (g *Gateway) ClearCache(ctx context.Context) int {
	n := g.cache.Clear()
	g.logger.InfoContext(ctx, "sql cache cleared", slog.Int("cache.removed", n))
	return n
}

// ListCache returns a snapshot of the cache.
func (g *Gateway) ListCache() []domain.CachedEntry {
	return g.cache.List()
}

// Text renders the lookup for a tool response.
func (l CacheLookup) Text() string {
	var sb strings.Builder
	if !l.Found {
		sb.WriteString("No cached SQL found.\n\n")
		fmt.Fprintf(&sb, "Description: %s\n\n", l.Description)
		sb.WriteString("Suggestions:\n")
		sb.WriteString("1. Generate a new SQL statement for this request\n")
		sb.WriteString("2. Pass an accurate description to execute_query so the SQL is cached\n")
		sb.WriteString("3. Use get_database_tables and get_database_structure to look up the schema")
		return sb.String()
	}

	sb.WriteString("Found cached SQL:\n\n")
	fmt.Fprintf(&sb, "Description: %s\n", l.Entry.Description)
	fmt.Fprintf(&sb, "Cached at: %s\n\n", l.Entry.CachedAt.Format(cacheTimeLayout))
	sb.WriteString("SQL:\n```sql\n")
	sb.WriteString(l.Entry.SQL)
	sb.WriteString("\n```\n\n")
	sb.WriteString("Run it with execute_query as is, or adjust it first.")
	return sb.String()
}

// ClearedText is the confirmation returned by clear_sql_cache.
func ClearedText(n int) string {
	return fmt.Sprintf("SQL cache cleared, %d entries removed", n)
}

// CacheListText enumerates entries with a shortened SQL summary.
func CacheListText(entries []domain.CachedEntry) string {
	if len(entries) == 0 {
		return msgCacheEmpty
	}

	var sb strings.Builder
	sb.WriteString("Cached SQL statements:\n\n")
	for i, e := range entries {
		fmt.Fprintf(&sb, "%d. Description: %s\n", i+1, e.Description)
		fmt.Fprintf(&sb, "   Cached at: %s\n", e.CachedAt.Format(cacheTimeLayout))
		fmt.Fprintf(&sb, "   SQL: %s\n\n", summarize(e.SQL))
	}
	fmt.Fprintf(&sb, "%d cached entries", len(entries))
	return sb.String()
}

func summarize(sql string) string {
	if utf8.RuneCountInString(sql) <= sqlSummaryRunes {
		return sql
	}
	return string([]rune(sql)[:sqlSummaryRunes]) + "..."
}
