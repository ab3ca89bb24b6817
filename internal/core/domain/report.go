package domain

import (
	"fmt"
	"strings"
)

// QueryResult is one executed page.
type QueryResult struct {
	Rows       []Row
	Columns    []string
	TotalCount int64
	ElapsedMS  int64
}

// NewQueryResult fills Columns from rows.
func NewQueryResult(rows []Row, total, elapsedMS int64) QueryResult {
	return QueryResult{
		Rows:       rows,
		Columns:    Columns(rows),
		TotalCount: total,
		ElapsedMS:  elapsedMS,
	}
}

// Report is the uniform outcome of a gateway call.
type Report struct {
	RequestID  string      `json:"request_id,omitempty"`
	Success    bool        `json:"success"`
	SQL        string      `json:"sql"`
	PagedSQL   string      `json:"paged_sql,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
	ElapsedMS  int64       `json:"elapsed_ms"`
	Body       string      `json:"body"`
	Table      *Table      `json:"table,omitempty"`
	Error      string      `json:"error,omitempty"`
	Hints      []string    `json:"hints,omitempty"`
}

// RenderSuccess formats an executed page.
func RenderSuccess(res QueryResult, sql string, page PageRequest) *Report {
	p := NewPagination(page, res.TotalCount)

	var sb strings.Builder
	sb.WriteString("Query executed successfully.\n\n")
	sb.WriteString("Summary:\n")
	fmt.Fprintf(&sb, "- Page: %d\n", p.Current)
	fmt.Fprintf(&sb, "- Page size: %d\n", p.PageSize)
	fmt.Fprintf(&sb, "- Rows on this page: %d\n", len(res.Rows))
	fmt.Fprintf(&sb, "- Total rows: %d\n", p.Total)
	fmt.Fprintf(&sb, "- Total pages: %d\n", p.TotalPages)
	fmt.Fprintf(&sb, "- Elapsed: %dms\n\n", res.ElapsedMS)
	sb.WriteString("Base SQL (without pagination):\n```sql\n")
	sb.WriteString(sql)
	sb.WriteString("\n```\n\n")

	if len(res.Rows) == 0 {
		sb.WriteString("Results: no data on this page\n")
	} else {
		sb.WriteString("Results:\n")
		sb.WriteString(FormatTable(res.Rows))
	}

	if p.HasPrev || p.HasNext {
		sb.WriteString("\nNavigation:\n")
		if p.HasPrev {
			fmt.Fprintf(&sb, "- Previous page: page=%d\n", p.Current-1)
		}
		if p.HasNext {
			fmt.Fprintf(&sb, "- Next page: page=%d\n", p.Current+1)
		}
	}

	return &Report{
		Success:    true,
		SQL:        sql,
		Pagination: &p,
		ElapsedMS:  res.ElapsedMS,
		Body:       sb.String(),
		Table:      BuildTable(res.Rows),
	}
}

// RenderError formats an execution failure. sql is the statement as the
// caller submitted it, before any rewriting.
func RenderError(sql, message string, extra ...string) *Report {
	hints := append(Checklist(), extra...)

	var sb strings.Builder
	sb.WriteString("Query execution failed.\n\n")
	sb.WriteString("SQL:\n```sql\n")
	sb.WriteString(sql)
	sb.WriteString("\n```\n\n")
	fmt.Fprintf(&sb, "Error: %s\n\n", message)
	sb.WriteString("Please check:\n")
	for _, h := range hints {
		fmt.Fprintf(&sb, "- %s\n", h)
	}

	return &Report{
		Success: false,
		SQL:     sql,
		Body:    sb.String(),
		Error:   message,
		Hints:   hints,
	}
}

// PolicyMessage is returned verbatim for every rejected query.
const PolicyMessage = "Security restriction: only SELECT queries may be executed; " +
	"INSERT, UPDATE, DELETE and other modifying statements are not supported."

// RenderRejected formats a safety-policy rejection.
func RenderRejected(sql string, err error) *Report {
	reason := ErrRejected.Error()
	if err != nil {
		reason = err.Error()
	}
	return &Report{
		Success: false,
		SQL:     sql,
		Body:    PolicyMessage,
		Error:   reason,
	}
}
