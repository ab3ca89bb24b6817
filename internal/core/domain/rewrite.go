package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// Dialect selects how a page window is written into SQL.
type Dialect int

const (
	// DialectOffsetComma renders "LIMIT <offset>, <size>" (MySQL, SQLite).
	DialectOffsetComma Dialect = iota
	// DialectLimitOffset renders "LIMIT <size> OFFSET <offset>" (PostgreSQL).
	DialectLimitOffset
)

func (d Dialect) String() string {
	if d == DialectLimitOffset {
		return "limit-offset"
	}
	return "offset-comma"
}

var (
	// Non-greedy and without (?s): the span never crosses a newline, and the
	// first FROM wins even when it belongs to a sub-select.
	selectFromRe = regexp.MustCompile(`(?i)SELECT.*?FROM`)
	limitRe      = regexp.MustCompile(`(?i)LIMIT\s+\d+(?:\s*,\s*\d+)?(?:\s+OFFSET\s+\d+)?`)
)

// Normalize trims surrounding whitespace and any run of trailing semicolons.
func Normalize(sql string) string {
	s := strings.TrimSpace(sql)
	for strings.HasSuffix(s, ";") {
		s = strings.TrimSpace(strings.TrimSuffix(s, ";"))
	}
	return s
}

// BuildCountQuery derives a query returning the total number of rows sql
// would produce. Grouped queries are wrapped in a sub-select; everything else
// has its first SELECT ... FROM projection replaced by COUNT(*).
func BuildCountQuery(sql string) string {
	if strings.Contains(strings.ToUpper(sql), "GROUP BY") {
		return fmt.Sprintf("SELECT COUNT(*) FROM (%s) AS count_table", sql)
	}

	replaced := false
	return selectFromRe.ReplaceAllStringFunc(sql, func(m string) string {
		if replaced {
			return m
		}
		replaced = true
		return "SELECT COUNT(*) FROM"
	})
}

// BuildPageQuery limits sql to the window described by page. The first
// existing LIMIT clause is replaced; otherwise one is appended. A trailing
// OFFSET n belongs to the matched clause and is replaced with it, so a
// LIMIT-OFFSET query never ends up with two OFFSETs.
func BuildPageQuery(sql string, page PageRequest, dialect Dialect) string {
	clause := limitClause(page.Offset(), page.Size, dialect)

	if loc := limitRe.FindStringIndex(sql); loc != nil {
		return sql[:loc[0]] + clause + sql[loc[1]:]
	}
	return sql + " " + clause
}

func limitClause(offset, size int, dialect Dialect) string {
	if dialect == DialectLimitOffset {
		return fmt.Sprintf("LIMIT %d OFFSET %d", size, offset)
	}
	return fmt.Sprintf("LIMIT %d, %d", offset, size)
}
