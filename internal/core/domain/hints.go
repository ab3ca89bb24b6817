package domain

import (
	"fmt"
	"regexp"
)

// checklist is attached to every execution failure.
var checklist = []string{
	"Check that the table names exist (see get_database_tables)",
	"Check that the column names are spelled correctly (see get_database_structure)",
	"Check that date literals use the stored format (YYYYMMDD, YYYYMM or YYYY-MM-DD)",
	"Check the SQL syntax",
	"Check that the database user may read the referenced tables",
}

// Checklist returns a copy of the fixed diagnostic checklist.
func Checklist() []string {
	return append([]string(nil), checklist...)
}

// HintRule maps an error-message pattern to an extra hint.
type HintRule struct {
	Pattern string
	Hint    string
}

type compiledHint struct {
	pattern *regexp.Regexp
	hint    string
}

// HintMatcher adds error-specific hints after the fixed checklist.
type HintMatcher struct {
	rules []compiledHint
}

// DefaultHintRules covers the common MySQL, SQLite and PostgreSQL messages.
var DefaultHintRules = []HintRule{
	{Pattern: `(?i)(doesn't exist|no such table|relation .* does not exist)`, Hint: "The referenced table does not exist; verify the name against the reference document"},
	{Pattern: `(?i)(unknown column|no such column|column .* does not exist)`, Hint: "A referenced column does not exist; verify column names and table aliases"},
	{Pattern: `(?i)(syntax error|error in your sql syntax)`, Hint: "The statement could not be parsed; look for missing commas, quotes or parentheses"},
	{Pattern: `(?i)(access denied|permission denied|command denied)`, Hint: "The configured database user lacks read access to one of the tables"},
	{Pattern: `(?i)(timeout|deadline exceeded|canceling statement)`, Hint: "The query ran too long; add a narrower WHERE clause, for example a date range"},
}

// NewHintMatcher compiles rules. Returns an error on an invalid pattern.
func NewHintMatcher(rules []HintRule) (*HintMatcher, error) {
	compiled := make([]compiledHint, len(rules))
	for i, r := range rules {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid hint pattern %q: %w", r.Pattern, err)
		}
		compiled[i] = compiledHint{pattern: re, hint: r.Hint}
	}
	return &HintMatcher{rules: compiled}, nil
}

// MustHintMatcher is NewHintMatcher for rule sets known to compile.
func MustHintMatcher(rules []HintRule) *HintMatcher {
	m, err := NewHintMatcher(rules)
	if err != nil {
		panic(err)
	}
	return m
}

// Match returns the hints of every rule whose pattern matches msg, in rule order.
func (m *HintMatcher) Match(msg string) []string {
	if m == nil {
		return nil
	}
	var hints []string
	for _, r := range m.rules {
		if r.pattern.MatchString(msg) {
			hints = append(hints, r.hint)
		}
	}
	return hints
}
