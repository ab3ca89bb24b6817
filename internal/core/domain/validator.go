package domain

import (
	"errors"
	"fmt"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

var (
	// ErrRejected is wrapped by every safety-policy rejection.
	ErrRejected = errors.New("query rejected by safety policy")

	ErrEmptyQuery        = fmt.Errorf("%w: empty query", ErrRejected)
	ErrNotSelect         = fmt.Errorf("%w: only SELECT queries are allowed", ErrRejected)
	ErrForbiddenKeyword  = fmt.Errorf("%w: forbidden keyword", ErrRejected)
	ErrMultiStatement    = fmt.Errorf("%w: multiple statements are not allowed", ErrRejected)
	ErrParseFailed       = fmt.Errorf("%w: failed to parse SQL", ErrRejected)
	ErrDescriptionNeeded = errors.New("query description must not be empty")

	// ErrQueryTimeout is returned by executors when the database cancelled a
	// statement for running past its deadline.
	ErrQueryTimeout = errors.New("query timed out")
)

// forbiddenKeywords are matched as plain substrings of the upper-cased query.
// A column such as execution_date is rejected too.
var forbiddenKeywords = []string{
	"INSERT", "UPDATE", "DELETE", "DROP", "CREATE", "ALTER",
	"TRUNCATE", "EXEC", "EXECUTE", "DECLARE",
}

// KeywordValidator accepts queries that start with SELECT and contain none
// of the forbidden keywords anywhere in their text.
type KeywordValidator struct{}

func NewKeywordValidator() *KeywordValidator {
	return &KeywordValidator{}
}

// Check returns nil when raw may be executed.
func (v *KeywordValidator) Check(raw string) error {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ErrEmptyQuery
	}

	upper := strings.ToUpper(trimmed)
	if !strings.HasPrefix(upper, "SELECT") {
		return ErrNotSelect
	}

	for _, kw := range forbiddenKeywords {
		if strings.Contains(upper, kw) {
			return fmt.Errorf("%w %s", ErrForbiddenKeyword, kw)
		}
	}
	return nil
}

// PgQueryValidator validates SQL statements using PostgreSQL's actual parser.
// It only accepts a single SELECT statement and is meant to run after
// KeywordValidator, never instead of it.
type PgQueryValidator struct{}

func NewPgQueryValidator() *PgQueryValidator {
	return &PgQueryValidator{}
}

func (v *PgQueryValidator) Check(raw string) error {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ErrEmptyQuery
	}

	tree, err := pg_query.Parse(trimmed)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrParseFailed, err)
	}

	switch len(tree.Stmts) {
	case 0:
		return ErrEmptyQuery
	case 1:
	default:
		return ErrMultiStatement
	}

	stmt := tree.Stmts[0].Stmt
	if stmt == nil {
		return ErrEmptyQuery
	}
	if _, ok := stmt.Node.(*pg_query.Node_SelectStmt); !ok {
		return ErrNotSelect
	}
	return nil
}

// Checker is satisfied by every validator in this package.
type Checker interface {
	Check(raw string) error
}

// ChainValidator runs validators in order and stops at the first rejection.
type ChainValidator []Checker

func (c ChainValidator) Check(raw string) error {
	for _, v := range c {
		if err := v.Check(raw); err != nil {
			return err
		}
	}
	return nil
}
