package domain

import (
	"strings"
	"time"
)

// CachedEntry associates a query description with the SQL generated for it.
// Entries are replaced wholesale, never mutated.
type CachedEntry struct {
	Key         string    `json:"key"`
	Description string    `json:"description"`
	SQL         string    `json:"sql"`
	CachedAt    time.Time `json:"cached_at"`
}

// NormalizeKey folds a description into its cache key: lower-cased, stripped of
// everything except ASCII letters, digits, CJK ideographs (U+4E00-U+9FA5) and
// ASCII whitespace, with whitespace runs collapsed to a single space. Wider
// Unicode spaces such as U+3000 count as punctuation and are dropped.
func NormalizeKey(description string) string {
	lowered := strings.ToLower(strings.TrimFunc(description, isKeySpace))

	var b strings.Builder
	b.Grow(len(lowered))
	space := false
	for _, r := range lowered {
		switch {
		case isKeySpace(r):
			space = true
			continue
		case keepKeyRune(r):
		default:
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}

// isKeySpace matches the ASCII whitespace set: space, \t, \n, \v, \f and \r.
func isKeySpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

func keepKeyRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r >= 0x4E00 && r <= 0x9FA5:
		return true
	}
	return false
}
