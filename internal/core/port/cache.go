package port

import "github.com/guillermoBallester/sqlgate/internal/core/domain"

// SQLCache maps query descriptions to previously generated SQL.
// Implementations must be safe for concurrent use.
type SQLCache interface {
	Put(description, sql string) domain.CachedEntry
	Get(description string) (domain.CachedEntry, bool)
	List() []domain.CachedEntry
	Clear() int
	Len() int
}
