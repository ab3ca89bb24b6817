package port

import "context"

// AuditEntry represents a single executed gateway call.
type AuditEntry struct {
	RequestID    string
	Tool         string
	SQL          string
	PagedSQL     string
	Page         int
	PageSize     int
	RowsReturned int
	Total        int64
	CountFailed  bool
	DurationMS   int64
	Err          error
}

// QueryAuditor records query audit events.
type QueryAuditor interface {
	Record(ctx context.Context, entry AuditEntry)
	Close() error
}

// NoopAuditor discards all audit entries.
type NoopAuditor struct{}

func (NoopAuditor) Record(context.Context, AuditEntry) {}
func (NoopAuditor) Close() error                       { return nil }
