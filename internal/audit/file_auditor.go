// Package audit persists one record per executed gateway query.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/guillermoBallester/sqlgate/internal/core/port"
)

// fileEntry is the NDJSON-serializable form of an audit record.
type fileEntry struct {
	Timestamp    string  `json:"ts"`
	RequestID    string  `json:"request_id"`
	Tool         string  `json:"tool,omitempty"`
	SQL          string  `json:"sql"`
	PagedSQL     string  `json:"paged_sql"`
	Page         int     `json:"page"`
	PageSize     int     `json:"page_size"`
	RowsReturned int     `json:"rows_returned"`
	Total        int64   `json:"total"`
	CountFailed  bool    `json:"count_failed,omitempty"`
	DurationMS   int64   `json:"duration_ms"`
	Error        *string `json:"error"`
}

var _ port.QueryAuditor = (*FileAuditor)(nil)

// FileAuditor writes audit entries as NDJSON (one JSON object per line) to a file.
type FileAuditor struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

// NewFileAuditor opens (or creates) the file at path for append-only writing.
func NewFileAuditor(path string) (*FileAuditor, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening audit log: %w", err)
	}
	return &FileAuditor{
		file: f,
		enc:  json.NewEncoder(f),
	}, nil
}

func (a *FileAuditor) Record(_ context.Context, entry port.AuditEntry) {
	fe := fileEntry{
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		RequestID:    entry.RequestID,
		Tool:         entry.Tool,
		SQL:          entry.SQL,
		PagedSQL:     entry.PagedSQL,
		Page:         entry.Page,
		PageSize:     entry.PageSize,
		RowsReturned: entry.RowsReturned,
		Total:        entry.Total,
		CountFailed:  entry.CountFailed,
		DurationMS:   entry.DurationMS,
	}
	if entry.Err != nil {
		s := entry.Err.Error()
		fe.Error = &s
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	_ = a.enc.Encode(fe) // best-effort; don't fail the request for audit I/O
}

func (a *FileAuditor) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.file.Close()
}
