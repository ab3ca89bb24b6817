package postgres

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/guillermoBallester/sqlgate/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

// collectRows converts pgx.Rows into domain rows, keeping column order.
func collectRows(rows pgx.Rows) ([]domain.Row, error) {
	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, fd := range fields {
		columns[i] = fd.Name
	}

	var result []domain.Row
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("reading row values: %w", err)
		}
		for i, v := range vals {
			// uuid columns decode to a raw byte array.
			if b, ok := v.([16]byte); ok {
				vals[i] = uuid.UUID(b).String()
			}
		}
		result = append(result, domain.NewRow(columns, vals))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return result, nil
}
