package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// CopyRows bulk-inserts rows with the COPY protocol through q.
// Each row must match columns in order.
func CopyRows(ctx context.Context, q Querier, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	n, err := q.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return n, fmt.Errorf("copy into %s: %w", table, err)
	}
	if n != int64(len(rows)) {
		return n, fmt.Errorf("copy into %s: wrote %d of %d rows", table, n, len(rows))
	}
	return n, nil
}
