package metadata

import (
	"context"
	"fmt"

	"github.com/spf13/cast"
)

// ForeignKey is a single column foreign key
type ForeignKey struct {
	Name         string
	Column       string
	ForeignTable string // "schema.table"
	ForeignCol   string
}

// GetForeignKeys retrieves the single column foreign keys of a table.
// Composite keys cannot be expressed as a link and are skipped.
func GetForeignKeys(ctx context.Context, q Querier, schema, table string) ([]ForeignKey, error) {
	query := `
		SELECT
			con.conname AS constraint_name,
			att.attname AS column_name,
			nf.nspname || '.' || clf.relname AS foreign_table,
			attf.attname AS foreign_column
		FROM pg_catalog.pg_constraint con
		JOIN pg_catalog.pg_class cl ON con.conrelid = cl.oid
		JOIN pg_catalog.pg_namespace ns ON cl.relnamespace = ns.oid
		JOIN pg_catalog.pg_class clf ON con.confrelid = clf.oid
		JOIN pg_catalog.pg_namespace nf ON clf.relnamespace = nf.oid
		JOIN pg_catalog.pg_attribute att ON att.attrelid = con.conrelid
			AND att.attnum = con.conkey[1]
		JOIN pg_catalog.pg_attribute attf ON attf.attrelid = con.confrelid
			AND attf.attnum = con.confkey[1]
		WHERE ns.nspname = $1 AND cl.relname = $2
			AND con.contype = 'f'
			AND array_length(con.conkey, 1) = 1
		ORDER BY con.conname
	`

	rows, err := q.Query(ctx, query, schema, table)
	if err != nil {
		return nil, fmt.Errorf("failed to get foreign keys: %w", err)
	}

	keys := make([]ForeignKey, 0, len(rows))
	for _, row := range rows {
		keys = append(keys, ForeignKey{
			Name:         cast.ToString(row["constraint_name"]),
			Column:       cast.ToString(row["column_name"]),
			ForeignTable: cast.ToString(row["foreign_table"]),
			ForeignCol:   cast.ToString(row["foreign_column"]),
		})
	}

	return keys, nil
}
