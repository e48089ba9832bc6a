package metadata

import (
	"context"
	"fmt"

	"github.com/spf13/cast"
)

// ListRecordTypes returns the tables of a schema as "schema.table" record
// types. Tables carrying integer lft and rgt columns are hierarchical.
func ListRecordTypes(ctx context.Context, q Querier, schema string) ([]RecordType, error) {
	query := `
		SELECT
			t.schemaname || '.' || t.tablename AS name,
			(
				SELECT count(*) = 2
				FROM information_schema.columns c
				WHERE c.table_schema = t.schemaname
					AND c.table_name = t.tablename
					AND c.column_name IN ('lft', 'rgt')
					AND c.data_type IN ('integer', 'bigint', 'smallint')
			) AS hierarchical
		FROM pg_catalog.pg_tables t
		WHERE t.schemaname = $1
		ORDER BY t.tablename;
	`

	rows, err := q.Query(ctx, query, schema)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}

	types := make([]RecordType, 0, len(rows))
	for _, row := range rows {
		types = append(types, RecordType{
			Name:         cast.ToString(row["name"]),
			Hierarchical: cast.ToBool(row["hierarchical"]),
		})
	}

	return types, nil
}
