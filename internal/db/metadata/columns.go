package metadata

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/spf13/cast"
)

// Querier runs a query and returns its rows keyed by column name.
// *connection.Pool satisfies it.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) ([]map[string]any, error)
}

// ColumnInfo is a column as read from information_schema
type ColumnInfo struct {
	Name        string
	DataType    string
	UDTName     string
	Nullable    bool
	Description string
	EnumLabels  []string
}

// GetTableColumns retrieves column metadata for a table, including the
// labels of enum typed columns.
func GetTableColumns(ctx context.Context, q Querier, schema, table string) ([]ColumnInfo, error) {
	query := `
		SELECT
			c.column_name,
			c.data_type,
			c.udt_name,
			c.is_nullable = 'YES' AS nullable,
			COALESCE(pg_catalog.col_description(
				format('%I.%I', c.table_schema, c.table_name)::regclass::oid,
				c.ordinal_position::int), '') AS description,
			ARRAY(
				SELECT e.enumlabel
				FROM pg_catalog.pg_type t
				JOIN pg_catalog.pg_namespace tn ON tn.oid = t.typnamespace
				JOIN pg_catalog.pg_enum e ON e.enumtypid = t.oid
				WHERE t.typname = c.udt_name AND tn.nspname = c.udt_schema
				ORDER BY e.enumsortorder
			) AS enum_labels
		FROM information_schema.columns c
		WHERE c.table_schema = $1 AND c.table_name = $2
		ORDER BY c.ordinal_position
	`

	rows, err := q.Query(ctx, query, schema, table)
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	columns := make([]ColumnInfo, 0, len(rows))
	for _, row := range rows {
		columns = append(columns, ColumnInfo{
			Name:        cast.ToString(row["column_name"]),
			DataType:    cast.ToString(row["data_type"]),
			UDTName:     cast.ToString(row["udt_name"]),
			Nullable:    cast.ToBool(row["nullable"]),
			Description: cast.ToString(row["description"]),
			EnumLabels:  stringList(row["enum_labels"]),
		})
	}

	return columns, nil
}

// stringList reads a text[] value as returned by pgx
func stringList(v any) []string {
	switch val := v.(type) {
	case nil:
		return nil
	case pgtype.Array[string]:
		return val.Elements
	case []string:
		return val
	default:
		return cast.ToStringSlice(val)
	}
}
