package metadata

import (
	"context"
	"strings"

	"github.com/rebeliceyang/lazyfilter/internal/models"
)

// PostgresSource reads field metadata from a PostgreSQL catalog
type PostgresSource struct {
	q      Querier
	schema string
}

// NewPostgresSource creates a source over q. schema is used for record types
// given without one and defaults to "public".
func NewPostgresSource(q Querier, schema string) *PostgresSource {
	if schema == "" {
		schema = "public"
	}
	return &PostgresSource{q: q, schema: schema}
}

func (s *PostgresSource) split(recordType string) (string, string) {
	schema, table, ok := strings.Cut(recordType, ".")
	if !ok {
		return s.schema, recordType
	}
	return schema, table
}

// LoadFields implements Source. Foreign keys become Link fields targeting
// the referenced table and enum columns become Select fields.
func (s *PostgresSource) LoadFields(ctx context.Context, recordType string) ([]models.FieldDescriptor, error) {
	schema, table := s.split(recordType)

	columns, err := GetTableColumns(ctx, s.q, schema, table)
	if err != nil {
		return nil, err
	}
	keys, err := GetForeignKeys(ctx, s.q, schema, table)
	if err != nil {
		return nil, err
	}

	links := make(map[string]string, len(keys))
	for _, k := range keys {
		links[k.Column] = k.ForeignTable
	}

	fields := make([]models.FieldDescriptor, 0, len(columns))
	for _, col := range columns {
		fields = append(fields, columnField(col, links[col.Name]))
	}
	return fields, nil
}

func columnField(col ColumnInfo, link string) models.FieldDescriptor {
	f := models.FieldDescriptor{
		Name:        col.Name,
		Label:       labelFor(col.Name),
		Type:        FieldTypeFor(col.DataType, col.UDTName),
		Description: col.Description,
		Required:    !col.Nullable,
	}

	switch {
	case link != "":
		f.Type = models.FieldTypeLink
		f.Options = link
	case len(col.EnumLabels) > 0:
		f.Type = models.FieldTypeSelect
		f.Options = strings.Join(col.EnumLabels, "\n")
		f.Choices = models.ChoicesFromOptions(f.Options)
	case strings.Contains(col.Name, "email") && f.Type == models.FieldTypeData:
		f.Options = "Email"
	}
	return f
}

// RecordTypes implements Source for the configured schema
func (s *PostgresSource) RecordTypes(ctx context.Context) ([]RecordType, error) {
	return ListRecordTypes(ctx, s.q, s.schema)
}
