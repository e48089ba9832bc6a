package metadata

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebeliceyang/lazyfilter/internal/models"
)

func TestFieldTypeFor(t *testing.T) {
	tests := []struct {
		dataType, udt string
		want          models.FieldType
	}{
		{"boolean", "bool", models.FieldTypeCheck},
		{"date", "date", models.FieldTypeDate},
		{"timestamp with time zone", "timestamptz", models.FieldTypeDatetime},
		{"time without time zone", "time", models.FieldTypeTime},
		{"bigint", "int8", models.FieldTypeInt},
		{"numeric", "numeric", models.FieldTypeFloat},
		{"money", "money", models.FieldTypeCurrency},
		{"text", "text", models.FieldTypeText},
		{"character varying", "varchar", models.FieldTypeData},
		{"jsonb", "jsonb", models.FieldTypeCode},
		{"ARRAY", "_text", models.FieldTypeTag},
		{"USER-DEFINED", "task_status", models.FieldTypeData},
		// SQLite declared types
		{"INTEGER", "", models.FieldTypeInt},
		{"VARCHAR(40)", "", models.FieldTypeData},
		{"DATETIME", "", models.FieldTypeDatetime},
		{"BOOLEAN", "", models.FieldTypeCheck},
		{"", "", models.FieldTypeData},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FieldTypeFor(tt.dataType, tt.udt), tt.dataType)
	}
}

func TestLabelFor(t *testing.T) {
	assert.Equal(t, "Due Date", labelFor("due_date"))
	assert.Equal(t, "Status", labelFor("status"))
	assert.Equal(t, "Owner  Email", labelFor("owner__email"))
}

// fakeQuerier answers catalog queries by matching a fragment of the SQL
type fakeQuerier struct {
	answers map[string][]map[string]any
	args    [][]any
}

func (q *fakeQuerier) Query(_ context.Context, sql string, args ...any) ([]map[string]any, error) {
	q.args = append(q.args, args)
	for fragment, rows := range q.answers {
		if strings.Contains(sql, fragment) {
			return rows, nil
		}
	}
	return nil, nil
}

func TestPostgresSourceLoadFields(t *testing.T) {
	q := &fakeQuerier{answers: map[string][]map[string]any{
		"information_schema.columns c": {
			{"column_name": "subject", "data_type": "character varying", "udt_name": "varchar", "nullable": false, "description": "Short summary"},
			{"column_name": "status", "data_type": "USER-DEFINED", "udt_name": "task_status", "nullable": true, "enum_labels": []any{"Open", "Closed"}},
			{"column_name": "territory", "data_type": "text", "udt_name": "text", "nullable": true},
			{"column_name": "owner_email", "data_type": "text", "udt_name": "varchar", "nullable": true},
		},
		"con.contype = 'f'": {
			{"constraint_name": "task_territory_fkey", "column_name": "territory", "foreign_table": "public.territory", "foreign_column": "name"},
		},
	}}
	src := NewPostgresSource(q, "")

	fields, err := src.LoadFields(context.Background(), "task")
	require.NoError(t, err)
	require.Len(t, fields, 4)

	assert.Equal(t, models.FieldDescriptor{
		Name: "subject", Label: "Subject", Type: models.FieldTypeData, Description: "Short summary", Required: true,
	}, fields[0])

	assert.Equal(t, models.FieldTypeSelect, fields[1].Type)
	assert.Equal(t, "Open\nClosed", fields[1].Options)
	assert.Equal(t, []models.Option{{Label: "Open", Value: "Open"}, {Label: "Closed", Value: "Closed"}}, fields[1].Choices)

	assert.Equal(t, models.FieldTypeLink, fields[2].Type)
	assert.Equal(t, "public.territory", fields[2].Options)

	assert.Equal(t, models.FieldTypeText, fields[3].Type)

	// the default schema is used for unqualified names
	assert.Equal(t, []any{"public", "task"}, q.args[0])
}

func TestPostgresSourceRecordTypes(t *testing.T) {
	q := &fakeQuerier{answers: map[string][]map[string]any{
		"pg_catalog.pg_tables": {
			{"name": "crm.task", "hierarchical": false},
			{"name": "crm.territory", "hierarchical": true},
		},
	}}

	types, err := NewPostgresSource(q, "crm").RecordTypes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []RecordType{{Name: "crm.task"}, {Name: "crm.territory", Hierarchical: true}}, types)
	assert.Equal(t, []string{"crm.territory"}, HierarchicalTypes(types))
}

func TestSQLiteSource(t *testing.T) {
	src, err := NewSQLiteSource(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = src.Close() })

	ctx := context.Background()
	require.NoError(t, src.Exec(ctx, `
		CREATE TABLE territory (name TEXT PRIMARY KEY, lft INTEGER, rgt INTEGER);
		CREATE TABLE task (
			id INTEGER PRIMARY KEY,
			subject VARCHAR(140) NOT NULL,
			is_urgent BOOLEAN,
			due_date DATE,
			territory TEXT REFERENCES territory(name)
		);`))

	fields, err := src.LoadFields(ctx, "main.task")
	require.NoError(t, err)
	require.Len(t, fields, 5)
	assert.Equal(t, models.FieldTypeInt, fields[0].Type)
	assert.Equal(t, models.FieldTypeData, fields[1].Type)
	assert.True(t, fields[1].Required)
	assert.Equal(t, models.FieldTypeCheck, fields[2].Type)
	assert.Equal(t, models.FieldTypeDate, fields[3].Type)
	assert.Equal(t, models.FieldTypeLink, fields[4].Type)
	assert.Equal(t, "territory", fields[4].Options)

	_, err = src.LoadFields(ctx, "missing")
	assert.Error(t, err)

	types, err := src.RecordTypes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []RecordType{{Name: "task"}, {Name: "territory", Hierarchical: true}}, types)
}

const schemaYAML = `
record_types:
  - name: public.task
    fields:
      - name: subject
        label: Subject
        type: Data
        required: true
      - name: status
        type: Select
        options: "Open\nClosed"
      - name: territory
        type: Link
        options: public.territory
  - name: public.territory
    hierarchical: true
    fields:
      - name: name
        type: Data
`

func TestYAMLSource(t *testing.T) {
	src, err := ParseYAMLSource([]byte(schemaYAML))
	require.NoError(t, err)

	fields, err := src.LoadFields(context.Background(), "public.task")
	require.NoError(t, err)
	require.Len(t, fields, 3)
	assert.True(t, fields[0].Required)
	assert.Equal(t, []models.Option{{Label: "Open", Value: "Open"}, {Label: "Closed", Value: "Closed"}}, fields[1].Choices)
	assert.Equal(t, models.FieldTypeLink, fields[2].Type)

	types, err := src.RecordTypes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"public.territory"}, HierarchicalTypes(types))

	_, err = src.LoadFields(context.Background(), "public.missing")
	assert.Error(t, err)
}

func TestYAMLSourceRejectsBadSchemas(t *testing.T) {
	bad := []string{
		"record_types: [{fields: []}]",
		"record_types: [{name: a}, {name: a}]",
		"record_types: [{name: a, fields: [{type: Data}]}]",
		"record_types: [{name: a, fields: [{name: x, type: Blob}]}]",
		"record_types: [{name: a, fields: [{name: x}]}]",
	}
	for _, doc := range bad {
		_, err := ParseYAMLSource([]byte(doc))
		assert.Error(t, err, doc)
	}
}
