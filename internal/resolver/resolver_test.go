package resolver

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebeliceyang/lazyfilter/internal/models"
)

type recordingQuerier struct {
	sql  string
	args []any
	rows []map[string]any
	err  error
}

func (q *recordingQuerier) Query(_ context.Context, sql string, args ...any) ([]map[string]any, error) {
	q.sql = sql
	q.args = args
	return q.rows, q.err
}

func TestSQLResolve(t *testing.T) {
	q := &recordingQuerier{rows: []map[string]any{{"fieldtype": "Select", "options": "2023-2024\n2024-2025\n"}}}

	shape, err := NewSQL(q).Resolve(context.Background(), "app.fiscal_year_field", map[string]any{"company": "ACME"})
	require.NoError(t, err)

	assert.Equal(t, `SELECT fieldtype, options FROM "app"."fiscal_year_field"($1::jsonb)`, q.sql)
	assert.Equal(t, []any{`{"company":"ACME"}`}, q.args)
	assert.Equal(t, models.FieldShape{
		Type:    models.FieldTypeSelect,
		Options: "2023-2024\n2024-2025",
		Choices: []models.Option{{Label: "2023-2024", Value: "2023-2024"}, {Label: "2024-2025", Value: "2024-2025"}},
	}, shape)
}

func TestSQLResolveErrors(t *testing.T) {
	ctx := context.Background()

	_, err := NewSQL(&recordingQuerier{}).Resolve(ctx, "drop table x;", nil)
	assert.ErrorIs(t, err, ErrUnknownEndpoint)

	_, err = NewSQL(&recordingQuerier{}).Resolve(ctx, "fiscal_year_field", nil)
	assert.ErrorContains(t, err, "no rows")

	_, err = NewSQL(&recordingQuerier{err: errors.New("function does not exist")}).Resolve(ctx, "fiscal_year_field", nil)
	assert.ErrorContains(t, err, "function does not exist")

	_, err = NewSQL(&recordingQuerier{rows: []map[string]any{{"fieldtype": "Blob"}}}).Resolve(ctx, "fiscal_year_field", nil)
	assert.Error(t, err)
}

func TestStaticAndChain(t *testing.T) {
	static := NewStatic(map[string]models.FieldShape{
		"quarter_field": {Type: models.FieldTypeSelect, Options: "Q1\nQ2\nQ3\nQ4"},
		"broken":        {},
	})
	q := &recordingQuerier{rows: []map[string]any{{"fieldtype": "Date", "options": nil}}}
	chain := Chain{static, NewSQL(q)}
	ctx := context.Background()

	shape, err := chain.Resolve(ctx, "quarter_field", nil)
	require.NoError(t, err)
	assert.Len(t, shape.Choices, 4)
	assert.Empty(t, q.sql)

	shape, err = chain.Resolve(ctx, "posting_date_field", nil)
	require.NoError(t, err)
	assert.Equal(t, models.FieldShape{Type: models.FieldTypeDate}, shape)

	_, err = chain.Resolve(ctx, "broken", nil)
	assert.ErrorContains(t, err, "no field type")

	_, err = Chain{static}.Resolve(ctx, "nowhere", nil)
	assert.ErrorIs(t, err, ErrUnknownEndpoint)
}

func TestStaticHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewStatic(nil).Resolve(ctx, "x", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStaticReplace(t *testing.T) {
	static := NewStatic(map[string]models.FieldShape{"Old": {Type: models.FieldTypeDate}})
	assert.True(t, static.Has("old"))

	static.Replace(map[string]models.FieldShape{"Quarter_Field": {Type: models.FieldTypeSelect, Options: "Q1\nQ2"}})
	assert.False(t, static.Has("old"))
	assert.True(t, static.Has("quarter_field"))

	shape, err := static.Resolve(context.Background(), "quarter_field", nil)
	require.NoError(t, err)
	assert.Equal(t, models.FieldTypeSelect, shape.Type)

	_, err = static.Resolve(context.Background(), "old", nil)
	assert.ErrorIs(t, err, ErrUnknownEndpoint)
}
