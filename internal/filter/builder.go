package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/spf13/cast"

	"github.com/rebeliceyang/lazyfilter/internal/models"
)

// Builder renders filter tuples as a parameterised PostgreSQL WHERE clause
// for previewing. It never runs anything.
type Builder struct {
	index FieldIndex
	now   func() time.Time

	// NestedSetKey is the key column of hierarchical record types
	NestedSetKey string
}

// NewBuilder creates a new filter builder. index is used to find the
// targets of nested-set conditions and may be nil.
func NewBuilder(index FieldIndex) *Builder {
	return &Builder{
		index:        index,
		now:          time.Now,
		NestedSetKey: "name",
	}
}

// SplitRecordType splits "schema.table" into its parts. A name without a
// schema returns an empty schema.
func SplitRecordType(recordType string) (string, string) {
	schema, table, ok := strings.Cut(recordType, ".")
	if !ok {
		return "", recordType
	}
	return schema, table
}

func tableIdent(recordType string) pgx.Identifier {
	schema, table := SplitRecordType(recordType)
	if schema == "" {
		return pgx.Identifier{table}
	}
	return pgx.Identifier{schema, table}
}

func columnIdent(recordType, field string) string {
	if recordType == "" {
		return pgx.Identifier{field}.Sanitize()
	}
	return append(tableIdent(recordType), field).Sanitize()
}

// SelectQuery renders SELECT * FROM recordType with the conditions applied
func (b *Builder) SelectQuery(recordType string, conds []models.FilterCondition) (string, []any, error) {
	where, args, err := b.BuildWhere(conds)
	if err != nil {
		return "", nil, err
	}
	query := "SELECT * FROM " + tableIdent(recordType).Sanitize()
	if where != "" {
		query += " " + where
	}
	return query, args, nil
}

// BuildWhere generates a WHERE clause joining every condition with AND
func (b *Builder) BuildWhere(conds []models.FilterCondition) (string, []any, error) {
	if len(conds) == 0 {
		return "", nil, nil
	}

	var clauses []string
	var args []any
	for _, cond := range conds {
		clause, condArgs, err := b.buildCondition(cond, len(args)+1)
		if err != nil {
			return "", nil, err
		}
		clauses = append(clauses, clause)
		args = append(args, condArgs...)
	}

	return "WHERE " + strings.Join(clauses, " AND "), args, nil
}

// buildCondition builds a single filter condition
func (b *Builder) buildCondition(cond models.FilterCondition, paramIndex int) (string, []any, error) {
	column := columnIdent(cond.RecordType, cond.Field)

	switch cond.Operator {
	case models.OpEqual, models.OpNotEqual, models.OpGreaterThan, models.OpGreaterOrEqual,
		models.OpLessThan, models.OpLessOrEqual:
		return fmt.Sprintf("%s %s $%d", column, cond.Operator, paramIndex), []any{cond.Value}, nil
	case models.OpLike:
		return fmt.Sprintf("%s ILIKE $%d", column, paramIndex), []any{cast.ToString(cond.Value)}, nil
	case models.OpNotLike:
		return fmt.Sprintf("%s NOT ILIKE $%d", column, paramIndex), []any{cast.ToString(cond.Value)}, nil
	case models.OpIn, models.OpNotIn:
		values := listValue(cond.Value)
		if len(values) == 0 {
			if cond.Operator == models.OpIn {
				return "FALSE", nil, nil
			}
			return "TRUE", nil, nil
		}
		if cond.Operator == models.OpIn {
			return fmt.Sprintf("%s = ANY($%d)", column, paramIndex), []any{values}, nil
		}
		return fmt.Sprintf("%s <> ALL($%d)", column, paramIndex), []any{values}, nil
	case models.OpIs:
		switch cast.ToString(cond.Value) {
		case "set":
			return fmt.Sprintf("%s IS NOT NULL", column), nil, nil
		case "not set":
			return fmt.Sprintf("%s IS NULL", column), nil, nil
		}
		return "", nil, fmt.Errorf("invalid value for is: %v", cond.Value)
	case models.OpBetween:
		values := listValue(cond.Value)
		if len(values) != 2 {
			return "", nil, fmt.Errorf("between needs two values for %s, got %d", cond.Field, len(values))
		}
		return fmt.Sprintf("%s BETWEEN $%d AND $%d", column, paramIndex, paramIndex+1), []any{values[0], values[1]}, nil
	case models.OpTimespan:
		from, to, err := TimespanRange(cast.ToString(cond.Value), b.now())
		if err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("%s BETWEEN $%d AND $%d", column, paramIndex, paramIndex+1),
			[]any{from.Format(time.DateOnly), to.Format(time.DateOnly)}, nil
	case models.OpDescendantsOf, models.OpNotDescendantsOf, models.OpAncestorsOf, models.OpNotAncestorsOf:
		return b.buildNestedSet(cond, column, paramIndex)
	default:
		return "", nil, fmt.Errorf("unsupported operator: %s", cond.Operator)
	}
}

func (b *Builder) buildNestedSet(cond models.FilterCondition, column string, paramIndex int) (string, []any, error) {
	if b.index == nil {
		return "", nil, fmt.Errorf("no field index to resolve %s", cond.Field)
	}
	field, ok := b.index.Lookup(cond.RecordType, cond.Field)
	if !ok || field.Type != models.FieldTypeLink || field.Options == "" {
		return "", nil, fmt.Errorf("%s is not a link to a hierarchical record type", cond.Field)
	}

	target := tableIdent(field.Options).Sanitize()
	key := pgx.Identifier{b.NestedSetKey}.Sanitize()
	node := func(col string) string {
		return fmt.Sprintf("(SELECT %s FROM %s WHERE %s = $%d)", col, target, key, paramIndex)
	}

	var bounds string
	switch cond.Operator {
	case models.OpDescendantsOf, models.OpNotDescendantsOf:
		bounds = fmt.Sprintf("lft > %s AND rgt < %s", node("lft"), node("rgt"))
	default:
		bounds = fmt.Sprintf("lft < %s AND rgt > %s", node("lft"), node("rgt"))
	}

	in := "IN"
	if cond.Operator == models.OpNotDescendantsOf || cond.Operator == models.OpNotAncestorsOf {
		in = "NOT IN"
	}
	return fmt.Sprintf("%s %s (SELECT %s FROM %s WHERE %s)", column, in, key, target, bounds),
		[]any{cast.ToString(cond.Value)}, nil
}

func listValue(v any) []string {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		if val == "" {
			return nil
		}
		return splitList(val)
	case []string:
		return val
	default:
		return cast.ToStringSlice(val)
	}
}
