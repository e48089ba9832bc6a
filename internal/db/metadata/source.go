package metadata

import (
	"context"

	"github.com/rebeliceyang/lazyfilter/internal/models"
)

// Source loads field metadata for record types
type Source interface {
	// LoadFields returns the fields of recordType in declaration order
	LoadFields(ctx context.Context, recordType string) ([]models.FieldDescriptor, error)

	// RecordTypes lists the record types the source knows about
	RecordTypes(ctx context.Context) ([]RecordType, error)
}

// RecordType is a filterable table
type RecordType struct {
	Name         string
	Hierarchical bool
}

// HierarchicalTypes returns the names of the nested-set record types
func HierarchicalTypes(types []RecordType) []string {
	var names []string
	for _, rt := range types {
		if rt.Hierarchical {
			names = append(names, rt.Name)
		}
	}
	return names
}

// labelFor turns a column name such as "due_date" into "Due Date"
func labelFor(name string) string {
	out := []byte(name)
	upper := true
	for i, c := range out {
		switch {
		case c == '_':
			out[i] = ' '
			upper = true
		case upper && c >= 'a' && c <= 'z':
			out[i] = c - 'a' + 'A'
			upper = false
		default:
			upper = false
		}
	}
	return string(out)
}

// hasNestedSetColumns reports whether the columns include both lft and rgt
func hasNestedSetColumns(names []string) bool {
	var lft, rgt bool
	for _, n := range names {
		switch n {
		case "lft":
			lft = true
		case "rgt":
			rgt = true
		}
	}
	return lft && rgt
}
