package filter

import (
	"context"

	"github.com/rebeliceyang/lazyfilter/internal/models"
)

// FieldIndex answers field metadata lookups for record types that have
// already been loaded.
type FieldIndex interface {
	Lookup(recordType, fieldname string) (models.FieldDescriptor, bool)
	Fields(recordType string) []models.FieldDescriptor
}

// EditableControl is the value editor built for a field descriptor
type EditableControl interface {
	Descriptor() models.FieldDescriptor
	Value() any
	SetValue(v any) error
	SetHint(hint string)
	Hint() string
}

// ControlFactory builds an editable control for a descriptor
type ControlFactory interface {
	NewControl(d models.FieldDescriptor) EditableControl
}

// Resolver computes the field shape for a custom condition
type Resolver interface {
	Resolve(ctx context.Context, endpoint string, args map[string]any) (models.FieldShape, error)
}

// FormatOptions tunes ValueFormatter output
type FormatOptions struct {
	// ValueOnly renders the bare value without the field label
	ValueOnly bool
}

// ValueFormatter renders a canonical value for display
type ValueFormatter interface {
	Format(value any, d models.FieldDescriptor, opts FormatOptions) string
}

// SiblingValues gives a row access to the values of the other rows in its set
type SiblingValues interface {
	FilterValue(fieldname string) (any, bool)
}
