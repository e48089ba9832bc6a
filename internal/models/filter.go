package models

import "slices"

// FilterOperator is a condition key such as "=", "like" or "Between"
type FilterOperator string

const (
	OpEqual          FilterOperator = "="
	OpNotEqual       FilterOperator = "!="
	OpLike           FilterOperator = "like"
	OpNotLike        FilterOperator = "not like"
	OpIn             FilterOperator = "in"
	OpNotIn          FilterOperator = "not in"
	OpIs             FilterOperator = "is"
	OpGreaterThan    FilterOperator = ">"
	OpLessThan       FilterOperator = "<"
	OpGreaterOrEqual FilterOperator = ">="
	OpLessOrEqual    FilterOperator = "<="
	OpBetween        FilterOperator = "Between"
	OpTimespan       FilterOperator = "Timespan"

	// Nested-set (hierarchical) conditions
	OpDescendantsOf    FilterOperator = "descendants of"
	OpNotDescendantsOf FilterOperator = "not descendants of"
	OpAncestorsOf      FilterOperator = "ancestors of"
	OpNotAncestorsOf   FilterOperator = "not ancestors of"
)

// IsPattern reports whether op is like or not like
func (op FilterOperator) IsPattern() bool {
	return op == OpLike || op == OpNotLike
}

// IsMembership reports whether op is in or not in
func (op FilterOperator) IsMembership() bool {
	return op == OpIn || op == OpNotIn
}

// IsNestedSet reports whether op is one of the hierarchical conditions
func (op FilterOperator) IsNestedSet() bool {
	switch op {
	case OpDescendantsOf, OpNotDescendantsOf, OpAncestorsOf, OpNotAncestorsOf:
		return true
	}
	return false
}

// KeepsLink reports whether a Link field keeps its link editor under op.
// Every other condition edits a link as free text.
func (op FilterOperator) KeepsLink() bool {
	return op == OpEqual || op == OpNotEqual || op.IsNestedSet()
}

// ConditionEntry is a selectable condition with its display label
type ConditionEntry struct {
	Key   FilterOperator
	Label string
}

// CustomCondition is a condition registered at startup whose editing
// control is computed by a remote resolver.
type CustomCondition struct {
	Key                FilterOperator `mapstructure:"key"`
	Label              string         `mapstructure:"label"`
	ValidForFieldTypes []FieldType    `mapstructure:"valid_for_fieldtypes"`
	// DependsOn names a sibling filter whose value is passed to the resolver.
	DependsOn string `mapstructure:"depends_on"`
	// Endpoint identifies the resolver routine.
	Endpoint string `mapstructure:"endpoint"`
}

// ValidFor reports whether the condition applies to fields of type t
func (c CustomCondition) ValidFor(t FieldType) bool {
	return slices.Contains(c.ValidForFieldTypes, t)
}

// FilterCondition is the canonical filter tuple
type FilterCondition struct {
	RecordType string         `json:"doctype"`
	Field      string         `json:"fieldname"`
	Operator   FilterOperator `json:"condition"`
	Value      any            `json:"value"`
	Hidden     bool           `json:"hidden"`
}

// Tuple returns the condition as [doctype, fieldname, condition, value, hidden]
func (c FilterCondition) Tuple() []any {
	return []any{c.RecordType, c.Field, string(c.Operator), c.Value, c.Hidden}
}
