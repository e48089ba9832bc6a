package filter

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rebeliceyang/lazyfilter/internal/models"
)

var builtinConditions = []models.ConditionEntry{
	{Key: models.OpEqual, Label: "Equals"},
	{Key: models.OpNotEqual, Label: "Not Equals"},
	{Key: models.OpLike, Label: "Like"},
	{Key: models.OpNotLike, Label: "Not Like"},
	{Key: models.OpIn, Label: "In"},
	{Key: models.OpNotIn, Label: "Not In"},
	{Key: models.OpIs, Label: "Is"},
	{Key: models.OpGreaterThan, Label: ">"},
	{Key: models.OpLessThan, Label: "<"},
	{Key: models.OpGreaterOrEqual, Label: ">="},
	{Key: models.OpLessOrEqual, Label: "<="},
	{Key: models.OpBetween, Label: "Between"},
	{Key: models.OpTimespan, Label: "Timespan"},
}

var nestedSetConditions = []models.ConditionEntry{
	{Key: models.OpDescendantsOf, Label: "Descendants Of"},
	{Key: models.OpNotDescendantsOf, Label: "Not Descendants Of"},
	{Key: models.OpAncestorsOf, Label: "Ancestors Of"},
	{Key: models.OpNotAncestorsOf, Label: "Not Ancestors Of"},
}

// baseExclusions lists conditions that never apply to a field type.
// Check is filled in from the full condition list.
var baseExclusions = map[models.FieldType][]models.FilterOperator{
	models.FieldTypeDate:     {models.OpLike, models.OpNotLike},
	models.FieldTypeDatetime: {models.OpLike, models.OpNotLike},
	models.FieldTypeData:     {models.OpBetween, models.OpTimespan},
	models.FieldTypeSelect:   {models.OpLike, models.OpNotLike, models.OpBetween, models.OpTimespan},
	models.FieldTypeLink: {
		models.OpBetween, models.OpTimespan,
		models.OpGreaterThan, models.OpLessThan, models.OpGreaterOrEqual, models.OpLessOrEqual,
	},
	models.FieldTypeCurrency: {models.OpBetween, models.OpTimespan},
	models.FieldTypeColor:    {models.OpBetween, models.OpTimespan},
}

// ConditionSet is a set of condition keys
type ConditionSet map[models.FilterOperator]struct{}

// Has reports whether key is in the set
func (s ConditionSet) Has(key models.FilterOperator) bool {
	_, ok := s[key]
	return ok
}

// Env is the process-wide context the engine is configured with
type Env struct {
	// HierarchicalTypes are record types stored as nested sets
	HierarchicalTypes []string
	CustomConditions  []models.CustomCondition
}

type catalogSnapshot struct {
	conditions []models.ConditionEntry
	custom     map[models.FilterOperator]models.CustomCondition
	order      []models.FilterOperator
	invalid    map[models.FieldType]ConditionSet
}

// Catalog holds the available conditions and which of them are invalid for
// each field type. Reads never block: every registration publishes a new
// immutable snapshot.
type Catalog struct {
	hierarchical map[string]struct{}

	mu       sync.Mutex
	snapshot atomic.Pointer[catalogSnapshot]
}

// NewCatalog creates a catalog and registers env's custom conditions
func NewCatalog(env Env) (*Catalog, error) {
	c := &Catalog{hierarchical: make(map[string]struct{}, len(env.HierarchicalTypes))}
	for _, rt := range env.HierarchicalTypes {
		c.hierarchical[rt] = struct{}{}
	}
	c.snapshot.Store(buildSnapshot(nil, nil))

	for _, custom := range env.CustomConditions {
		if err := c.Register(custom); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Register adds a custom condition. Registering an existing key replaces it
// in place.
func (c *Catalog) Register(custom models.CustomCondition) error {
	if strings.TrimSpace(string(custom.Key)) == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidCondition)
	}
	if custom.Label == "" {
		custom.Label = string(custom.Key)
	}
	if isBuiltin(custom.Key) {
		return fmt.Errorf("%w: %q is a built-in condition", ErrInvalidCondition, custom.Key)
	}
	custom.ValidForFieldTypes = slices.Clone(custom.ValidForFieldTypes)

	c.mu.Lock()
	defer c.mu.Unlock()

	cur := c.snapshot.Load()
	customs := maps.Clone(cur.custom)
	order := slices.Clone(cur.order)
	if _, exists := customs[custom.Key]; !exists {
		order = append(order, custom.Key)
	}
	customs[custom.Key] = custom

	c.snapshot.Store(buildSnapshot(customs, order))
	return nil
}

func buildSnapshot(customs map[models.FilterOperator]models.CustomCondition, order []models.FilterOperator) *catalogSnapshot {
	if customs == nil {
		customs = make(map[models.FilterOperator]models.CustomCondition)
	}

	conditions := make([]models.ConditionEntry, 0, len(builtinConditions)+len(nestedSetConditions)+len(order))
	conditions = append(conditions, builtinConditions...)
	conditions = append(conditions, nestedSetConditions...)

	invalid := make(map[models.FieldType]ConditionSet, len(baseExclusions)+1)
	for ft, keys := range baseExclusions {
		set := make(ConditionSet, len(keys))
		for _, key := range keys {
			set[key] = struct{}{}
		}
		invalid[ft] = set
	}

	check := make(ConditionSet, len(conditions))
	for _, entry := range conditions {
		if entry.Key != models.OpEqual {
			check[entry.Key] = struct{}{}
		}
	}
	invalid[models.FieldTypeCheck] = check

	for _, key := range order {
		custom := customs[key]
		conditions = append(conditions, models.ConditionEntry{Key: custom.Key, Label: custom.Label})
		for _, ft := range models.AllFieldTypes() {
			if custom.ValidFor(ft) {
				continue
			}
			set, ok := invalid[ft]
			if !ok {
				set = make(ConditionSet)
				invalid[ft] = set
			}
			set[custom.Key] = struct{}{}
		}
	}

	return &catalogSnapshot{
		conditions: conditions,
		custom:     customs,
		order:      order,
		invalid:    invalid,
	}
}

func isBuiltin(key models.FilterOperator) bool {
	for _, entry := range builtinConditions {
		if entry.Key == key {
			return true
		}
	}
	for _, entry := range nestedSetConditions {
		if entry.Key == key {
			return true
		}
	}
	return false
}

// Conditions returns the built-in conditions, then the nested-set ones, then
// custom conditions in registration order.
func (c *Catalog) Conditions() []models.ConditionEntry {
	return slices.Clone(c.snapshot.Load().conditions)
}

// NestedSetConditions returns the hierarchical conditions
func (c *Catalog) NestedSetConditions() []models.ConditionEntry {
	return slices.Clone(nestedSetConditions)
}

// Custom returns the registered custom condition for key
func (c *Catalog) Custom(key models.FilterOperator) (models.CustomCondition, bool) {
	custom, ok := c.snapshot.Load().custom[key]
	return custom, ok
}

// Known reports whether key is a built-in, nested-set or custom condition
func (c *Catalog) Known(key models.FilterOperator) bool {
	if isBuiltin(key) {
		return true
	}
	_, ok := c.Custom(key)
	return ok
}

// IsHierarchical reports whether recordType is stored as a nested set
func (c *Catalog) IsHierarchical(recordType string) bool {
	_, ok := c.hierarchical[recordType]
	return ok
}

// InvalidConditionsFor returns the conditions excluded for a field. The
// original type's set wins when it has one.
func (c *Catalog) InvalidConditionsFor(declared, original models.FieldType) ConditionSet {
	invalid := c.snapshot.Load().invalid
	if original != models.FieldTypeUnknown {
		if set, ok := invalid[original]; ok {
			return maps.Clone(set)
		}
	}
	if set, ok := invalid[declared]; ok {
		return maps.Clone(set)
	}
	return ConditionSet{}
}

// Allowed reports whether key may be applied to the field
func (c *Catalog) Allowed(d models.FieldDescriptor, key models.FilterOperator) bool {
	if !c.Known(key) {
		return false
	}
	return !c.InvalidConditionsFor(d.Type, d.OriginalType).Has(key)
}

// VisibleConditions returns the conditions a user may pick for the field.
// Nested-set conditions are only offered for links to hierarchical types.
func (c *Catalog) VisibleConditions(d models.FieldDescriptor) []models.ConditionEntry {
	snap := c.snapshot.Load()
	invalid := c.InvalidConditionsFor(d.Type, d.OriginalType)
	hierarchical := d.Type == models.FieldTypeLink && c.IsHierarchical(d.Options)

	visible := make([]models.ConditionEntry, 0, len(snap.conditions))
	for _, entry := range snap.conditions {
		if invalid.Has(entry.Key) {
			continue
		}
		if entry.Key.IsNestedSet() && !hierarchical {
			continue
		}
		visible = append(visible, entry)
	}
	return visible
}
