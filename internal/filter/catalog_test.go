package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebeliceyang/lazyfilter/internal/models"
)

func keys(entries []models.ConditionEntry) []models.FilterOperator {
	out := make([]models.FilterOperator, len(entries))
	for i, e := range entries {
		out[i] = e.Key
	}
	return out
}

func TestCatalogConditionOrder(t *testing.T) {
	c, err := NewCatalog(Env{})
	require.NoError(t, err)

	assert.Equal(t, []models.FilterOperator{
		"=", "!=", "like", "not like", "in", "not in", "is", ">", "<", ">=", "<=", "Between", "Timespan",
		"descendants of", "not descendants of", "ancestors of", "not ancestors of",
	}, keys(c.Conditions()))
	assert.Equal(t, []models.FilterOperator{
		"descendants of", "not descendants of", "ancestors of", "not ancestors of",
	}, keys(c.NestedSetConditions()))
}

func TestCatalogBaseExclusions(t *testing.T) {
	c, err := NewCatalog(Env{})
	require.NoError(t, err)

	tests := []struct {
		fieldType models.FieldType
		excluded  []models.FilterOperator
	}{
		{models.FieldTypeDate, []models.FilterOperator{"like", "not like"}},
		{models.FieldTypeDatetime, []models.FilterOperator{"like", "not like"}},
		{models.FieldTypeData, []models.FilterOperator{"Between", "Timespan"}},
		{models.FieldTypeSelect, []models.FilterOperator{"like", "not like", "Between", "Timespan"}},
		{models.FieldTypeLink, []models.FilterOperator{"Between", "Timespan", ">", "<", ">=", "<="}},
		{models.FieldTypeCurrency, []models.FilterOperator{"Between", "Timespan"}},
		{models.FieldTypeColor, []models.FilterOperator{"Between", "Timespan"}},
		{models.FieldTypeInt, nil},
	}

	for _, tt := range tests {
		t.Run(tt.fieldType.String(), func(t *testing.T) {
			set := c.InvalidConditionsFor(tt.fieldType, models.FieldTypeUnknown)
			assert.Len(t, set, len(tt.excluded))
			for _, key := range tt.excluded {
				assert.True(t, set.Has(key), key)
			}
		})
	}
}

func TestCatalogCheckExcludesAllButEquals(t *testing.T) {
	c, err := NewCatalog(Env{})
	require.NoError(t, err)

	set := c.InvalidConditionsFor(models.FieldTypeCheck, models.FieldTypeUnknown)
	for _, entry := range c.Conditions() {
		assert.Equal(t, entry.Key != models.OpEqual, set.Has(entry.Key), entry.Key)
	}

	require.NoError(t, c.Register(models.CustomCondition{Key: "between fiscal years", ValidForFieldTypes: []models.FieldType{models.FieldTypeDate}}))
	assert.True(t, c.InvalidConditionsFor(models.FieldTypeCheck, models.FieldTypeUnknown).Has("between fiscal years"))
}

func TestCatalogOriginalTypeWins(t *testing.T) {
	c, err := NewCatalog(Env{})
	require.NoError(t, err)

	// A Check field collapsed to Select keeps Check's exclusions.
	set := c.InvalidConditionsFor(models.FieldTypeSelect, models.FieldTypeCheck)
	assert.True(t, set.Has(models.OpIn))

	// Int has no entry, so the declared type's set is used.
	set = c.InvalidConditionsFor(models.FieldTypeSelect, models.FieldTypeInt)
	assert.True(t, set.Has(models.OpLike))

	assert.Empty(t, c.InvalidConditionsFor(models.FieldTypeInt, models.FieldTypeUnknown))
}

func TestCatalogRegisterCustom(t *testing.T) {
	c, err := NewCatalog(Env{})
	require.NoError(t, err)
	before := c.InvalidConditionsFor(models.FieldTypeData, models.FieldTypeUnknown)

	require.NoError(t, c.Register(fiscalYear))
	require.NoError(t, c.Register(fiscalYear))

	all := keys(c.Conditions())
	count := 0
	for _, k := range all {
		if k == fiscalYear.Key {
			count++
		}
	}
	assert.Equal(t, 1, count)
	assert.Equal(t, fiscalYear.Key, all[len(all)-1])

	for _, ft := range models.AllFieldTypes() {
		excluded := c.InvalidConditionsFor(ft, models.FieldTypeUnknown).Has(fiscalYear.Key)
		assert.Equal(t, !fiscalYear.ValidFor(ft), excluded, ft.String())
	}

	// Earlier snapshots are not mutated.
	assert.False(t, before.Has(fiscalYear.Key))

	custom, ok := c.Custom(fiscalYear.Key)
	require.True(t, ok)
	assert.Equal(t, "fiscal_year_field", custom.Endpoint)
}

func TestCatalogRegisterReplacesInPlace(t *testing.T) {
	c, err := NewCatalog(Env{CustomConditions: []models.CustomCondition{fiscalYear}})
	require.NoError(t, err)

	updated := fiscalYear
	updated.Label = "Financial Year"
	updated.ValidForFieldTypes = []models.FieldType{models.FieldTypeData}
	require.NoError(t, c.Register(updated))

	conds := c.Conditions()
	last := conds[len(conds)-1]
	assert.Equal(t, "Financial Year", last.Label)
	assert.False(t, c.InvalidConditionsFor(models.FieldTypeData, models.FieldTypeUnknown).Has(fiscalYear.Key))
	assert.True(t, c.InvalidConditionsFor(models.FieldTypeDate, models.FieldTypeUnknown).Has(fiscalYear.Key))
}

func TestCatalogRegisterRejects(t *testing.T) {
	c, err := NewCatalog(Env{})
	require.NoError(t, err)

	assert.ErrorIs(t, c.Register(models.CustomCondition{Key: " "}), ErrInvalidCondition)
	assert.ErrorIs(t, c.Register(models.CustomCondition{Key: models.OpLike}), ErrInvalidCondition)

	_, err = NewCatalog(Env{CustomConditions: []models.CustomCondition{{Key: ""}}})
	assert.ErrorIs(t, err, ErrInvalidCondition)
}

func TestCatalogVisibleConditions(t *testing.T) {
	c, err := NewCatalog(Env{HierarchicalTypes: []string{"public.territory"}})
	require.NoError(t, err)

	date := c.VisibleConditions(models.FieldDescriptor{Type: models.FieldTypeDate})
	assert.NotContains(t, keys(date), models.OpLike)
	assert.Contains(t, keys(date), models.OpBetween)
	assert.NotContains(t, keys(date), models.OpDescendantsOf)

	flat := c.VisibleConditions(models.FieldDescriptor{Type: models.FieldTypeLink, Options: "public.project"})
	assert.NotContains(t, keys(flat), models.OpAncestorsOf)

	tree := c.VisibleConditions(models.FieldDescriptor{Type: models.FieldTypeLink, Options: "public.territory"})
	for _, entry := range c.NestedSetConditions() {
		assert.Contains(t, keys(tree), entry.Key)
	}
	assert.NotContains(t, keys(tree), models.OpGreaterThan)

	check := c.VisibleConditions(models.FieldDescriptor{Type: models.FieldTypeSelect, OriginalType: models.FieldTypeCheck})
	assert.Equal(t, []models.FilterOperator{models.OpEqual}, keys(check))
}

func TestCatalogAllowed(t *testing.T) {
	c, err := NewCatalog(Env{})
	require.NoError(t, err)

	assert.True(t, c.Allowed(models.FieldDescriptor{Type: models.FieldTypeDate}, models.OpBetween))
	assert.False(t, c.Allowed(models.FieldDescriptor{Type: models.FieldTypeDate}, models.OpLike))
	assert.False(t, c.Allowed(models.FieldDescriptor{Type: models.FieldTypeData}, "no such condition"))
}
