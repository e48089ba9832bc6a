package filter

import (
	"slices"
	"strings"

	"github.com/rebeliceyang/lazyfilter/internal/models"
)

var docStatusChoices = []models.Option{
	{Label: "Draft", Value: 0},
	{Label: "Submitted", Value: 1},
	{Label: "Cancelled", Value: 2},
}

var checkChoices = []models.Option{
	{Label: "No", Value: "No"},
	{Label: "Yes", Value: "Yes"},
}

var isChoices = []models.Option{
	{Label: "Set", Value: "set"},
	{Label: "Not Set", Value: "not set"},
}

// Adapter rewrites a field descriptor into the shape its value editor
// should take under a condition.
type Adapter struct {
	catalog *Catalog
}

// NewAdapter creates an adapter that checks conditions against catalog
func NewAdapter(catalog *Catalog) *Adapter {
	return &Adapter{catalog: catalog}
}

// Adapt returns the descriptor adapted for op. An explicit type other than
// FieldTypeUnknown wins over every collapse rule. A condition that is not
// allowed for the field leaves the descriptor untouched.
func (a *Adapter) Adapt(d models.FieldDescriptor, op models.FilterOperator, explicit models.FieldType) models.FieldDescriptor {
	if op != "" && a.catalog != nil && !a.catalog.Allowed(d, op) {
		return d
	}

	if d.OriginalType != models.FieldTypeUnknown {
		d.Type = d.OriginalType
		d.Options = d.OriginalOptions
		d.Choices = slices.Clone(d.OriginalChoices)
	} else {
		d.OriginalType = d.Type
		d.OriginalOptions = d.Options
		d.OriginalChoices = slices.Clone(d.Choices)
	}

	d.Description = ""
	d.Required = false
	d.IgnoreLinkValidation = true

	if explicit != models.FieldTypeUnknown {
		d.Type = explicit
		return d
	}

	switch {
	case d.Name == models.DocStatusField:
		d.Type = models.FieldTypeSelect
		d.Options = ""
		d.Choices = slices.Clone(docStatusChoices)
	case d.Type == models.FieldTypeCheck:
		d.Type = models.FieldTypeSelect
		d.Options = ""
		d.Choices = slices.Clone(checkChoices)
	case d.Type.IsFreeText():
		d.Type = models.FieldTypeData
	case d.Type == models.FieldTypeLink && !op.KeepsLink():
		d.Type = models.FieldTypeData
	}

	if d.Type == models.FieldTypeData && strings.EqualFold(d.Options, "email") {
		d.Options = ""
	}

	if op == models.OpBetween && d.Type.IsDate() {
		d.Type = models.FieldTypeDateRange
	}

	if op == models.OpTimespan {
		switch d.Type {
		case models.FieldTypeDate, models.FieldTypeDatetime, models.FieldTypeDateRange, models.FieldTypeSelect:
			d.Type = models.FieldTypeSelect
			d.Options = ""
			d.Choices = TimespanOptions(DefaultTimespanPeriods...)
		}
	}

	if op == models.OpIs {
		d.Type = models.FieldTypeSelect
		d.Options = ""
		d.Choices = slices.Clone(isChoices)
	}

	return d
}
