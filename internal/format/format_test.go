package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rebeliceyang/lazyfilter/internal/filter"
	"github.com/rebeliceyang/lazyfilter/internal/models"
)

var valueOnly = filter.FormatOptions{ValueOnly: true}

func TestFormatScalars(t *testing.T) {
	f := New()

	date := models.FieldDescriptor{Name: "due_date", Type: models.FieldTypeDate}
	assert.Equal(t, "2024-05-15", f.Format(time.Date(2024, 5, 15, 9, 0, 0, 0, time.UTC), date, valueOnly))
	assert.Equal(t, "2024-05-15", f.Format("2024-05-15", date, valueOnly))
	assert.Equal(t, "someday", f.Format("someday", date, valueOnly))
	assert.Equal(t, "", f.Format("", date, valueOnly))

	modified := models.FieldDescriptor{Name: "modified", Type: models.FieldTypeDatetime}
	assert.Equal(t, "2024-05-15 09:30:00", f.Format("2024-05-15T09:30:00Z", modified, valueOnly))

	amount := models.FieldDescriptor{Name: "amount", Type: models.FieldTypeCurrency}
	assert.Equal(t, "12.50", f.Format("12.5", amount, valueOnly))

	hours := models.FieldDescriptor{Name: "hours", Type: models.FieldTypeFloat}
	assert.Equal(t, "1.25", f.Format(1.25, hours, valueOnly))

	assert.Equal(t, "Yes", f.Format(1, models.FieldDescriptor{Type: models.FieldTypeCheck}, valueOnly))
	assert.Equal(t, "42", f.Format(42, models.FieldDescriptor{Type: models.FieldTypeInt}, valueOnly))
	assert.Equal(t, "", f.Format(nil, date, valueOnly))
}

func TestFormatChoicesAndLists(t *testing.T) {
	f := New()
	status := models.FieldDescriptor{
		Name: "status", Label: "Status", Type: models.FieldTypeMultiSelect,
		Choices: []models.Option{{Label: "Open", Value: "open"}, {Label: "Closed", Value: "closed"}},
	}

	assert.Equal(t, "Open", f.Format("open", status, valueOnly))
	assert.Equal(t, "Open, Closed, other", f.Format([]string{"open", "closed", "other"}, status, valueOnly))
	assert.Equal(t, "Status: Closed", f.Format("closed", status, filter.FormatOptions{}))

	docstatus := models.FieldDescriptor{Name: "docstatus", Type: models.FieldTypeSelect,
		Choices: []models.Option{{Label: "Draft", Value: 0}, {Label: "Submitted", Value: 1}}}
	assert.Equal(t, "Submitted", f.Format(1, docstatus, valueOnly))
}

func TestFormatDateRange(t *testing.T) {
	f := New()
	d := models.FieldDescriptor{Name: "due_date", Type: models.FieldTypeDateRange, OriginalType: models.FieldTypeDate}

	assert.Equal(t, "2024-01-01 to 2024-01-31", f.Format([]string{"2024-01-01", "2024-01-31"}, d, valueOnly))
	assert.Equal(t, "due_date: 2024-01-01 to 2024-01-31", f.Format([]any{"2024-01-01", "2024-01-31"}, d, filter.FormatOptions{}))
}

func TestFormatterDrivesFilterDisplay(t *testing.T) {
	check := models.FieldDescriptor{Name: "is_urgent", Type: models.FieldTypeSelect, OriginalType: models.FieldTypeCheck,
		Choices: []models.Option{{Label: "No", Value: "No"}, {Label: "Yes", Value: "Yes"}}}
	assert.Equal(t, "Yes", filter.FormattedValue(New(), check, 1))
}
