// Package format renders filter values for display.
package format

import (
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/rebeliceyang/lazyfilter/internal/filter"
	"github.com/rebeliceyang/lazyfilter/internal/models"
)

// Formatter implements filter.ValueFormatter
type Formatter struct {
	DateLayout     string
	DatetimeLayout string
	TimeLayout     string
}

// New returns a formatter with ISO layouts
func New() *Formatter {
	return &Formatter{
		DateLayout:     time.DateOnly,
		DatetimeLayout: time.DateTime,
		TimeLayout:     time.TimeOnly,
	}
}

var _ filter.ValueFormatter = (*Formatter)(nil)

// Format renders value as shown for field d. Without ValueOnly the field
// label is prefixed.
func (f *Formatter) Format(value any, d models.FieldDescriptor, opts filter.FormatOptions) string {
	text := f.value(value, d)
	if opts.ValueOnly {
		return text
	}
	return d.DisplayLabel() + ": " + text
}

func (f *Formatter) value(value any, d models.FieldDescriptor) string {
	switch v := value.(type) {
	case nil:
		return ""
	case []string:
		return f.list(cast.ToSlice(v), d)
	case []any:
		return f.list(v, d)
	}
	return f.scalar(value, d)
}

func (f *Formatter) list(values []any, d models.FieldDescriptor) string {
	if d.Type == models.FieldTypeDateRange && len(values) == 2 {
		elem := d
		elem.Type = d.OriginalType
		if !elem.Type.IsDate() {
			elem.Type = models.FieldTypeDate
		}
		return f.scalar(values[0], elem) + " to " + f.scalar(values[1], elem)
	}

	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, f.scalar(v, d))
	}
	return strings.Join(parts, ", ")
}

func (f *Formatter) scalar(value any, d models.FieldDescriptor) string {
	switch d.Type {
	case models.FieldTypeDate:
		return f.timeValue(value, f.DateLayout)
	case models.FieldTypeDatetime:
		return f.timeValue(value, f.DatetimeLayout)
	case models.FieldTypeTime:
		return f.timeValue(value, f.TimeLayout)
	case models.FieldTypeSelect, models.FieldTypeMultiSelect:
		return choiceLabel(value, d.Choices)
	case models.FieldTypeCurrency:
		if n, err := cast.ToFloat64E(value); err == nil {
			return strconv.FormatFloat(n, 'f', 2, 64)
		}
	case models.FieldTypeFloat:
		if n, err := cast.ToFloat64E(value); err == nil {
			return strconv.FormatFloat(n, 'f', -1, 64)
		}
	case models.FieldTypeCheck:
		if cast.ToInt(value) == 1 {
			return "Yes"
		}
		return "No"
	}
	return cast.ToString(value)
}

// timeValue reformats a time or a parseable string; anything else is shown
// as is.
func (f *Formatter) timeValue(value any, layout string) string {
	if s, ok := value.(string); ok && strings.TrimSpace(s) == "" {
		return ""
	}
	t, err := cast.ToTimeE(value)
	if err != nil {
		return cast.ToString(value)
	}
	return t.Format(layout)
}

func choiceLabel(value any, choices []models.Option) string {
	text := cast.ToString(value)
	for _, c := range choices {
		if cast.ToString(c.Value) == text {
			return c.Label
		}
	}
	return text
}
