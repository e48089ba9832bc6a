package filter

import (
	"strings"

	"github.com/spf13/cast"

	"github.com/rebeliceyang/lazyfilter/internal/models"
)

var docStatusLabels = map[int]string{0: "Draft", 1: "Submitted", 2: "Cancelled"}

// SelectedValue turns the raw value of a control into the canonical value
// for op. Pattern values get surrounding wildcards unless they already
// start or end with one; a "%" inside the text is passed through as is.
func SelectedValue(raw any, op models.FilterOperator, d models.FieldDescriptor) any {
	val := raw
	if s, ok := val.(string); ok {
		val = strings.TrimSpace(s)
	}

	if op == models.OpIs && isEmpty(val) && len(d.Choices) > 0 {
		val = d.Choices[0].Value
	}

	if d.OriginalType == models.FieldTypeCheck {
		if val == "Yes" {
			val = 1
		} else {
			val = 0
		}
	}

	switch {
	case op.IsPattern():
		if s, ok := val.(string); ok && s != "" && !strings.HasPrefix(s, "%") && !strings.HasSuffix(s, "%") {
			val = "%" + s + "%"
		}
	case op.IsMembership():
		switch v := val.(type) {
		case string:
			if v != "" {
				val = splitList(v)
			}
		case []string:
			items := make([]string, len(v))
			for i, item := range v {
				items[i] = strings.TrimSpace(item)
			}
			val = items
		}
	}

	if s, ok := val.(string); ok && s == "%" {
		val = ""
	}
	return val
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

func isEmpty(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case []string:
		return len(val) == 0
	}
	return false
}

// FormattedValue renders a canonical value for display
func FormattedValue(f ValueFormatter, d models.FieldDescriptor, value any) string {
	if d.Name == models.DocStatusField {
		if code, err := cast.ToIntE(value); err == nil {
			if label, ok := docStatusLabels[code]; ok {
				value = label
			}
		}
	} else if d.OriginalType == models.FieldTypeCheck {
		if cast.ToInt(value) == 1 {
			value = "Yes"
		} else {
			value = "No"
		}
	}

	if f == nil {
		return cast.ToString(value)
	}
	return f.Format(value, d, FormatOptions{ValueOnly: true})
}

// DefaultCondition is the condition preselected for a newly picked field
func DefaultCondition(t models.FieldType) models.FilterOperator {
	switch {
	case t == models.FieldTypeData:
		return models.OpLike
	case t.IsDate():
		return models.OpBetween
	default:
		return models.OpEqual
	}
}
