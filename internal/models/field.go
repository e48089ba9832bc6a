package models

import (
	"fmt"
	"slices"
	"strings"
)

// FieldType is the declared type of a field. The set is closed: adding a
// type means adding a row to fieldTypeInfo.
type FieldType int

const (
	FieldTypeUnknown FieldType = iota
	FieldTypeData
	FieldTypeText
	FieldTypeSmallText
	FieldTypeTextEditor
	FieldTypeCode
	FieldTypeTag
	FieldTypeComments
	FieldTypeDynamicLink
	FieldTypeReadOnly
	FieldTypeAssign
	FieldTypeSelect
	FieldTypeMultiSelect
	FieldTypeCheck
	FieldTypeDate
	FieldTypeDatetime
	FieldTypeDateRange
	FieldTypeTime
	FieldTypeLink
	FieldTypeInt
	FieldTypeFloat
	FieldTypeCurrency
	FieldTypeColor

	fieldTypeCount
)

type fieldKind int

const (
	kindOther fieldKind = iota
	kindFreeText
	kindDate
)

var fieldTypeInfo = [...]struct {
	name string
	kind fieldKind
}{
	FieldTypeUnknown:     {"", kindOther},
	FieldTypeData:        {"Data", kindOther},
	FieldTypeText:        {"Text", kindFreeText},
	FieldTypeSmallText:   {"Small Text", kindFreeText},
	FieldTypeTextEditor:  {"Text Editor", kindFreeText},
	FieldTypeCode:        {"Code", kindFreeText},
	FieldTypeTag:         {"Tag", kindFreeText},
	FieldTypeComments:    {"Comments", kindFreeText},
	FieldTypeDynamicLink: {"Dynamic Link", kindFreeText},
	FieldTypeReadOnly:    {"Read Only", kindFreeText},
	FieldTypeAssign:      {"Assign", kindFreeText},
	FieldTypeSelect:      {"Select", kindOther},
	FieldTypeMultiSelect: {"MultiSelect", kindOther},
	FieldTypeCheck:       {"Check", kindOther},
	FieldTypeDate:        {"Date", kindDate},
	FieldTypeDatetime:    {"Datetime", kindDate},
	FieldTypeDateRange:   {"DateRange", kindOther},
	FieldTypeTime:        {"Time", kindOther},
	FieldTypeLink:        {"Link", kindOther},
	FieldTypeInt:         {"Int", kindOther},
	FieldTypeFloat:       {"Float", kindOther},
	FieldTypeCurrency:    {"Currency", kindOther},
	FieldTypeColor:       {"Color", kindOther},
}

// Fails to compile when a FieldType constant has no fieldTypeInfo row.
var _ = [1]struct{}{}[len(fieldTypeInfo)-int(fieldTypeCount)]

func (t FieldType) String() string {
	if t < 0 || t >= fieldTypeCount {
		return fmt.Sprintf("FieldType(%d)", int(t))
	}
	return fieldTypeInfo[t].name
}

// Known reports whether t is one of the declared field types.
func (t FieldType) Known() bool {
	return t > FieldTypeUnknown && t < fieldTypeCount
}

// IsFreeText reports whether t is a long or free-form text variant that
// filters as plain Data.
func (t FieldType) IsFreeText() bool {
	return t.Known() && fieldTypeInfo[t].kind == kindFreeText
}

// IsDate reports whether t is Date or Datetime.
func (t FieldType) IsDate() bool {
	return t.Known() && fieldTypeInfo[t].kind == kindDate
}

// MarshalText implements encoding.TextMarshaler
func (t FieldType) MarshalText() ([]byte, error) {
	if !t.Known() {
		return nil, fmt.Errorf("unknown field type: %d", int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (t *FieldType) UnmarshalText(text []byte) error {
	parsed, err := ParseFieldType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseFieldType resolves a field type name. Matching ignores case and
// surrounding whitespace.
func ParseFieldType(name string) (FieldType, error) {
	name = strings.TrimSpace(name)
	for t := FieldTypeData; t < fieldTypeCount; t++ {
		if strings.EqualFold(fieldTypeInfo[t].name, name) {
			return t, nil
		}
	}
	return FieldTypeUnknown, fmt.Errorf("unknown field type %q", name)
}

// AllFieldTypes returns every known field type in declaration order
func AllFieldTypes() []FieldType {
	types := make([]FieldType, 0, fieldTypeCount-1)
	for t := FieldTypeData; t < fieldTypeCount; t++ {
		types = append(types, t)
	}
	return types
}

// DocStatusField is the name of the workflow-status field
const DocStatusField = "docstatus"

// Option is one enumerated choice of a select-like field
type Option struct {
	Label string `yaml:"label" json:"label"`
	Value any    `yaml:"value" json:"value"`
}

// FieldDescriptor is the metadata of one field of a record type
type FieldDescriptor struct {
	Parent string    `yaml:"-"`
	Name   string    `yaml:"name"`
	Label  string    `yaml:"label"`
	Type   FieldType `yaml:"type"`

	// Options is the raw option metadata: a link target record type, a
	// validation hint such as "Email", or a newline separated choice list.
	Options string   `yaml:"options"`
	Choices []Option `yaml:"choices"`

	// Set on the first adaptation and never changed afterwards.
	OriginalType    FieldType `yaml:"-"`
	OriginalOptions string    `yaml:"-"`
	OriginalChoices []Option  `yaml:"-"`

	Description          string `yaml:"description"`
	Required             bool   `yaml:"required"`
	ReadOnly             bool   `yaml:"read_only"`
	Hidden               bool   `yaml:"hidden"`
	IsFilter             bool   `yaml:"-"`
	IgnoreLinkValidation bool   `yaml:"-"`
}

// DisplayLabel returns the label, falling back to the field name
func (d FieldDescriptor) DisplayLabel() string {
	if d.Label != "" {
		return d.Label
	}
	return d.Name
}

// SameShape reports whether two descriptors would produce the same editing
// control: same name, type, parent and options.
func (d FieldDescriptor) SameShape(other FieldDescriptor) bool {
	return d.Name == other.Name &&
		d.Type == other.Type &&
		d.Parent == other.Parent &&
		d.Options == other.Options &&
		slices.Equal(d.Choices, other.Choices)
}

// FieldShape is the editable representation returned by a remote resolver
type FieldShape struct {
	Type    FieldType `json:"fieldtype" mapstructure:"fieldtype"`
	Options string    `json:"options" mapstructure:"options"`
	Choices []Option  `json:"choices,omitempty" mapstructure:"choices"`
}

// ChoicesFromOptions splits a newline separated option list into choices
// whose label and value are the same text. Blank lines are skipped.
func ChoicesFromOptions(options string) []Option {
	var choices []Option
	for _, line := range strings.Split(options, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		choices = append(choices, Option{Label: line, Value: line})
	}
	return choices
}
