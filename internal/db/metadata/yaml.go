package metadata

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rebeliceyang/lazyfilter/internal/models"
)

// schemaFile is the on-disk layout of a YAML schema:
//
//	record_types:
//	  - name: public.task
//	    fields:
//	      - {name: subject, type: Data}
//	      - {name: status, type: Select, options: "Open\nClosed"}
type schemaFile struct {
	RecordTypes []schemaRecordType `yaml:"record_types"`
}

type schemaRecordType struct {
	Name         string                   `yaml:"name"`
	Hierarchical bool                     `yaml:"hierarchical"`
	Fields       []models.FieldDescriptor `yaml:"fields"`
}

// YAMLSource serves field metadata from a YAML schema document
type YAMLSource struct {
	order  []RecordType
	fields map[string][]models.FieldDescriptor
}

// LoadYAMLSource reads a schema file
func LoadYAMLSource(path string) (*YAMLSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	return ParseYAMLSource(data)
}

// ParseYAMLSource parses a schema document. Select fields without explicit
// choices get them from their options.
func ParseYAMLSource(data []byte) (*YAMLSource, error) {
	var doc schemaFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}

	src := &YAMLSource{fields: make(map[string][]models.FieldDescriptor)}
	for _, rt := range doc.RecordTypes {
		if rt.Name == "" {
			return nil, fmt.Errorf("record type without a name")
		}
		if _, dup := src.fields[rt.Name]; dup {
			return nil, fmt.Errorf("duplicate record type %s", rt.Name)
		}
		for i := range rt.Fields {
			f := &rt.Fields[i]
			if f.Name == "" {
				return nil, fmt.Errorf("%s: field %d has no name", rt.Name, i)
			}
			if !f.Type.Known() {
				return nil, fmt.Errorf("%s.%s: missing or unknown field type", rt.Name, f.Name)
			}
			if f.Type == models.FieldTypeSelect && len(f.Choices) == 0 {
				f.Choices = models.ChoicesFromOptions(f.Options)
			}
		}
		src.order = append(src.order, RecordType{Name: rt.Name, Hierarchical: rt.Hierarchical})
		src.fields[rt.Name] = rt.Fields
	}
	return src, nil
}

// LoadFields implements Source
func (s *YAMLSource) LoadFields(_ context.Context, recordType string) ([]models.FieldDescriptor, error) {
	fields, ok := s.fields[recordType]
	if !ok {
		return nil, fmt.Errorf("record type %s not found", recordType)
	}
	out := make([]models.FieldDescriptor, len(fields))
	copy(out, fields)
	return out, nil
}

// RecordTypes implements Source
func (s *YAMLSource) RecordTypes(context.Context) ([]RecordType, error) {
	return append([]RecordType(nil), s.order...), nil
}
