package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"

	"github.com/rebeliceyang/lazyfilter/internal/models"
)

// Format is an output format for filter conditions
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatYAML Format = "yaml"
)

// ParseFormat resolves a format name, defaulting to JSON
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown export format %q", name)
}

// FormatForPath picks the format from a file extension
func FormatForPath(path string) Format {
	f, err := ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return FormatJSON
	}
	return f
}

func tuples(conds []models.FilterCondition) [][]any {
	out := make([][]any, len(conds))
	for i, c := range conds {
		out[i] = c.Tuple()
	}
	return out
}

// Write writes conds to w in format f
func Write(w io.Writer, conds []models.FilterCondition, f Format) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, conds)
	case FormatYAML:
		return WriteYAML(w, conds)
	default:
		return WriteJSON(w, conds)
	}
}

// WriteJSON writes conds as a JSON array of
// [doctype, fieldname, condition, value, hidden] tuples
func WriteJSON(w io.Writer, conds []models.FilterCondition) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(tuples(conds)); err != nil {
		return fmt.Errorf("failed to encode filters to JSON: %w", err)
	}
	return nil
}

// WriteYAML writes conds as a YAML list of tuples
func WriteYAML(w io.Writer, conds []models.FilterCondition) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(tuples(conds)); err != nil {
		return fmt.Errorf("failed to encode filters to YAML: %w", err)
	}
	return enc.Close()
}

// WriteCSV writes one row per condition. List values are joined with commas.
func WriteCSV(w io.Writer, conds []models.FilterCondition) error {
	writer := csv.NewWriter(w)

	header := []string{"Doctype", "Field", "Condition", "Value", "Hidden"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, c := range conds {
		row := []string{
			c.RecordType,
			c.Field,
			string(c.Operator),
			csvValue(c.Value),
			fmt.Sprintf("%t", c.Hidden),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func csvValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case []string:
		return strings.Join(val, ",")
	case []any:
		return strings.Join(cast.ToStringSlice(val), ",")
	}
	return cast.ToString(v)
}

// ExportToFile writes conds to path in the format matching its extension
func ExportToFile(conds []models.FilterCondition, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	if err := Write(file, conds, FormatForPath(path)); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close export file: %w", err)
	}
	return nil
}

// ReadJSON parses a JSON array of 4 or 5 element filter tuples
func ReadJSON(r io.Reader) ([]models.FilterCondition, error) {
	var raw [][]any
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode filters: %w", err)
	}

	conds := make([]models.FilterCondition, 0, len(raw))
	for i, t := range raw {
		if len(t) < 4 || len(t) > 5 {
			return nil, fmt.Errorf("filter %d: expected 4 or 5 elements, got %d", i, len(t))
		}
		c := models.FilterCondition{
			RecordType: cast.ToString(t[0]),
			Field:      cast.ToString(t[1]),
			Operator:   models.FilterOperator(cast.ToString(t[2])),
			Value:      t[3],
		}
		if c.Field == "" || c.Operator == "" {
			return nil, fmt.Errorf("filter %d: field and condition are required", i)
		}
		if len(t) == 5 {
			c.Hidden = cast.ToBool(t[4])
		}
		conds = append(conds, c)
	}
	return conds, nil
}

// LoadFile reads filter tuples from a JSON file
func LoadFile(path string) ([]models.FilterCondition, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open filter file: %w", err)
	}
	defer func() { _ = file.Close() }()
	return ReadJSON(file)
}
