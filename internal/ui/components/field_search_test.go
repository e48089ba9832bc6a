package components

import (
	"testing"

	"github.com/rebeliceyang/lazyfilter/internal/models"
)

func TestParseSearchQuery_Simple(t *testing.T) {
	q := ParseSearchQuery("due")

	if q.Pattern != "due" {
		t.Errorf("expected pattern 'due', got '%s'", q.Pattern)
	}
	if q.Negate {
		t.Error("expected Negate=false")
	}
	if q.TypeFilter != "" {
		t.Errorf("expected empty TypeFilter, got '%s'", q.TypeFilter)
	}
}

func TestParseSearchQuery_NegateWithType(t *testing.T) {
	q := ParseSearchQuery("!l:proj")

	if q.Pattern != "proj" {
		t.Errorf("expected pattern 'proj', got '%s'", q.Pattern)
	}
	if !q.Negate {
		t.Error("expected Negate=true")
	}
	if q.TypeFilter != "link" {
		t.Errorf("expected TypeFilter 'link', got '%s'", q.TypeFilter)
	}
}

func TestParseSearchQuery_LongPrefix(t *testing.T) {
	q := ParseSearchQuery("Date:mod")

	if q.Pattern != "mod" {
		t.Errorf("expected pattern 'mod', got '%s'", q.Pattern)
	}
	if q.TypeFilter != "date" {
		t.Errorf("expected TypeFilter 'date', got '%s'", q.TypeFilter)
	}
}

func TestFuzzyMatch(t *testing.T) {
	tests := []struct {
		pattern, target string
		want            bool
	}{
		{"", "anything", true},
		{"dd", "due_date", true},
		{"DUE", "due_date", true},
		{"xyz", "due_date", false},
		{"dateu", "due_date", false},
	}
	for _, tt := range tests {
		got, _ := FuzzyMatch(tt.pattern, tt.target)
		if got != tt.want {
			t.Errorf("FuzzyMatch(%q, %q) = %v, want %v", tt.pattern, tt.target, got, tt.want)
		}
	}

	_, pos := FuzzyMatch("dd", "due_date")
	if len(pos) != 2 || pos[0] != 0 || pos[1] != 4 {
		t.Errorf("unexpected positions %v", pos)
	}
}

func testFields() []models.FieldDescriptor {
	return []models.FieldDescriptor{
		{Name: "subject", Label: "Subject", Type: models.FieldTypeData},
		{Name: "due_date", Label: "Due Date", Type: models.FieldTypeDate},
		{Name: "modified", Label: "Last Updated", Type: models.FieldTypeDatetime},
		{Name: "project", Label: "Project", Type: models.FieldTypeLink},
		{Name: "status", Label: "Status", Type: models.FieldTypeSelect},
		{Name: "hours", Label: "Hours", Type: models.FieldTypeFloat},
	}
}

func names(fields []models.FieldDescriptor) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Name
	}
	return out
}

func TestFilterFields(t *testing.T) {
	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"subject", "due_date", "modified", "project", "status", "hours"}},
		{"d:", []string{"due_date", "modified"}},
		{"d:upd", []string{"modified"}},
		{"n:", []string{"hours"}},
		{"!d:", []string{"subject", "project", "status", "hours"}},
		{"!d:due", []string{"modified"}},
		{"!s", []string{"due_date", "project"}},
		{"!", []string{"subject", "due_date", "modified", "project", "status", "hours"}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := names(FilterFields(testFields(), ParseSearchQuery(tt.query)))
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("got %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}
