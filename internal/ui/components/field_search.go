package components

import (
	"strings"

	"github.com/rebeliceyang/lazyfilter/internal/models"
)

// SearchQuery represents a parsed field search query
type SearchQuery struct {
	Pattern    string // The search pattern (after removing prefix/type)
	Negate     bool   // True if query starts with !
	TypeFilter string // Normalized kind filter (e.g., "date", "link")
}

// Kind prefixes, long forms first so "date:" is not read as "d:"
var typePrefixes = []struct {
	prefix string
	kind   string
}{
	{"date:", "date"},
	{"link:", "link"},
	{"select:", "select"},
	{"check:", "check"},
	{"number:", "number"},
	{"text:", "text"},
	{"d:", "date"},
	{"l:", "link"},
	{"s:", "select"},
	{"c:", "check"},
	{"n:", "number"},
	{"t:", "text"},
}

// ParseSearchQuery parses a search query string into structured form
// Examples:
//   - "due" → {Pattern: "due", Negate: false, TypeFilter: ""}
//   - "!owner" → {Pattern: "owner", Negate: true, TypeFilter: ""}
//   - "d:mod" → {Pattern: "mod", Negate: false, TypeFilter: "date"}
//   - "!l:proj" → {Pattern: "proj", Negate: true, TypeFilter: "link"}
func ParseSearchQuery(query string) SearchQuery {
	q := SearchQuery{}

	if strings.HasPrefix(query, "!") {
		q.Negate = true
		query = query[1:]
	}

	queryLower := strings.ToLower(query)
	for _, p := range typePrefixes {
		if strings.HasPrefix(queryLower, p.prefix) {
			q.TypeFilter = p.kind
			query = query[len(p.prefix):]
			break
		}
	}

	q.Pattern = query
	return q
}

// FuzzyMatch performs fuzzy subsequence matching
// Returns whether the pattern matches and the positions of matched characters
// Matching is case-insensitive
func FuzzyMatch(pattern, target string) (bool, []int) {
	if pattern == "" {
		return true, []int{}
	}

	patternLower := strings.ToLower(pattern)
	targetLower := strings.ToLower(target)

	positions := make([]int, 0, len(pattern))
	patternIdx := 0

	for i := 0; i < len(targetLower) && patternIdx < len(patternLower); i++ {
		if targetLower[i] == patternLower[patternIdx] {
			positions = append(positions, i)
			patternIdx++
		}
	}

	if patternIdx == len(patternLower) {
		return true, positions
	}
	return false, nil
}

// FieldKind groups field types for the search prefixes
func FieldKind(t models.FieldType) string {
	switch {
	case t.IsDate(), t == models.FieldTypeDateRange, t == models.FieldTypeTime:
		return "date"
	case t == models.FieldTypeLink, t == models.FieldTypeDynamicLink:
		return "link"
	case t == models.FieldTypeSelect, t == models.FieldTypeMultiSelect:
		return "select"
	case t == models.FieldTypeCheck:
		return "check"
	case t == models.FieldTypeInt, t == models.FieldTypeFloat, t == models.FieldTypeCurrency:
		return "number"
	default:
		return "text"
	}
}

// FieldMatchesType checks if a field matches the given kind filter
// Empty filter matches all fields
func FieldMatchesType(f models.FieldDescriptor, typeFilter string) bool {
	return typeFilter == "" || FieldKind(f.Type) == typeFilter
}

// FilterFields returns the fields matching query, in input order. The
// pattern is tried against both name and label.
func FilterFields(fields []models.FieldDescriptor, query SearchQuery) []models.FieldDescriptor {
	var matches []models.FieldDescriptor
	for _, f := range fields {
		typeMatches := FieldMatchesType(f, query.TypeFilter)

		patternMatches := true
		if query.Pattern != "" {
			byName, _ := FuzzyMatch(query.Pattern, f.Name)
			byLabel, _ := FuzzyMatch(query.Pattern, f.Label)
			patternMatches = byName || byLabel
		}

		include := typeMatches && patternMatches
		if query.Negate {
			switch {
			case query.Pattern == "" && query.TypeFilter == "":
				include = true
			case query.Pattern == "":
				include = !typeMatches
			default:
				// A kind filter stays positive; only the pattern is negated
				include = typeMatches && !patternMatches
			}
		}
		if include {
			matches = append(matches, f)
		}
	}
	return matches
}
