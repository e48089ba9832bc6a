package help

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/lazyfilter/internal/ui/theme"
)

// KeyBinding represents a keyboard shortcut
type KeyBinding struct {
	Key         string
	Description string
}

// Section is a titled group of key bindings
type Section struct {
	Title    string
	Bindings []KeyBinding
}

// GetGlobalKeys returns global key bindings
func GetGlobalKeys() []KeyBinding {
	return []KeyBinding{
		{"?", "Toggle help"},
		{"q, Ctrl+C", "Quit application"},
		{"Esc/Enter", "Dismiss error"},
		{"Tab", "Switch panel focus"},
		{"r, F5", "Reload field metadata"},
	}
}

// GetRecordTypeKeys returns key bindings of the record type list
func GetRecordTypeKeys() []KeyBinding {
	return []KeyBinding{
		{"↑/k", "Move up"},
		{"↓/j", "Move down"},
		{"/", "Search record types"},
		{"Enter", "Filter this record type"},
		{"•", "Recently opened"},
		{"⊂", "Hierarchical (nested set)"},
	}
}

// GetFilterKeys returns key bindings of the filter builder
func GetFilterKeys() []KeyBinding {
	return []KeyBinding{
		{"a, n", "Add filter"},
		{"e", "Change field"},
		{"o", "Change condition"},
		{"Enter", "Edit value"},
		{"d, x", "Remove filter"},
		{"h", "Hide or show filter"},
		{"Shift+C", "Remove all filters"},
		{"y", "Copy filters as JSON"},
		{"s", "Apply filters"},
	}
}

// GetValueKeys returns key bindings of the value editors
func GetValueKeys() []KeyBinding {
	return []KeyBinding{
		{"←/→, Space", "Cycle select choices"},
		{"↑/↓, Space", "Toggle multi-select choices"},
		{"Tab", "Switch date range end"},
		{"Enter/Esc", "Finish editing"},
	}
}

// Sections returns every help section in display order
func Sections() []Section {
	return []Section{
		{"Global", GetGlobalKeys()},
		{"Record Types", GetRecordTypeKeys()},
		{"Filters", GetFilterKeys()},
		{"Values", GetValueKeys()},
	}
}

// Render creates the help view
func Render(width, height int, th theme.Theme) string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(th.BorderFocused).
		Padding(1, 0)

	sectionStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(th.Info).
		Padding(0, 0, 0, 2)

	keyStyle := lipgloss.NewStyle().
		Foreground(th.Operator).
		Width(20)

	descStyle := lipgloss.NewStyle().
		Foreground(th.Foreground)

	var b strings.Builder

	b.WriteString(titleStyle.Render("lazyfilter - Keyboard Shortcuts"))
	b.WriteString("\n\n")

	for _, section := range Sections() {
		b.WriteString(sectionStyle.Render(section.Title))
		b.WriteString("\n")
		for _, kb := range section.Bindings {
			b.WriteString("  ")
			b.WriteString(keyStyle.Render(kb.Key))
			b.WriteString(descStyle.Render(kb.Description))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(lipgloss.NewStyle().Faint(true).Render("Press '?' or Esc to close help"))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(th.BorderFocused).
		Padding(1, 2).
		Width(max(width-4, 20)).
		Height(max(height-4, 5))

	return boxStyle.Render(b.String())
}
