// Package controls holds the terminal value editors built for filter rows.
// Controls are updated from resolver goroutines while the UI renders them,
// so each one guards its own state.
package controls

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/lazyfilter/internal/filter"
	"github.com/rebeliceyang/lazyfilter/internal/models"
	"github.com/rebeliceyang/lazyfilter/internal/ui/theme"
)

// Control is an editable control that can also be driven by key presses
type Control interface {
	filter.EditableControl
	Update(msg tea.KeyMsg) tea.Cmd
	View() string
	Focus()
	Blur()
}

// Factory builds controls for field descriptors
type Factory struct {
	Theme theme.Theme
}

var _ filter.ControlFactory = (*Factory)(nil)

// NewFactory creates a control factory rendering with th
func NewFactory(th theme.Theme) *Factory {
	return &Factory{Theme: th}
}

// NewControl picks the control for the descriptor type
func (f *Factory) NewControl(d models.FieldDescriptor) filter.EditableControl {
	switch d.Type {
	case models.FieldTypeSelect:
		return NewSelectControl(d, f.Theme)
	case models.FieldTypeMultiSelect:
		return NewMultiSelectControl(d, f.Theme)
	case models.FieldTypeDateRange:
		return NewDateRangeControl(d, f.Theme)
	default:
		return NewTextControl(d, f.Theme)
	}
}

// choicesFor returns the explicit choices or the ones parsed from options
func choicesFor(d models.FieldDescriptor) []models.Option {
	if len(d.Choices) > 0 {
		return append([]models.Option(nil), d.Choices...)
	}
	return models.ChoicesFromOptions(d.Options)
}

func renderHint(th theme.Theme, hint string) string {
	if hint == "" {
		return ""
	}
	return "\n" + lipgloss.NewStyle().Foreground(th.Hint).Italic(true).Render(hint)
}
