package controls

import (
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cast"

	"github.com/rebeliceyang/lazyfilter/internal/models"
	"github.com/rebeliceyang/lazyfilter/internal/ui/theme"
)

// TextControl edits a value as a single line of text
type TextControl struct {
	desc  models.FieldDescriptor
	theme theme.Theme

	mu    sync.Mutex
	input textinput.Model
	hint  string
}

// NewTextControl creates a text control for d
func NewTextControl(d models.FieldDescriptor, th theme.Theme) *TextControl {
	ti := textinput.New()
	ti.Placeholder = placeholderFor(d)
	ti.CharLimit = 512
	ti.Width = 40
	return &TextControl{desc: d, theme: th, input: ti}
}

func placeholderFor(d models.FieldDescriptor) string {
	switch d.Type {
	case models.FieldTypeDate:
		return "YYYY-MM-DD"
	case models.FieldTypeDatetime:
		return "YYYY-MM-DD HH:MM:SS"
	case models.FieldTypeTime:
		return "HH:MM:SS"
	case models.FieldTypeInt, models.FieldTypeFloat, models.FieldTypeCurrency:
		return "number"
	case models.FieldTypeLink:
		if d.Options != "" {
			return d.Options
		}
		return "record name"
	case models.FieldTypeCheck:
		return "1 or 0"
	case models.FieldTypeColor:
		return "#rrggbb"
	}
	return d.DisplayLabel()
}

func (c *TextControl) Descriptor() models.FieldDescriptor { return c.desc }

// Value returns the raw text
func (c *TextControl) Value() any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.input.Value()
}

// SetValue stores v as text. Lists are joined with commas.
func (c *TextControl) SetValue(v any) error {
	var text string
	switch val := v.(type) {
	case nil:
	case []string:
		text = strings.Join(val, ", ")
	case []any:
		text = strings.Join(cast.ToStringSlice(val), ", ")
	default:
		s, err := cast.ToStringE(v)
		if err != nil {
			return err
		}
		text = s
	}
	c.mu.Lock()
	c.input.SetValue(text)
	c.mu.Unlock()
	return nil
}

func (c *TextControl) SetHint(hint string) {
	c.mu.Lock()
	c.hint = hint
	c.mu.Unlock()
}

func (c *TextControl) Hint() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hint
}

func (c *TextControl) Update(msg tea.KeyMsg) tea.Cmd {
	c.mu.Lock()
	defer c.mu.Unlock()
	var cmd tea.Cmd
	c.input, cmd = c.input.Update(msg)
	return cmd
}

func (c *TextControl) View() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.input.View() + renderHint(c.theme, c.hint)
}

func (c *TextControl) Focus() {
	c.mu.Lock()
	c.input.Focus()
	c.mu.Unlock()
}

func (c *TextControl) Blur() {
	c.mu.Lock()
	c.input.Blur()
	c.mu.Unlock()
}
