package controls

import (
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cast"

	"github.com/rebeliceyang/lazyfilter/internal/models"
	"github.com/rebeliceyang/lazyfilter/internal/ui/theme"
)

// MultiSelectControl toggles any number of choices
type MultiSelectControl struct {
	desc  models.FieldDescriptor
	theme theme.Theme

	mu       sync.Mutex
	choices  []models.Option
	selected []bool
	cursor   int
	focused  bool
	hint     string
}

// NewMultiSelectControl creates a multi-select control for d
func NewMultiSelectControl(d models.FieldDescriptor, th theme.Theme) *MultiSelectControl {
	choices := choicesFor(d)
	return &MultiSelectControl{
		desc:     d,
		theme:    th,
		choices:  choices,
		selected: make([]bool, len(choices)),
	}
}

func (c *MultiSelectControl) Descriptor() models.FieldDescriptor { return c.desc }

// Value returns the selected values in choice order
func (c *MultiSelectControl) Value() any {
	c.mu.Lock()
	defer c.mu.Unlock()
	values := []string{}
	for i, on := range c.selected {
		if on {
			values = append(values, cast.ToString(c.choices[i].Value))
		}
	}
	return values
}

// SetValue replaces the selection. Values that are not choices are
// appended as extra choices so that saved filters survive option changes.
func (c *MultiSelectControl) SetValue(v any) error {
	var values []string
	switch val := v.(type) {
	case nil:
	case string:
		for _, part := range strings.Split(val, ",") {
			if part = strings.TrimSpace(part); part != "" {
				values = append(values, part)
			}
		}
	default:
		list, err := cast.ToStringSliceE(v)
		if err != nil {
			return err
		}
		values = list
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.selected {
		c.selected[i] = false
	}
	for _, value := range values {
		i := matchChoice(c.choices, value)
		if i < 0 {
			c.choices = append(c.choices, models.Option{Label: value, Value: value})
			c.selected = append(c.selected, false)
			i = len(c.choices) - 1
		}
		c.selected[i] = true
	}
	return nil
}

func (c *MultiSelectControl) SetHint(hint string) {
	c.mu.Lock()
	c.hint = hint
	c.mu.Unlock()
}

func (c *MultiSelectControl) Hint() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hint
}

func (c *MultiSelectControl) Update(msg tea.KeyMsg) tea.Cmd {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.choices) == 0 {
		return nil
	}
	switch msg.String() {
	case "up", "k":
		if c.cursor > 0 {
			c.cursor--
		}
	case "down", "j":
		if c.cursor < len(c.choices)-1 {
			c.cursor++
		}
	case " ", "x":
		c.selected[c.cursor] = !c.selected[c.cursor]
	}
	return nil
}

func (c *MultiSelectControl) View() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.choices) == 0 {
		return lipgloss.NewStyle().Foreground(c.theme.Muted).Render("(no choices)") + renderHint(c.theme, c.hint)
	}
	cursorStyle := lipgloss.NewStyle().Background(c.theme.Selection)
	valueStyle := lipgloss.NewStyle().Foreground(c.theme.Value)

	var b strings.Builder
	for i, o := range c.choices {
		box := "[ ] "
		if c.selected[i] {
			box = "[x] "
		}
		line := box + valueStyle.Render(o.Label)
		if c.focused && i == c.cursor {
			line = cursorStyle.Render(line)
		}
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(line)
	}
	return b.String() + renderHint(c.theme, c.hint)
}

func (c *MultiSelectControl) Focus() {
	c.mu.Lock()
	c.focused = true
	c.mu.Unlock()
}

func (c *MultiSelectControl) Blur() {
	c.mu.Lock()
	c.focused = false
	c.mu.Unlock()
}
