package controls

import (
	"fmt"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cast"

	"github.com/rebeliceyang/lazyfilter/internal/models"
	"github.com/rebeliceyang/lazyfilter/internal/ui/theme"
)

// SelectControl picks one value from a fixed choice list. Index -1 means
// nothing selected.
type SelectControl struct {
	desc  models.FieldDescriptor
	theme theme.Theme

	mu      sync.Mutex
	choices []models.Option
	index   int
	focused bool
	hint    string
}

// NewSelectControl creates a select control for d
func NewSelectControl(d models.FieldDescriptor, th theme.Theme) *SelectControl {
	return &SelectControl{desc: d, theme: th, choices: choicesFor(d), index: -1}
}

func (c *SelectControl) Descriptor() models.FieldDescriptor { return c.desc }

// Value returns the selected choice value or "" when nothing is selected
func (c *SelectControl) Value() any {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.index < 0 {
		return ""
	}
	return c.choices[c.index].Value
}

// SetValue selects the choice whose value or label matches v
func (c *SelectControl) SetValue(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	text := strings.TrimSpace(cast.ToString(v))
	if text == "" {
		c.index = -1
		return nil
	}
	i := matchChoice(c.choices, text)
	if i < 0 {
		return fmt.Errorf("%q is not a valid choice for %s", text, c.desc.DisplayLabel())
	}
	c.index = i
	return nil
}

func matchChoice(choices []models.Option, text string) int {
	for i, o := range choices {
		if cast.ToString(o.Value) == text {
			return i
		}
	}
	for i, o := range choices {
		if strings.EqualFold(o.Label, text) {
			return i
		}
	}
	return -1
}

func (c *SelectControl) SetHint(hint string) {
	c.mu.Lock()
	c.hint = hint
	c.mu.Unlock()
}

func (c *SelectControl) Hint() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hint
}

// Update cycles through the choices
func (c *SelectControl) Update(msg tea.KeyMsg) tea.Cmd {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.choices)
	if n == 0 {
		return nil
	}
	switch msg.String() {
	case "right", "l", " ", "tab":
		c.index = (c.index + 1) % n
	case "left", "h", "shift+tab":
		if c.index <= 0 {
			c.index = n - 1
		} else {
			c.index--
		}
	case "backspace", "delete":
		c.index = -1
	}
	return nil
}

func (c *SelectControl) View() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.choices) == 0 {
		return lipgloss.NewStyle().Foreground(c.theme.Muted).Render("(no choices)") + renderHint(c.theme, c.hint)
	}
	selected := lipgloss.NewStyle().Foreground(c.theme.Value).Bold(true)
	normal := lipgloss.NewStyle().Foreground(c.theme.Muted)
	if c.focused {
		selected = selected.Background(c.theme.Selection)
	}

	parts := make([]string, len(c.choices))
	for i, o := range c.choices {
		if i == c.index {
			parts[i] = selected.Render("[" + o.Label + "]")
		} else {
			parts[i] = normal.Render(" " + o.Label + " ")
		}
	}
	return strings.Join(parts, " ") + renderHint(c.theme, c.hint)
}

func (c *SelectControl) Focus() {
	c.mu.Lock()
	c.focused = true
	c.mu.Unlock()
}

func (c *SelectControl) Blur() {
	c.mu.Lock()
	c.focused = false
	c.mu.Unlock()
}
