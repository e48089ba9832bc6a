package controls

import (
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cast"

	"github.com/rebeliceyang/lazyfilter/internal/models"
	"github.com/rebeliceyang/lazyfilter/internal/ui/theme"
)

// DateRangeControl edits a from/to pair of dates
type DateRangeControl struct {
	desc  models.FieldDescriptor
	theme theme.Theme

	mu     sync.Mutex
	from   textinput.Model
	to     textinput.Model
	active int
	hint   string
}

// NewDateRangeControl creates a date range control for d
func NewDateRangeControl(d models.FieldDescriptor, th theme.Theme) *DateRangeControl {
	newInput := func(placeholder string) textinput.Model {
		ti := textinput.New()
		ti.Placeholder = placeholder
		ti.CharLimit = 32
		ti.Width = 14
		return ti
	}
	return &DateRangeControl{
		desc:  d,
		theme: th,
		from:  newInput("from"),
		to:    newInput("to"),
	}
}

func (c *DateRangeControl) Descriptor() models.FieldDescriptor { return c.desc }

// Value returns []string{from, to}, or "" when both ends are empty
func (c *DateRangeControl) Value() any {
	c.mu.Lock()
	defer c.mu.Unlock()
	from := strings.TrimSpace(c.from.Value())
	to := strings.TrimSpace(c.to.Value())
	if from == "" && to == "" {
		return ""
	}
	return []string{from, to}
}

// SetValue accepts a two element list or the text "a to b" / "a,b"
func (c *DateRangeControl) SetValue(v any) error {
	var from, to string
	switch val := v.(type) {
	case nil:
	case string:
		from, to = splitRange(val)
	default:
		list, err := cast.ToStringSliceE(v)
		if err != nil {
			return err
		}
		if len(list) > 0 {
			from = list[0]
		}
		if len(list) > 1 {
			to = list[1]
		}
	}
	c.mu.Lock()
	c.from.SetValue(strings.TrimSpace(from))
	c.to.SetValue(strings.TrimSpace(to))
	c.mu.Unlock()
	return nil
}

func splitRange(s string) (string, string) {
	if a, b, ok := strings.Cut(s, " to "); ok {
		return a, b
	}
	if a, b, ok := strings.Cut(s, ","); ok {
		return a, b
	}
	return s, ""
}

func (c *DateRangeControl) SetHint(hint string) {
	c.mu.Lock()
	c.hint = hint
	c.mu.Unlock()
}

func (c *DateRangeControl) Hint() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hint
}

// Update edits the active end. Tab moves between the two.
func (c *DateRangeControl) Update(msg tea.KeyMsg) tea.Cmd {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch msg.String() {
	case "tab", "shift+tab":
		c.active = 1 - c.active
		if c.active == 0 {
			c.to.Blur()
			return c.from.Focus()
		}
		c.from.Blur()
		return c.to.Focus()
	}
	var cmd tea.Cmd
	if c.active == 0 {
		c.from, cmd = c.from.Update(msg)
	} else {
		c.to, cmd = c.to.Update(msg)
	}
	return cmd
}

func (c *DateRangeControl) View() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	sep := lipgloss.NewStyle().Foreground(c.theme.Muted).Render(" to ")
	return c.from.View() + sep + c.to.View() + renderHint(c.theme, c.hint)
}

func (c *DateRangeControl) Focus() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == 0 {
		c.from.Focus()
	} else {
		c.to.Focus()
	}
}

func (c *DateRangeControl) Blur() {
	c.mu.Lock()
	c.from.Blur()
	c.to.Blur()
	c.mu.Unlock()
}
