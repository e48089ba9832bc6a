package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/lazyfilter/internal/ui/theme"
)

// Panel represents a UI panel
type Panel struct {
	Title   string
	Content string
	Width   int
	Height  int
	Focused bool
	Theme   theme.Theme
}

// View renders the panel
func (p *Panel) View() string {
	if p.Width <= 0 || p.Height <= 0 {
		return ""
	}

	borderColor := p.Theme.Border
	if p.Focused {
		borderColor = p.Theme.BorderFocused
	}
	style := lipgloss.NewStyle().
		Width(p.Width).
		Height(p.Height).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor)

	content := p.Content
	if p.Title != "" {
		titleStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1)
		if p.Focused {
			titleStyle = titleStyle.Foreground(p.Theme.BorderFocused)
		}
		content = titleStyle.Render(p.Title) + "\n" + content
	}

	return style.Render(content)
}
