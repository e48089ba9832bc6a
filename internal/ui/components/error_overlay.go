package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/lazyfilter/internal/ui/theme"
)

// ErrorOverlay shows a dismissable error box over the main view
type ErrorOverlay struct {
	Theme   theme.Theme
	Width   int
	title   string
	message string
}

// NewErrorOverlay creates a hidden error overlay
func NewErrorOverlay(th theme.Theme) *ErrorOverlay {
	return &ErrorOverlay{Theme: th, Width: 60}
}

// SetError shows the overlay with the given error
func (e *ErrorOverlay) SetError(title, message string) {
	e.title = title
	e.message = message
}

// Dismiss hides the overlay
func (e *ErrorOverlay) Dismiss() {
	e.title = ""
	e.message = ""
}

// Visible reports whether an error is shown
func (e *ErrorOverlay) Visible() bool {
	return e.message != ""
}

// View renders the overlay
func (e *ErrorOverlay) View() string {
	if !e.Visible() {
		return ""
	}
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(e.Theme.Error)
	hintStyle := lipgloss.NewStyle().
		Foreground(e.Theme.Muted).
		Italic(true)

	title := e.title
	if title == "" {
		title = "Error"
	}
	body := strings.Join([]string{
		titleStyle.Render(title),
		"",
		e.message,
		"",
		hintStyle.Render("Esc/Enter to dismiss"),
	}, "\n")

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(e.Theme.Error).
		Padding(1, 2).
		Width(e.Width).
		Render(body)
}
