package components

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/lazyfilter/internal/ui/theme"
)

// SearchInputMsg is sent when the search is confirmed
type SearchInputMsg struct {
	Query string
}

// CloseSearchMsg is sent when the search is cancelled
type CloseSearchMsg struct{}

// SearchInput provides a search input box
type SearchInput struct {
	Input   textinput.Model
	Theme   theme.Theme
	Width   int
	Visible bool
}

// NewSearchInput creates a new search input
func NewSearchInput(th theme.Theme) *SearchInput {
	ti := textinput.New()
	ti.Placeholder = "Search..."
	ti.CharLimit = 256
	ti.Width = 40

	return &SearchInput{
		Input: ti,
		Theme: th,
	}
}

// Open shows and focuses the input
func (s *SearchInput) Open() {
	s.Visible = true
	s.Input.Focus()
}

// Reset clears and hides the search input
func (s *SearchInput) Reset() {
	s.Input.SetValue("")
	s.Input.Blur()
	s.Visible = false
}

// Query returns the current text
func (s *SearchInput) Query() string {
	return s.Input.Value()
}

// Update handles messages
func (s *SearchInput) Update(msg tea.Msg) (*SearchInput, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "enter":
			query := s.Input.Value()
			s.Input.Blur()
			s.Visible = false
			return s, func() tea.Msg {
				return SearchInputMsg{Query: query}
			}
		case "esc":
			s.Reset()
			return s, func() tea.Msg {
				return CloseSearchMsg{}
			}
		}
	}

	var cmd tea.Cmd
	s.Input, cmd = s.Input.Update(msg)
	return s, cmd
}

// View renders the search input
func (s *SearchInput) View() string {
	inputWidth := max(s.Width-6, 10)
	s.Input.Width = inputWidth

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(s.Theme.BorderFocused).
		Padding(0, 1).
		Width(s.Width)

	helpStyle := lipgloss.NewStyle().
		Foreground(s.Theme.Muted).
		Italic(true)

	return boxStyle.Render("/ " + s.Input.View() + "\n" + helpStyle.Render("Enter: keep │ Esc: clear"))
}
