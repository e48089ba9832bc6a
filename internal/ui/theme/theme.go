package theme

import "github.com/charmbracelet/lipgloss"

// Theme defines the color scheme and styling
type Theme struct {
	Name string

	// Background colors
	Background lipgloss.Color
	Foreground lipgloss.Color
	Muted      lipgloss.Color

	// UI elements
	Border        lipgloss.Color
	BorderFocused lipgloss.Color
	Selection     lipgloss.Color
	Cursor        lipgloss.Color

	// Status colors
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Info    lipgloss.Color

	// Filter rows
	FieldName lipgloss.Color
	Operator  lipgloss.Color
	Value     lipgloss.Color
	Hint      lipgloss.Color
	Pending   lipgloss.Color

	// Field type badges in the fields panel
	LinkField   lipgloss.Color
	DateField   lipgloss.Color
	SelectField lipgloss.Color
	NumberField lipgloss.Color

	// SQL preview
	Keyword lipgloss.Color
	String  lipgloss.Color
}

// GetTheme returns a theme by name, falling back to the default theme
func GetTheme(name string) Theme {
	switch name {
	case "catppuccin-mocha", "catppuccin":
		return CatppuccinMochaTheme()
	default:
		return DefaultTheme()
	}
}
