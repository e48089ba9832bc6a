package theme

import "github.com/charmbracelet/lipgloss"

// DefaultTheme returns the default dark theme
func DefaultTheme() Theme {
	return Theme{
		Name: "default",

		Background: lipgloss.Color("235"),
		Foreground: lipgloss.Color("252"),
		Muted:      lipgloss.Color("244"),

		Border:        lipgloss.Color("240"),
		BorderFocused: lipgloss.Color("62"),
		Selection:     lipgloss.Color("237"),
		Cursor:        lipgloss.Color("248"),

		Success: lipgloss.Color("42"),
		Warning: lipgloss.Color("220"),
		Error:   lipgloss.Color("196"),
		Info:    lipgloss.Color("75"),

		FieldName: lipgloss.Color("117"),
		Operator:  lipgloss.Color("220"),
		Value:     lipgloss.Color("180"),
		Hint:      lipgloss.Color("244"),
		Pending:   lipgloss.Color("214"),

		LinkField:   lipgloss.Color("117"),
		DateField:   lipgloss.Color("150"),
		SelectField: lipgloss.Color("176"),
		NumberField: lipgloss.Color("180"),

		Keyword: lipgloss.Color("75"),
		String:  lipgloss.Color("180"),
	}
}
