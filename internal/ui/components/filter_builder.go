package components

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/lazyfilter/internal/filter"
	"github.com/rebeliceyang/lazyfilter/internal/models"
	"github.com/rebeliceyang/lazyfilter/internal/ui/controls"
	"github.com/rebeliceyang/lazyfilter/internal/ui/theme"
)

// ApplyFilterMsg is sent when the filter set should be applied
type ApplyFilterMsg struct {
	Conditions []models.FilterCondition
}

// CloseFilterBuilderMsg is sent when the filter builder should close
type CloseFilterBuilderMsg struct{}

// RowResolvedMsg is sent when an asynchronous row update completes
type RowResolvedMsg struct {
	RowID string
	Err   error
}

// FilterChangedMsg is sent when any row of the set changed
type FilterChangedMsg struct{}

// CopiedMsg is sent after the filters were copied to the clipboard
type CopiedMsg struct {
	Count int
	Err   error
}

type editMode int

const (
	modeNav editMode = iota
	modeField
	modeOperator
	modeValue
)

// FilterBuilder provides an interactive UI for editing a filter set
type FilterBuilder struct {
	Width  int
	Height int
	Theme  theme.Theme

	set            *filter.Set
	index          filter.FieldIndex
	builder        *filter.Builder
	formatter      filter.ValueFormatter
	writeClipboard func(string) error

	recordType      string
	currentIndex    int
	editMode        editMode
	editingRow      *filter.Row
	fieldInput      textinput.Model
	matches         []models.FieldDescriptor
	matchIndex      int
	conditions      []models.ConditionEntry
	operatorIndex   int
	validationError string
	status          string
	previewSQL      string
}

// NewFilterBuilder creates a filter builder over set
func NewFilterBuilder(th theme.Theme, set *filter.Set, index filter.FieldIndex, builder *filter.Builder, formatter filter.ValueFormatter) *FilterBuilder {
	ti := textinput.New()
	ti.Placeholder = "field name (d: l: s: c: n: t: to narrow by kind)"
	ti.CharLimit = 128
	ti.Width = 40

	return &FilterBuilder{
		Width:          80,
		Height:         30,
		Theme:          th,
		set:            set,
		index:          index,
		builder:        builder,
		formatter:      formatter,
		writeClipboard: clipboard.WriteAll,
		fieldInput:     ti,
	}
}

// SetRecordType sets the record type new rows filter on
func (fb *FilterBuilder) SetRecordType(recordType string) {
	fb.recordType = recordType
	fb.updatePreview()
}

// RecordType returns the record type new rows filter on
func (fb *FilterBuilder) RecordType() string {
	return fb.recordType
}

// Editing reports whether keys are consumed by an editor
func (fb *FilterBuilder) Editing() bool {
	return fb.editMode != modeNav
}

// Update handles keyboard input and row notifications
func (fb *FilterBuilder) Update(msg tea.Msg) (*FilterBuilder, tea.Cmd) {
	switch msg := msg.(type) {
	case RowResolvedMsg:
		return fb.handleResolved(msg)
	case FilterChangedMsg:
		fb.updatePreview()
		return fb, nil
	case CopiedMsg:
		if msg.Err != nil {
			fb.validationError = "Copy failed: " + msg.Err.Error()
		} else {
			fb.status = fmt.Sprintf("Copied %d filters", msg.Count)
		}
		return fb, nil
	case tea.KeyMsg:
		switch fb.editMode {
		case modeField:
			return fb.handleFieldMode(msg)
		case modeOperator:
			return fb.handleOperatorMode(msg)
		case modeValue:
			return fb.handleValueMode(msg)
		default:
			return fb.handleNavigationMode(msg)
		}
	}
	return fb, nil
}

func (fb *FilterBuilder) currentRow() *filter.Row {
	rows := fb.set.Rows()
	if fb.currentIndex < 0 || fb.currentIndex >= len(rows) {
		return nil
	}
	return rows[fb.currentIndex]
}

// handleNavigationMode handles keys in navigation mode
func (fb *FilterBuilder) handleNavigationMode(msg tea.KeyMsg) (*FilterBuilder, tea.Cmd) {
	fb.status = ""
	rows := fb.set.Rows()
	row := fb.currentRow()

	switch msg.String() {
	case "up", "k":
		if fb.currentIndex > 0 {
			fb.currentIndex--
		}
	case "down", "j":
		if fb.currentIndex < len(rows)-1 {
			fb.currentIndex++
		}
	case "a", "n":
		if fb.recordType == "" {
			fb.validationError = "Select a record type first"
			return fb, nil
		}
		fb.editingRow = nil
		fb.startFieldMode()
	case "e":
		if row != nil {
			fb.editingRow = row
			fb.startFieldMode()
		}
	case "o":
		if row != nil {
			fb.startOperatorMode(row)
		}
	case "enter":
		if row != nil {
			fb.editingRow = row
			fb.startValueMode()
		}
	case "d", "x":
		if row != nil {
			row.Remove()
			if fb.currentIndex > 0 && fb.currentIndex >= len(fb.set.Rows()) {
				fb.currentIndex--
			}
			fb.updatePreview()
		}
	case "h":
		if row != nil {
			if cond, ok := row.Value(); ok {
				row.SetHidden(!cond.Hidden)
			}
		}
	case "C":
		fb.set.Clear()
		fb.currentIndex = 0
		fb.updatePreview()
	case "y":
		values := fb.set.Values()
		copyFn := fb.writeClipboard
		return fb, func() tea.Msg {
			data, err := json.Marshal(tuples(values))
			if err == nil {
				err = copyFn(string(data))
			}
			return CopiedMsg{Count: len(values), Err: err}
		}
	case "s":
		values := fb.set.Values()
		if len(values) == 0 {
			fb.validationError = "Add at least one filter before applying"
			return fb, nil
		}
		fb.validationError = ""
		return fb, func() tea.Msg {
			return ApplyFilterMsg{Conditions: values}
		}
	case "esc":
		return fb, func() tea.Msg {
			return CloseFilterBuilderMsg{}
		}
	}
	return fb, nil
}

func tuples(values []models.FilterCondition) [][]any {
	out := make([][]any, len(values))
	for i, v := range values {
		out[i] = v.Tuple()
	}
	return out
}

func (fb *FilterBuilder) startFieldMode() {
	fb.editMode = modeField
	fb.validationError = ""
	fb.fieldInput.SetValue("")
	fb.fieldInput.Focus()
	fb.refreshMatches()
}

func (fb *FilterBuilder) refreshMatches() {
	fb.matches = FilterFields(fb.index.Fields(fb.recordType), ParseSearchQuery(fb.fieldInput.Value()))
	fb.matchIndex = 0
}

// handleFieldMode handles field selection
func (fb *FilterBuilder) handleFieldMode(msg tea.KeyMsg) (*FilterBuilder, tea.Cmd) {
	switch msg.String() {
	case "esc":
		fb.fieldInput.Blur()
		fb.editMode = modeNav
		fb.validationError = ""
		return fb, nil
	case "up":
		if fb.matchIndex > 0 {
			fb.matchIndex--
		}
		return fb, nil
	case "down":
		if fb.matchIndex < len(fb.matches)-1 {
			fb.matchIndex++
		}
		return fb, nil
	case "enter":
		fieldname := strings.TrimSpace(fb.fieldInput.Value())
		if len(fb.matches) > 0 {
			fieldname = fb.matches[fb.matchIndex].Name
		}
		if fieldname == "" {
			return fb, nil
		}
		return fb.selectField(fieldname)
	}

	var cmd tea.Cmd
	fb.fieldInput, cmd = fb.fieldInput.Update(msg)
	fb.refreshMatches()
	return fb, cmd
}

func (fb *FilterBuilder) selectField(fieldname string) (*FilterBuilder, tea.Cmd) {
	row := fb.editingRow
	if row == nil {
		row = fb.set.NewRow()
	}
	d, err := row.SetField(fb.recordType, fieldname, models.FieldTypeUnknown, "")
	fb.fieldInput.Blur()
	if err != nil {
		// The row removed itself
		fb.editMode = modeNav
		fb.validationError = err.Error()
		fb.clampIndex()
		fb.updatePreview()
		return fb, nil
	}

	fb.selectRow(row)
	fb.startOperatorMode(row)
	fb.updatePreview()
	return fb, waitForRow(row.ID(), d)
}

func (fb *FilterBuilder) selectRow(row *filter.Row) {
	for i, r := range fb.set.Rows() {
		if r == row {
			fb.currentIndex = i
			return
		}
	}
}

func (fb *FilterBuilder) clampIndex() {
	if n := len(fb.set.Rows()); fb.currentIndex >= n {
		fb.currentIndex = max(n-1, 0)
	}
}

func waitForRow(rowID string, d *filter.Deferred) tea.Cmd {
	return func() tea.Msg {
		err := d.Wait(context.Background())
		return RowResolvedMsg{RowID: rowID, Err: err}
	}
}

func (fb *FilterBuilder) startOperatorMode(row *filter.Row) {
	fb.editingRow = row
	fb.conditions = row.VisibleConditions()
	fb.operatorIndex = 0
	current := row.Condition()
	for i, c := range fb.conditions {
		if c.Key == current {
			fb.operatorIndex = i
			break
		}
	}
	fb.editMode = modeOperator
	fb.validationError = ""
}

// handleOperatorMode handles condition selection
func (fb *FilterBuilder) handleOperatorMode(msg tea.KeyMsg) (*FilterBuilder, tea.Cmd) {
	switch msg.String() {
	case "esc":
		fb.editMode = modeNav
	case "up", "k":
		if fb.operatorIndex > 0 {
			fb.operatorIndex--
		}
	case "down", "j":
		if fb.operatorIndex < len(fb.conditions)-1 {
			fb.operatorIndex++
		}
	case "enter":
		if len(fb.conditions) == 0 || fb.editingRow == nil {
			fb.editMode = modeNav
			return fb, nil
		}
		row := fb.editingRow
		d, err := row.SetCondition(fb.conditions[fb.operatorIndex].Key)
		if err != nil {
			fb.validationError = err.Error()
			fb.editMode = modeNav
			return fb, nil
		}
		fb.startValueMode()
		fb.updatePreview()
		return fb, waitForRow(row.ID(), d)
	}
	return fb, nil
}

func (fb *FilterBuilder) activeControl() controls.Control {
	if fb.editingRow == nil {
		return nil
	}
	c, _ := fb.editingRow.Control().(controls.Control)
	return c
}

func (fb *FilterBuilder) startValueMode() {
	fb.editMode = modeValue
	fb.validationError = ""
	if c := fb.activeControl(); c != nil {
		c.Focus()
	}
}

// handleValueMode forwards keys to the row's control
func (fb *FilterBuilder) handleValueMode(msg tea.KeyMsg) (*FilterBuilder, tea.Cmd) {
	c := fb.activeControl()
	switch msg.String() {
	case "esc", "enter":
		if c != nil {
			c.Blur()
		}
		fb.editMode = modeNav
		fb.updatePreview()
		return fb, nil
	}
	if c == nil || fb.editingRow.Pending() {
		return fb, nil
	}
	return fb, c.Update(msg)
}

func (fb *FilterBuilder) handleResolved(msg RowResolvedMsg) (*FilterBuilder, tea.Cmd) {
	if msg.Err != nil {
		fb.validationError = msg.Err.Error()
	}
	// The control may have been replaced by the resolution
	if fb.editMode == modeValue && fb.editingRow != nil && fb.editingRow.ID() == msg.RowID {
		if c := fb.activeControl(); c != nil {
			c.Focus()
		}
	}
	if fb.editMode == modeOperator && fb.editingRow != nil && fb.editingRow.ID() == msg.RowID {
		fb.conditions = fb.editingRow.VisibleConditions()
		if fb.operatorIndex >= len(fb.conditions) {
			fb.operatorIndex = 0
		}
	}
	fb.updatePreview()
	return fb, nil
}

// updatePreview updates the SQL preview
func (fb *FilterBuilder) updatePreview() {
	if fb.recordType == "" || fb.builder == nil {
		fb.previewSQL = ""
		return
	}
	query, args, err := fb.builder.SelectQuery(fb.recordType, fb.set.Values())
	if err != nil {
		fb.previewSQL = fmt.Sprintf("Error: %s", err.Error())
		return
	}
	fb.previewSQL = query
	if len(args) > 0 {
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = fmt.Sprintf("$%d=%v", i+1, a)
		}
		fb.previewSQL += "\n-- " + strings.Join(parts, " ")
	}
}

// PreviewSQL returns the current SQL preview
func (fb *FilterBuilder) PreviewSQL() string {
	return fb.previewSQL
}

func conditionLabel(row *filter.Row) string {
	op := row.Condition()
	for _, c := range row.VisibleConditions() {
		if c.Key == op {
			return c.Label
		}
	}
	return string(op)
}

// View renders the filter builder
func (fb *FilterBuilder) View() string {
	var sections []string

	titleStyle := lipgloss.NewStyle().
		Foreground(fb.Theme.Foreground).
		Background(fb.Theme.Info).
		Padding(0, 1).
		Bold(true)
	title := "Filters"
	if fb.recordType != "" {
		title += " · " + fb.recordType
	}
	sections = append(sections, titleStyle.Render(title))

	instructionStyle := lipgloss.NewStyle().
		Foreground(fb.Theme.Hint).
		Padding(0, 1)

	var instructions string
	switch fb.editMode {
	case modeField:
		instructions = "Type to search fields, ↑↓ pick, Enter to confirm, Esc to cancel"
	case modeOperator:
		instructions = "↑↓ Select condition, Enter to confirm, Esc to go back"
	case modeValue:
		instructions = "Edit value, Enter or Esc when done"
	default:
		instructions = "a=Add e=Field o=Condition Enter=Value d=Delete h=Hide y=Copy s=Apply Esc=Close"
	}
	sections = append(sections, instructionStyle.Render(instructions))

	if fb.validationError != "" {
		errorStyle := lipgloss.NewStyle().
			Foreground(fb.Theme.Error).
			Padding(0, 1).
			Bold(true)
		sections = append(sections, errorStyle.Render("Error: "+fb.validationError))
	}
	if fb.status != "" {
		sections = append(sections, lipgloss.NewStyle().Foreground(fb.Theme.Success).Padding(0, 1).Render(fb.status))
	}

	rows := fb.set.Rows()
	if len(rows) > 0 {
		sections = append(sections, "\nConditions:")
		fieldStyle := lipgloss.NewStyle().Foreground(fb.Theme.FieldName)
		opStyle := lipgloss.NewStyle().Foreground(fb.Theme.Operator)
		valueStyle := lipgloss.NewStyle().Foreground(fb.Theme.Value)
		pendingStyle := lipgloss.NewStyle().Foreground(fb.Theme.Pending).Italic(true)

		for i, row := range rows {
			var line string
			if d, ok := row.Descriptor(); ok {
				line = fieldStyle.Render(d.DisplayLabel()) + " " +
					opStyle.Render(conditionLabel(row)) + " " +
					valueStyle.Render(row.DisplayValue(fb.formatter))
				if cond, ok := row.Value(); ok && cond.Hidden {
					line += " " + lipgloss.NewStyle().Foreground(fb.Theme.Muted).Render("(hidden)")
				}
			} else {
				line = lipgloss.NewStyle().Foreground(fb.Theme.Muted).Render("(no field)")
			}
			if row.Pending() {
				line += " " + pendingStyle.Render("resolving…")
			}

			style := lipgloss.NewStyle().Padding(0, 1)
			if i == fb.currentIndex && fb.editMode == modeNav {
				style = style.Background(fb.Theme.Selection).Foreground(fb.Theme.Foreground)
			}
			sections = append(sections, style.Render(fmt.Sprintf(" %d. %s", i+1, line)))
		}
	}

	if fb.editMode != modeNav {
		sections = append(sections, "")
		sections = append(sections, fb.editView()...)
	}

	if fb.previewSQL != "" {
		sections = append(sections, "\nSQL Preview:")
		previewStyle := lipgloss.NewStyle().
			Foreground(fb.Theme.Muted).
			Padding(0, 1).
			Italic(true)
		sections = append(sections, previewStyle.Render(fb.previewSQL))
	}

	content := strings.Join(sections, "\n")

	containerStyle := lipgloss.NewStyle().
		Foreground(fb.Theme.Foreground).
		Width(fb.Width).
		Padding(0, 1)

	return containerStyle.Render(content)
}

func (fb *FilterBuilder) editView() []string {
	var lines []string
	selected := lipgloss.NewStyle().Padding(0, 1).Background(fb.Theme.Selection).Foreground(fb.Theme.Foreground)
	normal := lipgloss.NewStyle().Padding(0, 1)

	switch fb.editMode {
	case modeField:
		lines = append(lines, "Field: "+fb.fieldInput.View())
		limit := min(len(fb.matches), max(fb.Height-12, 5))
		for i := 0; i < limit; i++ {
			f := fb.matches[i]
			style := normal
			if i == fb.matchIndex {
				style = selected
			}
			badge := lipgloss.NewStyle().Foreground(fb.kindColor(f.Type)).Render(f.Type.String())
			lines = append(lines, style.Render(fmt.Sprintf("  %s (%s) %s", f.DisplayLabel(), f.Name, badge)))
		}
		if len(fb.matches) == 0 {
			lines = append(lines, normal.Render("  no matching fields"))
		}
	case modeOperator:
		if d, ok := fb.editingRow.Descriptor(); ok {
			lines = append(lines, "Field: "+d.DisplayLabel())
		}
		lines = append(lines, "Select condition:")
		for i, c := range fb.conditions {
			style := normal
			if i == fb.operatorIndex {
				style = selected
			}
			lines = append(lines, style.Render("  "+c.Label))
		}
	case modeValue:
		if d, ok := fb.editingRow.Descriptor(); ok {
			lines = append(lines, fmt.Sprintf("%s %s", d.DisplayLabel(), conditionLabel(fb.editingRow)))
		}
		if fb.editingRow.Pending() {
			lines = append(lines, lipgloss.NewStyle().Foreground(fb.Theme.Pending).Render("Resolving field…"))
		} else if c := fb.activeControl(); c != nil {
			lines = append(lines, c.View())
		}
	}
	return lines
}

func (fb *FilterBuilder) kindColor(t models.FieldType) lipgloss.Color {
	switch FieldKind(t) {
	case "date":
		return fb.Theme.DateField
	case "link":
		return fb.Theme.LinkField
	case "select":
		return fb.Theme.SelectField
	case "number":
		return fb.Theme.NumberField
	default:
		return fb.Theme.Muted
	}
}
