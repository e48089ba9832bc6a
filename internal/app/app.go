package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/lazyfilter/internal/config"
	"github.com/rebeliceyang/lazyfilter/internal/db/metadata"
	"github.com/rebeliceyang/lazyfilter/internal/filter"
	"github.com/rebeliceyang/lazyfilter/internal/models"
	"github.com/rebeliceyang/lazyfilter/internal/ui/components"
	"github.com/rebeliceyang/lazyfilter/internal/ui/help"
	"github.com/rebeliceyang/lazyfilter/internal/ui/theme"
)

const (
	defaultLoadTimeout = 10 * time.Second
	recentLimit        = 5
)

// FieldLoader loads and caches the fields of a record type
type FieldLoader interface {
	filter.FieldIndex
	Load(ctx context.Context, recordType string) ([]models.FieldDescriptor, error)
	Invalidate(recordType string)
}

// UsageTracker remembers which record types were opened
type UsageTracker interface {
	Touch(ctx context.Context, recordType string) error
	RecentTypes(ctx context.Context, limit int) ([]string, error)
	Forget(ctx context.Context, recordType string) error
}

// Deps are the services the application drives
type Deps struct {
	Config    *config.Config
	Source    metadata.Source
	Fields    FieldLoader
	Set       *filter.Set
	Builder   *filter.Builder
	Formatter filter.ValueFormatter
	History   UsageTracker
	Logger    *slog.Logger
}

// App is the main application model
type App struct {
	state      models.AppState
	config     *config.Config
	theme      theme.Theme
	logger     *slog.Logger
	source     metadata.Source
	fields     FieldLoader
	history    UsageTracker
	leftPanel  components.Panel
	rightPanel components.Panel

	// Error overlay
	showError    bool
	errorOverlay *components.ErrorOverlay

	recordTypes   []metadata.RecordType
	recent        map[string]bool
	cursor        int
	search        *components.SearchInput
	typeQuery     string
	filterBuilder *components.FilterBuilder
	applied       []models.FilterCondition
	status        string
	loading       bool
}

// ErrorMsg is sent when an error occurs
type ErrorMsg struct {
	Title   string
	Message string
}

// RecordTypesLoadedMsg is sent when the record type list is loaded
type RecordTypesLoadedMsg struct {
	Types  []metadata.RecordType
	Recent []string
	Err    error
}

// FieldsLoadedMsg is sent when the fields of a record type are loaded
type FieldsLoadedMsg struct {
	RecordType string
	Count      int
	Err        error
}

// ConfigReloadedMsg is sent after the config file changed on disk
type ConfigReloadedMsg struct {
	Registered int
	Err        error
}

// New creates a new App instance
func New(deps Deps) *App {
	state := models.NewAppState()

	cfg := deps.Config
	if cfg == nil {
		cfg = config.GetDefaults()
	}
	th := theme.GetTheme(cfg.UI.Theme)

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	app := &App{
		state:         state,
		config:        cfg,
		theme:         th,
		logger:        logger,
		source:        deps.Source,
		fields:        deps.Fields,
		history:       deps.History,
		errorOverlay:  components.NewErrorOverlay(th),
		search:        components.NewSearchInput(th),
		filterBuilder: components.NewFilterBuilder(th, deps.Set, deps.Fields, deps.Builder, deps.Formatter),
		leftPanel: components.Panel{
			Title:   "Record Types",
			Content: "Loading…",
			Theme:   th,
		},
		rightPanel: components.Panel{
			Title: "Filters",
			Theme: th,
		},
	}

	app.updatePanelDimensions()
	app.updatePanelStyles()

	return app
}

// Applied returns the conditions of the last apply
func (a *App) Applied() []models.FilterCondition {
	return a.applied
}

func (a *App) loadTimeout() time.Duration {
	if d := a.config.Performance.QueryTimeoutDuration(); d > 0 {
		return d
	}
	return defaultLoadTimeout
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return a.loadRecordTypes
}

func (a *App) loadRecordTypes() tea.Msg {
	if a.source == nil {
		return RecordTypesLoadedMsg{}
	}
	ctx, cancel := context.WithTimeout(context.Background(), a.loadTimeout())
	defer cancel()
	types, err := a.source.RecordTypes(ctx)
	if err != nil || a.history == nil {
		return RecordTypesLoadedMsg{Types: types, Err: err}
	}

	recent, err := a.history.RecentTypes(ctx, recentLimit)
	if err != nil {
		a.logger.Warn("failed to read record type history", "error", err)
		return RecordTypesLoadedMsg{Types: types}
	}
	types, stale := orderByRecent(types, recent)
	for _, name := range stale {
		if err := a.history.Forget(ctx, name); err != nil {
			a.logger.Warn("failed to forget record type", "record_type", name, "error", err)
		}
	}
	return RecordTypesLoadedMsg{Types: types, Recent: recent}
}

// orderByRecent moves the recently opened types to the front in recency
// order. Recent names missing from types are returned as stale.
func orderByRecent(types []metadata.RecordType, recent []string) ([]metadata.RecordType, []string) {
	pos := make(map[string]int, len(types))
	for i, rt := range types {
		pos[rt.Name] = i
	}

	ordered := make([]metadata.RecordType, 0, len(types))
	taken := make(map[string]bool, len(recent))
	var stale []string
	for _, name := range recent {
		i, ok := pos[name]
		if !ok {
			stale = append(stale, name)
			continue
		}
		if taken[name] {
			continue
		}
		taken[name] = true
		ordered = append(ordered, types[i])
	}
	for _, rt := range types {
		if !taken[rt.Name] {
			ordered = append(ordered, rt)
		}
	}
	return ordered, stale
}

func (a *App) loadFields(recordType string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), a.loadTimeout())
		defer cancel()
		fields, err := a.fields.Load(ctx, recordType)
		return FieldsLoadedMsg{RecordType: recordType, Count: len(fields), Err: err}
	}
}

func (a *App) touchRecordType(recordType string) tea.Cmd {
	if a.history == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), a.loadTimeout())
		defer cancel()
		if err := a.history.Touch(ctx, recordType); err != nil {
			a.logger.Warn("failed to record record type usage", "record_type", recordType, "error", err)
		}
		return nil
	}
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ErrorMsg:
		a.ShowError(msg.Title, msg.Message)
		return a, nil
	case tea.KeyMsg:
		return a.handleKey(msg)
	case RecordTypesLoadedMsg:
		if msg.Err != nil {
			a.ShowError("Metadata Error", fmt.Sprintf("Failed to list record types:\n\n%v", msg.Err))
			return a, nil
		}
		a.recordTypes = msg.Types
		a.recent = make(map[string]bool, len(msg.Recent))
		for _, name := range msg.Recent {
			a.recent[name] = true
		}
		a.cursor = 0
		return a, nil
	case components.SearchInputMsg:
		a.typeQuery = msg.Query
		return a, nil
	case components.CloseSearchMsg:
		a.typeQuery = ""
		a.cursor = 0
		return a, nil
	case FieldsLoadedMsg:
		a.loading = false
		if msg.Err != nil {
			a.ShowError("Metadata Error", fmt.Sprintf("Failed to load fields of %s:\n\n%v", msg.RecordType, msg.Err))
			return a, nil
		}
		a.logger.Debug("fields loaded", "record_type", msg.RecordType, "count", msg.Count)
		a.state.RecordType = msg.RecordType
		a.filterBuilder.SetRecordType(msg.RecordType)
		a.state.FocusedPanel = models.RightPanel
		a.updatePanelStyles()
		a.status = fmt.Sprintf("%d fields", msg.Count)
		return a, a.touchRecordType(msg.RecordType)
	case ConfigReloadedMsg:
		if msg.Err != nil {
			a.ShowError("Config Error", fmt.Sprintf("Config reload failed:\n\n%v", msg.Err))
			return a, nil
		}
		a.status = fmt.Sprintf("Config reloaded, %d new conditions", msg.Registered)
		return a, nil
	case components.ApplyFilterMsg:
		a.applied = msg.Conditions
		a.status = fmt.Sprintf("Applied %d filters", len(msg.Conditions))
		a.logger.Info("filters applied", "record_type", a.state.RecordType, "count", len(msg.Conditions))
		return a, nil
	case components.CloseFilterBuilderMsg:
		a.state.FocusedPanel = models.LeftPanel
		a.updatePanelStyles()
		return a, nil
	case components.RowResolvedMsg, components.FilterChangedMsg, components.CopiedMsg:
		var cmd tea.Cmd
		a.filterBuilder, cmd = a.filterBuilder.Update(msg)
		return a, cmd
	case tea.WindowSizeMsg:
		a.state.Width = msg.Width
		a.state.Height = msg.Height
		a.updatePanelDimensions()
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return a, tea.Quit
	}

	// Handle error overlay dismissal first if visible
	if a.showError {
		switch key {
		case "esc", "enter":
			a.DismissError()
		case "q":
			return a, tea.Quit
		}
		return a, nil
	}

	// An open editor gets every key
	if a.search.Visible {
		var cmd tea.Cmd
		a.search, cmd = a.search.Update(msg)
		a.typeQuery = a.search.Query()
		a.cursor = 0
		return a, cmd
	}
	if a.state.FocusedPanel == models.RightPanel && a.filterBuilder.Editing() {
		var cmd tea.Cmd
		a.filterBuilder, cmd = a.filterBuilder.Update(msg)
		return a, cmd
	}

	switch key {
	case "q":
		// Don't quit if in help mode, exit help instead
		if a.state.ViewMode == models.HelpMode {
			a.state.ViewMode = models.NormalMode
			return a, nil
		}
		return a, tea.Quit
	case "?":
		if a.state.ViewMode == models.HelpMode {
			a.state.ViewMode = models.NormalMode
		} else {
			a.state.ViewMode = models.HelpMode
		}
		return a, nil
	case "tab":
		if a.state.ViewMode == models.NormalMode {
			if a.state.FocusedPanel == models.LeftPanel {
				a.state.FocusedPanel = models.RightPanel
			} else {
				a.state.FocusedPanel = models.LeftPanel
			}
			a.updatePanelStyles()
		}
		return a, nil
	case "r", "f5":
		if a.state.RecordType != "" {
			a.fields.Invalidate(a.state.RecordType)
			a.loading = true
			return a, tea.Batch(a.loadRecordTypes, a.loadFields(a.state.RecordType))
		}
		return a, a.loadRecordTypes
	}

	if a.state.ViewMode == models.HelpMode {
		if key == "esc" {
			a.state.ViewMode = models.NormalMode
		}
		return a, nil
	}

	if a.state.FocusedPanel == models.LeftPanel {
		return a.handleRecordTypeKeys(key)
	}
	var cmd tea.Cmd
	a.filterBuilder, cmd = a.filterBuilder.Update(msg)
	return a, cmd
}

// visibleRecordTypes returns the record types matching the search query
func (a *App) visibleRecordTypes() []metadata.RecordType {
	if a.typeQuery == "" {
		return a.recordTypes
	}
	var out []metadata.RecordType
	for _, rt := range a.recordTypes {
		if ok, _ := components.FuzzyMatch(a.typeQuery, rt.Name); ok {
			out = append(out, rt)
		}
	}
	return out
}

func (a *App) handleRecordTypeKeys(key string) (tea.Model, tea.Cmd) {
	visible := a.visibleRecordTypes()
	switch key {
	case "up", "k":
		if a.cursor > 0 {
			a.cursor--
		}
	case "down", "j":
		if a.cursor < len(visible)-1 {
			a.cursor++
		}
	case "/":
		a.search.Input.SetValue(a.typeQuery)
		a.search.Open()
	case "enter":
		if a.cursor < len(visible) {
			a.loading = true
			return a, a.loadFields(visible[a.cursor].Name)
		}
	}
	return a, nil
}

// View implements tea.Model
func (a *App) View() string {
	// If error overlay is showing, render it centered on top of everything
	if a.showError {
		return lipgloss.Place(
			a.state.Width, a.state.Height,
			lipgloss.Center, lipgloss.Center,
			a.errorOverlay.View(),
		)
	}

	if a.state.ViewMode == models.HelpMode {
		return help.Render(a.state.Width, a.state.Height, a.theme)
	}

	return a.renderNormalView()
}

// renderNormalView renders the normal application view
func (a *App) renderNormalView() string {
	topBarRight := a.state.RecordType
	if a.loading {
		topBarRight = "loading…"
	}
	topBar := lipgloss.NewStyle().
		Width(a.state.Width).
		Background(a.theme.BorderFocused).
		Foreground(a.theme.Background).
		Padding(0, 2).
		Render(a.formatStatusBar("lazyfilter", topBarRight))

	bottomBarLeft := "[tab] Switch panel | [?] Help | [q] Quit"
	bottomBar := lipgloss.NewStyle().
		Width(a.state.Width).
		Background(a.theme.Selection).
		Foreground(a.theme.Foreground).
		Padding(0, 2).
		Render(a.formatStatusBar(bottomBarLeft, a.status))

	a.leftPanel.Content = a.renderRecordTypes()
	a.filterBuilder.Width = a.rightPanel.Width
	a.filterBuilder.Height = a.rightPanel.Height
	a.rightPanel.Content = a.filterBuilder.View()

	panels := lipgloss.JoinHorizontal(
		lipgloss.Top,
		a.leftPanel.View(),
		a.rightPanel.View(),
	)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		topBar,
		panels,
		bottomBar,
	)
}

func (a *App) renderRecordTypes() string {
	var header string
	if a.search.Visible {
		a.search.Width = max(a.leftPanel.Width-4, 10)
		header = a.search.View() + "\n"
	} else if a.typeQuery != "" {
		header = lipgloss.NewStyle().Foreground(a.theme.Hint).Render("/"+a.typeQuery) + "\n"
	}

	visible := a.visibleRecordTypes()
	if len(visible) == 0 {
		return header + lipgloss.NewStyle().Foreground(a.theme.Muted).Render("(none)")
	}
	selected := lipgloss.NewStyle().Background(a.theme.Selection).Foreground(a.theme.Foreground)
	active := lipgloss.NewStyle().Foreground(a.theme.FieldName).Bold(true)
	marker := lipgloss.NewStyle().Foreground(a.theme.Muted)

	lines := make([]string, 0, len(visible))
	for i, rt := range visible {
		line := rt.Name
		if rt.Name == a.state.RecordType {
			line = active.Render(line)
		}
		if rt.Hierarchical {
			line += marker.Render(" ⊂")
		}
		if a.recent[rt.Name] {
			line += marker.Render(" •")
		}
		if i == a.cursor && a.state.FocusedPanel == models.LeftPanel {
			line = selected.Render(line)
		}
		lines = append(lines, line)
	}
	return header + strings.Join(lines, "\n")
}

// updatePanelDimensions calculates panel sizes based on window size
func (a *App) updatePanelDimensions() {
	if a.state.Width <= 0 || a.state.Height <= 0 {
		return
	}

	// Reserve space for top bar (1 line) and bottom bar (1 line)
	contentHeight := a.state.Height - 4
	if contentHeight < 5 {
		contentHeight = 5
	}

	// Each panel has a border, 2 chars wide
	leftWidth := (a.state.Width * a.state.LeftPanelWidth) / 100
	if leftWidth < 20 {
		leftWidth = 20
	}

	rightWidth := a.state.Width - leftWidth - 4
	if rightWidth < 20 {
		rightWidth = 20
		leftWidth = a.state.Width - rightWidth - 4
	}

	a.leftPanel.Width = leftWidth
	a.leftPanel.Height = contentHeight
	a.rightPanel.Width = rightWidth
	a.rightPanel.Height = contentHeight
	a.errorOverlay.Width = min(max(a.state.Width-10, 30), 80)
}

// updatePanelStyles updates panel styling based on focus
func (a *App) updatePanelStyles() {
	a.leftPanel.Focused = a.state.FocusedPanel == models.LeftPanel
	a.rightPanel.Focused = a.state.FocusedPanel == models.RightPanel
}

// formatStatusBar formats a status bar with left and right aligned content
func (a *App) formatStatusBar(left, right string) string {
	// Account for padding (2 chars on each side = 4 total)
	availableWidth := max(a.state.Width-4, 0)

	leftLen := lipgloss.Width(left)
	rightLen := lipgloss.Width(right)

	if leftLen+rightLen > availableWidth {
		return lipgloss.NewStyle().MaxWidth(availableWidth).Render(left + " " + right)
	}

	spacing := availableWidth - leftLen - rightLen
	return left + strings.Repeat(" ", spacing) + right
}

// ShowError displays the error overlay
func (a *App) ShowError(title, message string) {
	a.logger.Warn("showing error", "title", title, "message", message)
	a.errorOverlay.SetError(title, message)
	a.showError = true
}

// DismissError hides the error overlay
func (a *App) DismissError() {
	a.errorOverlay.Dismiss()
	a.showError = false
}
