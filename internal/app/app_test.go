package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebeliceyang/lazyfilter/internal/db/metadata"
	"github.com/rebeliceyang/lazyfilter/internal/filter"
	"github.com/rebeliceyang/lazyfilter/internal/format"
	"github.com/rebeliceyang/lazyfilter/internal/models"
	"github.com/rebeliceyang/lazyfilter/internal/ui/components"
	"github.com/rebeliceyang/lazyfilter/internal/ui/controls"
	"github.com/rebeliceyang/lazyfilter/internal/ui/theme"
)

type memorySource struct {
	types  []metadata.RecordType
	fields map[string][]models.FieldDescriptor
	err    error
}

func (s *memorySource) LoadFields(_ context.Context, recordType string) ([]models.FieldDescriptor, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.fields[recordType], nil
}

func (s *memorySource) RecordTypes(context.Context) ([]metadata.RecordType, error) {
	return s.types, s.err
}

func newTestApp(t *testing.T, source *memorySource) *App {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	index := metadata.NewIndex(source, time.Minute, logger)
	catalog, err := filter.NewCatalog(filter.Env{HierarchicalTypes: metadata.HierarchicalTypes(source.types)})
	require.NoError(t, err)

	set := filter.NewSet(context.Background(), filter.Deps{
		Catalog:  catalog,
		Index:    index,
		Controls: controls.NewFactory(theme.DefaultTheme()),
		Logger:   logger,
	})
	t.Cleanup(set.Wait)

	a := New(Deps{
		Source:    source,
		Fields:    index,
		Set:       set,
		Builder:   filter.NewBuilder(index),
		Formatter: format.New(),
		Logger:    logger,
	})
	a.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return a
}

func taskSource() *memorySource {
	return &memorySource{
		types: []metadata.RecordType{
			{Name: "public.project"},
			{Name: "public.task"},
			{Name: "public.territory", Hierarchical: true},
		},
		fields: map[string][]models.FieldDescriptor{
			"public.task": {
				{Name: "subject", Type: models.FieldTypeData},
				{Name: "due_date", Type: models.FieldTypeDate},
			},
		},
	}
}

func run(a *App, cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	a.Update(cmd())
}

func TestAppLoadsRecordTypeFields(t *testing.T) {
	a := newTestApp(t, taskSource())
	run(a, a.Init())
	require.Len(t, a.recordTypes, 3)

	_, cmd := a.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Nil(t, cmd)
	_, cmd = a.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	run(a, cmd)

	assert.Equal(t, "public.task", a.state.RecordType)
	assert.Equal(t, models.RightPanel, a.state.FocusedPanel)
	assert.Equal(t, "public.task", a.filterBuilder.RecordType())
	assert.Contains(t, a.View(), "public.territory")
	assert.Contains(t, a.status, "2 fields")
}

func TestAppErrorOverlay(t *testing.T) {
	source := taskSource()
	source.err = errors.New("connection refused")
	a := newTestApp(t, source)
	run(a, a.Init())

	assert.True(t, a.showError)
	assert.Contains(t, a.View(), "connection refused")

	// Other keys are swallowed while the error shows
	_, cmd := a.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Nil(t, cmd)
	assert.Equal(t, models.LeftPanel, a.state.FocusedPanel)

	a.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, a.showError)
}

func TestAppHelpAndFocus(t *testing.T) {
	a := newTestApp(t, taskSource())

	a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("?")})
	assert.Equal(t, models.HelpMode, a.state.ViewMode)
	assert.Contains(t, a.View(), "Keyboard Shortcuts")

	_, cmd := a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	assert.Nil(t, cmd)
	assert.Equal(t, models.NormalMode, a.state.ViewMode)

	a.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, models.RightPanel, a.state.FocusedPanel)
	a.Update(components.CloseFilterBuilderMsg{})
	assert.Equal(t, models.LeftPanel, a.state.FocusedPanel)
}

func TestAppRecordsAppliedFilters(t *testing.T) {
	a := newTestApp(t, taskSource())
	conds := []models.FilterCondition{{RecordType: "public.task", Field: "subject", Operator: models.OpEqual, Value: "x"}}

	a.Update(components.ApplyFilterMsg{Conditions: conds})
	assert.Equal(t, conds, a.Applied())
	assert.Contains(t, a.status, "Applied 1 filters")
}

func TestAppSearchesRecordTypes(t *testing.T) {
	a := newTestApp(t, taskSource())
	run(a, a.Init())

	a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("/")})
	require.True(t, a.search.Visible)
	a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("terr")})
	require.Len(t, a.visibleRecordTypes(), 1)

	_, cmd := a.Update(tea.KeyMsg{Type: tea.KeyEnter})
	run(a, cmd)
	assert.False(t, a.search.Visible)
	assert.Equal(t, "terr", a.typeQuery)
	assert.Contains(t, a.View(), "/terr")

	_, cmd = a.Update(tea.KeyMsg{Type: tea.KeyEnter})
	run(a, cmd)
	assert.Equal(t, "public.territory", a.state.RecordType)
}

type memoryUsage struct {
	recent    []string
	touched   []string
	forgotten []string
}

func (u *memoryUsage) Touch(_ context.Context, recordType string) error {
	u.touched = append(u.touched, recordType)
	return nil
}

func (u *memoryUsage) RecentTypes(context.Context, int) ([]string, error) {
	return u.recent, nil
}

func (u *memoryUsage) Forget(_ context.Context, recordType string) error {
	u.forgotten = append(u.forgotten, recordType)
	return nil
}

func TestAppOrdersRecentRecordTypes(t *testing.T) {
	a := newTestApp(t, taskSource())
	usage := &memoryUsage{recent: []string{"public.territory", "public.dropped"}}
	a.history = usage
	run(a, a.Init())

	require.Len(t, a.recordTypes, 3)
	assert.Equal(t, "public.territory", a.recordTypes[0].Name)
	assert.Equal(t, "public.project", a.recordTypes[1].Name)
	assert.Equal(t, []string{"public.dropped"}, usage.forgotten)
	assert.Contains(t, a.View(), "•")

	a.Update(tea.KeyMsg{Type: tea.KeyDown})
	a.Update(tea.KeyMsg{Type: tea.KeyDown})
	_, cmd := a.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	_, cmd = a.Update(cmd())
	require.NotNil(t, cmd)
	assert.Nil(t, cmd())
	assert.Equal(t, []string{"public.task"}, usage.touched)
}

func TestOrderByRecent(t *testing.T) {
	types := []metadata.RecordType{{Name: "a"}, {Name: "b"}, {Name: "c"}}

	ordered, stale := orderByRecent(types, []string{"c", "x", "c", "a"})
	names := make([]string, len(ordered))
	for i, rt := range ordered {
		names[i] = rt.Name
	}
	assert.Equal(t, []string{"c", "a", "b"}, names)
	assert.Equal(t, []string{"x"}, stale)

	ordered, stale = orderByRecent(types, nil)
	assert.Equal(t, types, ordered)
	assert.Empty(t, stale)
}
