package filter

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rebeliceyang/lazyfilter/internal/models"
)

const taskType = "public.task"

type fakeIndex struct {
	fields map[string][]models.FieldDescriptor
}

func (ix *fakeIndex) Lookup(recordType, fieldname string) (models.FieldDescriptor, bool) {
	for _, f := range ix.fields[recordType] {
		if f.Name == fieldname {
			return f, true
		}
	}
	return models.FieldDescriptor{}, false
}

func (ix *fakeIndex) Fields(recordType string) []models.FieldDescriptor {
	return ix.fields[recordType]
}

func newTaskIndex() *fakeIndex {
	return &fakeIndex{fields: map[string][]models.FieldDescriptor{
		taskType: {
			{Parent: taskType, Name: "subject", Type: models.FieldTypeData, Description: "Short summary", Required: true},
			{Parent: taskType, Name: "notes", Type: models.FieldTypeTextEditor},
			{Parent: taskType, Name: "status", Type: models.FieldTypeSelect, Options: "Open\nClosed",
				Choices: []models.Option{{Label: "Open", Value: "Open"}, {Label: "Closed", Value: "Closed"}}},
			{Parent: taskType, Name: "is_urgent", Type: models.FieldTypeCheck},
			{Parent: taskType, Name: "due_date", Type: models.FieldTypeDate},
			{Parent: taskType, Name: "modified", Type: models.FieldTypeDatetime},
			{Parent: taskType, Name: "project", Type: models.FieldTypeLink, Options: "public.project"},
			{Parent: taskType, Name: "territory", Type: models.FieldTypeLink, Options: "public.territory"},
			{Parent: taskType, Name: "owner_email", Type: models.FieldTypeData, Options: "Email"},
			{Parent: taskType, Name: "docstatus", Type: models.FieldTypeInt},
			{Parent: taskType, Name: "hours", Type: models.FieldTypeFloat, ReadOnly: true, Hidden: true},
		},
	}}
}

type fakeControl struct {
	desc  models.FieldDescriptor
	value any
	hint  string
}

func (c *fakeControl) Descriptor() models.FieldDescriptor { return c.desc }
func (c *fakeControl) Value() any                         { return c.value }
func (c *fakeControl) SetHint(hint string)                { c.hint = hint }
func (c *fakeControl) Hint() string                       { return c.hint }

func (c *fakeControl) SetValue(v any) error {
	if s, ok := v.(string); ok && s == "reject" {
		return errors.New("rejected")
	}
	c.value = v
	return nil
}

type fakeFactory struct {
	mu    sync.Mutex
	built []models.FieldDescriptor
}

func (f *fakeFactory) NewControl(d models.FieldDescriptor) EditableControl {
	f.mu.Lock()
	f.built = append(f.built, d)
	f.mu.Unlock()
	return &fakeControl{desc: d}
}

func (f *fakeFactory) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.built)
}

type resolveCall struct {
	endpoint string
	args     map[string]any
	reply    chan resolveReply
}

type resolveReply struct {
	shape models.FieldShape
	err   error
}

// gatedResolver hands every call to the test, which answers it explicitly
type gatedResolver struct {
	calls chan resolveCall
}

func newGatedResolver() *gatedResolver {
	return &gatedResolver{calls: make(chan resolveCall, 8)}
}

func (g *gatedResolver) Resolve(ctx context.Context, endpoint string, args map[string]any) (models.FieldShape, error) {
	call := resolveCall{endpoint: endpoint, args: args, reply: make(chan resolveReply, 1)}
	g.calls <- call
	select {
	case r := <-call.reply:
		return r.shape, r.err
	case <-ctx.Done():
		return models.FieldShape{}, ctx.Err()
	}
}

func (g *gatedResolver) next(t *testing.T) resolveCall {
	t.Helper()
	select {
	case call := <-g.calls:
		return call
	case <-time.After(2 * time.Second):
		t.Fatal("resolver was not called")
		return resolveCall{}
	}
}

var fiscalYear = models.CustomCondition{
	Key:                "fiscal year",
	Label:              "Fiscal Year",
	ValidForFieldTypes: []models.FieldType{models.FieldTypeDate, models.FieldTypeDatetime, models.FieldTypeDateRange},
	DependsOn:          "company",
	Endpoint:           "fiscal_year_field",
}

type testEnv struct {
	set      *Set
	index    *fakeIndex
	factory  *fakeFactory
	resolver *gatedResolver
	catalog  *Catalog
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	catalog, err := NewCatalog(Env{
		HierarchicalTypes: []string{"public.territory"},
		CustomConditions:  []models.CustomCondition{fiscalYear},
	})
	require.NoError(t, err)

	env := &testEnv{
		index:    newTaskIndex(),
		factory:  &fakeFactory{},
		resolver: newGatedResolver(),
		catalog:  catalog,
	}
	env.set = NewSet(context.Background(), Deps{
		Catalog:        catalog,
		Index:          env.index,
		Controls:       env.factory,
		Resolver:       env.resolver,
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		ResolveTimeout: 5 * time.Second,
	})
	t.Cleanup(env.set.Wait)
	return env
}

func waitDone(t *testing.T, d *Deferred) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := d.Wait(ctx)
	require.NotErrorIs(t, err, context.DeadlineExceeded)
	return err
}
