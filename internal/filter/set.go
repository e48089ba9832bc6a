package filter

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc"

	"github.com/rebeliceyang/lazyfilter/internal/models"
)

// DefaultResolveTimeout bounds a single custom condition resolution
const DefaultResolveTimeout = 30 * time.Second

// Deps are the collaborators shared by the rows of a set
type Deps struct {
	Catalog        *Catalog
	Index          FieldIndex
	Controls       ControlFactory
	Resolver       Resolver
	Logger         *slog.Logger
	ResolveTimeout time.Duration
}

// Set is an ordered list of filter rows
type Set struct {
	ctx     context.Context
	deps    Deps
	adapter *Adapter
	wg      conc.WaitGroup

	mu       sync.Mutex
	rows     []*Row
	onChange func()
}

// NewSet creates an empty filter set. ctx bounds resolver calls.
func NewSet(ctx context.Context, deps Deps) *Set {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.ResolveTimeout <= 0 {
		deps.ResolveTimeout = DefaultResolveTimeout
	}
	return &Set{
		ctx:     ctx,
		deps:    deps,
		adapter: NewAdapter(deps.Catalog),
	}
}

// OnChange registers a callback run after any row changes. It is called
// without locks held and may run on a resolver goroutine.
func (s *Set) OnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// NewRow appends an empty row
func (s *Set) NewRow() *Row {
	r := &Row{id: uuid.New().String(), set: s}
	s.mu.Lock()
	s.rows = append(s.rows, r)
	s.mu.Unlock()
	return r
}

// Add appends a row and sets its field, condition and value. An unknown
// field returns an *UnknownFieldError and leaves the set unchanged.
func (s *Set) Add(recordType, fieldname string, op models.FilterOperator, value any) (*Row, *Deferred, error) {
	r := s.NewRow()
	d := r.SetValues(recordType, fieldname, op, value)

	select {
	case <-d.Done():
		if err := d.Err(); errors.Is(err, ErrUnknownField) {
			return nil, nil, err
		}
	default:
	}
	return r, d, nil
}

// Rows returns the live rows in order
func (s *Set) Rows() []*Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.rows)
}

// Row returns the row with the given id
func (s *Set) Row(id string) (*Row, bool) {
	for _, r := range s.Rows() {
		if r.id == id {
			return r, true
		}
	}
	return nil, false
}

// Values returns the canonical tuples of every row that has a field
func (s *Set) Values() []models.FilterCondition {
	var values []models.FilterCondition
	for _, r := range s.Rows() {
		if cond, ok := r.Value(); ok {
			values = append(values, cond)
		}
	}
	return values
}

// FilterValue returns the value of the first row filtering on fieldname
func (s *Set) FilterValue(fieldname string) (any, bool) {
	return s.siblingValue(nil, fieldname)
}

func (s *Set) siblingValue(self *Row, fieldname string) (any, bool) {
	for _, r := range s.Rows() {
		if r == self {
			continue
		}
		if cond, ok := r.Value(); ok && cond.Field == fieldname {
			return cond.Value, true
		}
	}
	return nil, false
}

// Remove removes the row with the given id
func (s *Set) Remove(id string) {
	if r, ok := s.Row(id); ok {
		r.Remove()
	}
}

// Clear removes every row
func (s *Set) Clear() {
	for _, r := range s.Rows() {
		r.Remove()
	}
}

// Wait blocks until all in-flight resolutions and value updates finish
func (s *Set) Wait() {
	s.wg.Wait()
}

func (s *Set) detach(r *Row) {
	s.mu.Lock()
	s.rows = slices.DeleteFunc(s.rows, func(candidate *Row) bool { return candidate == r })
	s.mu.Unlock()
}

func (s *Set) changed() {
	s.mu.Lock()
	fn := s.onChange
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (s *Set) goResolve(fn func(ctx context.Context)) {
	s.wg.Go(func() {
		ctx, cancel := context.WithTimeout(s.ctx, s.deps.ResolveTimeout)
		defer cancel()
		fn(ctx)
	})
}
