package resolver

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rebeliceyang/lazyfilter/internal/models"
)

// Static serves shapes from an endpoint table, usually taken from the
// filters.endpoints config section. The table can be swapped on reload.
type Static struct {
	mu     sync.RWMutex
	shapes map[string]models.FieldShape
}

// NewStatic creates a resolver over shapes. Endpoint names are matched
// case-insensitively.
func NewStatic(shapes map[string]models.FieldShape) *Static {
	s := &Static{}
	s.Replace(shapes)
	return s
}

// Replace swaps the endpoint table
func (s *Static) Replace(shapes map[string]models.FieldShape) {
	lowered := make(map[string]models.FieldShape, len(shapes))
	for name, shape := range shapes {
		lowered[strings.ToLower(name)] = shape
	}
	s.mu.Lock()
	s.shapes = lowered
	s.mu.Unlock()
}

// Has reports whether endpoint is in the table
func (s *Static) Has(endpoint string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.shapes[strings.ToLower(endpoint)]
	return ok
}

// Resolve implements Resolver. args are ignored.
func (s *Static) Resolve(ctx context.Context, endpoint string, _ map[string]any) (models.FieldShape, error) {
	if err := ctx.Err(); err != nil {
		return models.FieldShape{}, err
	}
	s.mu.RLock()
	shape, ok := s.shapes[strings.ToLower(endpoint)]
	s.mu.RUnlock()
	if !ok {
		return models.FieldShape{}, fmt.Errorf("%w: %s", ErrUnknownEndpoint, endpoint)
	}
	return normalize(endpoint, shape)
}
