// Package resolver provides the field shapes of custom filter conditions.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rebeliceyang/lazyfilter/internal/models"
)

// ErrUnknownEndpoint is returned for endpoints a resolver does not serve
var ErrUnknownEndpoint = errors.New("unknown endpoint")

// Resolver returns the editable shape for a custom condition endpoint
type Resolver interface {
	Resolve(ctx context.Context, endpoint string, args map[string]any) (models.FieldShape, error)
}

// normalize validates a shape and fills in choices for select types
func normalize(endpoint string, shape models.FieldShape) (models.FieldShape, error) {
	if !shape.Type.Known() {
		return models.FieldShape{}, fmt.Errorf("%s returned no field type", endpoint)
	}
	shape.Options = strings.TrimSpace(shape.Options)
	if len(shape.Choices) == 0 && (shape.Type == models.FieldTypeSelect || shape.Type == models.FieldTypeMultiSelect) {
		shape.Choices = models.ChoicesFromOptions(shape.Options)
	}
	return shape, nil
}

// Chain tries each resolver in turn, moving on when one does not know the
// endpoint.
type Chain []Resolver

// Resolve implements Resolver
func (c Chain) Resolve(ctx context.Context, endpoint string, args map[string]any) (models.FieldShape, error) {
	for _, r := range c {
		if r == nil {
			continue
		}
		shape, err := r.Resolve(ctx, endpoint, args)
		if errors.Is(err, ErrUnknownEndpoint) {
			continue
		}
		return shape, err
	}
	return models.FieldShape{}, fmt.Errorf("%w: %s", ErrUnknownEndpoint, endpoint)
}
