package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/spf13/cast"

	"github.com/rebeliceyang/lazyfilter/internal/models"
)

// Querier runs a query and returns its rows keyed by column name
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) ([]map[string]any, error)
}

var endpointPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// SQL resolves endpoints by calling a PostgreSQL function of the same name:
//
//	SELECT fieldtype, options FROM endpoint($1::jsonb)
//
// The arguments are passed as a JSON object.
type SQL struct {
	q Querier
}

// NewSQL creates a resolver calling functions through q
func NewSQL(q Querier) *SQL {
	return &SQL{q: q}
}

// Resolve implements Resolver
func (r *SQL) Resolve(ctx context.Context, endpoint string, args map[string]any) (models.FieldShape, error) {
	if !endpointPattern.MatchString(endpoint) {
		return models.FieldShape{}, fmt.Errorf("%w: %q is not a function name", ErrUnknownEndpoint, endpoint)
	}
	if args == nil {
		args = map[string]any{}
	}

	payload, err := json.Marshal(args)
	if err != nil {
		return models.FieldShape{}, fmt.Errorf("failed to encode arguments: %w", err)
	}

	fn := pgx.Identifier(strings.Split(endpoint, ".")).Sanitize()
	rows, err := r.q.Query(ctx, fmt.Sprintf("SELECT fieldtype, options FROM %s($1::jsonb)", fn), string(payload))
	if err != nil {
		return models.FieldShape{}, fmt.Errorf("failed to call %s: %w", endpoint, err)
	}
	if len(rows) == 0 {
		return models.FieldShape{}, fmt.Errorf("%s returned no rows", endpoint)
	}

	ft, err := models.ParseFieldType(cast.ToString(rows[0]["fieldtype"]))
	if err != nil {
		return models.FieldShape{}, fmt.Errorf("%s: %w", endpoint, err)
	}
	return normalize(endpoint, models.FieldShape{
		Type:    ft,
		Options: cast.ToString(rows[0]["options"]),
	})
}
