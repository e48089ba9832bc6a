package connection

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rebeliceyang/lazyfilter/internal/models"
)

// Pool wraps pgxpool with our configuration
type Pool struct {
	pool *pgxpool.Pool
}

// NewPool creates a new connection pool and pings the server
func NewPool(ctx context.Context, config models.ConnectionConfig) (*Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(buildConnectionString(config))
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection config: %w", err)
	}

	// metadata and resolver calls only; keep the pool small
	poolConfig.MaxConns = 4
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Pool{pool: pool}, nil
}

// Close closes the connection pool
func (p *Pool) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

// Query executes a query and returns its rows keyed by column name
func (p *Pool) Query(ctx context.Context, sql string, args ...any) ([]map[string]any, error) {
	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []map[string]any
	fieldDescriptions := rows.FieldDescriptions()

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}

		row := make(map[string]any, len(fieldDescriptions))
		for i, fd := range fieldDescriptions {
			row[fd.Name] = values[i]
		}
		results = append(results, row)
	}

	return results, rows.Err()
}

// quoteValue quotes a keyword/value connection string value
func quoteValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

// buildConnectionString creates a PostgreSQL connection string
func buildConnectionString(config models.ConnectionConfig) string {
	sslMode := config.SSLMode
	if sslMode == "" {
		sslMode = "prefer"
	}

	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s database=%s sslmode=%s",
		quoteValue(config.Host),
		config.Port,
		quoteValue(config.User),
		quoteValue(config.Database),
		sslMode,
	)

	if config.Password != "" {
		connStr += " password=" + quoteValue(config.Password)
	}

	return connStr
}
