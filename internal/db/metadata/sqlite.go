package metadata

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rebeliceyang/lazyfilter/internal/models"
)

// SQLiteSource reads field metadata from a SQLite database file
type SQLiteSource struct {
	db *sql.DB
}

// NewSQLiteSource opens the database at path
func NewSQLiteSource(path string) (*SQLiteSource, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// an in-memory database only lives on its first connection
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	return &SQLiteSource{db: db}, nil
}

type sqliteColumn struct {
	name     string
	declType string
	notNull  bool
}

func (s *SQLiteSource) columns(ctx context.Context, table string) ([]sqliteColumn, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, type, "notnull" FROM pragma_table_info(?) ORDER BY cid`, table)
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var cols []sqliteColumn
	for rows.Next() {
		var c sqliteColumn
		if err := rows.Scan(&c.name, &c.declType, &c.notNull); err != nil {
			return nil, fmt.Errorf("failed to get columns: %w", err)
		}
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

func (s *SQLiteSource) foreignKeys(ctx context.Context, table string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT "from", "table" FROM pragma_foreign_key_list(?)`, table)
	if err != nil {
		return nil, fmt.Errorf("failed to get foreign keys: %w", err)
	}
	defer func() { _ = rows.Close() }()

	links := make(map[string]string)
	for rows.Next() {
		var from, target string
		if err := rows.Scan(&from, &target); err != nil {
			return nil, fmt.Errorf("failed to get foreign keys: %w", err)
		}
		links[from] = target
	}
	return links, rows.Err()
}

// LoadFields implements Source. A record type may be given as
// "main.table"; the schema part is ignored.
func (s *SQLiteSource) LoadFields(ctx context.Context, recordType string) ([]models.FieldDescriptor, error) {
	table := recordType
	if _, t, ok := strings.Cut(recordType, "."); ok {
		table = t
	}

	cols, err := s.columns(ctx, table)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("table %s not found", table)
	}
	links, err := s.foreignKeys(ctx, table)
	if err != nil {
		return nil, err
	}

	fields := make([]models.FieldDescriptor, 0, len(cols))
	for _, c := range cols {
		fields = append(fields, columnField(ColumnInfo{
			Name:     c.name,
			DataType: c.declType,
			Nullable: !c.notNull,
		}, links[c.name]))
	}
	return fields, nil
}

// RecordTypes implements Source
func (s *SQLiteSource) RecordTypes(ctx context.Context) ([]RecordType, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to list tables: %w", err)
		}
		names = append(names, name)
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}

	types := make([]RecordType, 0, len(names))
	for _, name := range names {
		cols, err := s.columns(ctx, name)
		if err != nil {
			return nil, err
		}
		colNames := make([]string, len(cols))
		for i, c := range cols {
			colNames[i] = c.name
		}
		types = append(types, RecordType{Name: name, Hierarchical: hasNestedSetColumns(colNames)})
	}
	return types, nil
}

// Exec runs a statement against the database
func (s *SQLiteSource) Exec(ctx context.Context, query string, args ...any) error {
	_, err := s.db.ExecContext(ctx, query, args...)
	return err
}

// Close closes the database connection
func (s *SQLiteSource) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
