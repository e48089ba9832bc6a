package history

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Usage records how often a record type was opened in the filter builder
type Usage struct {
	RecordType string
	OpenCount  int
	LastOpened time.Time
}

// Store keeps record type usage in SQLite
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore opens or creates the usage database at path
func NewStore(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create history schema: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Touch marks a record type as opened now
func (s *Store) Touch(ctx context.Context, recordType string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO record_type_usage (record_type, open_count, last_opened_at)
		VALUES (?, 1, ?)
		ON CONFLICT(record_type) DO UPDATE SET
			open_count = open_count + 1,
			last_opened_at = excluded.last_opened_at`,
		recordType,
		s.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record usage of %s: %w", recordType, err)
	}
	return nil
}

// Recent returns the most recently opened record types, newest first
func (s *Store) Recent(ctx context.Context, limit int) ([]Usage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT record_type, open_count, last_opened_at
		FROM record_type_usage
		ORDER BY last_opened_at DESC, record_type
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var usage []Usage
	for rows.Next() {
		var u Usage
		if err := rows.Scan(&u.RecordType, &u.OpenCount, &u.LastOpened); err != nil {
			return nil, fmt.Errorf("failed to scan history: %w", err)
		}
		usage = append(usage, u)
	}
	return usage, rows.Err()
}

// RecentTypes returns only the names from Recent
func (s *Store) RecentTypes(ctx context.Context, limit int) ([]string, error) {
	usage, err := s.Recent(ctx, limit)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(usage))
	for i, u := range usage {
		names[i] = u.RecordType
	}
	return names, nil
}

// Forget drops the usage of a record type
func (s *Store) Forget(ctx context.Context, recordType string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM record_type_usage WHERE record_type = ?`, recordType); err != nil {
		return fmt.Errorf("failed to forget %s: %w", recordType, err)
	}
	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
