package metadata

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/rebeliceyang/lazyfilter/internal/models"
)

type indexEntry struct {
	fields   []models.FieldDescriptor
	loadedAt time.Time
}

// Index caches the fields of record types loaded from a Source. Concurrent
// loads of the same record type share one call. Lookup and Fields only read
// the cache and never block on the source; Load fills it.
type Index struct {
	source Source
	ttl    time.Duration
	logger *slog.Logger
	group  singleflight.Group
	now    func() time.Time

	mu      sync.RWMutex
	entries map[string]indexEntry
}

// NewIndex creates a field index over source. A ttl of zero keeps entries
// until they are invalidated.
func NewIndex(source Source, ttl time.Duration, logger *slog.Logger) *Index {
	if logger == nil {
		logger = slog.Default()
	}
	return &Index{
		source:  source,
		ttl:     ttl,
		logger:  logger,
		now:     time.Now,
		entries: make(map[string]indexEntry),
	}
}

func (ix *Index) cached(recordType string) (indexEntry, bool, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	e, ok := ix.entries[recordType]
	if !ok {
		return indexEntry{}, false, false
	}
	fresh := ix.ttl <= 0 || ix.now().Sub(e.loadedAt) < ix.ttl
	return e, true, fresh
}

// Load returns the fields of recordType, reading the source when the cache
// has no fresh entry.
func (ix *Index) Load(ctx context.Context, recordType string) ([]models.FieldDescriptor, error) {
	if e, ok, fresh := ix.cached(recordType); ok && fresh {
		return e.fields, nil
	}

	v, err, _ := ix.group.Do(recordType, func() (any, error) {
		fields, err := ix.source.LoadFields(ctx, recordType)
		if err != nil {
			return nil, fmt.Errorf("failed to load fields of %s: %w", recordType, err)
		}
		for i := range fields {
			fields[i].Parent = recordType
		}

		ix.mu.Lock()
		ix.entries[recordType] = indexEntry{fields: fields, loadedAt: ix.now()}
		ix.mu.Unlock()

		ix.logger.Debug("loaded fields", "record_type", recordType, "count", len(fields))
		return fields, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.FieldDescriptor), nil
}

// Fields implements filter.FieldIndex. It returns the cached fields, stale
// ones included, and nil when recordType was never loaded.
func (ix *Index) Fields(recordType string) []models.FieldDescriptor {
	e, ok, fresh := ix.cached(recordType)
	if !ok {
		ix.logger.Debug("fields not loaded", "record_type", recordType)
		return nil
	}
	if !fresh {
		ix.logger.Debug("serving stale fields", "record_type", recordType)
	}
	return slices.Clone(e.fields)
}

// Lookup implements filter.FieldIndex from the cache
func (ix *Index) Lookup(recordType, fieldname string) (models.FieldDescriptor, bool) {
	e, ok, _ := ix.cached(recordType)
	if !ok {
		return models.FieldDescriptor{}, false
	}
	for _, f := range e.fields {
		if f.Name == fieldname {
			return f, true
		}
	}
	return models.FieldDescriptor{}, false
}

// Invalidate drops the cached fields of recordType
func (ix *Index) Invalidate(recordType string) {
	ix.mu.Lock()
	delete(ix.entries, recordType)
	ix.mu.Unlock()
}

// InvalidateAll drops every cached entry
func (ix *Index) InvalidateAll() {
	ix.mu.Lock()
	clear(ix.entries)
	ix.mu.Unlock()
}
