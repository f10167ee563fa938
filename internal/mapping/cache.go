// Package mapping holds the process-wide schema mapping cache: per
// (collection, kind) field-type metadata, lazily loaded from the backend and
// invalidated on schema extension.
package mapping

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/campuskit/coursesearch/internal/metrics"
)

// ErrCacheMiss signals that the backing store has no entry for a key.
var ErrCacheMiss = errors.New("mapping cache miss")

// Property describes one declared field: its type and analysis mode, or a
// nested set of properties for structured fields.
type Property struct {
	Type       string              `json:"type,omitempty"`
	Index      string              `json:"index,omitempty"`
	Format     string              `json:"format,omitempty"`
	Properties map[string]Property `json:"properties,omitempty"`
}

// Mapping is the declared field typing for one (collection, kind) pair.
type Mapping struct {
	Properties map[string]Property `json:"properties,omitempty"`
}

// IsEmpty reports whether no fields are declared. Cleared cache entries are
// stored as empty mappings, so empty doubles as a miss marker.
func (m Mapping) IsEmpty() bool { return len(m.Properties) == 0 }

// Has reports whether a top-level field is declared.
func (m Mapping) Has(field string) bool {
	_, ok := m.Properties[field]
	return ok
}

// Store is the backing key-value store. Implementations must provide atomic
// get/set; no further locking is required because population is idempotent
// and clearing is a coarse invalidation.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Loader fetches authoritative mappings from the backend on a cache miss.
// Backends with no mappings for the kind return an empty Mapping, not an
// error.
type Loader interface {
	LoadMappings(ctx context.Context, collection, kind string) (Mapping, error)
}

// Cache is the schema mapping cache. All mapping state mutation goes through
// Get/Set/Clear; entries never expire on their own.
type Cache struct {
	store  Store
	loader Loader
}

// NewCache creates a mapping cache over the given store and backend loader.
func NewCache(store Store, loader Loader) *Cache {
	return &Cache{store: store, loader: loader}
}

// Key formats the store key for one (collection, kind) pair.
func Key(collection, kind string) string {
	return fmt.Sprintf("search_mappings_%s_%s", collection, kind)
}

// Get returns the cached mapping, loading it from the backend on a miss.
// A present-but-empty entry counts as a miss so that Clear forces a reload.
func (c *Cache) Get(ctx context.Context, collection, kind string) (Mapping, error) {
	data, err := c.store.Get(ctx, Key(collection, kind))
	switch {
	case err == nil:
		var m Mapping
		if decErr := json.Unmarshal(data, &m); decErr != nil {
			return Mapping{}, fmt.Errorf("decode cached mapping %s/%s: %w", collection, kind, decErr)
		}
		if !m.IsEmpty() {
			metrics.MappingCacheTotal.WithLabelValues("hit").Inc()
			return m, nil
		}
	case !errors.Is(err, ErrCacheMiss):
		return Mapping{}, fmt.Errorf("mapping cache get %s/%s: %w", collection, kind, err)
	}

	metrics.MappingCacheTotal.WithLabelValues("miss").Inc()

	m, err := c.loader.LoadMappings(ctx, collection, kind)
	if err != nil {
		return Mapping{}, err
	}
	if !m.IsEmpty() {
		if err := c.Set(ctx, collection, kind, m); err != nil {
			return Mapping{}, err
		}
	}
	return m, nil
}

// Set stores a mapping for the pair.
func (c *Cache) Set(ctx context.Context, collection, kind string, m Mapping) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode mapping %s/%s: %w", collection, kind, err)
	}
	if err := c.store.Set(ctx, Key(collection, kind), data); err != nil {
		return fmt.Errorf("mapping cache set %s/%s: %w", collection, kind, err)
	}
	return nil
}

// Clear invalidates the pair's entry by overwriting it with an empty mapping,
// so the next Get reloads backend truth. Clearing never merges in place; a
// concurrent writer at worst re-declares an already-present field, which the
// backend accepts idempotently.
func (c *Cache) Clear(ctx context.Context, collection, kind string) error {
	return c.Set(ctx, collection, kind, Mapping{})
}
