package elastic

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/campuskit/coursesearch/internal/domain"
	"github.com/campuskit/coursesearch/internal/mapping"
)

// LoadMappings implements mapping.Loader: it fetches the declared properties
// for one document kind. A 404 means no mappings exist for the kind yet,
// which is the normal case when a new kind is first indexed.
func (e *Engine) LoadMappings(ctx context.Context, collection, kind string) (mapping.Mapping, error) {
	endpoint := fmt.Sprintf("%s/%s/_mapping/%s", e.baseURL, collection, kind)

	res, err := e.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return mapping.Mapping{}, fmt.Errorf("%w: get mapping %s/%s: %v", domain.ErrBackend, collection, kind, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		io.Copy(io.Discard, res.Body)
		return mapping.Mapping{}, nil
	}
	if res.StatusCode >= http.StatusBadRequest {
		msg, _ := io.ReadAll(res.Body)
		return mapping.Mapping{}, fmt.Errorf("%w: get mapping %s/%s: status %d: %s",
			domain.ErrBackend, collection, kind, res.StatusCode, msg)
	}

	// Response shape: {"<index>": {"mappings": {"<kind>": {...}}}}. The top
	// key may be an alias target, so take whichever entry carries the kind.
	var raw map[string]struct {
		Mappings map[string]mapping.Mapping `json:"mappings"`
	}
	if err := json.NewDecoder(res.Body).Decode(&raw); err != nil {
		return mapping.Mapping{}, fmt.Errorf("%w: decode mapping response: %v", domain.ErrBackend, err)
	}
	for _, entry := range raw {
		if m, ok := entry.Mappings[kind]; ok {
			return m, nil
		}
	}
	return mapping.Mapping{}, nil
}

// checkMappings declares any top-level field of doc that the backend does not
// know yet, then clears the cache entry so the next read reloads backend
// truth. Re-declaring a field another writer added concurrently is harmless:
// the backend accepts identical declarations idempotently.
func (e *Engine) checkMappings(ctx context.Context, kind string, doc map[string]any) error {
	current, err := e.mappings.Get(ctx, e.index, kind)
	if err != nil {
		return err
	}

	newProperties := map[string]mapping.Property{}
	for field, value := range doc {
		if field == contentField || current.Has(field) {
			continue
		}
		newProperties[field] = e.inferProperty(field, value)
	}
	if len(newProperties) == 0 {
		return nil
	}

	if err := e.putMapping(ctx, kind, newProperties); err != nil {
		return err
	}

	e.log.Debug("extended schema mapping",
		zap.String("index", e.index),
		zap.String("kind", kind),
		zap.Int("new_fields", len(newProperties)))

	return e.mappings.Clear(ctx, e.index, kind)
}

// inferProperty picks the declared type for a field: the override table wins,
// nested documents recurse into structured properties, and everything else is
// indexed as an exact-match string so filters work off exact values.
func (e *Engine) inferProperty(field string, value any) mapping.Property {
	if p, ok := e.overrides[field]; ok {
		return p
	}
	if nested, ok := value.(map[string]any); ok {
		props := make(map[string]mapping.Property, len(nested))
		for f, v := range nested {
			props[f] = e.inferProperty(f, v)
		}
		return mapping.Property{Properties: props}
	}
	return mapping.Property{Type: "string", Index: "not_analyzed"}
}

// putMapping declares new fields for the kind. The backend only accepts
// additions; existing declarations are never changed.
func (e *Engine) putMapping(ctx context.Context, kind string, properties map[string]mapping.Property) error {
	endpoint := fmt.Sprintf("%s/%s/%s/_mapping", e.baseURL, e.index, kind)

	payload, err := json.Marshal(map[string]any{
		kind: map[string]any{"properties": properties},
	})
	if err != nil {
		return fmt.Errorf("encode mapping: %w", err)
	}

	res, err := e.do(ctx, http.MethodPut, endpoint, payload)
	if err != nil {
		return fmt.Errorf("%w: put mapping %s/%s: %v", domain.ErrBackend, e.index, kind, err)
	}
	defer res.Body.Close()
	if res.StatusCode >= http.StatusBadRequest {
		msg, _ := io.ReadAll(res.Body)
		return fmt.Errorf("%w: put mapping %s/%s: status %d: %s",
			domain.ErrBackend, e.index, kind, res.StatusCode, msg)
	}
	return nil
}
