package mapping

import (
	"context"
	"errors"
	"testing"
)

type mockLoader struct {
	mapping Mapping
	err     error
	calls   int
}

func (m *mockLoader) LoadMappings(_ context.Context, _, _ string) (Mapping, error) {
	m.calls++
	return m.mapping, m.err
}

func stringProperty() Property {
	return Property{Type: "string", Index: "not_analyzed"}
}

func TestCacheGetLoadsOnMiss(t *testing.T) {
	loader := &mockLoader{mapping: Mapping{Properties: map[string]Property{"org": stringProperty()}}}
	c := NewCache(NewMemoryStore(), loader)

	m, err := c.Get(context.Background(), "courseware_index", "course_info")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !m.Has("org") {
		t.Error("expected loaded mapping to declare org")
	}
	if loader.calls != 1 {
		t.Fatalf("loader calls = %d, want 1", loader.calls)
	}

	// Second read is served from the store.
	if _, err := c.Get(context.Background(), "courseware_index", "course_info"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if loader.calls != 1 {
		t.Errorf("loader calls = %d, want 1 after cached read", loader.calls)
	}
}

func TestCacheGetEmptyBackend(t *testing.T) {
	loader := &mockLoader{}
	store := NewMemoryStore()
	c := NewCache(store, loader)

	m, err := c.Get(context.Background(), "idx", "kind")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !m.IsEmpty() {
		t.Error("expected empty mapping when backend reports none")
	}
	// Empty mappings are not cached, so the next read loads again.
	if _, err := c.Get(context.Background(), "idx", "kind"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if loader.calls != 2 {
		t.Errorf("loader calls = %d, want 2", loader.calls)
	}
}

func TestCacheClearForcesReload(t *testing.T) {
	loader := &mockLoader{mapping: Mapping{Properties: map[string]Property{"start": {Type: "date"}}}}
	c := NewCache(NewMemoryStore(), loader)

	before, err := c.Get(context.Background(), "idx", "kind")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	if err := c.Clear(context.Background(), "idx", "kind"); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	// Cleared entry reads as a miss and reloads the same backend mapping:
	// re-declaring an already-present field is observably a no-op.
	after, err := c.Get(context.Background(), "idx", "kind")
	if err != nil {
		t.Fatalf("Get after Clear: %v", err)
	}
	if loader.calls != 2 {
		t.Errorf("loader calls = %d, want 2", loader.calls)
	}
	if !after.Has("start") || len(after.Properties) != len(before.Properties) {
		t.Error("mapping changed across clear/reload cycle")
	}
}

func TestCacheGetLoaderError(t *testing.T) {
	wantErr := errors.New("backend down")
	c := NewCache(NewMemoryStore(), &mockLoader{err: wantErr})

	if _, err := c.Get(context.Background(), "idx", "kind"); !errors.Is(err, wantErr) {
		t.Fatalf("Get error = %v, want %v", err, wantErr)
	}
}

func TestMemoryStoreMiss(t *testing.T) {
	s := NewMemoryStore()
	if _, err := s.Get(context.Background(), "absent"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("Get error = %v, want ErrCacheMiss", err)
	}
}
