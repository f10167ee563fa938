package coursesearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewWithoutBackend(t *testing.T) {
	c, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	if c.engine != nil {
		t.Error("expected no engine without WithElasticsearch")
	}
	if _, err := c.Search(context.Background(), "x", nil); !errors.Is(err, ErrNoSearchEngine) {
		t.Errorf("Search error = %v, want ErrNoSearchEngine", err)
	}
}

func TestNewWiresBackend(t *testing.T) {
	var searchHits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodHead:
			w.WriteHeader(http.StatusOK)
		case strings.HasSuffix(r.URL.Path, "/_search"):
			searchHits++
			fmt.Fprint(w, `{"took": 1, "hits": {"total": 0, "hits": []}}`)
		default:
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer srv.Close()

	c, err := New(
		WithElasticsearch(srv.URL, "courseware_index"),
		WithMemoryCache(),
		WithFieldMapping("start", FieldMapping{Type: "date"}),
		WithMaxBatchSize(50),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	res, err := c.Search(context.Background(), "biology", nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Total != 0 || searchHits != 1 {
		t.Errorf("total = %d backend hits = %d", res.Total, searchHits)
	}
}

func TestNewRejectsBadBackend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]any{"error": "boom"})
	}))
	defer srv.Close()

	if _, err := New(WithElasticsearch(srv.URL, "courseware_index")); err == nil {
		t.Error("expected error when the backend rejects index creation")
	}
}

func TestToMappingOverrides(t *testing.T) {
	out := toMappingOverrides(map[string]FieldMapping{
		"start": {Type: "date", Format: "date_time_no_millis"},
	})
	if out["start"].Type != "date" || out["start"].Format != "date_time_no_millis" {
		t.Errorf("overrides = %+v", out)
	}
	if toMappingOverrides(nil) != nil {
		t.Error("nil input must map to nil overrides")
	}
}
