// Package coursesearch is a backend-agnostic search layer for courseware and
// course-discovery content: callers express intent as neutral field, filter,
// exclude and facet structures; the client translates them into backend
// queries, executes them, and post-processes results with per-item access
// checks.
package coursesearch

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/campuskit/coursesearch/internal/engine"
	"github.com/campuskit/coursesearch/internal/engine/elastic"
	"github.com/campuskit/coursesearch/internal/filters"
	"github.com/campuskit/coursesearch/internal/logger"
	"github.com/campuskit/coursesearch/internal/mapping"
	"github.com/campuskit/coursesearch/internal/metrics"
	"github.com/campuskit/coursesearch/internal/postprocess"
)

// Default discovery shaping, overridable with WithDiscoverySettings.
var (
	defaultFilterFields = []string{
		"org", "language", "modes",
		"classification", "subclassification", "availability",
	}
	defaultSearchFields = []string{"org"}
)

const defaultFacetSize = 300

// Client is the coursesearch entry point.
type Client struct {
	engine  engine.SearchEngine
	gen     *filters.Generator
	process postprocess.Func
	log     *zap.Logger

	filterFields        []string
	facetSize           int
	searchFields        []string
	skipEnrollmentStart bool

	store interface{ Close() }
	now   func() time.Time
}

// New creates a Client. Without WithElasticsearch no engine is bound and
// search operations fail with ErrNoSearchEngine.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		cacheDriver:  "memory",
		filterFields: defaultFilterFields,
		facetSize:    defaultFacetSize,
		searchFields: defaultSearchFields,
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	logger := cfg.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Client{
		gen:                 buildGenerator(cfg),
		process:             postprocess.Func(cfg.process),
		log:                 logger,
		filterFields:        cfg.filterFields,
		facetSize:           cfg.facetSize,
		searchFields:        cfg.searchFields,
		skipEnrollmentStart: cfg.skipEnrollmentStart,
		now:                 func() time.Time { return time.Now().UTC() },
	}
	if c.process == nil {
		c.process = postprocess.Identity
	}

	if cfg.backendURL != "" {
		store, closer, err := createStore(cfg)
		if err != nil {
			return nil, err
		}

		eng, err := elastic.New(elastic.Config{
			URL:           cfg.backendURL,
			Index:         cfg.index,
			FieldMappings: toMappingOverrides(cfg.fieldMappings),
			MaxBatchSize:  cfg.maxBatchSize,
			HTTPClient:    cfg.httpClient,
			Logger:        logger,
		}, store)
		if err != nil {
			if closer != nil {
				closer.Close()
			}
			return nil, fmt.Errorf("coursesearch: create engine: %w", err)
		}
		c.engine = eng
		c.store = closer
	}

	metrics.RegisterSearchMetrics()
	return c, nil
}

func createStore(cfg *clientConfig) (mapping.Store, interface{ Close() }, error) {
	switch cfg.cacheDriver {
	case "memory":
		return mapping.NewMemoryStore(), nil, nil
	case "redis":
		s, err := mapping.NewRedisStore(mapping.RedisConfig{
			Addrs:    cfg.cacheAddrs,
			Username: cfg.cacheUsername,
			Password: cfg.cachePassword,
			DB:       cfg.cacheDB,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("coursesearch: create redis cache store: %w", err)
		}
		return s, s, nil
	default:
		return nil, nil, fmt.Errorf("coursesearch: unknown cache driver %q", cfg.cacheDriver)
	}
}

func buildGenerator(cfg *clientConfig) *filters.Generator {
	chain := make([]filters.Provider, 0, len(cfg.providers)+1)
	chain = append(chain, filters.DefaultProvider{})
	for _, p := range cfg.providers {
		chain = append(chain, providerAdapter{inner: p})
	}
	return filters.NewGenerator(chain...)
}

func toMappingOverrides(m map[string]FieldMapping) map[string]mapping.Property {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]mapping.Property, len(m))
	for field, fm := range m {
		out[field] = mapping.Property{Type: fm.Type, Index: fm.Index, Format: fm.Format}
	}
	return out
}

// Close releases the cache store connection, if any.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// ContextWithLogger attaches a per-request logger that overrides the client
// logger for that call.
func ContextWithLogger(ctx context.Context, l *zap.Logger) context.Context {
	return logger.ContextWithLogger(ctx, l)
}
