package coursesearch

import (
	"net/http"

	"go.uber.org/zap"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	backendURL    string
	index         string
	maxBatchSize  int
	fieldMappings map[string]FieldMapping
	httpClient    *http.Client

	cacheDriver   string // "memory" or "redis"
	cacheAddrs    []string
	cacheUsername string
	cachePassword string
	cacheDB       int

	providers []FilterProvider
	process   PostProcessor

	filterFields        []string
	facetSize           int
	searchFields        []string
	skipEnrollmentStart bool

	logger *zap.Logger
}

// WithElasticsearch points the client at a search backend and index.
// Without this option no engine is bound and search calls fail with
// ErrNoSearchEngine.
func WithElasticsearch(url, index string) Option {
	return optionFunc(func(c *clientConfig) {
		c.backendURL = url
		c.index = index
	})
}

// WithMemoryCache backs the schema-mapping cache with an in-process store.
// This is the default.
func WithMemoryCache() Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheDriver = "memory"
	})
}

// WithRedisCache backs the schema-mapping cache with a Redis store, sharing
// schema state across processes.
func WithRedisCache(addrs []string, username, password string, db int) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheDriver = "redis"
		c.cacheAddrs = addrs
		c.cacheUsername = username
		c.cachePassword = password
		c.cacheDB = db
	})
}

// WithFieldMapping overrides the inferred schema declaration for one field.
func WithFieldMapping(field string, m FieldMapping) Option {
	return optionFunc(func(c *clientConfig) {
		if c.fieldMappings == nil {
			c.fieldMappings = map[string]FieldMapping{}
		}
		c.fieldMappings[field] = m
	})
}

// WithMaxBatchSize caps documents per bulk round trip. Default: 100.
func WithMaxBatchSize(size int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxBatchSize = size
	})
}

// WithHTTPClient overrides the backend HTTP client, mainly for custom
// timeouts and tests.
func WithHTTPClient(hc *http.Client) Option {
	return optionFunc(func(c *clientConfig) {
		c.httpClient = hc
	})
}

// WithFilterProvider appends a provider to the request-shaping chain. Later
// providers win on key collisions; the built-in defaults run first.
func WithFilterProvider(p FilterProvider) Option {
	return optionFunc(func(c *clientConfig) {
		c.providers = append(c.providers, p)
	})
}

// WithResultProcessor sets the per-item access predicate applied to every
// search result. Default: all items pass unchanged.
func WithResultProcessor(fn PostProcessor) Option {
	return optionFunc(func(c *clientConfig) {
		c.process = fn
	})
}

// WithDiscoverySettings configures course-discovery request shaping: which
// fields are faceted, the facet bucket cap, and which generator-provided
// fields carry over into the discovery query.
func WithDiscoverySettings(filterFields []string, facetSize int, searchFields []string) Option {
	return optionFunc(func(c *clientConfig) {
		c.filterFields = filterFields
		c.facetSize = facetSize
		c.searchFields = searchFields
	})
}

// WithSkipEnrollmentStartFilter disables the default "enrollment has started"
// narrowing on discovery searches.
func WithSkipEnrollmentStartFilter() Option {
	return optionFunc(func(c *clientConfig) {
		c.skipEnrollmentStart = true
	})
}

// WithLogger enables structured logging for client operations.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}
