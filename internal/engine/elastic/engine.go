// Package elastic implements the search engine port against a document
// search engine speaking the JSON query DSL over HTTP.
package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/campuskit/coursesearch/internal/domain"
	"github.com/campuskit/coursesearch/internal/mapping"
	"github.com/campuskit/coursesearch/internal/metrics"
)

const (
	defaultTimeout   = 10 * time.Second
	defaultMaxBatch  = 100
	contentTypeJSON  = "application/json"
	queryParseMarker = "QueryParsingException"
)

// contentField holds the analyzed, text-searchable document body. It is
// never declared as an exact-match field.
const contentField = "content"

// Config holds the engine connection and behavior settings.
type Config struct {
	// URL is the backend base URL, e.g. http://localhost:9200.
	URL string
	// Index is the collection all operations target.
	Index string
	// FieldMappings overrides the inferred type for specific fields.
	FieldMappings map[string]mapping.Property
	// MaxBatchSize caps documents per bulk round trip. Zero uses the default.
	MaxBatchSize int
	// HTTPClient overrides the default client, mainly for tests.
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Engine implements engine.SearchEngine against one backend index.
type Engine struct {
	baseURL   string
	index     string
	http      *http.Client
	mappings  *mapping.Cache
	overrides map[string]mapping.Property
	maxBatch  int
	log       *zap.Logger
}

// New creates an engine and ensures the index exists. The mapping store backs
// the process-wide schema cache; the engine itself is the cache's backend
// loader.
func New(cfg Config, store mapping.Store) (*Engine, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("elastic: backend URL is required")
	}
	if cfg.Index == "" {
		return nil, fmt.Errorf("elastic: index name is required")
	}
	if _, err := url.Parse(cfg.URL); err != nil {
		return nil, fmt.Errorf("elastic: invalid backend URL %q: %w", cfg.URL, err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	maxBatch := cfg.MaxBatchSize
	if maxBatch <= 0 {
		maxBatch = defaultMaxBatch
	}

	e := &Engine{
		baseURL:   strings.TrimRight(cfg.URL, "/"),
		index:     cfg.Index,
		http:      httpClient,
		overrides: cfg.FieldMappings,
		maxBatch:  maxBatch,
		log:       logger,
	}
	e.mappings = mapping.NewCache(store, e)

	if err := e.ensureIndex(context.Background()); err != nil {
		return nil, err
	}
	return e, nil
}

// Search executes the fully-parameterized query, including facets and
// discovery extensions.
func (e *Engine) Search(ctx context.Context, req *domain.Request) (*domain.Result, error) {
	return e.search(ctx, "search", req, queryParams{
		Term:             req.Term,
		Fields:           req.Fields,
		Filters:          req.Filters,
		Excludes:         req.Excludes,
		Facets:           req.Facets,
		Classification:   req.Classification,
		HideVisibilities: req.PagePosition.HiddenVisibilities(),
	})
}

// SearchString executes a plain term search over the request's term and
// dictionaries.
func (e *Engine) SearchString(ctx context.Context, req *domain.Request) (*domain.Result, error) {
	return e.search(ctx, "search_string", req, queryParams{
		Term:     req.Term,
		Fields:   req.Fields,
		Filters:  req.Filters,
		Excludes: req.Excludes,
	})
}

func (e *Engine) search(ctx context.Context, op string, req *domain.Request, params queryParams) (*domain.Result, error) {
	body, err := buildSearchBody(params)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	raw, err := e.doSearch(ctx, req.Kind, req.Size, req.From, body)
	metrics.SearchRequestDuration.WithLabelValues(op).Observe(time.Since(started).Seconds())
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(op, "error").Inc()
		e.log.Error("search failed",
			zap.String("index", e.index),
			zap.String("kind", req.Kind),
			zap.String("term", req.Term),
			zap.Error(err))
		return nil, err
	}
	metrics.SearchRequestsTotal.WithLabelValues(op, "ok").Inc()

	e.log.Debug("search completed",
		zap.String("index", e.index),
		zap.String("kind", req.Kind),
		zap.Int64("total", raw.Hits.Total),
		zap.Int64("took_ms", raw.Took))

	return translateResponse(raw), nil
}

func (e *Engine) doSearch(ctx context.Context, kind string, size, from int, body map[string]any) (*searchResponse, error) {
	endpoint := fmt.Sprintf("%s/%s/%s/_search?size=%d&from=%d", e.baseURL, e.index, kind, size, from)

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode search body: %w", err)
	}

	res, err := e.do(ctx, http.MethodPost, endpoint, payload)
	if err != nil {
		return nil, fmt.Errorf("%w: search %s/%s: %v", domain.ErrBackend, e.index, kind, err)
	}
	defer res.Body.Close()

	var raw searchResponse
	if err := json.NewDecoder(res.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: decode search response: %v", domain.ErrBackend, err)
	}

	if res.StatusCode >= http.StatusBadRequest {
		if res.StatusCode == http.StatusBadRequest && strings.Contains(raw.Error, queryParseMarker) {
			return nil, fmt.Errorf("%w: %s", domain.ErrQueryParse, raw.Error)
		}
		return nil, fmt.Errorf("%w: search %s/%s: status %d: %s",
			domain.ErrBackend, e.index, kind, res.StatusCode, raw.Error)
	}

	return &raw, nil
}

// ensureIndex creates the index when it does not exist yet.
func (e *Engine) ensureIndex(ctx context.Context) error {
	endpoint := fmt.Sprintf("%s/%s", e.baseURL, e.index)

	res, err := e.do(ctx, http.MethodHead, endpoint, nil)
	if err != nil {
		return fmt.Errorf("%w: check index %s: %v", domain.ErrBackend, e.index, err)
	}
	io.Copy(io.Discard, res.Body)
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = e.do(ctx, http.MethodPut, endpoint, nil)
	if err != nil {
		return fmt.Errorf("%w: create index %s: %v", domain.ErrBackend, e.index, err)
	}
	defer res.Body.Close()
	if res.StatusCode >= http.StatusBadRequest {
		msg, _ := io.ReadAll(res.Body)
		return fmt.Errorf("%w: create index %s: status %d: %s",
			domain.ErrBackend, e.index, res.StatusCode, msg)
	}

	e.log.Info("created index", zap.String("index", e.index))
	return nil
}

func (e *Engine) do(ctx context.Context, method, endpoint string, payload []byte) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", contentTypeJSON)
	}
	return e.http.Do(req)
}
