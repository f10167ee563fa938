package coursesearch

import "github.com/campuskit/coursesearch/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNoSearchEngine = domain.ErrNoSearchEngine
	ErrQueryParse     = domain.ErrQueryParse
	ErrInvalidValue   = domain.ErrInvalidValue
	ErrUnknownToken   = domain.ErrUnknownToken
	ErrBackend        = domain.ErrBackend
)

// BulkIndexError aggregates per-document failures from bulk index or remove
// operations. Use errors.As() to inspect the individual messages.
type BulkIndexError = domain.BulkIndexError
