package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoSearchEngine signals that no search engine is configured for the
	// caller's scope.
	ErrNoSearchEngine = errors.New("no search engine configured")
	// ErrQueryParse signals a search term the backend could not parse.
	ErrQueryParse = errors.New("malformed search query")
	// ErrInvalidValue signals a malformed neutral-dictionary value.
	ErrInvalidValue = errors.New("invalid dictionary value")
	// ErrUnknownToken signals an unrecognized availability or page-position token.
	ErrUnknownToken = errors.New("unknown token")
	// ErrBackend signals a backend communication or internal failure.
	ErrBackend = errors.New("search backend error")
)

// BulkIndexError aggregates per-document failures from bulk index or remove
// round trips. Accepted documents stay indexed; nothing is rolled back.
type BulkIndexError struct {
	Messages []string
}

func (e *BulkIndexError) Error() string {
	return fmt.Sprintf("bulk operation failed for %d documents: %s",
		len(e.Messages), strings.Join(e.Messages, ", "))
}
