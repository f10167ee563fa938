// Package engine defines the backend port that any concrete search engine
// must satisfy.
package engine

import (
	"context"

	"github.com/campuskit/coursesearch/internal/domain"
)

// SearchEngine is the abstract backend contract. Implementations translate
// the neutral request into their own query dialect and the raw response back
// into the canonical result envelope.
type SearchEngine interface {
	// Index upserts documents of the given kind in one batched operation.
	// Schema mappings are extended for previously unseen fields before the
	// documents are written.
	Index(ctx context.Context, kind string, docs []map[string]any) error

	// Remove deletes documents by id. Missing ids are not errors.
	Remove(ctx context.Context, kind string, ids []string) error

	// Search executes the fully-parameterized query, including facets,
	// page-position visibility excludes and classification narrowing.
	Search(ctx context.Context, req *domain.Request) (*domain.Result, error)

	// SearchString executes a plain term search over the request's term and
	// dictionaries, without facets or discovery extensions.
	SearchString(ctx context.Context, req *domain.Request) (*domain.Result, error)
}
