// Package postprocess applies a per-item visibility predicate to search
// results after translation.
package postprocess

import (
	"github.com/campuskit/coursesearch/internal/domain"
)

// Func inspects one result payload and returns the payload the actor may see,
// or nil when the actor may not see the item at all. The returned payload may
// be the input, possibly decorated, or a redacted copy.
type Func func(data map[string]any, term, actor string) map[string]any

// Identity passes every payload through unchanged.
func Identity(data map[string]any, _, _ string) map[string]any { return data }

// Apply runs fn over every item in order. Denied items are removed from the
// result and counted into AccessDeniedCount; surviving items keep their
// relative order. The denial tally always satisfies
// AccessDeniedCount + len(Items) == the item count before processing.
func Apply(res *domain.Result, term, actor string, fn Func) {
	if res == nil {
		return
	}
	if fn == nil {
		fn = Identity
	}

	kept := res.Items[:0]
	for _, item := range res.Items {
		data := fn(item.Data, term, actor)
		if data == nil {
			res.AccessDeniedCount++
			continue
		}
		item.Data = data
		kept = append(kept, item)
	}
	res.Items = kept
}
