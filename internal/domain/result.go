package domain

// Item is one canonical search hit. After post-processing, a nil Data payload
// means the actor was denied access to the item.
type Item struct {
	Score float64
	Data  map[string]any
	Raw   map[string]any
}

// FacetBucket holds the aggregation counts for one faceted field. Total and
// Other are backend-computed and carried through verbatim.
type FacetBucket struct {
	Terms map[string]int64
	Total int64
	Other int64
}

// Result is the canonical, backend-independent result envelope.
type Result struct {
	Took     int64
	Total    int64
	MaxScore float64
	Items    []Item
	Facets   map[string]FacetBucket

	// AccessDeniedCount is the number of items removed by post-processing.
	// Invariant: AccessDeniedCount + len(Items) == number of items before
	// post-processing.
	AccessDeniedCount int
}
