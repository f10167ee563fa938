package domain

// Classification carries the optional primary/secondary narrowing dimensions
// for discovery searches. Empty strings mean the dimension is not supplied.
type Classification struct {
	Primary   string
	Secondary string
}

// IsEmpty reports whether neither dimension is supplied.
func (c Classification) IsEmpty() bool { return c.Primary == "" && c.Secondary == "" }

// Request is one search invocation against the engine port. It is a value
// object owned by the caller for the duration of a single call.
type Request struct {
	Term     string
	Fields   FieldDict
	Filters  FilterDict
	Excludes ExcludeDict
	Facets   FacetSpec

	Size int
	From int
	Kind string

	PagePosition   PagePosition
	Classification Classification
}
