package coursesearch

import "time"

// ScalarValue is one string, number, boolean or timestamp value. Exactly one
// field is set; use the constructors below.
type ScalarValue struct {
	String *string
	Number *float64
	Bool   *bool
	Time   *time.Time
}

// Text creates a string scalar.
func Text(s string) ScalarValue { return ScalarValue{String: &s} }

// Number creates a numeric scalar.
func Number(n float64) ScalarValue { return ScalarValue{Number: &n} }

// Boolean creates a boolean scalar.
func Boolean(b bool) ScalarValue { return ScalarValue{Bool: &b} }

// Timestamp creates a timestamp scalar. Timestamps render in UTC with
// microsecond precision.
func Timestamp(t time.Time) ScalarValue { return ScalarValue{Time: &t} }

// ValueRange is a half- or fully-bounded interval. A nil bound means
// unbounded on that side; at least one bound must be set.
type ValueRange struct {
	Lower *ScalarValue
	Upper *ScalarValue
}

// FieldValue constrains one field: an exact match, a range, or a one-of list.
// Exactly one variant is set; use the constructors below.
type FieldValue struct {
	Scalar *ScalarValue
	Range  *ValueRange
	List   []ScalarValue
}

// Value creates an exact-match constraint.
func Value(s ScalarValue) FieldValue { return FieldValue{Scalar: &s} }

// Between creates a range constraint. Nil bounds mean unbounded.
func Between(lower, upper *ScalarValue) FieldValue {
	return FieldValue{Range: &ValueRange{Lower: lower, Upper: upper}}
}

// OneOf creates a one-of constraint over the given values.
func OneOf(items ...ScalarValue) FieldValue { return FieldValue{List: items} }

// FieldDictionary maps field name to a constraint the document must satisfy;
// the field must be present and match.
type FieldDictionary map[string]FieldValue

// FilterDictionary maps field name to a soft constraint: documents pass when
// the field is absent or it matches. A nil value means the field must be
// absent.
type FilterDictionary map[string]*FieldValue

// ExcludeDictionary maps field name to values; documents where the field
// exists and matches any listed value are dropped.
type ExcludeDictionary map[string][]ScalarValue

// FacetOptions carries per-facet settings. Size zero uses the backend default.
type FacetOptions struct {
	Size int
}

// FacetSpec maps field name to facet options, requesting aggregation buckets
// over that field's distinct values.
type FacetSpec map[string]FacetOptions

// ResultItem is one search hit.
type ResultItem struct {
	Score float64
	Data  map[string]any
}

// FacetBucket holds aggregation counts for one faceted field. Total and Other
// come from the backend and are not recomputed locally.
type FacetBucket struct {
	Terms map[string]int64
	Total int64
	Other int64
}

// SearchResult is the canonical, backend-independent result envelope.
type SearchResult struct {
	Took     int64
	Total    int64
	MaxScore float64
	Results  []ResultItem
	Facets   map[string]FacetBucket

	// AccessDeniedCount is the number of hits removed by the result processor.
	AccessDeniedCount int
}

// Availability narrows course discovery by enrollment timing. The token set
// is closed; unrecognized tokens are rejected.
type Availability string

// Availability tokens.
const (
	AvailabilityAny      Availability = ""
	AvailabilityCurrent  Availability = "i" // started and not yet ended
	AvailabilityAudit    Availability = "a" // audit track open, not yet ended
	AvailabilityEnroll   Availability = "e" // priced/enrolled track, not yet ended
	AvailabilityUpcoming Availability = "t" // starts in the future
)

// PagePosition selects which catalog_visibility values are hidden from
// discovery results: list views hide "none" and "about", detail views hide
// only "none".
type PagePosition string

// Page positions.
const (
	PageAny    PagePosition = ""
	PageList   PagePosition = "l"
	PageDetail PagePosition = "d"
)

// Classification carries the optional primary/secondary narrowing dimensions
// for discovery searches.
type Classification struct {
	Primary   string
	Secondary string
}

// PostProcessor inspects one result payload and returns the payload the actor
// may see, or nil when the actor may not see the item. Denied items are
// removed and counted into AccessDeniedCount.
type PostProcessor func(data map[string]any, term, actor string) map[string]any

// FilterContext is the caller-scoped input a FilterProvider draws on.
type FilterContext struct {
	Actor    string
	CourseID string
	Now      time.Time
}

// FilterProvider contributes entries to the request dictionaries. Providers
// registered later win on key collisions.
type FilterProvider interface {
	FieldDictionary(ctx FilterContext) FieldDictionary
	FilterDictionary(ctx FilterContext) FilterDictionary
	ExcludeDictionary(ctx FilterContext) ExcludeDictionary
}

// FieldMapping overrides the inferred schema declaration for one field.
type FieldMapping struct {
	Type   string
	Index  string
	Format string
}
