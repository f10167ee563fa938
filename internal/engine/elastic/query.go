package elastic

import (
	"sort"
	"strings"

	"github.com/campuskit/coursesearch/internal/domain"
)

// reservedCharacters may carry special meaning in the engine's query parser.
// Analyzed fields drop them during analysis anyway, so they are stripped from
// free-text terms before the query is built.
const reservedCharacters = "+-=><!(){}[]^\"~*:\\/&|?"

// termQueryFields are the weighted text fields searched for free-text terms.
var termQueryFields = []string{"display_name^4", "number", "short_description^2", "overview^0.2"}

// Classification field names. The primary dimension is tested against both
// the exact and the alternate field, likewise the secondary dimension.
const (
	primaryClassField      = "classification"
	primaryClassAltField   = "classification_alt"
	secondaryClassField    = "subclassification"
	secondaryClassAltField = "subclassification_alt"
)

// visibilityField controls whether a course appears in list vs detail views.
const visibilityField = "catalog_visibility"

// queryParams is the neutral input to the translator.
type queryParams struct {
	Term     string
	Fields   domain.FieldDict
	Filters  domain.FilterDict
	Excludes domain.ExcludeDict
	Facets   domain.FacetSpec

	Classification   domain.Classification
	HideVisibilities []string
}

// stripReserved removes backend-reserved characters from a term.
func stripReserved(term string) string {
	var b strings.Builder
	b.Grow(len(term))
	for _, r := range term {
		if r < 128 && strings.ContainsRune(reservedCharacters, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// valueClause renders one dictionary value as its engine constraint: ranges
// as range clauses, lists as one-of terms clauses, scalars as exact term
// matches.
func valueClause(field string, v domain.Value) (map[string]any, error) {
	if err := v.Validate(field); err != nil {
		return nil, err
	}

	switch {
	case v.IsRange():
		r := v.Range()
		bounds := map[string]any{}
		if lo := r.Lower(); lo != nil {
			bounds["gte"] = lo.Render()
		}
		if hi := r.Upper(); hi != nil {
			bounds["lte"] = hi.Render()
		}
		return map[string]any{"range": map[string]any{field: bounds}}, nil
	case v.IsList():
		items := v.List()
		rendered := make([]any, len(items))
		for i, s := range items {
			rendered[i] = s.Render()
		}
		return map[string]any{"terms": map[string]any{field: rendered}}, nil
	default:
		return map[string]any{"term": map[string]any{field: v.Scalar().Render()}}, nil
	}
}

// fieldClauses renders the required-match dictionary as conjunctive
// constraints, in sorted field order for reproducible output.
func fieldClauses(fields domain.FieldDict) ([]map[string]any, error) {
	clauses := make([]map[string]any, 0, len(fields))
	for _, field := range sortedKeys(fields) {
		clause, err := valueClause(field, fields[field])
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, clause)
	}
	return clauses, nil
}

// filterClauses renders the soft-filter dictionary: each constraint is
// wrapped in a disjunction with "field does not exist", so documents are
// never rejected merely for lacking the field. A nil value degenerates to
// the missing-field test alone.
func filterClauses(filters domain.FilterDict) ([]map[string]any, error) {
	clauses := make([]map[string]any, 0, len(filters))
	for _, field := range sortedKeys(filters) {
		missing := map[string]any{"missing": map[string]any{"field": field}}
		value := filters[field]
		if value == nil {
			clauses = append(clauses, missing)
			continue
		}
		match, err := valueClause(field, *value)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, map[string]any{"or": []any{match, missing}})
	}
	return clauses, nil
}

// excludeClause renders the exclude dictionary as one negated disjunction of
// per-value equality tests. An empty dictionary yields nil: no clause at all,
// never a malformed empty disjunction.
func excludeClause(excludes domain.ExcludeDict) map[string]any {
	var terms []any
	for _, field := range sortedKeys(excludes) {
		for _, value := range excludes[field] {
			terms = append(terms, map[string]any{"term": map[string]any{field: value.Render()}})
		}
	}
	if len(terms) == 0 {
		return nil
	}
	return map[string]any{
		"not": map[string]any{
			"filter": map[string]any{"or": terms},
		},
	}
}

// facetClauses renders one aggregation descriptor per requested field,
// carrying through any result-count cap.
func facetClauses(facets domain.FacetSpec) map[string]any {
	out := make(map[string]any, len(facets))
	for field, opts := range facets {
		descriptor := map[string]any{"field": field}
		if opts.Size > 0 {
			descriptor["size"] = opts.Size
		}
		out[field] = map[string]any{"terms": descriptor}
	}
	return out
}

// classificationClauses renders the optional discovery narrowing as a
// disjunction over the exact and alternate fields of whichever dimensions
// are supplied.
func classificationClauses(c domain.Classification) []any {
	var clauses []any
	if c.Primary != "" {
		clauses = append(clauses,
			map[string]any{"term": map[string]any{primaryClassField: c.Primary}},
			map[string]any{"term": map[string]any{primaryClassAltField: c.Primary}},
		)
	}
	if c.Secondary != "" {
		clauses = append(clauses,
			map[string]any{"term": map[string]any{secondaryClassField: c.Secondary}},
			map[string]any{"term": map[string]any{secondaryClassAltField: c.Secondary}},
		)
	}
	return clauses
}

// visibilityClauses renders the catalog_visibility excludes for the page
// position.
func visibilityClauses(hidden []string) []any {
	clauses := make([]any, 0, len(hidden))
	for _, value := range hidden {
		clauses = append(clauses, map[string]any{"term": map[string]any{visibilityField: value}})
	}
	return clauses
}

// buildSearchBody assembles the full engine request body. Pure and
// deterministic: the same params always marshal to the same bytes.
func buildSearchBody(p queryParams) (map[string]any, error) {
	var queries []any
	if p.Term != "" {
		queries = append(queries, map[string]any{
			"query_string": map[string]any{
				"fields": termQueryFields,
				"query":  stripReserved(p.Term),
			},
		})
	}

	var filters []any
	fieldConstraints, err := fieldClauses(p.Fields)
	if err != nil {
		return nil, err
	}
	for _, c := range fieldConstraints {
		filters = append(filters, c)
	}
	filterConstraints, err := filterClauses(p.Filters)
	if err != nil {
		return nil, err
	}
	for _, c := range filterConstraints {
		filters = append(filters, c)
	}
	if exclude := excludeClause(p.Excludes); exclude != nil {
		filters = append(filters, exclude)
	}

	querySegment := map[string]any{"match_all": map[string]any{}}
	if len(queries) > 0 {
		querySegment = map[string]any{"bool": map[string]any{"must": queries}}
	}

	should := classificationClauses(p.Classification)
	mustNot := visibilityClauses(p.HideVisibilities)

	query := querySegment
	if len(filters) > 0 || len(should) > 0 || len(mustNot) > 0 {
		boolSegment := map[string]any{}
		if len(filters) > 0 {
			boolSegment["must"] = filters
		}
		if len(should) > 0 {
			boolSegment["should"] = should
		}
		if len(mustNot) > 0 {
			boolSegment["must_not"] = mustNot
		}
		query = map[string]any{
			"filtered": map[string]any{
				"query":  querySegment,
				"filter": map[string]any{"bool": boolSegment},
			},
		}
	}

	body := map[string]any{
		"sort":  []any{"_score"},
		"query": query,
	}
	if len(p.Facets) > 0 {
		body["facets"] = facetClauses(p.Facets)
	}
	return body, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
