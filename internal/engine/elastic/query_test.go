package elastic

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/campuskit/coursesearch/internal/domain"
)

func mustBody(t *testing.T, p queryParams) map[string]any {
	t.Helper()
	body, err := buildSearchBody(p)
	if err != nil {
		t.Fatalf("buildSearchBody: %v", err)
	}
	return body
}

// roundTrip normalizes a clause through JSON so nested types compare equal.
func roundTrip(t *testing.T, v any) any {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return out
}

func assertJSONEqual(t *testing.T, got, want any) {
	t.Helper()
	g, w := roundTrip(t, got), roundTrip(t, want)
	if !reflect.DeepEqual(g, w) {
		gs, _ := json.Marshal(g)
		ws, _ := json.Marshal(w)
		t.Errorf("clause mismatch\n got: %s\nwant: %s", gs, ws)
	}
}

func TestStripReserved(t *testing.T) {
	got := stripReserved(`+intro -(to) "biology"? a/b\c|d&e~f*g:h`)
	want := "intro to biology abcdefgh"
	// Spaces survive, every reserved character is removed.
	if got != want {
		t.Errorf("stripReserved() = %q, want %q", got, want)
	}
}

func TestValueClauseVariants(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		value domain.Value
		want  map[string]any
	}{
		{
			"scalar renders exact term match",
			domain.FromScalar(domain.StringValue("MITx")),
			map[string]any{"term": map[string]any{"org": "MITx"}},
		},
		{
			"list renders one-of terms",
			domain.FromList(domain.StringValue("MITx"), domain.StringValue("HarvardX")),
			map[string]any{"terms": map[string]any{"org": []any{"MITx", "HarvardX"}}},
		},
		{
			"full range renders both bounds",
			func() domain.Value {
				lo, hi := domain.NumberValue(1), domain.NumberValue(9)
				r, _ := domain.NewRange(&lo, &hi)
				return domain.FromRange(r)
			}(),
			map[string]any{"range": map[string]any{"org": map[string]any{"gte": 1.0, "lte": 9.0}}},
		},
		{
			"upper-bounded time range",
			domain.FromRange(domain.Before(domain.TimeValue(now))),
			map[string]any{"range": map[string]any{"org": map[string]any{"lte": "2026-08-28T12:00:00.000000"}}},
		},
		{
			"lower-bounded time range",
			domain.FromRange(domain.After(domain.TimeValue(now))),
			map[string]any{"range": map[string]any{"org": map[string]any{"gte": "2026-08-28T12:00:00.000000"}}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clause, err := valueClause("org", tt.value)
			if err != nil {
				t.Fatalf("valueClause: %v", err)
			}
			assertJSONEqual(t, clause, tt.want)
		})
	}
}

func TestValueClauseRejectsMalformed(t *testing.T) {
	if _, err := valueClause("org", domain.Value{}); !errors.Is(err, domain.ErrInvalidValue) {
		t.Errorf("zero value error = %v, want ErrInvalidValue", err)
	}
	if _, err := valueClause("org", domain.FromList()); !errors.Is(err, domain.ErrInvalidValue) {
		t.Errorf("empty list error = %v, want ErrInvalidValue", err)
	}
}

func TestFilterClausesMissingFieldPasses(t *testing.T) {
	value := domain.FromList(domain.StringValue("MITx"), domain.StringValue("HarvardX"))
	clauses, err := filterClauses(domain.FilterDict{"org": &value})
	if err != nil {
		t.Fatalf("filterClauses: %v", err)
	}
	want := []map[string]any{{
		"or": []any{
			map[string]any{"terms": map[string]any{"org": []any{"MITx", "HarvardX"}}},
			map[string]any{"missing": map[string]any{"field": "org"}},
		},
	}}
	assertJSONEqual(t, clauses, want)
}

func TestFilterClausesNilValueDegeneratesToMissing(t *testing.T) {
	clauses, err := filterClauses(domain.FilterDict{"invitation_only": nil})
	if err != nil {
		t.Fatalf("filterClauses: %v", err)
	}
	want := []map[string]any{{"missing": map[string]any{"field": "invitation_only"}}}
	assertJSONEqual(t, clauses, want)
}

func TestExcludeClause(t *testing.T) {
	clause := excludeClause(domain.ExcludeDict{
		"id": {domain.StringValue("course1"), domain.StringValue("course2")},
	})
	want := map[string]any{
		"not": map[string]any{
			"filter": map[string]any{
				"or": []any{
					map[string]any{"term": map[string]any{"id": "course1"}},
					map[string]any{"term": map[string]any{"id": "course2"}},
				},
			},
		},
	}
	assertJSONEqual(t, clause, want)
}

func TestExcludeClauseEmptyIsNoClause(t *testing.T) {
	if clause := excludeClause(domain.ExcludeDict{}); clause != nil {
		t.Errorf("empty exclude dictionary produced clause %v, want none", clause)
	}
	// A field with no values likewise yields nothing rather than a malformed
	// empty disjunction.
	if clause := excludeClause(domain.ExcludeDict{"id": {}}); clause != nil {
		t.Errorf("empty exclude values produced clause %v, want none", clause)
	}
}

func TestBuildSearchBodyTermOnly(t *testing.T) {
	body := mustBody(t, queryParams{Term: `"intro to biology`})

	want := map[string]any{
		"sort": []any{"_score"},
		"query": map[string]any{
			"bool": map[string]any{
				"must": []any{
					map[string]any{
						"query_string": map[string]any{
							"fields": []any{"display_name^4", "number", "short_description^2", "overview^0.2"},
							"query":  "intro to biology",
						},
					},
				},
			},
		},
	}
	assertJSONEqual(t, body, want)
}

func TestBuildSearchBodyEmptyMatchesAll(t *testing.T) {
	body := mustBody(t, queryParams{})
	want := map[string]any{
		"sort":  []any{"_score"},
		"query": map[string]any{"match_all": map[string]any{}},
	}
	assertJSONEqual(t, body, want)
}

func TestBuildSearchBodyFilteredEnvelope(t *testing.T) {
	body := mustBody(t, queryParams{
		Term:   "biology",
		Fields: domain.FieldDict{"course": domain.FromScalar(domain.StringValue("c1"))},
	})

	query := body["query"].(map[string]any)
	filtered, ok := query["filtered"].(map[string]any)
	if !ok {
		t.Fatalf("expected filtered envelope, got %v", query)
	}
	assertJSONEqual(t, filtered["filter"], map[string]any{
		"bool": map[string]any{
			"must": []any{map[string]any{"term": map[string]any{"course": "c1"}}},
		},
	})
	assertJSONEqual(t, filtered["query"], map[string]any{
		"bool": map[string]any{
			"must": []any{map[string]any{
				"query_string": map[string]any{
					"fields": []any{"display_name^4", "number", "short_description^2", "overview^0.2"},
					"query":  "biology",
				},
			}},
		},
	})
}

func TestBuildSearchBodyFacets(t *testing.T) {
	body := mustBody(t, queryParams{
		Facets: domain.FacetSpec{
			"org":   {Size: 10},
			"modes": {},
		},
	})
	want := map[string]any{
		"org":   map[string]any{"terms": map[string]any{"field": "org", "size": 10}},
		"modes": map[string]any{"terms": map[string]any{"field": "modes"}},
	}
	assertJSONEqual(t, body["facets"], want)
}

func TestBuildSearchBodyClassificationCases(t *testing.T) {
	visibility := []string{"none", "about"}

	primaryPair := []any{
		map[string]any{"term": map[string]any{"classification": "science"}},
		map[string]any{"term": map[string]any{"classification_alt": "science"}},
	}
	secondaryPair := []any{
		map[string]any{"term": map[string]any{"subclassification": "bio"}},
		map[string]any{"term": map[string]any{"subclassification_alt": "bio"}},
	}
	visibilityTerms := []any{
		map[string]any{"term": map[string]any{"catalog_visibility": "none"}},
		map[string]any{"term": map[string]any{"catalog_visibility": "about"}},
	}

	tests := []struct {
		name       string
		class      domain.Classification
		hidden     []string
		wantShould []any
		wantNot    []any
	}{
		{"both dimensions with visibility", domain.Classification{Primary: "science", Secondary: "bio"},
			visibility, append(append([]any{}, primaryPair...), secondaryPair...), visibilityTerms},
		{"primary only with visibility", domain.Classification{Primary: "science"},
			visibility, primaryPair, visibilityTerms},
		{"secondary only without visibility", domain.Classification{Secondary: "bio"},
			nil, secondaryPair, nil},
		{"neither dimension keeps visibility", domain.Classification{},
			visibility, nil, visibilityTerms},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := mustBody(t, queryParams{
				Fields:           domain.FieldDict{"course": domain.FromScalar(domain.StringValue("c1"))},
				Classification:   tt.class,
				HideVisibilities: tt.hidden,
			})
			boolSeg := body["query"].(map[string]any)["filtered"].(map[string]any)["filter"].(map[string]any)["bool"].(map[string]any)

			if tt.wantShould == nil {
				if _, ok := boolSeg["should"]; ok {
					t.Error("unexpected should clause")
				}
			} else {
				assertJSONEqual(t, boolSeg["should"], tt.wantShould)
			}
			if tt.wantNot == nil {
				if _, ok := boolSeg["must_not"]; ok {
					t.Error("unexpected must_not clause")
				}
			} else {
				assertJSONEqual(t, boolSeg["must_not"], tt.wantNot)
			}
		})
	}
}

func TestBuildSearchBodyVisibilityWithoutFilters(t *testing.T) {
	// Visibility narrowing applies even when no other constraint exists.
	body := mustBody(t, queryParams{HideVisibilities: []string{"none"}})
	filtered, ok := body["query"].(map[string]any)["filtered"].(map[string]any)
	if !ok {
		t.Fatal("expected filtered envelope for visibility-only query")
	}
	boolSeg := filtered["filter"].(map[string]any)["bool"].(map[string]any)
	assertJSONEqual(t, boolSeg["must_not"], []any{
		map[string]any{"term": map[string]any{"catalog_visibility": "none"}},
	})
	if _, ok := boolSeg["must"]; ok {
		t.Error("unexpected must clause")
	}
}

func TestBuildSearchBodyDeterministic(t *testing.T) {
	params := queryParams{
		Term: "physics",
		Fields: domain.FieldDict{
			"org":      domain.FromScalar(domain.StringValue("MITx")),
			"language": domain.FromScalar(domain.StringValue("en")),
			"modes":    domain.FromList(domain.StringValue("audit"), domain.StringValue("verified")),
		},
		Filters: domain.FilterDict{
			"enrollment_start": valuePtr(domain.FromRange(domain.Before(domain.TimeValue(time.Unix(1700000000, 0))))),
		},
		Excludes: domain.ExcludeDict{
			"id":  {domain.StringValue("a"), domain.StringValue("b")},
			"org": {domain.StringValue("x")},
		},
		Facets: domain.FacetSpec{"org": {Size: 300}},
	}

	first, err := buildSearchBody(params)
	if err != nil {
		t.Fatalf("buildSearchBody: %v", err)
	}
	second, err := buildSearchBody(params)
	if err != nil {
		t.Fatalf("buildSearchBody: %v", err)
	}

	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if string(a) != string(b) {
		t.Errorf("translation is not reproducible:\n%s\n%s", a, b)
	}
}

func valuePtr(v domain.Value) *domain.Value { return &v }
