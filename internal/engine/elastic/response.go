package elastic

import "github.com/campuskit/coursesearch/internal/domain"

// searchResponse is the raw engine response envelope.
type searchResponse struct {
	Took   int64                    `json:"took"`
	Hits   searchHits               `json:"hits"`
	Facets map[string]facetResponse `json:"facets"`
	Error  string                   `json:"error"`
	Status int                      `json:"status"`
}

type searchHits struct {
	Total    int64       `json:"total"`
	MaxScore float64     `json:"max_score"`
	Hits     []searchHit `json:"hits"`
}

type searchHit struct {
	Index  string         `json:"_index"`
	Kind   string         `json:"_type"`
	ID     string         `json:"_id"`
	Score  float64        `json:"_score"`
	Source map[string]any `json:"_source"`
}

type facetResponse struct {
	Terms []facetTerm `json:"terms"`
	Total int64       `json:"total"`
	Other int64       `json:"other"`
}

type facetTerm struct {
	Term  string `json:"term"`
	Count int64  `json:"count"`
}

// translateResponse maps the raw engine response into the canonical result
// envelope: the document payload is separated from the scoring/metadata
// fields, and facet totals are carried through verbatim.
func translateResponse(raw *searchResponse) *domain.Result {
	items := make([]domain.Item, 0, len(raw.Hits.Hits))
	for _, hit := range raw.Hits.Hits {
		items = append(items, domain.Item{
			Score: hit.Score,
			Data:  hit.Source,
			Raw: map[string]any{
				"_index": hit.Index,
				"_type":  hit.Kind,
				"_id":    hit.ID,
				"_score": hit.Score,
			},
		})
	}

	result := &domain.Result{
		Took:     raw.Took,
		Total:    raw.Hits.Total,
		MaxScore: raw.Hits.MaxScore,
		Items:    items,
	}

	if len(raw.Facets) > 0 {
		result.Facets = make(map[string]domain.FacetBucket, len(raw.Facets))
		for name, facet := range raw.Facets {
			terms := make(map[string]int64, len(facet.Terms))
			for _, t := range facet.Terms {
				terms[t.Term] = t.Count
			}
			result.Facets[name] = domain.FacetBucket{
				Terms: terms,
				Total: facet.Total,
				Other: facet.Other,
			}
		}
	}

	return result
}
