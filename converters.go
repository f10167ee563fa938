package coursesearch

import (
	"fmt"

	"github.com/campuskit/coursesearch/internal/domain"
	"github.com/campuskit/coursesearch/internal/filters"
)

func toInternalScalar(s ScalarValue) (domain.Scalar, error) {
	switch {
	case s.String != nil:
		return domain.StringValue(*s.String), nil
	case s.Number != nil:
		return domain.NumberValue(*s.Number), nil
	case s.Bool != nil:
		return domain.BoolValue(*s.Bool), nil
	case s.Time != nil:
		return domain.TimeValue(*s.Time), nil
	default:
		return domain.Scalar{}, fmt.Errorf("%w: scalar with no variant set", domain.ErrInvalidValue)
	}
}

func toInternalValue(field string, v FieldValue) (domain.Value, error) {
	switch {
	case v.Scalar != nil:
		s, err := toInternalScalar(*v.Scalar)
		if err != nil {
			return domain.Value{}, fmt.Errorf("field %q: %w", field, err)
		}
		return domain.FromScalar(s), nil
	case v.Range != nil:
		var lower, upper *domain.Scalar
		if v.Range.Lower != nil {
			s, err := toInternalScalar(*v.Range.Lower)
			if err != nil {
				return domain.Value{}, fmt.Errorf("field %q: %w", field, err)
			}
			lower = &s
		}
		if v.Range.Upper != nil {
			s, err := toInternalScalar(*v.Range.Upper)
			if err != nil {
				return domain.Value{}, fmt.Errorf("field %q: %w", field, err)
			}
			upper = &s
		}
		r, err := domain.NewRange(lower, upper)
		if err != nil {
			return domain.Value{}, fmt.Errorf("field %q: %w", field, err)
		}
		return domain.FromRange(r), nil
	case v.List != nil:
		items := make([]domain.Scalar, 0, len(v.List))
		for _, item := range v.List {
			s, err := toInternalScalar(item)
			if err != nil {
				return domain.Value{}, fmt.Errorf("field %q: %w", field, err)
			}
			items = append(items, s)
		}
		return domain.FromList(items...), nil
	default:
		return domain.Value{}, fmt.Errorf("%w: field %q: no value variant set", domain.ErrInvalidValue, field)
	}
}

func toInternalFields(d FieldDictionary) (domain.FieldDict, error) {
	if len(d) == 0 {
		return nil, nil
	}
	out := make(domain.FieldDict, len(d))
	for field, v := range d {
		iv, err := toInternalValue(field, v)
		if err != nil {
			return nil, err
		}
		out[field] = iv
	}
	return out, nil
}

func toInternalFilters(d FilterDictionary) (domain.FilterDict, error) {
	if len(d) == 0 {
		return nil, nil
	}
	out := make(domain.FilterDict, len(d))
	for field, v := range d {
		if v == nil {
			out[field] = nil
			continue
		}
		iv, err := toInternalValue(field, *v)
		if err != nil {
			return nil, err
		}
		out[field] = &iv
	}
	return out, nil
}

func toInternalExcludes(d ExcludeDictionary) (domain.ExcludeDict, error) {
	if len(d) == 0 {
		return nil, nil
	}
	out := make(domain.ExcludeDict, len(d))
	for field, values := range d {
		items := make([]domain.Scalar, 0, len(values))
		for _, v := range values {
			s, err := toInternalScalar(v)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", field, err)
			}
			items = append(items, s)
		}
		out[field] = items
	}
	return out, nil
}

func toInternalFacets(d FacetSpec) domain.FacetSpec {
	if len(d) == 0 {
		return nil
	}
	out := make(domain.FacetSpec, len(d))
	for field, opts := range d {
		out[field] = domain.FacetOptions{Size: opts.Size}
	}
	return out
}

func fromInternalResult(res *domain.Result) *SearchResult {
	out := &SearchResult{
		Took:              res.Took,
		Total:             res.Total,
		MaxScore:          res.MaxScore,
		AccessDeniedCount: res.AccessDeniedCount,
	}
	if len(res.Items) > 0 {
		out.Results = make([]ResultItem, 0, len(res.Items))
		for _, item := range res.Items {
			out.Results = append(out.Results, ResultItem{Score: item.Score, Data: item.Data})
		}
	}
	if len(res.Facets) > 0 {
		out.Facets = make(map[string]FacetBucket, len(res.Facets))
		for field, bucket := range res.Facets {
			out.Facets[field] = FacetBucket{
				Terms: bucket.Terms,
				Total: bucket.Total,
				Other: bucket.Other,
			}
		}
	}
	return out
}

// providerAdapter bridges a public FilterProvider into the internal provider
// chain. Conversion failures in provider output are programming errors and
// drop the offending entry; the request-level dictionaries are validated
// again before translation.
type providerAdapter struct {
	inner FilterProvider
}

func toFilterContext(ctx filters.Context) FilterContext {
	return FilterContext{Actor: ctx.Actor, CourseID: ctx.CourseID, Now: ctx.Now}
}

func (a providerAdapter) FieldDictionary(ctx filters.Context) domain.FieldDict {
	fields, err := toInternalFields(a.inner.FieldDictionary(toFilterContext(ctx)))
	if err != nil {
		return nil
	}
	return fields
}

func (a providerAdapter) FilterDictionary(ctx filters.Context) domain.FilterDict {
	filterDict, err := toInternalFilters(a.inner.FilterDictionary(toFilterContext(ctx)))
	if err != nil {
		return nil
	}
	return filterDict
}

func (a providerAdapter) ExcludeDictionary(ctx filters.Context) domain.ExcludeDict {
	excludes, err := toInternalExcludes(a.inner.ExcludeDictionary(toFilterContext(ctx)))
	if err != nil {
		return nil
	}
	return excludes
}
