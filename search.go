package coursesearch

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/campuskit/coursesearch/internal/domain"
	"github.com/campuskit/coursesearch/internal/filters"
	"github.com/campuskit/coursesearch/internal/logger"
	"github.com/campuskit/coursesearch/internal/metrics"
	"github.com/campuskit/coursesearch/internal/postprocess"
)

// Document kinds.
const (
	KindCourseware = "courseware_content"
	KindCourseInfo = "course_info"
)

const (
	defaultSearchSize    = 10
	defaultDiscoverySize = 20
)

// SearchOptions configures a courseware term search.
type SearchOptions struct {
	// Actor identifies who is searching; passed to filter providers and the
	// result processor.
	Actor string
	// CourseID narrows the search to one course.
	CourseID string

	Fields   FieldDictionary
	Filters  FilterDictionary
	Excludes ExcludeDictionary

	Size int // default 10
	From int
	Kind string // default courseware_content
}

// Search runs a term search over courseware content. The filter provider
// chain shapes the request from the actor and course scope; caller-supplied
// dictionaries are merged on top and win on collisions. Results the actor may
// not see are removed and counted into AccessDeniedCount.
func (c *Client) Search(ctx context.Context, term string, opts *SearchOptions) (*SearchResult, error) {
	if c.engine == nil {
		return nil, domain.ErrNoSearchEngine
	}
	if opts == nil {
		opts = &SearchOptions{}
	}

	fields, filterDict, excludes := c.gen.Dictionaries(filters.Context{
		Actor:    opts.Actor,
		CourseID: opts.CourseID,
		Now:      c.now(),
	})
	if err := mergeCallerDictionaries(fields, filterDict, excludes, opts.Fields, opts.Filters, opts.Excludes); err != nil {
		return nil, err
	}

	req := &domain.Request{
		Term:     term,
		Fields:   fields,
		Filters:  filterDict,
		Excludes: excludes,
		Size:     opts.Size,
		From:     opts.From,
		Kind:     opts.Kind,
	}
	if req.Size <= 0 {
		req.Size = defaultSearchSize
	}
	if req.Kind == "" {
		req.Kind = KindCourseware
	}

	res, err := c.engine.SearchString(ctx, req)
	if err != nil {
		return nil, err
	}
	return c.finish(ctx, res, term, opts.Actor), nil
}

// DiscoveryOptions configures a course-discovery search.
type DiscoveryOptions struct {
	// Actor identifies who is searching.
	Actor string

	// Fields holds raw field constraints, e.g. org or language. A scalar
	// "availability" entry is interpreted as the availability token and
	// removed before translation; supplying it together with Availability is
	// an error.
	Fields FieldDictionary

	// Availability narrows results by enrollment timing. The derived date
	// constraints replace any raw start/end/audit_yn field constraints.
	Availability Availability

	// PagePosition selects which catalog_visibility values are hidden.
	PagePosition PagePosition

	Classification Classification

	// Facets overrides the configured facet fields for this call.
	Facets FacetSpec

	Size int // default 20
	From int
}

// DiscoverCourses runs a faceted course-discovery search. Facets cover the
// configured filter fields; availability and page-position tokens must come
// from the closed sets or the call fails with ErrUnknownToken.
func (c *Client) DiscoverCourses(ctx context.Context, term string, opts *DiscoveryOptions) (*SearchResult, error) {
	if c.engine == nil {
		return nil, domain.ErrNoSearchEngine
	}
	if opts == nil {
		opts = &DiscoveryOptions{}
	}

	position, err := domain.ParsePagePosition(string(opts.PagePosition))
	if err != nil {
		return nil, err
	}

	now := c.now()
	genFields, _, genExcludes := c.gen.Dictionaries(filters.Context{Actor: opts.Actor, Now: now})

	// Only the configured subset of generator fields carries over into
	// discovery queries.
	fields := domain.FieldDict{}
	for _, field := range c.searchFields {
		if v, ok := genFields[field]; ok {
			fields[field] = v
		}
	}

	callerFields, err := toInternalFields(opts.Fields)
	if err != nil {
		return nil, err
	}
	for field, v := range callerFields {
		fields[field] = v
	}

	availability, err := extractAvailability(fields, opts.Availability)
	if err != nil {
		return nil, err
	}
	applyAvailability(fields, availability, domain.TimeValue(now))

	if !c.skipEnrollmentStart {
		fields["enrollment_start"] = domain.FromRange(domain.Before(domain.TimeValue(now)))
	}
	enrollmentOpen := domain.FromRange(domain.Before(domain.TimeValue(now)))
	filterDict := domain.FilterDict{"enrollment_start": &enrollmentOpen}

	facets := toInternalFacets(opts.Facets)
	if facets == nil {
		facets = make(domain.FacetSpec, len(c.filterFields))
		for _, field := range c.filterFields {
			facets[field] = domain.FacetOptions{Size: c.facetSize}
		}
	}

	req := &domain.Request{
		Term:         term,
		Fields:       fields,
		Filters:      filterDict,
		Excludes:     genExcludes,
		Facets:       facets,
		Size:         opts.Size,
		From:         opts.From,
		Kind:         KindCourseInfo,
		PagePosition: position,
		Classification: domain.Classification{
			Primary:   opts.Classification.Primary,
			Secondary: opts.Classification.Secondary,
		},
	}
	if req.Size <= 0 {
		req.Size = defaultDiscoverySize
	}

	res, err := c.engine.Search(ctx, req)
	if err != nil {
		return nil, err
	}
	return c.finish(ctx, res, term, opts.Actor), nil
}

// Index upserts documents of one kind into the backend, extending the schema
// mapping for fields it has not seen before.
func (c *Client) Index(ctx context.Context, kind string, docs []map[string]any) error {
	if c.engine == nil {
		return domain.ErrNoSearchEngine
	}
	return c.engine.Index(ctx, kind, docs)
}

// Remove deletes documents by id. Missing ids are not errors.
func (c *Client) Remove(ctx context.Context, kind string, ids []string) error {
	if c.engine == nil {
		return domain.ErrNoSearchEngine
	}
	return c.engine.Remove(ctx, kind, ids)
}

// finish applies the result processor and converts to the public envelope.
// A logger attached to the context overrides the client logger.
func (c *Client) finish(ctx context.Context, res *domain.Result, term, actor string) *SearchResult {
	postprocess.Apply(res, term, actor, c.process)
	if res.AccessDeniedCount > 0 {
		metrics.AccessDeniedResultsTotal.Add(float64(res.AccessDeniedCount))
		logger.FromContextOr(ctx, c.log).Debug("results removed by access check",
			zap.String("term", term),
			zap.Int("denied", res.AccessDeniedCount))
	}
	return fromInternalResult(res)
}

// extractAvailability resolves the availability token from the option and a
// raw "availability" field entry. The raw entry is removed; supplying both is
// rejected so the two can never disagree.
func extractAvailability(fields domain.FieldDict, opt Availability) (domain.Availability, error) {
	fromOption, err := domain.ParseAvailability(string(opt))
	if err != nil {
		return domain.AvailabilityAny, err
	}

	raw, ok := fields["availability"]
	if !ok {
		return fromOption, nil
	}
	delete(fields, "availability")

	if !raw.IsScalar() {
		return domain.AvailabilityAny, fmt.Errorf("%w: field \"availability\": token must be a scalar", domain.ErrInvalidValue)
	}
	token, ok := raw.Scalar().Render().(string)
	if !ok {
		return domain.AvailabilityAny, fmt.Errorf("%w: field \"availability\": token must be a string", domain.ErrInvalidValue)
	}
	fromField, err := domain.ParseAvailability(token)
	if err != nil {
		return domain.AvailabilityAny, err
	}

	if fromOption != domain.AvailabilityAny && fromField != domain.AvailabilityAny {
		return domain.AvailabilityAny, fmt.Errorf(
			"%w: availability supplied both as option and field constraint", domain.ErrInvalidValue)
	}
	if fromField != domain.AvailabilityAny {
		return fromField, nil
	}
	return fromOption, nil
}

// applyAvailability replaces raw date/track constraints with the narrowing
// the token implies. The token always wins over caller-supplied start, end
// and audit_yn entries.
func applyAvailability(fields domain.FieldDict, availability domain.Availability, now domain.Scalar) {
	if availability == domain.AvailabilityAny {
		return
	}
	delete(fields, "start")
	delete(fields, "end")
	delete(fields, "audit_yn")

	switch availability {
	case domain.AvailabilityCurrent:
		fields["start"] = domain.FromRange(domain.Before(now))
		fields["end"] = domain.FromRange(domain.After(now))
	case domain.AvailabilityAudit:
		fields["audit_yn"] = domain.FromScalar(domain.StringValue("Y"))
		fields["end"] = domain.FromRange(domain.After(now))
	case domain.AvailabilityEnroll:
		fields["audit_yn"] = domain.FromScalar(domain.StringValue("N"))
		fields["end"] = domain.FromRange(domain.After(now))
	case domain.AvailabilityUpcoming:
		fields["start"] = domain.FromRange(domain.After(now))
	}
}

// mergeCallerDictionaries converts the caller's public dictionaries and lays
// them over the generator's, caller entries winning.
func mergeCallerDictionaries(
	fields domain.FieldDict, filterDict domain.FilterDict, excludes domain.ExcludeDict,
	callerFields FieldDictionary, callerFilters FilterDictionary, callerExcludes ExcludeDictionary,
) error {
	cf, err := toInternalFields(callerFields)
	if err != nil {
		return err
	}
	for field, v := range cf {
		fields[field] = v
	}

	cfl, err := toInternalFilters(callerFilters)
	if err != nil {
		return err
	}
	for field, v := range cfl {
		filterDict[field] = v
	}

	ce, err := toInternalExcludes(callerExcludes)
	if err != nil {
		return err
	}
	for field, values := range ce {
		excludes[field] = values
	}
	return nil
}
