// Package filters assembles the neutral field, filter, and exclude
// dictionaries that shape a search request. Providers contribute entries from
// caller context; identity and visibility policy live in the providers, not
// here.
package filters

import (
	"time"

	"github.com/campuskit/coursesearch/internal/domain"
)

// Context is the caller-scoped input a provider may draw on.
type Context struct {
	// Actor identifies who is searching. Providers may use it to scope
	// results; the default provider does not.
	Actor string

	// CourseID narrows the search to one course when set.
	CourseID string

	// Now anchors date-relative filters. Zero means the current time.
	Now time.Time
}

func (c Context) clock() time.Time {
	if c.Now.IsZero() {
		return time.Now().UTC()
	}
	return c.Now
}

// Provider contributes entries to the three neutral dictionaries.
type Provider interface {
	FieldDictionary(ctx Context) domain.FieldDict
	FilterDictionary(ctx Context) domain.FilterDict
	ExcludeDictionary(ctx Context) domain.ExcludeDict
}

// Generator merges an ordered provider chain into one set of dictionaries.
// On a key collision the later provider wins.
type Generator struct {
	providers []Provider
}

// NewGenerator builds a generator over the given chain. With no providers the
// default provider is used alone.
func NewGenerator(providers ...Provider) *Generator {
	if len(providers) == 0 {
		providers = []Provider{DefaultProvider{}}
	}
	return &Generator{providers: providers}
}

// Dictionaries returns the merged field, filter, and exclude dictionaries for
// one request. The maps are freshly allocated and owned by the caller.
func (g *Generator) Dictionaries(ctx Context) (domain.FieldDict, domain.FilterDict, domain.ExcludeDict) {
	fields := domain.FieldDict{}
	filterDict := domain.FilterDict{}
	excludes := domain.ExcludeDict{}

	for _, p := range g.providers {
		for field, value := range p.FieldDictionary(ctx) {
			fields[field] = value
		}
		for field, value := range p.FilterDictionary(ctx) {
			filterDict[field] = value
		}
		for field, values := range p.ExcludeDictionary(ctx) {
			excludes[field] = values
		}
	}
	return fields, filterDict, excludes
}

// DefaultProvider implements the baseline request shaping: an exact course
// match when the context names a course, and a "has already started" date
// filter that still admits documents without a start date.
type DefaultProvider struct{}

func (DefaultProvider) FieldDictionary(ctx Context) domain.FieldDict {
	if ctx.CourseID == "" {
		return nil
	}
	return domain.FieldDict{
		"course": domain.FromScalar(domain.StringValue(ctx.CourseID)),
	}
}

func (DefaultProvider) FilterDictionary(ctx Context) domain.FilterDict {
	started := domain.FromRange(domain.Before(domain.TimeValue(ctx.clock())))
	return domain.FilterDict{"start_date": &started}
}

func (DefaultProvider) ExcludeDictionary(Context) domain.ExcludeDict {
	return nil
}
