package filters

import (
	"testing"
	"time"

	"github.com/campuskit/coursesearch/internal/domain"
)

type staticProvider struct {
	fields   domain.FieldDict
	filters  domain.FilterDict
	excludes domain.ExcludeDict
}

func (p staticProvider) FieldDictionary(Context) domain.FieldDict     { return p.fields }
func (p staticProvider) FilterDictionary(Context) domain.FilterDict   { return p.filters }
func (p staticProvider) ExcludeDictionary(Context) domain.ExcludeDict { return p.excludes }

func TestDefaultProviderCourseScope(t *testing.T) {
	now := time.Date(2026, 8, 28, 9, 30, 0, 0, time.UTC)
	gen := NewGenerator()

	fields, filterDict, excludes := gen.Dictionaries(Context{CourseID: "course-v1:MITx+7.00x", Now: now})

	course, ok := fields["course"]
	if !ok || !course.IsScalar() {
		t.Fatalf("fields = %v, want exact course match", fields)
	}
	if course.Scalar().Render() != "course-v1:MITx+7.00x" {
		t.Errorf("course = %v", course.Scalar().Render())
	}

	started, ok := filterDict["start_date"]
	if !ok || started == nil || !started.IsRange() {
		t.Fatalf("filters = %v, want start_date range", filterDict)
	}
	if started.Range().Lower() != nil {
		t.Error("start_date filter must be unbounded below")
	}
	if got := started.Range().Upper().Render(); got != "2026-08-28T09:30:00.000000" {
		t.Errorf("start_date upper bound = %v", got)
	}

	if len(excludes) != 0 {
		t.Errorf("excludes = %v, want none", excludes)
	}
}

func TestDefaultProviderWithoutCourse(t *testing.T) {
	gen := NewGenerator()
	fields, _, _ := gen.Dictionaries(Context{})
	if len(fields) != 0 {
		t.Errorf("fields = %v, want none without a course id", fields)
	}
}

func TestGeneratorLaterProviderWins(t *testing.T) {
	org := domain.FromScalar(domain.StringValue("MITx"))
	override := domain.FromScalar(domain.StringValue("HarvardX"))
	enrollment := domain.FromRange(domain.Before(domain.TimeValue(time.Unix(1700000000, 0))))

	gen := NewGenerator(
		staticProvider{
			fields:   domain.FieldDict{"org": org},
			excludes: domain.ExcludeDict{"id": {domain.StringValue("course1")}},
		},
		staticProvider{
			fields:  domain.FieldDict{"org": override},
			filters: domain.FilterDict{"enrollment_start": &enrollment},
		},
	)

	fields, filterDict, excludes := gen.Dictionaries(Context{})

	if fields["org"].Scalar().Render() != "HarvardX" {
		t.Errorf("org = %v, want the later provider's value", fields["org"].Scalar().Render())
	}
	if _, ok := filterDict["enrollment_start"]; !ok {
		t.Errorf("filters = %v, missing enrollment_start", filterDict)
	}
	if len(excludes["id"]) != 1 {
		t.Errorf("excludes = %v", excludes)
	}
}
