package domain

import (
	"fmt"
	"time"
)

// timestampLayout is the backend-facing rendering of timestamp scalars:
// UTC ISO-8601 with microsecond precision.
const timestampLayout = "2006-01-02T15:04:05.000000"

// ScalarKind enumerates the scalar variants usable in search dictionaries.
type ScalarKind int

// Scalar kinds.
const (
	KindString ScalarKind = iota
	KindNumber
	KindBool
	KindTime
)

// Scalar is an immutable string, number, boolean or timestamp value.
type Scalar struct {
	kind ScalarKind
	str  string
	num  float64
	b    bool
	ts   time.Time
}

// StringValue creates a string scalar.
func StringValue(s string) Scalar { return Scalar{kind: KindString, str: s} }

// NumberValue creates a numeric scalar.
func NumberValue(n float64) Scalar { return Scalar{kind: KindNumber, num: n} }

// BoolValue creates a boolean scalar.
func BoolValue(b bool) Scalar { return Scalar{kind: KindBool, b: b} }

// TimeValue creates a timestamp scalar.
func TimeValue(t time.Time) Scalar { return Scalar{kind: KindTime, ts: t} }

// Kind returns the scalar variant.
func (s Scalar) Kind() ScalarKind { return s.kind }

// Render returns the backend-facing representation of the scalar.
func (s Scalar) Render() any {
	switch s.kind {
	case KindNumber:
		return s.num
	case KindBool:
		return s.b
	case KindTime:
		return s.ts.UTC().Format(timestampLayout)
	default:
		return s.str
	}
}

// Range is a half- or fully-bounded interval over scalar values.
// Open bounds mean unbounded on that side.
type Range struct {
	lower *Scalar
	upper *Scalar
}

// NewRange validates and creates a Range. At least one bound is required.
func NewRange(lower, upper *Scalar) (Range, error) {
	if lower == nil && upper == nil {
		return Range{}, fmt.Errorf("%w: range needs at least one bound", ErrInvalidValue)
	}
	return Range{lower: lower, upper: upper}, nil
}

// Before creates a range bounded above by the given scalar.
func Before(upper Scalar) Range { return Range{upper: &upper} }

// After creates a range bounded below by the given scalar.
func After(lower Scalar) Range { return Range{lower: &lower} }

// Lower returns the lower bound, nil when unbounded.
func (r Range) Lower() *Scalar { return r.lower }

// Upper returns the upper bound, nil when unbounded.
func (r Range) Upper() *Scalar { return r.upper }

// Value is the tagged union over scalar, range and list variants.
// Exactly one variant is populated; the zero Value is invalid.
type Value struct {
	scalar *Scalar
	rng    *Range
	list   []Scalar
}

// FromScalar creates an exact-match value.
func FromScalar(s Scalar) Value { return Value{scalar: &s} }

// FromRange creates a range-constraint value.
func FromRange(r Range) Value { return Value{rng: &r} }

// FromList creates a one-of constraint value.
func FromList(items ...Scalar) Value { return Value{list: items} }

// IsScalar reports whether the scalar variant is populated.
func (v Value) IsScalar() bool { return v.scalar != nil }

// IsRange reports whether the range variant is populated.
func (v Value) IsRange() bool { return v.rng != nil }

// IsList reports whether the list variant is populated.
func (v Value) IsList() bool { return v.list != nil }

// Scalar returns the scalar variant.
func (v Value) Scalar() Scalar { return *v.scalar }

// Range returns the range variant.
func (v Value) Range() Range { return *v.rng }

// List returns the list variant.
func (v Value) List() []Scalar { return v.list }

// Validate rejects values with no populated variant or an empty one-of list.
// Such values are caller programming errors and are surfaced eagerly, before
// any backend round trip.
func (v Value) Validate(field string) error {
	switch {
	case v.scalar != nil:
		return nil
	case v.rng != nil:
		if v.rng.lower == nil && v.rng.upper == nil {
			return fmt.Errorf("%w: field %q: range needs at least one bound", ErrInvalidValue, field)
		}
		return nil
	case v.list != nil:
		if len(v.list) == 0 {
			return fmt.Errorf("%w: field %q: one-of constraint needs at least one value", ErrInvalidValue, field)
		}
		return nil
	default:
		return fmt.Errorf("%w: field %q: no value variant set", ErrInvalidValue, field)
	}
}

// FieldDict maps field name to a value that must be present and match.
type FieldDict map[string]Value

// FilterDict maps field name to a soft constraint: documents pass if the
// field is absent or it matches. A nil value means the field must be absent.
type FilterDict map[string]*Value

// ExcludeDict maps field name to scalar values; documents where the field
// exists and matches any listed value are dropped.
type ExcludeDict map[string][]Scalar

// FacetOptions carries per-facet settings. Size zero uses the backend default.
type FacetOptions struct {
	Size int
}

// FacetSpec maps field name to facet options, requesting aggregation buckets
// over that field's distinct values.
type FacetSpec map[string]FacetOptions
