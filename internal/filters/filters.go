package filters

import (
	"errors"
	"fmt"
	"time"

	"neowatch/internal/models"
)

// Comparator is the binary comparison a filter applies between the
// approach attribute and its reference value.
type Comparator int

const (
	Eq Comparator = iota
	Le
	Ge
)

func (c Comparator) String() string {
	switch c {
	case Eq:
		return "=="
	case Le:
		return "<="
	case Ge:
		return ">="
	}
	return fmt.Sprintf("Comparator(%d)", int(c))
}

// Kind names the approach attribute a filter inspects.
type Kind int

const (
	KindDate Kind = iota
	KindDistance
	KindVelocity
	KindDiameter
	KindHazardous
)

func (k Kind) String() string {
	switch k {
	case KindDate:
		return "date"
	case KindDistance:
		return "distance"
	case KindVelocity:
		return "velocity"
	case KindDiameter:
		return "diameter"
	case KindHazardous:
		return "hazardous"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ErrUnsupportedCriterion signals a filter kind with no registered
// accessor. That is a wiring defect rather than a data condition, so
// evaluation panics with it instead of returning an error.
var ErrUnsupportedCriterion = errors.New("unsupported filter criterion")

// matchers evaluate "attribute op reference" for one kind each. Kinds
// that read through the approach's NEO treat an unlinked approach as
// no-match, silently dropping it from results.
var matchers = map[Kind]func(a *models.CloseApproach, op Comparator, value any) bool{
	KindDate: func(a *models.CloseApproach, op Comparator, value any) bool {
		if a.Time == nil {
			return false
		}
		return compareDate(dateOnly(*a.Time), op, value.(time.Time))
	},
	KindDistance: func(a *models.CloseApproach, op Comparator, value any) bool {
		return compareFloat(a.Distance, op, value.(float64))
	},
	KindVelocity: func(a *models.CloseApproach, op Comparator, value any) bool {
		return compareFloat(a.Velocity, op, value.(float64))
	},
	KindDiameter: func(a *models.CloseApproach, op Comparator, value any) bool {
		if a.NEO == nil {
			return false
		}
		// NaN (unknown diameter) fails every comparison here.
		return compareFloat(a.NEO.Diameter, op, value.(float64))
	},
	KindHazardous: func(a *models.CloseApproach, op Comparator, value any) bool {
		if a.NEO == nil {
			return false
		}
		return op == Eq && a.NEO.Hazardous == value.(bool)
	},
}

func compareFloat(got float64, op Comparator, want float64) bool {
	switch op {
	case Eq:
		return got == want
	case Le:
		return got <= want
	case Ge:
		return got >= want
	}
	return false
}

func compareDate(got time.Time, op Comparator, want time.Time) bool {
	switch op {
	case Eq:
		return got.Equal(want)
	case Le:
		return !got.After(want)
	case Ge:
		return !got.Before(want)
	}
	return false
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// AttributeFilter compares one attribute of a close approach against a
// reference value. A nil reference value means the criterion was never
// supplied, and the filter passes every approach; that way the full
// filter set can always be built and handed to the query as-is.
type AttributeFilter struct {
	kind  Kind
	op    Comparator
	value any
}

func NewAttributeFilter(kind Kind, op Comparator, value any) AttributeFilter {
	return AttributeFilter{kind: kind, op: op, value: value}
}

// Matches reports whether the approach satisfies this filter. Panics
// with ErrUnsupportedCriterion for a kind that has no accessor; that
// never happens for the built-in kinds.
func (f AttributeFilter) Matches(a *models.CloseApproach) bool {
	if f.value == nil {
		return true
	}
	match, ok := matchers[f.kind]
	if !ok {
		panic(fmt.Errorf("%w: %v", ErrUnsupportedCriterion, f.kind))
	}
	return match(a, f.op, f.value)
}

func (f AttributeFilter) String() string {
	if f.value == nil {
		return fmt.Sprintf("AttributeFilter(%v, unset)", f.kind)
	}
	return fmt.Sprintf("AttributeFilter(%v %v %v)", f.kind, f.op, f.value)
}

// Criteria carries the optional query criteria. Nil fields mean "no
// constraint" — distinguishable from zero, false, and the zero date.
type Criteria struct {
	Date      *time.Time
	StartDate *time.Time
	EndDate   *time.Time

	DistanceMin *float64
	DistanceMax *float64
	VelocityMin *float64
	VelocityMax *float64
	DiameterMin *float64
	DiameterMax *float64

	Hazardous *bool
}

// CreateFilters builds the full filter set from the supplied criteria:
// one filter per criterion slot, ten in all. Unset criteria produce
// filters that pass everything, set criteria combine conjunctively in
// the query.
func CreateFilters(c Criteria) []AttributeFilter {
	return []AttributeFilter{
		NewAttributeFilter(KindDate, Eq, dateValue(c.Date)),
		NewAttributeFilter(KindDate, Ge, dateValue(c.StartDate)),
		NewAttributeFilter(KindDate, Le, dateValue(c.EndDate)),
		NewAttributeFilter(KindDistance, Ge, floatValue(c.DistanceMin)),
		NewAttributeFilter(KindDistance, Le, floatValue(c.DistanceMax)),
		NewAttributeFilter(KindVelocity, Ge, floatValue(c.VelocityMin)),
		NewAttributeFilter(KindVelocity, Le, floatValue(c.VelocityMax)),
		NewAttributeFilter(KindDiameter, Ge, floatValue(c.DiameterMin)),
		NewAttributeFilter(KindDiameter, Le, floatValue(c.DiameterMax)),
		NewAttributeFilter(KindHazardous, Eq, boolValue(c.Hazardous)),
	}
}

func dateValue(t *time.Time) any {
	if t == nil {
		return nil
	}
	return dateOnly(*t)
}

func floatValue(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func boolValue(b *bool) any {
	if b == nil {
		return nil
	}
	return *b
}
