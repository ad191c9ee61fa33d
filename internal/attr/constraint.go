package attr

import (
	"fmt"
	"regexp"

	"github.com/zclconf/go-cty/cty"
)

// Constraint restricts the values of an attribute beyond its type.
// Check is only called with non-null values of a supported type.
type Constraint interface {
	Supports(t Type) bool
	Check(v cty.Value) error
	String() string
}

// Range bounds an int attribute. A nil bound is open.
type Range struct {
	Min *int64
	Max *int64
}

func (r Range) Supports(t Type) bool { return t.Kind == KindInt }

func (r Range) Check(v cty.Value) error {
	n, _ := v.AsBigFloat().Int64()
	if r.Min != nil && n < *r.Min {
		return fmt.Errorf("value %d is below the minimum %d", n, *r.Min)
	}
	if r.Max != nil && n > *r.Max {
		return fmt.Errorf("value %d is above the maximum %d", n, *r.Max)
	}
	return nil
}

func (r Range) String() string {
	switch {
	case r.Min != nil && r.Max != nil:
		return fmt.Sprintf("range(%d..%d)", *r.Min, *r.Max)
	case r.Min != nil:
		return fmt.Sprintf("min(%d)", *r.Min)
	case r.Max != nil:
		return fmt.Sprintf("max(%d)", *r.Max)
	}
	return "range(any)"
}

// Pattern requires string values to match a regular expression.
type Pattern struct {
	re *regexp.Regexp
}

// MatchPattern compiles expr into a Pattern constraint.
func MatchPattern(expr string) (Pattern, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return Pattern{}, fmt.Errorf("invalid pattern %q: %w", expr, err)
	}
	return Pattern{re: re}, nil
}

func (p Pattern) Supports(t Type) bool {
	return t.Kind == KindString || t.Kind == KindSource
}

func (p Pattern) Check(v cty.Value) error {
	if !p.re.MatchString(v.AsString()) {
		return fmt.Errorf("value %q does not match pattern %q", v.AsString(), p.re.String())
	}
	return nil
}

func (p Pattern) String() string { return "pattern(" + p.re.String() + ")" }

// NonEmpty rejects empty strings and empty lists.
type NonEmpty struct{}

func (NonEmpty) Supports(t Type) bool {
	switch t.Kind {
	case KindString, KindSource, KindList:
		return true
	}
	return false
}

func (NonEmpty) Check(v cty.Value) error {
	if v.Type().Equals(cty.String) {
		if v.AsString() == "" {
			return fmt.Errorf("value must not be empty")
		}
		return nil
	}
	if v.LengthInt() == 0 {
		return fmt.Errorf("list must not be empty")
	}
	return nil
}

func (NonEmpty) String() string { return "non_empty" }

func cloneConstraints(cs []Constraint) []Constraint {
	if len(cs) == 0 {
		return nil
	}
	out := make([]Constraint, len(cs))
	for i, c := range cs {
		out[i] = cloneConstraint(c)
	}
	return out
}

func cloneConstraint(c Constraint) Constraint {
	r, ok := c.(Range)
	if !ok {
		return c
	}
	out := Range{}
	if r.Min != nil {
		v := *r.Min
		out.Min = &v
	}
	if r.Max != nil {
		v := *r.Max
		out.Max = &v
	}
	return out
}
