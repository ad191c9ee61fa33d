package attr

import (
	"fmt"
	"regexp"

	"github.com/zclconf/go-cty/cty"
)

var attrNameRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Spec declares one attribute of a rule.
type Spec struct {
	Name        string
	Type        Type
	Required    bool
	Default     *cty.Value
	Constraints []Constraint
	Doc         string
}

// NewSpec checks the declaration and returns a copy whose default has been
// validated once, so later calls to Validate can hand it out unchecked.
func NewSpec(s Spec) (*Spec, error) {
	if !attrNameRe.MatchString(s.Name) {
		return nil, fmt.Errorf("invalid attribute name %q", s.Name)
	}
	if err := s.Type.check(); err != nil {
		return nil, fmt.Errorf("attribute %q: %w", s.Name, err)
	}

	target := s.Type
	if target.Kind == KindOption {
		target = *target.Elem
	}
	for _, c := range s.Constraints {
		if !c.Supports(target) {
			return nil, fmt.Errorf("attribute %q: constraint %s does not apply to type %s", s.Name, c, s.Type)
		}
	}

	out := s
	out.Type = s.Type.Clone()
	out.Constraints = cloneConstraints(s.Constraints)

	switch {
	case s.Required && s.Default != nil:
		return nil, fmt.Errorf("attribute %q: required attributes cannot declare a default", s.Name)
	case s.Default != nil:
		if s.Default.IsNull() && s.Type.Kind != KindOption {
			return nil, fmt.Errorf("attribute %q: default must not be null for type %s", s.Name, s.Type)
		}
		v, err := out.check(*s.Default)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: invalid default: %w", s.Name, err)
		}
		out.Default = &v
	case !s.Required && s.Type.Kind != KindOption:
		return nil, fmt.Errorf("attribute %q: optional attribute of type %s must declare a default", s.Name, s.Type)
	}

	return &out, nil
}

// Validate turns a raw value into a validated one. A null or missing raw
// value (cty.NilVal) selects the default.
func (s *Spec) Validate(raw cty.Value) (cty.Value, error) {
	raw, _ = raw.Unmark()
	if raw.IsNull() {
		switch {
		case s.Required:
			return cty.NilVal, &SchemaError{
				Kind:      MissingRequired,
				Attribute: s.Name,
				Path:      s.Name,
				Expected:  s.Type.String(),
			}
		case s.Default != nil:
			return *s.Default, nil
		default:
			return cty.NullVal(s.Type.CtyType()), nil
		}
	}
	return s.check(raw)
}

// check coerces raw and applies the constraints to the result.
func (s *Spec) check(raw cty.Value) (cty.Value, error) {
	v, serr := coerce(s.Type, raw, s.Name)
	if serr != nil {
		serr.Attribute = s.Name
		return cty.NilVal, serr
	}
	if v.IsNull() {
		return v, nil
	}
	for _, c := range s.Constraints {
		if err := c.Check(v); err != nil {
			return cty.NilVal, &SchemaError{
				Kind:      ConstraintViolation,
				Attribute: s.Name,
				Path:      s.Name,
				Expected:  c.String(),
				Detail:    err.Error(),
			}
		}
	}
	return v, nil
}

// Clone returns a deep copy of s. Callers may change the copy freely.
func (s *Spec) Clone() *Spec {
	out := *s
	out.Type = s.Type.Clone()
	if s.Default != nil {
		v := *s.Default
		out.Default = &v
	}
	out.Constraints = cloneConstraints(s.Constraints)
	return &out
}
