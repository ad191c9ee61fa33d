package attr

import (
	"fmt"
	"maps"
	"path"
	"slices"
	"strconv"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// Coerce validates a full raw attribute mapping against the ordered specs of
// rule. Unknown names are rejected first, then attributes are validated in
// declaration order and the first failure is returned.
func Coerce(rule string, specs []*Spec, raw map[string]cty.Value) (map[string]cty.Value, error) {
	declared := make(map[string]struct{}, len(specs))
	for _, s := range specs {
		declared[s.Name] = struct{}{}
	}
	for _, name := range slices.Sorted(maps.Keys(raw)) {
		if _, ok := declared[name]; !ok {
			return nil, &SchemaError{Kind: UnknownAttribute, Rule: rule, Attribute: name, Path: name}
		}
	}

	out := make(map[string]cty.Value, len(specs))
	for _, s := range specs {
		v, err := s.Validate(raw[s.Name])
		if err != nil {
			if serr, ok := err.(*SchemaError); ok {
				serr.Rule = rule
			}
			return nil, err
		}
		out[s.Name] = v
	}
	return out, nil
}

func mismatch(t Type, v cty.Value, at string) *SchemaError {
	return &SchemaError{Kind: TypeMismatch, Path: at, Expected: t.String(), Actual: describe(v)}
}

func describe(v cty.Value) string {
	switch {
	case !v.IsKnown():
		return "unknown value"
	case v.IsNull():
		return "null"
	case v.Type().Equals(cty.String):
		return "string " + strconv.Quote(v.AsString())
	case v.Type().Equals(cty.Number):
		return "number " + v.AsBigFloat().Text('g', -1)
	case v.Type().Equals(cty.Bool):
		return "bool " + strconv.FormatBool(v.True())
	}
	return v.Type().FriendlyName()
}

// coerce validates v against t. at is the path used in errors.
func coerce(t Type, v cty.Value, at string) (cty.Value, *SchemaError) {
	if !v.IsWhollyKnown() {
		return cty.NilVal, mismatch(t, v, at)
	}
	v, _ = v.UnmarkDeep()

	if v.IsNull() {
		if t.Kind == KindOption {
			return cty.NullVal(t.CtyType()), nil
		}
		return cty.NilVal, mismatch(t, v, at)
	}

	switch t.Kind {
	case KindOption:
		return coerce(*t.Elem, v, at)

	case KindBool:
		if !v.Type().Equals(cty.Bool) {
			return cty.NilVal, mismatch(t, v, at)
		}
		return v, nil

	case KindInt:
		if !v.Type().Equals(cty.Number) {
			return cty.NilVal, mismatch(t, v, at)
		}
		bf := v.AsBigFloat()
		if !bf.IsInt() {
			e := mismatch(t, v, at)
			e.Detail = "value has a fractional part"
			return cty.NilVal, e
		}
		if _, acc := bf.Int64(); acc != 0 {
			e := mismatch(t, v, at)
			e.Detail = "value does not fit in 64 bits"
			return cty.NilVal, e
		}
		return v, nil

	case KindString, KindEnum, KindDep, KindSource:
		if !v.Type().Equals(cty.String) {
			return cty.NilVal, mismatch(t, v, at)
		}
		return coerceString(t, v, at)

	case KindList:
		ty := v.Type()
		if !ty.IsListType() && !ty.IsTupleType() {
			return cty.NilVal, mismatch(t, v, at)
		}
		elemTy := t.Elem.CtyType()
		if v.LengthInt() == 0 {
			return cty.ListValEmpty(elemTy), nil
		}
		elems := make([]cty.Value, 0, v.LengthInt())
		for i, it := 0, v.ElementIterator(); it.Next(); i++ {
			_, ev := it.Element()
			cv, err := coerce(*t.Elem, ev, fmt.Sprintf("%s[%d]", at, i))
			if err != nil {
				return cty.NilVal, err
			}
			elems = append(elems, cv)
		}
		return cty.ListVal(elems), nil
	}

	return cty.NilVal, mismatch(t, v, at)
}

func coerceString(t Type, v cty.Value, at string) (cty.Value, *SchemaError) {
	s := v.AsString()
	switch t.Kind {
	case KindEnum:
		if !slices.Contains(t.Allowed, s) {
			return cty.NilVal, &SchemaError{
				Kind:     EnumValueNotAllowed,
				Path:     at,
				Expected: t.String(),
				Actual:   strconv.Quote(s),
				Allowed:  slices.Clone(t.Allowed),
			}
		}
	case KindDep:
		if strings.TrimSpace(s) == "" {
			return cty.NilVal, &SchemaError{Kind: ConstraintViolation, Path: at, Expected: t.String(),
				Detail: "dependency label must not be empty"}
		}
	case KindSource:
		clean, reason := cleanSource(s)
		if reason != "" {
			return cty.NilVal, &SchemaError{Kind: ConstraintViolation, Path: at, Expected: t.String(),
				Detail: fmt.Sprintf("source path %q %s", s, reason)}
		}
		return cty.StringVal(clean), nil
	}
	return v, nil
}

// cleanSource returns the cleaned form of a package-relative path, or the
// reason it is not one.
func cleanSource(p string) (string, string) {
	if p == "" {
		return "", "is empty"
	}
	if path.IsAbs(p) {
		return "", "must be relative to its package"
	}
	clean := path.Clean(p)
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", "escapes its package"
	}
	return clean, ""
}
