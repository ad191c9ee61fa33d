package attr

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/specialistvlad/ruleforge/internal/provider"
	"github.com/zclconf/go-cty/cty"
)

// Kind enumerates the attribute kinds.
type Kind int

const (
	KindString Kind = iota
	KindBool
	KindInt
	KindList
	KindOption
	KindEnum
	KindDep
	KindSource
)

// Type is an attribute type. Elem is set for lists and options, Allowed for
// enums and Requires for dependencies.
type Type struct {
	Kind     Kind
	Elem     *Type
	Allowed  []string
	Requires []provider.Tag
}

func String() Type { return Type{Kind: KindString} }
func Bool() Type   { return Type{Kind: KindBool} }
func Int() Type    { return Type{Kind: KindInt} }

// Source is a path relative to the package declaring the target.
func Source() Type { return Type{Kind: KindSource} }

func List(elem Type) Type   { return Type{Kind: KindList, Elem: &elem} }
func Option(elem Type) Type { return Type{Kind: KindOption, Elem: &elem} }

// Enum is a closed set of strings.
func Enum(allowed ...string) Type {
	return Type{Kind: KindEnum, Allowed: slices.Clone(allowed)}
}

// Dep is a reference to another target whose instance must expose every tag
// in requires.
func Dep(requires ...provider.Tag) Type {
	return Type{Kind: KindDep, Requires: slices.Clone(requires)}
}

// CtyType is the cty type validated values of t have.
func (t Type) CtyType() cty.Type {
	switch t.Kind {
	case KindBool:
		return cty.Bool
	case KindInt:
		return cty.Number
	case KindList:
		return cty.List(t.Elem.CtyType())
	case KindOption:
		return t.Elem.CtyType()
	default:
		return cty.String
	}
}

// String renders t the way manifests spell it.
func (t Type) String() string {
	switch t.Kind {
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindSource:
		return "source"
	case KindList:
		return "list(" + t.Elem.String() + ")"
	case KindOption:
		return "option(" + t.Elem.String() + ")"
	case KindEnum:
		quoted := make([]string, len(t.Allowed))
		for i, a := range t.Allowed {
			quoted[i] = strconv.Quote(a)
		}
		return "enum(" + strings.Join(quoted, ", ") + ")"
	case KindDep:
		quoted := make([]string, len(t.Requires))
		for i, r := range t.Requires {
			quoted[i] = strconv.Quote(string(r))
		}
		return "dep(" + strings.Join(quoted, ", ") + ")"
	}
	return fmt.Sprintf("kind(%d)", int(t.Kind))
}

// check reports structural problems with the type declaration itself.
func (t Type) check() error {
	switch t.Kind {
	case KindString, KindBool, KindInt, KindSource:
		return nil
	case KindList, KindOption:
		if t.Elem == nil {
			return fmt.Errorf("%s type is missing its element type", t.kindName())
		}
		if t.Kind == KindOption && t.Elem.Kind == KindOption {
			return fmt.Errorf("option(option(...)) is not allowed")
		}
		return t.Elem.check()
	case KindEnum:
		if len(t.Allowed) == 0 {
			return fmt.Errorf("enum must allow at least one value")
		}
		seen := make(map[string]struct{}, len(t.Allowed))
		for _, a := range t.Allowed {
			if _, dup := seen[a]; dup {
				return fmt.Errorf("enum value %q is listed twice", a)
			}
			seen[a] = struct{}{}
		}
		return nil
	case KindDep:
		for _, r := range t.Requires {
			if _, err := provider.ParseTag(string(r)); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("unknown attribute kind %d", int(t.Kind))
}

func (t Type) kindName() string {
	if t.Kind == KindList {
		return "list"
	}
	return "option"
}

// HasDeps reports whether values of t can reference other targets.
func (t Type) HasDeps() bool {
	switch t.Kind {
	case KindDep:
		return true
	case KindList, KindOption:
		return t.Elem.HasDeps()
	}
	return false
}

// Clone returns a deep copy of t.
func (t Type) Clone() Type {
	out := Type{Kind: t.Kind, Allowed: slices.Clone(t.Allowed), Requires: slices.Clone(t.Requires)}
	if t.Elem != nil {
		elem := t.Elem.Clone()
		out.Elem = &elem
	}
	return out
}
