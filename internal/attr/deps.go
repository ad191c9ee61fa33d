package attr

import (
	"fmt"

	"github.com/specialistvlad/ruleforge/internal/provider"
	"github.com/zclconf/go-cty/cty"
)

// DepRef is one dependency label found in a validated value.
type DepRef struct {
	Path     string
	Label    string
	Requires []provider.Tag
}

// DepRefs lists the dependency labels held by v, a value already validated
// against t, in element order.
func DepRefs(t Type, v cty.Value, at string) []DepRef {
	if v.IsNull() || !t.HasDeps() {
		return nil
	}
	switch t.Kind {
	case KindDep:
		return []DepRef{{Path: at, Label: v.AsString(), Requires: t.Requires}}
	case KindOption:
		return DepRefs(*t.Elem, v, at)
	case KindList:
		var refs []DepRef
		for i, it := 0, v.ElementIterator(); it.Next(); i++ {
			_, ev := it.Element()
			refs = append(refs, DepRefs(*t.Elem, ev, fmt.Sprintf("%s[%d]", at, i))...)
		}
		return refs
	}
	return nil
}

// Strings returns the elements of a validated list(string)-like value.
func Strings(v cty.Value) []string {
	if v.IsNull() {
		return nil
	}
	out := make([]string, 0, v.LengthInt())
	for it := v.ElementIterator(); it.Next(); {
		_, ev := it.Element()
		out = append(out, ev.AsString())
	}
	return out
}
