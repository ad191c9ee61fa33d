package rule

import (
	"context"
	"slices"

	"github.com/specialistvlad/ruleforge/internal/attr"
	"github.com/specialistvlad/ruleforge/internal/provider"
)

// ID identifies a registered schema. IDs are assigned in registration order.
type ID int

// Implementation composes the providers of one instance. It must be pure with
// respect to rc: the same attributes, dependencies and platform must yield
// the same providers, which is what makes instances safe to memoize.
type Implementation func(ctx context.Context, rc *Context) ([]provider.Record, error)

// Impl is a named Go implementation together with the provider tags it may
// yield.
type Impl struct {
	Fn       Implementation
	Provides []provider.Tag
}

// Schema describes a rule. Attrs keep their declaration order.
type Schema struct {
	Name      string
	Doc       string
	Toolchain bool
	Attrs     []*attr.Spec
	Provides  []provider.Tag
	ImplName  string
	Impl      *Impl
}

// Attr returns the spec of the named attribute.
func (s *Schema) Attr(name string) (*attr.Spec, bool) {
	for _, a := range s.Attrs {
		if a.Name == name {
			return a, true
		}
	}
	return nil, false
}

// Clone returns a deep copy of s. The registry keeps its own copy of every
// schema and only ever hands out clones, so changes to a clone never reach
// registered rules.
func (s *Schema) Clone() *Schema {
	out := *s
	if s.Attrs != nil {
		out.Attrs = make([]*attr.Spec, len(s.Attrs))
		for i, a := range s.Attrs {
			if a != nil {
				out.Attrs[i] = a.Clone()
			}
		}
	}
	out.Provides = slices.Clone(s.Provides)
	if s.Impl != nil {
		impl := *s.Impl
		impl.Provides = slices.Clone(s.Impl.Provides)
		out.Impl = &impl
	}
	return &out
}
