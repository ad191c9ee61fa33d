package rule

import (
	"fmt"
	"math/big"

	"github.com/specialistvlad/ruleforge/internal/attr"
	"github.com/specialistvlad/ruleforge/internal/platform"
	"github.com/zclconf/go-cty/cty"
)

// Context is what an implementation sees: the validated attributes, the
// resolved dependencies and the execution platform. Asking for an attribute
// the schema does not declare is a bug in the implementation and panics; the
// composer turns the panic into an error.
type Context struct {
	id       Identity
	schema   *Schema
	attrs    map[string]cty.Value
	deps     map[string]*Instance
	platform platform.Descriptor
}

// NewContext builds the context for one composition.
func NewContext(id Identity, schema *Schema, attrs map[string]cty.Value, deps map[string]*Instance, p platform.Descriptor) *Context {
	return &Context{id: id, schema: schema, attrs: attrs, deps: deps, platform: p}
}

func (c *Context) Identity() Identity            { return c.id }
func (c *Context) Platform() platform.Descriptor { return c.platform }

// Schema returns a copy of the rule's schema.
func (c *Context) Schema() *Schema { return c.schema.Clone() }

// Attr returns the validated value of name.
func (c *Context) Attr(name string) cty.Value {
	v, _ := c.lookup(name)
	return v
}

// lookup reports whether name holds a non-null value.
func (c *Context) lookup(name string) (cty.Value, bool) {
	if _, ok := c.schema.Attr(name); !ok {
		panic(fmt.Sprintf("rule %q has no attribute %q", c.schema.Name, name))
	}
	v, ok := c.attrs[name]
	if !ok {
		return cty.NilVal, false
	}
	return v, !v.IsNull()
}

// String returns a string-like attribute, or "" when it is none.
func (c *Context) String(name string) string {
	v, ok := c.lookup(name)
	if !ok {
		return ""
	}
	return v.AsString()
}

// Bool returns a bool attribute, or false when it is none.
func (c *Context) Bool(name string) bool {
	v, ok := c.lookup(name)
	if !ok {
		return false
	}
	return v.True()
}

// Int returns an int attribute, or 0 when it is none.
func (c *Context) Int(name string) int64 {
	v, ok := c.lookup(name)
	if !ok {
		return 0
	}
	i, _ := v.AsBigFloat().Int(new(big.Int))
	return i.Int64()
}

// Strings returns a list attribute of strings.
func (c *Context) Strings(name string) []string {
	v, ok := c.lookup(name)
	if !ok {
		return nil
	}
	return attr.Strings(v)
}

// Dep returns the instance referenced by a dependency attribute, or nil when
// the attribute is none.
func (c *Context) Dep(name string) *Instance {
	deps := c.Deps(name)
	if len(deps) == 0 {
		return nil
	}
	return deps[0]
}

// Deps returns every instance referenced by name, in element order.
func (c *Context) Deps(name string) []*Instance {
	spec, ok := c.schema.Attr(name)
	if !ok {
		panic(fmt.Sprintf("rule %q has no attribute %q", c.schema.Name, name))
	}
	v, ok := c.attrs[name]
	if !ok {
		return nil
	}
	refs := attr.DepRefs(spec.Type, v, name)
	out := make([]*Instance, 0, len(refs))
	for _, ref := range refs {
		if inst, ok := c.deps[ref.Label]; ok {
			out = append(out, inst)
		}
	}
	return out
}
