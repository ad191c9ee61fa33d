package rule

import (
	"crypto/sha256"
	"encoding/hex"
	"maps"

	"github.com/specialistvlad/ruleforge/internal/platform"
	"github.com/specialistvlad/ruleforge/internal/provider"
	"github.com/zclconf/go-cty/cty"
)

// Identity is the configuration key of an instance: the rule name and the
// canonical text of its configuration. It is comparable and usable as a map
// or graph node key.
type Identity struct {
	Rule   string
	Config string
}

// String abbreviates the configuration with a digest for display only;
// equality is always on the full Config.
func (id Identity) String() string {
	sum := sha256.Sum256([]byte(id.Config))
	return id.Rule + "#" + hex.EncodeToString(sum[:6])
}

// Instance is a resolved rule. It is never mutated after construction and is
// shared by every consumer of its identity.
type Instance struct {
	id        Identity
	schema    *Schema
	attrs     map[string]cty.Value
	providers provider.Set
	deps      map[string]*Instance
	platform  platform.Descriptor
}

// NewInstance assembles an instance from its composed parts.
func NewInstance(id Identity, schema *Schema, attrs map[string]cty.Value, providers provider.Set, deps map[string]*Instance, p platform.Descriptor) *Instance {
	return &Instance{
		id:        id,
		schema:    schema,
		attrs:     maps.Clone(attrs),
		providers: providers,
		deps:      maps.Clone(deps),
		platform:  p,
	}
}

func (i *Instance) Identity() Identity { return i.id }
func (i *Instance) Rule() string       { return i.id.Rule }

// Schema returns a copy of the schema the instance was built from.
func (i *Instance) Schema() *Schema { return i.schema.Clone() }

// Platform is the execution platform the instance was resolved for.
func (i *Instance) Platform() platform.Descriptor { return i.platform }

// Attr returns a validated attribute value.
func (i *Instance) Attr(name string) (cty.Value, bool) {
	v, ok := i.attrs[name]
	return v, ok
}

// Attrs returns a copy of all validated attribute values.
func (i *Instance) Attrs() map[string]cty.Value {
	return maps.Clone(i.attrs)
}

// Provider returns the record with the given tag.
func (i *Instance) Provider(tag provider.Tag) (provider.Record, bool) {
	return i.providers.Get(tag)
}

// Providers returns the full provider set.
func (i *Instance) Providers() provider.Set {
	return i.providers
}

// Dep returns the dependency resolved for label.
func (i *Instance) Dep(label string) (*Instance, bool) {
	d, ok := i.deps[label]
	return d, ok
}

// ProviderOf returns the record of type T exposed by inst.
func ProviderOf[T provider.Record](inst *Instance) (T, bool) {
	return provider.Get[T](inst.providers)
}
