package rule

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"sync"

	"github.com/specialistvlad/ruleforge/internal/attr"
	"github.com/specialistvlad/ruleforge/internal/ctxlog"
	"github.com/specialistvlad/ruleforge/internal/provider"
)

var ruleNameRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// reservedAttrs are names target files use for their own bookkeeping.
var reservedAttrs = map[string]struct{}{"rule": {}}

// Module registers Go implementations with a registry.
type Module interface {
	Register(r *Registry)
}

// Registry stores implementations and schemas for the life of the process.
type Registry struct {
	mu      sync.RWMutex
	impls   map[string]*Impl
	schemas map[string]*Schema
	order   []*Schema
	sealed  bool
}

// NewRegistry creates an empty, unsealed registry.
func NewRegistry() *Registry {
	return &Registry{
		impls:   make(map[string]*Impl),
		schemas: make(map[string]*Schema),
	}
}

// RegisterImpl registers a Go implementation under name. Registering the same
// name twice, a nil function or registering after Seal is a programming
// error and panics.
func (r *Registry) RegisterImpl(name string, impl *Impl) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		panic(fmt.Sprintf("implementation '%s' registered after the registry was sealed", name))
	}
	if impl == nil || impl.Fn == nil {
		panic(fmt.Sprintf("implementation '%s' has no function", name))
	}
	if _, exists := r.impls[name]; exists {
		panic(fmt.Sprintf("implementation with name '%s' already registered", name))
	}
	r.impls[name] = &Impl{Fn: impl.Fn, Provides: slices.Clone(impl.Provides)}
}

// Register validates s, binds it to its implementation and stores a private
// copy. Attribute defaults are validated here, once.
func (r *Registry) Register(ctx context.Context, s *Schema) (ID, error) {
	logger := ctxlog.FromContext(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return 0, ErrSealed
	}
	if _, exists := r.schemas[s.Name]; exists {
		return 0, &DuplicateRuleError{Name: s.Name}
	}

	owned, err := r.prepare(s)
	if err != nil {
		return 0, &InvalidSchemaError{Name: s.Name, Err: err}
	}

	id := ID(len(r.order))
	r.schemas[owned.Name] = owned
	r.order = append(r.order, owned)
	logger.Debug("Registered rule.", "rule", owned.Name, "id", int(id), "toolchain", owned.Toolchain, "attributes", len(owned.Attrs))
	return id, nil
}

// prepare checks s and returns the copy the registry will own.
func (r *Registry) prepare(s *Schema) (*Schema, error) {
	if !ruleNameRe.MatchString(s.Name) {
		return nil, errors.New("rule names must be lower_snake_case")
	}

	out := s.Clone()

	seen := make(map[string]struct{}, len(s.Attrs))
	for i, a := range s.Attrs {
		if a == nil {
			return nil, fmt.Errorf("attribute %d is nil", i)
		}
		if _, reserved := reservedAttrs[a.Name]; reserved {
			return nil, fmt.Errorf("attribute name %q is reserved", a.Name)
		}
		if _, dup := seen[a.Name]; dup {
			return nil, fmt.Errorf("attribute %q is declared twice", a.Name)
		}
		seen[a.Name] = struct{}{}

		checked, err := attr.NewSpec(*a)
		if err != nil {
			return nil, err
		}
		out.Attrs[i] = checked
	}

	provides := make(map[provider.Tag]struct{}, len(s.Provides))
	for _, tag := range s.Provides {
		if _, err := provider.ParseTag(string(tag)); err != nil {
			return nil, err
		}
		if _, dup := provides[tag]; dup {
			return nil, fmt.Errorf("provider %q is declared twice", tag)
		}
		provides[tag] = struct{}{}
	}
	if s.Toolchain && len(s.Provides) == 0 {
		return nil, errors.New("toolchain rules must declare the providers they expose")
	}

	if out.Impl == nil {
		name := s.ImplName
		if name == "" {
			name = s.Name
		}
		impl, ok := r.impls[name]
		if !ok {
			return nil, fmt.Errorf("implementation %q is not registered", name)
		}
		out.ImplName = name
		out.Impl = &Impl{Fn: impl.Fn, Provides: slices.Clone(impl.Provides)}
	}
	if out.Impl.Fn == nil {
		return nil, errors.New("implementation has no function")
	}

	for _, tag := range s.Provides {
		if !slices.Contains(out.Impl.Provides, tag) {
			return nil, fmt.Errorf("declares provider %q but implementation %q never yields it", tag, out.ImplName)
		}
	}

	return out, nil
}

// Lookup returns a copy of the schema registered under name.
func (r *Registry) Lookup(name string) (*Schema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.schemas[name]
	if !ok {
		return nil, &UnknownRuleError{Name: name}
	}
	return s.Clone(), nil
}

// Schemas returns copies of all schemas in registration order.
func (r *Registry) Schemas() []*Schema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Schema, len(r.order))
	for i, s := range r.order {
		out[i] = s.Clone()
	}
	return out
}

// ImplNames returns the registered implementation names, sorted.
func (r *Registry) ImplNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.impls))
}

// Seal ends the initialization phase.
func (r *Registry) Seal() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sealed = true
}

// Sealed reports whether Seal has been called.
func (r *Registry) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}
