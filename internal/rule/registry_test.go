package rule

import (
	"context"
	"sync"
	"testing"

	"github.com/specialistvlad/ruleforge/internal/attr"
	"github.com/specialistvlad/ruleforge/internal/platform"
	"github.com/specialistvlad/ruleforge/internal/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func noop(context.Context, *Context) ([]provider.Record, error) { return nil, nil }

func strSpec(t *testing.T, name, def string) *attr.Spec {
	t.Helper()
	v := cty.StringVal(def)
	s, err := attr.NewSpec(attr.Spec{Name: name, Type: attr.String(), Default: &v})
	require.NoError(t, err)
	return s
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	r.RegisterImpl("noop", &Impl{Fn: noop})
	r.RegisterImpl("cc", &Impl{Fn: noop, Provides: []provider.Tag{provider.TagCompiler, provider.TagLinker}})
	return r
}

func TestRegister(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("assigns ids in order and binds impl by name", func(t *testing.T) {
		t.Parallel()
		r := newTestRegistry(t)
		id0, err := r.Register(ctx, &Schema{Name: "alpha", ImplName: "noop"})
		require.NoError(t, err)
		id1, err := r.Register(ctx, &Schema{Name: "beta", ImplName: "cc", Toolchain: true, Provides: []provider.Tag{provider.TagCompiler}})
		require.NoError(t, err)
		assert.Equal(t, ID(0), id0)
		assert.Equal(t, ID(1), id1)

		s, err := r.Lookup("beta")
		require.NoError(t, err)
		require.NotNil(t, s.Impl)
		assert.Equal(t, "cc", s.ImplName)
		assert.True(t, s.Toolchain)
	})

	t.Run("impl name defaults to rule name", func(t *testing.T) {
		t.Parallel()
		r := NewRegistry()
		r.RegisterImpl("gamma", &Impl{Fn: noop})
		_, err := r.Register(ctx, &Schema{Name: "gamma"})
		require.NoError(t, err)
	})

	t.Run("duplicate rule", func(t *testing.T) {
		t.Parallel()
		r := newTestRegistry(t)
		_, err := r.Register(ctx, &Schema{Name: "alpha", ImplName: "noop"})
		require.NoError(t, err)
		_, err = r.Register(ctx, &Schema{Name: "alpha", ImplName: "noop"})
		var dup *DuplicateRuleError
		require.ErrorAs(t, err, &dup)
		assert.Equal(t, "alpha", dup.Name)
	})

	t.Run("sealed", func(t *testing.T) {
		t.Parallel()
		r := newTestRegistry(t)
		r.Seal()
		assert.True(t, r.Sealed())
		_, err := r.Register(ctx, &Schema{Name: "alpha", ImplName: "noop"})
		require.ErrorIs(t, err, ErrSealed)
	})

	t.Run("stores a private copy", func(t *testing.T) {
		t.Parallel()
		r := newTestRegistry(t)
		s := &Schema{Name: "alpha", ImplName: "noop", Attrs: []*attr.Spec{strSpec(t, "mode", "fast")}}
		_, err := r.Register(ctx, s)
		require.NoError(t, err)
		s.Attrs[0] = strSpec(t, "other", "x")
		s.Name = "changed"

		got, err := r.Lookup("alpha")
		require.NoError(t, err)
		assert.Equal(t, "mode", got.Attrs[0].Name)
	})

	t.Run("hands out copies", func(t *testing.T) {
		t.Parallel()
		r := newTestRegistry(t)
		lo := int64(1)
		jobs, err := attr.NewSpec(attr.Spec{
			Name:        "jobs",
			Type:        attr.Int(),
			Default:     ptr(cty.NumberIntVal(4)),
			Constraints: []attr.Constraint{attr.Range{Min: &lo}},
		})
		require.NoError(t, err)
		_, err = r.Register(ctx, &Schema{Name: "alpha", ImplName: "cc", Attrs: []*attr.Spec{jobs}})
		require.NoError(t, err)

		got, err := r.Lookup("alpha")
		require.NoError(t, err)
		got.Toolchain = true
		got.Provides = append(got.Provides, provider.TagCompiler)
		got.Impl.Provides = nil
		got.Attrs[0].Default = ptr(cty.NumberIntVal(7))
		*got.Attrs[0].Constraints[0].(attr.Range).Min = 9
		got.Attrs = append(got.Attrs, strSpec(t, "extra", "x"))

		all := r.Schemas()
		all[0].Name = "renamed"

		again, err := r.Lookup("alpha")
		require.NoError(t, err)
		assert.False(t, again.Toolchain)
		assert.Empty(t, again.Provides)
		assert.Equal(t, []provider.Tag{provider.TagCompiler, provider.TagLinker}, again.Impl.Provides)
		require.Len(t, again.Attrs, 1)
		assert.True(t, again.Attrs[0].Default.RawEquals(cty.NumberIntVal(4)))
		assert.Equal(t, "min(1)", again.Attrs[0].Constraints[0].String())
		assert.Equal(t, "alpha", r.Schemas()[0].Name)

		inst := NewInstance(Identity{Rule: "alpha"}, again, nil, provider.Set{}, nil, platform.Descriptor{})
		inst.Schema().Attrs[0].Name = "changed"
		assert.Equal(t, "jobs", inst.Schema().Attrs[0].Name)

		rc := NewContext(Identity{Rule: "alpha"}, again, nil, nil, platform.Descriptor{})
		rc.Schema().Toolchain = true
		assert.False(t, rc.Schema().Toolchain)
	})
}

func TestRegister_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		schema  *Schema
		wantErr string
	}{
		{
			name:    "bad rule name",
			schema:  &Schema{Name: "Bad-Name", ImplName: "noop"},
			wantErr: "lower_snake_case",
		},
		{
			name:    "unknown impl",
			schema:  &Schema{Name: "alpha", ImplName: "missing"},
			wantErr: `implementation "missing" is not registered`,
		},
		{
			name:    "reserved attribute",
			schema:  &Schema{Name: "alpha", ImplName: "noop", Attrs: []*attr.Spec{{Name: "rule", Type: attr.Option(attr.String())}}},
			wantErr: `attribute name "rule" is reserved`,
		},
		{
			name: "duplicate attribute",
			schema: &Schema{Name: "alpha", ImplName: "noop", Attrs: []*attr.Spec{
				{Name: "x", Type: attr.Option(attr.String())},
				{Name: "x", Type: attr.Option(attr.String())},
			}},
			wantErr: `attribute "x" is declared twice`,
		},
		{
			name:    "invalid default is caught at registration",
			schema:  &Schema{Name: "alpha", ImplName: "noop", Attrs: []*attr.Spec{{Name: "x", Type: attr.Enum("a"), Default: ptr(cty.StringVal("b"))}}},
			wantErr: "invalid default",
		},
		{
			name:    "toolchain without providers",
			schema:  &Schema{Name: "alpha", ImplName: "cc", Toolchain: true},
			wantErr: "toolchain rules must declare",
		},
		{
			name:    "unknown provider tag",
			schema:  &Schema{Name: "alpha", ImplName: "cc", Provides: []provider.Tag{"debugger"}},
			wantErr: "unknown provider kind",
		},
		{
			name:    "provides more than the implementation yields",
			schema:  &Schema{Name: "alpha", ImplName: "cc", Toolchain: true, Provides: []provider.Tag{provider.TagInterpreter}},
			wantErr: `declares provider "interpreter" but implementation "cc" never yields it`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			r := newTestRegistry(t)
			_, err := r.Register(context.Background(), tc.schema)
			var invalid *InvalidSchemaError
			require.ErrorAs(t, err, &invalid)
			assert.ErrorContains(t, err, tc.wantErr)

			_, err = r.Lookup(tc.schema.Name)
			var unknown *UnknownRuleError
			require.ErrorAs(t, err, &unknown)
		})
	}
}

func TestRegisterImpl_Panics(t *testing.T) {
	t.Parallel()

	r := newTestRegistry(t)
	assert.PanicsWithValue(t, "implementation with name 'noop' already registered", func() {
		r.RegisterImpl("noop", &Impl{Fn: noop})
	})
	assert.Panics(t, func() { r.RegisterImpl("empty", &Impl{}) })

	r.Seal()
	assert.Panics(t, func() { r.RegisterImpl("late", &Impl{Fn: noop}) })
	assert.Equal(t, []string{"cc", "noop"}, r.ImplNames())
}

func TestLookup_ConcurrentReaders(t *testing.T) {
	t.Parallel()

	r := newTestRegistry(t)
	_, err := r.Register(context.Background(), &Schema{Name: "alpha", ImplName: "noop"})
	require.NoError(t, err)
	r.Seal()

	var wg sync.WaitGroup
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := r.Lookup("alpha")
			assert.NoError(t, err)
			assert.Equal(t, "alpha", s.Name)
		}()
	}
	wg.Wait()
	assert.Len(t, r.Schemas(), 1)
}

func TestContext(t *testing.T) {
	t.Parallel()

	dep := NewInstance(Identity{Rule: "tc", Config: "x"}, &Schema{Name: "tc"}, nil, provider.Set{}, nil, platform.Descriptor{})
	schema := &Schema{Name: "lib", Attrs: []*attr.Spec{
		{Name: "name", Type: attr.String()},
		{Name: "pic", Type: attr.Bool()},
		{Name: "jobs", Type: attr.Int()},
		{Name: "srcs", Type: attr.List(attr.Source())},
		{Name: "toolchain", Type: attr.Dep(provider.TagCompiler)},
		{Name: "extra", Type: attr.Option(attr.Dep())},
	}}
	attrs := map[string]cty.Value{
		"name":      cty.StringVal("lib"),
		"pic":       cty.True,
		"jobs":      cty.NumberIntVal(4),
		"srcs":      cty.ListVal([]cty.Value{cty.StringVal("a.cc"), cty.StringVal("b.cc")}),
		"toolchain": cty.StringVal("//tc"),
		"extra":     cty.NullVal(cty.String),
	}
	rc := NewContext(Identity{Rule: "lib"}, schema, attrs, map[string]*Instance{"//tc": dep}, platform.Descriptor{OS: "linux"})

	assert.Equal(t, "lib", rc.String("name"))
	assert.True(t, rc.Bool("pic"))
	assert.Equal(t, int64(4), rc.Int("jobs"))
	assert.Equal(t, []string{"a.cc", "b.cc"}, rc.Strings("srcs"))
	assert.Same(t, dep, rc.Dep("toolchain"))
	assert.Nil(t, rc.Dep("extra"))
	assert.Equal(t, "linux", rc.Platform().OS)
	assert.Panics(t, func() { rc.Attr("nope") })
}

func TestContext_NullAndMissing(t *testing.T) {
	t.Parallel()

	schema := &Schema{Name: "lib", Attrs: []*attr.Spec{
		{Name: "version", Type: attr.Option(attr.String())},
		{Name: "pic", Type: attr.Option(attr.Bool())},
		{Name: "jobs", Type: attr.Option(attr.Int())},
		{Name: "flags", Type: attr.Option(attr.List(attr.String()))},
	}}
	attrs := map[string]cty.Value{
		"version": cty.NullVal(cty.String),
		"flags":   cty.NullVal(cty.List(cty.String)),
	}
	rc := NewContext(Identity{Rule: "lib"}, schema, attrs, nil, platform.Descriptor{})

	assert.Equal(t, "", rc.String("version"))
	assert.False(t, rc.Bool("pic"))
	assert.Equal(t, int64(0), rc.Int("jobs"))
	assert.Nil(t, rc.Strings("flags"))
	assert.True(t, rc.Attr("version").IsNull())
}

func TestIdentity_String(t *testing.T) {
	t.Parallel()

	a := Identity{Rule: "cxx_toolchain", Config: `{"link_style":"shared"}`}
	b := Identity{Rule: "cxx_toolchain", Config: `{"link_style":"static"}`}
	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a.String(), b.String())
	assert.Regexp(t, `^cxx_toolchain#[0-9a-f]{12}$`, a.String())
}

func ptr[T any](v T) *T { return &v }
