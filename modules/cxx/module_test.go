package cxx_test

import (
	"context"
	"testing"

	"github.com/specialistvlad/ruleforge/internal/attr"
	"github.com/specialistvlad/ruleforge/internal/provider"
	"github.com/specialistvlad/ruleforge/internal/rule"
	tu "github.com/specialistvlad/ruleforge/internal/testutil"
	"github.com/specialistvlad/ruleforge/modules/cxx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const macPlatform = `
name: mac
os: darwin
arch: arm64
`

func TestSharedExtension(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ".so", cxx.SharedExtension("linux"))
	assert.Equal(t, ".dylib", cxx.SharedExtension("darwin"))
	assert.Equal(t, ".dll", cxx.SharedExtension("windows"))
	assert.Equal(t, ".so", cxx.SharedExtension("freebsd"))
}

func TestToolchain_Defaults(t *testing.T) {
	t.Parallel()

	res := tu.NewTestApp(t, map[string]string{
		"platform.yaml": macPlatform,
		"targets/BUILD.hcl": `
target "tc" {
  rule   = "cxx_toolchain"
  cflags = ["-O2", "-Wall"]
}
`,
	}, &cxx.Module{})
	require.NoError(t, res.Err)

	tc, err := res.App.Resolve(context.Background(), "tc")
	require.NoError(t, err)
	tu.RequireProviders(t, tc, provider.TagDefault, provider.TagCompiler, provider.TagLinker)

	cc, ok := rule.ProviderOf[provider.CompilerInfo](tc)
	require.True(t, ok)
	assert.Equal(t, provider.CompilerInfo{Language: "cxx", Compiler: "c++", Flags: []string{"-O2", "-Wall"}}, cc)

	ld, ok := rule.ProviderOf[provider.LinkerInfo](tc)
	require.True(t, ok)
	assert.Equal(t, "c++", ld.Linker)
	assert.Equal(t, "shared", ld.LinkStyle)
	assert.Equal(t, ".dylib", ld.SharedExtension)
}

func TestToolchain_Labels(t *testing.T) {
	t.Parallel()

	res := tu.NewTestApp(t, map[string]string{
		"platform.yaml": macPlatform,
		"targets/BUILD.hcl": `
target "implicit" {
  rule = "cxx_toolchain"
}

target "explicit" {
  rule   = "cxx_toolchain"
  labels = []
}

target "labelled" {
  rule   = "cxx_toolchain"
  labels = ["release", "lto"]
}
`,
	}, &cxx.Module{})
	require.NoError(t, res.Err)
	ctx := context.Background()

	implicit, err := res.App.Resolve(ctx, "implicit")
	require.NoError(t, err)
	explicit, err := res.App.Resolve(ctx, "explicit")
	require.NoError(t, err)
	assert.Same(t, implicit, explicit)

	def, ok := rule.ProviderOf[provider.DefaultInfo](implicit)
	require.True(t, ok)
	assert.Empty(t, def.Labels)

	labelled, err := res.App.Resolve(ctx, "labelled")
	require.NoError(t, err)
	assert.NotEqual(t, implicit.Identity(), labelled.Identity())
	def, _ = rule.ProviderOf[provider.DefaultInfo](labelled)
	assert.Equal(t, []string{"release", "lto"}, def.Labels)
}

func TestLibrary(t *testing.T) {
	t.Parallel()

	res := tu.NewTestApp(t, map[string]string{
		"platform.yaml": macPlatform,
		"targets/BUILD.hcl": `
target "tc" {
  rule       = "cxx_toolchain"
  compiler   = "clang++"
  link_style = "static"
}

target "base" {
  rule       = "cxx_library"
  name       = "base"
  srcs       = ["base.cpp"]
  toolchain  = target.tc
  link_style = "shared"
}

target "util" {
  rule      = "cxx_library"
  name      = "util"
  srcs      = ["a/b.cc", "c.cxx"]
  toolchain = target.tc
}

target "top" {
  rule      = "cxx_library"
  name      = "top"
  srcs      = ["top.cc"]
  toolchain = target.tc
  deps      = [target.util, target.base, target.util]
}
`,
	}, &cxx.Module{})
	require.NoError(t, res.Err)
	ctx := context.Background()

	util, err := res.App.Resolve(ctx, "util")
	require.NoError(t, err)
	def, _ := rule.ProviderOf[provider.DefaultInfo](util)
	assert.Equal(t, []string{"libutil.a", "a/b.o", "c.o"}, def.Outputs)
	assert.Empty(t, def.LinkOutputs)

	top, err := res.App.Resolve(ctx, "top")
	require.NoError(t, err)
	def, _ = rule.ProviderOf[provider.DefaultInfo](top)
	assert.Equal(t, []string{"libtop.a", "top.o"}, def.Outputs)
	assert.Equal(t, []string{"libbase.dylib", "libutil.a"}, def.LinkOutputs)
	assert.Empty(t, def.Labels)
}

func TestLibrary_InvalidAttributes(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		target string
		kind   attr.ErrorKind
	}{
		{
			name: "empty srcs",
			target: `
target "lib" {
  rule      = "cxx_library"
  name      = "lib"
  srcs      = []
  toolchain = target.tc
}
`,
			kind: attr.ConstraintViolation,
		},
		{
			name: "bad name",
			target: `
target "lib" {
  rule      = "cxx_library"
  name      = "no spaces"
  srcs      = ["a.cc"]
  toolchain = target.tc
}
`,
			kind: attr.ConstraintViolation,
		},
		{
			name: "missing toolchain",
			target: `
target "lib" {
  rule = "cxx_library"
  name = "lib"
  srcs = ["a.cc"]
}
`,
			kind: attr.MissingRequired,
		},
		{
			name: "escaping source",
			target: `
target "lib" {
  rule      = "cxx_library"
  name      = "lib"
  srcs      = ["../a.cc"]
  toolchain = target.tc
}
`,
			kind: attr.ConstraintViolation,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			res := tu.NewTestApp(t, map[string]string{
				"targets/tc.hcl":  "target \"tc\" {\n  rule = \"cxx_toolchain\"\n}\n",
				"targets/lib.hcl": tc.target,
			}, &cxx.Module{})
			require.NoError(t, res.Err)

			_, err := res.App.Resolve(context.Background(), "lib")
			var serr *attr.SchemaError
			require.ErrorAs(t, err, &serr)
			assert.Equal(t, tc.kind, serr.Kind)
			assert.Equal(t, "cxx_library", serr.Rule)
		})
	}
}
