// Package cxx provides the C++ toolchain and library rules.
package cxx

import (
	"context"
	"embed"
	"io/fs"
	"path"
	"slices"
	"strings"

	"github.com/specialistvlad/ruleforge/internal/ctxlog"
	"github.com/specialistvlad/ruleforge/internal/provider"
	"github.com/specialistvlad/ruleforge/internal/rule"
)

//go:embed manifest.hcl
var manifests embed.FS

// Module implements the rule.Module interface for this package.
type Module struct{}

// Manifests returns the module's rule declarations.
func (m *Module) Manifests() fs.FS { return manifests }

// Register registers the implementations with the registry.
func (m *Module) Register(r *rule.Registry) {
	r.RegisterImpl("cxx_toolchain", &rule.Impl{
		Fn:       Toolchain,
		Provides: []provider.Tag{provider.TagCompiler, provider.TagLinker},
	})
	r.RegisterImpl("cxx_library", &rule.Impl{Fn: Library})
}

// Toolchain composes the compiler and linker of a cxx_toolchain instance.
func Toolchain(ctx context.Context, rc *rule.Context) ([]provider.Record, error) {
	p := rc.Platform()

	compiler := rc.String("compiler")
	if compiler == "" {
		compiler = toolOr(rc, "cxx", "c++")
	}
	linker := rc.String("linker")
	if linker == "" {
		linker = toolOr(rc, "ld", compiler)
	}

	ctxlog.FromContext(ctx).Debug("Selected C++ tools.", "compiler", compiler, "linker", linker, "platform", p.String())

	return []provider.Record{
		provider.DefaultInfo{Labels: rc.Strings("labels")},
		provider.CompilerInfo{
			Language: "cxx",
			Compiler: compiler,
			Version:  rc.String("version"),
			Flags:    rc.Strings("cflags"),
		},
		provider.LinkerInfo{
			Linker:          linker,
			LinkStyle:       rc.String("link_style"),
			SharedExtension: SharedExtension(p.OS),
			Flags:           rc.Strings("ldflags"),
		},
	}, nil
}

// Library composes the outputs of a cxx_library instance.
func Library(_ context.Context, rc *rule.Context) ([]provider.Record, error) {
	tc := rc.Dep("toolchain")
	linker, _ := rule.ProviderOf[provider.LinkerInfo](tc)

	style := rc.String("link_style")
	if style == "" {
		style = linker.LinkStyle
	}

	name := "lib" + rc.String("name")
	if style == "static" {
		name += ".a"
	} else {
		name += linker.SharedExtension
	}

	outputs := []string{name}
	for _, src := range rc.Strings("srcs") {
		outputs = append(outputs, objectFile(src))
	}

	var linked []string
	for _, dep := range rc.Deps("deps") {
		if def, ok := rule.ProviderOf[provider.DefaultInfo](dep); ok && len(def.Outputs) > 0 {
			linked = append(linked, def.Outputs[0])
		}
	}
	slices.Sort(linked)

	return []provider.Record{provider.DefaultInfo{Outputs: outputs, LinkOutputs: slices.Compact(linked)}}, nil
}

// SharedExtension is the file extension of shared libraries on os.
func SharedExtension(os string) string {
	switch os {
	case "darwin", "macos":
		return ".dylib"
	case "windows":
		return ".dll"
	}
	return ".so"
}

func objectFile(src string) string {
	return strings.TrimSuffix(src, path.Ext(src)) + ".o"
}

func toolOr(rc *rule.Context, tool, fallback string) string {
	if p, ok := rc.Platform().Tool(tool); ok {
		return p
	}
	return fallback
}
