// Package platform provides the execution_platform rule, which turns the
// platform a request is resolved for into a PlatformInfo provider.
package platform

import (
	"context"
	"embed"
	"io/fs"
	"slices"

	"github.com/specialistvlad/ruleforge/internal/provider"
	"github.com/specialistvlad/ruleforge/internal/rule"
)

//go:embed manifest.hcl
var manifests embed.FS

// Module implements the rule.Module interface for this package.
type Module struct{}

func (m *Module) Manifests() fs.FS { return manifests }

func (m *Module) Register(r *rule.Registry) {
	r.RegisterImpl("execution_platform", &rule.Impl{
		Fn:       ExecutionPlatform,
		Provides: []provider.Tag{provider.TagPlatform},
	})
}

// ExecutionPlatform composes the PlatformInfo of an execution_platform
// instance. Attributes left unset come from the platform being resolved for.
func ExecutionPlatform(_ context.Context, rc *rule.Context) ([]provider.Record, error) {
	p := rc.Platform()
	info := provider.PlatformInfo{
		Name: firstNonEmpty(rc.String("name"), p.String()),
		OS:   firstNonEmpty(rc.String("os"), p.OS),
		Arch: firstNonEmpty(rc.String("arch"), p.Arch),
	}

	constraints := append(slices.Clone(p.Constraints), rc.Strings("constraints")...)
	slices.Sort(constraints)
	info.Constraints = slices.Compact(constraints)

	return []provider.Record{info}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
