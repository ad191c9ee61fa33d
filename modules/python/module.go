// Package python provides the Python toolchain rule.
package python

import (
	"context"
	"embed"
	"io/fs"

	"github.com/specialistvlad/ruleforge/internal/provider"
	"github.com/specialistvlad/ruleforge/internal/rule"
)

//go:embed manifest.hcl
var manifests embed.FS

// Module implements the rule.Module interface for this package.
type Module struct{}

func (m *Module) Manifests() fs.FS { return manifests }

func (m *Module) Register(r *rule.Registry) {
	r.RegisterImpl("python_toolchain", &rule.Impl{
		Fn:       Toolchain,
		Provides: []provider.Tag{provider.TagInterpreter},
	})
}

// Toolchain composes the interpreter of a python_toolchain instance.
func Toolchain(_ context.Context, rc *rule.Context) ([]provider.Record, error) {
	interpreter := rc.String("interpreter")
	if interpreter == "" {
		interpreter = "python3"
		if p, ok := rc.Platform().Tool("python"); ok {
			interpreter = p
		}
	}
	return []provider.Record{
		provider.InterpreterInfo{
			Language:    "python",
			Interpreter: interpreter,
			Version:     rc.String("version"),
			Flags:       rc.Strings("flags"),
		},
	}, nil
}
