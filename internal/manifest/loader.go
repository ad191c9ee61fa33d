package manifest

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/ruleforge/internal/ctxlog"
	"github.com/specialistvlad/ruleforge/internal/fsutil"
)

// Loader parses HCL manifests and target files.
type Loader struct {
	parser *hclparse.Parser
}

// NewLoader creates a new HCL loader.
func NewLoader() *Loader {
	return &Loader{parser: hclparse.NewParser()}
}

// fileRoot is a struct used to decode all possible top-level blocks from any file.
type fileRoot struct {
	Rules   []*hclRule   `hcl:"rule,block"`
	Targets []*hclTarget `hcl:"target,block"`
}

type source struct {
	path string
	file *hcl.File
}

// Load parses every .hcl file found under paths. Directories are walked
// recursively; paths that do not exist are skipped.
func (l *Loader) Load(ctx context.Context, paths ...string) (*Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := fsutil.FindAll(paths, ".hcl")
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	sources := make([]source, 0, len(files))
	for _, file := range files {
		hclFile, diags := l.parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}
		sources = append(sources, source{path: file, file: hclFile})
	}
	return l.build(ctx, sources)
}

// LoadFS parses every .hcl file in fsys, such as a module's embedded
// manifests. prefix is prepended to file names in diagnostics.
func (l *Loader) LoadFS(ctx context.Context, fsys fs.FS, prefix string) (*Model, error) {
	var sources []source
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, ".hcl") {
			return nil
		}
		src, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		name := path.Join(prefix, p)
		hclFile, diags := l.parser.ParseHCL(src, name)
		if diags.HasErrors() {
			return fmt.Errorf("failed to parse HCL file %s: %w", name, diags)
		}
		sources = append(sources, source{path: name, file: hclFile})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return l.build(ctx, sources)
}

func (l *Loader) build(ctx context.Context, sources []source) (*Model, error) {
	logger := ctxlog.FromContext(ctx)

	model := NewModel()
	var allDiags hcl.Diagnostics
	var pending []pendingTarget

	for _, src := range sources {
		var root fileRoot
		diags := gohcl.DecodeBody(src.file.Body, nil, &root)
		allDiags = append(allDiags, diags...)
		if diags.HasErrors() {
			continue
		}

		rules, ruleDiags := parseRules(ctx, root.Rules, src.path)
		allDiags = append(allDiags, ruleDiags...)
		model.Rules = append(model.Rules, rules...)

		for _, t := range root.Targets {
			pending = append(pending, pendingTarget{block: t, filePath: src.path})
		}
	}

	targets, targetDiags := parseTargets(pending)
	allDiags = append(allDiags, targetDiags...)
	model.Targets = targets

	if allDiags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %w", allDiags)
	}

	logger.Debug("HCL loading complete.", "rules", len(model.Rules), "targets", len(model.Targets))
	return model, nil
}
