package resolver

import (
	"context"
	"slices"

	"github.com/specialistvlad/ruleforge/internal/attr"
	"github.com/specialistvlad/ruleforge/internal/platform"
	"github.com/specialistvlad/ruleforge/internal/rule"
	"github.com/zclconf/go-cty/cty"
	"golang.org/x/sync/errgroup"
)

// inject resolves every dependency label held by attrs and checks each
// producer against the tags its attribute requires. Labels resolve in
// parallel; when several fail, the error reported is the first in attribute
// order so that results do not depend on scheduling.
func (r *Resolver) inject(ctx context.Context, chain []rule.Identity, schema *rule.Schema, attrs map[string]cty.Value, p platform.Descriptor) (map[string]*rule.Instance, error) {
	var refs []attr.DepRef
	for _, spec := range schema.Attrs {
		refs = append(refs, attr.DepRefs(spec.Type, attrs[spec.Name], spec.Name)...)
	}
	if len(refs) == 0 {
		return nil, nil
	}

	var labels []string
	for _, ref := range refs {
		if !slices.Contains(labels, ref.Label) {
			labels = append(labels, ref.Label)
		}
	}

	insts := make([]*rule.Instance, len(labels))
	errs := make([]error, len(labels))

	var g errgroup.Group
	if r.parallelism > 0 {
		g.SetLimit(r.parallelism)
	}
	for i, label := range labels {
		g.Go(func() error {
			insts[i], errs[i] = r.resolveLabel(ctx, chain, label, p)
			return nil
		})
	}
	_ = g.Wait()

	deps := make(map[string]*rule.Instance, len(labels))
	for _, ref := range refs {
		i := slices.Index(labels, ref.Label)
		if errs[i] != nil {
			return nil, &DependencyError{Rule: schema.Name, Attribute: ref.Path, Target: ref.Label, Err: errs[i]}
		}
		producer := insts[i]
		if !producer.Providers().HasAll(ref.Requires) {
			return nil, &MissingProviderError{
				Rule:      schema.Name,
				Attribute: ref.Path,
				Target:    ref.Label,
				Required:  slices.Clone(ref.Requires),
				Available: producer.Providers().Tags(),
			}
		}
		deps[ref.Label] = producer
	}
	return deps, nil
}

func (r *Resolver) resolveLabel(ctx context.Context, chain []rule.Identity, label string, p platform.Descriptor) (*rule.Instance, error) {
	tgt, err := r.targets.Target(label)
	if err != nil {
		return nil, err
	}
	return r.resolve(ctx, chain, Request{Rule: tgt.Rule, Attrs: tgt.Attrs, Platform: p})
}
