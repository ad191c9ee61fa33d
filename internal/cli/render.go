package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/specialistvlad/ruleforge/internal/attr"
	"github.com/specialistvlad/ruleforge/internal/provider"
	"github.com/specialistvlad/ruleforge/internal/rule"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
	"gopkg.in/yaml.v3"
)

type instanceView struct {
	Label     string            `yaml:"label"`
	Identity  string            `yaml:"identity"`
	Rule      string            `yaml:"rule"`
	Platform  string            `yaml:"platform"`
	Attrs     map[string]any    `yaml:"attrs,omitempty"`
	Deps      map[string]string `yaml:"deps,omitempty"`
	Providers map[string]any    `yaml:"providers"`
}

type attrView struct {
	Name        string   `yaml:"name"`
	Type        string   `yaml:"type"`
	Required    bool     `yaml:"required"`
	Default     any      `yaml:"default,omitempty"`
	Constraints []string `yaml:"constraints,omitempty"`
	Doc         string   `yaml:"doc,omitempty"`
}

type ruleView struct {
	Name      string     `yaml:"name"`
	Doc       string     `yaml:"description,omitempty"`
	Toolchain bool       `yaml:"toolchain,omitempty"`
	Impl      string     `yaml:"impl"`
	Provides  []string   `yaml:"provides,omitempty"`
	Attrs     []attrView `yaml:"attrs,omitempty"`
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return enc.Close()
}

// ctyToAny converts v to plain Go values through its JSON form.
func ctyToAny(v cty.Value) (any, error) {
	if v.IsNull() {
		return nil, nil
	}
	b, err := ctyjson.Marshal(v, v.Type())
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func viewProviders(set provider.Set) map[string]any {
	out := make(map[string]any, set.Len())
	for _, r := range set.Records() {
		out[string(r.Tag())] = r
	}
	return out
}

func viewInstance(label string, inst *rule.Instance) (instanceView, error) {
	view := instanceView{
		Label:     label,
		Identity:  inst.Identity().String(),
		Rule:      inst.Rule(),
		Platform:  inst.Platform().String(),
		Providers: viewProviders(inst.Providers()),
	}

	attrs := inst.Attrs()
	for _, name := range slices.Sorted(maps.Keys(attrs)) {
		v, err := ctyToAny(attrs[name])
		if err != nil {
			return instanceView{}, fmt.Errorf("attribute %q: %w", name, err)
		}
		if v == nil {
			continue
		}
		if view.Attrs == nil {
			view.Attrs = make(map[string]any)
		}
		view.Attrs[name] = v
	}

	for _, spec := range inst.Schema().Attrs {
		for _, ref := range attr.DepRefs(spec.Type, attrs[spec.Name], spec.Name) {
			dep, ok := inst.Dep(ref.Label)
			if !ok {
				continue
			}
			if view.Deps == nil {
				view.Deps = make(map[string]string)
			}
			view.Deps[ref.Label] = dep.Identity().String()
		}
	}
	return view, nil
}

func viewRule(s *rule.Schema) (ruleView, error) {
	view := ruleView{Name: s.Name, Doc: s.Doc, Toolchain: s.Toolchain, Impl: s.ImplName}
	for _, tag := range s.Provides {
		view.Provides = append(view.Provides, string(tag))
	}
	for _, spec := range s.Attrs {
		av := attrView{Name: spec.Name, Type: spec.Type.String(), Required: spec.Required, Doc: spec.Doc}
		if spec.Default != nil {
			def, err := ctyToAny(*spec.Default)
			if err != nil {
				return ruleView{}, fmt.Errorf("attribute %q default: %w", spec.Name, err)
			}
			av.Default = def
		}
		for _, c := range spec.Constraints {
			av.Constraints = append(av.Constraints, c.String())
		}
		view.Attrs = append(view.Attrs, av)
	}
	return view, nil
}

func writeMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
