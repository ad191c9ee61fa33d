package manifest

import (
	"fmt"
	"maps"
	"slices"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/specialistvlad/ruleforge/internal/bggohcl"
	"github.com/specialistvlad/ruleforge/internal/rule"
	"github.com/zclconf/go-cty/cty"
)

// hclTarget represents a single 'target' block. Its body is free-form: every
// attribute except 'rule' is passed to the rule as a raw value.
type hclTarget struct {
	Label string   `hcl:"label,label"`
	Body  hcl.Body `hcl:",remain"`
}

type pendingTarget struct {
	block    *hclTarget
	filePath string
}

// parseTargets evaluates target blocks from all files. It runs once every
// label is known so that targets may refer to ones declared later or in
// other files.
func parseTargets(pending []pendingTarget) (rule.Targets, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	targets := rule.Targets{}

	labels := make(map[string]cty.Value, len(pending))
	for _, p := range pending {
		labels[p.block.Label] = cty.StringVal(p.block.Label)
	}
	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{"target": cty.ObjectVal(labels)},
	}

	for _, p := range pending {
		tgt, tDiags := parseTarget(p, evalCtx)
		diags = append(diags, tDiags...)
		if tDiags.HasErrors() {
			continue
		}
		if err := targets.Add(tgt); err != nil {
			r := p.block.Body.MissingItemRange()
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Duplicate target",
				Detail:   err.Error(),
				Subject:  &r,
			})
		}
	}
	return targets, diags
}

func parseTarget(p pendingTarget, evalCtx *hcl.EvalContext) (rule.Target, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	block := p.block

	if block.Label == "" {
		r := block.Body.MissingItemRange()
		return rule.Target{}, append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid target label",
			Detail:   "Target labels must not be empty.",
			Subject:  &r,
		})
	}

	attrs, attrDiags := block.Body.JustAttributes()
	diags = append(diags, attrDiags...)
	if attrDiags.HasErrors() {
		return rule.Target{}, diags
	}

	ruleAttr, exists := attrs["rule"]
	if !exists {
		r := block.Body.MissingItemRange()
		return rule.Target{}, append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Missing 'rule' attribute",
			Detail:   fmt.Sprintf("The target '%s' must name the rule it configures.", block.Label),
			Subject:  &r,
		})
	}

	tgt := rule.Target{Label: block.Label, Source: p.filePath, Attrs: make(map[string]cty.Value, len(attrs)-1)}
	diags = append(diags, gohcl.DecodeExpression(ruleAttr.Expr, nil, &tgt.Rule)...)

	for _, name := range slices.Sorted(maps.Keys(attrs)) {
		if name == "rule" {
			continue
		}
		a := attrs[name]

		refDiags := checkReferences(a.Expr, evalCtx)
		diags = append(diags, refDiags...)
		if refDiags.HasErrors() {
			continue
		}

		v, valDiags := a.Expr.Value(evalCtx)
		diags = append(diags, valDiags...)
		if valDiags.HasErrors() {
			continue
		}
		tgt.Attrs[name] = v
	}

	return tgt, diags
}

// checkReferences allows only target.<label> references to declared targets.
func checkReferences(expr hcl.Expression, evalCtx *hcl.EvalContext) hcl.Diagnostics {
	var diags hcl.Diagnostics
	declared := evalCtx.Variables["target"]

	for _, traversal := range expr.Variables() {
		if traversal.RootName() != "target" {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Unsupported reference",
				Detail:   fmt.Sprintf("'%s' cannot be used here; targets may only refer to other targets as target.<label>.", bggohcl.TraversalKey(traversal)),
				Subject:  traversal.SourceRange().Ptr(),
			})
			continue
		}
		label, ok := bggohcl.TraversalStep(traversal)
		if !ok {
			continue
		}
		if !declared.Type().HasAttribute(label) {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Reference to undeclared target",
				Detail:   fmt.Sprintf("No target %q is declared in any loaded file.", label),
				Subject:  traversal.SourceRange().Ptr(),
			})
		}
	}
	return diags
}
