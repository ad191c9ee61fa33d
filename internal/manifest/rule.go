package manifest

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/specialistvlad/ruleforge/internal/ctxlog"
	"github.com/specialistvlad/ruleforge/internal/provider"
	"github.com/specialistvlad/ruleforge/internal/rule"
)

// hclRule represents a single 'rule' block in the HCL file for decoding purposes.
type hclRule struct {
	Name string   `hcl:"name,label"`
	Body hcl.Body `hcl:",remain"`
}

// ruleBodySchema defines the schema for the *body* of a 'rule' block.
var ruleBodySchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "description"},
		{Name: "toolchain"},
		{Name: "impl"},
		{Name: "provides"},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "attr", LabelNames: []string{"name"}},
	},
}

// parseRules decodes the 'rule' blocks of one file. Rules with errors are
// skipped so that every problem in the file is reported at once.
func parseRules(ctx context.Context, blocks []*hclRule, filePath string) ([]*RuleDecl, hcl.Diagnostics) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Parsing rule definitions from file", "file_path", filePath)

	var allDiags hcl.Diagnostics
	decls := make([]*RuleDecl, 0, len(blocks))

	for _, parsed := range blocks {
		schema, diags := parseRule(parsed)
		allDiags = append(allDiags, diags...)
		if diags.HasErrors() {
			continue
		}
		decls = append(decls, &RuleDecl{Schema: schema, FilePath: filePath})
	}
	return decls, allDiags
}

func parseRule(parsed *hclRule) (*rule.Schema, hcl.Diagnostics) {
	var diags hcl.Diagnostics

	bodyContent, contentDiags := parsed.Body.Content(ruleBodySchema)
	diags = append(diags, contentDiags...)
	if contentDiags.HasErrors() {
		return nil, diags
	}

	schema := &rule.Schema{Name: parsed.Name, ImplName: parsed.Name}

	if a, exists := bodyContent.Attributes["description"]; exists {
		diags = append(diags, gohcl.DecodeExpression(a.Expr, nil, &schema.Doc)...)
	}
	if a, exists := bodyContent.Attributes["toolchain"]; exists {
		diags = append(diags, gohcl.DecodeExpression(a.Expr, nil, &schema.Toolchain)...)
	}
	if a, exists := bodyContent.Attributes["impl"]; exists {
		diags = append(diags, gohcl.DecodeExpression(a.Expr, nil, &schema.ImplName)...)
	}
	if a, exists := bodyContent.Attributes["provides"]; exists {
		var names []string
		decodeDiags := gohcl.DecodeExpression(a.Expr, nil, &names)
		diags = append(diags, decodeDiags...)
		for _, name := range names {
			tag, err := provider.ParseTag(name)
			if err != nil {
				diags = append(diags, &hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Unknown provider",
					Detail:   err.Error(),
					Subject:  a.Expr.Range().Ptr(),
				})
				continue
			}
			schema.Provides = append(schema.Provides, tag)
		}
	}

	attrs, attrDiags := parseAttrs(bodyContent.Blocks)
	diags = append(diags, attrDiags...)
	schema.Attrs = attrs

	if diags.HasErrors() {
		return nil, diags
	}
	if schema.Toolchain && len(schema.Provides) == 0 {
		r := parsed.Body.MissingItemRange()
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Missing 'provides' attribute",
			Detail:   fmt.Sprintf("The toolchain rule '%s' must list the providers it exposes.", parsed.Name),
			Subject:  &r,
		})
		return nil, diags
	}
	return schema, diags
}
