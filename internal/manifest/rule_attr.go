package manifest

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/specialistvlad/ruleforge/internal/attr"
	"github.com/specialistvlad/ruleforge/internal/bggohcl"
)

// attrBodySchema is the HCL schema for the body of an `attr` block.
var attrBodySchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		// `type` is required, but we check for its existence manually
		// to provide a better error message.
		{Name: "type"},
		{Name: "default"},
		{Name: "required"},
		{Name: "doc"},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "validation"},
	},
}

var validationBodySchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "min"},
		{Name: "max"},
		{Name: "pattern"},
		{Name: "non_empty"},
	},
}

// parseAttrs decodes the 'attr' blocks of a rule in declaration order.
func parseAttrs(blocks hcl.Blocks) ([]*attr.Spec, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	var specs []*attr.Spec
	seen := make(map[string]hcl.Range)

	for _, block := range blocks.OfType("attr") {
		// The schema guarantees us one label.
		name := block.Labels[0]

		if prev, exists := seen[name]; exists {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Duplicate attribute definition",
				Detail:   fmt.Sprintf("An attribute named '%s' was already defined at %s.", name, prev),
				Subject:  &block.DefRange,
			})
			continue
		}
		seen[name] = block.DefRange

		spec, specDiags := parseAttr(name, block)
		diags = append(diags, specDiags...)
		if spec != nil {
			specs = append(specs, spec)
		}
	}
	return specs, diags
}

func parseAttr(name string, block *hcl.Block) (*attr.Spec, hcl.Diagnostics) {
	var diags hcl.Diagnostics

	bodyContent, contentDiags := block.Body.Content(attrBodySchema)
	diags = append(diags, contentDiags...)
	if contentDiags.HasErrors() {
		return nil, diags
	}

	// Manually check for the required 'type' attribute for a better error.
	typeAttr, exists := bodyContent.Attributes["type"]
	if !exists {
		missingItemRange := block.Body.MissingItemRange()
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Missing 'type' attribute",
			Detail:   "The 'type' attribute is required for all attr blocks.",
			Subject:  &missingItemRange,
		})
		return nil, diags
	}

	typ, typeDiags := bggohcl.HCLTypeToAttrType(typeAttr.Expr)
	diags = append(diags, typeDiags...)
	if typeDiags.HasErrors() {
		return nil, diags
	}

	spec := attr.Spec{Name: name, Type: typ}

	if docAttr, exists := bodyContent.Attributes["doc"]; exists {
		diags = append(diags, gohcl.DecodeExpression(docAttr.Expr, nil, &spec.Doc)...)
	}

	if defaultAttr, exists := bodyContent.Attributes["default"]; exists {
		// A nil eval context is used because defaults must be literal values.
		val, valDiags := defaultAttr.Expr.Value(nil)
		diags = append(diags, valDiags...)
		if !valDiags.HasErrors() {
			spec.Default = &val
		}
	}

	// Without an explicit 'required', an attribute with no default is
	// required unless its type is an option.
	if reqAttr, exists := bodyContent.Attributes["required"]; exists {
		diags = append(diags, gohcl.DecodeExpression(reqAttr.Expr, nil, &spec.Required)...)
	} else {
		spec.Required = spec.Default == nil && typ.Kind != attr.KindOption
	}

	validation, blockDiags := bggohcl.FindUniqueBlock(bodyContent.Blocks, "validation")
	diags = append(diags, blockDiags...)
	if validation != nil {
		constraints, vDiags := parseValidation(validation)
		diags = append(diags, vDiags...)
		spec.Constraints = constraints
	}

	if diags.HasErrors() {
		return nil, diags
	}

	checked, err := attr.NewSpec(spec)
	if err != nil {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid attribute definition",
			Detail:   err.Error(),
			Subject:  &block.DefRange,
		})
		return nil, diags
	}
	return checked, diags
}

func parseValidation(block *hcl.Block) ([]attr.Constraint, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	content, contentDiags := block.Body.Content(validationBodySchema)
	diags = append(diags, contentDiags...)
	if contentDiags.HasErrors() {
		return nil, diags
	}

	var constraints []attr.Constraint

	var r attr.Range
	for _, bound := range []struct {
		name string
		dst  **int64
	}{{"min", &r.Min}, {"max", &r.Max}} {
		a, exists := content.Attributes[bound.name]
		if !exists {
			continue
		}
		var n int64
		decodeDiags := gohcl.DecodeExpression(a.Expr, nil, &n)
		diags = append(diags, decodeDiags...)
		if !decodeDiags.HasErrors() {
			*bound.dst = &n
		}
	}
	if r.Min != nil || r.Max != nil {
		constraints = append(constraints, r)
	}

	if a, exists := content.Attributes["pattern"]; exists {
		var expr string
		decodeDiags := gohcl.DecodeExpression(a.Expr, nil, &expr)
		diags = append(diags, decodeDiags...)
		if !decodeDiags.HasErrors() {
			p, err := attr.MatchPattern(expr)
			if err != nil {
				diags = append(diags, &hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Invalid pattern",
					Detail:   err.Error(),
					Subject:  a.Expr.Range().Ptr(),
				})
			} else {
				constraints = append(constraints, p)
			}
		}
	}

	if a, exists := content.Attributes["non_empty"]; exists {
		var on bool
		decodeDiags := gohcl.DecodeExpression(a.Expr, nil, &on)
		diags = append(diags, decodeDiags...)
		if on {
			constraints = append(constraints, attr.NonEmpty{})
		}
	}

	return constraints, diags
}
