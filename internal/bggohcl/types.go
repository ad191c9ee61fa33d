package bggohcl

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/ruleforge/internal/attr"
	"github.com/specialistvlad/ruleforge/internal/provider"
	"github.com/zclconf/go-cty/cty"
)

// HCLTypeToAttrType converts an HCL type expression into an attribute type.
// Keywords (`string`, `bool`, `int`, `source`) are plain identifiers; the
// parameterized kinds are written as calls: `list(T)`, `option(T)`,
// `enum("a", "b")` and `dep("compiler", ...)`.
func HCLTypeToAttrType(expr hcl.Expression) (attr.Type, hcl.Diagnostics) {
	if call, diags := hcl.ExprCall(expr); !diags.HasErrors() {
		return callToAttrType(call)
	}

	// We expect a simple identifier like `string`, not a complex expression.
	// AbsTraversalForExpr is the right tool to validate this structure.
	traversal, hclDiags := hcl.AbsTraversalForExpr(expr)
	if hclDiags.HasErrors() || len(traversal) != 1 {
		return attr.Type{}, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid type specification",
			Detail:   "The 'type' attribute must be a type keyword like 'string' or a type call like 'list(string)'.",
			Subject:  expr.Range().Ptr(),
		}}
	}

	switch name := traversal.RootName(); name {
	case "string":
		return attr.String(), nil
	case "bool":
		return attr.Bool(), nil
	case "int":
		return attr.Int(), nil
	case "source":
		return attr.Source(), nil
	case "list", "option", "enum", "dep":
		return attr.Type{}, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Incomplete type specification",
			Detail:   fmt.Sprintf("The type '%s' takes arguments, for example '%s(...)'.", name, name),
			Subject:  expr.Range().Ptr(),
		}}
	default:
		return attr.Type{}, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Unsupported type",
			Detail:   fmt.Sprintf("The keyword '%s' is not a valid type. Supported types are: string, bool, int, source, list(T), option(T), enum(...), dep(...).", name),
			Subject:  expr.Range().Ptr(),
		}}
	}
}

func callToAttrType(call *hcl.StaticCall) (attr.Type, hcl.Diagnostics) {
	switch call.Name {
	case "list", "option":
		if len(call.Arguments) != 1 {
			return attr.Type{}, hcl.Diagnostics{{
				Severity: hcl.DiagError,
				Summary:  "Invalid type specification",
				Detail:   fmt.Sprintf("The type '%s' takes exactly one element type.", call.Name),
				Subject:  call.ArgsRange.Ptr(),
			}}
		}
		elem, diags := HCLTypeToAttrType(call.Arguments[0])
		if diags.HasErrors() {
			return attr.Type{}, diags
		}
		if call.Name == "list" {
			return attr.List(elem), diags
		}
		return attr.Option(elem), diags

	case "enum":
		values, diags := stringArgs(call)
		if diags.HasErrors() {
			return attr.Type{}, diags
		}
		return attr.Enum(values...), diags

	case "dep":
		values, diags := stringArgs(call)
		if diags.HasErrors() {
			return attr.Type{}, diags
		}
		tags := make([]provider.Tag, 0, len(values))
		for i, v := range values {
			tag, err := provider.ParseTag(v)
			if err != nil {
				diags = append(diags, &hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Unknown provider",
					Detail:   err.Error(),
					Subject:  call.Arguments[i].Range().Ptr(),
				})
				continue
			}
			tags = append(tags, tag)
		}
		return attr.Dep(tags...), diags
	}

	return attr.Type{}, hcl.Diagnostics{{
		Severity: hcl.DiagError,
		Summary:  "Unsupported type",
		Detail:   fmt.Sprintf("'%s(...)' is not a valid type. Supported type calls are: list, option, enum, dep.", call.Name),
		Subject:  call.NameRange.Ptr(),
	}}
}

// stringArgs evaluates every argument of call as a literal string.
func stringArgs(call *hcl.StaticCall) ([]string, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	out := make([]string, 0, len(call.Arguments))
	for _, arg := range call.Arguments {
		// A nil eval context is used because type arguments must be literals.
		v, valDiags := arg.Value(nil)
		diags = append(diags, valDiags...)
		if valDiags.HasErrors() {
			continue
		}
		if v.IsNull() || !v.Type().Equals(cty.String) {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid type argument",
				Detail:   fmt.Sprintf("The arguments of '%s(...)' must be string literals.", call.Name),
				Subject:  arg.Range().Ptr(),
			})
			continue
		}
		out = append(out, v.AsString())
	}
	return out, diags
}
