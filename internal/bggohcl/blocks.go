package bggohcl

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
)

// FindUniqueBlock returns the block of the given type, or nil when there is
// none. Every further block of that type is reported against the first.
func FindUniqueBlock(blocks hcl.Blocks, blockType string) (*hcl.Block, hcl.Diagnostics) {
	var first *hcl.Block
	var diags hcl.Diagnostics

	for _, block := range blocks {
		if block.Type != blockType {
			continue
		}
		if first == nil {
			first = block
			continue
		}
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  fmt.Sprintf("Duplicate %q block", blockType),
			Detail:   fmt.Sprintf("Only one %q block is allowed here; the first one is at %s.", blockType, first.DefRange),
			Subject:  block.DefRange.Ptr(),
			Context:  first.DefRange.Ptr(),
		})
	}

	return first, diags
}
