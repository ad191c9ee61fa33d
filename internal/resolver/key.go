package resolver

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/specialistvlad/ruleforge/internal/platform"
	"github.com/specialistvlad/ruleforge/internal/rule"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// Key computes the configuration key of validated attributes on a platform.
// The key carries the full canonical text, so two keys are equal exactly when
// the configurations are.
func Key(ruleName string, attrs map[string]cty.Value, p platform.Descriptor) (rule.Identity, error) {
	var sb strings.Builder
	sb.WriteString(p.Canonical())
	for _, name := range slices.Sorted(maps.Keys(attrs)) {
		v := attrs[name]
		js, err := ctyjson.Marshal(v, v.Type())
		if err != nil {
			return rule.Identity{}, fmt.Errorf("attribute %s cannot be keyed: %w", name, err)
		}
		sb.WriteByte('\n')
		sb.WriteString(name)
		sb.WriteByte('=')
		sb.Write(js)
	}
	return rule.Identity{Rule: ruleName, Config: sb.String()}, nil
}
