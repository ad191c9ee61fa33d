package attr

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// FromGo converts a Go literal (string, bool, integer, slices of those, or
// []any) into the cty value a target file would have produced. A nil value
// converts to cty.NilVal, meaning "not supplied".
func FromGo(v any) (cty.Value, error) {
	switch tv := v.(type) {
	case nil:
		return cty.NilVal, nil
	case cty.Value:
		return tv, nil
	case []any:
		if len(tv) == 0 {
			return cty.EmptyTupleVal, nil
		}
		elems := make([]cty.Value, len(tv))
		for i, e := range tv {
			if e == nil {
				return cty.NilVal, fmt.Errorf("element %d: nil is not allowed inside a list", i)
			}
			ev, err := FromGo(e)
			if err != nil {
				return cty.NilVal, fmt.Errorf("element %d: %w", i, err)
			}
			elems[i] = ev
		}
		return cty.TupleVal(elems), nil
	}

	ty, err := gocty.ImpliedType(v)
	if err != nil {
		return cty.NilVal, fmt.Errorf("unsupported Go value %T: %w", v, err)
	}
	out, err := gocty.ToCtyValue(v, ty)
	if err != nil {
		return cty.NilVal, fmt.Errorf("failed to convert %T: %w", v, err)
	}
	return out, nil
}

// MapFromGo converts every value of raw with FromGo.
func MapFromGo(raw map[string]any) (map[string]cty.Value, error) {
	out := make(map[string]cty.Value, len(raw))
	for name, v := range raw {
		if v == nil {
			continue
		}
		cv, err := FromGo(v)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", name, err)
		}
		out[name] = cv
	}
	return out, nil
}
