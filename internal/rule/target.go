package rule

import (
	"fmt"
	"maps"

	"github.com/zclconf/go-cty/cty"
)

// Target is a named, configured use of a rule. Dependency attributes refer
// to targets by label.
type Target struct {
	Label string
	Rule  string
	Attrs map[string]cty.Value
	// Source locates the declaration for error messages. It may be empty.
	Source string
}

// UnknownTargetError is returned when a label names no target.
type UnknownTargetError struct {
	Label string
}

func (e *UnknownTargetError) Error() string {
	return fmt.Sprintf("unknown target %q", e.Label)
}

// Targets is an in-memory set of targets keyed by label.
type Targets map[string]Target

// Target returns the target with the given label.
func (t Targets) Target(label string) (Target, error) {
	tgt, ok := t[label]
	if !ok {
		return Target{}, &UnknownTargetError{Label: label}
	}
	tgt.Attrs = maps.Clone(tgt.Attrs)
	return tgt, nil
}

// Add stores tgt, refusing a second target with the same label.
func (t Targets) Add(tgt Target) error {
	if prev, exists := t[tgt.Label]; exists {
		return fmt.Errorf("target %q declared twice (first at %s)", tgt.Label, prev.Source)
	}
	t[tgt.Label] = tgt
	return nil
}
