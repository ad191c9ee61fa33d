package resolver

import (
	"fmt"
	"strings"

	"github.com/specialistvlad/ruleforge/internal/provider"
	"github.com/specialistvlad/ruleforge/internal/rule"
)

// CycleError reports a configuration that depends on itself. Path starts and
// ends with the same key.
type CycleError struct {
	Path []rule.Identity
}

func (e *CycleError) Error() string {
	parts := make([]string, len(e.Path))
	for i, id := range e.Path {
		parts[i] = id.String()
	}
	return "dependency cycle: " + strings.Join(parts, " -> ")
}

// MissingProviderError reports a dependency whose instance lacks a provider
// the consuming attribute requires.
type MissingProviderError struct {
	Rule      string
	Attribute string
	Target    string
	Required  []provider.Tag
	Available []provider.Tag
}

func (e *MissingProviderError) Error() string {
	return fmt.Sprintf("rule %q attribute %s: target %q provides %v but %v are required",
		e.Rule, e.Attribute, e.Target, provider.SortedTags(e.Available), provider.SortedTags(e.Required))
}

// DependencyError places a failure to resolve a dependency in the context of
// the attribute that referenced it.
type DependencyError struct {
	Rule      string
	Attribute string
	Target    string
	Err       error
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("rule %q attribute %s: target %q: %v", e.Rule, e.Attribute, e.Target, e.Err)
}

func (e *DependencyError) Unwrap() error { return e.Err }
