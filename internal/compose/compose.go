package compose

import (
	"context"
	"fmt"
	"runtime/debug"
	"slices"

	"github.com/specialistvlad/ruleforge/internal/ctxlog"
	"github.com/specialistvlad/ruleforge/internal/provider"
	"github.com/specialistvlad/ruleforge/internal/rule"
)

// ContractViolationError reports a provider set that breaks the rule's
// contract. Tag and Field are empty when they do not apply.
type ContractViolationError struct {
	Rule   string
	Tag    provider.Tag
	Field  string
	Reason string
}

func (e *ContractViolationError) Error() string {
	switch {
	case e.Field != "":
		return fmt.Sprintf("rule %q: provider %q: field %s must be set", e.Rule, e.Tag, e.Field)
	case e.Tag != "":
		return fmt.Sprintf("rule %q: provider %q: %s", e.Rule, e.Tag, e.Reason)
	default:
		return fmt.Sprintf("rule %q: %s", e.Rule, e.Reason)
	}
}

// ImplementationError wraps an error returned, or a panic raised, by an
// implementation.
type ImplementationError struct {
	Rule  string
	Err   error
	Stack []byte
}

func (e *ImplementationError) Error() string {
	return fmt.Sprintf("rule %q: implementation failed: %v", e.Rule, e.Err)
}

func (e *ImplementationError) Unwrap() error { return e.Err }

// Compose invokes the implementation bound to schema and returns the checked
// provider set. A missing DefaultInfo is added empty.
func Compose(ctx context.Context, schema *rule.Schema, rc *rule.Context) (provider.Set, error) {
	logger := ctxlog.FromContext(ctx).With("rule", schema.Name)

	records, err := invoke(ctx, schema, rc)
	if err != nil {
		return provider.Set{}, err
	}

	if err := check(schema, records); err != nil {
		return provider.Set{}, err
	}

	if !slices.ContainsFunc(records, func(r provider.Record) bool { return r.Tag() == provider.TagDefault }) {
		records = append([]provider.Record{provider.DefaultInfo{}}, records...)
	}

	set, err := provider.NewSet(records...)
	if err != nil {
		return provider.Set{}, &ContractViolationError{Rule: schema.Name, Reason: err.Error()}
	}
	logger.Debug("Composed providers.", "providers", set.Tags())
	return set, nil
}

func invoke(ctx context.Context, schema *rule.Schema, rc *rule.Context) (records []provider.Record, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ImplementationError{Rule: schema.Name, Err: fmt.Errorf("panic: %v", r), Stack: debug.Stack()}
		}
	}()

	records, err = schema.Impl.Fn(ctx, rc)
	if err != nil {
		return nil, &ImplementationError{Rule: schema.Name, Err: err}
	}
	return records, nil
}

func check(schema *rule.Schema, records []provider.Record) error {
	seen := make(map[provider.Tag]struct{}, len(records))
	for i, r := range records {
		if r == nil {
			return &ContractViolationError{Rule: schema.Name, Reason: fmt.Sprintf("provider at position %d is nil", i)}
		}
		tag := r.Tag()
		if _, dup := seen[tag]; dup {
			return &ContractViolationError{Rule: schema.Name, Tag: tag, Reason: "returned more than once"}
		}
		seen[tag] = struct{}{}

		if tag != provider.TagDefault && !slices.Contains(schema.Impl.Provides, tag) {
			return &ContractViolationError{Rule: schema.Name, Tag: tag, Reason: "not declared by the implementation"}
		}
		if field := provider.MissingField(r); field != "" {
			return &ContractViolationError{Rule: schema.Name, Tag: tag, Field: field}
		}
	}

	if !schema.Toolchain {
		return nil
	}
	if len(records) == 0 {
		return &ContractViolationError{Rule: schema.Name, Reason: "toolchain rule returned no providers"}
	}
	for _, tag := range schema.Provides {
		if _, ok := seen[tag]; !ok {
			return &ContractViolationError{Rule: schema.Name, Tag: tag, Reason: "declared but not returned"}
		}
	}
	return nil
}
