package manifest

import (
	"context"
	"errors"
	"fmt"

	"github.com/specialistvlad/ruleforge/internal/ctxlog"
	"github.com/specialistvlad/ruleforge/internal/rule"
)

// Model is everything loaded from a set of HCL files.
type Model struct {
	// Rules keep file order.
	Rules   []*RuleDecl
	Targets rule.Targets
}

// RuleDecl is a rule schema together with where it was declared.
type RuleDecl struct {
	Schema   *rule.Schema
	FilePath string
}

// NewModel returns an empty model.
func NewModel() *Model {
	return &Model{Targets: rule.Targets{}}
}

// Merge appends other's declarations to m. Duplicate target labels fail;
// duplicate rules are left for the registry to reject.
func (m *Model) Merge(other *Model) error {
	m.Rules = append(m.Rules, other.Rules...)
	var errs []error
	for _, tgt := range other.Targets {
		if err := m.Targets.Add(tgt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Register registers every rule with reg. All failures are reported.
func (m *Model) Register(ctx context.Context, reg *rule.Registry) error {
	logger := ctxlog.FromContext(ctx)

	var errs []error
	for _, decl := range m.Rules {
		if _, err := reg.Register(ctx, decl.Schema); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", decl.FilePath, err))
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	logger.Debug("Registered rules from manifests.", "count", len(m.Rules))
	return nil
}
