package testutil

import (
	"context"
	"io/fs"
	"sync/atomic"
	"testing/fstest"

	"github.com/specialistvlad/ruleforge/internal/provider"
	"github.com/specialistvlad/ruleforge/internal/rule"
)

// SimpleModule registers a fixed set of implementations and, optionally,
// an in-memory manifest.
type SimpleModule struct {
	Impls    map[string]*rule.Impl
	Manifest string
}

// Register adds every implementation to the registry.
func (m *SimpleModule) Register(r *rule.Registry) {
	for name, impl := range m.Impls {
		r.RegisterImpl(name, impl)
	}
}

// Manifests serves Manifest as a single manifest.hcl file.
func (m *SimpleModule) Manifests() fs.FS {
	if m.Manifest == "" {
		return fstest.MapFS{}
	}
	return fstest.MapFS{"manifest.hcl": {Data: []byte(m.Manifest)}}
}

// Counter wraps an implementation and counts its invocations.
type Counter struct {
	calls atomic.Int64
	fn    rule.Implementation
}

// NewCounter counts calls to fn. A nil fn returns no providers.
func NewCounter(fn rule.Implementation) *Counter {
	if fn == nil {
		fn = func(context.Context, *rule.Context) ([]provider.Record, error) { return nil, nil }
	}
	return &Counter{fn: fn}
}

// Fn is the counting implementation.
func (c *Counter) Fn(ctx context.Context, rc *rule.Context) ([]provider.Record, error) {
	c.calls.Add(1)
	return c.fn(ctx, rc)
}

// Calls reports how many times Fn ran.
func (c *Counter) Calls() int64 { return c.calls.Load() }
