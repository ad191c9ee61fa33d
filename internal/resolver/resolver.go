package resolver

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/specialistvlad/ruleforge/internal/attr"
	"github.com/specialistvlad/ruleforge/internal/compose"
	"github.com/specialistvlad/ruleforge/internal/ctxlog"
	"github.com/specialistvlad/ruleforge/internal/dag"
	"github.com/specialistvlad/ruleforge/internal/platform"
	"github.com/specialistvlad/ruleforge/internal/rule"
	"github.com/zclconf/go-cty/cty"
)

// TargetSource looks up targets by label.
type TargetSource interface {
	Target(label string) (rule.Target, error)
}

// Request asks for the instance of a rule configured with Attrs on Platform.
// Attrs are raw; they are validated against the rule's schema.
type Request struct {
	Rule     string
	Attrs    map[string]cty.Value
	Platform platform.Descriptor
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithMetrics records resolver activity on m.
func WithMetrics(m *Metrics) Option {
	return func(r *Resolver) { r.metrics = m }
}

// WithParallelism bounds how many dependencies of one instance resolve at
// once. Zero or less means no bound.
func WithParallelism(n int) Option {
	return func(r *Resolver) { r.parallelism = n }
}

// entry is the single-writer promise for one key. inst and err are written
// once, before done is closed.
type entry struct {
	done chan struct{}
	inst *rule.Instance
	err  error
}

// Resolver memoizes instances by configuration key. It is safe for
// concurrent use.
type Resolver struct {
	registry    *rule.Registry
	targets     TargetSource
	metrics     *Metrics
	parallelism int

	// mu guards entries and waits. It is never held while composing.
	mu      sync.Mutex
	entries map[rule.Identity]*entry
	// waits has an edge a -> b while a composition of a waits for b.
	waits *dag.Graph[rule.Identity]
}

// New creates a resolver over a registry. targets may be nil when no
// request uses dependency attributes.
func New(registry *rule.Registry, targets TargetSource, opts ...Option) *Resolver {
	if targets == nil {
		targets = rule.Targets{}
	}
	r := &Resolver{
		registry: registry,
		targets:  targets,
		entries:  make(map[rule.Identity]*entry),
		waits:    dag.New[rule.Identity](),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the instance for req, composing it on first use.
func (r *Resolver) Resolve(ctx context.Context, req Request) (*rule.Instance, error) {
	if err := req.Platform.Validate(); err != nil {
		return nil, fmt.Errorf("invalid execution platform: %w", err)
	}
	return r.resolve(ctx, nil, req)
}

// ResolveTarget resolves the target with the given label.
func (r *Resolver) ResolveTarget(ctx context.Context, label string, p platform.Descriptor) (*rule.Instance, error) {
	tgt, err := r.targets.Target(label)
	if err != nil {
		return nil, err
	}
	return r.Resolve(ctx, Request{Rule: tgt.Rule, Attrs: tgt.Attrs, Platform: p})
}

// KeyFor validates req and returns its configuration key without resolving
// anything.
func (r *Resolver) KeyFor(req Request) (rule.Identity, error) {
	schema, err := r.registry.Lookup(req.Rule)
	if err != nil {
		return rule.Identity{}, err
	}
	attrs, err := attr.Coerce(schema.Name, schema.Attrs, req.Attrs)
	if err != nil {
		return rule.Identity{}, err
	}
	return Key(schema.Name, attrs, req.Platform)
}

// State reports where key is in its lifecycle.
func (r *Resolver) State(key rule.Identity) State {
	r.mu.Lock()
	e, ok := r.entries[key]
	r.mu.Unlock()
	if !ok {
		return Unresolved
	}
	select {
	case <-e.done:
		if e.err != nil {
			return Failed
		}
		return Resolved
	default:
		return Resolving
	}
}

// resolve validates req and returns the instance for its key. chain holds
// the keys whose compositions led to this request, outermost first.
func (r *Resolver) resolve(ctx context.Context, chain []rule.Identity, req Request) (*rule.Instance, error) {
	schema, err := r.registry.Lookup(req.Rule)
	if err != nil {
		return nil, err
	}
	attrs, err := attr.Coerce(schema.Name, schema.Attrs, req.Attrs)
	if err != nil {
		return nil, err
	}
	key, err := Key(schema.Name, attrs, req.Platform)
	if err != nil {
		return nil, fmt.Errorf("rule %q: %w", schema.Name, err)
	}

	if i := slices.Index(chain, key); i >= 0 {
		path := append(slices.Clone(chain[i:]), key)
		return nil, &CycleError{Path: path}
	}

	return r.await(ctx, chain, key, func(ctx context.Context, e *entry) {
		r.run(ctx, append(slices.Clone(chain), key), key, e, schema, attrs, req.Platform)
	})
}

// await returns the published result for key, starting the composition with
// start if nobody has yet. Waiting ends early when ctx is done; the
// composition itself is never cancelled by a waiter.
func (r *Resolver) await(ctx context.Context, chain []rule.Identity, key rule.Identity, start func(context.Context, *entry)) (*rule.Instance, error) {
	logger := ctxlog.FromContext(ctx)

	r.mu.Lock()
	e, ok := r.entries[key]
	switch {
	case !ok:
		e = &entry{done: make(chan struct{})}
		r.entries[key] = e
		go start(context.WithoutCancel(ctx), e)
	case isDone(e):
		r.mu.Unlock()
		r.metrics.cacheHit()
		logger.Debug("Instance served from cache.", "rule", key.Rule, "key", key.String())
		return e.inst, e.err
	default:
		r.metrics.wait()
	}

	var waiter rule.Identity
	hasWaiter := len(chain) > 0
	if hasWaiter {
		waiter = chain[len(chain)-1]
		if loop := r.waits.Path(key, waiter); loop != nil {
			r.mu.Unlock()
			return nil, &CycleError{Path: append(loop, key)}
		}
		// waiter != key: key is not in chain.
		_ = r.waits.AddEdge(waiter, key)
	}
	r.mu.Unlock()

	if hasWaiter {
		defer func() {
			r.mu.Lock()
			r.waits.RemoveEdge(waiter, key)
			r.mu.Unlock()
		}()
	}

	select {
	case <-e.done:
		return e.inst, e.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func isDone(e *entry) bool {
	select {
	case <-e.done:
		return true
	default:
		return false
	}
}

// run composes key and publishes the result on e.
func (r *Resolver) run(ctx context.Context, chain []rule.Identity, key rule.Identity, e *entry, schema *rule.Schema, attrs map[string]cty.Value, p platform.Descriptor) {
	logger := ctxlog.FromContext(ctx).With("rule", key.Rule, "key", key.String())
	logger.Debug("Composing instance.", "platform", p.String())

	start := time.Now()
	inst, err := r.build(ctx, chain, key, schema, attrs, p)
	took := time.Since(start)
	r.metrics.composed(schema.Name, took, err)

	if err != nil {
		logger.Warn("Composition failed.", "error", err)
	} else {
		logger.Debug("Composed instance.", "providers", inst.Providers().Tags(), "duration", took)
	}

	e.inst, e.err = inst, err
	close(e.done)
}

func (r *Resolver) build(ctx context.Context, chain []rule.Identity, key rule.Identity, schema *rule.Schema, attrs map[string]cty.Value, p platform.Descriptor) (*rule.Instance, error) {
	deps, err := r.inject(ctx, chain, schema, attrs, p)
	if err != nil {
		return nil, err
	}
	rc := rule.NewContext(key, schema, attrs, deps, p)
	set, err := compose.Compose(ctx, schema, rc)
	if err != nil {
		return nil, err
	}
	return rule.NewInstance(key, schema, attrs, set, deps, p), nil
}
