package app

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"reflect"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/specialistvlad/ruleforge/internal/ctxlog"
	"github.com/specialistvlad/ruleforge/internal/manifest"
	"github.com/specialistvlad/ruleforge/internal/platform"
	"github.com/specialistvlad/ruleforge/internal/resolver"
	"github.com/specialistvlad/ruleforge/internal/rule"
	"golang.org/x/sync/errgroup"
)

// ManifestModule is a module that ships its own rule manifests.
type ManifestModule interface {
	rule.Module
	Manifests() fs.FS
}

// App encapsulates the application's dependencies and configuration.
type App struct {
	logger   *slog.Logger
	registry *rule.Registry
	targets  rule.Targets
	platform platform.Descriptor
	metrics  *prometheus.Registry
	resolver *resolver.Resolver
}

// NewApp builds an App: it registers the modules' implementations, loads
// their manifests plus the configured manifest and target paths, seals the
// registry and prepares a resolver for the execution platform. Logs are
// written to logW. With no modules the core modules are used.
func NewApp(logW io.Writer, cfg *Config, modules ...rule.Module) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	if len(modules) == 0 {
		modules = coreModules
	}

	reg := rule.NewRegistry()
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All Go modules registered.", "count", len(modules), "impls", reg.ImplNames())

	model, err := loadModel(ctx, cfg, modules)
	if err != nil {
		return nil, err
	}
	if err := model.Register(ctx, reg); err != nil {
		return nil, fmt.Errorf("failed to register rules: %w", err)
	}
	reg.Seal()
	logger.Debug("Registry sealed.", "rules", len(reg.Schemas()), "targets", len(model.Targets))

	p := platform.Host()
	if cfg.PlatformFile != "" {
		if p, err = platform.LoadFile(cfg.PlatformFile); err != nil {
			return nil, err
		}
	}
	logger.Debug("Execution platform selected.", "platform", p.String())

	metrics := prometheus.NewRegistry()
	res := resolver.New(reg, model.Targets,
		resolver.WithMetrics(resolver.NewMetrics(metrics)),
		resolver.WithParallelism(cfg.Parallelism),
	)

	return &App{
		logger:   logger,
		registry: reg,
		targets:  model.Targets,
		platform: p,
		metrics:  metrics,
		resolver: res,
	}, nil
}

func loadModel(ctx context.Context, cfg *Config, modules []rule.Module) (*manifest.Model, error) {
	loader := manifest.NewLoader()
	model := manifest.NewModel()

	for _, mod := range modules {
		mm, ok := mod.(ManifestModule)
		if !ok {
			continue
		}
		prefix := reflect.TypeOf(mod).Elem().PkgPath()
		m, err := loader.LoadFS(ctx, mm.Manifests(), prefix)
		if err != nil {
			return nil, fmt.Errorf("failed to load manifests of %s: %w", prefix, err)
		}
		if err := model.Merge(m); err != nil {
			return nil, err
		}
	}

	var paths []string
	for _, p := range []string{cfg.ModulesPath, cfg.TargetsPath} {
		if p != "" {
			paths = append(paths, p)
		}
	}
	if len(paths) > 0 {
		m, err := loader.Load(ctx, paths...)
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		if err := model.Merge(m); err != nil {
			return nil, err
		}
	}
	return model, nil
}

// Resolve resolves a target for the app's execution platform.
func (a *App) Resolve(ctx context.Context, label string) (*rule.Instance, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	return a.resolver.ResolveTarget(ctx, label, a.platform)
}

// ResolveAll resolves every label concurrently. Instances are returned in
// label order; the first failing label's error is returned.
func (a *App) ResolveAll(ctx context.Context, labels ...string) ([]*rule.Instance, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	out := make([]*rule.Instance, len(labels))
	errs := make([]error, len(labels))

	var g errgroup.Group
	for i, label := range labels {
		g.Go(func() error {
			out[i], errs[i] = a.resolver.ResolveTarget(ctx, label, a.platform)
			return nil
		})
	}
	_ = g.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Registry returns the application's sealed rule registry.
func (a *App) Registry() *rule.Registry { return a.registry }

// Targets returns every loaded target.
func (a *App) Targets() rule.Targets { return a.targets }

// Platform returns the execution platform instances are resolved for.
func (a *App) Platform() platform.Descriptor { return a.platform }

// Resolver returns the app's resolver.
func (a *App) Resolver() *resolver.Resolver { return a.resolver }

// Metrics returns the gatherer holding the resolver's metrics.
func (a *App) Metrics() prometheus.Gatherer { return a.metrics }
