package automator

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/aretw0/automator/internal/logging"
	"github.com/aretw0/automator/pkg/adapters/loam"
	"github.com/aretw0/automator/pkg/adapters/memory"
	"github.com/aretw0/automator/pkg/domain"
	"github.com/aretw0/automator/pkg/factory"
	"github.com/aretw0/automator/pkg/groups"
	"github.com/aretw0/automator/pkg/idgen"
	"github.com/aretw0/automator/pkg/observability"
	"github.com/aretw0/automator/pkg/ports"
	"github.com/aretw0/automator/pkg/validation"
)

// Version is the release of this module, embedded from the VERSION file.
//
//go:embed VERSION
var Version string

// Engine is the high-level entry point for the automator library.
// It wires the condition registry, the action lister, the factory and the group
// store into a groups.Service.
type Engine struct {
	registry   ports.ConditionRegistry
	actions    ports.ActionLister
	store      ports.GroupStore
	locker     ports.DistributedLocker
	lockTTL    time.Duration
	ids        ports.IDGenerator
	hooks      domain.LifecycleHooks
	metrics    *observability.Metrics
	logger     *slog.Logger
	validation []validation.Option
	extra      []groups.Option

	factory *factory.Factory
	service *groups.Service
	Name    string
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithRegistry injects a ConditionRegistry, bypassing the default Loam directory.
func WithRegistry(r ports.ConditionRegistry) Option {
	return func(e *Engine) {
		e.registry = r
	}
}

// WithActions sets the lister used to check recipe membership of action ids.
// Defaults to an empty in-memory lister (see Actions).
func WithActions(a ports.ActionLister) Option {
	return func(e *Engine) {
		e.actions = a
	}
}

// WithStore sets the group store. Defaults to an in-memory store.
func WithStore(s ports.GroupStore) Option {
	return func(e *Engine) {
		e.store = s
	}
}

// WithLocker serializes recipe edits across processes.
func WithLocker(l ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = l
	}
}

// WithLockTTL bounds how long the distributed lock is held.
func WithLockTTL(ttl time.Duration) Option {
	return func(e *Engine) {
		e.lockTTL = ttl
	}
}

// WithIDGenerator sets the generator for group and condition ids. Defaults to UUIDs.
func WithIDGenerator(g ports.IDGenerator) Option {
	return func(e *Engine) {
		e.ids = g
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithMetrics records operation metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithValidationOptions customizes the validator (integration names, sanitizer policy).
func WithValidationOptions(opts ...validation.Option) Option {
	return func(e *Engine) {
		e.validation = append(e.validation, opts...)
	}
}

// WithServiceOptions passes extra options to the underlying groups.Service.
func WithServiceOptions(opts ...groups.Option) Option {
	return func(e *Engine) {
		e.extra = append(e.extra, opts...)
	}
}

// New initializes a new Engine.
// By default, condition definitions are read from a Loam directory at catalogDir.
// If WithRegistry is provided, catalogDir can be empty and Loam is skipped.
func New(ctx context.Context, catalogDir string, opts ...Option) (*Engine, error) {
	eng := &Engine{lockTTL: groups.DefaultLockTTL}

	// Apply Options first to check if a registry is provided
	for _, opt := range opts {
		opt(eng)
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}

	if eng.registry == nil {
		if catalogDir == "" {
			return nil, fmt.Errorf("catalogDir is required when no custom registry is provided")
		}
		absPath, err := filepath.Abs(catalogDir)
		if err != nil {
			return nil, fmt.Errorf("invalid path: %w", err)
		}
		eng.Name = filepath.Base(absPath)

		reg, err := loam.Open(ctx, absPath, loam.WithLogger(eng.logger))
		if err != nil {
			return nil, fmt.Errorf("failed to open condition definitions: %w", err)
		}
		eng.registry = reg
	} else if catalogDir != "" {
		eng.Name = filepath.Base(catalogDir)
	}

	if eng.Name != "" {
		eng.logger = eng.logger.With("catalog", eng.Name)
	}
	if eng.actions == nil {
		eng.actions = memory.NewActions()
	}
	if eng.store == nil {
		eng.store = memory.NewStore()
	}
	if eng.ids == nil {
		eng.ids = idgen.NewUUID()
	}

	eng.factory = factory.New(
		validation.New(eng.registry, eng.actions, eng.validation...),
		factory.WithIDGenerator(eng.ids),
	)

	serviceOpts := []groups.Option{
		groups.WithLogger(eng.logger),
		groups.WithHooks(eng.hooks),
		groups.WithMetrics(eng.metrics),
		groups.WithLockTTL(eng.lockTTL),
	}
	if eng.locker != nil {
		serviceOpts = append(serviceOpts, groups.WithLocker(eng.locker))
	}
	eng.service = groups.New(eng.store, eng.factory, append(serviceOpts, eng.extra...)...)

	return eng, nil
}

// Groups returns the service that reads and edits condition groups.
func (e *Engine) Groups() *groups.Service {
	return e.service
}

// Factory returns the factory turning raw configs into groups and conditions.
func (e *Engine) Factory() *factory.Factory {
	return e.factory
}

// Registry returns the condition registry in use.
func (e *Engine) Registry() ports.ConditionRegistry {
	return e.registry
}

// Actions returns the action lister in use.
func (e *Engine) Actions() ports.ActionLister {
	return e.actions
}

// ListConditions returns the registered condition types.
// Returns error if the registry cannot enumerate its definitions.
func (e *Engine) ListConditions(ctx context.Context) ([]domain.ConditionDefinition, error) {
	if c, ok := e.registry.(ports.ConditionCatalog); ok {
		return c.ListConditions(ctx)
	}
	return nil, fmt.Errorf("current registry does not support listing")
}

// Watch returns a channel that signals when the condition catalog changes.
// Returns error if the registry does not support watching.
func (e *Engine) Watch(ctx context.Context) (<-chan struct{}, error) {
	if w, ok := e.registry.(ports.Watchable); ok {
		return w.Watch(ctx)
	}
	return nil, fmt.Errorf("current registry does not support watching")
}
