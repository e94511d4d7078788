package loam

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/aretw0/automator/internal/logging"
	"github.com/aretw0/automator/pkg/domain"
	"github.com/aretw0/loam"
)

// Registry adapts a Loam repository of definition documents to ports.ConditionRegistry
// and ports.ConditionCatalog. Documents are indexed on Reload; lookups never touch disk.
type Registry struct {
	Repo *loam.TypedRepository[DefinitionMetadata]

	logger *slog.Logger
	mu     sync.RWMutex
	index  map[string]domain.ConditionDefinition
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used to report skipped documents.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// New creates a Registry over repo and loads the index.
func New(ctx context.Context, repo *loam.TypedRepository[DefinitionMetadata], opts ...Option) (*Registry, error) {
	r := &Registry{
		Repo:   repo,
		logger: logging.NewNop(),
		index:  make(map[string]domain.ConditionDefinition),
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := r.Reload(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

// Open initializes a read-only Loam repository at dir and builds a Registry over it.
func Open(ctx context.Context, dir string, opts ...Option) (*Registry, error) {
	repo, err := loam.Init(dir,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
		loam.WithVersioning(false),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open definition repository %s: %w", dir, err)
	}
	return New(ctx, loam.NewTypedRepository[DefinitionMetadata](repo), opts...)
}

// Reload rebuilds the index from the repository. Documents without both codes are
// skipped; two documents defining the same pair is an error and keeps the old index.
func (r *Registry) Reload(ctx context.Context) error {
	docs, err := r.Repo.List(ctx)
	if err != nil {
		return fmt.Errorf("loam list failed: %w", err)
	}

	next := make(map[string]domain.ConditionDefinition, len(docs))
	source := make(map[string]string, len(docs))
	for _, doc := range docs {
		def := doc.Data.toDefinition(doc.Content)
		if def.IntegrationCode == "" || def.ConditionCode == "" {
			r.logger.Warn("Skipping definition without codes", "doc", doc.ID)
			continue
		}
		key := def.Key()
		if existing, ok := source[key]; ok {
			return fmt.Errorf("collision detected: condition '%s' is defined in both '%s' and '%s'", key, existing, doc.ID)
		}
		source[key] = doc.ID
		next[key] = def
	}

	r.mu.Lock()
	r.index = next
	r.mu.Unlock()

	r.logger.Debug("Condition definitions indexed", "count", len(next))
	return nil
}

// ConditionExists reports whether the pair is indexed.
func (r *Registry) ConditionExists(ctx context.Context, integrationCode, conditionCode string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.index[domain.DefinitionKey(integrationCode, conditionCode)]
	return ok, nil
}

// GetConditionDefinition returns the indexed definition.
func (r *Registry) GetConditionDefinition(ctx context.Context, integrationCode, conditionCode string) (domain.ConditionDefinition, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.index[domain.DefinitionKey(integrationCode, conditionCode)]
	if !ok {
		return domain.ConditionDefinition{}, false, nil
	}
	return def.Clone(), true, nil
}

// ListConditions returns every indexed definition sorted by key.
func (r *Registry) ListConditions(ctx context.Context) ([]domain.ConditionDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.ConditionDefinition, 0, len(r.index))
	for _, d := range r.index {
		out = append(out, d.Clone())
	}
	slices.SortFunc(out, func(a, b domain.ConditionDefinition) int {
		return strings.Compare(a.Key(), b.Key())
	})
	return out, nil
}

// Watch implements ports.Watchable. Every change re-indexes the repository before
// the signal is sent; failed reloads are logged and keep the previous index.
func (r *Registry) Watch(ctx context.Context) (<-chan struct{}, error) {
	events, err := r.Repo.Watch(ctx, "**/*.{md,json,yaml,yml}")
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan struct{}, 1)

	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				if err := r.Reload(ctx); err != nil {
					r.logger.Error("Definition reload failed", "doc", evt.ID, "err", err)
					continue
				}
				select {
				case ch <- struct{}{}:
				default:
				}
			}
		}
	}()

	return ch, nil
}
