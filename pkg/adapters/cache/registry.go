// Package cache provides a read-through caching decorator for condition registries.
package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/automator/internal/logging"
	"github.com/aretw0/automator/pkg/domain"
	"github.com/aretw0/automator/pkg/ports"
	gocache "github.com/patrickmn/go-cache"
)

const (
	DefaultExpiration      = 5 * time.Minute
	DefaultCleanupInterval = 10 * time.Minute
)

// entry is what the cache stores per registry key. A miss is cached too, so
// repeated lookups for unknown codes do not reach the backend.
type entry struct {
	def   domain.ConditionDefinition
	found bool
}

// Registry wraps a ports.ConditionRegistry with an expiring in-memory cache.
// Backend errors are never cached.
type Registry struct {
	next   ports.ConditionRegistry
	cache  *gocache.Cache
	ttl    time.Duration
	logger *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithTTL sets the expiration of cached entries.
func WithTTL(ttl time.Duration) Option {
	return func(r *Registry) {
		r.ttl = ttl
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// New decorates next.
func New(next ports.ConditionRegistry, opts ...Option) *Registry {
	r := &Registry{
		next:   next,
		ttl:    DefaultExpiration,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.cache = gocache.New(r.ttl, DefaultCleanupInterval)
	return r
}

func (r *Registry) lookup(ctx context.Context, integrationCode, conditionCode string) (entry, error) {
	key := domain.DefinitionKey(integrationCode, conditionCode)
	if v, ok := r.cache.Get(key); ok {
		if e, ok := v.(entry); ok {
			r.logger.Debug("cache hit", "key", key)
			return e, nil
		}
		r.logger.Error("wrong type assertion when getting value", "key", key)
	}

	def, found, err := r.next.GetConditionDefinition(ctx, integrationCode, conditionCode)
	if err != nil {
		return entry{}, err
	}
	e := entry{def: def, found: found}
	r.cache.Set(key, e, gocache.DefaultExpiration)
	return e, nil
}

// ConditionExists answers from the cached definition lookup.
func (r *Registry) ConditionExists(ctx context.Context, integrationCode, conditionCode string) (bool, error) {
	e, err := r.lookup(ctx, integrationCode, conditionCode)
	if err != nil {
		return false, err
	}
	return e.found, nil
}

// GetConditionDefinition returns the cached definition, fetching it on a miss.
func (r *Registry) GetConditionDefinition(ctx context.Context, integrationCode, conditionCode string) (domain.ConditionDefinition, bool, error) {
	e, err := r.lookup(ctx, integrationCode, conditionCode)
	if err != nil {
		return domain.ConditionDefinition{}, false, err
	}
	return e.def, e.found, nil
}

// ListConditions passes through to the backend when it is a catalog. Other backends
// list nothing.
func (r *Registry) ListConditions(ctx context.Context) ([]domain.ConditionDefinition, error) {
	catalog, ok := r.next.(ports.ConditionCatalog)
	if !ok {
		return []domain.ConditionDefinition{}, nil
	}
	return catalog.ListConditions(ctx)
}

// Invalidate drops every cached entry.
func (r *Registry) Invalidate() {
	r.cache.Flush()
}

// Len reports the number of cached entries, expired ones included until cleanup.
func (r *Registry) Len() int {
	return r.cache.ItemCount()
}
