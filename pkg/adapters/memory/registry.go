package memory

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/aretw0/automator/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Catalog is the YAML document a Registry can be loaded from.
type Catalog struct {
	Conditions []domain.ConditionDefinition `yaml:"conditions"`
}

// Registry implements ports.ConditionRegistry and ports.ConditionCatalog in memory.
// Safe for concurrent use.
type Registry struct {
	defs map[string]domain.ConditionDefinition
	mu   sync.RWMutex
}

// NewRegistry creates a registry holding defs.
func NewRegistry(defs ...domain.ConditionDefinition) (*Registry, error) {
	r := &Registry{}
	if err := r.Replace(defs); err != nil {
		return nil, err
	}
	return r, nil
}

// NewRegistryFromYAML creates a registry from a YAML catalog.
func NewRegistryFromYAML(data []byte) (*Registry, error) {
	defs, err := ParseCatalog(data)
	if err != nil {
		return nil, err
	}
	return NewRegistry(defs...)
}

// ParseCatalog decodes a YAML catalog.
func ParseCatalog(data []byte) ([]domain.ConditionDefinition, error) {
	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("failed to parse condition catalog: %w", err)
	}
	return cat.Conditions, nil
}

// ReadCatalog decodes a YAML catalog from r.
func ReadCatalog(r io.Reader) ([]domain.ConditionDefinition, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read condition catalog: %w", err)
	}
	return ParseCatalog(data)
}

// Replace swaps the whole catalog atomically. On error the previous catalog is kept.
func (r *Registry) Replace(defs []domain.ConditionDefinition) error {
	next := make(map[string]domain.ConditionDefinition, len(defs))
	for _, d := range defs {
		if d.IntegrationCode == "" || d.ConditionCode == "" {
			return fmt.Errorf("condition definition missing codes: %q", d.Key())
		}
		if _, dup := next[d.Key()]; dup {
			return fmt.Errorf("duplicate condition definition: %s", d.Key())
		}
		next[d.Key()] = d
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs = next
	return nil
}

// Register adds or overwrites one definition.
func (r *Registry) Register(def domain.ConditionDefinition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.defs == nil {
		r.defs = make(map[string]domain.ConditionDefinition)
	}
	r.defs[def.Key()] = def
}

// ConditionExists reports whether the pair is registered.
func (r *Registry) ConditionExists(ctx context.Context, integrationCode, conditionCode string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.defs[domain.DefinitionKey(integrationCode, conditionCode)]
	return ok, nil
}

// GetConditionDefinition returns a copy of the registered definition.
func (r *Registry) GetConditionDefinition(ctx context.Context, integrationCode, conditionCode string) (domain.ConditionDefinition, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[domain.DefinitionKey(integrationCode, conditionCode)]
	if !ok {
		return domain.ConditionDefinition{}, false, nil
	}
	return def.Clone(), true, nil
}

// ListConditions returns every definition sorted by integration then condition code.
func (r *Registry) ListConditions(ctx context.Context) ([]domain.ConditionDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.ConditionDefinition, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, d.Clone())
	}
	slices.SortFunc(out, func(a, b domain.ConditionDefinition) int {
		return strings.Compare(a.Key(), b.Key())
	})
	return out, nil
}
