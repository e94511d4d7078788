package ports

import (
	"context"

	"github.com/aretw0/automator/pkg/domain"
)

// ConditionRegistry resolves condition types by integration and condition code.
// The registry's own population logic lives behind the adapter.
type ConditionRegistry interface {
	// ConditionExists reports whether the pair is registered.
	ConditionExists(ctx context.Context, integrationCode, conditionCode string) (bool, error)

	// GetConditionDefinition returns the definition of the pair.
	// found is false when the registry has no definition; err is reserved for backend failures.
	GetConditionDefinition(ctx context.Context, integrationCode, conditionCode string) (def domain.ConditionDefinition, found bool, err error)
}

// ConditionCatalog lists registered condition types.
// It backs the discovery operation named in ConditionNotFound errors.
type ConditionCatalog interface {
	ListConditions(ctx context.Context) ([]domain.ConditionDefinition, error)
}

// Watchable defines an interface for sources that can notify about backend changes.
// This is typically used to hot-reload a condition catalog.
type Watchable interface {
	// Watch returns a channel that is signaled when the underlying source changes.
	Watch(ctx context.Context) (<-chan struct{}, error)
}
