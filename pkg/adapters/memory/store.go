package memory

import (
	"context"
	"sync"

	"github.com/aretw0/automator/pkg/domain"
)

// Store implements ports.GroupStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[domain.RecipeID][]domain.Group
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[domain.RecipeID][]domain.Group),
	}
}

// Save persists the collection in memory.
// Groups are immutable values, so copying the slice is enough to isolate the store.
func (s *Store) Save(ctx context.Context, recipeID domain.RecipeID, groups []domain.Group) error {
	copied := make([]domain.Group, len(groups))
	copy(copied, groups)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[recipeID] = copied
	return nil
}

// Load retrieves the collection from memory. Unknown recipes have no groups.
func (s *Store) Load(ctx context.Context, recipeID domain.RecipeID) ([]domain.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	groups := s.data[recipeID]
	ret := make([]domain.Group, len(groups))
	copy(ret, groups)
	return ret, nil
}

// Delete removes the collection.
func (s *Store) Delete(ctx context.Context, recipeID domain.RecipeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, recipeID)
	return nil
}

// List returns recipes with a stored collection.
func (s *Store) List(ctx context.Context) ([]domain.RecipeID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recipes := make([]domain.RecipeID, 0, len(s.data))
	for id := range s.data {
		recipes = append(recipes, id)
	}
	return recipes, nil
}
