package groups

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/automator/pkg/domain"
	"github.com/aretw0/automator/pkg/ports"
)

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(recipeID) after unlocking.
func (s *Service) acquire(recipeID domain.RecipeID) *lockEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.locks[recipeID]
	if !exists {
		entry = &lockEntry{}
		s.locks[recipeID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (s *Service) release(recipeID domain.RecipeID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.locks[recipeID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(s.locks, recipeID)
	}
}

// WithLock executes fn while holding the lock for the recipe.
func (s *Service) WithLock(ctx context.Context, recipeID domain.RecipeID, fn func(context.Context) error) error {
	entry := s.acquire(recipeID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		s.release(recipeID)
	}()

	if s.locker != nil {
		unlock, err := s.locker.Lock(ctx, lockKey(recipeID), s.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer s.unlock(ctx, recipeID, unlock)
	}

	return fn(ctx)
}

func (s *Service) unlock(ctx context.Context, recipeID domain.RecipeID, unlock ports.UnlockFunc) {
	if err := unlock(context.WithoutCancel(ctx)); err != nil {
		s.logger.Warn("Failed to release distributed lock (will expire via TTL)",
			"recipe_id", recipeID,
			"err", err,
		)
	}
}

func lockKey(recipeID domain.RecipeID) string {
	return "recipe:" + recipeID.String()
}
