package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/aretw0/automator/pkg/domain"
)

// Actions implements ports.ActionLister in memory.
// Safe for concurrent use.
type Actions struct {
	recipes map[domain.RecipeID][]domain.RecipeAction
	mu      sync.RWMutex
}

// NewActions creates an empty action lister.
func NewActions() *Actions {
	return &Actions{
		recipes: make(map[domain.RecipeID][]domain.RecipeAction),
	}
}

// SetRecipe replaces the action list of a recipe, creating the recipe if needed.
func (a *Actions) SetRecipe(recipeID domain.RecipeID, actions ...domain.RecipeAction) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.recipes[recipeID] = slices.Clone(actions)
}

// AddAction appends an action to a recipe, creating the recipe if needed.
func (a *Actions) AddAction(recipeID domain.RecipeID, action domain.RecipeAction) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.recipes[recipeID] = append(a.recipes[recipeID], action)
}

// RemoveAction drops an action from a recipe. Unknown ids are ignored.
func (a *Actions) RemoveAction(recipeID domain.RecipeID, actionID domain.ActionID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.recipes[recipeID] = slices.DeleteFunc(a.recipes[recipeID], func(x domain.RecipeAction) bool {
		return x.ID == actionID
	})
}

// GetRecipeActions returns a copy of the recipe's actions.
func (a *Actions) GetRecipeActions(ctx context.Context, recipeID domain.RecipeID) ([]domain.RecipeAction, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	actions, ok := a.recipes[recipeID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", domain.ErrRecipeNotFound, recipeID)
	}
	return slices.Clone(actions), nil
}
