package ports

import (
	"context"

	"github.com/aretw0/automator/pkg/domain"
)

// ActionLister reports the actions that belong to a recipe.
type ActionLister interface {
	// GetRecipeActions returns the recipe's actions.
	// It returns an error wrapping domain.ErrRecipeNotFound for unknown recipes.
	GetRecipeActions(ctx context.Context, recipeID domain.RecipeID) ([]domain.RecipeAction, error)
}

// IDGenerator produces a fresh unique identifier on each call.
type IDGenerator interface {
	NewID() string
}
