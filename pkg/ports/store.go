package ports

import (
	"context"

	"github.com/aretw0/automator/pkg/domain"
)

// GroupStore defines the interface for persisting the condition groups of a recipe.
// Collections are saved and loaded whole; the group service applies Locator
// transforms in between.
type GroupStore interface {
	// Save replaces the stored collection for a recipe.
	Save(ctx context.Context, recipeID domain.RecipeID, groups []domain.Group) error

	// Load retrieves the collection for a recipe, preserving order.
	// A recipe that was never saved has an empty collection (not an error).
	Load(ctx context.Context, recipeID domain.RecipeID) ([]domain.Group, error)

	// Delete removes every group of a recipe.
	Delete(ctx context.Context, recipeID domain.RecipeID) error

	// List returns the recipes that have a stored collection.
	List(ctx context.Context) ([]domain.RecipeID, error)
}
