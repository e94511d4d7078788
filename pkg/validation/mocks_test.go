package validation

import (
	"context"

	"github.com/aretw0/automator/pkg/domain"
	"github.com/stretchr/testify/mock"
)

// MockRegistry simulates a ConditionRegistry
type MockRegistry struct {
	mock.Mock
}

func (m *MockRegistry) ConditionExists(ctx context.Context, integrationCode, conditionCode string) (bool, error) {
	args := m.Called(ctx, integrationCode, conditionCode)
	return args.Bool(0), args.Error(1)
}

func (m *MockRegistry) GetConditionDefinition(ctx context.Context, integrationCode, conditionCode string) (domain.ConditionDefinition, bool, error) {
	args := m.Called(ctx, integrationCode, conditionCode)
	if args.Get(0) == nil {
		return domain.ConditionDefinition{}, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(domain.ConditionDefinition), args.Bool(1), args.Error(2)
}

// MockActions simulates an ActionLister
type MockActions struct {
	mock.Mock
}

func (m *MockActions) GetRecipeActions(ctx context.Context, recipeID domain.RecipeID) ([]domain.RecipeAction, error) {
	args := m.Called(ctx, recipeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RecipeAction), args.Error(1)
}
