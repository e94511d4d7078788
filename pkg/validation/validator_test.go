package validation

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/automator/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func recipeActions(ids ...domain.ActionID) []domain.RecipeAction {
	out := make([]domain.RecipeAction, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.RecipeAction{ID: id})
	}
	return out
}

func TestValidateActionIDsFormat(t *testing.T) {
	v := New(new(MockRegistry), new(MockActions))

	assert.NoError(t, v.ValidateActionIDsFormat(nil))
	assert.NoError(t, v.ValidateActionIDsFormat([]domain.ActionID{1, 2}))
	assert.ErrorIs(t, v.ValidateActionIDsFormat([]domain.ActionID{1, 0}), domain.ErrInvalidActionID)
	assert.ErrorIs(t, v.ValidateActionIDsFormat([]domain.ActionID{-3}), domain.ErrInvalidActionID)
}

func TestAssertActionsInRecipe(t *testing.T) {
	ctx := context.Background()

	t.Run("empty input skips the lister", func(t *testing.T) {
		actions := new(MockActions)
		v := New(new(MockRegistry), actions)

		require.NoError(t, v.AssertActionsInRecipe(ctx, 5, nil))
		actions.AssertNotCalled(t, "GetRecipeActions", mock.Anything, mock.Anything)
	})

	t.Run("all present", func(t *testing.T) {
		actions := new(MockActions)
		actions.On("GetRecipeActions", ctx, domain.RecipeID(5)).Return(recipeActions(10, 11, 12), nil)
		v := New(new(MockRegistry), actions)

		require.NoError(t, v.AssertActionsInRecipe(ctx, 5, []domain.ActionID{10, 12}))
		actions.AssertExpectations(t)
	})

	t.Run("reports the missing set", func(t *testing.T) {
		actions := new(MockActions)
		actions.On("GetRecipeActions", ctx, domain.RecipeID(5)).Return(recipeActions(10), nil)
		v := New(new(MockRegistry), actions)

		err := v.AssertActionsInRecipe(ctx, 5, []domain.ActionID{10, 13, 14, 13})
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrActionsNotInRecipe)
		assert.Equal(t, []domain.ActionID{13, 14}, domain.MissingActions(err))
	})

	t.Run("lister failure propagates", func(t *testing.T) {
		boom := errors.New("backend down")
		actions := new(MockActions)
		actions.On("GetRecipeActions", ctx, domain.RecipeID(5)).Return(nil, boom)
		v := New(new(MockRegistry), actions)

		err := v.AssertActionsInRecipe(ctx, 5, []domain.ActionID{10})
		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, domain.ErrActionsNotInRecipe)
	})
}

func TestEnsureConditionExists(t *testing.T) {
	ctx := context.Background()
	registry := new(MockRegistry)
	registry.On("ConditionExists", ctx, "WP", "POST_STATUS").Return(true, nil)
	registry.On("ConditionExists", ctx, "WP", "NOPE").Return(false, nil)
	v := New(registry, new(MockActions))

	require.NoError(t, v.EnsureConditionExists(ctx, "WP", "POST_STATUS"))

	err := v.EnsureConditionExists(ctx, "WP", "NOPE")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConditionNotFound)
	assert.Contains(t, err.Error(), domain.DiscoveryOperation)
}

func TestCreateBackupInfo(t *testing.T) {
	ctx := context.Background()

	t.Run("definition missing", func(t *testing.T) {
		registry := new(MockRegistry)
		registry.On("GetConditionDefinition", ctx, "LD", "UNKNOWN").Return(nil, false, nil)
		v := New(registry, new(MockActions))

		_, err := v.CreateBackupInfo(ctx, "LD", "UNKNOWN", map[string]any{})
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrConditionDefinitionNotFound)
	})

	t.Run("name from definition", func(t *testing.T) {
		registry := new(MockRegistry)
		registry.On("GetConditionDefinition", ctx, "WP", "POST_STATUS").Return(domain.ConditionDefinition{
			IntegrationCode: "WP",
			ConditionCode:   "POST_STATUS",
			DynamicName:     "Post status is {{status}}",
			IntegrationName: "WordPress Core",
		}, true, nil)
		v := New(registry, new(MockActions))

		info, err := v.CreateBackupInfo(ctx, "WP", "POST_STATUS", map[string]any{"status": "publish"})
		require.NoError(t, err)
		assert.Equal(t, "Post status is {{status}}", info.DynamicName)
		assert.Equal(t, `<span class="condition-title">Post status is {{status}}</span>`, info.TitleHTML)
		assert.Equal(t, "WordPress Core", info.IntegrationName)
	})

	t.Run("synthesized name and fallback integration", func(t *testing.T) {
		registry := new(MockRegistry)
		registry.On("GetConditionDefinition", ctx, "LD", "COURSE").Return(domain.ConditionDefinition{
			IntegrationCode: "LD",
			ConditionCode:   "COURSE",
		}, true, nil)
		v := New(registry, new(MockActions))

		info, err := v.CreateBackupInfo(ctx, "LD", "COURSE", map[string]any{"COURSE": "12", "COURSE_readable": "Intro", "COURSE_label": "Course"})
		require.NoError(t, err)
		assert.Equal(t, "Course: Intro", info.DynamicName)
		assert.Equal(t, "LearnDash", info.IntegrationName)
	})
}

func TestCheckFields(t *testing.T) {
	ctx := context.Background()
	registry := new(MockRegistry)
	registry.On("GetConditionDefinition", ctx, "WP", "WORD_COUNT").Return(domain.ConditionDefinition{
		IntegrationCode: "WP",
		ConditionCode:   "WORD_COUNT",
		FieldTypes:      map[string]string{"min": "int", "label": "string?"},
	}, true, nil)
	registry.On("GetConditionDefinition", ctx, "WP", "POST_STATUS").Return(domain.ConditionDefinition{
		IntegrationCode: "WP",
		ConditionCode:   "POST_STATUS",
	}, true, nil)
	registry.On("GetConditionDefinition", ctx, "WP", "NOPE").Return(nil, false, nil)
	v := New(registry, new(MockActions))

	require.NoError(t, v.CheckFields(ctx, "WP", "WORD_COUNT", map[string]any{"min": 300}))
	require.NoError(t, v.CheckFields(ctx, "WP", "POST_STATUS", map[string]any{"anything": []int{1}}))
	require.NoError(t, v.CheckFields(ctx, "WP", "NOPE", nil), "missing definitions are reported elsewhere")

	err := v.CheckFields(ctx, "WP", "WORD_COUNT", map[string]any{"min": "many"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidFields)
	assert.Contains(t, err.Error(), "WP/WORD_COUNT")
	assert.Contains(t, err.Error(), `field "min"`)
}

func TestTitleHTML_Sanitizes(t *testing.T) {
	v := New(new(MockRegistry), new(MockActions), WithTitleClass("title"))
	assert.Equal(t, `<span class="title">Bold name</span>`, v.TitleHTML("<b>Bold</b> name"))
}

func TestIntegrationName(t *testing.T) {
	v := New(new(MockRegistry), new(MockActions), WithIntegrationNames(map[string]string{"ACME": "Acme Forms"}))

	assert.Equal(t, "From Registry", v.IntegrationName("WP", "From Registry"))
	assert.Equal(t, "WordPress", v.IntegrationName("WP", ""))
	assert.Equal(t, "Acme Forms", v.IntegrationName("ACME", ""))
	assert.Equal(t, "UNLISTED", v.IntegrationName("UNLISTED", ""))
}
