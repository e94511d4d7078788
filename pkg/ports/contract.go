package ports

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aretw0/automator/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunGroupStoreContract runs a suite of tests to verify that a GroupStore implementation
// adheres to the defined interface contract.
func RunGroupStoreContract(t *testing.T, store GroupStore) {
	ctx := context.Background()
	recipeID := domain.RecipeID(time.Now().UnixNano() % 1_000_000_000)

	t.Run("Save and Load", func(t *testing.T) {
		groups := contractGroups(t, "save")

		err := store.Save(ctx, recipeID, groups)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, recipeID)
		require.NoError(t, err, "Load should not return error")
		require.Len(t, loaded, len(groups))
		for i := range groups {
			assert.Equal(t, groups[i].ID(), loaded[i].ID(), "order must be preserved")
			assert.Equal(t, groups[i].ActionIDs(), loaded[i].ActionIDs())
			assert.Equal(t, groups[i].Mode(), loaded[i].Mode())
			assert.Equal(t, groups[i].Parent(), loaded[i].Parent())
			assert.Equal(t, groups[i].Len(), loaded[i].Len())
		}
		// JSON persistence may turn ints into floats, so only check field presence.
		assert.NotNil(t, loaded[0].Conditions()[0].Fields()["status"])
	})

	t.Run("Save Replaces", func(t *testing.T) {
		first := contractGroups(t, "first")
		require.NoError(t, store.Save(ctx, recipeID, first))
		require.NoError(t, store.Save(ctx, recipeID, first[:1]))

		loaded, err := store.Load(ctx, recipeID)
		require.NoError(t, err)
		require.Len(t, loaded, 1)
		assert.Equal(t, first[0].ID(), loaded[0].ID())
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		loaded, err := store.Load(ctx, recipeID+1_000_000_000)
		require.NoError(t, err)
		assert.Empty(t, loaded)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, recipeID, contractGroups(t, "delete")))

		err := store.Delete(ctx, recipeID)
		require.NoError(t, err, "Delete should not return error")

		loaded, err := store.Load(ctx, recipeID)
		require.NoError(t, err)
		assert.Empty(t, loaded, "Load after Delete should return an empty collection")
	})

	t.Run("List", func(t *testing.T) {
		id1 := recipeID + 1
		id2 := recipeID + 2
		_ = store.Save(ctx, id1, contractGroups(t, "list-1"))
		_ = store.Save(ctx, id2, contractGroups(t, "list-2"))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		recipes, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, recipes, id1)
		assert.Contains(t, recipes, id2)
	})
}

func contractGroups(t *testing.T, prefix string) []domain.Group {
	t.Helper()

	cond, err := domain.NewCondition(domain.ConditionID(prefix+"-c1"), "WP", "POST_STATUS",
		map[string]any{"status": "publish", "count": 42},
		domain.BackupInfo{DynamicName: "status: publish", IntegrationName: "WordPress"})
	require.NoError(t, err)

	root, err := domain.NewGroup(domain.GroupParams{
		ID:         domain.GroupID(prefix + "-root"),
		Priority:   1,
		ActionIDs:  []domain.ActionID{10, 11},
		Mode:       domain.ModeAll,
		Conditions: []domain.Condition{cond},
	})
	require.NoError(t, err)

	child, err := domain.NewGroup(domain.GroupParams{
		ID:        domain.GroupID(fmt.Sprintf("%s-child", prefix)),
		ActionIDs: []domain.ActionID{12},
		Mode:      domain.ModeAny,
		Parent:    domain.ParentOf(root.ID()),
	})
	require.NoError(t, err)

	return []domain.Group{root, child}
}
