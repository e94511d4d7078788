package locator

import (
	"testing"

	"github.com/aretw0/automator/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func group(t *testing.T, id string, actions ...domain.ActionID) domain.Group {
	t.Helper()
	g, err := domain.NewGroup(domain.GroupParams{ID: domain.GroupID(id), ActionIDs: actions, Mode: domain.ModeAll})
	require.NoError(t, err)
	return g
}

func condition(t *testing.T, id, status string) domain.Condition {
	t.Helper()
	c, err := domain.NewCondition(domain.ConditionID(id), "WP", "POST_STATUS", map[string]any{"status": status}, domain.BackupInfo{DynamicName: "status: " + status})
	require.NoError(t, err)
	return c
}

func ids(groups []domain.Group) []domain.GroupID {
	out := make([]domain.GroupID, 0, len(groups))
	for _, g := range groups {
		out = append(out, g.ID())
	}
	return out
}

func TestFindAndRequireGroup(t *testing.T) {
	collection := []domain.Group{group(t, "a", 1), group(t, "b", 2)}

	g, ok := FindGroup(collection, "b")
	assert.True(t, ok)
	assert.Equal(t, domain.GroupID("b"), g.ID())

	_, ok = FindGroup(collection, "missing-id")
	assert.False(t, ok, "find reports absence without error")

	_, err := RequireGroup(collection, "missing-id")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrGroupNotFound)

	g, err = RequireGroup(collection, "a")
	require.NoError(t, err)
	assert.Equal(t, domain.GroupID("a"), g.ID())
}

func TestReplaceGroup(t *testing.T) {
	a, b := group(t, "a", 1), group(t, "b", 2)
	collection := []domain.Group{a, b}

	updated := a.WithPriority(9)
	out := ReplaceGroup(collection, updated)
	assert.Equal(t, []domain.GroupID{"b", "a"}, ids(out))
	assert.Equal(t, 9, out[1].Priority())
	assert.Equal(t, 0, collection[0].Priority(), "input collection untouched")

	out = ReplaceGroup(collection, group(t, "c"))
	assert.Equal(t, []domain.GroupID{"a", "b", "c"}, ids(out))
	assert.Len(t, collection, 2)
}

func TestRemoveGroup(t *testing.T) {
	collection := []domain.Group{group(t, "a"), group(t, "b")}
	assert.Equal(t, []domain.GroupID{"b"}, ids(RemoveGroup(collection, "a")))
	assert.Equal(t, []domain.GroupID{"a", "b"}, ids(RemoveGroup(collection, "zzz")))
	assert.Len(t, collection, 2)
}

func TestRemoveActionFromGroups(t *testing.T) {
	untouched := group(t, "other", 12)
	collection := []domain.Group{group(t, "g", 10, 11), untouched}

	out := RemoveActionFromGroups(collection, 10)
	assert.Equal(t, []domain.ActionID{11}, out[0].ActionIDs())
	assert.True(t, untouched.Equal(out[1]))
	assert.Equal(t, []domain.ActionID{10, 11}, collection[0].ActionIDs())
}

func TestGroupsForAction(t *testing.T) {
	collection := []domain.Group{group(t, "a", 1, 2), group(t, "b", 2), group(t, "c", 3)}
	assert.Equal(t, []domain.GroupID{"a", "b"}, ids(GroupsForAction(collection, 2)))
	assert.Empty(t, GroupsForAction(collection, 9))
}

func TestConditionOperations(t *testing.T) {
	g := group(t, "g", 1)
	c1, c2, c3 := condition(t, "c1", "a"), condition(t, "c2", "b"), condition(t, "c3", "c")

	g1, err := AddConditionToGroup(g, c1)
	require.NoError(t, err)
	g2, err := AddConditionToGroup(g1, c2)
	require.NoError(t, err)
	g3, err := AddConditionToGroup(g2, c3)
	require.NoError(t, err)

	assert.Equal(t, 0, g.Len())
	assert.Equal(t, 3, g3.Len())
	assert.True(t, ContainsCondition(g3, "c2"))
	assert.False(t, ContainsCondition(g3, "nope"))

	_, err = AddConditionToGroup(g3, c1)
	assert.ErrorIs(t, err, domain.ErrDuplicateConditionID)

	replacement := condition(t, "c2", "z")
	replaced, err := ReplaceConditionInGroup(g3, "c2", replacement)
	require.NoError(t, err)
	got := replaced.Conditions()
	assert.Equal(t, "z", got[1].Fields()["status"], "position preserved")
	assert.True(t, c1.Equal(got[0]))
	assert.True(t, c3.Equal(got[2]))
	assert.Equal(t, "b", g3.Conditions()[1].Fields()["status"])

	same, err := ReplaceConditionInGroup(g3, "missing", replacement)
	require.NoError(t, err)
	assert.True(t, same.Equal(g3))

	removed := RemoveConditionFromGroup(g3, "c2")
	assert.False(t, ContainsCondition(removed, "c2"))
	assert.Equal(t, 2, removed.Len())
	assert.True(t, ContainsCondition(g3, "c2"))
}

func TestSingleFieldUpdates(t *testing.T) {
	g := group(t, "g", 1, 2, 3)

	withMode, err := WithUpdatedMode(g, domain.ModeAny)
	require.NoError(t, err)
	assert.Equal(t, domain.ModeAny, withMode.Mode())
	assert.Equal(t, g.ActionIDs(), withMode.ActionIDs())

	withPriority := WithUpdatedPriority(g, 4)
	assert.Equal(t, 4, withPriority.Priority())
	assert.Equal(t, g.Mode(), withPriority.Mode())

	withActions, err := WithUpdatedActions(g, []domain.ActionID{7})
	require.NoError(t, err)
	assert.Equal(t, []domain.ActionID{7}, withActions.ActionIDs())
	assert.Equal(t, g.Priority(), withActions.Priority())

	assert.Equal(t, []domain.ActionID{1, 3}, RemoveActions(g, []domain.ActionID{2, 8}).ActionIDs())
	assert.Equal(t, []domain.ActionID{1, 2, 3}, g.ActionIDs())
}

func TestResolvePlaceholders(t *testing.T) {
	root := group(t, "root-id")
	child, err := group(t, "child-id").WithParent(domain.Placeholder("root"))
	require.NoError(t, err)
	fixed, err := group(t, "fixed").WithParent(domain.ParentOf("elsewhere"))
	require.NoError(t, err)

	out, err := ResolvePlaceholders([]domain.Group{root, child, fixed}, map[string]domain.GroupID{"root": "root-id"})
	require.NoError(t, err)
	assert.Equal(t, domain.ParentOf("root-id"), out[1].Parent())
	assert.Equal(t, domain.ParentOf("elsewhere"), out[2].Parent())
	assert.True(t, child.Parent().IsPlaceholder(), "input untouched")

	_, err = ResolvePlaceholders([]domain.Group{child}, nil)
	assert.ErrorIs(t, err, ErrUnresolvedPlaceholder)
}

func TestSortByPriority(t *testing.T) {
	a := group(t, "a").WithPriority(2)
	b := group(t, "b").WithPriority(1)
	c := group(t, "c").WithPriority(2)
	collection := []domain.Group{a, b, c}

	assert.Equal(t, []domain.GroupID{"b", "a", "c"}, ids(SortByPriority(collection)))
	assert.Equal(t, []domain.GroupID{"a", "b", "c"}, ids(collection))
}
