package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCondition(t *testing.T, id string) Condition {
	t.Helper()
	c, err := NewCondition(ConditionID(id), "WP", "POST_STATUS", map[string]any{"status": "publish"}, BackupInfo{
		DynamicName:     "Post status is publish",
		TitleHTML:       `<span class="condition-title">Post status is publish</span>`,
		IntegrationName: "WordPress",
	})
	require.NoError(t, err)
	return c
}

func testGroup(t *testing.T, id string, actions ...ActionID) Group {
	t.Helper()
	g, err := NewGroup(GroupParams{ID: GroupID(id), ActionIDs: actions, Mode: ModeAll})
	require.NoError(t, err)
	return g
}

func TestNewGroup_Success(t *testing.T) {
	c := testCondition(t, "c1")
	g, err := NewGroup(GroupParams{
		ID:         "g1",
		Priority:   20,
		ActionIDs:  []ActionID{10, 11},
		Mode:       ModeAny,
		Parent:     ParentOf("g0"),
		Conditions: []Condition{c},
	})
	require.NoError(t, err)

	assert.Equal(t, GroupID("g1"), g.ID())
	assert.Equal(t, 20, g.Priority())
	assert.Equal(t, []ActionID{10, 11}, g.ActionIDs())
	assert.Equal(t, ModeAny, g.Mode())
	assert.Equal(t, ParentOf("g0"), g.Parent())
	assert.Equal(t, 1, g.Len())
	assert.False(t, g.IsVacuous())
}

func TestNewGroup_Validation(t *testing.T) {
	c := testCondition(t, "c1")
	tests := []struct {
		name        string
		params      GroupParams
		expectedErr error
	}{
		{"empty id", GroupParams{Mode: ModeAll}, ErrGroupEmptyID},
		{"zero mode", GroupParams{ID: "g1"}, ErrInvalidMode},
		{"zero action id", GroupParams{ID: "g1", Mode: ModeAll, ActionIDs: []ActionID{0}}, ErrInvalidActionID},
		{"negative action id", GroupParams{ID: "g1", Mode: ModeAll, ActionIDs: []ActionID{4, -1}}, ErrInvalidActionID},
		{"duplicate condition", GroupParams{ID: "g1", Mode: ModeAll, Conditions: []Condition{c, c}}, ErrDuplicateConditionID},
		{"zero condition", GroupParams{ID: "g1", Mode: ModeAll, Conditions: []Condition{{}}}, ErrZeroCondition},
		{"self parent", GroupParams{ID: "g1", Mode: ModeAll, Parent: ParentOf("g1")}, ErrGroupParentIsSelf},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := NewGroup(tt.params)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.expectedErr)
			assert.True(t, g.IsZero())
		})
	}
}

func TestNewGroup_CollapsesDuplicateActions(t *testing.T) {
	g := testGroup(t, "g1", 11, 10, 11, 12, 10)
	assert.Equal(t, []ActionID{11, 10, 12}, g.ActionIDs())
}

func TestGroup_EmptyIsVacuous(t *testing.T) {
	g := testGroup(t, "g1", 10)
	assert.True(t, g.IsVacuous())
	assert.Equal(t, 0, g.Len())
}

func TestGroup_AccessorsReturnCopies(t *testing.T) {
	g, err := NewGroup(GroupParams{
		ID:         "g1",
		ActionIDs:  []ActionID{10, 11},
		Mode:       ModeAll,
		Conditions: []Condition{testCondition(t, "c1")},
	})
	require.NoError(t, err)

	actions := g.ActionIDs()
	actions[0] = 99
	conditions := g.Conditions()
	conditions[0] = testCondition(t, "other")

	assert.Equal(t, []ActionID{10, 11}, g.ActionIDs())
	assert.Equal(t, ConditionID("c1"), g.Conditions()[0].ID())
}

func TestCondition_NestedFieldsAreNotShared(t *testing.T) {
	roles := []any{"editor"}
	meta := map[string]any{"tags": []any{"a"}}
	c, err := NewCondition("c1", "WP", "USER_ROLE", map[string]any{"roles": roles, "meta": meta}, BackupInfo{})
	require.NoError(t, err)

	roles[0] = "admin"
	meta["tags"].([]any)[0] = "b"

	got := c.Fields()
	got["roles"].([]any)[0] = "changed-via-fields"
	got["meta"].(map[string]any)["extra"] = true

	v, ok := c.Field("roles")
	require.True(t, ok)
	v.([]any)[0] = "changed-via-field"

	rec := c.Record()
	rec.Fields["roles"].([]any)[0] = "changed-via-record"

	assert.Equal(t, []any{"editor"}, c.Fields()["roles"])
	assert.Equal(t, map[string]any{"tags": []any{"a"}}, c.Fields()["meta"])
	assert.Equal(t, []any{"editor"}, c.Record().Fields["roles"])
}

func TestCondition_EmptyFields(t *testing.T) {
	c, err := NewCondition("c1", "WP", "POST_STATUS", nil, BackupInfo{})
	require.NoError(t, err)
	assert.NotNil(t, c.Fields())
	assert.Empty(t, c.Record().Fields)

	_, ok := c.Field("status")
	assert.False(t, ok)
}

func TestGroup_NewGroupDoesNotAliasInput(t *testing.T) {
	input := []ActionID{10, 11}
	g, err := NewGroup(GroupParams{ID: "g1", ActionIDs: input, Mode: ModeAll})
	require.NoError(t, err)

	input[0] = 77
	assert.Equal(t, []ActionID{10, 11}, g.ActionIDs())
}

func TestGroup_WithUpdatesLeaveOriginalUntouched(t *testing.T) {
	original := testGroup(t, "g1", 10, 11)

	withMode, err := original.WithMode(ModeAny)
	require.NoError(t, err)
	withPriority := original.WithPriority(5)
	withActions, err := original.WithActionIDs([]ActionID{12})
	require.NoError(t, err)
	withParent, err := original.WithParent(Placeholder("first"))
	require.NoError(t, err)
	withConditions, err := original.WithConditions([]Condition{testCondition(t, "c1")})
	require.NoError(t, err)

	assert.Equal(t, ModeAll, original.Mode())
	assert.Equal(t, 0, original.Priority())
	assert.Equal(t, []ActionID{10, 11}, original.ActionIDs())
	assert.False(t, original.Parent().IsSet())
	assert.True(t, original.IsVacuous())

	assert.Equal(t, ModeAny, withMode.Mode())
	assert.Equal(t, 5, withPriority.Priority())
	assert.Equal(t, []ActionID{12}, withActions.ActionIDs())
	assert.True(t, withParent.Parent().IsPlaceholder())
	assert.Equal(t, 1, withConditions.Len())

	// Only the touched field changes.
	assert.Equal(t, original.ActionIDs(), withMode.ActionIDs())
	assert.Equal(t, original.Mode(), withPriority.Mode())
	assert.Equal(t, original.ID(), withActions.ID())
}

func TestGroup_WithRejectsInvalidValues(t *testing.T) {
	g := testGroup(t, "g1", 10)

	_, err := g.WithMode(Mode{})
	assert.ErrorIs(t, err, ErrInvalidMode)

	_, err = g.WithActionIDs([]ActionID{3, 0})
	assert.ErrorIs(t, err, ErrInvalidActionID)

	_, err = g.WithParent(ParentOf("g1"))
	assert.ErrorIs(t, err, ErrGroupParentIsSelf)
}

func TestGroup_Equal(t *testing.T) {
	a := testGroup(t, "g1", 10)
	b := testGroup(t, "g1", 10)
	assert.True(t, a.Equal(b))

	c := a.WithPriority(1)
	assert.False(t, a.Equal(c))
}

func TestParentRef(t *testing.T) {
	assert.False(t, NoParent.IsSet())

	p := Placeholder("batch-1")
	assert.True(t, p.IsSet())
	assert.True(t, p.IsPlaceholder())
	assert.Equal(t, "batch-1", p.Label())
	_, ok := p.GroupID()
	assert.False(t, ok)

	final := ParentOf("g9")
	id, ok := final.GroupID()
	assert.True(t, ok)
	assert.Equal(t, GroupID("g9"), id)
	assert.Empty(t, final.Label())
}

func TestGroup_WithoutActions(t *testing.T) {
	g := testGroup(t, "g1", 10, 11, 12, 13)
	out := g.WithoutActions(13, 11, 99)

	assert.Equal(t, []ActionID{10, 12}, out.ActionIDs())
	assert.Equal(t, []ActionID{10, 11, 12, 13}, g.ActionIDs())
}

func TestGroup_WithoutCondition(t *testing.T) {
	g, err := testGroup(t, "g1").WithConditions([]Condition{testCondition(t, "c1"), testCondition(t, "c2")})
	require.NoError(t, err)

	out := g.WithoutCondition("c1")
	assert.Equal(t, 1, out.Len())
	_, found := out.ConditionByID("c1")
	assert.False(t, found)
	c, found := g.ConditionByID("c1")
	assert.True(t, found)
	assert.Equal(t, ConditionID("c1"), c.ID())
}
