package cli

import (
	"context"
	"testing"

	"github.com/aretw0/automator/pkg/adapters/memory"
	"github.com/aretw0/automator/pkg/domain"
	"github.com/aretw0/automator/pkg/groups"
	"github.com/aretw0/automator/pkg/locator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry(t *testing.T) *memory.Registry {
	t.Helper()
	reg, err := memory.NewRegistry(domain.ConditionDefinition{
		IntegrationCode: "WP",
		ConditionCode:   "POST_STATUS",
		Name:            "Post status",
	})
	require.NoError(t, err)
	return reg
}

func TestParseGroupsFile(t *testing.T) {
	f, err := ParseGroupsFile([]byte("groups: []\n"))
	require.NoError(t, err)
	assert.Equal(t, DefaultFileRecipe, f.RecipeID)

	_, err = ParseGroupsFile([]byte("recipe_id: -3\n"))
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = ParseGroupsFile([]byte("groups: [unclosed\n"))
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestValidateFile_ReportsFirstFailurePerGroup(t *testing.T) {
	f, err := ParseGroupsFile([]byte(`
recipe_id: 42
actions: [10, 11]
groups:
  - label: base
    action_ids: [10]
    mode: ALL
    conditions:
      - integration_code: WP
        condition_code: POST_STATUS
        fields: {status: publish}
  - label: bad-mode
    action_ids: [10]
    mode: XOR
  - action_ids: [99]
    mode: ANY
  - mode: ALL
    conditions:
      - integration_code: WP
        condition_code: NOPE
  - parent_label: missing
    mode: ALL
  - label: base
    mode: ALL
  - action_ids: [0]
    mode: ALL
`))
	require.NoError(t, err)

	reports := ValidateFile(context.Background(), f, testRegistry(t))
	require.Len(t, reports, 7)

	assert.True(t, reports[0].OK())
	assert.Equal(t, "#0 (base)", reports[0].Name())

	wants := []error{
		nil,
		domain.ErrInvalidMode,
		domain.ErrActionsNotInRecipe,
		domain.ErrConditionNotFound,
		locator.ErrUnresolvedPlaceholder,
		groups.ErrDuplicateLabel,
		domain.ErrInvalidActionID,
	}
	for i, want := range wants {
		if want == nil {
			continue
		}
		assert.ErrorIs(t, reports[i].Err, want, "group %d", i)
	}
	assert.Equal(t, "#2", reports[2].Name())
}

func TestValidateFile_AcceptsReferencedActionsWhenUndeclared(t *testing.T) {
	f, err := ParseGroupsFile([]byte(`
groups:
  - action_ids: [5, 6]
    mode: any
`))
	require.NoError(t, err)

	reports := ValidateFile(context.Background(), f, testRegistry(t))
	require.Len(t, reports, 1)
	assert.NoError(t, reports[0].Err)
}

func TestLoadFile_ResolvesParentLabels(t *testing.T) {
	f, err := ParseGroupsFile([]byte(`
recipe_id: 3
groups:
  - label: base
    action_ids: [10]
    mode: ALL
  - parent_label: base
    action_ids: [11]
    mode: any
    priority: 5
`))
	require.NoError(t, err)

	loaded, err := LoadFile(context.Background(), f, testRegistry(t))
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	assert.Equal(t, domain.GroupID("id-1"), loaded[0].ID())
	parent, ok := loaded[1].Parent().GroupID()
	require.True(t, ok)
	assert.Equal(t, loaded[0].ID(), parent)
	assert.Equal(t, domain.ModeAny, loaded[1].Mode())
	assert.Equal(t, 5, loaded[1].Priority())
}

func TestLoadFile_FailsAtomically(t *testing.T) {
	f, err := ParseGroupsFile([]byte(`
groups:
  - action_ids: [1]
    mode: ALL
  - action_ids: [1]
    mode: NONE
`))
	require.NoError(t, err)

	_, err = LoadFile(context.Background(), f, testRegistry(t))
	assert.ErrorIs(t, err, domain.ErrInvalidMode)
}
