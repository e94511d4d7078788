package groups_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/automator/pkg/adapters/memory"
	"github.com/aretw0/automator/pkg/domain"
	"github.com/aretw0/automator/pkg/factory"
	"github.com/aretw0/automator/pkg/groups"
	"github.com/aretw0/automator/pkg/idgen"
	"github.com/aretw0/automator/pkg/locator"
	"github.com/aretw0/automator/pkg/ports"
	"github.com/aretw0/automator/pkg/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const recipe domain.RecipeID = 5

type fixture struct {
	svc     *groups.Service
	store   *memory.Store
	actions *memory.Actions
	events  *eventLog
}

type eventLog struct {
	mu     sync.Mutex
	events []domain.GroupEvent
}

func (l *eventLog) record(_ context.Context, ev *domain.GroupEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, *ev)
}

func (l *eventLog) types() []domain.EventType {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.EventType, 0, len(l.events))
	for _, ev := range l.events {
		out = append(out, ev.Type)
	}
	return out
}

func newFixture(t *testing.T, opts ...groups.Option) fixture {
	t.Helper()
	registry, err := memory.NewRegistry(
		domain.ConditionDefinition{IntegrationCode: "WP", ConditionCode: "POST_STATUS"},
		domain.ConditionDefinition{IntegrationCode: "WP", ConditionCode: "USER_ROLE", Name: "User role"},
	)
	require.NoError(t, err)

	actions := memory.NewActions()
	actions.SetRecipe(recipe, domain.RecipeAction{ID: 10}, domain.RecipeAction{ID: 11}, domain.RecipeAction{ID: 12})

	f := factory.New(validation.New(registry, actions), factory.WithIDGenerator(idgen.NewSequence("id")))
	store := memory.NewStore()
	log := &eventLog{}

	opts = append([]groups.Option{groups.WithHooks(domain.LifecycleHooks{
		OnGroupCreated: log.record,
		OnGroupUpdated: log.record,
		OnGroupDeleted: log.record,
	})}, opts...)

	return fixture{
		svc:     groups.New(store, f, opts...),
		store:   store,
		actions: actions,
		events:  log,
	}
}

func postStatus(status string) map[string]any {
	return map[string]any{
		"integration_code": "WP",
		"condition_code":   "POST_STATUS",
		"fields":           map[string]any{"status": status},
	}
}

func (f fixture) create(t *testing.T, req groups.CreateRequest) domain.Group {
	t.Helper()
	g, err := f.svc.Create(context.Background(), recipe, req)
	require.NoError(t, err)
	return g
}

func TestService_CreateAndGet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	g := f.create(t, groups.CreateRequest{
		ActionIDs:  []domain.ActionID{10, 11},
		Mode:       "all",
		Conditions: []map[string]any{postStatus("publish")},
	})
	assert.Equal(t, domain.ModeAll, g.Mode())
	assert.Equal(t, 1, g.Len())

	got, err := f.svc.Get(ctx, recipe, g.ID())
	require.NoError(t, err)
	assert.True(t, g.Equal(got))

	list, err := f.svc.List(ctx, recipe)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	assert.Equal(t, []domain.EventType{domain.EventGroupCreated}, f.events.types())
}

func TestService_CreateFailureSavesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, recipe, groups.CreateRequest{ActionIDs: []domain.ActionID{10}, Mode: "xor"})
	assert.ErrorIs(t, err, domain.ErrInvalidMode)

	_, err = f.svc.Create(ctx, recipe, groups.CreateRequest{
		ActionIDs: []domain.ActionID{10},
		Mode:      "any",
		Conditions: []map[string]any{
			postStatus("publish"),
			{"integration_code": "WP", "condition_code": "NOPE"},
		},
	})
	assert.ErrorIs(t, err, domain.ErrConditionNotFound)

	_, err = f.svc.Create(ctx, recipe, groups.CreateRequest{ActionIDs: []domain.ActionID{99}, Mode: "any"})
	assert.ErrorIs(t, err, domain.ErrActionsNotInRecipe)
	assert.Equal(t, []domain.ActionID{99}, domain.MissingActions(err))

	list, err := f.svc.List(ctx, recipe)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Empty(t, f.events.types())

	recipes, err := f.svc.Recipes(ctx)
	require.NoError(t, err)
	assert.Empty(t, recipes)
}

func TestService_CreateParent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, recipe, groups.CreateRequest{Mode: "all", ParentID: "ghost"})
	assert.ErrorIs(t, err, domain.ErrGroupNotFound)

	_, err = f.svc.Create(ctx, recipe, groups.CreateRequest{Mode: "all", ParentLabel: "root"})
	assert.ErrorIs(t, err, locator.ErrUnresolvedPlaceholder)

	parent := f.create(t, groups.CreateRequest{Mode: "all"})
	child := f.create(t, groups.CreateRequest{Mode: "any", ParentID: parent.ID()})
	id, ok := child.Parent().GroupID()
	require.True(t, ok)
	assert.Equal(t, parent.ID(), id)
}

func TestService_CreateBatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.CreateBatch(ctx, recipe, []groups.CreateRequest{
		{Label: "root", Mode: "all", ActionIDs: []domain.ActionID{10}},
		{Label: "child", Mode: "any", ParentLabel: "root", Priority: 2, Conditions: []map[string]any{postStatus("draft")}},
	})
	require.NoError(t, err)
	require.Len(t, created, 2)

	parentID, ok := created[1].Parent().GroupID()
	require.True(t, ok)
	assert.Equal(t, created[0].ID(), parentID)
	assert.False(t, created[1].Parent().IsPlaceholder())

	list, err := f.svc.List(ctx, recipe)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestService_CreateBatchIsAllOrNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		reqs []groups.CreateRequest
		want error
	}{
		{
			name: "second group fails",
			reqs: []groups.CreateRequest{{Mode: "all"}, {Mode: "xor"}},
			want: domain.ErrInvalidMode,
		},
		{
			name: "unknown label",
			reqs: []groups.CreateRequest{{Mode: "all", ParentLabel: "nobody"}},
			want: locator.ErrUnresolvedPlaceholder,
		},
		{
			name: "duplicate label",
			reqs: []groups.CreateRequest{{Label: "a", Mode: "all"}, {Label: "a", Mode: "any"}},
			want: groups.ErrDuplicateLabel,
		},
		{
			name: "unknown parent id",
			reqs: []groups.CreateRequest{{Mode: "all", ParentID: "ghost"}},
			want: domain.ErrGroupNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			created, err := f.svc.CreateBatch(ctx, recipe, tt.reqs)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, created)

			list, err := f.svc.List(ctx, recipe)
			require.NoError(t, err)
			assert.Empty(t, list)
		})
	}
}

func TestService_DeleteDetachesChildren(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	parent := f.create(t, groups.CreateRequest{Mode: "all"})
	child := f.create(t, groups.CreateRequest{Mode: "any", ParentID: parent.ID()})

	require.NoError(t, f.svc.Delete(ctx, recipe, parent.ID()))

	list, err := f.svc.List(ctx, recipe)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, child.ID(), list[0].ID())
	assert.False(t, list[0].Parent().IsSet())

	err = f.svc.Delete(ctx, recipe, parent.ID())
	assert.ErrorIs(t, err, domain.ErrGroupNotFound)
}

func TestService_DeleteAll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.create(t, groups.CreateRequest{Mode: "all"})
	f.create(t, groups.CreateRequest{Mode: "any"})

	require.NoError(t, f.svc.DeleteAll(ctx, recipe))

	list, err := f.svc.List(ctx, recipe)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Equal(t, []domain.EventType{
		domain.EventGroupCreated,
		domain.EventGroupCreated,
		domain.EventGroupDeleted,
		domain.EventGroupDeleted,
	}, f.events.types())
}

func TestService_GroupUpdates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := f.create(t, groups.CreateRequest{Mode: "all", ActionIDs: []domain.ActionID{10}})

	updated, err := f.svc.UpdateMode(ctx, recipe, g.ID(), "any")
	require.NoError(t, err)
	assert.Equal(t, domain.ModeAny, updated.Mode())

	_, err = f.svc.UpdateMode(ctx, recipe, g.ID(), "xor")
	assert.ErrorIs(t, err, domain.ErrInvalidMode)

	updated, err = f.svc.UpdatePriority(ctx, recipe, g.ID(), 7)
	require.NoError(t, err)
	assert.Equal(t, 7, updated.Priority())

	updated, err = f.svc.UpdateActions(ctx, recipe, g.ID(), []domain.ActionID{11, 12})
	require.NoError(t, err)
	assert.Equal(t, []domain.ActionID{11, 12}, updated.ActionIDs())

	_, err = f.svc.UpdateActions(ctx, recipe, g.ID(), []domain.ActionID{0})
	assert.ErrorIs(t, err, domain.ErrInvalidActionID)

	_, err = f.svc.UpdateActions(ctx, recipe, g.ID(), []domain.ActionID{11, 404})
	assert.ErrorIs(t, err, domain.ErrActionsNotInRecipe)

	_, err = f.svc.UpdatePriority(ctx, recipe, "missing", 1)
	assert.ErrorIs(t, err, domain.ErrGroupNotFound)

	stored, err := f.svc.Get(ctx, recipe, g.ID())
	require.NoError(t, err)
	assert.Equal(t, domain.ModeAny, stored.Mode())
	assert.Equal(t, 7, stored.Priority())
	assert.Equal(t, []domain.ActionID{11, 12}, stored.ActionIDs())
}

func TestService_NoOpUpdateSavesNothing(t *testing.T) {
	f := newFixture(t)
	g := f.create(t, groups.CreateRequest{Mode: "all"})

	_, err := f.svc.UpdateMode(context.Background(), recipe, g.ID(), "ALL")
	require.NoError(t, err)
	assert.Equal(t, []domain.EventType{domain.EventGroupCreated}, f.events.types())
}

func TestService_ConditionEdits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := f.create(t, groups.CreateRequest{
		Mode:       "all",
		Conditions: []map[string]any{postStatus("publish")},
	})
	first := g.Conditions()[0]

	g, err := f.svc.AddCondition(ctx, recipe, g.ID(), map[string]any{
		"integration_code": "WP",
		"condition_code":   "USER_ROLE",
		"fields":           map[string]any{"role": "editor", "dynamic_name": "forged"},
	})
	require.NoError(t, err)
	require.Equal(t, 2, g.Len())
	second := g.Conditions()[1]
	assert.Equal(t, "User role", second.BackupInfo().DynamicName)
	_, forged := second.Field("dynamic_name")
	assert.False(t, forged)

	g, err = f.svc.UpdateConditionFields(ctx, recipe, g.ID(), first.ID(), map[string]any{"status": "draft"})
	require.NoError(t, err)
	refreshed := g.Conditions()[0]
	assert.Equal(t, first.ID(), refreshed.ID(), "id and position are preserved")
	status, _ := refreshed.Field("status")
	assert.Equal(t, "draft", status)
	assert.Equal(t, "status: draft", refreshed.BackupInfo().DynamicName)

	g, err = f.svc.RemoveCondition(ctx, recipe, g.ID(), first.ID())
	require.NoError(t, err)
	assert.Equal(t, 1, g.Len())
	assert.Equal(t, second.ID(), g.Conditions()[0].ID())

	_, err = f.svc.RemoveCondition(ctx, recipe, g.ID(), first.ID())
	assert.ErrorIs(t, err, domain.ErrConditionNotInGroup)

	_, err = f.svc.UpdateConditionFields(ctx, recipe, g.ID(), "ghost", nil)
	assert.ErrorIs(t, err, domain.ErrConditionNotInGroup)

	_, err = f.svc.AddCondition(ctx, recipe, g.ID(), map[string]any{"integration_code": "WP"})
	assert.ErrorIs(t, err, factory.ErrInvalidConditionConfig)
}

func TestService_RemoveAction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.create(t, groups.CreateRequest{Mode: "all", ActionIDs: []domain.ActionID{10, 11}})
	b := f.create(t, groups.CreateRequest{Mode: "any", ActionIDs: []domain.ActionID{12}})
	c := f.create(t, groups.CreateRequest{Mode: "any", ActionIDs: []domain.ActionID{10}})

	diff, err := f.svc.RemoveAction(ctx, recipe, 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []domain.GroupID{a.ID(), c.ID()}, diff.Updated)
	assert.Empty(t, diff.Removed)

	list, err := f.svc.List(ctx, recipe)
	require.NoError(t, err)
	for _, g := range list {
		assert.False(t, g.HasAction(10))
	}

	got, err := f.svc.Get(ctx, recipe, a.ID())
	require.NoError(t, err)
	assert.Equal(t, []domain.ActionID{11}, got.ActionIDs())

	got, err = f.svc.Get(ctx, recipe, b.ID())
	require.NoError(t, err)
	assert.Equal(t, []domain.ActionID{12}, got.ActionIDs())

	got, err = f.svc.Get(ctx, recipe, c.ID())
	require.NoError(t, err)
	assert.Empty(t, got.ActionIDs())
}

// SlowStore simulates latency to provoke lost updates if locking is missing.
type SlowStore struct {
	*memory.Store
}

func (s SlowStore) Load(ctx context.Context, recipeID domain.RecipeID) ([]domain.Group, error) {
	time.Sleep(2 * time.Millisecond)
	return s.Store.Load(ctx, recipeID)
}

func TestService_ConcurrentCreatesAreSerialized(t *testing.T) {
	f := newFixture(t)
	svc := groups.New(SlowStore{memory.NewStore()}, f.svc.Factory())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Create(ctx, recipe, groups.CreateRequest{Mode: "all"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	list, err := svc.List(ctx, recipe)
	require.NoError(t, err)
	assert.Len(t, list, 20)
}

type failingLocker struct{}

func (failingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	return nil, errors.New("lock service down")
}

func TestService_LockerFailureAbortsMutation(t *testing.T) {
	f := newFixture(t)
	svc := groups.New(f.store, f.svc.Factory(), groups.WithLocker(failingLocker{}))

	_, err := svc.Create(context.Background(), recipe, groups.CreateRequest{Mode: "all"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "distributed lock")
}
