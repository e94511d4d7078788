package groups

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/automator/internal/logging"
	"github.com/aretw0/automator/pkg/domain"
	"github.com/aretw0/automator/pkg/factory"
	"github.com/aretw0/automator/pkg/locator"
	"github.com/aretw0/automator/pkg/observability"
	"github.com/aretw0/automator/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed recipe lock is held.
const DefaultLockTTL = 30 * time.Second

// Operation names, used for events, metrics and logs.
const (
	OpList                  = "list_groups"
	OpGet                   = "get_group"
	OpCreate                = "create_group"
	OpCreateBatch           = "create_groups"
	OpDelete                = "delete_group"
	OpDeleteAll             = "delete_recipe_groups"
	OpUpdateMode            = "update_mode"
	OpUpdatePriority        = "update_priority"
	OpUpdateActions         = "update_actions"
	OpAddCondition          = "add_condition"
	OpUpdateConditionFields = "update_condition_fields"
	OpRemoveCondition       = "remove_condition"
	OpRemoveAction          = "remove_action"
)

// ErrDuplicateLabel is returned when a batch uses the same label twice.
var ErrDuplicateLabel = fmt.Errorf("%w: duplicate group label in batch", domain.ErrInvalidRequest)

// CreateRequest describes one group to create. Conditions are raw configs and are
// validated by the factory.
type CreateRequest struct {
	// Label names the group inside a batch so siblings can reference it as parent.
	Label string `json:"label,omitempty" yaml:"label,omitempty" mapstructure:"label"`

	ActionIDs  []domain.ActionID `json:"action_ids" yaml:"action_ids" mapstructure:"action_ids"`
	Mode       string            `json:"mode" yaml:"mode" mapstructure:"mode"`
	Priority   int               `json:"priority" yaml:"priority" mapstructure:"priority"`
	Conditions []map[string]any  `json:"conditions" yaml:"conditions" mapstructure:"conditions"`

	// ParentID references an existing group. ParentLabel references a group of the
	// same batch; it wins over ParentID.
	ParentID    domain.GroupID `json:"parent_id,omitempty" yaml:"parent_id,omitempty" mapstructure:"parent_id"`
	ParentLabel string         `json:"parent_label,omitempty" yaml:"parent_label,omitempty" mapstructure:"parent_label"`
}

func (r CreateRequest) parent() domain.ParentRef {
	switch {
	case r.ParentLabel != "":
		return domain.Placeholder(r.ParentLabel)
	case !r.ParentID.IsZero():
		return domain.ParentOf(r.ParentID)
	}
	return domain.NoParent
}

// Service orchestrates group access for recipes, serializing mutations per recipe.
type Service struct {
	store   ports.GroupStore
	factory *factory.Factory

	mu    sync.Mutex
	locks map[domain.RecipeID]*lockEntry

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
	metrics *observability.Metrics
	hooks   domain.LifecycleHooks
	now     func() time.Time
}

// Option configures the Service.
type Option func(*Service)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(s *Service) {
		s.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Service.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithMetrics records every operation.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithHooks registers lifecycle hooks fired after each saved mutation.
func WithHooks(h domain.LifecycleHooks) Option {
	return func(s *Service) {
		s.hooks = h
	}
}

// New creates a Service over store, building values with f.
func New(store ports.GroupStore, f *factory.Factory, opts ...Option) *Service {
	s := &Service{
		store:   store,
		factory: f,
		locks:   make(map[domain.RecipeID]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the underlying group store.
func (s *Service) Store() ports.GroupStore {
	return s.store
}

// Factory returns the factory used to build groups and conditions.
func (s *Service) Factory() *factory.Factory {
	return s.factory
}

// Recipes lists the recipes that have stored groups.
func (s *Service) Recipes(ctx context.Context) ([]domain.RecipeID, error) {
	return s.store.List(ctx)
}

// List returns the groups of a recipe in collection order.
func (s *Service) List(ctx context.Context, recipeID domain.RecipeID) (groups []domain.Group, err error) {
	defer s.observe(OpList, s.now(), &err)
	return s.store.Load(ctx, recipeID)
}

// Get returns one group of a recipe.
func (s *Service) Get(ctx context.Context, recipeID domain.RecipeID, groupID domain.GroupID) (g domain.Group, err error) {
	defer s.observe(OpGet, s.now(), &err)
	groups, err := s.store.Load(ctx, recipeID)
	if err != nil {
		return domain.Group{}, err
	}
	return locator.RequireGroup(groups, groupID)
}

// Create builds a group from req and appends it to the recipe.
// A ParentID must name an existing group; ParentLabel is only valid in CreateBatch.
func (s *Service) Create(ctx context.Context, recipeID domain.RecipeID, req CreateRequest) (domain.Group, error) {
	var created domain.Group
	err := s.mutate(ctx, OpCreate, recipeID, func(ctx context.Context, groups []domain.Group) ([]domain.Group, error) {
		parent := req.parent()
		if parent.IsPlaceholder() {
			return nil, fmt.Errorf("%w: %q can only be used within a batch", locator.ErrUnresolvedPlaceholder, parent.Label())
		}
		if err := requireParent(groups, parent); err != nil {
			return nil, err
		}

		g, err := s.build(ctx, recipeID, req, parent)
		if err != nil {
			return nil, err
		}
		created = g
		return append(groups, g), nil
	})
	if err != nil {
		return domain.Group{}, err
	}
	return created, nil
}

// CreateBatch builds every request and appends them in order. Requests may reference
// each other by label; the batch is saved only if every group builds and every
// parent resolves.
func (s *Service) CreateBatch(ctx context.Context, recipeID domain.RecipeID, reqs []CreateRequest) ([]domain.Group, error) {
	var created []domain.Group
	err := s.mutate(ctx, OpCreateBatch, recipeID, func(ctx context.Context, groups []domain.Group) ([]domain.Group, error) {
		labels := make(map[string]domain.GroupID, len(reqs))
		built := make([]domain.Group, 0, len(reqs))
		for i, req := range reqs {
			g, err := s.build(ctx, recipeID, req, req.parent())
			if err != nil {
				return nil, fmt.Errorf("group %d: %w", i, err)
			}
			if req.Label != "" {
				if _, dup := labels[req.Label]; dup {
					return nil, fmt.Errorf("%w: %q", ErrDuplicateLabel, req.Label)
				}
				labels[req.Label] = g.ID()
			}
			built = append(built, g)
		}

		resolved, err := locator.ResolvePlaceholders(built, labels)
		if err != nil {
			return nil, err
		}

		all := append(groups, resolved...)
		for _, g := range resolved {
			if err := requireParent(all, g.Parent()); err != nil {
				return nil, err
			}
		}
		created = resolved
		return all, nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *Service) build(ctx context.Context, recipeID domain.RecipeID, req CreateRequest, parent domain.ParentRef) (domain.Group, error) {
	return s.factory.CreateGroup(ctx, recipeID, req.ActionIDs, req.Mode, req.Conditions,
		factory.WithPriority(req.Priority),
		factory.WithParent(parent),
	)
}

func requireParent(groups []domain.Group, parent domain.ParentRef) error {
	id, ok := parent.GroupID()
	if !ok {
		return nil
	}
	_, err := locator.RequireGroup(groups, id)
	if err != nil {
		return fmt.Errorf("parent: %w", err)
	}
	return nil
}

// Delete removes a group. Groups that referenced it as parent become top level.
func (s *Service) Delete(ctx context.Context, recipeID domain.RecipeID, groupID domain.GroupID) error {
	return s.mutate(ctx, OpDelete, recipeID, func(ctx context.Context, groups []domain.Group) ([]domain.Group, error) {
		if _, err := locator.RequireGroup(groups, groupID); err != nil {
			return nil, err
		}
		return detachChildren(locator.RemoveGroup(groups, groupID), groupID)
	})
}

func detachChildren(groups []domain.Group, parentID domain.GroupID) ([]domain.Group, error) {
	out := make([]domain.Group, len(groups))
	for i, g := range groups {
		if id, ok := g.Parent().GroupID(); ok && id == parentID {
			detached, err := g.WithParent(domain.NoParent)
			if err != nil {
				return nil, err
			}
			g = detached
		}
		out[i] = g
	}
	return out, nil
}

// DeleteAll removes every group of a recipe.
func (s *Service) DeleteAll(ctx context.Context, recipeID domain.RecipeID) (err error) {
	defer s.observe(OpDeleteAll, s.now(), &err)
	return s.WithLock(ctx, recipeID, func(ctx context.Context) error {
		before, err := s.store.Load(ctx, recipeID)
		if err != nil {
			return err
		}
		if err := s.store.Delete(ctx, recipeID); err != nil {
			return err
		}
		s.commit(ctx, recipeID, OpDeleteAll, domain.DiffGroups(before, nil), 0)
		return nil
	})
}

// UpdateMode switches the combinator of a group.
func (s *Service) UpdateMode(ctx context.Context, recipeID domain.RecipeID, groupID domain.GroupID, mode string) (domain.Group, error) {
	return s.updateGroup(ctx, OpUpdateMode, recipeID, groupID, func(ctx context.Context, g domain.Group) (domain.Group, error) {
		m, err := domain.ParseMode(mode)
		if err != nil {
			return domain.Group{}, err
		}
		return locator.WithUpdatedMode(g, m)
	})
}

// UpdatePriority changes the ordering hint of a group.
func (s *Service) UpdatePriority(ctx context.Context, recipeID domain.RecipeID, groupID domain.GroupID, priority int) (domain.Group, error) {
	return s.updateGroup(ctx, OpUpdatePriority, recipeID, groupID, func(ctx context.Context, g domain.Group) (domain.Group, error) {
		return locator.WithUpdatedPriority(g, priority), nil
	})
}

// UpdateActions replaces the actions a group gates. Every id must be well formed
// and belong to the recipe.
func (s *Service) UpdateActions(ctx context.Context, recipeID domain.RecipeID, groupID domain.GroupID, actionIDs []domain.ActionID) (domain.Group, error) {
	v := s.factory.Validator()
	return s.updateGroup(ctx, OpUpdateActions, recipeID, groupID, func(ctx context.Context, g domain.Group) (domain.Group, error) {
		if err := v.ValidateActionIDsFormat(actionIDs); err != nil {
			return domain.Group{}, err
		}
		if err := v.AssertActionsInRecipe(ctx, recipeID, actionIDs); err != nil {
			return domain.Group{}, err
		}
		return locator.WithUpdatedActions(g, actionIDs)
	})
}

// AddCondition builds a condition from raw and appends it to a group.
func (s *Service) AddCondition(ctx context.Context, recipeID domain.RecipeID, groupID domain.GroupID, raw map[string]any) (domain.Group, error) {
	return s.updateGroup(ctx, OpAddCondition, recipeID, groupID, func(ctx context.Context, g domain.Group) (domain.Group, error) {
		c, err := s.factory.CreateCondition(ctx, raw)
		if err != nil {
			return domain.Group{}, err
		}
		return locator.AddConditionToGroup(g, c)
	})
}

// UpdateConditionFields rebuilds a condition with new fields. Its id, codes and
// position in the group are kept.
func (s *Service) UpdateConditionFields(ctx context.Context, recipeID domain.RecipeID, groupID domain.GroupID, conditionID domain.ConditionID, fields map[string]any) (domain.Group, error) {
	return s.updateGroup(ctx, OpUpdateConditionFields, recipeID, groupID, func(ctx context.Context, g domain.Group) (domain.Group, error) {
		existing, ok := g.ConditionByID(conditionID)
		if !ok {
			return domain.Group{}, conditionNotInGroup(conditionID, groupID)
		}
		refreshed, err := s.factory.RefreshConditionWithID(ctx, existing, fields)
		if err != nil {
			return domain.Group{}, err
		}
		return locator.ReplaceConditionInGroup(g, conditionID, refreshed)
	})
}

// RemoveCondition drops a condition from a group.
func (s *Service) RemoveCondition(ctx context.Context, recipeID domain.RecipeID, groupID domain.GroupID, conditionID domain.ConditionID) (domain.Group, error) {
	return s.updateGroup(ctx, OpRemoveCondition, recipeID, groupID, func(ctx context.Context, g domain.Group) (domain.Group, error) {
		if !locator.ContainsCondition(g, conditionID) {
			return domain.Group{}, conditionNotInGroup(conditionID, groupID)
		}
		return locator.RemoveConditionFromGroup(g, conditionID), nil
	})
}

func conditionNotInGroup(conditionID domain.ConditionID, groupID domain.GroupID) error {
	return fmt.Errorf("%w: condition %q in group %q", domain.ErrConditionNotInGroup, conditionID, groupID)
}

// RemoveAction unlinks an action from every group of the recipe, typically because
// the action itself was deleted. Groups left without actions are kept.
func (s *Service) RemoveAction(ctx context.Context, recipeID domain.RecipeID, actionID domain.ActionID) (domain.CollectionDiff, error) {
	var diff domain.CollectionDiff
	err := s.mutate(ctx, OpRemoveAction, recipeID, func(ctx context.Context, groups []domain.Group) ([]domain.Group, error) {
		after := locator.RemoveActionFromGroups(groups, actionID)
		diff = domain.DiffGroups(groups, after)
		return after, nil
	})
	return diff, err
}

// updateGroup applies fn to one group and replaces it in the collection.
func (s *Service) updateGroup(ctx context.Context, op string, recipeID domain.RecipeID, groupID domain.GroupID, fn func(context.Context, domain.Group) (domain.Group, error)) (domain.Group, error) {
	var updated domain.Group
	err := s.mutate(ctx, op, recipeID, func(ctx context.Context, groups []domain.Group) ([]domain.Group, error) {
		g, err := locator.RequireGroup(groups, groupID)
		if err != nil {
			return nil, err
		}
		next, err := fn(ctx, g)
		if err != nil {
			return nil, err
		}
		updated = next
		return locator.ReplaceGroup(groups, next), nil
	})
	if err != nil {
		return domain.Group{}, err
	}
	return updated, nil
}

// mutate runs load, transform and save under the recipe lock. Nothing is saved when
// the transform fails or changes nothing.
func (s *Service) mutate(ctx context.Context, op string, recipeID domain.RecipeID, fn func(context.Context, []domain.Group) ([]domain.Group, error)) (err error) {
	defer s.observe(op, s.now(), &err)

	return s.WithLock(ctx, recipeID, func(ctx context.Context) error {
		before, err := s.store.Load(ctx, recipeID)
		if err != nil {
			return err
		}
		after, err := fn(ctx, before)
		if err != nil {
			return err
		}

		diff := domain.DiffGroups(before, after)
		if diff.IsEmpty() {
			return nil
		}
		if err := s.store.Save(ctx, recipeID, after); err != nil {
			return fmt.Errorf("failed to save groups of recipe %d: %w", recipeID, err)
		}
		s.commit(ctx, recipeID, op, diff, len(after))
		return nil
	})
}

func (s *Service) commit(ctx context.Context, recipeID domain.RecipeID, op string, diff domain.CollectionDiff, count int) {
	s.logger.Debug("Groups saved",
		"recipe_id", recipeID,
		"operation", op,
		"added", len(diff.Added),
		"updated", len(diff.Updated),
		"removed", len(diff.Removed),
	)
	s.metrics.SetGroupCount(recipeID.String(), count)

	ts := s.now()
	for _, ev := range diff.Events(recipeID, op) {
		ev.Timestamp = ts
		s.hooks.Fire(ctx, &ev)
	}
}

func (s *Service) observe(op string, start time.Time, err *error) {
	s.metrics.Observe(op, start, *err)
	if *err != nil {
		kind := observability.Classify(*err)
		if kind.IsClientError() {
			s.logger.Debug("Operation rejected", "operation", op, "kind", kind, "err", *err)
		} else {
			s.logger.Error("Operation failed", "operation", op, "kind", kind, "err", *err)
		}
	}
}
