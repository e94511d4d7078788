package factory

import (
	"context"

	"github.com/aretw0/automator/pkg/domain"
	"github.com/aretw0/automator/pkg/idgen"
	"github.com/aretw0/automator/pkg/ports"
	"github.com/aretw0/automator/pkg/validation"
)

// Factory builds groups and conditions. It is safe for concurrent use as long as its
// collaborators are.
type Factory struct {
	validator *validation.Validator
	ids       ports.IDGenerator
}

// Option configures a Factory.
type Option func(*Factory)

// WithIDGenerator sets the generator used for group and condition ids.
func WithIDGenerator(g ports.IDGenerator) Option {
	return func(f *Factory) {
		f.ids = g
	}
}

// New creates a Factory. Ids default to random UUIDs.
func New(v *validation.Validator, opts ...Option) *Factory {
	f := &Factory{
		validator: v,
		ids:       idgen.NewUUID(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Validator returns the validator the factory checks inputs with.
func (f *Factory) Validator() *validation.Validator { return f.validator }

type groupSettings struct {
	priority int
	parent   domain.ParentRef
}

// GroupOption sets optional attributes of a group built by CreateGroup.
type GroupOption func(*groupSettings)

// WithPriority sets the priority of the new group.
func WithPriority(p int) GroupOption {
	return func(s *groupSettings) { s.priority = p }
}

// WithParent nests the new group under parent. The reference may be a placeholder.
func WithParent(parent domain.ParentRef) GroupOption {
	return func(s *groupSettings) { s.parent = parent }
}

// CreateGroup builds a new group for recipeID.
//
// Checks run in order and stop at the first failure: the mode string, the action id
// format, recipe membership of the actions, then every condition config in turn.
// Nothing is returned unless every step succeeds.
func (f *Factory) CreateGroup(ctx context.Context, recipeID domain.RecipeID, actionIDs []domain.ActionID, mode string, configs []map[string]any, opts ...GroupOption) (domain.Group, error) {
	var settings groupSettings
	for _, opt := range opts {
		opt(&settings)
	}

	m, err := domain.ParseMode(mode)
	if err != nil {
		return domain.Group{}, err
	}
	if err := f.validator.ValidateActionIDsFormat(actionIDs); err != nil {
		return domain.Group{}, err
	}
	if err := f.validator.AssertActionsInRecipe(ctx, recipeID, actionIDs); err != nil {
		return domain.Group{}, err
	}

	conditions, err := f.CreateConditions(ctx, configs)
	if err != nil {
		return domain.Group{}, err
	}

	return domain.NewGroup(domain.GroupParams{
		ID:         domain.GroupID(f.ids.NewID()),
		Priority:   settings.priority,
		ActionIDs:  actionIDs,
		Mode:       m,
		Parent:     settings.parent,
		Conditions: conditions,
	})
}

// CreateConditions builds every config in order and aborts on the first failure.
func (f *Factory) CreateConditions(ctx context.Context, configs []map[string]any) ([]domain.Condition, error) {
	conditions := make([]domain.Condition, 0, len(configs))
	for _, raw := range configs {
		c, err := f.CreateCondition(ctx, raw)
		if err != nil {
			return nil, err
		}
		conditions = append(conditions, c)
	}
	return conditions, nil
}

// CreateCondition decodes raw, strips presentation keys from its fields, checks the
// condition type against the registry and assigns a fresh id.
func (f *Factory) CreateCondition(ctx context.Context, raw map[string]any) (domain.Condition, error) {
	cfg, err := DecodeConditionConfig(raw)
	if err != nil {
		return domain.Condition{}, err
	}
	return f.build(ctx, "", cfg.IntegrationCode, cfg.ConditionCode, cfg.Fields)
}

// RefreshConditionWithID rebuilds existing with new field values. The id and both
// codes are kept; the backup snapshot is derived again.
func (f *Factory) RefreshConditionWithID(ctx context.Context, existing domain.Condition, newFields map[string]any) (domain.Condition, error) {
	return f.build(ctx, existing.ID(), existing.IntegrationCode(), existing.ConditionCode(), newFields)
}

func (f *Factory) build(ctx context.Context, id domain.ConditionID, integrationCode, conditionCode string, rawFields map[string]any) (domain.Condition, error) {
	fields := StripPresentationKeys(rawFields)

	if err := f.validator.EnsureConditionExists(ctx, integrationCode, conditionCode); err != nil {
		return domain.Condition{}, err
	}
	if err := f.validator.CheckFields(ctx, integrationCode, conditionCode, fields); err != nil {
		return domain.Condition{}, err
	}
	backup, err := f.validator.CreateBackupInfo(ctx, integrationCode, conditionCode, fields)
	if err != nil {
		return domain.Condition{}, err
	}

	if id.IsZero() {
		id = domain.ConditionID(f.ids.NewID())
	}
	return domain.NewCondition(id, integrationCode, conditionCode, fields, backup)
}
