package validation

import (
	"context"
	"fmt"
	"slices"

	"github.com/aretw0/automator/pkg/domain"
	"github.com/aretw0/automator/pkg/naming"
	"github.com/aretw0/automator/pkg/ports"
	"github.com/aretw0/automator/pkg/schema"
	"github.com/microcosm-cc/bluemonday"
)

// Validator checks group and condition inputs against the injected collaborators.
type Validator struct {
	registry         ports.ConditionRegistry
	actions          ports.ActionLister
	policy           *bluemonday.Policy
	integrationNames map[string]string
	titleClass       string
}

// Option configures a Validator.
type Option func(*Validator)

// WithIntegrationNames adds or overrides entries of the integration name fallback table.
func WithIntegrationNames(names map[string]string) Option {
	return func(v *Validator) {
		for code, name := range names {
			v.integrationNames[code] = name
		}
	}
}

// WithPolicy replaces the sanitizer used for title_html.
func WithPolicy(p *bluemonday.Policy) Option {
	return func(v *Validator) {
		v.policy = p
	}
}

// WithTitleClass sets the CSS class of the title_html wrapper.
func WithTitleClass(class string) Option {
	return func(v *Validator) {
		v.titleClass = class
	}
}

// New creates a Validator. Both collaborators are required.
func New(registry ports.ConditionRegistry, actions ports.ActionLister, opts ...Option) *Validator {
	v := &Validator{
		registry:         registry,
		actions:          actions,
		policy:           bluemonday.StrictPolicy(),
		integrationNames: DefaultIntegrationNames(),
		titleClass:       "condition-title",
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// ValidateActionIDsFormat is the method form of the package function.
func (v *Validator) ValidateActionIDsFormat(ids []domain.ActionID) error {
	return ValidateActionIDsFormat(ids)
}

// AssertActionsInRecipe checks that every id belongs to the recipe. An empty input
// succeeds without consulting the action lister.
func (v *Validator) AssertActionsInRecipe(ctx context.Context, recipeID domain.RecipeID, ids []domain.ActionID) error {
	if len(ids) == 0 {
		return nil
	}

	actions, err := v.actions.GetRecipeActions(ctx, recipeID)
	if err != nil {
		return fmt.Errorf("listing actions of recipe %d: %w", recipeID, err)
	}
	existing := domain.ActionIDsOf(actions)

	var missing []domain.ActionID
	for _, id := range ids {
		if !slices.Contains(existing, id) && !slices.Contains(missing, id) {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return &domain.ActionsNotInRecipeError{RecipeID: recipeID, Missing: missing}
	}
	return nil
}

// EnsureConditionExists fails with a *domain.ConditionNotFoundError when the pair is
// not registered. The error message points at the discovery operation.
func (v *Validator) EnsureConditionExists(ctx context.Context, integrationCode, conditionCode string) error {
	ok, err := v.registry.ConditionExists(ctx, integrationCode, conditionCode)
	if err != nil {
		return fmt.Errorf("checking condition %s: %w", domain.DefinitionKey(integrationCode, conditionCode), err)
	}
	if !ok {
		return &domain.ConditionNotFoundError{IntegrationCode: integrationCode, ConditionCode: conditionCode}
	}
	return nil
}

// CheckFields validates fields against the field types of the definition, if it
// declares any. A missing definition is left to CreateBackupInfo.
func (v *Validator) CheckFields(ctx context.Context, integrationCode, conditionCode string, fields map[string]any) error {
	def, found, err := v.registry.GetConditionDefinition(ctx, integrationCode, conditionCode)
	if err != nil {
		return fmt.Errorf("loading definition %s: %w", domain.DefinitionKey(integrationCode, conditionCode), err)
	}
	if !found || len(def.FieldTypes) == 0 {
		return nil
	}
	if err := schema.Validate(def.FieldTypes, fields); err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrInvalidFields, def.Key(), err)
	}
	return nil
}

// CreateBackupInfo builds the display snapshot of a condition from its registry
// definition. It fails with a *domain.ConditionDefinitionNotFoundError when the
// registry has no definition.
func (v *Validator) CreateBackupInfo(ctx context.Context, integrationCode, conditionCode string, fields map[string]any) (domain.BackupInfo, error) {
	def, found, err := v.registry.GetConditionDefinition(ctx, integrationCode, conditionCode)
	if err != nil {
		return domain.BackupInfo{}, fmt.Errorf("loading definition %s: %w", domain.DefinitionKey(integrationCode, conditionCode), err)
	}
	if !found {
		return domain.BackupInfo{}, &domain.ConditionDefinitionNotFoundError{IntegrationCode: integrationCode, ConditionCode: conditionCode}
	}

	name := naming.ResolveDynamicName(&def, conditionCode, fields)
	return domain.BackupInfo{
		DynamicName:     name,
		TitleHTML:       v.TitleHTML(name),
		IntegrationName: v.IntegrationName(integrationCode, def.IntegrationName),
	}, nil
}

// TitleHTML sanitizes name and wraps it in a span.
func (v *Validator) TitleHTML(name string) string {
	return fmt.Sprintf(`<span class="%s">%s</span>`, v.titleClass, v.policy.Sanitize(name))
}

// IntegrationName picks the display name of an integration: the registry value, then
// the fallback table, then the code itself.
func (v *Validator) IntegrationName(integrationCode, fromRegistry string) string {
	if fromRegistry != "" {
		return fromRegistry
	}
	if name, ok := v.integrationNames[integrationCode]; ok {
		return name
	}
	return integrationCode
}
