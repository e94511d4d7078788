package domain

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrInvalidMode is returned when a mode string is neither ALL nor ANY.
var ErrInvalidMode = errors.New("invalid condition group mode")

// ErrInvalidActionID is returned when an action id is not a positive integer.
var ErrInvalidActionID = errors.New("invalid action id")

// ErrActionsNotInRecipe is returned when requested action ids do not belong to the recipe.
var ErrActionsNotInRecipe = errors.New("actions not in recipe")

// ErrConditionNotFound is returned when an integration/condition pair is not registered.
var ErrConditionNotFound = errors.New("condition not found")

// ErrConditionDefinitionNotFound is returned when the registry has no definition to
// build backup metadata from.
var ErrConditionDefinitionNotFound = errors.New("condition definition not found")

// ErrGroupNotFound is returned when a required group id is absent from a collection.
var ErrGroupNotFound = errors.New("condition group not found")

// ErrConditionNotInGroup is returned when a condition id is not part of a group.
var ErrConditionNotInGroup = errors.New("condition not in group")

// ErrRecipeNotFound is returned by action listers for unknown recipes.
var ErrRecipeNotFound = errors.New("recipe not found")

// ErrInvalidFields is returned when condition fields do not match the declared field types.
var ErrInvalidFields = errors.New("invalid condition fields")

// ErrInvalidRecord is returned when a stored record cannot be rehydrated.
var ErrInvalidRecord = errors.New("invalid record")

// ErrInvalidRequest is returned when an outer request cannot be decoded.
var ErrInvalidRequest = errors.New("invalid request")

// DiscoveryOperation names the operation callers use to list registered conditions.
const DiscoveryOperation = "list_conditions"

// ActionsNotInRecipeError reports the action ids that were requested but are not part
// of the recipe.
type ActionsNotInRecipeError struct {
	RecipeID RecipeID
	Missing  []ActionID
}

func (e *ActionsNotInRecipeError) Error() string {
	ids := make([]string, 0, len(e.Missing))
	for _, id := range e.Missing {
		ids = append(ids, id.String())
	}
	return fmt.Sprintf("actions [%s] do not belong to recipe %d", strings.Join(ids, ", "), e.RecipeID)
}

func (e *ActionsNotInRecipeError) Unwrap() error { return ErrActionsNotInRecipe }

// MissingActions returns the offending ids if err is (or wraps) an ActionsNotInRecipeError.
func MissingActions(err error) []ActionID {
	var target *ActionsNotInRecipeError
	if errors.As(err, &target) {
		return slices.Clone(target.Missing)
	}
	return nil
}

// ConditionNotFoundError reports an unregistered integration/condition pair.
// The message points machine callers at the discovery operation.
type ConditionNotFoundError struct {
	IntegrationCode string
	ConditionCode   string
}

func (e *ConditionNotFoundError) Error() string {
	return fmt.Sprintf("condition %q of integration %q is not registered; call %s to discover the available conditions and their codes",
		e.ConditionCode, e.IntegrationCode, DiscoveryOperation)
}

func (e *ConditionNotFoundError) Unwrap() error { return ErrConditionNotFound }

// ConditionDefinitionNotFoundError reports a missing registry definition.
type ConditionDefinitionNotFoundError struct {
	IntegrationCode string
	ConditionCode   string
}

func (e *ConditionDefinitionNotFoundError) Error() string {
	return fmt.Sprintf("no definition for condition %q of integration %q", e.ConditionCode, e.IntegrationCode)
}

func (e *ConditionDefinitionNotFoundError) Unwrap() error { return ErrConditionDefinitionNotFound }

// GroupNotFoundError reports a missing group id.
type GroupNotFoundError struct {
	GroupID GroupID
}

func (e *GroupNotFoundError) Error() string {
	return fmt.Sprintf("condition group %q not found", e.GroupID)
}

func (e *GroupNotFoundError) Unwrap() error { return ErrGroupNotFound }
