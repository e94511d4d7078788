package observability

import (
	"context"
	"errors"

	"github.com/aretw0/automator/pkg/domain"
	"github.com/aretw0/automator/pkg/factory"
	"github.com/aretw0/automator/pkg/locator"
)

// ErrorKind is a stable, low-cardinality name for a failure.
type ErrorKind string

const (
	KindOK                          ErrorKind = "ok"
	KindInvalidMode                 ErrorKind = "invalid_mode"
	KindInvalidActionID             ErrorKind = "invalid_action_id"
	KindActionsNotInRecipe          ErrorKind = "actions_not_in_recipe"
	KindConditionNotFound           ErrorKind = "condition_not_found"
	KindConditionDefinitionNotFound ErrorKind = "condition_definition_not_found"
	KindGroupNotFound               ErrorKind = "group_not_found"
	KindConditionNotInGroup         ErrorKind = "condition_not_in_group"
	KindRecipeNotFound              ErrorKind = "recipe_not_found"
	KindInvalidConfig               ErrorKind = "invalid_config"
	KindInvalidFields               ErrorKind = "invalid_fields"
	KindUnresolvedPlaceholder       ErrorKind = "unresolved_placeholder"
	KindInvalidRecord               ErrorKind = "invalid_record"
	KindInvalidRequest              ErrorKind = "invalid_request"
	KindCanceled                    ErrorKind = "canceled"
	KindInternal                    ErrorKind = "internal"
)

var kinds = []struct {
	target error
	kind   ErrorKind
}{
	{domain.ErrInvalidMode, KindInvalidMode},
	{domain.ErrInvalidActionID, KindInvalidActionID},
	{domain.ErrActionsNotInRecipe, KindActionsNotInRecipe},
	{domain.ErrConditionNotFound, KindConditionNotFound},
	{domain.ErrConditionDefinitionNotFound, KindConditionDefinitionNotFound},
	{domain.ErrGroupNotFound, KindGroupNotFound},
	{domain.ErrConditionNotInGroup, KindConditionNotInGroup},
	{domain.ErrRecipeNotFound, KindRecipeNotFound},
	{factory.ErrInvalidConditionConfig, KindInvalidConfig},
	{domain.ErrInvalidFields, KindInvalidFields},
	{locator.ErrUnresolvedPlaceholder, KindUnresolvedPlaceholder},
	{domain.ErrInvalidRecord, KindInvalidRecord},
	{domain.ErrInvalidRequest, KindInvalidRequest},
	{domain.ErrGroupParentIsSelf, KindInvalidConfig},
	{domain.ErrDuplicateConditionID, KindInvalidConfig},
}

// Classify maps err to its kind. A nil error is KindOK; anything unrecognized is
// KindInternal.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindOK
	}
	for _, k := range kinds {
		if errors.Is(err, k.target) {
			return k.kind
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindCanceled
	}
	return KindInternal
}

// IsClientError reports whether the kind is caused by the caller's input.
func (k ErrorKind) IsClientError() bool {
	switch k {
	case KindOK, KindInternal, KindCanceled, KindInvalidRecord:
		return false
	}
	return true
}
