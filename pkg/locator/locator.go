// Package locator provides pure, copy-on-write operations over a recipe's condition
// groups.
//
// No function in this package modifies its arguments. Collection operations return a
// new slice; group operations return a new domain.Group. Callers persist the result.
package locator

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/aretw0/automator/pkg/domain"
)

// ErrUnresolvedPlaceholder is returned when a placeholder parent has no matching label.
var ErrUnresolvedPlaceholder = errors.New("unresolved parent placeholder")

// FindGroup returns the first group with id. The boolean is false when absent.
func FindGroup(groups []domain.Group, id domain.GroupID) (domain.Group, bool) {
	for _, g := range groups {
		if g.ID() == id {
			return g, true
		}
	}
	return domain.Group{}, false
}

// RequireGroup is FindGroup that reports absence as a *domain.GroupNotFoundError.
func RequireGroup(groups []domain.Group, id domain.GroupID) (domain.Group, error) {
	g, ok := FindGroup(groups, id)
	if !ok {
		return domain.Group{}, &domain.GroupNotFoundError{GroupID: id}
	}
	return g, nil
}

// ReplaceGroup removes every group sharing updated's id and appends updated.
// The result holds exactly one group with that id whether or not it was present.
func ReplaceGroup(groups []domain.Group, updated domain.Group) []domain.Group {
	return append(RemoveGroup(groups, updated.ID()), updated)
}

// RemoveGroup drops every group with id.
func RemoveGroup(groups []domain.Group, id domain.GroupID) []domain.Group {
	out := make([]domain.Group, 0, len(groups)+1)
	for _, g := range groups {
		if g.ID() != id {
			out = append(out, g)
		}
	}
	return out
}

// RemoveActionFromGroups unlinks actionID from every group. Groups that do not gate
// the action are returned unchanged.
func RemoveActionFromGroups(groups []domain.Group, actionID domain.ActionID) []domain.Group {
	out := make([]domain.Group, 0, len(groups))
	for _, g := range groups {
		if g.HasAction(actionID) {
			g = g.WithoutActions(actionID)
		}
		out = append(out, g)
	}
	return out
}

// GroupsForAction returns the groups gating actionID, in collection order.
func GroupsForAction(groups []domain.Group, actionID domain.ActionID) []domain.Group {
	var out []domain.Group
	for _, g := range groups {
		if g.HasAction(actionID) {
			out = append(out, g)
		}
	}
	return out
}

// AddConditionToGroup appends c to the tail of the group's conditions.
func AddConditionToGroup(g domain.Group, c domain.Condition) (domain.Group, error) {
	return g.WithConditions(append(g.Conditions(), c))
}

// WithUpdatedMode returns g with mode m.
func WithUpdatedMode(g domain.Group, m domain.Mode) (domain.Group, error) {
	return g.WithMode(m)
}

// WithUpdatedPriority returns g with priority p.
func WithUpdatedPriority(g domain.Group, p int) domain.Group {
	return g.WithPriority(p)
}

// WithUpdatedActions returns g gating ids.
func WithUpdatedActions(g domain.Group, ids []domain.ActionID) (domain.Group, error) {
	return g.WithActionIDs(ids)
}

// RemoveActions removes ids from g, preserving the order of the rest.
func RemoveActions(g domain.Group, ids []domain.ActionID) domain.Group {
	return g.WithoutActions(ids...)
}

// ContainsCondition reports whether g holds a condition with id.
func ContainsCondition(g domain.Group, id domain.ConditionID) bool {
	_, ok := g.ConditionByID(id)
	return ok
}

// RemoveConditionFromGroup filters out the condition with id.
func RemoveConditionFromGroup(g domain.Group, id domain.ConditionID) domain.Group {
	return g.WithoutCondition(id)
}

// ReplaceConditionInGroup substitutes replacement for the condition with id, keeping
// its position. Other conditions are untouched; if id is absent g is returned as is.
func ReplaceConditionInGroup(g domain.Group, id domain.ConditionID, replacement domain.Condition) (domain.Group, error) {
	conditions := g.Conditions()
	idx := slices.IndexFunc(conditions, func(c domain.Condition) bool { return c.ID() == id })
	if idx < 0 {
		return g, nil
	}
	conditions[idx] = replacement
	return g.WithConditions(conditions)
}

// ResolvePlaceholders rewrites placeholder parents to the group ids in labels.
// It fails with ErrUnresolvedPlaceholder if a placeholder has no entry.
func ResolvePlaceholders(groups []domain.Group, labels map[string]domain.GroupID) ([]domain.Group, error) {
	out := make([]domain.Group, 0, len(groups))
	for _, g := range groups {
		parent := g.Parent()
		if parent.IsPlaceholder() {
			id, ok := labels[parent.Label()]
			if !ok {
				return nil, fmt.Errorf("%w: group %s references %q", ErrUnresolvedPlaceholder, g.ID(), parent.Label())
			}
			resolved, err := g.WithParent(domain.ParentOf(id))
			if err != nil {
				return nil, err
			}
			g = resolved
		}
		out = append(out, g)
	}
	return out, nil
}

// SortByPriority returns the groups ordered by ascending priority. Ties keep their
// collection order.
func SortByPriority(groups []domain.Group) []domain.Group {
	out := slices.Clone(groups)
	slices.SortStableFunc(out, func(a, b domain.Group) int {
		return cmp.Compare(a.Priority(), b.Priority())
	})
	return out
}
