package domain

import (
	"errors"
	"fmt"
	"slices"
)

// Group errors
var (
	ErrGroupEmptyID         = errors.New("condition group id cannot be empty")
	ErrDuplicateConditionID = errors.New("duplicate condition id in group")
	ErrZeroCondition        = errors.New("condition group cannot hold an unconstructed condition")
	ErrGroupParentIsSelf    = errors.New("condition group cannot be its own parent")
)

// GroupParams carries the inputs of NewGroup.
type GroupParams struct {
	ID         GroupID
	Priority   int
	ActionIDs  []ActionID
	Mode       Mode
	Parent     ParentRef
	Conditions []Condition
}

// Group is one gating rule-set attached to a set of actions within a recipe.
//
// A Group is immutable. The With* methods return a modified copy and leave the
// receiver untouched; slices are never shared with callers.
//
// A Group without conditions is valid. It gates nothing: its actions proceed
// regardless of mode (see IsVacuous).
type Group struct {
	id         GroupID
	priority   int
	actionIDs  []ActionID
	mode       Mode
	parent     ParentRef
	conditions []Condition
}

// NewGroup validates p and builds a Group. Duplicate action ids are collapsed,
// keeping the first occurrence.
func NewGroup(p GroupParams) (Group, error) {
	if p.ID.IsZero() {
		return Group{}, ErrGroupEmptyID
	}
	if p.Mode.IsZero() {
		return Group{}, fmt.Errorf("%w: mode is required", ErrInvalidMode)
	}
	if ref, ok := p.Parent.GroupID(); ok && ref == p.ID {
		return Group{}, ErrGroupParentIsSelf
	}
	actions, err := normalizeActionIDs(p.ActionIDs)
	if err != nil {
		return Group{}, err
	}
	conditions, err := checkConditions(p.Conditions)
	if err != nil {
		return Group{}, err
	}

	return Group{
		id:         p.ID,
		priority:   p.Priority,
		actionIDs:  actions,
		mode:       p.Mode,
		parent:     p.Parent,
		conditions: conditions,
	}, nil
}

func normalizeActionIDs(ids []ActionID) ([]ActionID, error) {
	out := make([]ActionID, 0, len(ids))
	seen := make(map[ActionID]struct{}, len(ids))
	for _, id := range ids {
		if !id.Valid() {
			return nil, fmt.Errorf("%w: %d is not a positive integer", ErrInvalidActionID, id)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}

func checkConditions(conditions []Condition) ([]Condition, error) {
	seen := make(map[ConditionID]struct{}, len(conditions))
	for _, c := range conditions {
		if c.IsZero() {
			return nil, ErrZeroCondition
		}
		if _, dup := seen[c.id]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateConditionID, c.id)
		}
		seen[c.id] = struct{}{}
	}
	return slices.Clone(conditions), nil
}

// ID returns the group identifier.
func (g Group) ID() GroupID { return g.id }

// Priority returns the ordering hint among sibling groups (lower first).
func (g Group) Priority() int { return g.priority }

// ActionIDs returns a copy of the gated action ids.
func (g Group) ActionIDs() []ActionID { return slices.Clone(g.actionIDs) }

// HasAction reports whether the group gates the given action.
func (g Group) HasAction(id ActionID) bool { return slices.Contains(g.actionIDs, id) }

// Mode returns the boolean combinator.
func (g Group) Mode() Mode { return g.mode }

// Parent returns the parent reference, which may be NoParent or a placeholder.
func (g Group) Parent() ParentRef { return g.parent }

// Conditions returns a copy of the ordered condition list.
func (g Group) Conditions() []Condition { return slices.Clone(g.conditions) }

// Len returns the number of conditions.
func (g Group) Len() int { return len(g.conditions) }

// IsVacuous reports whether the group has no conditions and therefore never blocks
// its actions.
func (g Group) IsVacuous() bool { return len(g.conditions) == 0 }

// IsZero reports whether the group was never constructed.
func (g Group) IsZero() bool { return g.id.IsZero() }

// WithMode returns a copy using mode m.
func (g Group) WithMode(m Mode) (Group, error) {
	if m.IsZero() {
		return Group{}, fmt.Errorf("%w: mode is required", ErrInvalidMode)
	}
	out := g.clone()
	out.mode = m
	return out, nil
}

// WithPriority returns a copy using priority p.
func (g Group) WithPriority(p int) Group {
	out := g.clone()
	out.priority = p
	return out
}

// WithActionIDs returns a copy gating ids. Duplicates are collapsed.
func (g Group) WithActionIDs(ids []ActionID) (Group, error) {
	actions, err := normalizeActionIDs(ids)
	if err != nil {
		return Group{}, err
	}
	out := g.clone()
	out.actionIDs = actions
	return out, nil
}

// WithParent returns a copy referencing parent p.
func (g Group) WithParent(p ParentRef) (Group, error) {
	if ref, ok := p.GroupID(); ok && ref == g.id {
		return Group{}, ErrGroupParentIsSelf
	}
	out := g.clone()
	out.parent = p
	return out, nil
}

// WithConditions returns a copy holding conditions in the given order.
func (g Group) WithConditions(conditions []Condition) (Group, error) {
	checked, err := checkConditions(conditions)
	if err != nil {
		return Group{}, err
	}
	out := g.clone()
	out.conditions = checked
	return out, nil
}

// WithoutActions returns a copy that no longer gates ids. The order of the remaining
// actions is preserved.
func (g Group) WithoutActions(ids ...ActionID) Group {
	out := g.clone()
	out.actionIDs = slices.DeleteFunc(out.actionIDs, func(id ActionID) bool {
		return slices.Contains(ids, id)
	})
	return out
}

// WithoutCondition returns a copy without the condition identified by id.
func (g Group) WithoutCondition(id ConditionID) Group {
	out := g.clone()
	out.conditions = slices.DeleteFunc(out.conditions, func(c Condition) bool {
		return c.id == id
	})
	return out
}

// ConditionByID returns the condition identified by id.
func (g Group) ConditionByID(id ConditionID) (Condition, bool) {
	for _, c := range g.conditions {
		if c.id == id {
			return c, true
		}
	}
	return Condition{}, false
}

func (g Group) clone() Group {
	out := g
	out.actionIDs = slices.Clone(g.actionIDs)
	out.conditions = slices.Clone(g.conditions)
	return out
}

// Equal compares two groups by value, including their conditions in order.
func (g Group) Equal(other Group) bool {
	if g.id != other.id ||
		g.priority != other.priority ||
		g.mode != other.mode ||
		g.parent != other.parent ||
		!slices.Equal(g.actionIDs, other.actionIDs) ||
		len(g.conditions) != len(other.conditions) {
		return false
	}
	for i := range g.conditions {
		if !g.conditions[i].Equal(other.conditions[i]) {
			return false
		}
	}
	return true
}
