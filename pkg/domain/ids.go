package domain

import (
	"strconv"
	"strings"
)

// RecipeID identifies the recipe that owns a collection of groups.
type RecipeID int64

func (id RecipeID) String() string { return strconv.FormatInt(int64(id), 10) }

// ActionID identifies an action inside a recipe. Valid ids are positive.
type ActionID int64

func (id ActionID) String() string { return strconv.FormatInt(int64(id), 10) }

// Valid reports whether the id is a positive integer.
func (id ActionID) Valid() bool { return id > 0 }

// GroupID is the opaque identifier of a condition group.
type GroupID string

func (id GroupID) String() string { return string(id) }

// IsZero reports whether the id is empty.
func (id GroupID) IsZero() bool { return id == "" }

// ConditionID is the opaque identifier of an individual condition.
// It is generated once and survives field edits.
type ConditionID string

func (id ConditionID) String() string { return string(id) }

// IsZero reports whether the id is empty.
func (id ConditionID) IsZero() bool { return id == "" }

// PlaceholderPrefix marks a parent reference to a group created in the same batch
// that has no final id yet.
const PlaceholderPrefix = "pending:"

// ParentRef points at a group's parent. The zero value means "no parent".
// It holds either a final GroupID or a placeholder built with Placeholder.
type ParentRef string

// NoParent is the empty parent reference.
const NoParent ParentRef = ""

// ParentOf references an existing group.
func ParentOf(id GroupID) ParentRef { return ParentRef(id) }

// Placeholder references a group being created in the same batch under label.
func Placeholder(label string) ParentRef { return ParentRef(PlaceholderPrefix + label) }

// IsSet reports whether a parent is referenced at all.
func (p ParentRef) IsSet() bool { return p != NoParent }

// IsPlaceholder reports whether the reference still waits for a final id.
func (p ParentRef) IsPlaceholder() bool { return strings.HasPrefix(string(p), PlaceholderPrefix) }

// Label returns the placeholder label, or "" for final references.
func (p ParentRef) Label() string {
	if !p.IsPlaceholder() {
		return ""
	}
	return strings.TrimPrefix(string(p), PlaceholderPrefix)
}

// GroupID returns the referenced group id. It is only meaningful when the reference
// is set and not a placeholder.
func (p ParentRef) GroupID() (GroupID, bool) {
	if !p.IsSet() || p.IsPlaceholder() {
		return "", false
	}
	return GroupID(p), true
}

func (p ParentRef) String() string { return string(p) }
