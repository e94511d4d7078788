package domain

import "slices"

// CollectionDiff represents the changes between two versions of a recipe's groups.
// It is designed to be serialized to JSON so clients can patch their local copy.
type CollectionDiff struct {
	Added   []GroupID `json:"added,omitempty"`
	Updated []GroupID `json:"updated,omitempty"`
	Removed []GroupID `json:"removed,omitempty"`
}

// DiffGroups calculates the difference between the old and new collections.
// Ids are reported in the order they appear in their collection: Added and Updated
// follow newGroups, Removed follows oldGroups. A nil old collection means every
// group is new.
func DiffGroups(oldGroups, newGroups []Group) CollectionDiff {
	var diff CollectionDiff

	before := make(map[GroupID]Group, len(oldGroups))
	for _, g := range oldGroups {
		if _, seen := before[g.id]; !seen {
			before[g.id] = g
		}
	}
	after := make(map[GroupID]struct{}, len(newGroups))

	for _, g := range newGroups {
		if _, dup := after[g.id]; dup {
			continue
		}
		after[g.id] = struct{}{}

		prev, existed := before[g.id]
		switch {
		case !existed:
			diff.Added = append(diff.Added, g.id)
		case !prev.Equal(g):
			diff.Updated = append(diff.Updated, g.id)
		}
	}

	for _, g := range oldGroups {
		if _, kept := after[g.id]; !kept && !slices.Contains(diff.Removed, g.id) {
			diff.Removed = append(diff.Removed, g.id)
		}
	}

	return diff
}

// IsEmpty checks if the diff contains any actionable changes.
func (d CollectionDiff) IsEmpty() bool {
	return len(d.Added) == 0 && len(d.Updated) == 0 && len(d.Removed) == 0
}

// Events converts the diff into lifecycle events for a recipe.
func (d CollectionDiff) Events(recipeID RecipeID, operation string) []GroupEvent {
	events := make([]GroupEvent, 0, len(d.Added)+len(d.Updated)+len(d.Removed))
	add := func(t EventType, ids []GroupID) {
		for _, id := range ids {
			events = append(events, GroupEvent{Type: t, RecipeID: recipeID, GroupID: id, Operation: operation})
		}
	}
	add(EventGroupCreated, d.Added)
	add(EventGroupUpdated, d.Updated)
	add(EventGroupDeleted, d.Removed)
	return events
}
