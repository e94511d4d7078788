package domain

// RecipeAction is one action of a recipe as reported by the action listing service.
// Only ID matters to the group engine; the rest is carried for display.
type RecipeAction struct {
	ID   ActionID `json:"action_id" yaml:"action_id"`
	Code string   `json:"code,omitempty" yaml:"code,omitempty"`
	Name string   `json:"name,omitempty" yaml:"name,omitempty"`
}

// ActionIDsOf returns the ids of actions in order.
func ActionIDsOf(actions []RecipeAction) []ActionID {
	ids := make([]ActionID, 0, len(actions))
	for _, a := range actions {
		ids = append(ids, a.ID)
	}
	return ids
}
