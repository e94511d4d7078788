package domain

import (
	"context"
	"time"
)

// EventType defines the category of a group change.
type EventType string

const (
	EventGroupCreated EventType = "group_created"
	EventGroupUpdated EventType = "group_updated"
	EventGroupDeleted EventType = "group_deleted"
)

// GroupEvent describes one group change committed to a recipe.
type GroupEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	RecipeID  RecipeID  `json:"recipe_id"`
	GroupID   GroupID   `json:"group_id"`
	// Operation is the service call that produced the change (e.g. "remove_action").
	Operation string `json:"operation"`
}

// LifecycleHooks defines callbacks fired after a mutation is saved.
// Hooks run synchronously on the caller's goroutine and must not block.
type LifecycleHooks struct {
	OnGroupCreated func(context.Context, *GroupEvent)
	OnGroupUpdated func(context.Context, *GroupEvent)
	OnGroupDeleted func(context.Context, *GroupEvent)
}

// Fire dispatches ev to the matching hook, if any.
func (h LifecycleHooks) Fire(ctx context.Context, ev *GroupEvent) {
	var fn func(context.Context, *GroupEvent)
	switch ev.Type {
	case EventGroupCreated:
		fn = h.OnGroupCreated
	case EventGroupUpdated:
		fn = h.OnGroupUpdated
	case EventGroupDeleted:
		fn = h.OnGroupDeleted
	}
	if fn != nil {
		fn(ctx, ev)
	}
}
