package domain

import (
	"fmt"
	"slices"
)

// ConditionRecord is the plain, serializable form of a Condition.
type ConditionRecord struct {
	ID              ConditionID    `json:"id" yaml:"id"`
	IntegrationCode string         `json:"integration_code" yaml:"integration_code"`
	ConditionCode   string         `json:"condition_code" yaml:"condition_code"`
	Fields          map[string]any `json:"fields" yaml:"fields"`
	Backup          BackupInfo     `json:"backup" yaml:"backup"`
}

// GroupRecord is the plain, serializable form of a Group.
type GroupRecord struct {
	ID         GroupID           `json:"id" yaml:"id"`
	Priority   int               `json:"priority" yaml:"priority"`
	ActionIDs  []ActionID        `json:"action_ids" yaml:"action_ids"`
	Mode       string            `json:"mode" yaml:"mode"`
	ParentID   string            `json:"parent_id,omitempty" yaml:"parent_id,omitempty"`
	Conditions []ConditionRecord `json:"conditions" yaml:"conditions"`
}

// Record converts the condition to its plain form.
func (c Condition) Record() ConditionRecord {
	return ConditionRecord{
		ID:              c.id,
		IntegrationCode: c.integrationCode,
		ConditionCode:   c.conditionCode,
		Fields:          cloneFields(c.fields),
		Backup:          c.backup,
	}
}

// Record converts the group to its plain form.
func (g Group) Record() GroupRecord {
	conditions := make([]ConditionRecord, 0, len(g.conditions))
	for _, c := range g.conditions {
		conditions = append(conditions, c.Record())
	}
	actions := slices.Clone(g.actionIDs)
	if actions == nil {
		actions = []ActionID{}
	}
	return GroupRecord{
		ID:         g.id,
		Priority:   g.priority,
		ActionIDs:  actions,
		Mode:       g.mode.String(),
		ParentID:   g.parent.String(),
		Conditions: conditions,
	}
}

// ConditionFromRecord rehydrates a stored condition.
// The backup snapshot is trusted here: records only come from our own stores.
func ConditionFromRecord(r ConditionRecord) (Condition, error) {
	c, err := NewCondition(r.ID, r.IntegrationCode, r.ConditionCode, r.Fields, r.Backup)
	if err != nil {
		return Condition{}, fmt.Errorf("%w: condition %q: %w", ErrInvalidRecord, r.ID, err)
	}
	return c, nil
}

// GroupFromRecord rehydrates a stored group, validating every invariant again.
func GroupFromRecord(r GroupRecord) (Group, error) {
	mode, err := ParseMode(r.Mode)
	if err != nil {
		return Group{}, fmt.Errorf("%w: group %q: %w", ErrInvalidRecord, r.ID, err)
	}

	conditions := make([]Condition, 0, len(r.Conditions))
	for _, cr := range r.Conditions {
		c, err := ConditionFromRecord(cr)
		if err != nil {
			return Group{}, fmt.Errorf("group %q: %w", r.ID, err)
		}
		conditions = append(conditions, c)
	}

	g, err := NewGroup(GroupParams{
		ID:         r.ID,
		Priority:   r.Priority,
		ActionIDs:  r.ActionIDs,
		Mode:       mode,
		Parent:     ParentRef(r.ParentID),
		Conditions: conditions,
	})
	if err != nil {
		return Group{}, fmt.Errorf("%w: group %q: %w", ErrInvalidRecord, r.ID, err)
	}
	return g, nil
}

// Records converts a collection to plain form.
func Records(groups []Group) []GroupRecord {
	out := make([]GroupRecord, 0, len(groups))
	for _, g := range groups {
		out = append(out, g.Record())
	}
	return out
}

// GroupsFromRecords rehydrates a stored collection. It fails on the first bad record.
func GroupsFromRecords(records []GroupRecord) ([]Group, error) {
	out := make([]Group, 0, len(records))
	for _, r := range records {
		g, err := GroupFromRecord(r)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}
