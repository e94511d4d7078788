package domain

import (
	"errors"
	"reflect"

	"github.com/mohae/deepcopy"
)

// BackupInfo is the display/audit snapshot captured when a condition is created or
// refreshed. It is always derived server-side from the registry.
type BackupInfo struct {
	DynamicName     string `json:"dynamic_name"`
	TitleHTML       string `json:"title_html"`
	IntegrationName string `json:"integration_name"`
}

// Condition errors
var (
	ErrConditionEmptyID          = errors.New("condition id cannot be empty")
	ErrConditionEmptyIntegration = errors.New("condition integration code cannot be empty")
	ErrConditionEmptyCode        = errors.New("condition code cannot be empty")
)

// Condition is one predicate inside a group. It is immutable: accessors return copies.
type Condition struct {
	id              ConditionID
	integrationCode string
	conditionCode   string
	fields          map[string]any
	backup          BackupInfo
}

// NewCondition assembles a Condition. Fields are deep-copied so later changes to
// the caller's map or to nested values do not leak in.
func NewCondition(id ConditionID, integrationCode, conditionCode string, fields map[string]any, backup BackupInfo) (Condition, error) {
	if id.IsZero() {
		return Condition{}, ErrConditionEmptyID
	}
	if integrationCode == "" {
		return Condition{}, ErrConditionEmptyIntegration
	}
	if conditionCode == "" {
		return Condition{}, ErrConditionEmptyCode
	}

	return Condition{
		id:              id,
		integrationCode: integrationCode,
		conditionCode:   conditionCode,
		fields:          cloneFields(fields),
		backup:          backup,
	}, nil
}

// ID returns the stable condition identifier.
func (c Condition) ID() ConditionID { return c.id }

// IntegrationCode returns the integration the condition type belongs to.
func (c Condition) IntegrationCode() string { return c.integrationCode }

// ConditionCode returns the condition type code.
func (c Condition) ConditionCode() string { return c.conditionCode }

// Fields returns a deep copy of the condition parameters.
func (c Condition) Fields() map[string]any { return cloneFields(c.fields) }

// Field returns a copy of a single parameter.
func (c Condition) Field(key string) (any, bool) {
	v, ok := c.fields[key]
	if !ok {
		return nil, false
	}
	return deepcopy.Copy(v), true
}

// BackupInfo returns the display snapshot.
func (c Condition) BackupInfo() BackupInfo { return c.backup }

// IsZero reports whether the condition was never constructed.
func (c Condition) IsZero() bool { return c.id.IsZero() }

// Equal compares two conditions by value.
func (c Condition) Equal(other Condition) bool {
	if c.id != other.id ||
		c.integrationCode != other.integrationCode ||
		c.conditionCode != other.conditionCode ||
		c.backup != other.backup ||
		len(c.fields) != len(other.fields) {
		return false
	}
	for k, v := range c.fields {
		ov, ok := other.fields[k]
		if !ok || !reflect.DeepEqual(v, ov) {
			return false
		}
	}
	return true
}

// cloneFields copies fields recursively, so nested slices and maps are never
// shared. A nil map becomes an empty one.
func cloneFields(fields map[string]any) map[string]any {
	if len(fields) == 0 {
		return map[string]any{}
	}
	return deepcopy.Copy(fields).(map[string]any)
}
