package domain

import (
	"maps"
	"slices"
)

// ConditionDefinition is the registry record of a condition type.
// Any of the naming fields may be empty; the name resolver falls back through them.
type ConditionDefinition struct {
	IntegrationCode string `json:"integration_code" yaml:"integration_code" mapstructure:"integration_code"`
	ConditionCode   string `json:"condition_code" yaml:"condition_code" mapstructure:"condition_code"`
	IntegrationName string `json:"integration_name,omitempty" yaml:"integration_name,omitempty" mapstructure:"integration_name"`
	DynamicName     string `json:"dynamic_name,omitempty" yaml:"dynamic_name,omitempty" mapstructure:"dynamic_name"`
	NameDynamic     string `json:"name_dynamic,omitempty" yaml:"name_dynamic,omitempty" mapstructure:"name_dynamic"`
	Sentence        string `json:"sentence,omitempty" yaml:"sentence,omitempty" mapstructure:"sentence"`
	Name            string `json:"name,omitempty" yaml:"name,omitempty" mapstructure:"name"`

	// Fields lists the parameter keys the condition accepts, for discovery only.
	Fields []string `json:"fields,omitempty" yaml:"fields,omitempty" mapstructure:"fields"`

	// FieldTypes optionally types the parameters, e.g. {"status": "string", "limit": "int?"}.
	// When set, condition fields are checked against it.
	FieldTypes map[string]string `json:"field_types,omitempty" yaml:"field_types,omitempty" mapstructure:"field_types"`
}

// Key returns the registry key "INTEGRATION/CONDITION".
func (d ConditionDefinition) Key() string {
	return DefinitionKey(d.IntegrationCode, d.ConditionCode)
}

// DefinitionKey joins an integration and condition code into a registry key.
func DefinitionKey(integrationCode, conditionCode string) string {
	return integrationCode + "/" + conditionCode
}

// Clone returns a copy that shares no slices or maps with d.
func (d ConditionDefinition) Clone() ConditionDefinition {
	d.Fields = slices.Clone(d.Fields)
	d.FieldTypes = maps.Clone(d.FieldTypes)
	return d
}
