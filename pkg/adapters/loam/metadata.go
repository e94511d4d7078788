package loam

import (
	"strings"

	"github.com/aretw0/automator/pkg/domain"
)

// DefinitionMetadata is the frontmatter (or JSON body) of a condition definition
// document. Keys match the catalog YAML.
type DefinitionMetadata struct {
	IntegrationCode string   `json:"integration_code" mapstructure:"integration_code"`
	ConditionCode   string   `json:"condition_code" mapstructure:"condition_code"`
	IntegrationName string   `json:"integration_name" mapstructure:"integration_name"`
	DynamicName     string   `json:"dynamic_name" mapstructure:"dynamic_name"`
	NameDynamic     string   `json:"name_dynamic" mapstructure:"name_dynamic"`
	Sentence        string   `json:"sentence" mapstructure:"sentence"`
	Name            string   `json:"name" mapstructure:"name"`
	Fields          []string `json:"fields" mapstructure:"fields"`

	FieldTypes map[string]string `json:"field_types" mapstructure:"field_types"`
}

// toDefinition converts metadata plus the markdown body. The body stands in for the
// sentence when the frontmatter has none.
func (m DefinitionMetadata) toDefinition(body string) domain.ConditionDefinition {
	sentence := m.Sentence
	if sentence == "" {
		sentence = strings.TrimSpace(body)
	}
	return domain.ConditionDefinition{
		IntegrationCode: m.IntegrationCode,
		ConditionCode:   m.ConditionCode,
		IntegrationName: m.IntegrationName,
		DynamicName:     m.DynamicName,
		NameDynamic:     m.NameDynamic,
		Sentence:        sentence,
		Name:            m.Name,
		Fields:          m.Fields,
		FieldTypes:      m.FieldTypes,
	}
}
