package factory

import (
	"errors"
	"fmt"
	"maps"

	"github.com/aretw0/automator/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// ErrInvalidConditionConfig is returned when a raw condition config cannot be decoded.
var ErrInvalidConditionConfig = errors.New("invalid condition config")

// ConditionConfig is the decoded form of one raw condition config.
type ConditionConfig struct {
	IntegrationCode string         `mapstructure:"integration_code" json:"integration_code" yaml:"integration_code"`
	ConditionCode   string         `mapstructure:"condition_code" json:"condition_code" yaml:"condition_code"`
	Fields          map[string]any `mapstructure:"fields" json:"fields,omitempty" yaml:"fields,omitempty"`
}

// DecodeConditionConfig decodes a raw map (as parsed from JSON or YAML). Unknown
// top-level keys are ignored; both codes are required.
func DecodeConditionConfig(raw map[string]any) (ConditionConfig, error) {
	var cfg ConditionConfig
	if err := mapstructure.Decode(raw, &cfg); err != nil {
		return ConditionConfig{}, fmt.Errorf("%w: %w", ErrInvalidConditionConfig, err)
	}
	if cfg.IntegrationCode == "" {
		return ConditionConfig{}, fmt.Errorf("%w: missing %s", ErrInvalidConditionConfig, domain.KeyIntegrationCode)
	}
	if cfg.ConditionCode == "" {
		return ConditionConfig{}, fmt.Errorf("%w: missing %s", ErrInvalidConditionConfig, domain.KeyConditionCode)
	}
	return cfg, nil
}

var presentationKeys = func() map[string]struct{} {
	keys := make(map[string]struct{})
	for _, k := range domain.PresentationKeys() {
		keys[k] = struct{}{}
	}
	return keys
}()

// StripPresentationKeys returns a copy of fields without any server-owned display key.
// It is the only place caller-supplied presentation metadata is filtered.
func StripPresentationKeys(fields map[string]any) map[string]any {
	out := maps.Clone(fields)
	if out == nil {
		return map[string]any{}
	}
	maps.DeleteFunc(out, func(k string, _ any) bool {
		_, drop := presentationKeys[k]
		return drop
	})
	return out
}
