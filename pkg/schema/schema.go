package schema

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Field is one declared parameter.
type Field struct {
	Type     Type
	Optional bool
}

// Schema maps field names to their declaration.
type Schema map[string]Field

// Parse builds a Schema from field name to type string. A trailing "?" on the
// type string makes the field optional.
func Parse(types map[string]string) (Schema, error) {
	s := make(Schema, len(types))
	for key, raw := range types {
		raw = strings.TrimSpace(raw)
		optional := strings.HasSuffix(raw, "?")
		t, err := ParseType(strings.TrimSuffix(raw, "?"))
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", key, err)
		}
		s[key] = Field{Type: t, Optional: optional}
	}
	return s, nil
}

// Validate checks fields against the schema. Every failure is reported, in key
// order. Undeclared keys are ignored.
func (s Schema) Validate(fields map[string]any) error {
	if len(s) == 0 {
		return nil
	}

	var errs []*FieldError
	for _, key := range slices.Sorted(maps.Keys(s)) {
		decl := s[key]
		value, ok := fields[key]
		if !ok || value == nil {
			if !decl.Optional {
				errs = append(errs, &FieldError{Key: key, Reason: "required"})
			}
			continue
		}
		if err := decl.Type.Validate(value); err != nil {
			errs = append(errs, &FieldError{Key: key, Reason: err.Error(), Value: value})
		}
	}
	if len(errs) > 0 {
		return &Errors{Fields: errs}
	}
	return nil
}

// Validate parses types and checks fields against it in one step.
func Validate(types map[string]string, fields map[string]any) error {
	s, err := Parse(types)
	if err != nil {
		return err
	}
	return s.Validate(fields)
}

// Types renders the schema back into type strings.
func (s Schema) Types() map[string]string {
	out := make(map[string]string, len(s))
	for key, f := range s {
		name := f.Type.Name()
		if f.Optional {
			name += "?"
		}
		out[key] = name
	}
	return out
}
