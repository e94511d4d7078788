package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strings"
)

// Type validates a single field value.
type Type interface {
	Name() string
	Validate(value any) error
}

type stringType struct{}

func (stringType) Name() string { return "string" }

func (stringType) Validate(value any) error {
	if _, ok := value.(string); !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	return nil
}

type intType struct{}

func (intType) Name() string { return "int" }

func (intType) Validate(value any) error {
	switch v := value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return nil
	case float64:
		// JSON and YAML decoders hand whole numbers back as floats.
		return wholeFloat(v)
	case json.Number:
		if _, err := v.Int64(); err == nil {
			return nil
		}
		f, err := v.Float64()
		if err != nil {
			return fmt.Errorf("expected int, got %q", v.String())
		}
		return wholeFloat(f)
	default:
		return fmt.Errorf("expected int, got %T", value)
	}
}

// twoTo63 bounds the floats that convert to int64 exactly.
const twoTo63 = 1 << 63

func wholeFloat(v float64) error {
	if math.IsNaN(v) || v >= twoTo63 || v < -twoTo63 {
		return fmt.Errorf("expected int, got %v out of range", v)
	}
	if v != math.Trunc(v) {
		return fmt.Errorf("expected int, got fractional %v", v)
	}
	return nil
}

type floatType struct{}

func (floatType) Name() string { return "float" }

func (floatType) Validate(value any) error {
	switch v := value.(type) {
	case float32, float64, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return nil
	case json.Number:
		if _, err := v.Float64(); err != nil {
			return fmt.Errorf("expected float, got %q", v.String())
		}
		return nil
	default:
		return fmt.Errorf("expected float, got %T", value)
	}
}

type boolType struct{}

func (boolType) Name() string { return "bool" }

func (boolType) Validate(value any) error {
	if _, ok := value.(bool); !ok {
		return fmt.Errorf("expected bool, got %T", value)
	}
	return nil
}

type anyType struct{}

func (anyType) Name() string { return "any" }

func (anyType) Validate(any) error { return nil }

type sliceType struct {
	elem Type
}

func (t sliceType) Name() string { return "[" + t.elem.Name() + "]" }

func (t sliceType) Validate(value any) error {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return fmt.Errorf("expected %s, got %T", t.Name(), value)
	}
	for i := 0; i < rv.Len(); i++ {
		if err := t.elem.Validate(rv.Index(i).Interface()); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

func String() Type       { return stringType{} }
func Int() Type          { return intType{} }
func Float() Type        { return floatType{} }
func Bool() Type         { return boolType{} }
func Any() Type          { return anyType{} }
func Slice(of Type) Type { return sliceType{elem: of} }

// ParseType converts a type string such as "int" or "[string]" into a Type.
func ParseType(s string) (Type, error) {
	s = strings.TrimSpace(s)
	if len(s) > 2 && s[0] == '[' && s[len(s)-1] == ']' {
		elem, err := ParseType(s[1 : len(s)-1])
		if err != nil {
			return nil, err
		}
		return Slice(elem), nil
	}
	switch s {
	case "string":
		return String(), nil
	case "int":
		return Int(), nil
	case "float":
		return Float(), nil
	case "bool":
		return Bool(), nil
	case "any":
		return Any(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, s)
	}
}
