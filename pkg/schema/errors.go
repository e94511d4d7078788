package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedType is returned for a type string the parser does not know.
var ErrUnsupportedType = errors.New("unsupported field type")

// FieldError is one field that failed validation.
type FieldError struct {
	Key    string
	Reason string
	Value  any
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q: %s", e.Key, e.Reason)
}

// Errors collects every FieldError of one validation.
type Errors struct {
	Fields []*FieldError
}

func (e *Errors) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Error())
	}
	return strings.Join(msgs, "; ")
}

// FieldErrors returns the individual failures if err is (or wraps) an *Errors.
func FieldErrors(err error) []*FieldError {
	var target *Errors
	if errors.As(err, &target) {
		return target.Fields
	}
	return nil
}
