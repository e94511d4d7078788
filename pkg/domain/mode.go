package domain

import (
	"fmt"
	"strings"
)

// Mode is the boolean combinator applied across a group's conditions.
type Mode struct {
	value string
}

var (
	// ModeAll requires every condition to hold (logical AND).
	ModeAll = Mode{value: "ALL"}
	// ModeAny requires at least one condition to hold (logical OR).
	ModeAny = Mode{value: "ANY"}
)

// ParseMode builds a Mode from its name. Matching ignores case and surrounding
// whitespace, so "all" and " ANY " are accepted; anything else fails with ErrInvalidMode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case ModeAll.value:
		return ModeAll, nil
	case ModeAny.value:
		return ModeAny, nil
	default:
		return Mode{}, fmt.Errorf("%w: %q (expected ALL or ANY)", ErrInvalidMode, s)
	}
}

// MustParseMode is like ParseMode but panics on invalid input. Use it for constants.
func MustParseMode(s string) Mode {
	m, err := ParseMode(s)
	if err != nil {
		panic(err)
	}
	return m
}

// String returns the canonical upper-case name.
func (m Mode) String() string { return m.value }

// IsZero reports whether the mode was never constructed.
func (m Mode) IsZero() bool { return m.value == "" }

// IsAll reports whether the mode is ALL.
func (m Mode) IsAll() bool { return m == ModeAll }

// IsAny reports whether the mode is ANY.
func (m Mode) IsAny() bool { return m == ModeAny }

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	if m.IsZero() {
		return nil, fmt.Errorf("%w: zero value", ErrInvalidMode)
	}
	return []byte(m.value), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
