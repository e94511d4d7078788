package validation

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/aretw0/automator/pkg/domain"
)

// ParseActionIDs converts an untrusted list (as decoded from JSON, YAML or a form) into
// action ids. Every element must be a positive integer; integral floats and numeric
// strings are accepted. It fails with domain.ErrInvalidActionID on the first bad entry.
func ParseActionIDs(raw any) ([]domain.ActionID, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case []domain.ActionID:
		if err := ValidateActionIDsFormat(v); err != nil {
			return nil, err
		}
		return append([]domain.ActionID(nil), v...), nil
	case []int:
		return parseEach(len(v), func(i int) any { return v[i] })
	case []int64:
		return parseEach(len(v), func(i int) any { return v[i] })
	case []float64:
		return parseEach(len(v), func(i int) any { return v[i] })
	case []string:
		return parseEach(len(v), func(i int) any { return v[i] })
	case []any:
		return parseEach(len(v), func(i int) any { return v[i] })
	default:
		return nil, fmt.Errorf("%w: expected a list, got %T", domain.ErrInvalidActionID, raw)
	}
}

func parseEach(n int, at func(int) any) ([]domain.ActionID, error) {
	ids := make([]domain.ActionID, 0, n)
	for i := 0; i < n; i++ {
		id, err := ParseActionID(at(i))
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ValidateActionIDsFormat fails with domain.ErrInvalidActionID if any id is not positive.
func ValidateActionIDsFormat(ids []domain.ActionID) error {
	for _, id := range ids {
		if !id.Valid() {
			return fmt.Errorf("%w: %d is not a positive integer", domain.ErrInvalidActionID, id)
		}
	}
	return nil
}

// ParseActionID converts a single untrusted value into a positive action id.
func ParseActionID(raw any) (domain.ActionID, error) {
	var n int64
	switch v := raw.(type) {
	case domain.ActionID:
		n = int64(v)
	case int:
		n = int64(v)
	case int32:
		n = int64(v)
	case int64:
		n = v
	case uint64:
		if v > math.MaxInt64 {
			return 0, invalidID(raw)
		}
		n = int64(v)
	case float64:
		if v != math.Trunc(v) || v >= math.MaxInt64 || v < math.MinInt64 {
			return 0, invalidID(raw)
		}
		n = int64(v)
	case json.Number:
		parsed, err := v.Int64()
		if err != nil {
			return 0, invalidID(raw)
		}
		n = parsed
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, invalidID(raw)
		}
		n = parsed
	default:
		return 0, invalidID(raw)
	}

	if n <= 0 {
		return 0, invalidID(raw)
	}
	return domain.ActionID(n), nil
}

func invalidID(raw any) error {
	return fmt.Errorf("%w: %v is not a positive integer", domain.ErrInvalidActionID, raw)
}
