// Package naming derives the human-readable label of a condition.
//
// The label is resolved through an ordered list of strategies; the first one that
// yields a non-empty string wins. The final strategy is a constant, so resolution
// never returns "".
package naming

import (
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/aretw0/automator/pkg/domain"
)

// Placeholder is returned when nothing else produces a label.
const Placeholder = "Condition"

const (
	readableSuffix = "_readable"
	labelSuffix    = "_label"
)

// Input is what a Strategy can look at. Definition is nil when the registry has none.
type Input struct {
	Definition    *domain.ConditionDefinition
	ConditionCode string
	Fields        map[string]any
}

// Strategy produces a candidate label, or "" to defer to the next one.
type Strategy func(Input) string

// DefaultStrategies returns the resolution order used by ResolveDynamicName.
func DefaultStrategies() []Strategy {
	return []Strategy{
		fromDefinition(func(d *domain.ConditionDefinition) string { return d.DynamicName }),
		fromDefinition(func(d *domain.ConditionDefinition) string { return d.NameDynamic }),
		fromDefinition(func(d *domain.ConditionDefinition) string { return d.Sentence }),
		fromDefinition(func(d *domain.ConditionDefinition) string { return d.Name }),
		SynthesizedLabel,
		CodeLabel,
		func(Input) string { return Placeholder },
	}
}

// ResolveDynamicName returns the display label for a condition. It is deterministic
// and never returns an empty string.
func ResolveDynamicName(def *domain.ConditionDefinition, conditionCode string, fields map[string]any) string {
	return Resolve(Input{Definition: def, ConditionCode: conditionCode, Fields: fields}, DefaultStrategies()...)
}

// Resolve evaluates strategies in order and stops at the first non-empty result.
// If every strategy defers, Placeholder is returned.
func Resolve(in Input, strategies ...Strategy) string {
	for _, s := range strategies {
		if v := strings.TrimSpace(s(in)); v != "" {
			return v
		}
	}
	return Placeholder
}

func fromDefinition(get func(*domain.ConditionDefinition) string) Strategy {
	return func(in Input) string {
		if in.Definition == nil {
			return ""
		}
		return get(in.Definition)
	}
}

// SynthesizedLabel builds "Label: Value" segments from the fields map.
//
// For each base key (a key with any _readable or _label suffix removed) the value is
// fields[base+"_readable"] or fields[base], and the label is fields[base+"_label"] or
// the base itself. Bases are visited in sorted order; bases whose value normalizes to
// "" are skipped.
func SynthesizedLabel(in Input) string {
	if len(in.Fields) == 0 {
		return ""
	}

	bases := make([]string, 0, len(in.Fields))
	seen := make(map[string]struct{}, len(in.Fields))
	for key := range in.Fields {
		base := baseKey(key)
		if base == "" {
			continue
		}
		if _, ok := seen[base]; ok {
			continue
		}
		seen[base] = struct{}{}
		bases = append(bases, base)
	}
	slices.Sort(bases)

	segments := make([]string, 0, len(bases))
	for _, base := range bases {
		value := firstNonEmpty(in.Fields, base+readableSuffix, base)
		if value == "" {
			continue
		}
		label := firstNonEmpty(in.Fields, base+labelSuffix)
		if label == "" {
			label = base
		}
		segments = append(segments, label+": "+value)
	}
	return strings.Join(segments, " ")
}

// CodeLabel turns the condition code into words ("POST_STATUS" -> "POST STATUS").
func CodeLabel(in Input) string {
	return strings.ReplaceAll(in.ConditionCode, "_", " ")
}

func baseKey(key string) string {
	switch {
	case strings.HasSuffix(key, readableSuffix):
		return strings.TrimSuffix(key, readableSuffix)
	case strings.HasSuffix(key, labelSuffix):
		return strings.TrimSuffix(key, labelSuffix)
	default:
		return key
	}
}

func firstNonEmpty(fields map[string]any, keys ...string) string {
	for _, k := range keys {
		v, ok := fields[k]
		if !ok {
			continue
		}
		if s := NormalizeValue(v); s != "" {
			return s
		}
	}
	return ""
}

// NormalizeValue renders a field value as trimmed text. Collections, maps and
// structs that do not implement fmt.Stringer render as "".
func NormalizeValue(v any) (out string) {
	defer func() {
		if recover() != nil {
			out = ""
		}
	}()

	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case fmt.Stringer:
		return strings.TrimSpace(t.String())
	}

	switch reflect.ValueOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return fmt.Sprint(v)
	case reflect.String:
		return strings.TrimSpace(fmt.Sprint(v))
	default:
		return ""
	}
}
