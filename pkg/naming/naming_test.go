package naming

import (
	"testing"
	"time"

	"github.com/aretw0/automator/pkg/domain"
	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestResolveDynamicName_Priority(t *testing.T) {
	full := &domain.ConditionDefinition{
		DynamicName: "dynamic",
		NameDynamic: "name dynamic",
		Sentence:    "sentence",
		Name:        "name",
	}
	fields := map[string]any{"status": "publish"}

	tests := []struct {
		name string
		def  *domain.ConditionDefinition
		code string
		want string
	}{
		{"dynamic name wins", full, "POST_STATUS", "dynamic"},
		{"name dynamic", &domain.ConditionDefinition{NameDynamic: "name dynamic", Sentence: "s"}, "POST_STATUS", "name dynamic"},
		{"sentence", &domain.ConditionDefinition{Sentence: "  sentence  ", Name: "n"}, "POST_STATUS", "sentence"},
		{"name", &domain.ConditionDefinition{Name: "name"}, "POST_STATUS", "name"},
		{"blank definition falls through to fields", &domain.ConditionDefinition{DynamicName: "   "}, "POST_STATUS", "status: publish"},
		{"nil definition falls through to fields", nil, "POST_STATUS", "status: publish"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveDynamicName(tt.def, tt.code, fields))
		})
	}
}

func TestResolveDynamicName_Fallbacks(t *testing.T) {
	assert.Equal(t, "POST STATUS", ResolveDynamicName(nil, "POST_STATUS", nil))
	assert.Equal(t, "POST STATUS", ResolveDynamicName(nil, "POST_STATUS", map[string]any{"tags": []string{"a"}}))
	assert.Equal(t, Placeholder, ResolveDynamicName(nil, "", nil))
	assert.Equal(t, Placeholder, ResolveDynamicName(&domain.ConditionDefinition{}, "", map[string]any{}))
}

func TestSynthesizedLabel(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]any
		want   string
	}{
		{
			name:   "label suffix",
			fields: map[string]any{"STATUS": "publish", "STATUS_label": "Status"},
			want:   "Status: publish",
		},
		{
			name:   "readable preferred over raw value",
			fields: map[string]any{"POST": "42", "POST_readable": "Hello world", "POST_label": "Post"},
			want:   "Post: Hello world",
		},
		{
			name:   "bases sorted and joined by single spaces",
			fields: map[string]any{"b": "2", "a": "1"},
			want:   "a: 1 b: 2",
		},
		{
			name:   "non stringable values skipped",
			fields: map[string]any{"list": []any{"x"}, "obj": map[string]any{"k": 1}, "n": 3.0},
			want:   "n: 3",
		},
		{
			name:   "label without value skipped",
			fields: map[string]any{"ROLE_label": "Role"},
			want:   "",
		},
		{
			name:   "empty readable falls back to raw",
			fields: map[string]any{"ID": 7, "ID_readable": "  "},
			want:   "ID: 7",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SynthesizedLabel(Input{Fields: tt.fields}))
		})
	}
}

func TestNormalizeValue(t *testing.T) {
	var nilStringer *time.Location

	assert.Equal(t, "", NormalizeValue(nil))
	assert.Equal(t, "abc", NormalizeValue("  abc "))
	assert.Equal(t, "true", NormalizeValue(true))
	assert.Equal(t, "12", NormalizeValue(12))
	assert.Equal(t, "1.5", NormalizeValue(1.5))
	assert.Equal(t, "", NormalizeValue([]int{1}))
	assert.Equal(t, "", NormalizeValue(struct{ A int }{1}))
	assert.Equal(t, "2s", NormalizeValue(2*time.Second))
	assert.NotPanics(t, func() { NormalizeValue(nilStringer) })
}

func TestResolve_CustomStrategies(t *testing.T) {
	calls := 0
	counting := func(Input) string { calls++; return "" }
	got := Resolve(Input{}, func(Input) string { return "first" }, counting)
	assert.Equal(t, "first", got)
	assert.Zero(t, calls, "strategies after a match must not run")

	assert.Equal(t, Placeholder, Resolve(Input{}, counting))
}

func TestResolveDynamicName_NeverEmpty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var def *domain.ConditionDefinition
		if rapid.Bool().Draw(t, "hasDefinition") {
			def = &domain.ConditionDefinition{
				DynamicName: rapid.String().Draw(t, "dynamic"),
				Name:        rapid.String().Draw(t, "name"),
			}
		}
		code := rapid.String().Draw(t, "code")
		keys := rapid.SliceOf(rapid.StringMatching(`[A-Za-z_]{0,8}`)).Draw(t, "keys")
		fields := make(map[string]any, len(keys))
		for i, k := range keys {
			switch i % 3 {
			case 0:
				fields[k] = rapid.String().Draw(t, "value")
			case 1:
				fields[k] = []any{k}
			default:
				fields[k] = rapid.Int().Draw(t, "number")
			}
		}

		got := ResolveDynamicName(def, code, fields)
		if got == "" {
			t.Fatalf("empty label for def=%v code=%q fields=%v", def, code, fields)
		}
		if again := ResolveDynamicName(def, code, fields); again != got {
			t.Fatalf("non deterministic: %q vs %q", got, again)
		}
	})
}
