package tests

import (
	"context"
	"testing"

	"github.com/aretw0/automator/pkg/domain"
	"github.com/aretw0/automator/pkg/ports"
)

// ConditionRegistryContractTest is a reusable test suite that verifies if an adapter
// complies with ports.ConditionRegistry. known must be registered in the adapter.
func ConditionRegistryContractTest(t *testing.T, registry ports.ConditionRegistry, known domain.ConditionDefinition) {
	t.Helper()
	ctx := context.Background()

	t.Run("ConditionExists_Known", func(t *testing.T) {
		ok, err := registry.ConditionExists(ctx, known.IntegrationCode, known.ConditionCode)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !ok {
			t.Errorf("expected %s to exist", known.Key())
		}
	})

	t.Run("ConditionExists_Unknown", func(t *testing.T) {
		ok, err := registry.ConditionExists(ctx, known.IntegrationCode, "NON_EXISTENT_CONDITION")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ok {
			t.Error("expected unknown condition to be absent")
		}
	})

	t.Run("GetConditionDefinition_Found", func(t *testing.T) {
		def, found, err := registry.GetConditionDefinition(ctx, known.IntegrationCode, known.ConditionCode)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !found {
			t.Fatalf("expected definition for %s", known.Key())
		}
		if def.Key() != known.Key() {
			t.Errorf("key mismatch: got %q, want %q", def.Key(), known.Key())
		}
		if def.Name != known.Name {
			t.Errorf("name mismatch: got %q, want %q", def.Name, known.Name)
		}
	})

	t.Run("GetConditionDefinition_NotFound", func(t *testing.T) {
		_, found, err := registry.GetConditionDefinition(ctx, "NOPE", "UNKNOWN")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if found {
			t.Error("expected no definition for an unknown pair")
		}
	})

	if catalog, ok := registry.(ports.ConditionCatalog); ok {
		t.Run("ListConditions", func(t *testing.T) {
			defs, err := catalog.ListConditions(ctx)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for _, d := range defs {
				if d.Key() == known.Key() {
					return
				}
			}
			t.Errorf("catalog does not list %s", known.Key())
		})
	}
}
