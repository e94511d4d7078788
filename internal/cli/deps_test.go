package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/automator/internal/config"
	"github.com/aretw0/automator/internal/logging"
	"github.com/aretw0/automator/pkg/domain"
	"github.com/aretw0/automator/pkg/groups"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogYAML = `
conditions:
  - integration_code: WP
    condition_code: POST_STATUS
    name: Post status
`

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Defaults()
	cfg.Catalog.Path = writeCatalog(t, catalogYAML)
	cfg.Recipes = []config.RecipeConfig{{ID: 7, Actions: []config.ActionConfig{{ID: 10}, {ID: 11}}}}
	return cfg
}

func statusCondition(code string) map[string]any {
	return map[string]any{
		"integration_code": "WP",
		"condition_code":   code,
		"fields":           map[string]any{"status": "publish"},
	}
}

func TestBuild_Memory(t *testing.T) {
	ctx := context.Background()
	d, err := Build(ctx, testConfig(t), logging.NewNop())
	require.NoError(t, err)
	defer d.Close()

	assert.Nil(t, d.Reloader, "watching is off by default")
	assert.Nil(t, d.Locker)

	g, err := d.Service.Create(ctx, 7, groups.CreateRequest{
		ActionIDs:  []domain.ActionID{10},
		Mode:       "ALL",
		Conditions: []map[string]any{statusCondition("POST_STATUS")},
	})
	require.NoError(t, err)
	assert.Equal(t, "Post status", g.Conditions()[0].BackupInfo().DynamicName)

	_, err = d.Service.Create(ctx, 7, groups.CreateRequest{
		Mode:       "ALL",
		Conditions: []map[string]any{statusCondition("UNKNOWN")},
	})
	assert.ErrorIs(t, err, domain.ErrConditionNotFound)

	families, err := d.Prometheus.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "automator_group_operations_total")
	assert.Contains(t, names, "go_goroutines")
}

func TestBuild_MissingCatalog(t *testing.T) {
	cfg := config.Defaults()
	cfg.Catalog.Path = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := Build(context.Background(), cfg, logging.NewNop())
	assert.Error(t, err)
}

func TestBuild_NoCatalogRejectsConditions(t *testing.T) {
	ctx := context.Background()
	cfg := config.Defaults()
	cfg.Recipes = []config.RecipeConfig{{ID: 1, Actions: []config.ActionConfig{{ID: 10}}}}

	d, err := Build(ctx, cfg, logging.NewNop())
	require.NoError(t, err)

	_, err = d.Service.Create(ctx, 1, groups.CreateRequest{
		Mode:       "ANY",
		Conditions: []map[string]any{statusCondition("POST_STATUS")},
	})
	assert.ErrorIs(t, err, domain.ErrConditionNotFound)
}

func TestBuild_Redis(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	cfg := testConfig(t)
	cfg.Store.Driver = config.DriverRedis
	cfg.Store.Redis.Addr = mr.Addr()

	d, err := Build(ctx, cfg, logging.NewNop())
	require.NoError(t, err)
	defer d.Close()
	require.NotNil(t, d.Locker)

	_, err = d.Service.Create(ctx, 7, groups.CreateRequest{ActionIDs: []domain.ActionID{11}, Mode: "ANY"})
	require.NoError(t, err)

	recipes, err := d.Store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.RecipeID{7}, recipes)
	assert.NotEmpty(t, mr.Keys())
}

func TestBuild_File(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	cfg := testConfig(t)
	cfg.Store.Driver = config.DriverFile
	cfg.Store.File.Dir = dir

	d, err := Build(ctx, cfg, logging.NewNop())
	require.NoError(t, err)
	defer d.Close()
	assert.Nil(t, d.Locker)

	_, err = d.Service.Create(ctx, 7, groups.CreateRequest{ActionIDs: []domain.ActionID{10}, Mode: "ALL"})
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "7.json"))

	again, err := Build(ctx, cfg, logging.NewNop())
	require.NoError(t, err)
	listed, err := again.Service.List(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

func TestBuild_RedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := testConfig(t)
	cfg.Store.Driver = config.DriverRedis
	cfg.Store.Redis.Addr = addr

	_, err := Build(context.Background(), cfg, logging.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connecting to redis")
}

func TestBuild_WatchReloadsCatalog(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := testConfig(t)
	cfg.Catalog.Watch = true

	d, err := Build(ctx, cfg, logging.NewNop())
	require.NoError(t, err)
	require.NotNil(t, d.Reloader)

	go func() { _ = d.Reloader.Run(ctx) }()

	exists, err := d.Catalog.ConditionExists(ctx, "WP", "USER_ROLE")
	require.NoError(t, err)
	require.False(t, exists)

	updated := catalogYAML + "  - integration_code: WP\n    condition_code: USER_ROLE\n"
	// Writes are spaced beyond the watcher debounce so each one can fire.
	require.Eventually(t, func() bool {
		_ = os.WriteFile(cfg.Catalog.Path, []byte(updated), 0o644)
		ok, err := d.Catalog.ConditionExists(ctx, "WP", "USER_ROLE")
		return err == nil && ok
	}, 5*time.Second, 400*time.Millisecond)
}
