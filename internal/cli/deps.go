package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/automator"
	"github.com/aretw0/automator/internal/config"
	"github.com/aretw0/automator/internal/watcher"
	"github.com/aretw0/automator/pkg/adapters/cache"
	"github.com/aretw0/automator/pkg/adapters/file"
	"github.com/aretw0/automator/pkg/adapters/loam"
	"github.com/aretw0/automator/pkg/adapters/memory"
	"github.com/aretw0/automator/pkg/adapters/redis"
	"github.com/aretw0/automator/pkg/factory"
	"github.com/aretw0/automator/pkg/groups"
	"github.com/aretw0/automator/pkg/observability"
	"github.com/aretw0/automator/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Deps holds every collaborator the commands need, wired from a Config.
type Deps struct {
	Config  config.Config
	Logger  *slog.Logger
	Catalog *cache.Registry
	Actions *memory.Actions
	Store   ports.GroupStore
	Locker  ports.DistributedLocker
	Engine  *automator.Engine
	Factory *factory.Factory
	Service *groups.Service
	Metrics *observability.Metrics
	// Prometheus is the registry the metrics are exposed from.
	Prometheus *prometheus.Registry
	// Reloader is set when the catalog can be reloaded from its source.
	Reloader *Reloader

	closers []func() error
}

// Build wires the application from cfg. Extra service options are applied after
// the ones derived from cfg.
func Build(ctx context.Context, cfg config.Config, logger *slog.Logger, opts ...groups.Option) (*Deps, error) {
	d := &Deps{
		Config:     cfg,
		Logger:     logger,
		Actions:    memory.NewActions(),
		Prometheus: prometheus.NewRegistry(),
	}

	catalog, reloader, err := BuildCatalog(ctx, cfg.Catalog, logger)
	if err != nil {
		return nil, err
	}
	d.Catalog, d.Reloader = catalog, reloader

	for recipeID, actions := range cfg.RecipeActions() {
		d.Actions.SetRecipe(recipeID, actions...)
	}

	if err := d.buildStore(ctx, cfg.Store); err != nil {
		return nil, err
	}

	d.Prometheus.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	d.Metrics = observability.NewMetrics(d.Prometheus)

	engineOpts := []automator.Option{
		automator.WithRegistry(d.Catalog),
		automator.WithActions(d.Actions),
		automator.WithStore(d.Store),
		automator.WithLogger(logger),
		automator.WithMetrics(d.Metrics),
		automator.WithLockTTL(cfg.Store.LockTTL),
		automator.WithServiceOptions(opts...),
	}
	if d.Locker != nil {
		engineOpts = append(engineOpts, automator.WithLocker(d.Locker))
	}
	eng, err := automator.New(ctx, "", engineOpts...)
	if err != nil {
		return nil, err
	}
	d.Engine = eng
	d.Factory = eng.Factory()
	d.Service = eng.Groups()

	return d, nil
}

// Close releases backend connections.
func (d *Deps) Close() error {
	var errs []error
	for _, c := range d.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

func (d *Deps) buildStore(ctx context.Context, cfg config.StoreConfig) error {
	switch cfg.Driver {
	case config.DriverRedis:
		store := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			redis.WithPrefix(cfg.Redis.Prefix),
			redis.WithTTL(cfg.Redis.TTL),
		)
		if err := store.Client().Ping(ctx).Err(); err != nil {
			_ = store.Close()
			return fmt.Errorf("connecting to redis at %s: %w", cfg.Redis.Addr, err)
		}
		d.Store = store
		d.Locker = redis.NewLocker(store.Client(), cfg.Redis.Prefix)
		d.closers = append(d.closers, store.Close)
		d.Logger.Info("Using redis group store", "addr", cfg.Redis.Addr, "prefix", cfg.Redis.Prefix)
	case config.DriverFile:
		d.Store = file.New(cfg.File.Dir)
		d.Logger.Info("Using file group store", "dir", cfg.File.Dir)
	default:
		d.Store = memory.NewStore()
		d.Logger.Info("Using in-memory group store")
	}
	return nil
}

// BuildCatalog opens the configured condition catalog behind the caching decorator.
// The Reloader is nil unless cfg.Watch is set.
func BuildCatalog(ctx context.Context, cfg config.CatalogConfig, logger *slog.Logger) (*cache.Registry, *Reloader, error) {
	backend, reload, source, err := buildRegistry(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	c := cache.New(backend, cache.WithTTL(cfg.CacheTTL), cache.WithLogger(logger))
	if source == nil {
		return c, nil, nil
	}
	return c, NewReloader(source, reload, c, logger), nil
}

// buildRegistry returns the catalog backend and, when it has a source to follow,
// the Watchable source plus the function applying a change.
func buildRegistry(ctx context.Context, cfg config.CatalogConfig, logger *slog.Logger) (ports.ConditionRegistry, func(context.Context) error, ports.Watchable, error) {
	switch {
	case cfg.Dir != "":
		reg, err := loam.Open(ctx, cfg.Dir, loam.WithLogger(logger))
		if err != nil {
			return nil, nil, nil, fmt.Errorf("opening condition definitions in %s: %w", cfg.Dir, err)
		}
		logger.Info("Loaded condition definitions", "dir", cfg.Dir)
		if !cfg.Watch {
			return reg, nil, nil, nil
		}
		// The loam registry reloads itself before signaling.
		return reg, nil, reg, nil

	case cfg.Path != "":
		reg, err := memory.NewRegistry()
		if err != nil {
			return nil, nil, nil, err
		}
		reload := func(context.Context) error {
			data, err := os.ReadFile(cfg.Path)
			if err != nil {
				return fmt.Errorf("reading condition catalog: %w", err)
			}
			defs, err := memory.ParseCatalog(data)
			if err != nil {
				return err
			}
			return reg.Replace(defs)
		}
		if err := reload(ctx); err != nil {
			return nil, nil, nil, err
		}
		logger.Info("Loaded condition catalog", "path", cfg.Path)
		if !cfg.Watch {
			return reg, nil, nil, nil
		}
		return reg, reload, watcher.Source{Config: watcher.DefaultConfig(cfg.Path)}, nil

	default:
		logger.Warn("No condition catalog configured; every condition will be rejected")
		reg, err := memory.NewRegistry()
		if err != nil {
			return nil, nil, nil, err
		}
		return reg, nil, nil, nil
	}
}
