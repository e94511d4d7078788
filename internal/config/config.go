// Package config provides configuration types and defaults for the automator binary.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/automator/internal/logging"
	"github.com/aretw0/automator/pkg/domain"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override (AUTOMATOR_STORE_DRIVER, ...).
const EnvPrefix = "AUTOMATOR"

// Store drivers.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverRedis  = "redis"
)

// Config holds all configuration options for the automator binary.
type Config struct {
	Addr    string         `mapstructure:"addr"`
	Log     LogConfig      `mapstructure:"log"`
	Catalog CatalogConfig  `mapstructure:"catalog"`
	Store   StoreConfig    `mapstructure:"store"`
	Recipes []RecipeConfig `mapstructure:"recipes"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// CatalogConfig selects where condition definitions come from.
// Path points at a YAML catalog file; Dir at a directory of definition documents.
type CatalogConfig struct {
	Path     string        `mapstructure:"path"`
	Dir      string        `mapstructure:"dir"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
	Watch    bool          `mapstructure:"watch"`
}

// StoreConfig selects the group store and its lock.
type StoreConfig struct {
	Driver  string        `mapstructure:"driver"`
	LockTTL time.Duration `mapstructure:"lock_ttl"`
	File    FileConfig    `mapstructure:"file"`
	Redis   RedisConfig   `mapstructure:"redis"`
}

// FileConfig holds the directory of the file store.
type FileConfig struct {
	Dir string `mapstructure:"dir"`
}

// RedisConfig holds the redis connection used by the redis store and locker.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// RecipeConfig seeds the in-memory action lister.
type RecipeConfig struct {
	ID      int64          `mapstructure:"id"`
	Actions []ActionConfig `mapstructure:"actions"`
}

// ActionConfig is one action of a seeded recipe.
type ActionConfig struct {
	ID   int64  `mapstructure:"action_id"`
	Code string `mapstructure:"code"`
	Name string `mapstructure:"name"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Addr: ":8080",
		Log: LogConfig{
			Level: "info",
		},
		Catalog: CatalogConfig{
			CacheTTL: 5 * time.Minute,
		},
		Store: StoreConfig{
			Driver:  DriverMemory,
			LockTTL: 30 * time.Second,
			File: FileConfig{
				Dir: ".automator/groups",
			},
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "automator:groups:",
			},
		},
	}
}

// SetDefaults registers Defaults on v so that env overrides resolve for every key.
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("addr", d.Addr)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.json", d.Log.JSON)
	v.SetDefault("catalog.path", d.Catalog.Path)
	v.SetDefault("catalog.dir", d.Catalog.Dir)
	v.SetDefault("catalog.cache_ttl", d.Catalog.CacheTTL)
	v.SetDefault("catalog.watch", d.Catalog.Watch)
	v.SetDefault("store.driver", d.Store.Driver)
	v.SetDefault("store.lock_ttl", d.Store.LockTTL)
	v.SetDefault("store.file.dir", d.Store.File.Dir)
	v.SetDefault("store.redis.addr", d.Store.Redis.Addr)
	v.SetDefault("store.redis.password", d.Store.Redis.Password)
	v.SetDefault("store.redis.db", d.Store.Redis.DB)
	v.SetDefault("store.redis.prefix", d.Store.Redis.Prefix)
	v.SetDefault("store.redis.ttl", d.Store.Redis.TTL)
}

// Load reads configuration into a Config.
//
// Lookup order for the file: path when non-empty (missing is an error), then
// ./automator.yaml (missing is fine). Environment variables prefixed with
// EnvPrefix override both.
func Load(v *viper.Viper, path string) (Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("automator")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch c.Store.Driver {
	case DriverMemory, DriverRedis:
	case DriverFile:
		if c.Store.File.Dir == "" {
			return errors.New("store.file.dir: required by the file driver")
		}
	default:
		return fmt.Errorf("store.driver: unknown driver %q (expected %s, %s or %s)", c.Store.Driver, DriverMemory, DriverFile, DriverRedis)
	}
	if c.Catalog.Path != "" && c.Catalog.Dir != "" {
		return errors.New("catalog: path and dir are mutually exclusive")
	}
	for i, r := range c.Recipes {
		if r.ID <= 0 {
			return fmt.Errorf("recipes[%d]: id must be positive", i)
		}
		for j, a := range r.Actions {
			if !domain.ActionID(a.ID).Valid() {
				return fmt.Errorf("recipes[%d].actions[%d]: %w", i, j, domain.ErrInvalidActionID)
			}
		}
	}
	return nil
}

// RecipeActions converts the seeded recipes into domain actions.
func (c Config) RecipeActions() map[domain.RecipeID][]domain.RecipeAction {
	out := make(map[domain.RecipeID][]domain.RecipeAction, len(c.Recipes))
	for _, r := range c.Recipes {
		actions := make([]domain.RecipeAction, 0, len(r.Actions))
		for _, a := range r.Actions {
			actions = append(actions, domain.RecipeAction{ID: domain.ActionID(a.ID), Code: a.Code, Name: a.Name})
		}
		out[domain.RecipeID(r.ID)] = actions
	}
	return out
}
