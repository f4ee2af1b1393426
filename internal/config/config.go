// Package config loads nodewise settings from a YAML file, NODEWISE_*
// environment variables and command-line flags, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// NODEWISE_REDIS_ADDR for redis.addr.
const EnvPrefix = "NODEWISE"

// Stats backends.
const (
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Config is the full runtime configuration.
type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Catalog CatalogConfig `mapstructure:"catalog"`
	Stats   StatsConfig   `mapstructure:"stats"`
	Redis   RedisConfig   `mapstructure:"redis"`
	SQLite  SQLiteConfig  `mapstructure:"sqlite"`
	Engine  EngineConfig  `mapstructure:"engine"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CatalogConfig selects where node types come from. Source is a file path
// (.json, .yaml, .yml) or an http(s) URL.
type CatalogConfig struct {
	Source string        `mapstructure:"source"`
	TTL    time.Duration `mapstructure:"ttl"`
	// Cache is "redis" to share the fetched catalog through Redis, or "none".
	Cache string `mapstructure:"cache"`
	// APIKey is sent as X-N8N-API-KEY when Source is a URL.
	APIKey string `mapstructure:"api_key"`
}

type StatsConfig struct {
	Backend         string        `mapstructure:"backend"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
}

type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

type EngineConfig struct {
	DefaultLimit int  `mapstructure:"default_limit"`
	Parallel     bool `mapstructure:"parallel"`
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("catalog.source", "nodes.json")
	v.SetDefault("catalog.ttl", time.Hour)
	v.SetDefault("catalog.cache", "redis")
	v.SetDefault("catalog.api_key", "")
	v.SetDefault("stats.backend", BackendRedis)
	v.SetDefault("stats.refresh_interval", 5*time.Minute)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.username", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "")
	v.SetDefault("sqlite.path", "nodewise.db")
	v.SetDefault("engine.default_limit", 10)
	v.SetDefault("engine.parallel", true)
}

// Load reads configuration. path may be empty, in which case nodewise.yaml
// is looked up in the working directory and $HOME/.config/nodewise; a
// missing file is not an error then. Flags in fs whose names match a key
// with dots replaced by dashes (e.g. --redis-addr) override everything.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("nodewise")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/nodewise")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	if fs != nil {
		for _, key := range v.AllKeys() {
			if f := fs.Lookup(strings.ReplaceAll(key, ".", "-")); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag %s: %w", f.Name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	switch c.Stats.Backend {
	case BackendRedis, BackendSQLite, BackendMemory:
	default:
		return fmt.Errorf("unknown stats backend %q", c.Stats.Backend)
	}
	switch c.Catalog.Cache {
	case "redis", "none":
	default:
		return fmt.Errorf("unknown catalog cache %q", c.Catalog.Cache)
	}
	if c.Catalog.TTL <= 0 {
		return errors.New("catalog.ttl must be positive")
	}
	if c.Stats.RefreshInterval <= 0 {
		return errors.New("stats.refresh_interval must be positive")
	}
	if c.Engine.DefaultLimit <= 0 {
		return errors.New("engine.default_limit must be positive")
	}
	return nil
}

// UsesRedis reports whether any component needs a Redis connection.
func (c *Config) UsesRedis() bool {
	return c.Stats.Backend == BackendRedis || c.Catalog.Cache == "redis"
}
