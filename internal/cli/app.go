package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/saeedalam/nodewise/internal/catalog"
	"github.com/saeedalam/nodewise/internal/config"
	"github.com/saeedalam/nodewise/internal/logging"
	"github.com/saeedalam/nodewise/internal/recommend"
	"github.com/saeedalam/nodewise/internal/stats"
	"github.com/saeedalam/nodewise/internal/worker"
)

// app holds the components built from a Config for one command run.
type app struct {
	cfg      *config.Config
	redis    redis.UniversalClient
	backend  stats.Backend
	catalog  *catalog.Catalog
	stats    *stats.Store
	patterns *stats.PatternStore
	engine   *recommend.Engine
	logger   *slog.Logger
}

// newApp connects the configured backends. Nothing is loaded yet.
func newApp(ctx context.Context, c *config.Config) (*app, error) {
	a := &app{cfg: c, logger: logging.New("cli")}

	if c.UsesRedis() {
		client, err := stats.Dial(ctx, stats.RedisOptions{
			Addr:     c.Redis.Addr,
			Username: c.Redis.Username,
			Password: c.Redis.Password,
			DB:       c.Redis.DB,
		})
		if err != nil {
			return nil, err
		}
		a.redis = client
	}

	switch c.Stats.Backend {
	case config.BackendRedis:
		a.backend = stats.NewRedisBackend(a.redis, c.Redis.KeyPrefix)
	case config.BackendSQLite:
		b, err := stats.OpenSQLite(c.SQLite.Path)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("opening stats database: %w", err)
		}
		a.backend = b
	default:
		a.backend = stats.NewMemoryBackend()
	}

	var cache catalog.Cache = catalog.NopCache{}
	if c.Catalog.Cache == "redis" && a.redis != nil {
		cache = catalog.NewRedisCache(a.redis, c.Redis.KeyPrefix)
	}

	a.catalog = catalog.New(catalog.NewSource(c.Catalog.Source, c.Catalog.APIKey), cache, catalog.Options{
		TTL:    c.Catalog.TTL,
		Logger: logging.New("catalog"),
	})
	a.stats = stats.NewStore(a.backend, logging.New("stats"))
	a.patterns = stats.NewPatternStore(a.backend, logging.New("patterns"))
	a.engine = recommend.New(a.catalog, a.stats, a.patterns, recommend.Options{
		DefaultLimit: c.Engine.DefaultLimit,
		Parallel:     c.Engine.Parallel,
		Logger:       logging.New("engine"),
	})
	return a, nil
}

// refresher builds the background refresh loops for long-running commands.
func (a *app) refresher() *worker.Manager {
	return worker.NewManager(worker.Config{
		CatalogInterval: a.cfg.Catalog.TTL,
		StatsInterval:   a.cfg.Stats.RefreshInterval,
	}, a.catalog, []worker.Loader{a.stats, a.patterns}, logging.New("worker"))
}

func (a *app) recorder() *stats.Recorder {
	return stats.NewRecorder(a.backend, logging.New("recorder"))
}

// Close releases the stats backend and the Redis connection.
func (a *app) Close() {
	if a.backend != nil {
		if err := a.backend.Close(); err != nil {
			a.logger.Warn("closing stats backend", "error", err)
		}
	}
	if a.redis != nil && a.cfg.Stats.Backend != config.BackendRedis {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("closing redis", "error", err)
		}
	}
}
