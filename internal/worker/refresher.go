// Package worker runs the background refresh loops that keep the catalog
// and the usage stats current while the engine serves requests.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/saeedalam/nodewise/internal/logging"
)

// Loader is anything refreshed by a periodic Load call.
type Loader interface {
	Load(ctx context.Context) error
}

// Config configures the background workers
type Config struct {
	CatalogInterval time.Duration `json:"catalog_interval"` // How often to check the catalog TTL
	StatsInterval   time.Duration `json:"stats_interval"`   // How often to reload counters and patterns
	LoadTimeout     time.Duration `json:"load_timeout"`     // Upper bound for one refresh
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		CatalogInterval: 5 * time.Minute,
		StatsInterval:   time.Minute,
		LoadTimeout:     30 * time.Second,
	}
}

// Manager manages background workers
type Manager struct {
	config  Config
	catalog Loader
	stats   []Loader
	logger  *slog.Logger

	stopChan chan struct{}
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	mu       sync.RWMutex
	running  bool

	// Statistics
	counters Stats
}

// Stats tracks worker activity
type Stats struct {
	CatalogRefreshes int       `json:"catalog_refreshes"`
	StatsRefreshes   int       `json:"stats_refreshes"`
	LastCatalog      time.Time `json:"last_catalog"`
	LastStats        time.Time `json:"last_stats"`
	ErrorCount       int       `json:"error_count"`
	LastError        string    `json:"last_error,omitempty"`
}

// NewManager creates a worker manager refreshing catalog on one loop and
// every stats loader on another. Zero intervals fall back to DefaultConfig.
func NewManager(config Config, catalog Loader, stats []Loader, logger *slog.Logger) *Manager {
	def := DefaultConfig()
	if config.CatalogInterval <= 0 {
		config.CatalogInterval = def.CatalogInterval
	}
	if config.StatsInterval <= 0 {
		config.StatsInterval = def.StatsInterval
	}
	if config.LoadTimeout <= 0 {
		config.LoadTimeout = def.LoadTimeout
	}
	if logger == nil {
		logger = logging.New("worker")
	}
	return &Manager{
		config:   config,
		catalog:  catalog,
		stats:    stats,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// GetConfig returns current configuration
func (m *Manager) GetConfig() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// Start begins background workers
func (m *Manager) Start() error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return fmt.Errorf("workers already running")
	}
	m.running = true
	m.stopChan = make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.mu.Unlock()

	if m.catalog != nil {
		m.wg.Add(1)
		go m.loop(ctx, m.config.CatalogInterval, m.refreshCatalog)
	}
	if len(m.stats) > 0 {
		m.wg.Add(1)
		go m.loop(ctx, m.config.StatsInterval, m.refreshStats)
	}

	m.logger.Info("workers started",
		"catalog_interval", m.config.CatalogInterval,
		"stats_interval", m.config.StatsInterval)
	return nil
}

// Stop halts all background workers and waits for in-flight refreshes.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	close(m.stopChan)
	m.cancel()
	m.mu.Unlock()

	m.wg.Wait()
	m.logger.Info("workers stopped")
}

// IsRunning returns whether workers are active
func (m *Manager) IsRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}

// GetStats returns worker statistics
func (m *Manager) GetStats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.counters
}

func (m *Manager) loop(ctx context.Context, interval time.Duration, refresh func(context.Context)) {
	defer m.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopChan:
			return
		case <-ticker.C:
			refresh(ctx)
		}
	}
}

// refreshCatalog asks the catalog to reload; the catalog itself skips the
// fetch while its snapshot is younger than the TTL.
func (m *Manager) refreshCatalog(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, m.config.LoadTimeout)
	defer cancel()

	err := m.catalog.Load(ctx)

	m.mu.Lock()
	m.counters.CatalogRefreshes++
	m.counters.LastCatalog = time.Now()
	m.mu.Unlock()

	if err != nil {
		m.recordError("catalog", err)
	}
}

func (m *Manager) refreshStats(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, m.config.LoadTimeout)
	defer cancel()

	var failed error
	for _, l := range m.stats {
		if err := l.Load(ctx); err != nil && failed == nil {
			failed = err
		}
	}

	m.mu.Lock()
	m.counters.StatsRefreshes++
	m.counters.LastStats = time.Now()
	m.mu.Unlock()

	if failed != nil {
		m.recordError("stats", failed)
	}
}

func (m *Manager) recordError(target string, err error) {
	m.mu.Lock()
	m.counters.ErrorCount++
	m.counters.LastError = fmt.Sprintf("%s: %v", target, err)
	m.mu.Unlock()

	m.logger.Warn("background refresh failed", "target", target, "error", err)
}
