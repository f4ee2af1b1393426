package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saeedalam/nodewise/internal/logging"
)

type countingLoader struct {
	calls atomic.Int32
	err   error
}

func (l *countingLoader) Load(ctx context.Context) error {
	l.calls.Add(1)
	return l.err
}

// ===== MANAGER TESTS =====

func TestManagerRefreshesPeriodically(t *testing.T) {
	cat := &countingLoader{}
	usage := &countingLoader{}
	patterns := &countingLoader{}
	m := NewManager(Config{
		CatalogInterval: 10 * time.Millisecond,
		StatsInterval:   10 * time.Millisecond,
	}, cat, []Loader{usage, patterns}, logging.Discard())

	require.NoError(t, m.Start())
	assert.True(t, m.IsRunning())

	require.Eventually(t, func() bool {
		return cat.calls.Load() >= 2 && usage.calls.Load() >= 2 && patterns.calls.Load() >= 2
	}, 2*time.Second, 5*time.Millisecond)

	m.Stop()
	assert.False(t, m.IsRunning())

	stats := m.GetStats()
	assert.GreaterOrEqual(t, stats.CatalogRefreshes, 2)
	assert.GreaterOrEqual(t, stats.StatsRefreshes, 2)
	assert.Zero(t, stats.ErrorCount)

	after := cat.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, cat.calls.Load(), "no refresh after Stop")
}

func TestManagerRecordsErrors(t *testing.T) {
	cat := &countingLoader{err: errors.New("source down")}
	m := NewManager(Config{CatalogInterval: 5 * time.Millisecond}, cat, nil, logging.Discard())

	require.NoError(t, m.Start())
	require.Eventually(t, func() bool { return m.GetStats().ErrorCount > 0 }, 2*time.Second, 5*time.Millisecond)
	m.Stop()

	assert.Equal(t, "catalog: source down", m.GetStats().LastError)
}

func TestManagerStartTwice(t *testing.T) {
	m := NewManager(Config{}, &countingLoader{}, nil, logging.Discard())
	require.NoError(t, m.Start())
	defer m.Stop()
	assert.Error(t, m.Start())
}

func TestManagerDefaults(t *testing.T) {
	m := NewManager(Config{}, nil, nil, logging.Discard())
	assert.Equal(t, DefaultConfig(), m.GetConfig())

	m.Stop()
	assert.False(t, m.IsRunning())
}
