// Package monitor watches store disk usage and flips a degraded flag that
// the HTTP layer uses to refuse new ingests under disk pressure.
package monitor

import (
	"context"
	"sync"
	"time"

	"mediadex/pkg/logger"
	"mediadex/pkg/store"
	"mediadex/pkg/telemetry"
)

// Config controls thresholds and intervals for the store monitor.
type Config struct {
	PollInterval time.Duration

	// Degrade above high, recover below low. Zero high disables the
	// pressure check; gauges are still refreshed.
	DiskHighBytes uint64
	DiskLowBytes  uint64

	// hysteresis window to consider recovery
	RecoveryWindow time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		PollInterval:   30 * time.Second,
		RecoveryWindow: 2 * time.Minute,
	}
}

// Monitor polls the store and exposes the current pressure state.
type Monitor struct {
	cfg Config

	mu       sync.RWMutex
	degraded bool
	lastHigh time.Time
}

func New(cfg Config) *Monitor {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultConfig().PollInterval
	}
	if cfg.RecoveryWindow <= 0 {
		cfg.RecoveryWindow = DefaultConfig().RecoveryWindow
	}
	if cfg.DiskLowBytes == 0 || cfg.DiskLowBytes > cfg.DiskHighBytes {
		// default recovery point to 75% of the high watermark
		cfg.DiskLowBytes = cfg.DiskHighBytes / 4 * 3
	}
	return &Monitor{cfg: cfg}
}

// Degraded reports whether the store is under disk pressure.
func (m *Monitor) Degraded() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.degraded
}

// Start begins background polling and returns a function to stop it.
func (m *Monitor) Start(ctx context.Context) context.CancelFunc {
	ctx, cancel := context.WithCancel(ctx)
	go func() {
		ticker := time.NewTicker(m.cfg.PollInterval)
		defer ticker.Stop()
		m.poll()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.poll()
			}
		}
	}()
	return cancel
}

func (m *Monitor) poll() {
	telemetry.RefreshStoreGauges()
	if m.cfg.DiskHighBytes == 0 {
		return
	}
	usage := store.DiskUsage()

	m.mu.Lock()
	defer m.mu.Unlock()

	if usage >= m.cfg.DiskHighBytes {
		if !m.degraded {
			logger.Warn("store_monitor_degraded", "disk_bytes", usage, "high_watermark", m.cfg.DiskHighBytes)
		}
		m.degraded = true
		m.lastHigh = time.Now()
		return
	}
	if m.degraded && usage <= m.cfg.DiskLowBytes && time.Since(m.lastHigh) > m.cfg.RecoveryWindow {
		logger.Info("store_monitor_recovered", "disk_bytes", usage)
		m.degraded = false
	}
}
