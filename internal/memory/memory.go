package memory

import (
	"math"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"photo-pipeline/internal/logging"
	"photo-pipeline/internal/metrics"
)

// Config holds memory monitoring configuration.
type Config struct {
	// MemoryLimitBytes is the soft memory limit (0 = use GOMEMLIMIT or no limit)
	MemoryLimitBytes int64

	// HighWaterMark is the fraction of limit below which pressure re-arms (0.0-1.0)
	HighWaterMark float64

	// CriticalWaterMark is the fraction at which pressure handlers fire (0.0-1.0)
	CriticalWaterMark float64

	// CheckInterval is how often to sample memory usage
	CheckInterval time.Duration
}

// DefaultConfig returns sensible defaults for memory monitoring.
func DefaultConfig() Config {
	return Config{
		MemoryLimitBytes:  0, // Use GOMEMLIMIT if set
		HighWaterMark:     0.7,
		CriticalWaterMark: 0.85,
		CheckInterval:     5 * time.Second,
	}
}

// PressureHandler is invoked when heap usage crosses the critical
// watermark. Handlers must be fast and must not allocate heavily.
type PressureHandler func()

// Monitor tracks heap usage and fires pressure handlers at the critical
// watermark.
type Monitor struct {
	config   Config
	limit    int64
	stopChan chan struct{}
	stopOnce sync.Once

	mu       sync.RWMutex
	current  uint64
	inEvent  bool
	handlers []PressureHandler
}

// NewMonitor creates a monitor. With no explicit limit it falls back to
// GOMEMLIMIT; with neither, pressure signaling is disabled.
func NewMonitor(config Config) *Monitor {
	limit := config.MemoryLimitBytes

	if limit == 0 {
		if goMemLimit := debug.SetMemoryLimit(-1); goMemLimit > 0 && goMemLimit < 1<<62 {
			limit = goMemLimit
			logging.Info("memory: monitor using GOMEMLIMIT: %d bytes (%.1f MB)", limit, float64(limit)/(1024*1024))
		}
	}

	if limit == 0 {
		logging.Warn("memory: no memory limit configured, pressure signaling disabled")
	}

	return &Monitor{
		config:   config,
		limit:    limit,
		stopChan: make(chan struct{}),
	}
}

// OnPressure registers a handler fired at the critical watermark.
// Register before Start.
func (m *Monitor) OnPressure(h PressureHandler) {
	if h == nil {
		return
	}
	m.mu.Lock()
	m.handlers = append(m.handlers, h)
	m.mu.Unlock()
}

// Start begins the sampling loop. A monitor without a limit does nothing.
func (m *Monitor) Start() {
	if m.limit == 0 {
		return
	}
	go m.monitorLoop()
}

// Stop halts the sampling loop. Safe to call more than once.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopChan) })
}

func (m *Monitor) monitorLoop() {
	ticker := time.NewTicker(m.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.checkMemory()
		case <-m.stopChan:
			return
		}
	}
}

func (m *Monitor) checkMemory() {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	m.mu.Lock()
	m.current = stats.Alloc

	var fire bool
	if m.limit > 0 {
		usage := float64(stats.Alloc) / float64(m.limit)
		metrics.MemoryUsageRatio.Set(usage)

		if usage >= m.config.CriticalWaterMark {
			if !m.inEvent {
				logging.Warn("memory: critical (%.1f%% of limit), firing pressure handlers", usage*100)
				m.inEvent = true
				fire = true
			}
		} else if usage < m.config.HighWaterMark {
			if m.inEvent {
				logging.Info("memory: recovered (%.1f%% of limit)", usage*100)
				m.inEvent = false
			}
		}
	}
	m.mu.Unlock()

	if fire {
		m.firePressure()
	}
}

// TriggerPressure fires the pressure handlers immediately, regardless of
// current usage. Used by tests and the SIGUSR1 handler.
func (m *Monitor) TriggerPressure() {
	logging.Info("memory: pressure triggered explicitly")
	m.firePressure()
}

func (m *Monitor) firePressure() {
	m.mu.RLock()
	handlers := make([]PressureHandler, len(m.handlers))
	copy(handlers, m.handlers)
	m.mu.RUnlock()

	for _, h := range handlers {
		h()
	}
	metrics.MemoryPressureEvents.Inc()
	runtime.GC()
}

// ShouldThrottle reports whether usage is above the high watermark.
// Background work checks this before scheduling more load.
func (m *Monitor) ShouldThrottle() bool {
	if m.limit == 0 {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return float64(m.current) >= float64(m.limit)*m.config.HighWaterMark
}

// GetUsage returns heap usage as a fraction of the limit (0 without one).
func (m *Monitor) GetUsage() float64 {
	if m.limit == 0 {
		return 0
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return float64(m.current) / float64(m.limit)
}

// GetStats returns current heap allocation, the limit, and the usage ratio.
func (m *Monitor) GetStats() (current, limit int64, usage float64) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var currentInt64 int64
	if m.current > math.MaxInt64 {
		currentInt64 = math.MaxInt64
	} else {
		currentInt64 = int64(m.current)
	}

	var usageRatio float64
	if m.limit > 0 {
		usageRatio = float64(m.current) / float64(m.limit)
	}
	return currentInt64, m.limit, usageRatio
}
