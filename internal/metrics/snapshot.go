package metrics

import "time"

// Snapshot is the aggregate statistics view handed to UI collaborators.
// It is read-only diagnostics, never a control input.
type Snapshot struct {
	CacheHits      uint64        `json:"cacheHits"`
	CacheMisses    uint64        `json:"cacheMisses"`
	HitRate        float64       `json:"hitRate"`
	PreloadsActive int           `json:"preloadsActive"`
	GPUSuccess     uint64        `json:"gpuSuccess"`
	GPUFallback    uint64        `json:"gpuFallback"`
	GPUSuccessRate float64       `json:"gpuSuccessRate"`
	AvgGPUTime     time.Duration `json:"avgGpuTimeNs"`
}

// SnapshotProvider is implemented by components that can report an
// aggregate statistics snapshot.
type SnapshotProvider interface {
	Stats() Snapshot
}

// Collector periodically refreshes exported gauges from a snapshot
// provider. It exists so gauges track reality even when no request
// traffic is flowing.
type Collector struct {
	provider SnapshotProvider
	interval time.Duration
	stopChan chan struct{}
}

// NewCollector creates a collector polling the provider at the given interval.
func NewCollector(provider SnapshotProvider, interval time.Duration) *Collector {
	return &Collector{
		provider: provider,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start begins the collection loop.
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the collection loop.
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	snap := c.provider.Stats()
	PreloadInFlight.Set(float64(snap.PreloadsActive))
}
