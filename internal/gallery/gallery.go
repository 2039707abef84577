// Package gallery composes the pipeline: store, tiered cache, resample
// engine, quality ladder, seamless loader, preload scheduler, and memory
// monitor, wired together behind one facade.
package gallery

import (
	"context"
	"fmt"

	"photo-pipeline/internal/cache"
	"photo-pipeline/internal/config"
	"photo-pipeline/internal/loader"
	"photo-pipeline/internal/logging"
	"photo-pipeline/internal/media"
	"photo-pipeline/internal/memory"
	"photo-pipeline/internal/metrics"
	"photo-pipeline/internal/pixel"
	"photo-pipeline/internal/preload"
	"photo-pipeline/internal/quality"
	"photo-pipeline/internal/resample"
	"photo-pipeline/internal/store"
	"photo-pipeline/internal/workers"
)

// Gallery is the composition root for one image library.
type Gallery struct {
	store     store.Store
	cache     *cache.Tiered
	engine    *resample.Engine
	ladder    *quality.Ladder
	loader    *loader.Loader
	scheduler *preload.Scheduler
	monitor   *memory.Monitor

	interactivePool *workers.Pool
	backgroundPool  *workers.Pool
}

// New builds a Gallery from configuration. The dispatcher delivers loader
// callbacks; pass nil for inline delivery.
func New(cfg *config.Config, st store.Store, dispatcher loader.Dispatcher) (*Gallery, error) {
	if st == nil {
		var err error
		st, err = store.NewDirStore(cfg.DataDir)
		if err != nil {
			return nil, err
		}
	}

	engine := resample.NewEngine(resample.Options{DisableGPU: cfg.DisableGPU})
	ladder := quality.NewLadder(engine)
	tiered := cache.NewTiered(
		cfg.OriginalCacheBytes, cfg.OriginalCacheEntries,
		cfg.ThumbCacheBytes, cfg.ThumbCacheEntries,
	)

	interactive := workers.NewPool("interactive", cfg.InteractiveWorkers, 32)
	background := workers.NewPool("background", cfg.BackgroundWorkers, 64)

	ld := loader.New(loader.Options{
		Store:       st,
		Cache:       tiered,
		Ladder:      ladder,
		Dispatcher:  dispatcher,
		Pool:        interactive,
		PreviewSize: cfg.PreviewSize,
	})

	monitor := memory.NewMonitor(memory.Config{
		MemoryLimitBytes:  cfg.MemoryLimitBytes,
		HighWaterMark:     0.7,
		CriticalWaterMark: 0.85,
		CheckInterval:     memory.DefaultConfig().CheckInterval,
	})

	sched := preload.New(preload.Options{
		Warmer:      ld,
		Cached:      tiered.ContainsOriginal,
		Interactive: interactive,
		Background:  background,
		Throttled:   monitor.ShouldThrottle,
	})

	monitor.OnPressure(tiered.Clear)
	monitor.OnPressure(sched.Clear)
	monitor.Start()

	g := &Gallery{
		store:           st,
		cache:           tiered,
		engine:          engine,
		ladder:          ladder,
		loader:          ld,
		scheduler:       sched,
		monitor:         monitor,
		interactivePool: interactive,
		backgroundPool:  background,
	}
	logging.Info("gallery: ready (gpu=%v, preview=%dpx, preload radius default=%d)",
		engine.Stats().GPUAvailable, cfg.PreviewSize, cfg.PreloadRadius)
	return g, nil
}

// Ingest stores image bytes and eagerly generates every ladder level so all
// renditions are cache-ready before first display.
func (g *Gallery) Ingest(id string, data []byte) error {
	if err := g.store.WriteFile(id, data); err != nil {
		return err
	}

	src, err := media.DecodeBytes(data)
	if err != nil {
		return fmt.Errorf("gallery: ingest %s: %w", id, err)
	}

	renditions, err := g.ladder.GenerateAll(src)
	if err != nil {
		return fmt.Errorf("gallery: ingest %s: %w", id, err)
	}
	for level, buf := range renditions {
		if level == quality.Full {
			g.cache.PutOriginal(id, buf)
			continue
		}
		size := level.Size()
		g.cache.PutThumbnail(id, size, size, buf)
	}
	logging.Debug("gallery: ingested %s (%dx%d, %d renditions)",
		id, src.Width(), src.Height(), len(renditions))
	return nil
}

// LoadSeamless serves id thumbnail-first. See loader.Loader.LoadSeamless.
func (g *Gallery) LoadSeamless(ctx context.Context, id string, onThumbnail, onOriginal loader.Callback) {
	g.loader.LoadSeamless(ctx, id, onThumbnail, onOriginal)
}

// LoadProgressive serves ascending renditions of id. See
// loader.Loader.LoadProgressive.
func (g *Gallery) LoadProgressive(ctx context.Context, id string, onLevel loader.LevelCallback) {
	g.loader.LoadProgressive(ctx, id, onLevel)
}

// Thumbnail returns a rendition of id at the given dimensions, generating
// and caching it on a miss.
func (g *Gallery) Thumbnail(ctx context.Context, id string, width, height int) (*pixel.Buffer, error) {
	if buf, ok := g.cache.GetThumbnail(id, width, height); ok {
		return buf, nil
	}
	if err := g.loader.Warm(ctx, id); err != nil {
		return nil, err
	}
	orig, ok := g.cache.GetOriginal(id)
	if !ok {
		return nil, store.ErrNotFound
	}
	buf, err := g.engine.Resample(orig, width, height)
	if err != nil {
		return nil, err
	}
	g.cache.PutThumbnail(id, width, height, buf)
	return buf, nil
}

// Original returns the full-resolution buffer for id, loading on a miss.
func (g *Gallery) Original(ctx context.Context, id string) (*pixel.Buffer, error) {
	if buf, ok := g.cache.GetOriginal(id); ok {
		return buf, nil
	}
	if err := g.loader.Warm(ctx, id); err != nil {
		return nil, err
	}
	buf, ok := g.cache.GetOriginal(id)
	if !ok {
		return nil, store.ErrNotFound
	}
	return buf, nil
}

// PreloadVisible warms the neighbor window around currentIndex.
func (g *Gallery) PreloadVisible(ctx context.Context, ids []string, currentIndex, radius int) int {
	return g.scheduler.PreloadVisible(ctx, ids, currentIndex, radius)
}

// Cached reports whether the full-resolution buffer for id is resident.
// Purely observational: recency and hit/miss counters are untouched.
func (g *Gallery) Cached(id string) bool {
	return g.cache.ContainsOriginal(id)
}

// Remove deletes id from the store and drops its cached renditions.
func (g *Gallery) Remove(id string) error {
	g.cache.Remove(id)
	return g.store.DeleteFile(id)
}

// List returns every stored identifier.
func (g *Gallery) List() ([]string, error) {
	return g.store.List()
}

// TriggerMemoryPressure fires the pressure handlers immediately.
func (g *Gallery) TriggerMemoryPressure() {
	g.monitor.TriggerPressure()
}

// Stats assembles the aggregate snapshot for UI collaborators.
func (g *Gallery) Stats() metrics.Snapshot {
	cacheStats := g.cache.Stats()
	engineStats := g.engine.Stats()

	hits := cacheStats.Originals.Hits + cacheStats.Thumbnails.Hits
	misses := cacheStats.Originals.Misses + cacheStats.Thumbnails.Misses
	var hitRate float64
	if hits+misses > 0 {
		hitRate = float64(hits) / float64(hits+misses)
	}

	return metrics.Snapshot{
		CacheHits:      hits,
		CacheMisses:    misses,
		HitRate:        hitRate,
		PreloadsActive: g.scheduler.InFlight(),
		GPUSuccess:     engineStats.GPUSuccess,
		GPUFallback:    engineStats.GPUFallback,
		GPUSuccessRate: engineStats.GPUSuccessRate,
		AvgGPUTime:     engineStats.AvgGPUTime,
	}
}

// Close shuts everything down: monitor, pools, GPU resources.
func (g *Gallery) Close() {
	g.monitor.Stop()
	g.scheduler.Stop()
	g.engine.Close()
	logging.Info("gallery: closed")
}
