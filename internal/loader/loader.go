package loader

import (
	"context"
	"sync"
	"time"

	"photo-pipeline/internal/cache"
	"photo-pipeline/internal/logging"
	"photo-pipeline/internal/media"
	"photo-pipeline/internal/metrics"
	"photo-pipeline/internal/pixel"
	"photo-pipeline/internal/quality"
	"photo-pipeline/internal/store"
	"photo-pipeline/internal/workers"
)

// requestState tracks where a seamless request is in its lifecycle.
type requestState int

const (
	stateIdle requestState = iota
	stateThumbnailServed
	stateOriginalLoading
	stateOriginalServed
	stateFailed
)

// Callback receives a pixel buffer, or nil when the stage failed.
type Callback func(buf *pixel.Buffer)

// Loader serves images thumbnail-first with background original loading.
type Loader struct {
	store       store.Store
	cache       *cache.Tiered
	ladder      *quality.Ladder
	dispatcher  Dispatcher
	pool        *workers.Pool
	previewSize int
}

// Options configures a Loader.
type Options struct {
	Store  store.Store
	Cache  *cache.Tiered
	Ladder *quality.Ladder
	// Dispatcher delivers callbacks; nil means inline delivery.
	Dispatcher Dispatcher
	// Pool runs background loads; nil creates a mixed-workload pool.
	Pool *workers.Pool
	// PreviewSize is the square thumbnail size served first.
	PreviewSize int
}

// New creates a Loader.
func New(opts Options) *Loader {
	if opts.Dispatcher == nil {
		opts.Dispatcher = Immediate{}
	}
	if opts.Pool == nil {
		opts.Pool = workers.NewPool("loader", workers.ForMixed(8), 64)
	}
	if opts.PreviewSize < 1 {
		opts.PreviewSize = 300
	}
	return &Loader{
		store:       opts.Store,
		cache:       opts.Cache,
		ladder:      opts.Ladder,
		dispatcher:  opts.Dispatcher,
		pool:        opts.Pool,
		previewSize: opts.PreviewSize,
	}
}

// request enforces the exactly-once, thumbnail-before-original contract for
// one LoadSeamless call.
type request struct {
	mu          sync.Mutex
	state       requestState
	onThumbnail Callback
	onOriginal  Callback
}

// serveThumbnail delivers the thumbnail callback once; later calls no-op.
func (r *request) serveThumbnail(l *Loader, buf *pixel.Buffer) {
	r.mu.Lock()
	if r.state != stateIdle {
		r.mu.Unlock()
		return
	}
	r.state = stateThumbnailServed
	cb := r.onThumbnail
	r.mu.Unlock()

	if cb != nil {
		l.dispatcher.Dispatch(func() { cb(buf) })
	}
}

// serveOriginal delivers the original callback once, after the thumbnail.
func (r *request) serveOriginal(l *Loader, buf *pixel.Buffer) {
	r.mu.Lock()
	switch r.state {
	case stateOriginalServed, stateFailed:
		r.mu.Unlock()
		return
	case stateIdle:
		// Contract: thumbnail always precedes the original.
		r.mu.Unlock()
		r.serveThumbnail(l, nil)
		r.mu.Lock()
	}
	if buf != nil {
		r.state = stateOriginalServed
	} else {
		r.state = stateFailed
	}
	cb := r.onOriginal
	r.mu.Unlock()

	if cb != nil {
		l.dispatcher.Dispatch(func() { cb(buf) })
	}
}

func (r *request) markLoading() {
	r.mu.Lock()
	if r.state == stateThumbnailServed {
		r.state = stateOriginalLoading
	}
	r.mu.Unlock()
}

// LoadSeamless serves id thumbnail-first.
//
// A cached original short-circuits: both callbacks deliver the original
// before the method returns. Otherwise the cached preview thumbnail (or
// nil) is served
// synchronously, and the original is read, decoded, and cached in the
// background. Cancelling ctx suppresses any callback that has not fired
// yet; cache population still completes.
func (l *Loader) LoadSeamless(ctx context.Context, id string, onThumbnail, onOriginal Callback) {
	req := &request{onThumbnail: onThumbnail, onOriginal: onOriginal}

	if orig, ok := l.cache.GetOriginal(id); ok {
		// Both callbacks receive the same full-resolution buffer: there is
		// nothing to upgrade from, so no lower rendition is shown first.
		req.serveThumbnail(l, orig)
		req.serveOriginal(l, orig)
		metrics.LoadsTotal.WithLabelValues("cache_hit").Inc()
		return
	}

	thumb, _ := l.cache.GetThumbnail(id, l.previewSize, l.previewSize)
	req.serveThumbnail(l, thumb) // nil is the documented "no placeholder" case
	req.markLoading()

	submitted := l.pool.Submit(func() {
		l.loadOriginal(ctx, id, req)
	})
	if !submitted {
		logging.Warn("loader: pool stopped, failing load for %s", id)
		req.serveOriginal(l, nil)
		metrics.LoadsTotal.WithLabelValues("failed").Inc()
	}
}

// loadOriginal is the background stage: read, decode, cache, deliver.
// Cache writes are unconditional so a cancelled request still warms the
// cache for its neighbors.
func (l *Loader) loadOriginal(ctx context.Context, id string, req *request) {
	start := time.Now()

	orig, err := l.fetchAndCache(id)
	metrics.LoadDuration.Observe(time.Since(start).Seconds())

	if ctx.Err() != nil {
		logging.Debug("loader: %s cancelled after %.1fms, callbacks suppressed",
			id, float64(time.Since(start).Microseconds())/1000)
		metrics.LoadsTotal.WithLabelValues("cancelled").Inc()
		return
	}

	if err != nil {
		logging.Warn("loader: load %s failed: %v", id, err)
		req.serveOriginal(l, nil)
		metrics.LoadsTotal.WithLabelValues("failed").Inc()
		return
	}

	req.serveOriginal(l, orig)
	metrics.LoadsTotal.WithLabelValues("loaded").Inc()
}

// fetchAndCache reads and decodes id, caching the original and its preview
// thumbnail. Returns the decoded original.
func (l *Loader) fetchAndCache(id string) (*pixel.Buffer, error) {
	if orig, ok := l.cache.GetOriginal(id); ok {
		return orig, nil
	}

	data, err := l.store.ReadFile(id)
	if err != nil {
		return nil, err
	}
	orig, err := media.DecodeBytes(data)
	if err != nil {
		return nil, err
	}

	l.cache.PutOriginal(id, orig)

	if _, ok := l.cache.GetThumbnail(id, l.previewSize, l.previewSize); !ok {
		thumb, err := l.ladder.Engine().Resample(orig, l.previewSize, l.previewSize)
		if err != nil {
			logging.Warn("loader: preview generation for %s failed: %v", id, err)
		} else {
			l.cache.PutThumbnail(id, l.previewSize, l.previewSize, thumb)
		}
	}
	return orig, nil
}

// Warm loads and caches id without delivering anything. Preload uses this.
func (l *Loader) Warm(ctx context.Context, id string) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	_, err := l.fetchAndCache(id)
	return err
}

// PreviewSize returns the configured preview thumbnail size.
func (l *Loader) PreviewSize() int {
	return l.previewSize
}
