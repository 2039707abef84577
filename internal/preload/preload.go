// Package preload warms the cache for images near the user's position.
//
// Scheduler tracks in-flight identifiers in a mutex-guarded set so rapid
// navigation cannot schedule the same image twice. The image under the
// cursor goes to the interactive pool; its neighbors go to the background
// pool, which never competes with user-facing loads for workers.
package preload

import (
	"context"
	"sync"

	"photo-pipeline/internal/logging"
	"photo-pipeline/internal/metrics"
	"photo-pipeline/internal/workers"
)

// Warmer loads one image into the cache. *loader.Loader satisfies this.
type Warmer interface {
	Warm(ctx context.Context, id string) error
}

// Cached reports whether an image is already resident. Used to skip work.
type Cached func(id string) bool

const (
	priorityHigh       = "high"
	priorityBackground = "background"
)

// Scheduler dedupes and dispatches preload work across two pools.
type Scheduler struct {
	warmer      Warmer
	cached      Cached
	throttled   func() bool
	interactive *workers.Pool
	background  *workers.Pool

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// Options configures a Scheduler.
type Options struct {
	Warmer Warmer
	// Cached may be nil, in which case nothing is skipped as resident.
	Cached Cached
	// Throttled pauses the background lane while it returns true (memory
	// pressure). Interactive loads always go through. May be nil.
	Throttled func() bool
	// Interactive runs the current image's load; nil creates a pool.
	Interactive *workers.Pool
	// Background runs neighbor prefetch; nil creates a pool.
	Background *workers.Pool
}

// New creates a Scheduler.
func New(opts Options) *Scheduler {
	if opts.Interactive == nil {
		opts.Interactive = workers.NewPool("preload-interactive", workers.ForMixed(8), 32)
	}
	if opts.Background == nil {
		opts.Background = workers.NewPool("preload-background", workers.ForIO(4), 64)
	}
	if opts.Cached == nil {
		opts.Cached = func(string) bool { return false }
	}
	if opts.Throttled == nil {
		opts.Throttled = func() bool { return false }
	}
	return &Scheduler{
		warmer:      opts.Warmer,
		cached:      opts.Cached,
		throttled:   opts.Throttled,
		interactive: opts.Interactive,
		background:  opts.Background,
		inFlight:    make(map[string]struct{}),
	}
}

// tryAcquire atomically claims id, returning false if already in flight.
func (s *Scheduler) tryAcquire(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[id]; busy {
		return false
	}
	s.inFlight[id] = struct{}{}
	return true
}

func (s *Scheduler) release(id string) {
	s.mu.Lock()
	delete(s.inFlight, id)
	s.mu.Unlock()
	metrics.PreloadInFlight.Dec()
}

// PreloadVisible schedules loads for the window of radius neighbors around
// currentIndex, clamped to the slice bounds. The current image uses the
// interactive pool; neighbors use the background pool. Images already
// cached or in flight are skipped. Returns how many loads were scheduled.
func (s *Scheduler) PreloadVisible(ctx context.Context, ids []string, currentIndex, radius int) int {
	if len(ids) == 0 || currentIndex < 0 || currentIndex >= len(ids) || radius < 0 {
		return 0
	}

	lo := currentIndex - radius
	if lo < 0 {
		lo = 0
	}
	hi := currentIndex + radius
	if hi > len(ids)-1 {
		hi = len(ids) - 1
	}

	scheduled := 0
	for i := lo; i <= hi; i++ {
		priority := priorityBackground
		pool := s.background
		if i == currentIndex {
			priority = priorityHigh
			pool = s.interactive
		}
		if s.schedule(ctx, ids[i], pool, priority) {
			scheduled++
		}
	}
	logging.Debug("preload: window [%d,%d] around %d, scheduled %d of %d", lo, hi, currentIndex, scheduled, hi-lo+1)
	return scheduled
}

// Schedule queues a single background preload for id.
func (s *Scheduler) Schedule(ctx context.Context, id string) bool {
	return s.schedule(ctx, id, s.background, priorityBackground)
}

func (s *Scheduler) schedule(ctx context.Context, id string, pool *workers.Pool, priority string) bool {
	if priority == priorityBackground && s.throttled() {
		logging.Debug("preload: memory high, skipping background preload of %s", id)
		return false
	}
	if s.cached(id) {
		return false
	}
	if !s.tryAcquire(id) {
		return false
	}
	metrics.PreloadInFlight.Inc()

	submitted := pool.Submit(func() {
		defer s.release(id)
		if ctx.Err() != nil {
			return
		}
		if err := s.warmer.Warm(ctx, id); err != nil {
			logging.Debug("preload: warm %s failed: %v", id, err)
		}
	})
	if !submitted {
		s.release(id)
		return false
	}
	metrics.PreloadScheduled.WithLabelValues(priority).Inc()
	return true
}

// InFlight returns how many preloads are currently claimed.
func (s *Scheduler) InFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inFlight)
}

// Clear forgets all in-flight claims. Wired to the memory pressure signal;
// tasks already running finish but their claims are released so future
// scheduling is not blocked by a stale set.
func (s *Scheduler) Clear() {
	s.mu.Lock()
	n := len(s.inFlight)
	s.inFlight = make(map[string]struct{})
	s.mu.Unlock()
	if n > 0 {
		logging.Info("preload: cleared %d in-flight claims", n)
	}
}

// Stop shuts down both pools, draining queued work.
func (s *Scheduler) Stop() {
	s.interactive.Stop()
	s.background.Stop()
}
