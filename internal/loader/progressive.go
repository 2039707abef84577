package loader

import (
	"context"
	"sync"

	"photo-pipeline/internal/logging"
	"photo-pipeline/internal/pixel"
	"photo-pipeline/internal/quality"
)

// LevelCallback receives each newly displayed quality level. A nil buffer
// with level Full means the original could not be loaded.
type LevelCallback func(level quality.Level, buf *pixel.Buffer)

// session enforces the monotonic display invariant for one progressive
// load: a level at or below one already delivered is dropped.
type session struct {
	mu        sync.Mutex
	served    bool
	maxServed quality.Level
}

// deliver returns true if level advances the session, marking it served.
func (s *session) deliver(level quality.Level) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.served && level <= s.maxServed {
		return false
	}
	s.served = true
	s.maxServed = level
	return true
}

// LoadProgressive serves ascending renditions of id: each generated ladder
// level as it becomes available, then the full original. Every delivered
// level strictly improves on the previous one; renditions completing out of
// order are dropped rather than regressing the display.
//
// Cached renditions are delivered synchronously. The rest is generated in
// the background off one decode of the original. Cancelling ctx stops
// delivery; caching continues.
func (l *Loader) LoadProgressive(ctx context.Context, id string, onLevel LevelCallback) {
	sess := &session{}

	serve := func(level quality.Level, buf *pixel.Buffer) {
		if ctx.Err() != nil {
			return
		}
		if !sess.deliver(level) {
			logging.Debug("loader: dropping %s rendition of %s, display already ahead", level, id)
			return
		}
		l.dispatcher.Dispatch(func() { onLevel(level, buf) })
	}

	// Serve whatever the cache already holds, best level last.
	if orig, ok := l.cache.GetOriginal(id); ok {
		serve(quality.Full, orig)
		return
	}
	for _, level := range ascendingCached(l, id) {
		buf, _ := l.cache.GetThumbnail(id, level.Size(), level.Size())
		serve(level, buf)
	}

	submitted := l.pool.Submit(func() {
		l.generateProgressive(ctx, id, sess, serve)
	})
	if !submitted {
		serve(quality.Full, nil)
	}
}

// ascendingCached lists the generated levels currently cached for id, in
// ascending quality order.
func ascendingCached(l *Loader, id string) []quality.Level {
	var levels []quality.Level
	for _, level := range quality.GeneratedLevels() {
		if _, ok := l.cache.GetThumbnail(id, level.Size(), level.Size()); ok {
			levels = append(levels, level)
		}
	}
	return levels
}

// generateProgressive decodes the original once, then fills and serves each
// missing ladder level in ascending order before delivering Full.
func (l *Loader) generateProgressive(ctx context.Context, id string, sess *session, serve func(quality.Level, *pixel.Buffer)) {
	orig, err := l.fetchAndCache(id)
	if err != nil {
		logging.Warn("loader: progressive load %s failed: %v", id, err)
		if ctx.Err() == nil {
			serve(quality.Full, nil)
		}
		return
	}

	for _, level := range quality.GeneratedLevels() {
		size := level.Size()
		buf, ok := l.cache.GetThumbnail(id, size, size)
		if !ok {
			buf, err = l.ladder.Generate(orig, level)
			if err != nil {
				logging.Warn("loader: generate %s for %s failed: %v", level, id, err)
				continue
			}
			l.cache.PutThumbnail(id, size, size, buf)
		}
		serve(level, buf)
	}

	serve(quality.Full, orig)
}
