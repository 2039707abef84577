package cache

import (
	"fmt"
	"sync/atomic"

	"photo-pipeline/internal/logging"
	"photo-pipeline/internal/metrics"
	"photo-pipeline/internal/pixel"
)

const (
	tierOriginals  = "originals"
	tierThumbnails = "thumbnails"
)

// commonThumbSizes lists the square rendition sizes the pipeline produces
// through the quality ladder plus the legacy grid sizes. Remove enumerates
// these because the underlying LRU does not expose its keys.
var commonThumbSizes = []int{44, 88, 120, 240, 300, 600}

// Tiered holds decoded pixel buffers in two independent LRU tiers, one for
// full-resolution originals and one for thumbnail renditions. Each tier has
// its own byte and entry budget so a burst of large originals cannot evict
// the much cheaper thumbnails.
type Tiered struct {
	originals  *LRU
	thumbnails *LRU

	// Last eviction counts pushed to the metrics registry, so the
	// monotonic counters there only ever receive deltas.
	publishedOrigEvictions  atomic.Uint64
	publishedThumbEvictions atomic.Uint64
}

// TieredStats combines both tiers' statistics.
type TieredStats struct {
	Originals  Stats
	Thumbnails Stats
}

// NewTiered creates a two-tier cache with independent budgets per tier.
func NewTiered(originalBytes int64, originalEntries int, thumbBytes int64, thumbEntries int) *Tiered {
	return &Tiered{
		originals:  NewLRU(originalBytes, originalEntries),
		thumbnails: NewLRU(thumbBytes, thumbEntries),
	}
}

// thumbKey builds the composite key for one rendition of one source image.
func thumbKey(id string, width, height int) string {
	return fmt.Sprintf("%s#%dx%d", id, width, height)
}

// GetOriginal returns the cached full-resolution buffer for id.
func (t *Tiered) GetOriginal(id string) (*pixel.Buffer, bool) {
	buf, ok := t.originals.Get(id)
	t.recordLookup(tierOriginals, ok)
	return buf, ok
}

// ContainsOriginal reports whether the full-resolution buffer for id is
// resident, without touching recency or the hit/miss counters. Scheduling
// passes use this so they do not skew the cache diagnostics.
func (t *Tiered) ContainsOriginal(id string) bool {
	return t.originals.Contains(id)
}

// PutOriginal caches the full-resolution buffer for id.
func (t *Tiered) PutOriginal(id string, buf *pixel.Buffer) {
	t.originals.Put(id, buf)
	t.publishGauges()
}

// GetThumbnail returns the cached rendition of id at the given dimensions.
func (t *Tiered) GetThumbnail(id string, width, height int) (*pixel.Buffer, bool) {
	buf, ok := t.thumbnails.Get(thumbKey(id, width, height))
	t.recordLookup(tierThumbnails, ok)
	return buf, ok
}

// PutThumbnail caches a rendition of id at the given dimensions.
func (t *Tiered) PutThumbnail(id string, width, height int, buf *pixel.Buffer) {
	t.thumbnails.Put(thumbKey(id, width, height), buf)
	t.publishGauges()
}

// Remove drops the original and every common-size rendition for id.
// Renditions cached at non-standard sizes are not found here and age out
// through LRU eviction instead.
func (t *Tiered) Remove(id string) {
	t.originals.Remove(id)
	for _, size := range commonThumbSizes {
		t.thumbnails.Remove(thumbKey(id, size, size))
	}
	t.publishGauges()
}

// Clear empties both tiers. Invoked explicitly and on memory pressure.
func (t *Tiered) Clear() {
	before := t.originals.Len() + t.thumbnails.Len()
	t.originals.Clear()
	t.thumbnails.Clear()
	t.publishGauges()
	metrics.CacheClears.Inc()
	logging.Info("cache: cleared both tiers (%d entries dropped)", before)
}

// Stats returns a combined snapshot of both tiers.
func (t *Tiered) Stats() TieredStats {
	return TieredStats{
		Originals:  t.originals.Stats(),
		Thumbnails: t.thumbnails.Stats(),
	}
}

func (t *Tiered) recordLookup(tier string, hit bool) {
	if hit {
		metrics.CacheHits.WithLabelValues(tier).Inc()
	} else {
		metrics.CacheMisses.WithLabelValues(tier).Inc()
	}
}

func (t *Tiered) publishGauges() {
	orig := t.originals.Stats()
	thumb := t.thumbnails.Stats()
	metrics.CacheResidentBytes.WithLabelValues(tierOriginals).Set(float64(orig.Bytes))
	metrics.CacheResidentEntries.WithLabelValues(tierOriginals).Set(float64(orig.Entries))
	metrics.CacheResidentBytes.WithLabelValues(tierThumbnails).Set(float64(thumb.Bytes))
	metrics.CacheResidentEntries.WithLabelValues(tierThumbnails).Set(float64(thumb.Entries))
	publishEvictionDelta(tierOriginals, &t.publishedOrigEvictions, orig.Evictions)
	publishEvictionDelta(tierThumbnails, &t.publishedThumbEvictions, thumb.Evictions)
}

// publishEvictionDelta advances the registry counter by however many
// evictions happened since the last publish. CAS keeps concurrent callers
// from double-counting the same window.
func publishEvictionDelta(tier string, published *atomic.Uint64, current uint64) {
	for {
		prev := published.Load()
		if current <= prev {
			return
		}
		if published.CompareAndSwap(prev, current) {
			metrics.CacheEvictions.WithLabelValues(tier).Add(float64(current - prev))
			return
		}
	}
}
