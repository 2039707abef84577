// Package cache provides the in-memory tiered pixel buffer cache.
//
// LRU is an explicit least-recently-used cache with a doubly-linked recency
// list and a hash index, bounded by both a byte budget and an entry-count
// budget. Eviction order and budget behavior are deterministic and covered
// by tests.
//
// Tiered wraps two independent LRUs: one for full-resolution originals and
// one for thumbnails. Thumbnails are keyed per (identifier, width, height)
// so multiple renditions of one source coexist. Removing an identifier
// enumerates a fixed set of common thumbnail sizes instead of scanning keys;
// the cache deliberately does not support key enumeration, so renditions at
// non-standard sizes age out through normal LRU eviction instead. This is a
// known, documented limitation.
//
// The cache is memory-only and rebuilt from source files after a restart.
// A process-wide memory pressure signal clears both tiers unconditionally.
package cache
