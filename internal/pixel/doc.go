// Package pixel provides the RGBA pixel buffer type shared by the
// resampler, the quality ladder, and the tiered cache.
//
// A Buffer is a flat width*height*4 byte slice in RGBA order. Buffers are
// treated as immutable once published: cache entries are replaced wholesale,
// never mutated in place. ByteCost is the cache accounting unit.
package pixel
