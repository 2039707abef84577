// Package media decodes image bytes into pixel buffers.
//
// Decoding is constrained: images past a maximum dimension or total pixel
// count are downscaled during load so a single oversized file cannot blow
// the process heap. Format detection uses magic bytes rather than file
// extensions, since photo libraries routinely contain misnamed files.
package media
