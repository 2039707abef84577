// Package quality defines the ordered thumbnail quality ladder used by the
// progressive loader.
//
// Levels run Micro < Tiny < Small < Medium < Full, each with a fixed square
// pixel target. Full means the original image at native resolution. All
// levels are generated from a single decoded source so the decode cost is
// paid once per ingest.
package quality
