// Package voxelio persists voxel grids.
//
// Two formats are provided:
//
//   - JSON: human-readable, round-trips through [WriteJSON] and [ReadJSON].
//     Used for artifacts, caching, and cross-tool exchange.
//   - VXG: a compact binary format (fixed-width voxel records behind a zstd
//     stream) for large grids where JSON is wasteful.
//
// Both readers rebuild grids through the voxel.Builder, so a file that
// violates the grid invariants (out-of-bounds coordinates, duplicate
// coordinates) is rejected rather than silently accepted.
package voxelio
