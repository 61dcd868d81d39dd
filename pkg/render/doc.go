// Package render turns voxel grids into visual artifacts.
//
// # Overview
//
// Two renderers are provided:
//
//   - [WriteScatterHTML] emits a standalone interactive HTML page with a
//     3D scatter plot of the grid, one point per voxel in its own color.
//   - [WriteSlicesPNG] emits a PNG montage of horizontal cross-sections,
//     one panel per z level.
//
// Both renderers are deterministic for a given grid: voxels are consumed
// in the grid's canonical order and subsampling uses a fixed stride.
//
// # Usage
//
//	var buf bytes.Buffer
//	err := render.WriteScatterHTML(grid, &buf, render.WithMaxPoints(5000))
//
// Output size is bounded: scatter plots cap the point count (browsers
// struggle beyond a few thousand WebGL points), slice montages cap the
// per-cell pixel size.
package render
