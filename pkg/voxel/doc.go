// Package voxel defines the sparse 3D voxel grid produced by all conversion
// methods.
//
// A Grid stores only occupied cells: a flat arena of Voxel records plus a
// coordinate index for point lookup. Dense 3D arrays are deliberately avoided;
// conversion output is sparse by nature and consumers (serialization,
// rendering) only ever iterate occupied voxels.
//
// # Lifecycle
//
// Grids are built incrementally through a Builder and frozen on Build:
//
//	b := voxel.NewBuilder(voxel.Metadata{
//	    Method:     "height",
//	    Resolution: 64,
//	    ZExtent:    33,
//	})
//	if err := b.Add(voxel.Coordinate{X: 1, Y: 2, Z: 3}, voxel.Color{R: 255}); err != nil {
//	    return err
//	}
//	grid := b.Build()
//
// The Builder rejects out-of-bounds coordinates and coordinate collisions, so
// a finished Grid always satisfies the model invariants: every coordinate lies
// within [0, Resolution) on x/y and [0, ZExtent) on z, and each coordinate
// maps to at most one voxel. After Build the grid is immutable.
package voxel
