// Package convert turns a 2D image into a sparse 3D voxel grid.
//
// Three independent, stateless methods are provided:
//
//   - height: brightness maps to column height, producing a terrain-like
//     relief. Solid columns by default, topmost shell as an option.
//   - color: hue maps to a discrete depth layer, producing one thin slab
//     per hue bucket.
//   - structure: edges and a distance transform drive vertical thickness,
//     thin at boundaries and bulky in region interiors.
//
// All methods consume the same binned grid (see package source) and emit a
// voxel.Grid. They are pure functions: same image and options in, bit
// identical grid out. Validation happens once, up front, in Convert and
// ConvertAll; after that the methods are total over any well-formed binned
// grid and never fail, including on degenerate single-pixel or solid-color
// images.
//
// # Usage
//
//	grid, err := convert.Convert(src, convert.MethodHeight, convert.Options{
//	    Resolution: 64,
//	    MaxHeight:  32,
//	})
//
// Run dispatches on a method selector string and understands "all":
//
//	grids, err := convert.Run(src, "all", convert.Options{})
//	relief := grids["height"]
package convert
