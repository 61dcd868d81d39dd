// Package source provides the image input boundary and the shared binning
// stage for voxel conversion.
//
// Conversion methods never touch decoded images directly. They operate on a
// Binned grid: the source image resampled to a fixed resolution with
// per-cell RGB, grayscale, and hue channels precomputed. Binning once and
// sharing the result keeps the three methods identical in their sampling
// behavior and avoids duplicating resampling logic.
//
// # Usage
//
//	src, err := source.Load("photo.png")
//	if err != nil {
//	    return err
//	}
//	binned, err := source.Bin(src, 64)
//
// Resampling uses a box filter (area averaging), so each cell's RGB is the
// mean of the source pixels it covers. Grayscale is Rec. 601 luma; hue and
// saturation come from HSV. A Binned grid is immutable and safe to share
// across concurrent conversions.
package source
