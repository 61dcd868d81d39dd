package convert

import (
	"github.com/matzehuels/pixelstack/pkg/source"
	"github.com/matzehuels/pixelstack/pkg/voxel"
)

// layerByColor separates cells into depth layers by hue: layer =
// floor(H/360 * layers), clamped to [0, layers-1]. One voxel per cell, no
// vertical stacking, so the result is a thin slab per hue bucket.
//
// Achromatic cells (saturation below achromaticSat) have no meaningful hue
// and always land on layer 0. The rule is deterministic so repeated
// conversions of the same image are bit-identical.
func layerByColor(binned *source.Binned, opts Options) *voxel.Grid {
	b := voxel.NewBuilder(voxel.Metadata{
		Method:       MethodColor.String(),
		Resolution:   binned.Size,
		ZExtent:      opts.Layers,
		SourceWidth:  binned.SrcW,
		SourceHeight: binned.SrcH,
	})

	for y := 0; y < binned.Size; y++ {
		for x := 0; x < binned.Size; x++ {
			cell := binned.At(x, y)

			layer := 0
			if cell.Sat >= achromaticSat {
				layer = int(cell.Hue / 360.0 * float64(opts.Layers))
				if layer >= opts.Layers {
					layer = opts.Layers - 1
				}
			}

			mustAdd(b, voxel.Coordinate{X: x, Y: y, Z: layer}, voxel.Color{R: cell.R, G: cell.G, B: cell.B})
		}
	}
	return b.Build()
}
