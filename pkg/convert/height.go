package convert

import (
	"math"

	"github.com/matzehuels/pixelstack/pkg/source"
	"github.com/matzehuels/pixelstack/pkg/voxel"
)

// mapHeight converts brightness to column height: each cell's grayscale
// intensity I maps to z = round(I/255 * maxHeight), and the column [0, z] is
// filled with the cell color. Intensity 0 still produces a voxel at z=0; a
// black cell is a zero-height column, not a hole. With opts.Shell only the
// topmost voxel of each column is emitted.
func mapHeight(binned *source.Binned, opts Options) *voxel.Grid {
	b := voxel.NewBuilder(voxel.Metadata{
		Method:       MethodHeight.String(),
		Resolution:   binned.Size,
		ZExtent:      opts.MaxHeight + 1,
		SourceWidth:  binned.SrcW,
		SourceHeight: binned.SrcH,
	})

	for y := 0; y < binned.Size; y++ {
		for x := 0; x < binned.Size; x++ {
			cell := binned.At(x, y)
			top := int(math.Round(float64(cell.Gray) / 255.0 * float64(opts.MaxHeight)))
			color := voxel.Color{R: cell.R, G: cell.G, B: cell.B}

			if opts.Shell {
				mustAdd(b, voxel.Coordinate{X: x, Y: y, Z: top}, color)
				continue
			}
			for z := 0; z <= top; z++ {
				mustAdd(b, voxel.Coordinate{X: x, Y: y, Z: z}, color)
			}
		}
	}
	return b.Build()
}
