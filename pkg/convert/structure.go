package convert

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/matzehuels/pixelstack/pkg/source"
	"github.com/matzehuels/pixelstack/pkg/voxel"
)

// Conventions for the structure method, fixed here rather than guessed per
// image:
//
//   - Edges are Sobel gradient magnitudes, normalized so the strongest
//     gradient in the grid is 255, thresholded at opts.EdgeThreshold.
//   - The distance transform is a chamfer 3-4 pass (L2 approximation),
//     final distances divided by 3 so orthogonal steps count as 1.
//   - Distances are normalized by the grid maximum and mapped onto
//     [0, depthLevels-1].
//   - An image with no detected edges (uniform or fully blurred) defines
//     every distance as 0 and therefore yields an empty grid.
const chamferInf = math.MaxFloat64 / 4

// buildStructure voxelizes image structure: edge cells define boundaries and
// stay empty, interior cells grow vertical runs proportional to their
// distance from the nearest edge. Thin near boundaries, thick in the bulk.
// Voxel colors darken with z, matching the relief shading of the flat render.
func buildStructure(binned *source.Binned, opts Options) *voxel.Grid {
	b := voxel.NewBuilder(voxel.Metadata{
		Method:       MethodStructure.String(),
		Resolution:   binned.Size,
		ZExtent:      opts.DepthLevels,
		SourceWidth:  binned.SrcW,
		SourceHeight: binned.SrcH,
	})

	edges := edgeMap(binned, opts.EdgeThreshold)
	dist := distanceTransform(edges, binned.Size)

	maxDist := 0.0
	if dist != nil {
		for y := 0; y < binned.Size; y++ {
			for x := 0; x < binned.Size; x++ {
				if d := dist.At(y, x); d > maxDist {
					maxDist = d
				}
			}
		}
	}
	if maxDist == 0 {
		// No edges, or nothing but edges: no interior to grow from.
		return b.Build()
	}

	for y := 0; y < binned.Size; y++ {
		for x := 0; x < binned.Size; x++ {
			d := dist.At(y, x)
			if d <= 0 {
				continue
			}
			cell := binned.At(x, y)
			depth := int(math.Round(d / maxDist * float64(opts.DepthLevels-1)))
			for z := 0; z <= depth; z++ {
				shade := 1.0 - float64(z)/float64(opts.DepthLevels)*0.5
				mustAdd(b, voxel.Coordinate{X: x, Y: y, Z: z}, voxel.Color{
					R: uint8(float64(cell.R) * shade),
					G: uint8(float64(cell.G) * shade),
					B: uint8(float64(cell.B) * shade),
				})
			}
		}
	}
	return b.Build()
}

// edgeMap computes a boolean edge mask over the binned grayscale grid using
// Sobel gradient magnitude. Magnitudes are normalized to [0, 255] against the
// grid maximum before thresholding, so the cutoff tracks image contrast.
// Returns nil when the grid has no gradient at all.
func edgeMap(binned *source.Binned, threshold int) []bool {
	n := binned.Size
	at := func(x, y int) float64 {
		// Replicate border pixels for the kernel overhang.
		if x < 0 {
			x = 0
		}
		if x >= n {
			x = n - 1
		}
		if y < 0 {
			y = 0
		}
		if y >= n {
			y = n - 1
		}
		return float64(binned.At(x, y).Gray)
	}

	mag := make([]float64, n*n)
	maxMag := 0.0
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			gx := -at(x-1, y-1) + at(x+1, y-1) +
				-2*at(x-1, y) + 2*at(x+1, y) +
				-at(x-1, y+1) + at(x+1, y+1)
			gy := -at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1) +
				at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1)
			m := math.Hypot(gx, gy)
			mag[y*n+x] = m
			if m > maxMag {
				maxMag = m
			}
		}
	}
	if maxMag == 0 {
		return nil
	}

	edges := make([]bool, n*n)
	for i, m := range mag {
		edges[i] = m/maxMag*255.0 >= float64(threshold)
	}
	return edges
}

// distanceTransform computes, for every non-edge cell, the chamfer 3-4
// distance to the nearest edge cell, divided by 3. Edge cells have distance
// 0. Returns nil when edges is nil (no boundary to measure from).
func distanceTransform(edges []bool, n int) *mat.Dense {
	if edges == nil {
		return nil
	}

	dist := mat.NewDense(n, n, nil)
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			if edges[y*n+x] {
				dist.Set(y, x, 0)
			} else {
				dist.Set(y, x, chamferInf)
			}
		}
	}

	relax := func(y, x, ny, nx int, w float64) {
		if ny < 0 || ny >= n || nx < 0 || nx >= n {
			return
		}
		if d := dist.At(ny, nx) + w; d < dist.At(y, x) {
			dist.Set(y, x, d)
		}
	}

	// Forward pass: top-left to bottom-right.
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			relax(y, x, y, x-1, 3)
			relax(y, x, y-1, x, 3)
			relax(y, x, y-1, x-1, 4)
			relax(y, x, y-1, x+1, 4)
		}
	}
	// Backward pass: bottom-right to top-left.
	for y := n - 1; y >= 0; y-- {
		for x := n - 1; x >= 0; x-- {
			relax(y, x, y, x+1, 3)
			relax(y, x, y+1, x, 3)
			relax(y, x, y+1, x+1, 4)
			relax(y, x, y+1, x-1, 4)
		}
	}

	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			dist.Set(y, x, dist.At(y, x)/3.0)
		}
	}
	return dist
}
