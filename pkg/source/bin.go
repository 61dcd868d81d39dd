package source

import (
	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/matzehuels/pixelstack/pkg/errors"
)

// Cell is one element of a binned grid: the area-averaged RGB of the source
// pixels it covers, plus derived grayscale and hue channels.
type Cell struct {
	R, G, B uint8

	// Gray is the Rec. 601 luma of the cell color, in [0, 255].
	Gray uint8

	// Hue is the HSV hue angle in [0, 360). Undefined for achromatic
	// cells; check Sat before relying on it.
	Hue float64

	// Sat is the HSV saturation in [0, 1].
	Sat float64
}

// Binned is a source image resampled to Size×Size cells. It is the shared
// read-only input to all conversion methods.
type Binned struct {
	Size  int
	SrcW  int
	SrcH  int
	cells []Cell
}

// At returns the cell at (x, y). x selects the column, y the row.
func (b *Binned) At(x, y int) Cell {
	return b.cells[y*b.Size+x]
}

// Bin resamples src down to a size×size grid using a box filter, then
// derives the grayscale and hue channels per cell.
// It fails with an INVALID_IMAGE error when the source has zero area and an
// INVALID_CONFIG error when size is not positive.
func Bin(src Source, size int) (*Binned, error) {
	if size <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "bin size must be positive, got %d", size)
	}
	if src == nil || src.Width() <= 0 || src.Height() <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidImage, "image is empty")
	}

	resized := imaging.Resize(ToImage(src), size, size, imaging.Box)

	b := &Binned{
		Size:  size,
		SrcW:  src.Width(),
		SrcH:  src.Height(),
		cells: make([]Cell, size*size),
	}
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := resized.NRGBAAt(x, y)
			b.cells[y*size+x] = makeCell(c.R, c.G, c.B)
		}
	}
	return b, nil
}

// makeCell derives the grayscale and hue channels for an RGB triple.
func makeCell(r, g, b uint8) Cell {
	luma := 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)

	h, s, _ := colorful.Color{
		R: float64(r) / 255.0,
		G: float64(g) / 255.0,
		B: float64(b) / 255.0,
	}.Hsv()

	return Cell{
		R:    r,
		G:    g,
		B:    b,
		Gray: uint8(luma + 0.5),
		Hue:  h,
		Sat:  s,
	}
}
