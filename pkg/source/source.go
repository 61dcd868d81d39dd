package source

import (
	"bytes"
	"image"
	"image/color"
	"os"

	"github.com/disintegration/imaging"

	"github.com/matzehuels/pixelstack/pkg/errors"
)

// Source is the abstract image input consumed by conversion. It hides how the
// image was decoded and which file format it came from.
type Source interface {
	// Width returns the image width in pixels.
	Width() int

	// Height returns the image height in pixels.
	Height() int

	// RGBAt returns the 8-bit RGB channels of the pixel at (x, y).
	// Coordinates are zero-based with the origin at the top-left corner.
	RGBAt(x, y int) (r, g, b uint8)
}

// imageSource adapts a decoded image.Image to the Source interface.
// The image is converted to NRGBA once so per-pixel access is a slice read.
type imageSource struct {
	img *image.NRGBA
}

func (s *imageSource) Width() int  { return s.img.Rect.Dx() }
func (s *imageSource) Height() int { return s.img.Rect.Dy() }

func (s *imageSource) RGBAt(x, y int) (uint8, uint8, uint8) {
	c := s.img.NRGBAAt(s.img.Rect.Min.X+x, s.img.Rect.Min.Y+y)
	return c.R, c.G, c.B
}

// FromImage wraps a decoded image as a Source.
func FromImage(img image.Image) Source {
	return &imageSource{img: imaging.Clone(img)}
}

// Load decodes the image file at path into a Source.
// Format is detected from the file contents (PNG, JPEG, GIF, TIFF, BMP).
func Load(path string) (Source, error) {
	img, err := imaging.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "image not found: %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidImage, err, "decode %s", path)
	}
	return FromImage(img), nil
}

// Decode decodes image bytes into a Source.
func Decode(data []byte) (Source, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidImage, err, "decode image data")
	}
	return FromImage(img), nil
}

// ToImage renders a Source back into an NRGBA image.
// Used by the binning stage to hand the pixels to the resampler.
func ToImage(src Source) *image.NRGBA {
	if is, ok := src.(*imageSource); ok {
		return is.img
	}
	w, h := src.Width(), src.Height()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b := src.RGBAt(x, y)
			img.SetNRGBA(x, y, color.NRGBA{R: r, G: g, B: b, A: 255})
		}
	}
	return img
}
