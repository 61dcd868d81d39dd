package source

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/matzehuels/pixelstack/pkg/errors"
)

// uniformImage returns a w×h image filled with a single color.
func uniformImage(w, h int, c color.NRGBA) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestBinDimensions(t *testing.T) {
	src := FromImage(uniformImage(100, 50, color.NRGBA{R: 128, G: 128, B: 128, A: 255}))

	b, err := Bin(src, 16)
	if err != nil {
		t.Fatalf("Bin: %v", err)
	}
	if b.Size != 16 {
		t.Errorf("Size = %d, want 16", b.Size)
	}
	if b.SrcW != 100 || b.SrcH != 50 {
		t.Errorf("source dims = %dx%d, want 100x50", b.SrcW, b.SrcH)
	}
}

func TestBinUniformColor(t *testing.T) {
	src := FromImage(uniformImage(64, 64, color.NRGBA{R: 200, G: 100, B: 50, A: 255}))

	b, err := Bin(src, 8)
	if err != nil {
		t.Fatalf("Bin: %v", err)
	}

	first := b.At(0, 0)
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			if b.At(x, y) != first {
				t.Fatalf("cell (%d,%d) = %+v, want %+v", x, y, b.At(x, y), first)
			}
		}
	}
	if first.R != 200 || first.G != 100 || first.B != 50 {
		t.Errorf("cell RGB = (%d,%d,%d)", first.R, first.G, first.B)
	}
}

func TestCellChannels(t *testing.T) {
	tests := []struct {
		name     string
		r, g, b  uint8
		wantGray uint8
		wantHue  float64
		wantSat  float64
	}{
		{"white", 255, 255, 255, 255, 0, 0},
		{"black", 0, 0, 0, 0, 0, 0},
		{"red", 255, 0, 0, 76, 0, 1},
		{"green", 0, 255, 0, 150, 120, 1},
		{"blue", 0, 0, 255, 29, 240, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := makeCell(tt.r, tt.g, tt.b)
			if c.Gray != tt.wantGray {
				t.Errorf("Gray = %d, want %d", c.Gray, tt.wantGray)
			}
			if math.Abs(c.Hue-tt.wantHue) > 0.5 {
				t.Errorf("Hue = %f, want %f", c.Hue, tt.wantHue)
			}
			if math.Abs(c.Sat-tt.wantSat) > 0.01 {
				t.Errorf("Sat = %f, want %f", c.Sat, tt.wantSat)
			}
		})
	}
}

func TestBinAveragesRegions(t *testing.T) {
	// Left half black, right half white; binning to 2x2 should keep the
	// halves separated with averaged luma per side.
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			v := uint8(0)
			if x >= 4 {
				v = 255
			}
			img.SetNRGBA(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}

	b, err := Bin(FromImage(img), 2)
	if err != nil {
		t.Fatalf("Bin: %v", err)
	}
	if b.At(0, 0).Gray > 10 {
		t.Errorf("left cell gray = %d, want near 0", b.At(0, 0).Gray)
	}
	if b.At(1, 0).Gray < 245 {
		t.Errorf("right cell gray = %d, want near 255", b.At(1, 0).Gray)
	}
}

func TestBinValidation(t *testing.T) {
	src := FromImage(uniformImage(4, 4, color.NRGBA{A: 255}))

	if _, err := Bin(src, 0); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("Bin with size 0: err = %v, want INVALID_CONFIG", err)
	}
	if _, err := Bin(src, -3); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("Bin with negative size: err = %v, want INVALID_CONFIG", err)
	}
	if _, err := Bin(nil, 8); !errors.Is(err, errors.ErrCodeInvalidImage) {
		t.Errorf("Bin with nil source: err = %v, want INVALID_IMAGE", err)
	}

	empty := FromImage(image.NewNRGBA(image.Rect(0, 0, 0, 0)))
	if _, err := Bin(empty, 8); !errors.Is(err, errors.ErrCodeInvalidImage) {
		t.Errorf("Bin with empty image: err = %v, want INVALID_IMAGE", err)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := Decode([]byte("not an image")); !errors.Is(err, errors.ErrCodeInvalidImage) {
		t.Errorf("Decode garbage: err = %v, want INVALID_IMAGE", err)
	}
}
