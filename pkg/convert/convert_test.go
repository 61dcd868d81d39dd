package convert

import (
	"image"
	"image/color"
	"testing"

	"github.com/matzehuels/pixelstack/pkg/errors"
	"github.com/matzehuels/pixelstack/pkg/source"
	"github.com/matzehuels/pixelstack/pkg/voxel"
)

// fill returns a w×h source filled with a single color.
func fill(w, h int, c color.NRGBA) source.Source {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return source.FromImage(img)
}

// splitVertical returns a source whose left half is one color and right half
// another, producing a single hard edge down the middle after binning.
func splitVertical(size int, left, right color.NRGBA) source.Source {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := left
			if x >= size/2 {
				c = right
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return source.FromImage(img)
}

var (
	white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	black = color.NRGBA{A: 255}
	red   = color.NRGBA{R: 255, A: 255}
)

func TestParseMethod(t *testing.T) {
	tests := []struct {
		in      string
		want    Method
		wantErr bool
	}{
		{"height", MethodHeight, false},
		{"color", MethodColor, false},
		{"structure", MethodStructure, false},
		{"all", 0, true}, // "all" is a selector, not a method
		{"HEIGHT", 0, true},
		{"spiral", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		m, err := ParseMethod(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMethod(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err != nil {
			if !errors.Is(err, errors.ErrCodeInvalidMethod) {
				t.Errorf("ParseMethod(%q) code = %s, want INVALID_METHOD", tt.in, errors.GetCode(err))
			}
			continue
		}
		if m != tt.want {
			t.Errorf("ParseMethod(%q) = %v, want %v", tt.in, m, tt.want)
		}
	}
}

func TestOptionsValidation(t *testing.T) {
	var opts Options
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("zero options should validate: %v", err)
	}
	if opts.Resolution != DefaultResolution || opts.MaxHeight != DefaultMaxHeight ||
		opts.Layers != DefaultLayers || opts.DepthLevels != DefaultDepthLevels {
		t.Errorf("defaults not applied: %+v", opts)
	}

	for _, bad := range []Options{
		{Resolution: -1},
		{MaxHeight: -5},
		{Layers: -2},
		{DepthLevels: -1},
		{EdgeThreshold: -10},
		{EdgeThreshold: 300},
	} {
		if err := bad.ValidateAndSetDefaults(); !errors.Is(err, errors.ErrCodeInvalidConfig) {
			t.Errorf("options %+v: err = %v, want INVALID_CONFIG", bad, err)
		}
	}
}

func TestConvertRejectsEmptyImage(t *testing.T) {
	empty := source.FromImage(image.NewNRGBA(image.Rect(0, 0, 0, 0)))
	if _, err := Convert(empty, MethodHeight, Options{}); !errors.Is(err, errors.ErrCodeInvalidImage) {
		t.Errorf("err = %v, want INVALID_IMAGE", err)
	}
	if _, err := ConvertAll(nil, Options{}); !errors.Is(err, errors.ErrCodeInvalidImage) {
		t.Errorf("ConvertAll(nil) err = %v, want INVALID_IMAGE", err)
	}
}

func TestConvertRejectsUnknownMethod(t *testing.T) {
	src := fill(8, 8, white)
	if _, err := Convert(src, Method(99), Options{}); !errors.Is(err, errors.ErrCodeInvalidMethod) {
		t.Errorf("err = %v, want INVALID_METHOD", err)
	}
	if _, err := Run(src, "spiral", Options{}); !errors.Is(err, errors.ErrCodeInvalidMethod) {
		t.Errorf("Run err = %v, want INVALID_METHOD", err)
	}
}

func TestHeightUniformWhite(t *testing.T) {
	const n, m = 8, 4
	g, err := Convert(fill(32, 32, white), MethodHeight, Options{Resolution: n, MaxHeight: m})
	if err != nil {
		t.Fatal(err)
	}

	// Solid columns of height m at every cell: n*n*(m+1) voxels.
	if want := n * n * (m + 1); g.Len() != want {
		t.Errorf("Len = %d, want %d", g.Len(), want)
	}
	for _, v := range g.Voxels() {
		if v.Color != (voxel.Color{R: 255, G: 255, B: 255}) {
			t.Fatalf("voxel color = %+v, want white", v.Color)
		}
	}
}

func TestHeightUniformBlack(t *testing.T) {
	const n = 8
	g, err := Convert(fill(32, 32, black), MethodHeight, Options{Resolution: n, MaxHeight: 4})
	if err != nil {
		t.Fatal(err)
	}

	// Zero intensity still emits a voxel per column, at z=0.
	if want := n * n; g.Len() != want {
		t.Errorf("Len = %d, want %d", g.Len(), want)
	}
	for _, v := range g.Voxels() {
		if v.Pos.Z != 0 {
			t.Fatalf("voxel at z=%d, want 0", v.Pos.Z)
		}
	}
}

func TestHeightShell(t *testing.T) {
	const n, m = 8, 4
	g, err := Convert(fill(32, 32, white), MethodHeight, Options{Resolution: n, MaxHeight: m, Shell: true})
	if err != nil {
		t.Fatal(err)
	}

	if want := n * n; g.Len() != want {
		t.Errorf("Len = %d, want %d", g.Len(), want)
	}
	for _, v := range g.Voxels() {
		if v.Pos.Z != m {
			t.Fatalf("shell voxel at z=%d, want %d", v.Pos.Z, m)
		}
	}
}

func TestColorUniformRed(t *testing.T) {
	const n = 8
	g, err := Convert(fill(32, 32, red), MethodColor, Options{Resolution: n, Layers: 16})
	if err != nil {
		t.Fatal(err)
	}

	if want := n * n; g.Len() != want {
		t.Errorf("Len = %d, want %d", g.Len(), want)
	}
	layer := g.Voxels()[0].Pos.Z
	for _, v := range g.Voxels() {
		if v.Pos.Z != layer {
			t.Fatalf("voxels span layers %d and %d, want one layer", layer, v.Pos.Z)
		}
	}
}

func TestColorHueBuckets(t *testing.T) {
	tests := []struct {
		name      string
		c         color.NRGBA
		layers    int
		wantLayer int
	}{
		{"red hue 0", color.NRGBA{R: 255, A: 255}, 16, 0},
		{"green hue 120", color.NRGBA{G: 255, A: 255}, 16, 5},
		{"blue hue 240", color.NRGBA{B: 255, A: 255}, 16, 10},
		{"gray falls back to 0", color.NRGBA{R: 128, G: 128, B: 128, A: 255}, 16, 0},
		{"white falls back to 0", white, 16, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := Convert(fill(16, 16, tt.c), MethodColor, Options{Resolution: 4, Layers: tt.layers})
			if err != nil {
				t.Fatal(err)
			}
			for _, v := range g.Voxels() {
				if v.Pos.Z != tt.wantLayer {
					t.Fatalf("layer = %d, want %d", v.Pos.Z, tt.wantLayer)
				}
			}
		})
	}
}

func TestColorLayersWithinBounds(t *testing.T) {
	// A multicolor gradient must only ever use layers in [0, layers).
	const size, layers = 32, 7
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 8), G: uint8(y * 8), B: uint8(255 - x*4), A: 255})
		}
	}

	g, err := Convert(source.FromImage(img), MethodColor, Options{Resolution: 16, Layers: layers})
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range g.Voxels() {
		if v.Pos.Z < 0 || v.Pos.Z >= layers {
			t.Fatalf("layer %d outside [0,%d)", v.Pos.Z, layers)
		}
	}
}

func TestStructureEdgeCellsStayEmpty(t *testing.T) {
	const n = 16
	src := splitVertical(64, black, white)

	opts := Options{Resolution: n, DepthLevels: 8}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}

	binned, err := source.Bin(src, n)
	if err != nil {
		t.Fatal(err)
	}
	edges := edgeMap(binned, opts.EdgeThreshold)
	if edges == nil {
		t.Fatal("splitVertical image should have edges")
	}

	g := buildStructure(binned, opts)
	if g.Len() == 0 {
		t.Fatal("structure grid should not be empty for an image with one edge")
	}
	for _, v := range g.Voxels() {
		if edges[v.Pos.Y*n+v.Pos.X] {
			t.Fatalf("voxel emitted on edge cell (%d,%d)", v.Pos.X, v.Pos.Y)
		}
	}
}

func TestStructureUniformImageIsEmpty(t *testing.T) {
	// Documented convention: no detected edges means every distance is 0,
	// which yields an empty grid.
	g, err := Convert(fill(32, 32, white), MethodStructure, Options{Resolution: 8})
	if err != nil {
		t.Fatal(err)
	}
	if g.Len() != 0 {
		t.Errorf("uniform image structure grid has %d voxels, want 0", g.Len())
	}
	if g.Meta().Method != "structure" {
		t.Errorf("method = %s", g.Meta().Method)
	}
}

func TestStructureSinglePixelImage(t *testing.T) {
	// Degenerate but legal input must not panic or fail.
	g, err := Convert(fill(1, 1, red), MethodStructure, Options{Resolution: 4})
	if err != nil {
		t.Fatalf("single-pixel image: %v", err)
	}
	if g.Len() != 0 {
		t.Errorf("single-pixel image should have no edges, got %d voxels", g.Len())
	}
}

func TestBoundsAllMethods(t *testing.T) {
	src := splitVertical(64, red, white)
	opts := Options{Resolution: 16, MaxHeight: 8, Layers: 6, DepthLevels: 5}

	grids, err := ConvertAll(src, opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(grids) != 3 {
		t.Fatalf("ConvertAll returned %d grids, want 3", len(grids))
	}

	for name, g := range grids {
		meta := g.Meta()
		for _, v := range g.Voxels() {
			if v.Pos.X < 0 || v.Pos.X >= meta.Resolution ||
				v.Pos.Y < 0 || v.Pos.Y >= meta.Resolution ||
				v.Pos.Z < 0 || v.Pos.Z >= meta.ZExtent {
				t.Fatalf("%s: voxel %+v outside bounds res=%d zext=%d",
					name, v.Pos, meta.Resolution, meta.ZExtent)
			}
		}
	}
}

func TestIdempotence(t *testing.T) {
	src := splitVertical(64, red, white)
	opts := Options{Resolution: 16}

	for _, m := range Methods() {
		a, err := Convert(src, m, opts)
		if err != nil {
			t.Fatal(err)
		}
		b, err := Convert(src, m, opts)
		if err != nil {
			t.Fatal(err)
		}
		if !a.Equal(b) {
			t.Errorf("%s: repeated conversion differs", m)
		}
		// Bit-identical arena order, not just set equality.
		for i := range a.Voxels() {
			if a.Voxels()[i] != b.Voxels()[i] {
				t.Fatalf("%s: arena differs at %d", m, i)
			}
		}
	}
}

func TestRunAllMatchesIndividual(t *testing.T) {
	src := splitVertical(64, red, white)
	opts := Options{Resolution: 16}

	all, err := Run(src, SelectorAll, opts)
	if err != nil {
		t.Fatal(err)
	}
	for _, m := range Methods() {
		single, err := Convert(src, m, opts)
		if err != nil {
			t.Fatal(err)
		}
		got, ok := all[m.String()]
		if !ok {
			t.Fatalf("all result missing %s", m)
		}
		if !got.Equal(single) {
			t.Errorf("%s: all result differs from individual conversion", m)
		}
	}
}

func TestDistanceTransformConvention(t *testing.T) {
	// A single edge column: distance grows by 1 per orthogonal step away
	// from it.
	const n = 5
	edges := make([]bool, n*n)
	for y := 0; y < n; y++ {
		edges[y*n+2] = true // edge down the middle column
	}

	dist := distanceTransform(edges, n)
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			want := float64(abs(x - 2))
			if got := dist.At(y, x); got != want {
				t.Errorf("dist(%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}

	if distanceTransform(nil, n) != nil {
		t.Error("nil edges should produce nil transform")
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
