package convert

import (
	"sync"

	"github.com/matzehuels/pixelstack/pkg/errors"
	"github.com/matzehuels/pixelstack/pkg/source"
	"github.com/matzehuels/pixelstack/pkg/voxel"
)

// =============================================================================
// Methods
// =============================================================================

// Method identifies a conversion algorithm. The set is closed; dispatching
// happens on the enum, never on raw strings, so unknown selectors are
// rejected explicitly at the boundary.
type Method int

const (
	// MethodHeight maps brightness to column height.
	MethodHeight Method = iota

	// MethodColor maps hue to a depth layer.
	MethodColor

	// MethodStructure maps edge distance to structural thickness.
	MethodStructure
)

// SelectorAll is the method selector that runs all three methods.
const SelectorAll = "all"

// methodNames is the canonical selector spelling per method.
var methodNames = map[Method]string{
	MethodHeight:    "height",
	MethodColor:     "color",
	MethodStructure: "structure",
}

// Methods returns all conversion methods in canonical order.
func Methods() []Method {
	return []Method{MethodHeight, MethodColor, MethodStructure}
}

// String returns the method's selector name.
func (m Method) String() string {
	if s, ok := methodNames[m]; ok {
		return s
	}
	return "unknown"
}

// ParseMethod resolves a selector string to a Method.
// It fails with an INVALID_METHOD error for anything outside the closed set;
// the "all" selector is not a Method and is handled by Run.
func ParseMethod(s string) (Method, error) {
	for m, name := range methodNames {
		if s == name {
			return m, nil
		}
	}
	return 0, errors.New(errors.ErrCodeInvalidMethod, "unknown method: %q (must be one of: height, color, structure, all)", s)
}

// =============================================================================
// Options
// =============================================================================

// Default option values.
const (
	// DefaultResolution is the target grid size along x/y.
	DefaultResolution = 64

	// DefaultMaxHeight is the maximum column height for the height method.
	DefaultMaxHeight = 32

	// DefaultLayers is the number of hue layers for the color method.
	DefaultLayers = 16

	// DefaultDepthLevels is the z extent for the structure method.
	DefaultDepthLevels = 24

	// DefaultEdgeThreshold is the normalized gradient magnitude above
	// which a cell counts as an edge, in [0, 255].
	DefaultEdgeThreshold = 100
)

// achromaticSat is the saturation below which a cell is treated as grayscale
// by the color method. Such cells have no meaningful hue and are assigned
// layer 0 deterministically.
const achromaticSat = 0.08

// Options configures a conversion. The zero value selects all defaults.
type Options struct {
	// Resolution is the binned grid size along x/y. Applies to every
	// method. Default 64.
	Resolution int `json:"resolution,omitempty"`

	// MaxHeight bounds z for the height method; columns span [0, MaxHeight].
	// Default 32.
	MaxHeight int `json:"max_height,omitempty"`

	// Layers is the hue bucket count for the color method. Default 16.
	Layers int `json:"layers,omitempty"`

	// DepthLevels is the z extent for the structure method. Default 24.
	DepthLevels int `json:"depth_levels,omitempty"`

	// Shell switches the height method to emitting only the topmost voxel
	// of each column instead of solid columns.
	Shell bool `json:"shell,omitempty"`

	// EdgeThreshold is the structure method's edge cutoff on the
	// normalized gradient magnitude, in [0, 255]. Default 100.
	EdgeThreshold int `json:"edge_threshold,omitempty"`
}

// ValidateAndSetDefaults checks numeric options and applies defaults.
// Zero means unset and takes the default; negative values fail with an
// INVALID_CONFIG error. The method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	fields := []struct {
		name string
		v    *int
		def  int
	}{
		{"resolution", &o.Resolution, DefaultResolution},
		{"max_height", &o.MaxHeight, DefaultMaxHeight},
		{"layers", &o.Layers, DefaultLayers},
		{"depth_levels", &o.DepthLevels, DefaultDepthLevels},
		{"edge_threshold", &o.EdgeThreshold, DefaultEdgeThreshold},
	}
	for _, f := range fields {
		if *f.v < 0 {
			return errors.New(errors.ErrCodeInvalidConfig, "%s must be positive, got %d", f.name, *f.v)
		}
		if *f.v == 0 {
			*f.v = f.def
		}
	}
	if o.EdgeThreshold > 255 {
		return errors.New(errors.ErrCodeInvalidConfig, "edge_threshold must be at most 255, got %d", o.EdgeThreshold)
	}
	return nil
}

// =============================================================================
// Dispatch
// =============================================================================

// Convert runs a single conversion method on src.
//
// Validation is all-or-nothing and happens before any work: an empty image
// fails with INVALID_IMAGE, non-positive numeric options with INVALID_CONFIG.
// On success the returned grid is frozen and owned by the caller.
func Convert(src source.Source, method Method, opts Options) (*voxel.Grid, error) {
	if _, ok := methodNames[method]; !ok {
		return nil, errors.New(errors.ErrCodeInvalidMethod, "unknown method: %d", int(method))
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	binned, err := source.Bin(src, opts.Resolution)
	if err != nil {
		return nil, err
	}
	return run(binned, method, opts), nil
}

// ConvertAll runs all three methods on src and returns the grids keyed by
// method name. The methods are independent and run concurrently; the binned
// grid is shared read-only input.
func ConvertAll(src source.Source, opts Options) (map[string]*voxel.Grid, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	binned, err := source.Bin(src, opts.Resolution)
	if err != nil {
		return nil, err
	}

	var (
		mu    sync.Mutex
		wg    sync.WaitGroup
		grids = make(map[string]*voxel.Grid, 3)
	)
	for _, m := range Methods() {
		wg.Add(1)
		go func(m Method) {
			defer wg.Done()
			g := run(binned, m, opts)
			mu.Lock()
			grids[m.String()] = g
			mu.Unlock()
		}(m)
	}
	wg.Wait()
	return grids, nil
}

// Run dispatches on a selector string. For "all" it behaves like ConvertAll;
// otherwise it returns a single-entry map keyed by the method name.
func Run(src source.Source, selector string, opts Options) (map[string]*voxel.Grid, error) {
	if selector == SelectorAll {
		return ConvertAll(src, opts)
	}
	m, err := ParseMethod(selector)
	if err != nil {
		return nil, err
	}
	g, err := Convert(src, m, opts)
	if err != nil {
		return nil, err
	}
	return map[string]*voxel.Grid{m.String(): g}, nil
}

// run invokes the algorithm for a method on a validated binned grid.
// Methods are total over well-formed input; they cannot fail here.
func run(binned *source.Binned, method Method, opts Options) *voxel.Grid {
	switch method {
	case MethodColor:
		return layerByColor(binned, opts)
	case MethodStructure:
		return buildStructure(binned, opts)
	default:
		return mapHeight(binned, opts)
	}
}

// mustAdd panics on a Builder.Add failure. Algorithms derive every
// coordinate from validated bounds, so a failure is a programming error.
func mustAdd(b *voxel.Builder, c voxel.Coordinate, color voxel.Color) {
	if err := b.Add(c, color); err != nil {
		panic(err)
	}
}
