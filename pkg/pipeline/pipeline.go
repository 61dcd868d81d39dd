// Package pipeline provides the core conversion pipeline for Pixelstack.
//
// This package implements the complete load → convert → render pipeline that
// can be used by CLI and API components. By centralizing this logic, we
// ensure consistent behavior across all entry points and avoid code
// duplication.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: Read and decode the source image
//  2. Convert: Run the selected conversion methods to build voxel grids
//  3. Render: Generate output artifacts in various formats (JSON, VXG, HTML, PNG)
//
// Conversion and rendering are cached by content hash: the same image bytes
// with the same options never convert twice.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Input:    "photo.png",
//	    Selector: "height",
//	    Formats:  []string{"json", "html"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	page := result.Artifacts["height"]["html"]
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pixelstack/pkg/cache"
	"github.com/matzehuels/pixelstack/pkg/convert"
	"github.com/matzehuels/pixelstack/pkg/errors"
	"github.com/matzehuels/pixelstack/pkg/render"
	"github.com/matzehuels/pixelstack/pkg/voxel"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

// DefaultSelector converts with every method.
const DefaultSelector = convert.SelectorAll

// DefaultMaxPoints caps scatter plot sizes, matching the renderer's default.
const DefaultMaxPoints = render.DefaultMaxPoints

// Format constants for output artifacts.
const (
	FormatJSON = "json"
	FormatVXG  = "vxg"
	FormatHTML = "html"
	FormatPNG  = "png"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatVXG:  true,
	FormatHTML: true,
	FormatPNG:  true,
}

// ValidSelectors is the set of supported method selectors.
var ValidSelectors = map[string]bool{
	convert.SelectorAll:              true,
	convert.MethodHeight.String():    true,
	convert.MethodColor.String():     true,
	convert.MethodStructure.String(): true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the conversion pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Input options. Exactly one of Input (a file path) or ImageData
	// (raw encoded image bytes) must be set.
	Input     string `json:"input,omitempty"`
	ImageData []byte `json:"-"`

	// Selector picks the conversion methods: a method name or "all".
	Selector string `json:"method,omitempty"`

	// Conversion options. Zero values take the convert package defaults.
	Resolution    int  `json:"resolution,omitempty"`
	MaxHeight     int  `json:"max_height,omitempty"`
	Layers        int  `json:"layers,omitempty"`
	DepthLevels   int  `json:"depth_levels,omitempty"`
	EdgeThreshold int  `json:"edge_threshold,omitempty"`
	Shell         bool `json:"shell,omitempty"`

	// Render options
	Formats   []string `json:"formats,omitempty"`
	MaxPoints int      `json:"max_points,omitempty"`

	// Refresh bypasses cached grids and artifacts.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Grids are the converted voxel grids keyed by method name.
	Grids map[string]*voxel.Grid

	// GridHashes are content hashes of the serialized grids, keyed by
	// method name. Exposed for API responses and cache diagnostics.
	GridHashes map[string]string

	// Artifacts contains rendered outputs keyed by method name, then format.
	Artifacts map[string]map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	SourceWidth  int
	SourceHeight int
	VoxelCount   int
	LoadTime     time.Duration
	ConvertTime  time.Duration
	RenderTime   time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	ConvertHit bool // Whether every requested grid came from cache
	RenderHit  bool // Whether every artifact came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: json, vxg, html, png)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateSelector checks that a method selector is valid.
func ValidateSelector(selector string) error {
	if !ValidSelectors[selector] {
		return errors.New(errors.ErrCodeInvalidMethod, "invalid method: %q (must be one of: height, color, structure, all)", selector)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent - calling it multiple times has the same effect
// as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Input == "" && len(o.ImageData) == 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "input path or image data is required")
	}

	if o.Selector == "" {
		o.Selector = DefaultSelector
	}
	if err := ValidateSelector(o.Selector); err != nil {
		return err
	}

	co := o.ConvertOptions()
	if err := co.ValidateAndSetDefaults(); err != nil {
		return err
	}
	o.Resolution = co.Resolution
	o.MaxHeight = co.MaxHeight
	o.Layers = co.Layers
	o.DepthLevels = co.DepthLevels
	o.EdgeThreshold = co.EdgeThreshold

	if len(o.Formats) == 0 {
		o.Formats = []string{FormatJSON}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.MaxPoints == 0 {
		o.MaxPoints = DefaultMaxPoints
	}
	if o.MaxPoints < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "max_points must be positive, got %d", o.MaxPoints)
	}

	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	o.validated = true
	return nil
}

// ConvertOptions returns the conversion options for the convert package.
func (o *Options) ConvertOptions() convert.Options {
	return convert.Options{
		Resolution:    o.Resolution,
		MaxHeight:     o.MaxHeight,
		Layers:        o.Layers,
		DepthLevels:   o.DepthLevels,
		EdgeThreshold: o.EdgeThreshold,
		Shell:         o.Shell,
	}
}

// GridKeyOpts returns cache key options for grid conversion.
func (o *Options) GridKeyOpts() cache.GridKeyOpts {
	return cache.GridKeyOpts{
		Resolution:    o.Resolution,
		MaxHeight:     o.MaxHeight,
		Layers:        o.Layers,
		DepthLevels:   o.DepthLevels,
		EdgeThreshold: o.EdgeThreshold,
		Shell:         o.Shell,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:    format,
		MaxPoints: o.MaxPoints,
	}
}

// Methods returns the conversion methods selected by the options.
func (o *Options) Methods() []convert.Method {
	if o.Selector == convert.SelectorAll || o.Selector == "" {
		return convert.Methods()
	}
	m, err := convert.ParseMethod(o.Selector)
	if err != nil {
		return nil
	}
	return []convert.Method{m}
}
