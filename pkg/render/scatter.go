package render

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/matzehuels/pixelstack/pkg/voxel"
)

// DefaultMaxPoints bounds the scatter plot size. Browsers handle a few
// thousand 3D points comfortably; beyond that the page becomes sluggish.
const DefaultMaxPoints = 8000

type ScatterOption func(*scatterConfig)

type scatterConfig struct {
	title     string
	maxPoints int
	theme     string
}

// WithTitle overrides the chart title. Defaults to the grid's method name.
func WithTitle(title string) ScatterOption {
	return func(c *scatterConfig) { c.title = title }
}

// WithMaxPoints caps the number of rendered points. Values below 1 restore
// the default.
func WithMaxPoints(n int) ScatterOption {
	return func(c *scatterConfig) { c.maxPoints = n }
}

// WithTheme sets the echarts theme name.
func WithTheme(theme string) ScatterOption {
	return func(c *scatterConfig) { c.theme = theme }
}

// WriteScatterHTML renders the grid as a self-contained HTML page with an
// interactive 3D scatter plot. When the grid holds more voxels than the
// point cap, every nth voxel is kept so the subsample stays deterministic.
func WriteScatterHTML(g *voxel.Grid, w io.Writer, options ...ScatterOption) error {
	cfg := scatterConfig{
		title:     g.Meta().Method,
		maxPoints: DefaultMaxPoints,
		theme:     "dark",
	}
	for _, opt := range options {
		opt(&cfg)
	}
	if cfg.maxPoints < 1 {
		cfg.maxPoints = DefaultMaxPoints
	}

	voxels := g.Voxels()
	stride := subsampleStride(len(voxels), cfg.maxPoints)

	data := make([]opts.Chart3DData, 0, len(voxels)/stride+1)
	for i := 0; i < len(voxels); i += stride {
		v := voxels[i]
		data = append(data, opts.Chart3DData{
			Value: []interface{}{v.Pos.X, v.Pos.Y, v.Pos.Z},
			ItemStyle: &opts.ItemStyle{
				Color: fmt.Sprintf("#%02x%02x%02x", v.Color.R, v.Color.G, v.Color.B),
			},
		})
	}

	meta := g.Meta()
	chart := charts.NewScatter3D()
	chart.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: cfg.title,
			Theme:     cfg.theme,
			Width:     "900px",
			Height:    "900px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    cfg.title,
			Subtitle: fmt.Sprintf("resolution=%d z_extent=%d points=%d stride=%d", meta.Resolution, meta.ZExtent, len(data), stride),
		}),
		charts.WithGrid3DOpts(opts.Grid3D{
			Show:     opts.Bool(true),
			BoxWidth: 100,
			BoxDepth: 100,
		}),
	)
	chart.AddSeries("voxels", data)

	if err := chart.Render(w); err != nil {
		return fmt.Errorf("render scatter: %w", err)
	}
	return nil
}

// subsampleStride returns the smallest stride that keeps at most max points
// out of n.
func subsampleStride(n, max int) int {
	if n <= max {
		return 1
	}
	return int(math.Ceil(float64(n) / float64(max)))
}
