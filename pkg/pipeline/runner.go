package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pixelstack/pkg/cache"
	"github.com/matzehuels/pixelstack/pkg/convert"
	"github.com/matzehuels/pixelstack/pkg/errors"
	"github.com/matzehuels/pixelstack/pkg/observability"
	"github.com/matzehuels/pixelstack/pkg/render"
	"github.com/matzehuels/pixelstack/pkg/source"
	"github.com/matzehuels/pixelstack/pkg/voxel"
	"github.com/matzehuels/pixelstack/pkg/voxelio"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete load → convert → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	result := &Result{
		Grids:      make(map[string]*voxel.Grid),
		GridHashes: make(map[string]string),
		Artifacts:  make(map[string]map[string][]byte),
	}

	// Stage 1: Load
	loadStart := time.Now()
	data, src, err := r.LoadSource(opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.SourceWidth = src.Width()
	result.Stats.SourceHeight = src.Height()

	r.Logger.Info("loaded image",
		"width", src.Width(),
		"height", src.Height(),
		"bytes", len(data),
		"duration", result.Stats.LoadTime)

	// Stage 2: Convert
	convertStart := time.Now()
	grids, convertHit, err := r.ConvertWithCacheInfo(ctx, data, src, opts)
	if err != nil {
		return nil, fmt.Errorf("convert: %w", err)
	}
	result.Grids = grids
	result.Stats.ConvertTime = time.Since(convertStart)
	result.CacheInfo.ConvertHit = convertHit
	for name, g := range grids {
		result.Stats.VoxelCount += g.Len()
		if gridData, err := voxelio.MarshalGrid(g); err == nil {
			result.GridHashes[name] = cache.Hash(gridData)
		}
	}

	r.Logger.Info("converted image",
		"methods", len(grids),
		"voxels", result.Stats.VoxelCount,
		"cached", convertHit,
		"duration", result.Stats.ConvertTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, grids, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// LoadSource reads and decodes the input image. It returns the raw encoded
// bytes (used for content hashing) alongside the decoded source.
func (r *Runner) LoadSource(opts Options) ([]byte, source.Source, error) {
	data := opts.ImageData
	if len(data) == 0 {
		var err error
		data, err = os.ReadFile(opts.Input)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "image not found: %s", opts.Input)
			}
			return nil, nil, fmt.Errorf("read %s: %w", opts.Input, err)
		}
	}
	src, err := source.Decode(data)
	if err != nil {
		return nil, nil, err
	}
	return data, src, nil
}

// ConvertWithCacheInfo converts the image with caching and reports whether
// every requested grid came from cache. Grids are keyed by the hash of the
// image bytes plus the conversion options, so identical inputs never
// convert twice.
func (r *Runner) ConvertWithCacheInfo(ctx context.Context, data []byte, src source.Source, opts Options) (map[string]*voxel.Grid, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	imageHash := cache.Hash(data)
	methods := opts.Methods()

	grids := make(map[string]*voxel.Grid, len(methods))
	missing := make([]convert.Method, 0, len(methods))

	if !opts.Refresh {
		for _, m := range methods {
			key := r.Keyer.GridKey(imageHash, m.String(), opts.GridKeyOpts())
			if cached, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
				if g, err := voxelio.UnmarshalGrid(cached); err == nil {
					observability.Cache().OnCacheHit(ctx, "grid")
					grids[m.String()] = g
					continue
				}
				// Corrupt entry, recompute below.
			}
			observability.Cache().OnCacheMiss(ctx, "grid")
			missing = append(missing, m)
		}
	} else {
		missing = methods
	}

	allHit := len(missing) == 0
	for _, m := range missing {
		start := time.Now()
		observability.Pipeline().OnConvertStart(ctx, m.String())
		g, err := convert.Convert(src, m, opts.ConvertOptions())
		if err != nil {
			observability.Pipeline().OnConvertComplete(ctx, m.String(), 0, time.Since(start), err)
			return nil, false, err
		}
		observability.Pipeline().OnConvertComplete(ctx, m.String(), g.Len(), time.Since(start), nil)
		grids[m.String()] = g

		key := r.Keyer.GridKey(imageHash, m.String(), opts.GridKeyOpts())
		if gridData, err := voxelio.MarshalGrid(g); err == nil {
			_ = r.Cache.Set(ctx, key, gridData, cache.TTLGrid)
			observability.Cache().OnCacheSet(ctx, "grid", len(gridData))
		}
	}

	return grids, allHit, nil
}

// Convert is a convenience wrapper that loads the source itself and discards
// cache hit info.
func (r *Runner) Convert(ctx context.Context, opts Options) (map[string]*voxel.Grid, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	data, src, err := r.LoadSource(opts)
	if err != nil {
		return nil, err
	}
	grids, _, err := r.ConvertWithCacheInfo(ctx, data, src, opts)
	return grids, err
}

// RenderWithCacheInfo renders artifacts for every grid and format with
// caching. Artifact keys derive from the serialized grid's content hash, so
// a cached grid reuses its rendered artifacts regardless of how the grid
// was obtained.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, grids map[string]*voxel.Grid, opts Options) (map[string]map[string][]byte, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	renderStart := time.Now()
	observability.Pipeline().OnRenderStart(ctx, opts.Formats)

	artifacts := make(map[string]map[string][]byte, len(grids))
	allHit := true

	for name, g := range grids {
		gridData, err := voxelio.MarshalGrid(g)
		if err != nil {
			return nil, false, fmt.Errorf("serialize grid for cache key: %w", err)
		}
		gridHash := cache.Hash(gridData)
		artifacts[name] = make(map[string][]byte, len(opts.Formats))

		for _, format := range opts.Formats {
			key := r.Keyer.ArtifactKey(gridHash, opts.ArtifactKeyOpts(format))
			if !opts.Refresh {
				if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
					observability.Cache().OnCacheHit(ctx, "artifact")
					artifacts[name][format] = data
					continue
				}
				observability.Cache().OnCacheMiss(ctx, "artifact")
			}
			allHit = false

			data, err := r.renderArtifact(g, format, opts)
			if err != nil {
				observability.Pipeline().OnRenderComplete(ctx, opts.Formats, time.Since(renderStart), err)
				return nil, false, fmt.Errorf("render %s/%s: %w", name, format, err)
			}
			artifacts[name][format] = data
			_ = r.Cache.Set(ctx, key, data, cache.TTLArtifact)
			observability.Cache().OnCacheSet(ctx, "artifact", len(data))
		}
	}

	observability.Pipeline().OnRenderComplete(ctx, opts.Formats, time.Since(renderStart), nil)
	return artifacts, allHit, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and
// discards the cache hit info.
func (r *Runner) Render(ctx context.Context, grids map[string]*voxel.Grid, opts Options) (map[string]map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, grids, opts)
	return artifacts, err
}

// renderArtifact produces one artifact for a grid.
func (r *Runner) renderArtifact(g *voxel.Grid, format string, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case FormatJSON:
		if err := voxelio.WriteJSON(g, &buf); err != nil {
			return nil, err
		}
	case FormatVXG:
		if err := voxelio.WriteVXG(g, &buf); err != nil {
			return nil, err
		}
	case FormatHTML:
		err := render.WriteScatterHTML(g, &buf,
			render.WithTitle(g.Meta().Method),
			render.WithMaxPoints(opts.MaxPoints))
		if err != nil {
			return nil, err
		}
	case FormatPNG:
		if err := render.WriteSlicesPNG(g, &buf); err != nil {
			return nil, err
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q", format)
	}
	return buf.Bytes(), nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
