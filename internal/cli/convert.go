package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pixelstack/pkg/pipeline"
)

// convertOpts holds the command-line flags for the convert command.
type convertOpts struct {
	output        string // output base path (method and format suffixes are appended)
	method        string // method selector: height, color, structure, or all
	formats       []string
	resolution    int
	maxHeight     int
	layers        int
	depthLevels   int
	edgeThreshold int
	maxPoints     int
	shell         bool
	refresh       bool
	noCache       bool
}

// convertCommand creates the convert command, the main entry point of the
// CLI. It runs the full pipeline and writes one file per grid and format.
func (c *CLI) convertCommand() *cobra.Command {
	var opts convertOpts
	var formatsStr string

	cmd := &cobra.Command{
		Use:   "convert [image]",
		Short: "Convert an image into voxel grids",
		Long: `Convert a 2D image into sparse 3D voxel grids.

Three methods are available:
  height     brightness mapped to column height
  color      hue mapped to depth layer
  structure  edge distance mapped to depth

By default all three run and each grid is written as JSON next to the input.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			return c.runConvert(cmd, args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output base path (defaults to the input path without extension)")
	cmd.Flags().StringVarP(&opts.method, "method", "m", "all", "conversion method: height, color, structure, or all")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): json (default), vxg, html, png (comma-separated)")
	cmd.Flags().IntVar(&opts.resolution, "resolution", 0, "binned grid size along x/y")
	cmd.Flags().IntVar(&opts.maxHeight, "max-height", 0, "maximum column height for the height method")
	cmd.Flags().IntVar(&opts.layers, "layers", 0, "hue bucket count for the color method")
	cmd.Flags().IntVar(&opts.depthLevels, "depth-levels", 0, "depth extent for the structure method")
	cmd.Flags().IntVar(&opts.edgeThreshold, "edge-threshold", 0, "edge cutoff for the structure method (0-255)")
	cmd.Flags().IntVar(&opts.maxPoints, "max-points", 0, "point cap for HTML scatter plots")
	cmd.Flags().BoolVar(&opts.shell, "shell", false, "emit only the topmost voxel per column (height method)")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass cached grids and artifacts")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the cache entirely")

	return cmd
}

func (c *CLI) runConvert(cmd *cobra.Command, input string, opts *convertOpts) error {
	logger := loggerFromContext(cmd.Context())
	runner, err := c.newRunner(opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	popts := pipeline.Options{
		Input:         input,
		Selector:      opts.method,
		Resolution:    opts.resolution,
		MaxHeight:     opts.maxHeight,
		Layers:        opts.layers,
		DepthLevels:   opts.depthLevels,
		EdgeThreshold: opts.edgeThreshold,
		MaxPoints:     opts.maxPoints,
		Shell:         opts.shell,
		Formats:       opts.formats,
		Refresh:       opts.refresh,
		Logger:        logger,
	}
	c.Config.applyDefaults(&popts)

	prog := newProgress(logger)
	spinner := newSpinnerWithContext(cmd.Context(), "Converting "+filepath.Base(input))
	spinner.Start()
	result, err := runner.Execute(cmd.Context(), popts)
	spinner.Stop()
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Converted %d grid(s)", len(result.Grids)))

	printSuccess("Converted %s (%dx%d)", filepath.Base(input), result.Stats.SourceWidth, result.Stats.SourceHeight)
	for _, name := range sortedKeys(result.Grids) {
		printGridStats(name, result.Grids[name].Len(), result.CacheInfo.ConvertHit)
	}
	if result.Stats.VoxelCount == 0 {
		printWarning("No voxels produced. Try lowering --edge-threshold or using another method.")
	}

	base := basePath(opts.output, input)
	single := len(result.Grids) == 1
	for _, name := range sortedKeys(result.Grids) {
		for _, format := range popts.Formats {
			path := artifactPath(base, name, format, single)
			if err := os.WriteFile(path, result.Artifacts[name][format], 0o644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			printFile(path)
		}
	}
	return nil
}

// basePath derives the base output path from the output and input paths.
// If output is empty, the input path minus its extension is used. A known
// format extension on output is stripped so "out.json" and "out" agree.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// artifactPath builds the output filename for one grid artifact.
// With a single grid the method suffix is dropped.
func artifactPath(base, method, format string, single bool) string {
	if single {
		return base + "." + format
	}
	return base + "_" + method + "." + format
}

// sortedKeys returns map keys in stable order for deterministic output.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
