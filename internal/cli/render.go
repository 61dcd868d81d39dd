package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pixelstack/pkg/errors"
	"github.com/matzehuels/pixelstack/pkg/pipeline"
	"github.com/matzehuels/pixelstack/pkg/voxel"
	"github.com/matzehuels/pixelstack/pkg/voxelio"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output    string
	formats   []string
	maxPoints int
	noCache   bool
}

// renderCommand creates the render command. It re-renders artifacts from a
// previously exported grid file without touching the source image.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts
	var formatsStr string

	cmd := &cobra.Command{
		Use:   "render [grid]",
		Short: "Render artifacts from an exported voxel grid",
		Long: `Render a previously exported voxel grid (JSON or VXG) into
visual artifacts without re-running the conversion.

The grid format is detected from the file extension.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			if formatsStr == "" {
				opts.formats = []string{pipeline.FormatHTML}
			}
			return c.runRender(cmd, args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output base path (defaults to the grid path without extension)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): html (default), png, json, vxg (comma-separated)")
	cmd.Flags().IntVar(&opts.maxPoints, "max-points", 0, "point cap for HTML scatter plots")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the cache entirely")

	return cmd
}

func (c *CLI) runRender(cmd *cobra.Command, input string, opts *renderOpts) error {
	g, err := loadGrid(input)
	if err != nil {
		return err
	}
	c.Logger.Info("loaded grid",
		"method", g.Meta().Method,
		"resolution", g.Meta().Resolution,
		"voxels", g.Len())

	runner, err := c.newRunner(opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	method := g.Meta().Method
	popts := pipeline.Options{
		Input:     input,
		Selector:  method,
		Formats:   opts.formats,
		MaxPoints: opts.maxPoints,
		Logger:    c.Logger,
	}

	spinner := newSpinner("Rendering " + filepath.Base(input))
	spinner.Start()
	artifacts, cached, err := runner.RenderWithCacheInfo(cmd.Context(), map[string]*voxel.Grid{method: g}, popts)
	spinner.Stop()
	if err != nil {
		return err
	}

	printSuccess("Rendered %s", filepath.Base(input))
	printGridStats(method, g.Len(), cached)

	base := basePath(opts.output, input)
	for _, format := range popts.Formats {
		path := base + "." + format
		if err := os.WriteFile(path, artifacts[method][format], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}
	return nil
}

// loadGrid imports a grid file, picking the codec from the extension.
func loadGrid(path string) (*voxel.Grid, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return voxelio.ImportJSON(path)
	case ".vxg":
		return voxelio.ImportVXG(path)
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unrecognized grid extension %q (expected .json or .vxg)", filepath.Ext(path))
	}
}
