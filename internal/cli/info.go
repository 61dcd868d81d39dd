package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// infoCommand creates the info command for inspecting exported grids.
func (c *CLI) infoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info [grid]",
		Short: "Show metadata and statistics for a voxel grid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := loadGrid(args[0])
			if err != nil {
				return err
			}
			meta := g.Meta()

			printKeyValue("method", meta.Method)
			printKeyValue("resolution", fmt.Sprintf("%d x %d", meta.Resolution, meta.Resolution))
			printKeyValue("z extent", fmt.Sprintf("%d", meta.ZExtent))
			printKeyValue("source", fmt.Sprintf("%d x %d px", meta.SourceWidth, meta.SourceHeight))
			printKeyValue("voxels", fmt.Sprintf("%d", g.Len()))

			capacity := meta.Resolution * meta.Resolution * meta.ZExtent
			if capacity > 0 {
				printKeyValue("fill", fmt.Sprintf("%.1f%%", 100*float64(g.Len())/float64(capacity)))
			}

			// Occupancy per z level shows the grid's vertical profile.
			levels := make([]int, meta.ZExtent)
			for _, v := range g.Voxels() {
				levels[v.Pos.Z]++
			}
			headerPrinted := false
			for z, n := range levels {
				if n == 0 {
					continue
				}
				if !headerPrinted {
					printDetail("occupancy by z level:")
					headerPrinted = true
				}
				printDetail("z=%-3d %d", z, n)
			}
			return nil
		},
	}
}
