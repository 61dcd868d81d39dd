package render

import (
	"fmt"
	"io"
	"math"

	"github.com/fogleman/gg"

	"github.com/matzehuels/pixelstack/pkg/voxel"
)

const (
	// DefaultCellSize is the edge length in pixels of one voxel cell in a
	// slice panel.
	DefaultCellSize = 8

	maxCellSize   = 64
	panelGap      = 12
	labelHeight   = 16
	maxSlicePanel = 4096 // pixels per montage edge before we shrink cells
)

type SliceOption func(*sliceConfig)

type sliceConfig struct {
	cellSize int
	columns  int
}

// WithCellSize sets the pixel size of one voxel cell. Clamped to [1, 64].
func WithCellSize(px int) SliceOption {
	return func(c *sliceConfig) { c.cellSize = px }
}

// WithColumns fixes the number of panel columns. Defaults to a near-square
// layout.
func WithColumns(n int) SliceOption {
	return func(c *sliceConfig) { c.columns = n }
}

// WriteSlicesPNG renders the grid as a PNG montage of horizontal
// cross-sections, one panel per z level from bottom to top. Empty cells
// stay dark so the occupied structure reads at a glance.
func WriteSlicesPNG(g *voxel.Grid, w io.Writer, options ...SliceOption) error {
	cfg := sliceConfig{cellSize: DefaultCellSize}
	for _, opt := range options {
		opt(&cfg)
	}
	if cfg.cellSize < 1 {
		cfg.cellSize = DefaultCellSize
	}
	if cfg.cellSize > maxCellSize {
		cfg.cellSize = maxCellSize
	}

	meta := g.Meta()
	panels := meta.ZExtent
	cols := cfg.columns
	if cols < 1 {
		cols = int(math.Ceil(math.Sqrt(float64(panels))))
	}
	if cols > panels {
		cols = panels
	}
	rows := (panels + cols - 1) / cols

	// Shrink cells rather than produce an unreasonably large image.
	for cfg.cellSize > 1 && cols*(meta.Resolution*cfg.cellSize+panelGap) > maxSlicePanel {
		cfg.cellSize--
	}

	panelW := meta.Resolution * cfg.cellSize
	panelH := panelW + labelHeight
	imgW := cols*panelW + (cols+1)*panelGap
	imgH := rows*panelH + (rows+1)*panelGap

	dc := gg.NewContext(imgW, imgH)
	dc.SetRGB255(24, 24, 28)
	dc.Clear()

	for z := 0; z < panels; z++ {
		col := z % cols
		row := z / cols
		x0 := float64(panelGap + col*(panelW+panelGap))
		y0 := float64(panelGap + row*(panelH+panelGap))

		dc.SetRGB255(40, 40, 46)
		dc.DrawRectangle(x0, y0, float64(panelW), float64(panelW))
		dc.Fill()

		dc.SetRGB255(200, 200, 205)
		dc.DrawString(fmt.Sprintf("z=%d", z), x0, y0+float64(panelW)+float64(labelHeight)-4)
	}

	cell := float64(cfg.cellSize)
	for _, v := range g.Voxels() {
		col := v.Pos.Z % cols
		row := v.Pos.Z / cols
		x0 := float64(panelGap + col*(panelW+panelGap))
		y0 := float64(panelGap + row*(panelH+panelGap))

		dc.SetRGB255(int(v.Color.R), int(v.Color.G), int(v.Color.B))
		dc.DrawRectangle(x0+float64(v.Pos.X)*cell, y0+float64(v.Pos.Y)*cell, cell, cell)
		dc.Fill()
	}

	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("encode slices: %w", err)
	}
	return nil
}
