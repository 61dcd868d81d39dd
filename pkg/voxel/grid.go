package voxel

import (
	"fmt"
	"sort"
)

// Coordinate is an integer position in the voxel grid.
// X maps from the source image column, Y from the row, Z is the axis derived
// by the conversion method (height, color layer, or structural offset).
type Coordinate struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

// Color is an 8-bit RGB color attribute.
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// Voxel is an occupied grid cell. Occupancy is implicit: a voxel present in a
// grid is occupied, absent coordinates are empty.
type Voxel struct {
	Pos   Coordinate `json:"pos"`
	Color Color      `json:"color"`
}

// Metadata describes the grid's bounds and provenance.
type Metadata struct {
	// Method is the name of the conversion method that produced the grid.
	Method string `json:"method"`

	// Resolution is the exclusive upper bound for the X and Y axes.
	Resolution int `json:"resolution"`

	// ZExtent is the exclusive upper bound for the Z axis. It is
	// method-specific: maxHeight+1 for height, the layer count for color,
	// the depth level count for structure.
	ZExtent int `json:"z_extent"`

	// SourceWidth and SourceHeight are the dimensions of the source image
	// before binning.
	SourceWidth  int `json:"source_width"`
	SourceHeight int `json:"source_height"`
}

// Grid is an immutable sparse voxel grid. Construct with a Builder.
type Grid struct {
	meta  Metadata
	arena []Voxel
	index map[Coordinate]int // coordinate -> arena slot
}

// Meta returns the grid metadata.
func (g *Grid) Meta() Metadata { return g.meta }

// Len returns the number of occupied voxels.
func (g *Grid) Len() int { return len(g.arena) }

// Voxels returns the occupied voxels in insertion order.
// The returned slice is the grid's backing arena; callers must not modify it.
func (g *Grid) Voxels() []Voxel { return g.arena }

// At looks up the color at a coordinate.
// The second return value reports whether the coordinate is occupied.
func (g *Grid) At(c Coordinate) (Color, bool) {
	i, ok := g.index[c]
	if !ok {
		return Color{}, false
	}
	return g.arena[i].Color, true
}

// Equal reports whether two grids have identical metadata and contents.
// Voxel order is ignored; only the occupied set and colors are compared.
func (g *Grid) Equal(other *Grid) bool {
	if g.meta != other.meta || len(g.arena) != len(other.arena) {
		return false
	}
	for _, v := range g.arena {
		c, ok := other.At(v.Pos)
		if !ok || c != v.Color {
			return false
		}
	}
	return true
}

// Builder assembles a Grid incrementally. A Builder must be used by a single
// goroutine; the Grid it produces is safe for concurrent reads.
type Builder struct {
	meta  Metadata
	arena []Voxel
	index map[Coordinate]int
}

// NewBuilder creates a builder for a grid with the given metadata.
// Resolution and ZExtent must be positive; Add enforces them as bounds.
func NewBuilder(meta Metadata) *Builder {
	return &Builder{
		meta:  meta,
		index: make(map[Coordinate]int),
	}
}

// Add appends a voxel. It returns an error if the coordinate lies outside the
// grid bounds or is already occupied. Conversion methods never emit either on
// legal input, so an error here indicates a bug in the caller.
func (b *Builder) Add(c Coordinate, color Color) error {
	if c.X < 0 || c.X >= b.meta.Resolution || c.Y < 0 || c.Y >= b.meta.Resolution {
		return fmt.Errorf("coordinate (%d,%d,%d) outside resolution %d", c.X, c.Y, c.Z, b.meta.Resolution)
	}
	if c.Z < 0 || c.Z >= b.meta.ZExtent {
		return fmt.Errorf("coordinate (%d,%d,%d) outside z extent %d", c.X, c.Y, c.Z, b.meta.ZExtent)
	}
	if _, dup := b.index[c]; dup {
		return fmt.Errorf("duplicate voxel at (%d,%d,%d)", c.X, c.Y, c.Z)
	}
	b.index[c] = len(b.arena)
	b.arena = append(b.arena, Voxel{Pos: c, Color: color})
	return nil
}

// Build freezes the builder's contents into an immutable Grid.
// Voxels are sorted into canonical (y, x, z) order so identical conversions
// produce bit-identical grids regardless of emission order.
// The builder must not be used after Build.
func (b *Builder) Build() *Grid {
	sort.Slice(b.arena, func(i, j int) bool {
		a, c := b.arena[i].Pos, b.arena[j].Pos
		if a.Y != c.Y {
			return a.Y < c.Y
		}
		if a.X != c.X {
			return a.X < c.X
		}
		return a.Z < c.Z
	})
	for i, v := range b.arena {
		b.index[v.Pos] = i
	}
	g := &Grid{
		meta:  b.meta,
		arena: b.arena,
		index: b.index,
	}
	b.arena = nil
	b.index = nil
	return g
}
