package voxelio

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/pixelstack/pkg/errors"
	"github.com/matzehuels/pixelstack/pkg/voxel"
)

// gridJSON is the serialization shape for a grid.
type gridJSON struct {
	Method       string      `json:"method"`
	Resolution   int         `json:"resolution"`
	ZExtent      int         `json:"z_extent"`
	SourceWidth  int         `json:"source_width"`
	SourceHeight int         `json:"source_height"`
	Voxels       []voxelJSON `json:"voxels"`
}

// voxelJSON is one voxel record, flattened for compactness.
type voxelJSON struct {
	X int   `json:"x"`
	Y int   `json:"y"`
	Z int   `json:"z"`
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// WriteJSON encodes a grid as indented JSON and writes it to w.
// The output can be re-imported with [ReadJSON] for round-trip processing.
func WriteJSON(g *voxel.Grid, w io.Writer) error {
	meta := g.Meta()
	out := gridJSON{
		Method:       meta.Method,
		Resolution:   meta.Resolution,
		ZExtent:      meta.ZExtent,
		SourceWidth:  meta.SourceWidth,
		SourceHeight: meta.SourceHeight,
		Voxels:       make([]voxelJSON, g.Len()),
	}
	for i, v := range g.Voxels() {
		out.Voxels[i] = voxelJSON{
			X: v.Pos.X, Y: v.Pos.Y, Z: v.Pos.Z,
			R: v.Color.R, G: v.Color.G, B: v.Color.B,
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadJSON decodes a JSON grid from r.
//
// ReadJSON returns an error if the JSON is malformed, a coordinate lies
// outside the declared bounds, or two records share a coordinate. Grids
// produced by this package always pass.
func ReadJSON(r io.Reader) (*voxel.Grid, error) {
	var data gridJSON
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidGrid, err, "decode grid JSON")
	}
	return rebuild(data)
}

// rebuild reconstructs a grid through the Builder, re-validating invariants.
func rebuild(data gridJSON) (*voxel.Grid, error) {
	if data.Resolution <= 0 || data.ZExtent <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidGrid, "grid bounds must be positive (resolution=%d, z_extent=%d)", data.Resolution, data.ZExtent)
	}
	b := voxel.NewBuilder(voxel.Metadata{
		Method:       data.Method,
		Resolution:   data.Resolution,
		ZExtent:      data.ZExtent,
		SourceWidth:  data.SourceWidth,
		SourceHeight: data.SourceHeight,
	})
	for _, v := range data.Voxels {
		err := b.Add(voxel.Coordinate{X: v.X, Y: v.Y, Z: v.Z}, voxel.Color{R: v.R, G: v.G, B: v.B})
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidGrid, err, "rebuild grid")
		}
	}
	return b.Build(), nil
}

// MarshalGrid serializes a grid to JSON bytes.
// Used for cache entries and content hashing; Build's canonical voxel order
// makes the bytes deterministic.
func MarshalGrid(g *voxel.Grid) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteJSON(g, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalGrid deserializes JSON bytes to a grid.
func UnmarshalGrid(data []byte) (*voxel.Grid, error) {
	return ReadJSON(bytes.NewReader(data))
}

// ExportJSON writes a grid to a JSON file at path.
func ExportJSON(g *voxel.Grid, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteJSON(g, f)
}

// ImportJSON reads a grid from a JSON file at path.
func ImportJSON(path string) (*voxel.Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "grid not found: %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}
