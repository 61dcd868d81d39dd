package voxelio

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/pixelstack/pkg/errors"
	"github.com/matzehuels/pixelstack/pkg/voxel"
)

func testGrid(t *testing.T) *voxel.Grid {
	t.Helper()
	b := voxel.NewBuilder(voxel.Metadata{
		Method:       "height",
		Resolution:   8,
		ZExtent:      5,
		SourceWidth:  64,
		SourceHeight: 48,
	})
	cells := []struct {
		c     voxel.Coordinate
		color voxel.Color
	}{
		{voxel.Coordinate{X: 0, Y: 0, Z: 0}, voxel.Color{R: 255, G: 0, B: 0}},
		{voxel.Coordinate{X: 7, Y: 3, Z: 4}, voxel.Color{R: 0, G: 128, B: 255}},
		{voxel.Coordinate{X: 2, Y: 6, Z: 1}, voxel.Color{R: 40, G: 40, B: 40}},
	}
	for _, c := range cells {
		if err := b.Add(c.c, c.color); err != nil {
			t.Fatalf("add voxel: %v", err)
		}
	}
	return b.Build()
}

func TestJSONRoundTrip(t *testing.T) {
	g := testGrid(t)

	var buf bytes.Buffer
	if err := WriteJSON(g, &buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := ReadJSON(&buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !g.Equal(got) {
		t.Fatal("round-tripped grid differs")
	}
}

func TestMarshalGridDeterministic(t *testing.T) {
	g := testGrid(t)
	a, err := MarshalGrid(g)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	b, err := MarshalGrid(g)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatal("repeated marshals differ")
	}
	got, err := UnmarshalGrid(a)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !g.Equal(got) {
		t.Fatal("unmarshaled grid differs")
	}
}

func TestVXGRoundTrip(t *testing.T) {
	g := testGrid(t)

	var buf bytes.Buffer
	if err := WriteVXG(g, &buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := ReadVXG(&buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !g.Equal(got) {
		t.Fatal("round-tripped grid differs")
	}
}

func TestVXGRejectsBadMagic(t *testing.T) {
	_, err := ReadVXG(strings.NewReader("nope"))
	if errors.GetCode(err) != errors.ErrCodeInvalidGrid {
		t.Fatalf("code = %v, want INVALID_GRID", errors.GetCode(err))
	}
}

func TestReadJSONRejectsInvalidRecords(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{
			name: "out of bounds",
			doc: `{"method":"height","resolution":4,"z_extent":2,
				"voxels":[{"x":9,"y":0,"z":0,"r":1,"g":2,"b":3}]}`,
		},
		{
			name: "duplicate coordinate",
			doc: `{"method":"height","resolution":4,"z_extent":2,
				"voxels":[{"x":1,"y":1,"z":0,"r":1,"g":2,"b":3},
					{"x":1,"y":1,"z":0,"r":4,"g":5,"b":6}]}`,
		},
		{
			name: "non-positive bounds",
			doc:  `{"method":"height","resolution":0,"z_extent":2,"voxels":[]}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadJSON(strings.NewReader(tt.doc))
			if errors.GetCode(err) != errors.ErrCodeInvalidGrid {
				t.Fatalf("code = %v, want INVALID_GRID", errors.GetCode(err))
			}
		})
	}
}

func TestExportImportFiles(t *testing.T) {
	g := testGrid(t)
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "grid.json")
	if err := ExportJSON(g, jsonPath); err != nil {
		t.Fatalf("export json: %v", err)
	}
	got, err := ImportJSON(jsonPath)
	if err != nil {
		t.Fatalf("import json: %v", err)
	}
	if !g.Equal(got) {
		t.Fatal("json file round trip differs")
	}

	vxgPath := filepath.Join(dir, "grid.vxg")
	if err := ExportVXG(g, vxgPath); err != nil {
		t.Fatalf("export vxg: %v", err)
	}
	got, err = ImportVXG(vxgPath)
	if err != nil {
		t.Fatalf("import vxg: %v", err)
	}
	if !g.Equal(got) {
		t.Fatal("vxg file round trip differs")
	}
}

func TestImportMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent.json")
	if _, err := ImportJSON(missing); errors.GetCode(err) != errors.ErrCodeFileNotFound {
		t.Fatalf("json code = %v, want FILE_NOT_FOUND", errors.GetCode(err))
	}
	if _, err := ImportVXG(missing + ".vxg"); errors.GetCode(err) != errors.ErrCodeFileNotFound {
		t.Fatalf("vxg code = %v, want FILE_NOT_FOUND", errors.GetCode(err))
	}
}
