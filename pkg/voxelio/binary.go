package voxelio

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/klauspost/compress/zstd"

	"github.com/matzehuels/pixelstack/pkg/errors"
	"github.com/matzehuels/pixelstack/pkg/voxel"
)

// VXG binary layout:
//
//	magic   [4]byte "VXG1"
//	body    zstd stream of:
//	    methodLen uint8, method [methodLen]byte
//	    resolution, zExtent          uint16
//	    sourceWidth, sourceHeight    uint32
//	    count                        uint32
//	    count voxel records: x, y, z uint16, r, g, b uint8
//
// All integers are big-endian. Coordinates are capped at uint16, which is
// far beyond any practical grid resolution.
var vxgMagic = [4]byte{'V', 'X', 'G', '1'}

// WriteVXG encodes a grid in the VXG binary format.
func WriteVXG(g *voxel.Grid, w io.Writer) error {
	meta := g.Meta()
	if meta.Resolution > math.MaxUint16 || meta.ZExtent > math.MaxUint16 {
		return errors.New(errors.ErrCodeUnsupported, "grid bounds exceed VXG limits (resolution=%d, z_extent=%d)", meta.Resolution, meta.ZExtent)
	}
	if len(meta.Method) > math.MaxUint8 {
		return errors.New(errors.ErrCodeUnsupported, "method name too long: %d bytes", len(meta.Method))
	}

	if _, err := w.Write(vxgMagic[:]); err != nil {
		return fmt.Errorf("write magic: %w", err)
	}

	zw, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("init zstd: %w", err)
	}

	write := func(v any) error { return binary.Write(zw, binary.BigEndian, v) }
	if err := write(uint8(len(meta.Method))); err != nil {
		return err
	}
	if _, err := zw.Write([]byte(meta.Method)); err != nil {
		return err
	}
	for _, v := range []any{
		uint16(meta.Resolution), uint16(meta.ZExtent),
		uint32(meta.SourceWidth), uint32(meta.SourceHeight),
		uint32(g.Len()),
	} {
		if err := write(v); err != nil {
			return err
		}
	}
	for _, v := range g.Voxels() {
		rec := [9]byte{}
		binary.BigEndian.PutUint16(rec[0:2], uint16(v.Pos.X))
		binary.BigEndian.PutUint16(rec[2:4], uint16(v.Pos.Y))
		binary.BigEndian.PutUint16(rec[4:6], uint16(v.Pos.Z))
		rec[6], rec[7], rec[8] = v.Color.R, v.Color.G, v.Color.B
		if _, err := zw.Write(rec[:]); err != nil {
			return err
		}
	}
	return zw.Close()
}

// ReadVXG decodes a VXG binary grid from r.
func ReadVXG(r io.Reader) (*voxel.Grid, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidGrid, err, "read VXG magic")
	}
	if magic != vxgMagic {
		return nil, errors.New(errors.ErrCodeInvalidGrid, "not a VXG file (magic %q)", magic[:])
	}

	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidGrid, err, "init zstd")
	}
	defer zr.Close()

	var methodLen uint8
	if err := binary.Read(zr, binary.BigEndian, &methodLen); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidGrid, err, "read VXG header")
	}
	method := make([]byte, methodLen)
	if _, err := io.ReadFull(zr, method); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidGrid, err, "read VXG header")
	}

	var (
		resolution, zExtent uint16
		srcW, srcH, count   uint32
	)
	for _, v := range []any{&resolution, &zExtent, &srcW, &srcH, &count} {
		if err := binary.Read(zr, binary.BigEndian, v); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidGrid, err, "read VXG header")
		}
	}

	data := gridJSON{
		Method:       string(method),
		Resolution:   int(resolution),
		ZExtent:      int(zExtent),
		SourceWidth:  int(srcW),
		SourceHeight: int(srcH),
		Voxels:       make([]voxelJSON, count),
	}
	rec := make([]byte, 9)
	for i := range data.Voxels {
		if _, err := io.ReadFull(zr, rec); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidGrid, err, "read voxel %d of %d", i, count)
		}
		data.Voxels[i] = voxelJSON{
			X: int(binary.BigEndian.Uint16(rec[0:2])),
			Y: int(binary.BigEndian.Uint16(rec[2:4])),
			Z: int(binary.BigEndian.Uint16(rec[4:6])),
			R: rec[6], G: rec[7], B: rec[8],
		}
	}
	return rebuild(data)
}

// ExportVXG writes a grid to a VXG file at path.
func ExportVXG(g *voxel.Grid, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteVXG(g, f)
}

// ImportVXG reads a grid from a VXG file at path.
func ImportVXG(path string) (*voxel.Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "grid not found: %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadVXG(f)
}
