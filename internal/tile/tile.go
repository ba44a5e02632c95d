// Package tile models one decomposed input file and resolves the global index
// ranges it covers.
package tile

import (
	"path/filepath"

	"github.com/robert-malhotra/go-nccombine/internal/errs"
	"github.com/robert-malhotra/go-nccombine/netcdf"
)

// Attribute names written by decomposing models.
const (
	AttrDecomposition = "domain_decomposition"
	AttrNumFiles      = "NumFilesInSet"
	AttrFilename      = "filename"
)

// Tile is one input file of a decomposed dataset. The file is opened lazily
// and may be closed and reopened between blocks.
type Tile struct {
	Path    string
	Ordinal int

	// Bounds is set by Resolve.
	Bounds *Bounds

	file *netcdf.File
}

// New returns an unopened tile.
func New(path string, ordinal int) *Tile {
	return &Tile{Path: path, Ordinal: ordinal}
}

// Name returns the base name of the tile's path.
func (t *Tile) Name() string {
	return filepath.Base(t.Path)
}

// Open returns the tile's file, opening it on first use.
func (t *Tile) Open() (*netcdf.File, error) {
	if t.file != nil {
		return t.file, nil
	}
	f, err := netcdf.Open(t.Path)
	if err != nil {
		return nil, errs.IO("open", t.Path, err)
	}
	t.file = f
	return f, nil
}

// IsOpen reports whether the tile currently holds an open file.
func (t *Tile) IsOpen() bool {
	return t.file != nil
}

// Close releases the file handle. Closing a closed tile is a no-op.
func (t *Tile) Close() error {
	if t.file == nil {
		return nil
	}
	err := t.file.Close()
	t.file = nil
	return errs.IO("close", t.Path, err)
}

// Resolve opens the tile and resolves its bounds.
func (t *Tile) Resolve() (*Bounds, error) {
	f, err := t.Open()
	if err != nil {
		return nil, err
	}
	b, err := Resolve(f)
	if err != nil {
		return nil, err
	}
	t.Bounds = b
	return b, nil
}

// Tiles creates tiles for paths in order.
func Tiles(paths []string) []*Tile {
	tiles := make([]*Tile, len(paths))
	for i, p := range paths {
		tiles[i] = New(p, i)
	}
	return tiles
}
