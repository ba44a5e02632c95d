// Package schema folds the headers of a tile set into one global schema and
// verifies that the tiles cover it exactly.
package schema

import (
	"github.com/robert-malhotra/go-nccombine/internal/tile"
	"github.com/robert-malhotra/go-nccombine/netcdf"
)

// Dimension is a global dimension. Len is 0 for the unlimited dimension.
type Dimension struct {
	Name       string
	Len        uint64
	Unlimited  bool
	Decomposed bool
}

// Variable is a global variable.
type Variable struct {
	Name  string
	Dims  []string
	Type  netcdf.Type
	Attrs []netcdf.Attribute

	// Coordinate variables are one-dimensional over the dimension of the
	// same name.
	Coordinate bool
	Record     bool
	Decomposed bool

	// Fill is the encoded fill value from missing_value or _FillValue, nil
	// when the header tile declares neither.
	Fill []byte
}

// IsData reports whether the variable is merged block by block along the
// unlimited dimension.
func (v *Variable) IsData() bool {
	return v.Record && !v.Coordinate
}

// Plan is the validated combination of a tile set. It is not modified after
// Build returns.
type Plan struct {
	Dims  []Dimension
	Vars  []Variable
	Attrs []netcdf.Attribute
	Tiles []*tile.Tile

	// NumRecs is the number of records to merge.
	NumRecs uint64

	// Incomplete is set when coverage gaps were tolerated in force mode.
	Incomplete bool
}

// Header returns the tile the schema was taken from.
func (p *Plan) Header() *tile.Tile {
	return p.Tiles[0]
}

// Dim returns the named dimension.
func (p *Plan) Dim(name string) (Dimension, bool) {
	for _, d := range p.Dims {
		if d.Name == name {
			return d, true
		}
	}
	return Dimension{}, false
}

// Var returns the named variable.
func (p *Plan) Var(name string) (*Variable, bool) {
	for i := range p.Vars {
		if p.Vars[i].Name == name {
			return &p.Vars[i], true
		}
	}
	return nil, false
}

// Shape returns the global shape of v with nrec records along the unlimited
// dimension.
func (p *Plan) Shape(v *Variable, nrec uint64) []uint64 {
	shape := make([]uint64, len(v.Dims))
	for i, name := range v.Dims {
		d, _ := p.Dim(name)
		shape[i] = d.Len
		if d.Unlimited {
			shape[i] = nrec
		}
	}
	return shape
}

// Box returns the global offset and extent of v held by a tile with bounds
// b, with the unlimited dimension spanning the tile's records.
func (p *Plan) Box(v *Variable, b *tile.Bounds) (start, count []uint64) {
	start = make([]uint64, len(v.Dims))
	count = make([]uint64, len(v.Dims))
	for i, name := range v.Dims {
		f, _ := b.Fragment(name)
		if f.Unlimited {
			count[i] = b.NumRecs
			continue
		}
		start[i] = f.Start
		count[i] = f.Len
	}
	return start, count
}

// TileCount returns the number of tiles.
func (p *Plan) TileCount() int {
	return len(p.Tiles)
}
