package tile

import (
	"fmt"

	"github.com/robert-malhotra/go-nccombine/internal/errs"
	"github.com/robert-malhotra/go-nccombine/netcdf"
)

// Fragment is the part of one global dimension a tile holds.
type Fragment struct {
	Name       string
	Len        uint64 // local length; the record count for the unlimited dimension
	Unlimited  bool
	Decomposed bool

	// Start and End are the 0-based, inclusive global indices of the local
	// range. Non-decomposed dimensions span [0, Len-1].
	Start, End uint64

	// GlobalLen is the global length the tile declares for the dimension.
	GlobalLen uint64
}

// Bounds holds every fragment of a tile in the tile's dimension order.
type Bounds struct {
	Fragments  []Fragment
	NumRecs    uint64
	HeaderSize int64
}

// Fragment returns the named fragment.
func (b *Bounds) Fragment(name string) (Fragment, bool) {
	for _, f := range b.Fragments {
		if f.Name == name {
			return f, true
		}
	}
	return Fragment{}, false
}

// Resolve extracts one fragment per dimension of f. A dimension is
// decomposed when its coordinate variable carries the domain_decomposition
// attribute [global start, global end, local start, local end] (1-based).
func Resolve(f *netcdf.File) (*Bounds, error) {
	b := &Bounds{NumRecs: f.NumRecs(), HeaderSize: f.HeaderSize()}

	for _, d := range f.Dims() {
		frag := Fragment{Name: d.Name, Len: d.Len, Unlimited: d.Unlimited, GlobalLen: d.Len}
		if d.Len > 0 {
			frag.End = d.Len - 1
		}

		attr, ok := decompositionAttr(f, d.Name)
		if !ok {
			b.Fragments = append(b.Fragments, frag)
			continue
		}
		if d.Unlimited {
			return nil, fmt.Errorf("%s: unlimited dimension %q carries %s: %w",
				f.Path(), d.Name, AttrDecomposition, errs.ErrMalformedBounds)
		}
		if err := decompose(&frag, attr); err != nil {
			return nil, fmt.Errorf("%s: %w", f.Path(), err)
		}
		b.Fragments = append(b.Fragments, frag)
	}
	return b, nil
}

// decompositionAttr finds the decomposition attribute on the coordinate
// variable of the named dimension.
func decompositionAttr(f *netcdf.File, dim string) (netcdf.Attribute, bool) {
	v, err := f.Var(dim)
	if err != nil {
		return netcdf.Attribute{}, false
	}
	dims := v.Dims()
	if len(dims) != 1 || dims[0] != dim {
		return netcdf.Attribute{}, false
	}
	return v.Attr(AttrDecomposition)
}

func decompose(frag *Fragment, attr netcdf.Attribute) error {
	vals, err := attr.Int64s()
	if err != nil || len(vals) != 4 {
		return fmt.Errorf("dimension %q: %s must be four integers, got %s %s: %w",
			frag.Name, AttrDecomposition, attr.Type, attr.String(), errs.ErrMalformedBounds)
	}
	gs, ge, ls, le := vals[0], vals[1], vals[2], vals[3]

	if gs > ge || ls > le {
		return fmt.Errorf("dimension %q: inverted range %v: %w", frag.Name, vals, errs.ErrMalformedBounds)
	}
	if ls < gs || le > ge {
		return fmt.Errorf("dimension %q: local range [%d, %d] outside global range [%d, %d]: %w",
			frag.Name, ls, le, gs, ge, errs.ErrBoundsOverflow)
	}
	if want := uint64(le - ls + 1); frag.Len != want {
		return fmt.Errorf("dimension %q: local length %d, bounds [%d, %d] imply %d: %w",
			frag.Name, frag.Len, ls, le, want, errs.ErrMalformedBounds)
	}

	frag.Decomposed = true
	frag.Start = uint64(ls - gs)
	frag.End = uint64(le - gs)
	frag.GlobalLen = uint64(ge - gs + 1)
	return nil
}
