package netcdf

import (
	"fmt"

	"github.com/robert-malhotra/go-nccombine/internal/alloc"
	"github.com/robert-malhotra/go-nccombine/internal/header"
)

// VarSpec declares a variable for HeaderSize and CheckLayout.
type VarSpec struct {
	Name  string
	Type  Type
	Dims  []string
	Attrs []Attribute
}

// LayoutStats summarises the data section assigned when a file leaves define
// mode.
type LayoutStats = alloc.Stats

// HeaderSize returns the encoded header size of a file with the given
// declarations, before any header padding. Unknown dimension names are
// counted as if present.
func HeaderSize(format Format, dims []Dim, attrs []Attribute, vars []VarSpec) int64 {
	h, _ := buildHeader(format, dims, attrs, vars, false)
	return h.Size()
}

// CheckLayout lays out a file with the given declarations in memory, applying
// the same checks as EndDef, without touching the filesystem.
func CheckLayout(format Format, headerPad uint64, dims []Dim, attrs []Attribute, vars []VarSpec) (LayoutStats, error) {
	h, err := buildHeader(format, dims, attrs, vars, true)
	if err != nil {
		return LayoutStats{}, err
	}
	return h.ComputeLayout(headerPad)
}

func buildHeader(format Format, dims []Dim, attrs []Attribute, vars []VarSpec, resolve bool) (*header.Header, error) {
	h := &header.Header{Version: format.version()}
	for _, d := range dims {
		n := d.Len
		if d.Unlimited {
			n = 0
		}
		h.Dims = append(h.Dims, header.Dim{Name: d.Name, Len: n})
	}
	for _, a := range attrs {
		h.Attrs = append(h.Attrs, a.toHeader())
	}
	for _, v := range vars {
		hv := header.Var{Name: v.Name, Type: v.Type, DimIDs: make([]int, len(v.Dims))}
		if resolve {
			for i, dn := range v.Dims {
				id := h.FindDim(dn)
				if id < 0 {
					return nil, fmt.Errorf("variable %q: dimension %q: %w", v.Name, dn, ErrNotFound)
				}
				hv.DimIDs[i] = id
			}
		}
		for _, a := range v.Attrs {
			hv.Attrs = append(hv.Attrs, a.toHeader())
		}
		h.Vars = append(h.Vars, hv)
	}
	return h, nil
}
