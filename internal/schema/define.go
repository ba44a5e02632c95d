package schema

import (
	"fmt"

	"github.com/robert-malhotra/go-nccombine/netcdf"
)

// Define declares the plan's dimensions, attributes and variables in f,
// which must be in define mode, and leaves define mode.
func (p *Plan) Define(f *netcdf.File) error {
	for _, d := range p.Dims {
		n := d.Len
		if d.Unlimited {
			n = 0
		}
		if err := f.AddDim(d.Name, n); err != nil {
			return err
		}
	}
	for _, a := range p.Attrs {
		if err := f.PutAttr(a); err != nil {
			return err
		}
	}
	for i := range p.Vars {
		v := &p.Vars[i]
		nv, err := f.AddVar(v.Name, v.Type, v.Dims)
		if err != nil {
			return err
		}
		for _, a := range v.Attrs {
			if err := nv.PutAttr(a); err != nil {
				return fmt.Errorf("variable %q: %w", v.Name, err)
			}
		}
	}
	return f.EndDef()
}

// Declarations returns the plan's dimensions and variables in the form taken
// by netcdf.HeaderSize and netcdf.CheckLayout.
func (p *Plan) Declarations() ([]netcdf.Dim, []netcdf.VarSpec) {
	dims := make([]netcdf.Dim, len(p.Dims))
	for i, d := range p.Dims {
		dims[i] = netcdf.Dim{Name: d.Name, Len: d.Len, Unlimited: d.Unlimited}
	}
	vars := make([]netcdf.VarSpec, len(p.Vars))
	for i, v := range p.Vars {
		vars[i] = netcdf.VarSpec{Name: v.Name, Type: v.Type, Dims: v.Dims, Attrs: v.Attrs}
	}
	return dims, vars
}

// Layout checks that the plan can be written in format with headerPad bytes
// of header padding, without creating a file.
func (p *Plan) Layout(format netcdf.Format, headerPad uint64) (netcdf.LayoutStats, error) {
	dims, vars := p.Declarations()
	return netcdf.CheckLayout(format, headerPad, dims, p.Attrs, vars)
}
