package schema

import (
	"fmt"

	"github.com/robert-malhotra/go-nccombine/internal/errs"
	"github.com/robert-malhotra/go-nccombine/netcdf"
)

// CheckOutput verifies that an existing output file can receive the plan's
// records: it must declare the same dimensions, with the same fixed lengths,
// and the same variables with the same types and dimensions, in order.
func (p *Plan) CheckOutput(f *netcdf.File) error {
	dims := f.Dims()
	if len(dims) != len(p.Dims) {
		return fmt.Errorf("output has %d dimensions, tiles have %d: %w", len(dims), len(p.Dims), errs.ErrSchemaConflict)
	}
	for i, d := range p.Dims {
		od := dims[i]
		if od.Name != d.Name || od.Unlimited != d.Unlimited || (!d.Unlimited && od.Len != d.Len) {
			return fmt.Errorf("output dimension %q (len %d, unlimited %v) does not match %q (len %d, unlimited %v): %w",
				od.Name, od.Len, od.Unlimited, d.Name, d.Len, d.Unlimited, errs.ErrSchemaConflict)
		}
	}

	vars := f.Vars()
	if len(vars) != len(p.Vars) {
		return fmt.Errorf("output has %d variables, tiles have %d: %w", len(vars), len(p.Vars), errs.ErrSchemaConflict)
	}
	for i := range p.Vars {
		v, ov := &p.Vars[i], vars[i]
		if ov.Name() != v.Name || ov.Type() != v.Type {
			return fmt.Errorf("output variable %q (%s) does not match %q (%s): %w",
				ov.Name(), ov.Type(), v.Name, v.Type, errs.ErrSchemaConflict)
		}
		od := ov.Dims()
		if len(od) != len(v.Dims) {
			return fmt.Errorf("output variable %q has dimensions %v, tiles have %v: %w", v.Name, od, v.Dims, errs.ErrSchemaConflict)
		}
		for j := range od {
			if od[j] != v.Dims[j] {
				return fmt.Errorf("output variable %q has dimensions %v, tiles have %v: %w", v.Name, od, v.Dims, errs.ErrSchemaConflict)
			}
		}
	}
	return nil
}
