// Package tiletest builds netCDF datasets and decomposed tile sets on disk
// for tests.
package tiletest

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-nccombine/internal/dtype"
	"github.com/robert-malhotra/go-nccombine/internal/layout"
	"github.com/robert-malhotra/go-nccombine/netcdf"
)

// Dim is a dimension of a test dataset. Unlimited dimensions take their
// length from Dataset.NumRecs.
type Dim struct {
	Name      string
	Len       uint64
	Unlimited bool
}

// Var is a variable with its full global data in row-major order, record
// dimension included.
type Var struct {
	Name   string
	Type   netcdf.Type
	Dims   []string
	Attrs  []netcdf.Attribute
	Values []float64
}

// Dataset is an undecomposed dataset.
type Dataset struct {
	Dims    []Dim
	NumRecs uint64
	Attrs   []netcdf.Attribute
	Vars    []Var
	Format  netcdf.Format
}

// Attr builds an attribute, failing the test on error.
func Attr(tb testing.TB, name string, t netcdf.Type, value interface{}) netcdf.Attribute {
	tb.Helper()
	a, err := netcdf.NewAttribute(name, t, value)
	require.NoError(tb, err)
	return a
}

// Ramp returns n values start, start+1, ...
func Ramp(start float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)
	}
	return out
}

func (d *Dataset) dim(name string) Dim {
	for _, dm := range d.Dims {
		if dm.Name == name {
			return dm
		}
	}
	panic(fmt.Sprintf("tiletest: unknown dimension %q", name))
}

// Shape returns the global shape of the named variable.
func (d *Dataset) Shape(v Var) []uint64 {
	shape := make([]uint64, len(v.Dims))
	for i, n := range v.Dims {
		dm := d.dim(n)
		shape[i] = dm.Len
		if dm.Unlimited {
			shape[i] = d.NumRecs
		}
	}
	return shape
}

// Write writes the dataset to path.
func (d *Dataset) Write(tb testing.TB, path string) {
	tb.Helper()
	d.write(tb, path, nil, nil, nil)
}

// region is one tile's box: start and count per dimension name.
type region struct {
	start map[string]uint64
	count map[string]uint64
}

func (d *Dataset) write(tb testing.TB, path string, r *region, globalAttrs []netcdf.Attribute, varAttrs map[string][]netcdf.Attribute) {
	tb.Helper()
	format := d.Format
	if format == 0 {
		format = netcdf.FormatClassic
	}
	f, err := netcdf.Create(path, netcdf.WithFormat(format))
	require.NoError(tb, err)

	for _, dm := range d.Dims {
		n := dm.Len
		if r != nil && !dm.Unlimited {
			n = r.count[dm.Name]
		}
		if dm.Unlimited {
			n = 0
		}
		require.NoError(tb, f.AddDim(dm.Name, n))
	}
	for _, a := range d.Attrs {
		require.NoError(tb, f.PutAttr(a))
	}
	for _, a := range globalAttrs {
		require.NoError(tb, f.PutAttr(a))
	}

	vars := make([]*netcdf.Variable, len(d.Vars))
	for i, v := range d.Vars {
		vars[i], err = f.AddVar(v.Name, v.Type, v.Dims)
		require.NoError(tb, err)
		for _, a := range v.Attrs {
			require.NoError(tb, vars[i].PutAttr(a))
		}
		for _, a := range varAttrs[v.Name] {
			require.NoError(tb, vars[i].PutAttr(a))
		}
	}
	require.NoError(tb, f.EndDef())

	for i, v := range d.Vars {
		shape := d.Shape(v)
		start := make([]uint64, len(shape))
		count := append([]uint64(nil), shape...)
		if r != nil {
			for j, n := range v.Dims {
				if d.dim(n).Unlimited {
					continue
				}
				start[j] = r.start[n]
				count[j] = r.count[n]
			}
		}
		if layout.Elements(count) == 0 {
			continue
		}

		esize := uint64(v.Type.Size())
		all, err := dtype.Encode(v.Type, v.Values)
		require.NoError(tb, err)
		require.Equal(tb, layout.Elements(shape)*esize, uint64(len(all)), "variable %s: values do not match shape", v.Name)
		slab, err := layout.Extract(all, shape, start, count, esize)
		require.NoError(tb, err)
		require.NoError(tb, vars[i].WriteSlab(make([]uint64, len(count)), count, slab))
	}
	require.NoError(tb, f.Close())
}

// Decompose splits the dataset into tiles named base.0000, base.0001, ...
// in dir. splits gives, per decomposed dimension, the local lengths of its
// fragments in order. Tiles are numbered in row-major order over the
// decomposed dimensions in the order they appear in Dims. Every decomposed
// dimension must have a coordinate variable.
func (d *Dataset) Decompose(tb testing.TB, dir, base string, splits map[string][]uint64) []string {
	tb.Helper()

	var names []string
	for _, dm := range d.Dims {
		if _, ok := splits[dm.Name]; ok {
			names = append(names, dm.Name)
			var sum uint64
			for _, n := range splits[dm.Name] {
				sum += n
			}
			require.Equal(tb, dm.Len, sum, "splits of %s must cover it", dm.Name)
		}
	}

	total := 1
	for _, n := range names {
		total *= len(splits[n])
	}

	paths := make([]string, 0, total)
	idx := make([]int, len(names))
	for ord := 0; ord < total; ord++ {
		r := &region{start: map[string]uint64{}, count: map[string]uint64{}}
		for _, dm := range d.Dims {
			r.count[dm.Name] = dm.Len
		}
		varAttrs := map[string][]netcdf.Attribute{}
		for j, n := range names {
			var start uint64
			for _, l := range splits[n][:idx[j]] {
				start += l
			}
			count := splits[n][idx[j]]
			r.start[n] = start
			r.count[n] = count
			varAttrs[n] = []netcdf.Attribute{
				Attr(tb, "domain_decomposition", netcdf.Int, []int64{1, int64(d.dim(n).Len), int64(start + 1), int64(start + count)}),
			}
		}

		name := fmt.Sprintf("%s.%04d", base, ord)
		path := filepath.Join(dir, name)
		globals := []netcdf.Attribute{
			Attr(tb, "filename", netcdf.Char, name),
			Attr(tb, "NumFilesInSet", netcdf.Int, int32(total)),
		}
		d.write(tb, path, r, globals, varAttrs)
		paths = append(paths, path)

		for j := len(idx) - 1; j >= 0; j-- {
			idx[j]++
			if idx[j] < len(splits[names[j]]) {
				break
			}
			idx[j] = 0
		}
	}
	return paths
}
