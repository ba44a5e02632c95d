package tile

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-nccombine/internal/errs"
	"github.com/robert-malhotra/go-nccombine/internal/tiletest"
	"github.com/robert-malhotra/go-nccombine/netcdf"
)

func sample() *tiletest.Dataset {
	return &tiletest.Dataset{
		Dims: []tiletest.Dim{
			{Name: "time", Unlimited: true},
			{Name: "y", Len: 4},
			{Name: "x", Len: 6},
			{Name: "nv", Len: 2},
		},
		NumRecs: 2,
		Vars: []tiletest.Var{
			{Name: "time", Type: netcdf.Double, Dims: []string{"time"}, Values: tiletest.Ramp(0, 2)},
			{Name: "y", Type: netcdf.Float, Dims: []string{"y"}, Values: tiletest.Ramp(0, 4)},
			{Name: "x", Type: netcdf.Float, Dims: []string{"x"}, Values: tiletest.Ramp(0, 6)},
			{Name: "temp", Type: netcdf.Float, Dims: []string{"time", "y", "x"}, Values: tiletest.Ramp(0, 48)},
		},
	}
}

func TestResolveDecomposed(t *testing.T) {
	dir := t.TempDir()
	paths := sample().Decompose(t, dir, "out.nc", map[string][]uint64{"y": {2, 2}, "x": {4, 2}})
	require.Len(t, paths, 4)

	tl := New(paths[3], 3)
	defer tl.Close()
	b, err := tl.Resolve()
	require.NoError(t, err)
	assert.Same(t, b, tl.Bounds)
	assert.Equal(t, uint64(2), b.NumRecs)
	assert.Positive(t, b.HeaderSize)

	want := []Fragment{
		{Name: "time", Len: 2, Unlimited: true, Start: 0, End: 1, GlobalLen: 2},
		{Name: "y", Len: 2, Decomposed: true, Start: 2, End: 3, GlobalLen: 4},
		{Name: "x", Len: 2, Decomposed: true, Start: 4, End: 5, GlobalLen: 6},
		{Name: "nv", Len: 2, Start: 0, End: 1, GlobalLen: 2},
	}
	assert.Equal(t, want, b.Fragments)

	x, ok := b.Fragment("x")
	require.True(t, ok)
	assert.Equal(t, uint64(4), x.Start)
	_, ok = b.Fragment("z")
	assert.False(t, ok)
}

// writeTile writes a one-dimensional tile whose coordinate variable carries
// the given decomposition attribute.
func writeTile(t *testing.T, dimLen uint64, decomp netcdf.Attribute, unlimited bool) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tile.nc.0000")
	f, err := netcdf.Create(path)
	require.NoError(t, err)
	n := dimLen
	if unlimited {
		n = 0
	}
	require.NoError(t, f.AddDim("x", n))
	v, err := f.AddVar("x", netcdf.Int, []string{"x"})
	require.NoError(t, err)
	require.NoError(t, v.PutAttr(decomp))
	require.NoError(t, f.Close())
	return path
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name      string
		attr      netcdf.Attribute
		len       uint64
		unlimited bool
		want      error
	}{
		{"wrong count", tiletest.Attr(t, AttrDecomposition, netcdf.Int, []int32{1, 10, 1}), 3, false, errs.ErrMalformedBounds},
		{"float values", tiletest.Attr(t, AttrDecomposition, netcdf.Double, []float64{1, 10, 1, 3}), 3, false, errs.ErrMalformedBounds},
		{"length mismatch", tiletest.Attr(t, AttrDecomposition, netcdf.Int, []int32{1, 10, 1, 5}), 3, false, errs.ErrMalformedBounds},
		{"inverted", tiletest.Attr(t, AttrDecomposition, netcdf.Int, []int32{1, 10, 5, 3}), 3, false, errs.ErrMalformedBounds},
		{"beyond global", tiletest.Attr(t, AttrDecomposition, netcdf.Int, []int32{1, 10, 9, 11}), 3, false, errs.ErrBoundsOverflow},
		{"unlimited", tiletest.Attr(t, AttrDecomposition, netcdf.Int, []int32{1, 10, 1, 3}), 3, true, errs.ErrMalformedBounds},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tl := New(writeTile(t, tt.len, tt.attr, tt.unlimited), 0)
			defer tl.Close()
			_, err := tl.Resolve()
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, tl.Bounds)
		})
	}
}

func TestResolveOffsetGlobalStart(t *testing.T) {
	// global indices need not start at 1
	tl := New(writeTile(t, 3, tiletest.Attr(t, AttrDecomposition, netcdf.Int, []int32{11, 20, 14, 16}), false), 0)
	defer tl.Close()
	b, err := tl.Resolve()
	require.NoError(t, err)
	assert.Equal(t, Fragment{Name: "x", Len: 3, Decomposed: true, Start: 3, End: 5, GlobalLen: 10}, b.Fragments[0])
}

func TestOpenCloseLifecycle(t *testing.T) {
	tl := New(filepath.Join(t.TempDir(), "absent.nc.0000"), 0)
	_, err := tl.Open()
	assert.ErrorIs(t, err, errs.ErrIO)
	assert.False(t, tl.IsOpen())
	assert.NoError(t, tl.Close())

	paths := sample().Decompose(t, t.TempDir(), "out.nc", map[string][]uint64{"x": {3, 3}})
	tiles := Tiles(paths)
	require.Len(t, tiles, 2)
	assert.Equal(t, 1, tiles[1].Ordinal)
	assert.Equal(t, "out.nc.0001", tiles[1].Name())

	f1, err := tiles[0].Open()
	require.NoError(t, err)
	f2, err := tiles[0].Open()
	require.NoError(t, err)
	assert.Same(t, f1, f2)
	assert.True(t, tiles[0].IsOpen())
	require.NoError(t, tiles[0].Close())
	assert.False(t, tiles[0].IsOpen())
}
