package sequence

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/robert-malhotra/go-nccombine/internal/errs"
	"github.com/robert-malhotra/go-nccombine/internal/tiletest"
	"github.com/robert-malhotra/go-nccombine/netcdf"
)

type fakeLister []string

func (l fakeLister) List(string) ([]string, error) { return l, nil }

func sizer(n int) SetSizer {
	return func(string) (int, error) { return n, nil }
}

func TestTileName(t *testing.T) {
	assert.Equal(t, "out.nc.0000", TileName("out.nc", 0))
	assert.Equal(t, "a/b.nc.0042", TileName("a/b.nc", 42))
	assert.Equal(t, "out.nc.12345", TileName("out.nc", 12345))
}

func TestExtension(t *testing.T) {
	tests := []struct {
		name string
		n    int
		ok   bool
	}{
		{"out.nc.0000", 0, true},
		{"out.nc.0017", 17, true},
		{"out.nc.10000", 10000, true},
		{"out.nc.017", 0, false},
		{"out.nc.00003", 0, false},
		{"out.nc.01234", 0, false},
		{"out.nc.00a1", 0, false},
		{"out.nc", 0, false},
		{"other.nc.0001", 0, false},
		{"out.nc.0001.bak", 0, false},
	}
	for _, tt := range tests {
		n, ok := extension("out.nc", tt.name)
		assert.Equal(t, tt.ok, ok, tt.name)
		assert.Equal(t, tt.n, n, tt.name)
	}
}

func TestDiscover(t *testing.T) {
	listing := fakeLister{"out.nc.0000", "out.nc.0001", "out.nc.0002", "out.nc.0003", "notes.txt", "out.nc"}

	tests := []struct {
		name  string
		opts  Options
		want  []int
		err   error
		warns int
	}{
		{name: "highest suffix", opts: Options{End: -1, SetSize: sizer(0)}, want: []int{0, 1, 2, 3}},
		{name: "set size", opts: Options{End: -1, SetSize: sizer(2)}, want: []int{0, 1}},
		{name: "explicit end", opts: Options{End: 2, SetSize: sizer(4)}, want: []int{0, 1, 2}},
		{name: "start offset", opts: Options{Start: 2, End: -1, SetSize: sizer(0)}, want: []int{2, 3}},
		{name: "set size from start", opts: Options{Start: 1, End: -1, SetSize: sizer(2)}, want: []int{1, 2}},
		{name: "missing", opts: Options{End: -1, SetSize: sizer(6)}, err: errs.ErrMissingTile},
		{name: "missing forced", opts: Options{End: -1, SetSize: sizer(6), Force: true}, want: []int{0, 1, 2, 3}, warns: 2},
		{name: "beyond listing", opts: Options{Start: 7, End: -1}, err: errs.ErrEmptyTileSet},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zap.WarnLevel)
			opts := tt.opts
			opts.Lister = listing
			opts.Logger = zap.New(core)

			got, err := Discover(filepath.Join("run", "out.nc"), opts)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			var want []string
			for _, n := range tt.want {
				want = append(want, TileName(filepath.Join("run", "out.nc"), n))
			}
			assert.Equal(t, want, got)
			assert.Equal(t, tt.warns, logs.Len())
		})
	}
}

func TestDiscoverListError(t *testing.T) {
	_, err := Discover(filepath.Join(t.TempDir(), "missing", "out.nc"), Options{End: -1})
	assert.ErrorIs(t, err, errs.ErrIO)
}

func TestDiscoverSetSizeError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Discover("out.nc", Options{
		End:     -1,
		Lister:  fakeLister{"out.nc.0000"},
		SetSize: func(string) (int, error) { return 0, boom },
	})
	assert.ErrorIs(t, err, boom)
}

func TestDiscoverFiles(t *testing.T) {
	dir := t.TempDir()
	ds := &tiletest.Dataset{
		Dims: []tiletest.Dim{{Name: "x", Len: 4}},
		Vars: []tiletest.Var{{Name: "x", Type: netcdf.Int, Dims: []string{"x"}, Values: tiletest.Ramp(0, 4)}},
	}
	paths := ds.Decompose(t, dir, "out.nc", map[string][]uint64{"x": {1, 1, 2}})
	require.Len(t, paths, 3)

	// A stray higher-numbered tile is ignored because the set size is known.
	stray := TileName(filepath.Join(dir, "out.nc"), 9)
	require.NoError(t, os.WriteFile(stray, []byte("junk"), 0o644))

	got, err := Discover(filepath.Join(dir, "out.nc"), Options{End: -1})
	require.NoError(t, err)
	assert.Equal(t, paths, got)

	n, err := NumFilesInSet(paths[0])
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestNumFilesInSetAbsent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.nc")
	ds := &tiletest.Dataset{
		Dims: []tiletest.Dim{{Name: "x", Len: 2}},
		Vars: []tiletest.Var{{Name: "x", Type: netcdf.Int, Dims: []string{"x"}, Values: tiletest.Ramp(0, 2)}},
	}
	ds.Write(t, path)

	n, err := NumFilesInSet(path)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestExplicit(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.nc")
	b := filepath.Join(dir, "b.nc")
	require.NoError(t, os.WriteFile(a, nil, 0o644))
	require.NoError(t, os.WriteFile(b, nil, 0o644))
	gone := filepath.Join(dir, "gone.nc")

	got, err := Explicit([]string{b, a}, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{b, a}, got, "order is preserved")

	_, err = Explicit([]string{a, gone, b}, Options{})
	assert.ErrorIs(t, err, errs.ErrMissingTile)

	core, logs := observer.New(zap.WarnLevel)
	got, err = Explicit([]string{a, gone, b}, Options{Force: true, Logger: zap.New(core)})
	require.NoError(t, err)
	assert.Equal(t, []string{a, b}, got)
	assert.Equal(t, 1, logs.FilterMessage("skipping missing tile").Len())

	_, err = Explicit([]string{gone}, Options{Force: true})
	assert.ErrorIs(t, err, errs.ErrEmptyTileSet)

	_, err = Explicit(nil, Options{})
	assert.ErrorIs(t, err, errs.ErrEmptyTileSet)
}

func TestDiscoverIgnoresPaddedSuffix(t *testing.T) {
	listing := fakeLister{"out.nc.0000", "out.nc.0001", "out.nc.00003"}
	got, err := Discover(filepath.Join("data", "out.nc"), Options{End: -1, Lister: listing, SetSize: sizer(0)})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join("data", "out.nc.0000"), filepath.Join("data", "out.nc.0001")}, got)
}
