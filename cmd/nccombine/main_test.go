package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-nccombine/internal/buildinfo"
	"github.com/robert-malhotra/go-nccombine/internal/errs"
	"github.com/robert-malhotra/go-nccombine/internal/tiletest"
	"github.com/robert-malhotra/go-nccombine/netcdf"
)

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func tiles(t *testing.T, dir string) *tiletest.Dataset {
	ds := &tiletest.Dataset{
		Dims:    []tiletest.Dim{{Name: "time", Unlimited: true}, {Name: "x", Len: 6}},
		NumRecs: 2,
		Vars: []tiletest.Var{
			{Name: "x", Type: netcdf.Double, Dims: []string{"x"}, Values: tiletest.Ramp(0, 6)},
			{Name: "u", Type: netcdf.Float, Dims: []string{"time", "x"}, Values: tiletest.Ramp(0, 12)},
		},
	}
	ds.Decompose(t, dir, "out.nc", map[string][]uint64{"x": {2, 4}})
	return ds
}

func TestVersion(t *testing.T) {
	stdout, _, err := run(t, "-V")
	require.NoError(t, err)
	assert.Equal(t, buildinfo.String()+"\n", stdout)
}

func TestNoOutput(t *testing.T) {
	_, _, err := run(t)
	assert.ErrorIs(t, err, errUsage)
}

func TestMerge(t *testing.T) {
	dir := t.TempDir()
	ds := tiles(t, dir)
	out := filepath.Join(dir, "out.nc")

	_, stderr, err := run(t, "-vvv", "-k", "0", "-h", "0", "--use-64bit-offset", out)
	require.NoError(t, err)
	assert.Contains(t, stderr, "blocking_factor: 0")
	assert.Contains(t, stderr, "merge complete")

	f, err := netcdf.Open(out)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, netcdf.Format64BitOffset, f.Format())
	v, err := f.Var("u")
	require.NoError(t, err)
	got, err := v.ReadFloat64s()
	require.NoError(t, err)
	assert.Equal(t, ds.Vars[1].Values, got)
}

func TestEstimateOnly(t *testing.T) {
	dir := t.TempDir()
	tiles(t, dir)
	stdout, _, err := run(t, "-x", filepath.Join(dir, "out.nc"))
	require.NoError(t, err)
	assert.Contains(t, stdout, "Estimated peak memory")
}

func TestExistingOutput(t *testing.T) {
	dir := t.TempDir()
	tiles(t, dir)
	out := filepath.Join(dir, "out.nc")
	_, _, err := run(t, out)
	require.NoError(t, err)

	_, _, err = run(t, out)
	assert.ErrorIs(t, err, errs.ErrOutputExists)
}

func TestConflictingFormats(t *testing.T) {
	_, _, err := run(t, "--use-64bit-offset", "--use-classic-v4", "out.nc")
	assert.ErrorIs(t, err, errs.ErrInvalidConfiguration)
}

func TestHelpHasNoShorthand(t *testing.T) {
	stdout, _, err := run(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, stdout, "--header-pad")
	assert.Contains(t, stdout, "-h, --header-pad")
}
