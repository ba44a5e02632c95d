package cost

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-nccombine/internal/schema"
	"github.com/robert-malhotra/go-nccombine/internal/tile"
	"github.com/robert-malhotra/go-nccombine/internal/tiletest"
	"github.com/robert-malhotra/go-nccombine/netcdf"
)

func dataset(t *testing.T) *tiletest.Dataset {
	return &tiletest.Dataset{
		Dims: []tiletest.Dim{
			{Name: "time", Unlimited: true},
			{Name: "y", Len: 4},
			{Name: "x", Len: 6},
		},
		NumRecs: 3,
		Attrs:   []netcdf.Attribute{tiletest.Attr(t, "title", netcdf.Char, "grid")},
		Vars: []tiletest.Var{
			{Name: "time", Type: netcdf.Double, Dims: []string{"time"}, Values: tiletest.Ramp(0, 3)},
			{Name: "y", Type: netcdf.Float, Dims: []string{"y"}, Values: tiletest.Ramp(0, 4)},
			{Name: "x", Type: netcdf.Float, Dims: []string{"x"}, Values: tiletest.Ramp(0, 6)},
			{Name: "area", Type: netcdf.Double, Dims: []string{"y", "x"}, Values: tiletest.Ramp(0, 24)},
			{Name: "temp", Type: netcdf.Float, Dims: []string{"time", "y", "x"}, Values: tiletest.Ramp(0, 72)},
			{Name: "salt", Type: netcdf.Short, Dims: []string{"time", "y", "x"}, Values: tiletest.Ramp(0, 72)},
		},
	}
}

func plan(t *testing.T) (*schema.Plan, string) {
	t.Helper()
	dir := t.TempDir()
	paths := dataset(t).Decompose(t, dir, "out.nc", map[string][]uint64{"y": {1, 3}, "x": {2, 2, 2}})
	tiles := tile.Tiles(paths)
	t.Cleanup(func() {
		for _, tl := range tiles {
			tl.Close()
		}
	})
	p, err := schema.Build(tiles, schema.Options{OutputPath: filepath.Join(dir, "out.nc")})
	require.NoError(t, err)
	return p, dir
}

func TestOf(t *testing.T) {
	p, _ := plan(t)

	var tileHeaders uint64
	for _, tl := range p.Tiles {
		tileHeaders += uint64(tl.Bounds.HeaderSize)
	}

	e := Of(p, 1, netcdf.FormatClassic)
	assert.Equal(t, uint64(1), e.K)
	assert.Equal(t, uint64(24*4+24*2), e.Records)
	assert.Equal(t, uint64(24*8), e.Static)
	assert.Equal(t, uint64(OutputHeaderSize(p, netcdf.FormatClassic))+tileHeaders, e.Overhead)
	assert.Equal(t, e.Records+e.Static+e.Overhead, e.Total())

	e3 := Of(p, 3, netcdf.FormatClassic)
	assert.Equal(t, 3*e.Records, e3.Records)
	assert.Equal(t, e.Static, e3.Static)
}

func TestOfMonotone(t *testing.T) {
	p, _ := plan(t)
	prev := Of(p, 1, netcdf.Format64BitOffset).Total()
	for k := uint64(2); k <= 10; k++ {
		cur := Of(p, k, netcdf.Format64BitOffset).Total()
		assert.GreaterOrEqual(t, cur, prev, "k=%d", k)
		prev = cur
	}
}

func TestOutputHeaderSize(t *testing.T) {
	p, dir := plan(t)

	merged := dataset(t)
	merged.Attrs = append(merged.Attrs, tiletest.Attr(t, "filename", netcdf.Char, "out.nc"))
	for _, format := range []netcdf.Format{netcdf.FormatClassic, netcdf.Format64BitData} {
		merged.Format = format
		path := filepath.Join(dir, "whole-"+format.String()+".nc")
		merged.Write(t, path)

		f, err := netcdf.Open(path)
		require.NoError(t, err)
		assert.Equal(t, f.HeaderSize(), OutputHeaderSize(p, format), format.String())
		require.NoError(t, f.Close())
	}
}

func TestWrite(t *testing.T) {
	e := Estimate{K: 2, Records: 3 * MB, Static: MB / 2, Overhead: 0}
	var buf bytes.Buffer
	require.NoError(t, e.Write(&buf))
	assert.Equal(t, "Estimated peak memory for blocking factor 2: 3.50 MB (3.5 MiB)\n", buf.String())
}
