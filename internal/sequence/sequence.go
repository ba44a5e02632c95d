// Package sequence decides which tile files make up a merge and in what
// order.
//
// Tiles are either named explicitly or discovered next to the output: the
// tiles of out.nc are out.nc.0000, out.nc.0001, ... The discovery range
// starts at a configurable extension and ends at an explicit extension, at
// the tile count recorded in the first tile, or at the highest extension
// present, in that order of preference.
package sequence

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/robert-malhotra/go-nccombine/internal/errs"
	"github.com/robert-malhotra/go-nccombine/internal/tile"
	"github.com/robert-malhotra/go-nccombine/netcdf"
)

// Lister lists the entry names of a directory.
type Lister interface {
	List(dir string) ([]string, error)
}

// DirLister lists directories on the local filesystem.
type DirLister struct{}

func (DirLister) List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// SetSizer returns the number of tiles the tile at path says make up its
// set, or 0 when it does not say.
type SetSizer func(path string) (int, error)

// NumFilesInSet reads the NumFilesInSet global attribute of a tile.
func NumFilesInSet(path string) (int, error) {
	f, err := netcdf.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	a, ok := f.Attr(tile.AttrNumFiles)
	if !ok {
		return 0, nil
	}
	vals, err := a.Int64s()
	if err != nil || len(vals) == 0 || vals[0] < 0 {
		return 0, fmt.Errorf("%s: %s is not a tile count: %w", path, tile.AttrNumFiles, errs.ErrMalformedBounds)
	}
	return int(vals[0]), nil
}

// Options control tile sequencing.
type Options struct {
	// Force skips absent tiles instead of failing.
	Force bool

	// Start is the first extension to discover. End is the last one, or
	// negative to derive it.
	Start int
	End   int

	Lister  Lister
	SetSize SetSizer
	Logger  *zap.Logger
}

func (o *Options) defaults() {
	if o.Lister == nil {
		o.Lister = DirLister{}
	}
	if o.SetSize == nil {
		o.SetSize = NumFilesInSet
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
}

// TileName returns the name of tile n of output.
func TileName(output string, n int) string {
	return fmt.Sprintf("%s.%04d", output, n)
}

// Explicit returns the given tiles in order, checking that each exists.
func Explicit(paths []string, opts Options) ([]string, error) {
	opts.defaults()
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			if !os.IsNotExist(err) {
				return nil, errs.IO("stat", p, err)
			}
			if !opts.Force {
				return nil, fmt.Errorf("%s: %w", p, errs.ErrMissingTile)
			}
			opts.Logger.Warn("skipping missing tile", zap.String("tile", p))
			continue
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil, errs.ErrEmptyTileSet
	}
	return out, nil
}

// Discover returns the tiles of output found in its directory.
func Discover(output string, opts Options) ([]string, error) {
	opts.defaults()
	log := opts.Logger

	dir := filepath.Dir(output)
	base := filepath.Base(output)
	names, err := opts.Lister.List(dir)
	if err != nil {
		return nil, errs.IO("list", dir, err)
	}

	present := map[int]bool{}
	for _, name := range names {
		if n, ok := extension(base, name); ok {
			present[n] = true
		}
	}

	end, err := rangeEnd(output, present, opts)
	if err != nil {
		return nil, err
	}
	log.Debug("discovering tiles", zap.String("output", output), zap.Int("start", opts.Start), zap.Int("end", end))

	var out []string
	for n := opts.Start; n <= end; n++ {
		path := TileName(output, n)
		if !present[n] {
			if !opts.Force {
				return nil, fmt.Errorf("%s: %w", path, errs.ErrMissingTile)
			}
			log.Warn("skipping missing tile", zap.String("tile", path))
			continue
		}
		out = append(out, path)
	}
	if len(out) == 0 {
		return nil, errs.ErrEmptyTileSet
	}
	return out, nil
}

// rangeEnd picks the last extension to merge.
func rangeEnd(output string, present map[int]bool, opts Options) (int, error) {
	if opts.End >= 0 {
		return opts.End, nil
	}

	exts := make([]int, 0, len(present))
	for n := range present {
		if n >= opts.Start {
			exts = append(exts, n)
		}
	}
	if len(exts) == 0 {
		return -1, errs.ErrEmptyTileSet
	}
	sort.Ints(exts)

	first := exts[0]
	if present[opts.Start] {
		first = opts.Start
	}
	size, err := opts.SetSize(TileName(output, first))
	if err != nil {
		return -1, err
	}
	if size > 0 {
		return opts.Start + size - 1, nil
	}
	return exts[len(exts)-1], nil
}

// extension parses the numeric tile extension of name, which must be base
// followed by a dot and exactly the digits TileName would produce: four,
// or more without a leading zero.
func extension(base, name string) (int, bool) {
	suffix, ok := strings.CutPrefix(name, base+".")
	if !ok || len(suffix) < 4 {
		return 0, false
	}
	if len(suffix) > 4 && suffix[0] == '0' {
		return 0, false
	}
	for _, c := range suffix {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(suffix)
	if err != nil {
		return 0, false
	}
	return n, true
}
