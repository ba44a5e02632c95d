// Package merge streams the data of a tile set into the merged output, a
// block of records at a time.
//
// Variables without the unlimited dimension and record coordinate variables
// are written once. The remaining record variables are merged in windows of
// k records: for every window and variable a buffer of the global window
// shape is filled from the tiles holding it and written with a single slab
// write. Peak memory is therefore bounded by one window of one variable plus
// the largest static variable.
package merge

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/robert-malhotra/go-nccombine/internal/dtype"
	"github.com/robert-malhotra/go-nccombine/internal/errs"
	"github.com/robert-malhotra/go-nccombine/internal/layout"
	"github.com/robert-malhotra/go-nccombine/internal/schema"
	"github.com/robert-malhotra/go-nccombine/internal/tile"
	"github.com/robert-malhotra/go-nccombine/netcdf"
)

const (
	// MaxBlocking is the largest number of records merged per pass.
	MaxBlocking = 100

	// DefaultKeepOpen is the largest tile set whose files stay open for the
	// whole run. Larger sets are reopened every block.
	DefaultKeepOpen = 512
)

// Config controls an Engine.
type Config struct {
	// K is the requested blocking factor; 0 asks for the largest feasible.
	K uint64

	// MissingValue initialises output storage with each variable's fill
	// value instead of zeros.
	MissingValue bool

	// Append skips the non-record variables, which an existing output
	// already holds, and writes records after the output's current ones.
	Append bool

	// KeepOpen overrides DefaultKeepOpen when positive.
	KeepOpen int

	Logger *zap.Logger
}

// Window is a range of records merged in one pass.
type Window struct {
	Start uint64
	Count uint64
}

// Stats summarises a run.
type Stats struct {
	K       uint64
	Windows int
	Records uint64
	Bytes   uint64
}

// Engine merges a plan into an output file.
type Engine struct {
	cfg Config
	log *zap.Logger
}

// New returns an engine.
func New(cfg Config) *Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.KeepOpen <= 0 {
		cfg.KeepOpen = DefaultKeepOpen
	}
	return &Engine{cfg: cfg, log: log}
}

// BlockingFactor clamps the requested blocking factor k to [1, MaxBlocking].
// k = 0 selects min(MaxBlocking, numRecs).
func BlockingFactor(k, numRecs uint64, log *zap.Logger) uint64 {
	if log == nil {
		log = zap.NewNop()
	}
	if k == 0 {
		k = min(MaxBlocking, numRecs)
	}
	if k > MaxBlocking {
		log.Warn("blocking factor above maximum, clamping",
			zap.Uint64("requested", k), zap.Uint64("max", MaxBlocking))
		k = MaxBlocking
	}
	return max(k, 1)
}

// Windows splits numRecs records into consecutive windows of at most k.
func Windows(numRecs, k uint64) []Window {
	if k == 0 {
		k = 1
	}
	var ws []Window
	for start := uint64(0); start < numRecs; start += k {
		ws = append(ws, Window{Start: start, Count: min(k, numRecs-start)})
	}
	return ws
}

// Run merges p into out, which must already declare p's schema. Tile files
// are opened as needed. Sets within the keep-open limit are left open for
// the caller to close; larger sets have each tile closed as soon as it has
// been read. The record count on disk is brought up to date after every
// window. The context is checked between windows; a cancelled run leaves
// the records written so far in place.
func (e *Engine) Run(ctx context.Context, p *schema.Plan, out *netcdf.File) (Stats, error) {
	base := out.NumRecs()
	k := BlockingFactor(e.cfg.K, p.NumRecs, e.log)
	st := Stats{K: k}
	keepOpen := !e.release(p)

	e.log.Debug("merge starting",
		zap.Uint64("k", k),
		zap.Uint64("records", p.NumRecs),
		zap.Uint64("base", base),
		zap.Bool("keep_open", keepOpen))

	for i := range p.Vars {
		v := &p.Vars[i]
		var (
			n   uint64
			err error
		)
		switch {
		case v.IsData():
			continue
		case v.Record:
			n, err = e.recordCoordinate(p, v, out, base)
		case e.cfg.Append:
			continue
		default:
			n, err = e.static(p, v, out)
		}
		if err != nil {
			return st, err
		}
		st.Bytes += n
	}

	for _, w := range Windows(p.NumRecs, k) {
		if err := ctx.Err(); err != nil {
			return st, err
		}
		for i := range p.Vars {
			v := &p.Vars[i]
			if !v.IsData() {
				continue
			}
			n, err := e.window(p, v, out, w, base)
			if err != nil {
				return st, err
			}
			st.Bytes += n
		}
		st.Windows++
		st.Records += w.Count

		if err := out.Flush(); err != nil {
			return st, errs.IO("flush", out.Path(), err)
		}
		e.log.Debug("block merged", zap.Uint64("start", base+w.Start), zap.Uint64("count", w.Count))
	}
	return st, nil
}

// release reports whether p has too many tiles to keep their files open.
func (e *Engine) release(p *schema.Plan) bool {
	return len(p.Tiles) > e.cfg.KeepOpen
}

// static writes a non-record variable, assembling it across tiles when it
// is decomposed.
func (e *Engine) static(p *schema.Plan, v *schema.Variable, out *netcdf.File) (uint64, error) {
	shape := p.Shape(v, 0)
	sources := p.Tiles
	if !v.Decomposed {
		sources = sources[:1]
	}
	buf, err := e.assemble(p, v, shape, sources, Window{})
	if err != nil {
		return 0, err
	}
	return uint64(len(buf)), e.write(out, v, make([]uint64, len(shape)), shape, buf)
}

// recordCoordinate writes every record of a record coordinate variable
// from the first tile holding all of them.
func (e *Engine) recordCoordinate(p *schema.Plan, v *schema.Variable, out *netcdf.File, base uint64) (uint64, error) {
	if p.NumRecs == 0 {
		return 0, nil
	}
	src := p.Header()
	for _, t := range p.Tiles {
		if t.Bounds.NumRecs == p.NumRecs {
			src = t
			break
		}
	}
	shape := p.Shape(v, p.NumRecs)
	buf, err := e.assemble(p, v, shape, []*tile.Tile{src}, Window{Count: p.NumRecs})
	if err != nil {
		return 0, err
	}
	start := make([]uint64, len(shape))
	start[0] = base
	return uint64(len(buf)), e.write(out, v, start, shape, buf)
}

// window merges one window of a record variable.
func (e *Engine) window(p *schema.Plan, v *schema.Variable, out *netcdf.File, w Window, base uint64) (uint64, error) {
	shape := p.Shape(v, w.Count)
	sources := p.Tiles
	if !v.Decomposed {
		sources = nil
		for _, t := range p.Tiles {
			if t.Bounds.NumRecs > w.Start {
				sources = []*tile.Tile{t}
				break
			}
		}
	}
	buf, err := e.assemble(p, v, shape, sources, w)
	if err != nil {
		return 0, err
	}
	start := make([]uint64, len(shape))
	start[0] = base + w.Start
	return uint64(len(buf)), e.write(out, v, start, shape, buf)
}

// assemble builds a buffer of the given global shape from each source
// tile's part of v. For record variables shape[0] is w.Count and tiles
// contribute the records of w they hold.
func (e *Engine) assemble(p *schema.Plan, v *schema.Variable, shape []uint64, sources []*tile.Tile, w Window) ([]byte, error) {
	esize := uint64(v.Type.Size())
	buf := make([]byte, layout.Elements(shape)*esize)
	if e.cfg.MissingValue {
		fill := v.Fill
		if fill == nil {
			fill = netcdf.DefaultFill(v.Type)
		}
		dtype.Fill(buf, fill)
	}

	for _, t := range sources {
		offset, count := p.Box(v, t.Bounds)
		start := make([]uint64, len(count))
		if v.Record {
			if t.Bounds.NumRecs <= w.Start {
				continue
			}
			start[0] = w.Start
			count[0] = min(w.Count, t.Bounds.NumRecs-w.Start)
			offset[0] = 0
		}
		if layout.Elements(count) == 0 {
			continue
		}

		f, err := t.Open()
		if err != nil {
			return nil, err
		}
		tv, err := f.Var(v.Name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", t.Name(), err)
		}
		data, err := tv.ReadSlab(start, count)
		err = errs.IO("read", t.Path, err)
		if e.release(p) {
			err = multierr.Append(err, t.Close())
		}
		if err != nil {
			return nil, err
		}
		if err := layout.Place(buf, shape, offset, data, count, esize); err != nil {
			if errors.Is(err, layout.ErrOutOfBounds) {
				return nil, fmt.Errorf("%s: variable %q at %v+%v outside %v: %w",
					t.Name(), v.Name, offset, count, shape, errs.ErrBoundsOverflow)
			}
			return nil, err
		}
	}
	return buf, nil
}

func (e *Engine) write(out *netcdf.File, v *schema.Variable, start, count []uint64, buf []byte) error {
	if layout.Elements(count) == 0 {
		return nil
	}
	ov, err := out.Var(v.Name)
	if err != nil {
		return err
	}
	if err := ov.WriteSlab(start, count, buf); err != nil {
		return errs.IO("write", out.Path(), err)
	}
	return nil
}
