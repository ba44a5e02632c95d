package schema

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/robert-malhotra/go-nccombine/internal/errs"
	"github.com/robert-malhotra/go-nccombine/internal/tile"
	"github.com/robert-malhotra/go-nccombine/netcdf"
)

// Fill value attribute names, in order of precedence.
const (
	AttrMissingValue = "missing_value"
	AttrFillValue    = "_FillValue"
)

// Options control Build.
type Options struct {
	// OutputPath names the merged dataset; its base name replaces the
	// filename global attribute.
	OutputPath string

	// Force tolerates coverage gaps and record count disagreement.
	Force bool

	// KeepOpen is the largest tile set whose files stay open after Build.
	// Larger sets have every tile closed once its header is read. Zero
	// keeps all tiles open.
	KeepOpen int

	Logger *zap.Logger
}

// Build resolves every tile and folds the tile set into a plan. The first
// tile is the header: its declarations and attributes are authoritative and
// every other tile must match it structurally. Build reads only headers and
// coordinate attributes.
func Build(tiles []*tile.Tile, opts Options) (*Plan, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if len(tiles) == 0 {
		return nil, errs.ErrEmptyTileSet
	}

	release := opts.KeepOpen > 0 && len(tiles) > opts.KeepOpen
	for i, t := range tiles {
		if _, err := t.Resolve(); err != nil {
			return nil, err
		}
		if i == 0 {
			continue
		}
		if err := conform(tiles[0], t); err != nil {
			return nil, err
		}
		if release {
			if err := t.Close(); err != nil {
				return nil, err
			}
		}
	}

	hdr, err := tiles[0].Open()
	if err != nil {
		return nil, err
	}

	p := &Plan{Tiles: tiles}

	numRecs, err := recordCount(tiles, opts.Force, log)
	if err != nil {
		return nil, err
	}
	p.NumRecs = numRecs

	if err := p.buildDims(opts.Force, log); err != nil {
		return nil, err
	}
	for _, v := range hdr.Vars() {
		p.Vars = append(p.Vars, p.variable(v, log))
	}
	if err := p.checkCoverage(opts.Force, log); err != nil {
		return nil, err
	}
	p.Attrs = globalAttrs(hdr, opts.OutputPath)
	if release {
		if err := tiles[0].Close(); err != nil {
			return nil, err
		}
	}

	log.Debug("schema resolved",
		zap.Int("tiles", len(tiles)),
		zap.Int("dims", len(p.Dims)),
		zap.Int("vars", len(p.Vars)),
		zap.Uint64("records", p.NumRecs),
		zap.Bool("incomplete", p.Incomplete))
	return p, nil
}

// conform checks that t declares the same structure as the header tile.
func conform(header, t *tile.Tile) error {
	hb, tb := header.Bounds, t.Bounds
	if len(hb.Fragments) != len(tb.Fragments) {
		return fmt.Errorf("%s has %d dimensions, %s has %d: %w",
			t.Name(), len(tb.Fragments), header.Name(), len(hb.Fragments), errs.ErrSchemaConflict)
	}
	for i, hf := range hb.Fragments {
		tf := tb.Fragments[i]
		switch {
		case tf.Name != hf.Name:
			return fmt.Errorf("%s: dimension %d is %q, expected %q: %w", t.Name(), i, tf.Name, hf.Name, errs.ErrSchemaConflict)
		case tf.Unlimited != hf.Unlimited:
			return fmt.Errorf("%s: dimension %q unlimited=%v, expected %v: %w", t.Name(), tf.Name, tf.Unlimited, hf.Unlimited, errs.ErrSchemaConflict)
		case tf.Decomposed != hf.Decomposed:
			return fmt.Errorf("%s: dimension %q decomposed=%v, expected %v: %w", t.Name(), tf.Name, tf.Decomposed, hf.Decomposed, errs.ErrSchemaConflict)
		case tf.Unlimited:
		case !tf.Decomposed && tf.Len != hf.Len:
			return fmt.Errorf("%s: dimension %q has length %d, expected %d: %w", t.Name(), tf.Name, tf.Len, hf.Len, errs.ErrSchemaConflict)
		case tf.Decomposed && tf.GlobalLen != hf.GlobalLen:
			return fmt.Errorf("%s: dimension %q declares global length %d, expected %d: %w",
				t.Name(), tf.Name, tf.GlobalLen, hf.GlobalLen, errs.ErrSchemaConflict)
		}
	}

	hf, err := header.Open()
	if err != nil {
		return err
	}
	tf, err := t.Open()
	if err != nil {
		return err
	}
	hv, tv := hf.Vars(), tf.Vars()
	if len(hv) != len(tv) {
		return fmt.Errorf("%s has %d variables, %s has %d: %w",
			t.Name(), len(tv), header.Name(), len(hv), errs.ErrSchemaConflict)
	}
	for i := range hv {
		if err := sameVar(hv[i], tv[i]); err != nil {
			return fmt.Errorf("%s: %w", t.Name(), err)
		}
	}
	return nil
}

func sameVar(a, b *netcdf.Variable) error {
	if a.Name() != b.Name() {
		return fmt.Errorf("variable %q, expected %q: %w", b.Name(), a.Name(), errs.ErrSchemaConflict)
	}
	if a.Type() != b.Type() {
		return fmt.Errorf("variable %q has type %s, expected %s: %w", b.Name(), b.Type(), a.Type(), errs.ErrSchemaConflict)
	}
	ad, bd := a.Dims(), b.Dims()
	if len(ad) != len(bd) {
		return fmt.Errorf("variable %q has dimensions %v, expected %v: %w", b.Name(), bd, ad, errs.ErrSchemaConflict)
	}
	for i := range ad {
		if ad[i] != bd[i] {
			return fmt.Errorf("variable %q has dimensions %v, expected %v: %w", b.Name(), bd, ad, errs.ErrSchemaConflict)
		}
	}
	return nil
}

// recordCount returns the number of records to merge. Tiles must agree
// unless force is set, in which case the largest count wins.
func recordCount(tiles []*tile.Tile, force bool, log *zap.Logger) (uint64, error) {
	n := tiles[0].Bounds.NumRecs
	agree := true
	for _, t := range tiles[1:] {
		if t.Bounds.NumRecs != n {
			agree = false
			if t.Bounds.NumRecs > n {
				n = t.Bounds.NumRecs
			}
		}
	}
	if agree {
		return n, nil
	}
	if !force {
		return 0, fmt.Errorf("tiles disagree on the number of records: %w", errs.ErrSchemaConflict)
	}
	log.Warn("tiles disagree on the number of records, merging the largest count", zap.Uint64("records", n))
	return n, nil
}

func (p *Plan) buildDims(force bool, log *zap.Logger) error {
	for _, hf := range p.Header().Bounds.Fragments {
		d := Dimension{Name: hf.Name, Len: hf.Len, Unlimited: hf.Unlimited, Decomposed: hf.Decomposed}
		if d.Unlimited {
			d.Len = 0
		}
		if d.Decomposed {
			var maxEnd uint64
			for _, t := range p.Tiles {
				f, _ := t.Bounds.Fragment(d.Name)
				if f.End >= hf.GlobalLen {
					return fmt.Errorf("%s: dimension %q ends at %d beyond global length %d: %w",
						t.Name(), d.Name, f.End, hf.GlobalLen, errs.ErrBoundsOverflow)
				}
				if f.End > maxEnd {
					maxEnd = f.End
				}
			}
			d.Len = maxEnd + 1
			if d.Len < hf.GlobalLen {
				if !force {
					return fmt.Errorf("dimension %q: no tile covers [%d, %d): %w",
						d.Name, d.Len, hf.GlobalLen, errs.ErrMissingTile)
				}
				log.Warn("trailing coverage gap tolerated",
					zap.String("dim", d.Name), zap.Uint64("covered", d.Len), zap.Uint64("declared", hf.GlobalLen))
				p.Incomplete = true
				d.Len = hf.GlobalLen
			}
		}
		p.Dims = append(p.Dims, d)
	}
	return nil
}

func (p *Plan) variable(v *netcdf.Variable, log *zap.Logger) Variable {
	gv := Variable{
		Name: v.Name(),
		Dims: v.Dims(),
		Type: v.Type(),
	}
	gv.Coordinate = len(gv.Dims) == 1 && gv.Dims[0] == gv.Name
	for i, name := range gv.Dims {
		d, _ := p.Dim(name)
		if i == 0 && d.Unlimited {
			gv.Record = true
		}
		if d.Decomposed {
			gv.Decomposed = true
		}
	}
	for _, a := range v.Attrs() {
		if a.Name != tile.AttrDecomposition {
			gv.Attrs = append(gv.Attrs, a)
		}
	}

	for _, name := range []string{AttrMissingValue, AttrFillValue} {
		a, ok := v.Attr(name)
		if !ok {
			continue
		}
		fill, err := a.Convert(gv.Type)
		if err != nil {
			log.Warn("ignoring unusable fill attribute",
				zap.String("var", gv.Name), zap.String("attr", name), zap.Error(err))
			continue
		}
		gv.Fill = fill
		break
	}
	return gv
}

// globalAttrs copies the header tile's attributes, renaming the dataset and
// dropping the tile-set size.
func globalAttrs(hdr *netcdf.File, output string) []netcdf.Attribute {
	var attrs []netcdf.Attribute
	for _, a := range hdr.Attrs() {
		switch a.Name {
		case tile.AttrNumFiles:
			continue
		case tile.AttrFilename:
			if output != "" {
				a = netcdf.RawAttribute(tile.AttrFilename, netcdf.Char, []byte(filepath.Base(output)))
			}
		}
		attrs = append(attrs, a)
	}
	return attrs
}
