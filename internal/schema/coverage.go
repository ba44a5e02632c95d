package schema

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/robert-malhotra/go-nccombine/internal/errs"
	"github.com/robert-malhotra/go-nccombine/internal/tile"
)

// box is the inclusive index range a tile holds over a set of dimensions.
type box struct {
	tile   *tile.Tile
	lo, hi []uint64
}

func (b box) key() string {
	return fmt.Sprint(b.lo, b.hi)
}

func (b box) volume() uint64 {
	v := uint64(1)
	for i := range b.lo {
		v *= b.hi[i] - b.lo[i] + 1
	}
	return v
}

func (b box) intersects(o box) bool {
	for i := range b.lo {
		if b.lo[i] > o.hi[i] || o.lo[i] > b.hi[i] {
			return false
		}
	}
	return true
}

// checkCoverage verifies that the tiles tile every decomposed index space
// exactly. The full set of decomposed dimensions must be covered by pairwise
// disjoint tile boxes. Each single decomposed dimension and each variable's
// subset of them is checked the same way, except that identical boxes are
// merged: tiles of a 2-D decomposition legitimately repeat the same range of
// a 1-D coordinate. Overlaps always fail; gaps fail unless force is set.
func (p *Plan) checkCoverage(force bool, log *zap.Logger) error {
	var all []string
	for _, d := range p.Dims {
		if d.Decomposed {
			all = append(all, d.Name)
		}
	}
	if len(all) == 0 {
		return nil
	}

	if err := p.cover(all, false, force, log); err != nil {
		return err
	}

	seen := map[string]bool{strings.Join(all, ","): true}
	subsets := make([][]string, 0, len(all)+len(p.Vars))
	for _, name := range all {
		subsets = append(subsets, []string{name})
	}
	for i := range p.Vars {
		var sub []string
		for _, name := range p.Vars[i].Dims {
			if d, _ := p.Dim(name); d.Decomposed {
				sub = append(sub, name)
			}
		}
		subsets = append(subsets, sub)
	}
	for _, sub := range subsets {
		key := strings.Join(sub, ",")
		if len(sub) == 0 || seen[key] {
			continue
		}
		seen[key] = true
		if err := p.cover(sub, true, force, log); err != nil {
			return err
		}
	}
	return nil
}

func (p *Plan) cover(dims []string, dedup, force bool, log *zap.Logger) error {
	boxes := make([]box, 0, len(p.Tiles))
	keys := map[string]bool{}
	for _, t := range p.Tiles {
		b := box{tile: t, lo: make([]uint64, len(dims)), hi: make([]uint64, len(dims))}
		for i, name := range dims {
			f, _ := t.Bounds.Fragment(name)
			b.lo[i], b.hi[i] = f.Start, f.End
		}
		if dedup {
			if keys[b.key()] {
				continue
			}
			keys[b.key()] = true
		}
		boxes = append(boxes, b)
	}

	sort.SliceStable(boxes, func(i, j int) bool {
		for d := range dims {
			if boxes[i].lo[d] != boxes[j].lo[d] {
				return boxes[i].lo[d] < boxes[j].lo[d]
			}
		}
		return false
	})

	var covered uint64
	for i := range boxes {
		for j := i + 1; j < len(boxes); j++ {
			if boxes[i].intersects(boxes[j]) {
				return fmt.Errorf("%s %v..%v and %s %v..%v overlap on %v: %w",
					boxes[i].tile.Name(), boxes[i].lo, boxes[i].hi,
					boxes[j].tile.Name(), boxes[j].lo, boxes[j].hi,
					dims, errs.ErrSchemaConflict)
			}
		}
		covered += boxes[i].volume()
	}

	want := uint64(1)
	for _, name := range dims {
		d, _ := p.Dim(name)
		want *= d.Len
	}
	if covered == want {
		return nil
	}
	if !force {
		return fmt.Errorf("tiles cover %d of %d points over %v: %w", covered, want, dims, errs.ErrMissingTile)
	}
	log.Warn("coverage gap tolerated",
		zap.Strings("dims", dims), zap.Uint64("covered", covered), zap.Uint64("total", want))
	p.Incomplete = true
	return nil
}
