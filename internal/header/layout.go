package header

import (
	"fmt"
	"math"

	"github.com/robert-malhotra/go-nccombine/internal/alloc"
	binpkg "github.com/robert-malhotra/go-nccombine/internal/binary"
)

// Validate checks the schema for consistency with the header's version.
func (h *Header) Validate() error {
	switch h.Version {
	case VersionClassic, Version64BitOffset, Version64BitData:
	default:
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, h.Version)
	}

	seen := make(map[string]bool, len(h.Dims))
	records := 0
	for _, d := range h.Dims {
		if d.Name == "" {
			return fmt.Errorf("%w: empty dimension name", ErrInvalidHeader)
		}
		if seen[d.Name] {
			return fmt.Errorf("%w: duplicate dimension %q", ErrInvalidHeader, d.Name)
		}
		seen[d.Name] = true
		if d.Len == 0 {
			records++
		}
		if h.Version != Version64BitData && d.Len > math.MaxInt32 {
			return fmt.Errorf("%w: dimension %q length %d", ErrFormatLimit, d.Name, d.Len)
		}
	}
	if records > 1 {
		return fmt.Errorf("%w: more than one unlimited dimension", ErrInvalidHeader)
	}

	if err := h.validateAttrs(h.Attrs); err != nil {
		return err
	}

	vars := make(map[string]bool, len(h.Vars))
	for i := range h.Vars {
		v := &h.Vars[i]
		if v.Name == "" {
			return fmt.Errorf("%w: empty variable name", ErrInvalidHeader)
		}
		if vars[v.Name] {
			return fmt.Errorf("%w: duplicate variable %q", ErrInvalidHeader, v.Name)
		}
		vars[v.Name] = true
		if !v.Type.Valid() {
			return fmt.Errorf("%w: variable %q has type %d", ErrInvalidHeader, v.Name, v.Type)
		}
		if v.Type.Extended() && h.Version != Version64BitData {
			return fmt.Errorf("%w: variable %q has type %s", ErrFormatLimit, v.Name, v.Type)
		}
		for j, id := range v.DimIDs {
			if id < 0 || id >= len(h.Dims) {
				return fmt.Errorf("%w: variable %q references dimension %d", ErrInvalidHeader, v.Name, id)
			}
			if j > 0 && h.Dims[id].Len == 0 {
				return fmt.Errorf("%w: variable %q uses the unlimited dimension in position %d", ErrInvalidHeader, v.Name, j)
			}
		}
		if err := h.validateAttrs(v.Attrs); err != nil {
			return fmt.Errorf("variable %q: %w", v.Name, err)
		}
	}
	return nil
}

func (h *Header) validateAttrs(attrs []Attr) error {
	for _, a := range attrs {
		if !a.Type.Valid() {
			return fmt.Errorf("%w: attribute %q has type %d", ErrInvalidHeader, a.Name, a.Type)
		}
		if a.Type.Extended() && h.Version != Version64BitData {
			return fmt.Errorf("%w: attribute %q has type %s", ErrFormatLimit, a.Name, a.Type)
		}
		if len(a.Data)%a.Type.Size() != 0 {
			return fmt.Errorf("%w: attribute %q has %d bytes for type %s", ErrInvalidHeader, a.Name, len(a.Data), a.Type)
		}
	}
	return nil
}

// ComputeLayout assigns VSize and Begin to every variable. Data starts at the
// header size plus padding, rounded up to 4. Fixed-size variables come first
// in definition order, followed by one record of every record variable.
func (h *Header) ComputeLayout(padding uint64) (alloc.Stats, error) {
	if err := h.Validate(); err != nil {
		return alloc.Stats{}, err
	}

	a := alloc.New(binpkg.RoundUp(uint64(h.Size()) + padding))
	for i := range h.Vars {
		v := &h.Vars[i]
		if h.IsRecordVar(v) {
			continue
		}
		v.VSize = h.VarSize(v)
		v.Begin = a.AllocAligned(v.VSize, binpkg.Alignment, v.Name)
	}
	for i := range h.Vars {
		v := &h.Vars[i]
		if !h.IsRecordVar(v) {
			continue
		}
		v.VSize = h.VarSize(v)
		v.Begin = a.AllocAligned(v.VSize, binpkg.Alignment, v.Name)
	}
	if err := a.Validate(); err != nil {
		return alloc.Stats{}, fmt.Errorf("%w: %v", ErrInvalidHeader, err)
	}
	if err := h.checkLimits(); err != nil {
		return alloc.Stats{}, err
	}
	return a.Stats(), nil
}

// checkLimits verifies that every variable offset is representable.
func (h *Header) checkLimits() error {
	if h.Version != VersionClassic {
		return nil
	}
	for i := range h.Vars {
		if h.Vars[i].Begin > math.MaxInt32 {
			return fmt.Errorf("%w: variable %q begins at offset %d, beyond the classic format's 2 GiB limit",
				ErrFormatLimit, h.Vars[i].Name, h.Vars[i].Begin)
		}
	}
	return nil
}
