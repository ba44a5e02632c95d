package header

import (
	"fmt"
	"io"

	binpkg "github.com/robert-malhotra/go-nccombine/internal/binary"
)

// Size returns the encoded size of the header in bytes.
func (h *Header) Size() int64 {
	cfg := h.Config()
	cs := int64(cfg.CountSize)
	os := int64(cfg.OffsetSize)

	size := int64(4) + cs // magic + numrecs

	size += 4 + cs // dim_list head
	for _, d := range h.Dims {
		size += nameSize(d.Name, cs) + cs
	}

	size += attrListSize(h.Attrs, cs)

	size += 4 + cs // var_list head
	for i := range h.Vars {
		v := &h.Vars[i]
		size += nameSize(v.Name, cs)
		size += cs + cs*int64(len(v.DimIDs))
		size += attrListSize(v.Attrs, cs)
		size += 4 + cs + os // nc_type, vsize, begin
	}
	return size
}

func nameSize(name string, cs int64) int64 {
	return cs + int64(binpkg.RoundUp(uint64(len(name))))
}

func attrListSize(attrs []Attr, cs int64) int64 {
	size := 4 + cs
	for _, a := range attrs {
		size += nameSize(a.Name, cs) + 4 + cs + int64(binpkg.RoundUp(uint64(len(a.Data))))
	}
	return size
}

// Write encodes the header at the writer's current position and returns the
// number of bytes written. A streaming header stores the numrecs sentinel.
func (h *Header) Write(w *binpkg.Writer) (int64, error) {
	start := w.Pos()

	if err := w.WriteBytes(Magic); err != nil {
		return 0, err
	}
	if err := w.WriteBytes([]byte{h.Version}); err != nil {
		return 0, err
	}
	numrecs := h.NumRecs
	if h.Streaming {
		numrecs = streamingSentinel(w.CountSize())
	}
	if err := w.WriteCount(numrecs); err != nil {
		return 0, fmt.Errorf("writing numrecs: %w", err)
	}

	if err := writeListHead(w, tagDimension, len(h.Dims)); err != nil {
		return 0, err
	}
	for _, d := range h.Dims {
		if err := w.WriteName(d.Name); err != nil {
			return 0, err
		}
		if err := w.WriteCount(d.Len); err != nil {
			return 0, fmt.Errorf("writing dimension %q: %w", d.Name, err)
		}
	}

	if err := writeAttrs(w, h.Attrs); err != nil {
		return 0, fmt.Errorf("writing global attributes: %w", err)
	}

	if err := writeListHead(w, tagVariable, len(h.Vars)); err != nil {
		return 0, err
	}
	for i := range h.Vars {
		if err := writeVar(w, &h.Vars[i]); err != nil {
			return 0, fmt.Errorf("writing variable %q: %w", h.Vars[i].Name, err)
		}
	}

	return w.Pos() - start, nil
}

func writeListHead(w *binpkg.Writer, tag uint32, n int) error {
	if n == 0 {
		tag = tagAbsent
	}
	if err := w.WriteUint32(tag); err != nil {
		return err
	}
	return w.WriteCount(uint64(n))
}

func writeAttrs(w *binpkg.Writer, attrs []Attr) error {
	if err := writeListHead(w, tagAttribute, len(attrs)); err != nil {
		return err
	}
	for _, a := range attrs {
		if err := w.WriteName(a.Name); err != nil {
			return err
		}
		if err := w.WriteUint32(uint32(a.Type)); err != nil {
			return err
		}
		if err := w.WriteCount(a.Nelems()); err != nil {
			return err
		}
		if err := w.WritePadded(a.Data); err != nil {
			return fmt.Errorf("writing attribute %q: %w", a.Name, err)
		}
	}
	return nil
}

func writeVar(w *binpkg.Writer, v *Var) error {
	if err := w.WriteName(v.Name); err != nil {
		return err
	}
	if err := w.WriteCount(uint64(len(v.DimIDs))); err != nil {
		return err
	}
	for _, id := range v.DimIDs {
		if err := w.WriteCount(uint64(id)); err != nil {
			return err
		}
	}
	if err := writeAttrs(w, v.Attrs); err != nil {
		return err
	}
	if err := w.WriteUint32(uint32(v.Type)); err != nil {
		return err
	}
	vsize := v.VSize
	if w.CountSize() == 4 && vsize > 0xFFFFFFFF {
		// Oversized variables store the maximum; readers recompute from the shape.
		vsize = 0xFFFFFFFF
	}
	if err := w.WriteCount(vsize); err != nil {
		return err
	}
	return w.WriteOffset(v.Begin)
}

// WriteNumRecs rewrites the numrecs field of an existing header in place.
func (h *Header) WriteNumRecs(wa io.WriterAt) error {
	w := binpkg.NewWriter(wa, h.Config()).At(NumRecsOffset)
	if err := w.WriteCount(h.NumRecs); err != nil {
		return fmt.Errorf("updating numrecs: %w", err)
	}
	return nil
}
