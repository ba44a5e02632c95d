package netcdf

import (
	"fmt"

	"github.com/robert-malhotra/go-nccombine/internal/dtype"
	"github.com/robert-malhotra/go-nccombine/internal/header"
	"github.com/robert-malhotra/go-nccombine/internal/layout"
)

// Variable is a handle to a variable of an open file.
type Variable struct {
	file *File
	idx  int
}

func (v *Variable) hv() *header.Var {
	return &v.file.hdr.Vars[v.idx]
}

// Name returns the variable name.
func (v *Variable) Name() string {
	return v.hv().Name
}

// Type returns the external element type.
func (v *Variable) Type() Type {
	return v.hv().Type
}

// ElementSize returns the size of one element in bytes.
func (v *Variable) ElementSize() uint64 {
	return uint64(v.hv().Type.Size())
}

// Dims returns the names of the variable's dimensions.
func (v *Variable) Dims() []string {
	hv := v.hv()
	names := make([]string, len(hv.DimIDs))
	for i, id := range hv.DimIDs {
		names[i] = v.file.hdr.Dims[id].Name
	}
	return names
}

// Shape returns the current extent of each dimension. For record variables
// the first entry is the number of records.
func (v *Variable) Shape() []uint64 {
	hv := v.hv()
	shape := make([]uint64, len(hv.DimIDs))
	for i, id := range hv.DimIDs {
		shape[i] = v.file.hdr.Dims[id].Len
		if shape[i] == 0 {
			shape[i] = v.file.hdr.NumRecs
		}
	}
	return shape
}

// IsRecord reports whether the variable varies along the unlimited dimension.
func (v *Variable) IsRecord() bool {
	return v.file.hdr.IsRecordVar(v.hv())
}

// Attrs returns the variable's attributes.
func (v *Variable) Attrs() []Attribute {
	return attrsFromHeader(v.hv().Attrs)
}

// Attr returns the named attribute.
func (v *Variable) Attr(name string) (Attribute, bool) {
	return findAttr(v.hv().Attrs, name)
}

// SetAttr sets an attribute, replacing any existing one of that name.
func (v *Variable) SetAttr(name string, t Type, value interface{}) error {
	a, err := NewAttribute(name, t, value)
	if err != nil {
		return err
	}
	return v.PutAttr(a)
}

// PutAttr sets an attribute, replacing any existing one of that name.
func (v *Variable) PutAttr(a Attribute) error {
	if err := v.file.checkDefine(); err != nil {
		return err
	}
	if a.Type.Extended() && v.file.hdr.Version != header.Version64BitData {
		return fmt.Errorf("attribute %q: %w: type %v requires the 64-bit data format", a.Name, ErrFormatLimit, a.Type)
	}
	hv := v.hv()
	hv.Attrs = putAttr(hv.Attrs, a)
	return nil
}

// FillValue returns the encoded _FillValue attribute if it is present and
// has the variable's type, or the default fill value for the type.
func (v *Variable) FillValue() []byte {
	if a, ok := v.Attr("_FillValue"); ok && a.Type == v.Type() && a.Len() >= 1 {
		return a.Bytes()[:v.ElementSize()]
	}
	return dtype.DefaultFill(v.Type())
}

// Read reads the whole variable.
func (v *Variable) Read() ([]byte, error) {
	shape := v.Shape()
	return v.ReadSlab(make([]uint64, len(shape)), shape)
}

// ReadFloat64s reads the whole variable as float64 values.
func (v *Variable) ReadFloat64s() ([]float64, error) {
	data, err := v.Read()
	if err != nil {
		return nil, err
	}
	return dtype.DecodeFloat64s(v.Type(), data)
}

// ReadSlab reads the hyperslab (start, count) into a packed row-major buffer
// of big-endian elements.
func (v *Variable) ReadSlab(start, count []uint64) ([]byte, error) {
	if v.file.closed {
		return nil, ErrClosed
	}
	if v.file.defining {
		return nil, ErrDefineMode
	}
	if err := layout.Check(v.Shape(), start, count); err != nil {
		return nil, fmt.Errorf("variable %q: %w", v.Name(), err)
	}

	buf := make([]byte, layout.Elements(count)*v.ElementSize())
	err := v.slabRuns(start, count, func(fileOff, slabOff, n uint64) error {
		if _, err := v.file.file.ReadAt(buf[slabOff:slabOff+n], int64(fileOff)); err != nil {
			return fmt.Errorf("variable %q: reading %d bytes at %d: %w", v.Name(), n, fileOff, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// WriteSlab writes a packed row-major buffer of big-endian elements to the
// hyperslab (start, count). Writing a record variable past the current
// record count extends it. A file still in define mode leaves it first.
func (v *Variable) WriteSlab(start, count []uint64, data []byte) error {
	f := v.file
	if f.closed {
		return ErrClosed
	}
	if !f.writable {
		return ErrReadOnly
	}
	if f.defining {
		if err := f.endDef(); err != nil {
			return err
		}
	}

	shape := v.Shape()
	if v.IsRecord() && len(start) == len(shape) && len(count) == len(shape) {
		if end := start[0] + count[0]; end > shape[0] {
			shape[0] = end
		}
	}
	if err := layout.Check(shape, start, count); err != nil {
		return fmt.Errorf("variable %q: %w", v.Name(), err)
	}
	if want := layout.Elements(count) * v.ElementSize(); uint64(len(data)) != want {
		return fmt.Errorf("variable %q: %w: have %d bytes, want %d", v.Name(), ErrShortData, len(data), want)
	}

	err := v.slabRuns(start, count, func(fileOff, slabOff, n uint64) error {
		if _, err := f.file.WriteAt(data[slabOff:slabOff+n], int64(fileOff)); err != nil {
			return fmt.Errorf("variable %q: writing %d bytes at %d: %w", v.Name(), n, fileOff, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if v.IsRecord() && len(count) > 0 && count[0] > 0 {
		if end := start[0] + count[0]; end > f.hdr.NumRecs {
			f.hdr.NumRecs = end
		}
	}
	return nil
}

// slabRuns maps the hyperslab to contiguous file extents. Record variables
// are stored one record at a time, interleaved with the other record
// variables.
func (v *Variable) slabRuns(start, count []uint64, fn func(fileOff, slabOff, n uint64) error) error {
	hv := v.hv()
	esize := v.ElementSize()
	shape := v.Shape()

	if !v.IsRecord() {
		return layout.Runs(shape, start, count, esize, func(arrayOff, slabOff, n uint64) error {
			return fn(hv.Begin+arrayOff, slabOff, n)
		})
	}

	recSize := v.file.hdr.RecordSize()
	inner := shape[1:]
	innerStart := start[1:]
	innerCount := count[1:]
	slabPerRec := layout.Elements(innerCount) * esize
	for r := uint64(0); r < count[0]; r++ {
		base := hv.Begin + (start[0]+r)*recSize
		slabBase := r * slabPerRec
		err := layout.Runs(inner, innerStart, innerCount, esize, func(arrayOff, slabOff, n uint64) error {
			return fn(base+arrayOff, slabBase+slabOff, n)
		})
		if err != nil {
			return err
		}
	}
	return nil
}
