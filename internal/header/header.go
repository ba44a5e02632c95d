package header

import (
	"encoding/binary"
	"errors"

	binpkg "github.com/robert-malhotra/go-nccombine/internal/binary"
	"github.com/robert-malhotra/go-nccombine/internal/dtype"
)

// Magic is the 3-byte file signature preceding the version byte.
var Magic = []byte{'C', 'D', 'F'}

// Format versions.
const (
	VersionClassic     uint8 = 1
	Version64BitOffset uint8 = 2
	Version64BitData   uint8 = 5
)

// NumRecsOffset is the file offset of the numrecs field.
const NumRecsOffset = 4

const (
	tagAbsent    uint32 = 0x00
	tagDimension uint32 = 0x0A
	tagVariable  uint32 = 0x0B
	tagAttribute uint32 = 0x0C
)

// Errors
var (
	ErrNotNetCDF          = errors.New("not a netCDF file: signature not found")
	ErrUnsupportedVersion = errors.New("unsupported netCDF format version")
	ErrInvalidHeader      = errors.New("invalid netCDF header")
	ErrFormatLimit        = errors.New("dataset exceeds format limits")
)

// Dim is a dimension definition. Len 0 marks the record (unlimited) dimension.
type Dim struct {
	Name string
	Len  uint64
}

// Attr is an attribute with its raw, unpadded big-endian value bytes.
type Attr struct {
	Name string
	Type dtype.Type
	Data []byte
}

// Nelems returns the number of elements in the attribute value.
func (a Attr) Nelems() uint64 {
	size := a.Type.Size()
	if size == 0 {
		return 0
	}
	return uint64(len(a.Data) / size)
}

// Var is a variable definition.
type Var struct {
	Name   string
	DimIDs []int
	Attrs  []Attr
	Type   dtype.Type

	// VSize is the padded size of the variable (one record for record
	// variables) and Begin its file offset. Both are set by ComputeLayout or
	// Read.
	VSize uint64
	Begin uint64
}

// Header is the complete netCDF header.
type Header struct {
	Version uint8
	NumRecs uint64

	// Streaming is set when the file stores the numrecs sentinel; NumRecs is
	// then derived from the file size by the caller.
	Streaming bool

	Dims  []Dim
	Attrs []Attr
	Vars  []Var
}

// Config returns the binary configuration for the header's format version.
func (h *Header) Config() binpkg.Config {
	cfg := binpkg.Config{ByteOrder: binary.BigEndian, OffsetSize: 4, CountSize: 4}
	switch h.Version {
	case Version64BitOffset:
		cfg.OffsetSize = 8
	case Version64BitData:
		cfg.OffsetSize = 8
		cfg.CountSize = 8
	}
	return cfg
}

// RecordDim returns the index of the record dimension, or -1.
func (h *Header) RecordDim() int {
	for i, d := range h.Dims {
		if d.Len == 0 {
			return i
		}
	}
	return -1
}

// IsRecordVar reports whether v's leading dimension is the record dimension.
func (h *Header) IsRecordVar(v *Var) bool {
	return len(v.DimIDs) > 0 && h.Dims[v.DimIDs[0]].Len == 0
}

// FindDim returns the index of the named dimension, or -1.
func (h *Header) FindDim(name string) int {
	for i, d := range h.Dims {
		if d.Name == name {
			return i
		}
	}
	return -1
}

// FindVar returns the index of the named variable, or -1.
func (h *Header) FindVar(name string) int {
	for i := range h.Vars {
		if h.Vars[i].Name == name {
			return i
		}
	}
	return -1
}

// ElementsPerRecord returns the number of elements in v, or in one record of
// v for record variables.
func (h *Header) ElementsPerRecord(v *Var) uint64 {
	n := uint64(1)
	for i, id := range v.DimIDs {
		if i == 0 && h.Dims[id].Len == 0 {
			continue
		}
		n *= h.Dims[id].Len
	}
	return n
}

// VarSize returns the padded on-disk size of v (per record for record
// variables).
func (h *Header) VarSize(v *Var) uint64 {
	return binpkg.RoundUp(h.ElementsPerRecord(v) * uint64(v.Type.Size()))
}

// RecordSize returns the size of one record: the sum of padded sizes of all
// record variables, except that a single record variable is not padded.
func (h *Header) RecordSize() uint64 {
	var size uint64
	var count int
	var only *Var
	for i := range h.Vars {
		v := &h.Vars[i]
		if !h.IsRecordVar(v) {
			continue
		}
		count++
		only = v
		size += h.VarSize(v)
	}
	if count == 1 {
		return h.ElementsPerRecord(only) * uint64(only.Type.Size())
	}
	return size
}

// BeginRec returns the offset of the first record, or of the end of the
// fixed-size data when there are no record variables.
func (h *Header) BeginRec() uint64 {
	var end uint64
	first := true
	var beginRec uint64
	for i := range h.Vars {
		v := &h.Vars[i]
		if h.IsRecordVar(v) {
			if first || v.Begin < beginRec {
				beginRec = v.Begin
				first = false
			}
			continue
		}
		if e := v.Begin + h.VarSize(v); e > end {
			end = e
		}
	}
	if !first {
		return beginRec
	}
	if end == 0 {
		return uint64(h.Size())
	}
	return end
}

// DataEnd returns the expected file size for the current record count.
func (h *Header) DataEnd() uint64 {
	return h.BeginRec() + h.NumRecs*h.RecordSize()
}
