package netcdf

import (
	"fmt"
	"os"

	binpkg "github.com/robert-malhotra/go-nccombine/internal/binary"
	"github.com/robert-malhotra/go-nccombine/internal/header"
)

// File represents an open netCDF file.
type File struct {
	path   string
	file   *os.File
	hdr    *header.Header
	reader *binpkg.Reader
	closed bool

	// Write support fields
	writable  bool
	defining  bool
	headerPad uint64
}

// Open opens a netCDF file for reading.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}

	nc, err := newFile(path, f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return nc, nil
}

// OpenReadWrite opens an existing netCDF file in data mode for reading and
// writing. New records can be appended; the schema cannot change.
func OpenReadWrite(path string) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}

	nc, err := newFile(path, f)
	if err != nil {
		f.Close()
		return nil, err
	}
	nc.writable = true
	return nc, nil
}

func newFile(path string, f *os.File) (*File, error) {
	hdr, err := header.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	if hdr.Streaming {
		info, err := f.Stat()
		if err != nil {
			return nil, fmt.Errorf("sizing streamed file: %w", err)
		}
		hdr.NumRecs = 0
		if rs, br := hdr.RecordSize(), hdr.BeginRec(); rs > 0 && uint64(info.Size()) > br {
			hdr.NumRecs = (uint64(info.Size()) - br) / rs
		}
		hdr.Streaming = false
	}

	return &File{
		path:   path,
		file:   f,
		hdr:    hdr,
		reader: binpkg.NewReader(f, hdr.Config()),
	}, nil
}

// Close closes the file. A writable file is finalized first: a file still in
// define mode has its header written, the record count is updated and the
// file is sized to hold exactly the written records.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true

	if f.writable {
		if err := f.closeWritable(); err != nil {
			f.file.Close()
			return err
		}
	}
	return f.file.Close()
}

// Path returns the file path.
func (f *File) Path() string {
	return f.path
}

// Format returns the on-disk format.
func (f *File) Format() Format {
	return formatFromVersion(f.hdr.Version)
}

// NumRecs returns the number of records along the unlimited dimension.
func (f *File) NumRecs() uint64 {
	return f.hdr.NumRecs
}

// HeaderSize returns the encoded size of the header in bytes.
func (f *File) HeaderSize() int64 {
	return f.hdr.Size()
}

// DataStart returns the offset of the first byte of variable data, which is
// the header size plus any reserved padding.
func (f *File) DataStart() uint64 {
	var start uint64
	for i := range f.hdr.Vars {
		if b := f.hdr.Vars[i].Begin; i == 0 || b < start {
			start = b
		}
	}
	if len(f.hdr.Vars) == 0 {
		return uint64(f.hdr.Size())
	}
	return start
}

// RecordSize returns the size in bytes of one record.
func (f *File) RecordSize() uint64 {
	return f.hdr.RecordSize()
}

// Dims returns the dimensions in definition order.
func (f *File) Dims() []Dim {
	dims := make([]Dim, len(f.hdr.Dims))
	for i := range f.hdr.Dims {
		dims[i] = f.dim(i)
	}
	return dims
}

// Dim returns the named dimension.
func (f *File) Dim(name string) (Dim, error) {
	i := f.hdr.FindDim(name)
	if i < 0 {
		return Dim{}, fmt.Errorf("dimension %q: %w", name, ErrNotFound)
	}
	return f.dim(i), nil
}

func (f *File) dim(i int) Dim {
	d := f.hdr.Dims[i]
	if d.Len == 0 {
		return Dim{Name: d.Name, Len: f.hdr.NumRecs, Unlimited: true}
	}
	return Dim{Name: d.Name, Len: d.Len}
}

// UnlimitedDim returns the unlimited dimension, if the file has one.
func (f *File) UnlimitedDim() (Dim, bool) {
	i := f.hdr.RecordDim()
	if i < 0 {
		return Dim{}, false
	}
	return f.dim(i), true
}

// Vars returns the variables in definition order.
func (f *File) Vars() []*Variable {
	vars := make([]*Variable, len(f.hdr.Vars))
	for i := range f.hdr.Vars {
		vars[i] = &Variable{file: f, idx: i}
	}
	return vars
}

// Var returns the named variable.
func (f *File) Var(name string) (*Variable, error) {
	i := f.hdr.FindVar(name)
	if i < 0 {
		return nil, fmt.Errorf("variable %q: %w", name, ErrNotFound)
	}
	return &Variable{file: f, idx: i}, nil
}

// Attrs returns the global attributes.
func (f *File) Attrs() []Attribute {
	return attrsFromHeader(f.hdr.Attrs)
}

// Attr returns the named global attribute.
func (f *File) Attr(name string) (Attribute, bool) {
	return findAttr(f.hdr.Attrs, name)
}

func attrsFromHeader(attrs []header.Attr) []Attribute {
	out := make([]Attribute, len(attrs))
	for i, a := range attrs {
		out[i] = attrFromHeader(a)
	}
	return out
}

func findAttr(attrs []header.Attr, name string) (Attribute, bool) {
	for _, a := range attrs {
		if a.Name == name {
			return attrFromHeader(a), true
		}
	}
	return Attribute{}, false
}
