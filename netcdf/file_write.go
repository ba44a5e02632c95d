package netcdf

import (
	"fmt"
	"os"

	"go.uber.org/multierr"

	binpkg "github.com/robert-malhotra/go-nccombine/internal/binary"
	"github.com/robert-malhotra/go-nccombine/internal/header"
)

// Create creates a new netCDF file at the given path, truncating any existing
// file. The file starts in define mode: add dimensions, variables and
// attributes, then call EndDef (or start writing data) to lay out the file.
func Create(path string, opts ...FileOption) (*File, error) {
	options := defaultFileOptions()
	for _, opt := range opts {
		opt(options)
	}

	osFile, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}

	hdr := &header.Header{Version: options.format.version()}
	return &File{
		path:      path,
		file:      osFile,
		hdr:       hdr,
		reader:    binpkg.NewReader(osFile, hdr.Config()),
		writable:  true,
		defining:  true,
		headerPad: options.headerPad,
	}, nil
}

// IsWritable returns true if the file was opened for writing.
func (f *File) IsWritable() bool {
	return f.writable
}

// InDefineMode reports whether the schema can still be changed.
func (f *File) InDefineMode() bool {
	return f.defining
}

func (f *File) checkDefine() error {
	if f.closed {
		return ErrClosed
	}
	if !f.writable {
		return ErrReadOnly
	}
	if !f.defining {
		return ErrDataMode
	}
	return nil
}

// AddDim defines a dimension. A length of 0 defines the unlimited dimension.
func (f *File) AddDim(name string, length uint64) error {
	if err := f.checkDefine(); err != nil {
		return err
	}
	if f.hdr.FindDim(name) >= 0 {
		return fmt.Errorf("dimension %q: %w", name, ErrExists)
	}
	if length == 0 && f.hdr.RecordDim() >= 0 {
		return fmt.Errorf("dimension %q: %w: file already has an unlimited dimension", name, ErrExists)
	}
	f.hdr.Dims = append(f.hdr.Dims, header.Dim{Name: name, Len: length})
	return nil
}

// AddVar defines a variable over the named dimensions. The unlimited
// dimension, if used, must come first.
func (f *File) AddVar(name string, t Type, dims []string) (*Variable, error) {
	if err := f.checkDefine(); err != nil {
		return nil, err
	}
	if f.hdr.FindVar(name) >= 0 {
		return nil, fmt.Errorf("variable %q: %w", name, ErrExists)
	}
	if !t.Valid() {
		return nil, fmt.Errorf("variable %q: invalid type %v", name, t)
	}
	if t.Extended() && f.hdr.Version != header.Version64BitData {
		return nil, fmt.Errorf("variable %q: %w: type %v requires the 64-bit data format", name, ErrFormatLimit, t)
	}

	ids := make([]int, len(dims))
	for i, dn := range dims {
		id := f.hdr.FindDim(dn)
		if id < 0 {
			return nil, fmt.Errorf("variable %q: dimension %q: %w", name, dn, ErrNotFound)
		}
		if i > 0 && f.hdr.Dims[id].Len == 0 {
			return nil, fmt.Errorf("variable %q: unlimited dimension %q must be the first dimension", name, dn)
		}
		ids[i] = id
	}

	f.hdr.Vars = append(f.hdr.Vars, header.Var{Name: name, DimIDs: ids, Type: t})
	return &Variable{file: f, idx: len(f.hdr.Vars) - 1}, nil
}

// SetAttr sets a global attribute, replacing any existing one of that name.
func (f *File) SetAttr(name string, t Type, value interface{}) error {
	a, err := NewAttribute(name, t, value)
	if err != nil {
		return err
	}
	return f.PutAttr(a)
}

// PutAttr sets a global attribute, replacing any existing one of that name.
func (f *File) PutAttr(a Attribute) error {
	if err := f.checkDefine(); err != nil {
		return err
	}
	if a.Type.Extended() && f.hdr.Version != header.Version64BitData {
		return fmt.Errorf("attribute %q: %w: type %v requires the 64-bit data format", a.Name, ErrFormatLimit, a.Type)
	}
	f.hdr.Attrs = putAttr(f.hdr.Attrs, a)
	return nil
}

func putAttr(attrs []header.Attr, a Attribute) []header.Attr {
	for i := range attrs {
		if attrs[i].Name == a.Name {
			attrs[i] = a.toHeader()
			return attrs
		}
	}
	return append(attrs, a.toHeader())
}

// EndDef leaves define mode: variable offsets are assigned, the header is
// written and the file is extended to hold all fixed-size data. Data is not
// prefilled.
func (f *File) EndDef() error {
	if err := f.checkDefine(); err != nil {
		return err
	}
	return f.endDef()
}

func (f *File) endDef() error {
	if _, err := f.hdr.ComputeLayout(f.headerPad); err != nil {
		return err
	}

	w := binpkg.NewWriter(f.file, f.hdr.Config())
	if _, err := f.hdr.Write(w); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	f.defining = false

	return f.resize()
}

// resize sets the file length to the end of the last record.
func (f *File) resize() error {
	if err := f.file.Truncate(int64(f.hdr.DataEnd())); err != nil {
		return fmt.Errorf("sizing file: %w", err)
	}
	return nil
}

// Flush writes the current record count and syncs the file to disk.
func (f *File) Flush() error {
	if f.closed {
		return ErrClosed
	}
	if !f.writable || f.defining {
		return nil
	}
	if err := f.hdr.WriteNumRecs(f.file); err != nil {
		return err
	}
	return f.file.Sync()
}

// Discard closes a file that is still in define mode without writing its
// header and removes it from disk.
func (f *File) Discard() error {
	if err := f.checkDefine(); err != nil {
		return err
	}
	f.closed = true
	return multierr.Combine(f.file.Close(), os.Remove(f.path))
}

// closeWritable handles closing a writable file.
func (f *File) closeWritable() error {
	if f.defining {
		if err := f.endDef(); err != nil {
			return err
		}
	}
	if err := f.hdr.WriteNumRecs(f.file); err != nil {
		return err
	}
	return multierr.Combine(f.resize(), f.file.Sync())
}
