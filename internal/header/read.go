package header

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	binpkg "github.com/robert-malhotra/go-nccombine/internal/binary"
	"github.com/robert-malhotra/go-nccombine/internal/dtype"
)

// maxListLen bounds list counts read from untrusted headers.
const maxListLen = 1 << 24

const maxVarDims = 1024

// Read parses the header at the start of r.
// If the stored record count is the streaming sentinel, Streaming is set and
// NumRecs is left zero.
func Read(r io.ReaderAt) (*Header, error) {
	sig := make([]byte, 4)
	if _, err := r.ReadAt(sig, 0); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrNotNetCDF
		}
		return nil, err
	}
	if !bytes.Equal(sig[:3], Magic) {
		return nil, ErrNotNetCDF
	}

	h := &Header{Version: sig[3]}
	switch h.Version {
	case VersionClassic, Version64BitOffset, Version64BitData:
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, h.Version)
	}

	br := binpkg.NewReader(r, h.Config()).At(NumRecsOffset)

	numrecs, err := br.ReadCount()
	if err != nil {
		return nil, fmt.Errorf("reading numrecs: %w", err)
	}
	if numrecs == streamingSentinel(br.CountSize()) {
		h.Streaming = true
	} else {
		h.NumRecs = numrecs
	}

	if h.Dims, err = readDims(br); err != nil {
		return nil, err
	}
	if h.Attrs, err = readAttrs(br); err != nil {
		return nil, fmt.Errorf("reading global attributes: %w", err)
	}
	if h.Vars, err = readVars(br, h); err != nil {
		return nil, err
	}
	return h, nil
}

func streamingSentinel(countSize int) uint64 {
	if countSize == 8 {
		return ^uint64(0)
	}
	return 0xFFFFFFFF
}

// readListHead reads a list tag and element count, accepting ABSENT.
func readListHead(br *binpkg.Reader, want uint32) (uint64, error) {
	tag, err := br.ReadUint32()
	if err != nil {
		return 0, err
	}
	n, err := br.ReadCount()
	if err != nil {
		return 0, err
	}
	if tag == tagAbsent {
		if n != 0 {
			return 0, fmt.Errorf("%w: absent list with %d elements", ErrInvalidHeader, n)
		}
		return 0, nil
	}
	if tag != want {
		return 0, fmt.Errorf("%w: list tag 0x%x, expected 0x%x", ErrInvalidHeader, tag, want)
	}
	if n > maxListLen {
		return 0, fmt.Errorf("%w: list length %d", ErrInvalidHeader, n)
	}
	return n, nil
}

func readDims(br *binpkg.Reader) ([]Dim, error) {
	n, err := readListHead(br, tagDimension)
	if err != nil {
		return nil, fmt.Errorf("reading dimension list: %w", err)
	}
	dims := make([]Dim, 0, n)
	records := 0
	for i := uint64(0); i < n; i++ {
		name, err := br.ReadName()
		if err != nil {
			return nil, fmt.Errorf("reading dimension %d: %w", i, err)
		}
		length, err := br.ReadCount()
		if err != nil {
			return nil, fmt.Errorf("reading dimension %q: %w", name, err)
		}
		if length == 0 {
			records++
			if records > 1 {
				return nil, fmt.Errorf("%w: more than one unlimited dimension", ErrInvalidHeader)
			}
		}
		dims = append(dims, Dim{Name: name, Len: length})
	}
	return dims, nil
}

func readAttrs(br *binpkg.Reader) ([]Attr, error) {
	n, err := readListHead(br, tagAttribute)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	attrs := make([]Attr, 0, n)
	for i := uint64(0); i < n; i++ {
		name, err := br.ReadName()
		if err != nil {
			return nil, err
		}
		t, err := br.ReadUint32()
		if err != nil {
			return nil, err
		}
		typ := dtype.Type(t)
		if !typ.Valid() {
			return nil, fmt.Errorf("%w: attribute %q has type %d", ErrInvalidHeader, name, t)
		}
		nelems, err := br.ReadCount()
		if err != nil {
			return nil, err
		}
		if nelems > maxListLen {
			return nil, fmt.Errorf("%w: attribute %q has %d elements", ErrInvalidHeader, name, nelems)
		}
		data, err := br.ReadPadded(int(nelems) * typ.Size())
		if err != nil {
			return nil, fmt.Errorf("reading attribute %q: %w", name, err)
		}
		if data == nil {
			data = []byte{}
		}
		attrs = append(attrs, Attr{Name: name, Type: typ, Data: data})
	}
	return attrs, nil
}

func readVars(br *binpkg.Reader, h *Header) ([]Var, error) {
	n, err := readListHead(br, tagVariable)
	if err != nil {
		return nil, fmt.Errorf("reading variable list: %w", err)
	}
	vars := make([]Var, 0, n)
	for i := uint64(0); i < n; i++ {
		v, err := readVar(br, h)
		if err != nil {
			return nil, fmt.Errorf("reading variable %d: %w", i, err)
		}
		vars = append(vars, v)
	}
	return vars, nil
}

func readVar(br *binpkg.Reader, h *Header) (Var, error) {
	var v Var
	var err error
	if v.Name, err = br.ReadName(); err != nil {
		return v, err
	}
	ndims, err := br.ReadCount()
	if err != nil {
		return v, err
	}
	if ndims > maxVarDims {
		return v, fmt.Errorf("%w: variable %q has %d dimensions", ErrInvalidHeader, v.Name, ndims)
	}
	v.DimIDs = make([]int, ndims)
	for j := range v.DimIDs {
		id, err := br.ReadCount()
		if err != nil {
			return v, err
		}
		if id >= uint64(len(h.Dims)) {
			return v, fmt.Errorf("%w: variable %q references dimension %d", ErrInvalidHeader, v.Name, id)
		}
		if j > 0 && h.Dims[id].Len == 0 {
			return v, fmt.Errorf("%w: variable %q uses the unlimited dimension in position %d", ErrInvalidHeader, v.Name, j)
		}
		v.DimIDs[j] = int(id)
	}
	if v.Attrs, err = readAttrs(br); err != nil {
		return v, fmt.Errorf("reading attributes of %q: %w", v.Name, err)
	}
	t, err := br.ReadUint32()
	if err != nil {
		return v, err
	}
	v.Type = dtype.Type(t)
	if !v.Type.Valid() {
		return v, fmt.Errorf("%w: variable %q has type %d", ErrInvalidHeader, v.Name, t)
	}
	if _, err := br.ReadCount(); err != nil { // stored vsize; recomputed from the shape
		return v, err
	}
	v.VSize = h.VarSize(&v)
	if v.Begin, err = br.ReadOffset(); err != nil {
		return v, err
	}
	return v, nil
}
