// Package binary provides low-level binary I/O for netCDF classic-family files.
package binary

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrInvalidSize is returned when an invalid offset or count size is specified.
var ErrInvalidSize = errors.New("invalid offset/count size: must be 4 or 8")

// Alignment is the XDR unit every header item is padded to.
const Alignment = 4

// Reader reads netCDF header and data items with variable-width offset and
// count fields.
type Reader struct {
	r          io.ReaderAt
	order      binary.ByteOrder
	offsetSize int
	countSize  int
	pos        int64
}

// Config holds reader/writer configuration, derived from the format version.
type Config struct {
	ByteOrder  binary.ByteOrder
	OffsetSize int // 4 (CDF-1) or 8 (CDF-2, CDF-5)
	CountSize  int // 4 (CDF-1, CDF-2) or 8 (CDF-5)
}

// Validate checks the offset and count widths.
func (c Config) Validate() error {
	if (c.OffsetSize != 4 && c.OffsetSize != 8) || (c.CountSize != 4 && c.CountSize != 8) {
		return fmt.Errorf("%w: offset=%d count=%d", ErrInvalidSize, c.OffsetSize, c.CountSize)
	}
	return nil
}

// DefaultConfig returns the classic format configuration: big-endian,
// 4-byte offsets and counts.
func DefaultConfig() Config {
	return Config{
		ByteOrder:  binary.BigEndian,
		OffsetSize: 4,
		CountSize:  4,
	}
}

// NewReader creates a binary reader with the given configuration.
func NewReader(r io.ReaderAt, cfg Config) *Reader {
	return &Reader{
		r:          r,
		order:      cfg.ByteOrder,
		offsetSize: cfg.OffsetSize,
		countSize:  cfg.CountSize,
	}
}

// At returns a new reader positioned at the given offset.
// The new reader shares the underlying io.ReaderAt but has independent position.
func (r *Reader) At(offset int64) *Reader {
	return &Reader{
		r:          r.r,
		order:      r.order,
		offsetSize: r.offsetSize,
		countSize:  r.countSize,
		pos:        offset,
	}
}

// Pos returns the current read position.
func (r *Reader) Pos() int64 {
	return r.pos
}

// ReadBytes reads exactly n bytes from the current position.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n <= 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	if _, err := r.r.ReadAt(buf, r.pos); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	r.pos += int64(n)
	return buf, nil
}

// ReadPadded reads n bytes and skips the zero padding up to the next
// 4-byte boundary.
func (r *Reader) ReadPadded(n int) ([]byte, error) {
	buf, err := r.ReadBytes(n)
	if err != nil {
		return nil, err
	}
	r.Skip(int64(Pad(n)))
	return buf, nil
}

// ReadUint32 reads an unsigned 32-bit integer.
func (r *Reader) ReadUint32() (uint32, error) {
	buf, err := r.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return r.order.Uint32(buf), nil
}

// ReadUint64 reads an unsigned 64-bit integer.
func (r *Reader) ReadUint64() (uint64, error) {
	buf, err := r.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	return r.order.Uint64(buf), nil
}

// ReadUintN reads an unsigned integer of n bytes (4 or 8).
func (r *Reader) ReadUintN(n int) (uint64, error) {
	switch n {
	case 4:
		v, err := r.ReadUint32()
		return uint64(v), err
	case 8:
		return r.ReadUint64()
	default:
		return 0, ErrInvalidSize
	}
}

// ReadOffset reads a file offset using the configured offset size.
func (r *Reader) ReadOffset() (uint64, error) {
	return r.ReadUintN(r.offsetSize)
}

// ReadCount reads a non-negative count (nelems, lengths, dimids) using the
// configured count size.
func (r *Reader) ReadCount() (uint64, error) {
	return r.ReadUintN(r.countSize)
}

// ReadName reads a count-prefixed, padded name string.
func (r *Reader) ReadName() (string, error) {
	n, err := r.ReadCount()
	if err != nil {
		return "", err
	}
	if n > 1<<20 {
		return "", fmt.Errorf("name length %d too large", n)
	}
	buf, err := r.ReadPadded(int(n))
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

// Skip advances the position by n bytes.
func (r *Reader) Skip(n int64) {
	r.pos += n
}

// CountSize returns the configured count size in bytes.
func (r *Reader) CountSize() int {
	return r.countSize
}

// Pad returns the number of zero bytes needed to round n up to a multiple of 4.
func Pad(n int) int {
	if rem := n % Alignment; rem != 0 {
		return Alignment - rem
	}
	return 0
}

// RoundUp rounds n up to a multiple of 4.
func RoundUp(n uint64) uint64 {
	return (n + Alignment - 1) &^ (Alignment - 1)
}
