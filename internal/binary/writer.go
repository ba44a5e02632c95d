package binary

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Writer writes netCDF header and data items with variable-width offset and
// count fields.
type Writer struct {
	w          io.WriterAt
	order      binary.ByteOrder
	offsetSize int
	countSize  int
	pos        int64
}

// NewWriter creates a binary writer with the given configuration.
func NewWriter(w io.WriterAt, cfg Config) *Writer {
	return &Writer{
		w:          w,
		order:      cfg.ByteOrder,
		offsetSize: cfg.OffsetSize,
		countSize:  cfg.CountSize,
	}
}

// At returns a new writer positioned at the given offset.
// The new writer shares the underlying io.WriterAt but has independent position.
func (w *Writer) At(offset int64) *Writer {
	return &Writer{
		w:          w.w,
		order:      w.order,
		offsetSize: w.offsetSize,
		countSize:  w.countSize,
		pos:        offset,
	}
}

// Pos returns the current write position.
func (w *Writer) Pos() int64 {
	return w.pos
}

// WriteBytes writes the given bytes at the current position.
func (w *Writer) WriteBytes(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	n, err := w.w.WriteAt(data, w.pos)
	w.pos += int64(n)
	return err
}

// WritePadded writes data followed by zero padding to the next 4-byte boundary.
func (w *Writer) WritePadded(data []byte) error {
	if err := w.WriteBytes(data); err != nil {
		return err
	}
	return w.WriteZeros(Pad(len(data)))
}

// WriteUint32 writes an unsigned 32-bit integer.
func (w *Writer) WriteUint32(v uint32) error {
	buf := make([]byte, 4)
	w.order.PutUint32(buf, v)
	return w.WriteBytes(buf)
}

// WriteUint64 writes an unsigned 64-bit integer.
func (w *Writer) WriteUint64(v uint64) error {
	buf := make([]byte, 8)
	w.order.PutUint64(buf, v)
	return w.WriteBytes(buf)
}

// WriteUintN writes an unsigned integer of n bytes (4 or 8). A value that does
// not fit in n bytes is an error rather than a silent truncation.
func (w *Writer) WriteUintN(v uint64, n int) error {
	switch n {
	case 4:
		if v > 0xFFFFFFFF {
			return fmt.Errorf("value %d does not fit in 4 bytes", v)
		}
		return w.WriteUint32(uint32(v))
	case 8:
		return w.WriteUint64(v)
	default:
		return ErrInvalidSize
	}
}

// WriteOffset writes a file offset using the configured offset size.
func (w *Writer) WriteOffset(v uint64) error {
	return w.WriteUintN(v, w.offsetSize)
}

// WriteCount writes a non-negative count using the configured count size.
func (w *Writer) WriteCount(v uint64) error {
	return w.WriteUintN(v, w.countSize)
}

// WriteName writes a count-prefixed, padded name string.
func (w *Writer) WriteName(name string) error {
	if err := w.WriteCount(uint64(len(name))); err != nil {
		return err
	}
	return w.WritePadded([]byte(name))
}

// WriteZeros writes n zero bytes.
func (w *Writer) WriteZeros(n int) error {
	if n <= 0 {
		return nil
	}
	return w.WriteBytes(make([]byte, n))
}

// CountSize returns the configured count size in bytes.
func (w *Writer) CountSize() int {
	return w.countSize
}

// BufferWriterAt is a growable in-memory io.WriterAt.
type BufferWriterAt struct {
	buf []byte
}

// WriteAt implements io.WriterAt.
func (b *BufferWriterAt) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, io.ErrUnexpectedEOF
	}
	if end := int(off) + len(p); end > len(b.buf) {
		grown := make([]byte, end)
		copy(grown, b.buf)
		b.buf = grown
	}
	copy(b.buf[off:], p)
	return len(p), nil
}

// Bytes returns the buffered contents.
func (b *BufferWriterAt) Bytes() []byte {
	return b.buf
}
