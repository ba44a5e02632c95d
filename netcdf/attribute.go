package netcdf

import (
	"fmt"

	"github.com/robert-malhotra/go-nccombine/internal/dtype"
	"github.com/robert-malhotra/go-nccombine/internal/header"
)

// Attribute is a named, typed array of values attached to the file or to a
// variable.
type Attribute struct {
	Name string
	Type Type
	data []byte
}

// NewAttribute encodes value as an attribute of type t. value may be a
// number, a slice of numbers or, for Char, a string.
func NewAttribute(name string, t Type, value interface{}) (Attribute, error) {
	data, err := dtype.Encode(t, value)
	if err != nil {
		return Attribute{}, fmt.Errorf("attribute %q: %w", name, err)
	}
	return Attribute{Name: name, Type: t, data: data}, nil
}

// RawAttribute builds an attribute from already encoded big-endian bytes.
func RawAttribute(name string, t Type, data []byte) Attribute {
	return Attribute{Name: name, Type: t, data: append([]byte(nil), data...)}
}

func attrFromHeader(a header.Attr) Attribute {
	return Attribute{Name: a.Name, Type: a.Type, data: a.Data}
}

func (a Attribute) toHeader() header.Attr {
	return header.Attr{Name: a.Name, Type: a.Type, Data: append([]byte{}, a.data...)}
}

// Len returns the number of elements.
func (a Attribute) Len() int {
	if size := a.Type.Size(); size > 0 {
		return len(a.data) / size
	}
	return 0
}

// Bytes returns a copy of the encoded value.
func (a Attribute) Bytes() []byte {
	return append([]byte(nil), a.data...)
}

// String returns the value of a Char attribute, or a formatted rendering of
// a numeric one.
func (a Attribute) String() string {
	if a.Type == Char {
		return string(a.data)
	}
	if a.Type.IsFloat() || a.Type.IsUnsigned() {
		vals, err := a.Float64s()
		if err != nil {
			return fmt.Sprintf("<%v>", err)
		}
		return fmt.Sprint(vals)
	}
	vals, err := a.Int64s()
	if err != nil {
		return fmt.Sprintf("<%v>", err)
	}
	return fmt.Sprint(vals)
}

// Float64s decodes a numeric attribute as float64 values.
func (a Attribute) Float64s() ([]float64, error) {
	return dtype.DecodeFloat64s(a.Type, a.data)
}

// Int64s decodes an integer attribute as int64 values.
func (a Attribute) Int64s() ([]int64, error) {
	return dtype.DecodeInt64s(a.Type, a.data)
}

// Value decodes the first element as int64, uint64, float64 or, for Char,
// the whole string.
func (a Attribute) Value() (interface{}, error) {
	return dtype.Value(a.Type, a.data)
}

// Convert re-encodes the first element as type t.
func (a Attribute) Convert(t Type) ([]byte, error) {
	return dtype.ConvertScalar(a.Type, a.data, t)
}
