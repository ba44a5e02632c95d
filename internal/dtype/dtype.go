package dtype

import (
	"encoding/binary"
	"fmt"
	"reflect"
)

// Type is a netCDF external type code as stored in the file header.
type Type uint32

const (
	Byte   Type = 1
	Char   Type = 2
	Short  Type = 3
	Int    Type = 4
	Float  Type = 5
	Double Type = 6
	UByte  Type = 7
	UShort Type = 8
	UInt   Type = 9
	Int64  Type = 10
	UInt64 Type = 11
)

// Order is the byte order of all netCDF external data.
var Order binary.ByteOrder = binary.BigEndian

// Valid reports whether t is a known external type.
func (t Type) Valid() bool {
	return t >= Byte && t <= UInt64
}

// Extended reports whether t is only representable in the 64-bit data format.
func (t Type) Extended() bool {
	return t >= UByte && t <= UInt64
}

// Size returns the size of one element in bytes, or 0 for unknown types.
func (t Type) Size() int {
	switch t {
	case Byte, Char, UByte:
		return 1
	case Short, UShort:
		return 2
	case Int, Float, UInt:
		return 4
	case Double, Int64, UInt64:
		return 8
	default:
		return 0
	}
}

// IsFloat reports whether t is a floating-point type.
func (t Type) IsFloat() bool {
	return t == Float || t == Double
}

// IsUnsigned reports whether t is an unsigned integer type.
func (t Type) IsUnsigned() bool {
	return t == UByte || t == UShort || t == UInt || t == UInt64
}

func (t Type) String() string {
	switch t {
	case Byte:
		return "byte"
	case Char:
		return "char"
	case Short:
		return "short"
	case Int:
		return "int"
	case Float:
		return "float"
	case Double:
		return "double"
	case UByte:
		return "ubyte"
	case UShort:
		return "ushort"
	case UInt:
		return "uint"
	case Int64:
		return "int64"
	case UInt64:
		return "uint64"
	default:
		return fmt.Sprintf("type(%d)", uint32(t))
	}
}

// GoTypeToType returns the external type for a Go element type.
// Slices and arrays map to their element type.
func GoTypeToType(t reflect.Type) (Type, error) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() == reflect.String {
		return Char, nil
	}
	if t.Kind() == reflect.Slice || t.Kind() == reflect.Array {
		t = t.Elem()
	}

	switch t.Kind() {
	case reflect.Int8:
		return Byte, nil
	case reflect.Int16:
		return Short, nil
	case reflect.Int32, reflect.Int:
		return Int, nil
	case reflect.Int64:
		return Int64, nil
	case reflect.Uint8:
		return UByte, nil
	case reflect.Uint16:
		return UShort, nil
	case reflect.Uint32:
		return UInt, nil
	case reflect.Uint64, reflect.Uint:
		return UInt64, nil
	case reflect.Float32:
		return Float, nil
	case reflect.Float64:
		return Double, nil
	default:
		return 0, fmt.Errorf("unsupported Go type: %v", t)
	}
}

// DataSize returns the total size in bytes needed to store n elements of t.
func DataSize(t Type, n uint64) uint64 {
	return uint64(t.Size()) * n
}
