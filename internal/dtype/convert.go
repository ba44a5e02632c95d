package dtype

import (
	"fmt"
	"math"
)

// Default fill values, as defined by the netCDF classic data model.
const (
	FillByte   = int8(-127)
	FillChar   = byte(0)
	FillShort  = int16(-32767)
	FillInt    = int32(-2147483647)
	FillFloat  = float32(9.9692099683868690e+36)
	FillDouble = float64(9.9692099683868690e+36)
	FillUByte  = uint8(255)
	FillUShort = uint16(65535)
	FillUInt   = uint32(4294967295)
	FillInt64  = int64(-9223372036854775806)
	FillUInt64 = uint64(18446744073709551614)
)

// DefaultFill returns the encoded default fill value for t.
func DefaultFill(t Type) []byte {
	var v interface{}
	switch t {
	case Byte:
		v = FillByte
	case Char:
		return []byte{FillChar}
	case Short:
		v = FillShort
	case Int:
		v = FillInt
	case Float:
		v = FillFloat
	case Double:
		v = FillDouble
	case UByte:
		v = FillUByte
	case UShort:
		v = FillUShort
	case UInt:
		v = FillUInt
	case Int64:
		v = FillInt64
	case UInt64:
		v = FillUInt64
	default:
		return nil
	}
	b, _ := Encode(t, v)
	return b
}

// Fill replicates pattern over dst. len(dst) must be a multiple of len(pattern).
func Fill(dst, pattern []byte) {
	if len(pattern) == 0 || len(dst) == 0 {
		return
	}
	n := copy(dst, pattern)
	for n < len(dst) {
		n += copy(dst[n:], dst[:n])
	}
}

// Value decodes the first element of data as int64, uint64, float64 or, for
// Char, string.
func Value(t Type, data []byte) (interface{}, error) {
	if t == Char {
		return string(data), nil
	}
	size := t.Size()
	if size == 0 {
		return nil, fmt.Errorf("invalid type %v", t)
	}
	if len(data) < size {
		return nil, fmt.Errorf("%v value needs %d bytes, have %d", t, size, len(data))
	}

	switch t {
	case Byte:
		return int64(int8(data[0])), nil
	case Short:
		return int64(int16(Order.Uint16(data))), nil
	case Int:
		return int64(int32(Order.Uint32(data))), nil
	case Int64:
		return int64(Order.Uint64(data)), nil
	case UByte:
		return uint64(data[0]), nil
	case UShort:
		return uint64(Order.Uint16(data)), nil
	case UInt:
		return uint64(Order.Uint32(data)), nil
	case UInt64:
		return Order.Uint64(data), nil
	case Float:
		return float64(math.Float32frombits(Order.Uint32(data))), nil
	case Double:
		return math.Float64frombits(Order.Uint64(data)), nil
	}
	return nil, fmt.Errorf("invalid type %v", t)
}

// DecodeFloat64s decodes every element of data as float64.
func DecodeFloat64s(t Type, data []byte) ([]float64, error) {
	if t == Char {
		return nil, fmt.Errorf("cannot decode char as numbers")
	}
	size := t.Size()
	if size == 0 || len(data)%size != 0 {
		return nil, fmt.Errorf("%d bytes is not a whole number of %v elements", len(data), t)
	}
	out := make([]float64, len(data)/size)
	for i := range out {
		v, err := Value(t, data[i*size:])
		if err != nil {
			return nil, err
		}
		switch n := v.(type) {
		case int64:
			out[i] = float64(n)
		case uint64:
			out[i] = float64(n)
		case float64:
			out[i] = n
		}
	}
	return out, nil
}

// DecodeInt64s decodes every element of data as int64. Floating-point types
// are rejected rather than truncated.
func DecodeInt64s(t Type, data []byte) ([]int64, error) {
	if t == Char || t.IsFloat() {
		return nil, fmt.Errorf("cannot decode %v as integers", t)
	}
	size := t.Size()
	if size == 0 || len(data)%size != 0 {
		return nil, fmt.Errorf("%d bytes is not a whole number of %v elements", len(data), t)
	}
	out := make([]int64, len(data)/size)
	for i := range out {
		v, err := Value(t, data[i*size:])
		if err != nil {
			return nil, err
		}
		switch n := v.(type) {
		case int64:
			out[i] = n
		case uint64:
			if n > math.MaxInt64 {
				return nil, fmt.Errorf("element %d: %d overflows int64", i, n)
			}
			out[i] = int64(n)
		}
	}
	return out, nil
}

// ConvertScalar re-encodes the first element of data from type from to type to.
func ConvertScalar(from Type, data []byte, to Type) ([]byte, error) {
	if from == to {
		size := to.Size()
		if len(data) < size {
			return nil, fmt.Errorf("%v value needs %d bytes, have %d", from, size, len(data))
		}
		out := make([]byte, size)
		copy(out, data)
		return out, nil
	}
	if from == Char || to == Char {
		return nil, fmt.Errorf("cannot convert %v to %v", from, to)
	}
	v, err := Value(from, data)
	if err != nil {
		return nil, err
	}
	return Encode(to, v)
}
