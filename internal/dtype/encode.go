package dtype

import (
	"fmt"
	"math"
	"reflect"
)

// Encode converts Go values to big-endian external bytes of type t.
// src may be a numeric scalar, a slice or array of numbers, or, for Char, a
// string or []byte. Numeric values are converted to t as Go conversions would.
func Encode(t Type, src interface{}) ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid type %v", t)
	}

	srcVal := reflect.ValueOf(src)
	if srcVal.Kind() == reflect.Ptr {
		srcVal = srcVal.Elem()
	}

	if t == Char {
		return encodeChar(srcVal)
	}

	switch srcVal.Kind() {
	case reflect.Slice, reflect.Array:
	default:
		sliceVal := reflect.MakeSlice(reflect.SliceOf(srcVal.Type()), 1, 1)
		sliceVal.Index(0).Set(srcVal)
		srcVal = sliceVal
	}

	size := t.Size()
	n := srcVal.Len()
	data := make([]byte, n*size)
	for i := 0; i < n; i++ {
		if err := putValue(t, data[i*size:], srcVal.Index(i)); err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
	}
	return data, nil
}

func encodeChar(srcVal reflect.Value) ([]byte, error) {
	switch {
	case srcVal.Kind() == reflect.String:
		return []byte(srcVal.String()), nil
	case srcVal.Kind() == reflect.Slice && srcVal.Type().Elem().Kind() == reflect.Uint8:
		out := make([]byte, srcVal.Len())
		copy(out, srcVal.Bytes())
		return out, nil
	default:
		return nil, fmt.Errorf("cannot encode %v as char", srcVal.Kind())
	}
}

func putValue(t Type, buf []byte, elem reflect.Value) error {
	switch elem.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		putInt(t, buf, elem.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		putUint(t, buf, elem.Uint())
	case reflect.Float32, reflect.Float64:
		putFloat(t, buf, elem.Float())
	default:
		return fmt.Errorf("cannot encode %v as %v", elem.Kind(), t)
	}
	return nil
}

func putInt(t Type, buf []byte, v int64) {
	switch t {
	case Float:
		Order.PutUint32(buf, math.Float32bits(float32(v)))
	case Double:
		Order.PutUint64(buf, math.Float64bits(float64(v)))
	default:
		putUint(t, buf, uint64(v))
	}
}

func putUint(t Type, buf []byte, v uint64) {
	switch t {
	case Byte, Char, UByte:
		buf[0] = byte(v)
	case Short, UShort:
		Order.PutUint16(buf, uint16(v))
	case Int, UInt:
		Order.PutUint32(buf, uint32(v))
	case Int64, UInt64:
		Order.PutUint64(buf, v)
	case Float:
		Order.PutUint32(buf, math.Float32bits(float32(v)))
	case Double:
		Order.PutUint64(buf, math.Float64bits(float64(v)))
	}
}

func putFloat(t Type, buf []byte, v float64) {
	switch t {
	case Float:
		Order.PutUint32(buf, math.Float32bits(float32(v)))
	case Double:
		Order.PutUint64(buf, math.Float64bits(v))
	case UByte, UShort, UInt, UInt64:
		putUint(t, buf, uint64(v))
	default:
		putUint(t, buf, uint64(int64(v)))
	}
}
