package dtype

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeSizes(t *testing.T) {
	tests := []struct {
		typ  Type
		size int
		name string
	}{
		{Byte, 1, "byte"},
		{Char, 1, "char"},
		{Short, 2, "short"},
		{Int, 4, "int"},
		{Float, 4, "float"},
		{Double, 8, "double"},
		{UByte, 1, "ubyte"},
		{UShort, 2, "ushort"},
		{UInt, 4, "uint"},
		{Int64, 8, "int64"},
		{UInt64, 8, "uint64"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.size, tt.typ.Size())
			assert.Equal(t, tt.name, tt.typ.String())
			assert.True(t, tt.typ.Valid())
		})
	}
	assert.False(t, Type(0).Valid())
	assert.Equal(t, 0, Type(42).Size())
	assert.True(t, Int64.Extended())
	assert.False(t, Double.Extended())
}

func TestGoTypeToType(t *testing.T) {
	got, err := GoTypeToType(reflect.TypeOf([]float32{}))
	require.NoError(t, err)
	assert.Equal(t, Float, got)

	got, err = GoTypeToType(reflect.TypeOf("units"))
	require.NoError(t, err)
	assert.Equal(t, Char, got)

	_, err = GoTypeToType(reflect.TypeOf(struct{}{}))
	assert.Error(t, err)
}

func TestEncodeBigEndian(t *testing.T) {
	b, err := Encode(Short, []int16{1, -2})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x01, 0xFF, 0xFE}, b)

	b, err = Encode(Int, int32(258))
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 1, 2}, b)

	b, err = Encode(Char, "ab")
	require.NoError(t, err)
	assert.Equal(t, []byte("ab"), b)
}

func TestEncodeDecodeFloat(t *testing.T) {
	b, err := Encode(Double, []float64{1.5, -2.25})
	require.NoError(t, err)

	got, err := DecodeFloat64s(Double, b)
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, -2.25}, got)

	// Integers are converted on the way in.
	b, err = Encode(Float, []int{3})
	require.NoError(t, err)
	got, err = DecodeFloat64s(Float, b)
	require.NoError(t, err)
	assert.Equal(t, []float64{3}, got)
}

func TestDecodeInt64s(t *testing.T) {
	b, err := Encode(Int, []int32{1, 5, -10, 20})
	require.NoError(t, err)

	got, err := DecodeInt64s(Int, b)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 5, -10, 20}, got)

	_, err = DecodeInt64s(Double, make([]byte, 8))
	assert.Error(t, err)

	_, err = DecodeInt64s(Int, make([]byte, 3))
	assert.Error(t, err)
}

func TestConvertScalar(t *testing.T) {
	src, err := Encode(Float, float32(-999))
	require.NoError(t, err)

	out, err := ConvertScalar(Float, src, Double)
	require.NoError(t, err)
	v, err := Value(Double, out)
	require.NoError(t, err)
	assert.Equal(t, float64(-999), v)

	out, err = ConvertScalar(Float, src, Short)
	require.NoError(t, err)
	v, err = Value(Short, out)
	require.NoError(t, err)
	assert.Equal(t, int64(-999), v)

	_, err = ConvertScalar(Char, []byte("x"), Int)
	assert.Error(t, err)
}

func TestDefaultFillAndFill(t *testing.T) {
	f := DefaultFill(Int)
	v, err := Value(Int, f)
	require.NoError(t, err)
	assert.Equal(t, int64(FillInt), v)

	buf := make([]byte, 4*5)
	Fill(buf, f)
	vals, err := DecodeInt64s(Int, buf)
	require.NoError(t, err)
	for _, got := range vals {
		assert.Equal(t, int64(FillInt), got)
	}

	assert.Equal(t, []byte{0}, DefaultFill(Char))
	assert.Nil(t, DefaultFill(Type(99)))
}
