package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type run struct{ arrayOff, slabOff, n uint64 }

func collect(t *testing.T, shape, start, count []uint64, esize uint64) []run {
	t.Helper()
	var runs []run
	err := Runs(shape, start, count, esize, func(a, s, n uint64) error {
		runs = append(runs, run{a, s, n})
		return nil
	})
	require.NoError(t, err)
	return runs
}

func seq(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i)
	}
	return b
}

func TestStrides(t *testing.T) {
	assert.Equal(t, []uint64{96, 24, 4}, Strides([]uint64{2, 4, 6}, 4))
	assert.Empty(t, Strides(nil, 8))
}

func TestRunsInterior(t *testing.T) {
	runs := collect(t, []uint64{4, 6}, []uint64{1, 2}, []uint64{2, 3}, 1)
	assert.Equal(t, []run{{8, 0, 3}, {14, 3, 3}}, runs)
}

func TestRunsMergesFullTrailingDims(t *testing.T) {
	runs := collect(t, []uint64{5, 2, 3}, []uint64{1, 0, 0}, []uint64{2, 2, 3}, 2)
	assert.Equal(t, []run{{12, 0, 24}}, runs)

	runs = collect(t, []uint64{3, 2, 3}, []uint64{0, 1, 0}, []uint64{3, 1, 3}, 1)
	assert.Equal(t, []run{{3, 0, 3}, {9, 3, 3}, {15, 6, 3}}, runs)
}

func TestRunsScalarAndEmpty(t *testing.T) {
	assert.Equal(t, []run{{0, 0, 8}}, collect(t, nil, nil, nil, 8))
	assert.Empty(t, collect(t, []uint64{4, 4}, []uint64{1, 1}, []uint64{0, 2}, 4))
}

func TestRunsOutOfBounds(t *testing.T) {
	err := Runs([]uint64{4}, []uint64{3}, []uint64{2}, 1, func(_, _, _ uint64) error { return nil })
	assert.ErrorIs(t, err, ErrOutOfBounds)

	err = Runs([]uint64{4, 4}, []uint64{0}, []uint64{1, 1}, 1, func(_, _, _ uint64) error { return nil })
	assert.ErrorIs(t, err, ErrOutOfBounds)
}

func TestExtractPlaceRoundTrip(t *testing.T) {
	shape := []uint64{3, 4, 5}
	src := seq(3 * 4 * 5 * 2)
	start := []uint64{1, 1, 2}
	count := []uint64{2, 2, 3}

	slab, err := Extract(src, shape, start, count, 2)
	require.NoError(t, err)
	require.Len(t, slab, 2*2*3*2)
	// first element is (1,1,2): ((1*4+1)*5+2)*2 = 54
	assert.Equal(t, []byte{54, 55}, slab[:2])

	dst := make([]byte, len(src))
	require.NoError(t, Place(dst, shape, start, slab, count, 2))

	back, err := Extract(dst, shape, start, count, 2)
	require.NoError(t, err)
	assert.Equal(t, slab, back)
}

func TestPlaceTiles(t *testing.T) {
	// two 2x2 tiles side by side make a 2x4 array
	left := []byte{1, 2, 5, 6}
	right := []byte{3, 4, 7, 8}
	dst := make([]byte, 8)
	require.NoError(t, Place(dst, []uint64{2, 4}, []uint64{0, 0}, left, []uint64{2, 2}, 1))
	require.NoError(t, Place(dst, []uint64{2, 4}, []uint64{0, 2}, right, []uint64{2, 2}, 1))
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, dst)
}

func TestPlaceShortBuffers(t *testing.T) {
	err := Place(make([]byte, 3), []uint64{4}, []uint64{0}, []byte{1}, []uint64{1}, 1)
	assert.ErrorIs(t, err, ErrOutOfBounds)

	err = Place(make([]byte, 4), []uint64{4}, []uint64{0}, []byte{1}, []uint64{2}, 1)
	assert.ErrorIs(t, err, ErrOutOfBounds)
}
