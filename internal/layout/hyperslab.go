package layout

import (
	"errors"
	"fmt"
)

// ErrOutOfBounds is returned when a hyperslab does not fit its array.
var ErrOutOfBounds = errors.New("hyperslab out of bounds")

// Strides returns the byte stride of each dimension of a row-major array.
func Strides(shape []uint64, esize uint64) []uint64 {
	strides := make([]uint64, len(shape))
	s := esize
	for d := len(shape) - 1; d >= 0; d-- {
		strides[d] = s
		s *= shape[d]
	}
	return strides
}

// Elements returns the product of the dimension lengths (1 for a scalar).
func Elements(shape []uint64) uint64 {
	n := uint64(1)
	for _, l := range shape {
		n *= l
	}
	return n
}

// Check verifies that the hyperslab (start, count) lies within shape.
func Check(shape, start, count []uint64) error {
	if len(start) != len(shape) || len(count) != len(shape) {
		return fmt.Errorf("%w: rank %d, start has %d and count has %d entries",
			ErrOutOfBounds, len(shape), len(start), len(count))
	}
	for d := range shape {
		if start[d] > shape[d] || count[d] > shape[d]-start[d] {
			return fmt.Errorf("%w: dimension %d selects [%d, %d) of %d",
				ErrOutOfBounds, d, start[d], start[d]+count[d], shape[d])
		}
	}
	return nil
}

// Runs calls fn for each contiguous run of the hyperslab (start, count)
// within an array of the given shape, in row-major order. arrayOff is the
// byte offset of the run in the array, slabOff its offset in the packed
// hyperslab and n its length in bytes. An empty selection produces no runs.
func Runs(shape, start, count []uint64, esize uint64, fn func(arrayOff, slabOff, n uint64) error) error {
	if err := Check(shape, start, count); err != nil {
		return err
	}
	ndims := len(shape)
	if ndims == 0 {
		return fn(0, 0, esize)
	}
	for _, c := range count {
		if c == 0 {
			return nil
		}
	}

	strides := Strides(shape, esize)

	// Merge trailing dimensions that are selected in full.
	inner := ndims - 1
	for inner > 0 && start[inner] == 0 && count[inner] == shape[inner] {
		inner--
	}
	runLen := count[inner] * strides[inner]

	idx := make([]uint64, inner)
	var slabOff uint64
	for {
		arrayOff := start[inner] * strides[inner]
		for d := 0; d < inner; d++ {
			arrayOff += (start[d] + idx[d]) * strides[d]
		}
		if err := fn(arrayOff, slabOff, runLen); err != nil {
			return err
		}
		slabOff += runLen

		d := inner - 1
		for ; d >= 0; d-- {
			idx[d]++
			if idx[d] < count[d] {
				break
			}
			idx[d] = 0
		}
		if d < 0 {
			return nil
		}
	}
}

// Extract copies the hyperslab (start, count) of src, an array of shape,
// into a newly allocated packed buffer.
func Extract(src []byte, shape, start, count []uint64, esize uint64) ([]byte, error) {
	if uint64(len(src)) < Elements(shape)*esize {
		return nil, fmt.Errorf("%w: source holds %d bytes, shape needs %d",
			ErrOutOfBounds, len(src), Elements(shape)*esize)
	}
	out := make([]byte, Elements(count)*esize)
	err := Runs(shape, start, count, esize, func(arrayOff, slabOff, n uint64) error {
		copy(out[slabOff:slabOff+n], src[arrayOff:arrayOff+n])
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Place copies the packed slab src of extent count into dst, an array of
// shape, at the given offset.
func Place(dst []byte, shape, offset []uint64, src []byte, count []uint64, esize uint64) error {
	if uint64(len(dst)) < Elements(shape)*esize {
		return fmt.Errorf("%w: destination holds %d bytes, shape needs %d",
			ErrOutOfBounds, len(dst), Elements(shape)*esize)
	}
	if uint64(len(src)) < Elements(count)*esize {
		return fmt.Errorf("%w: slab holds %d bytes, count needs %d",
			ErrOutOfBounds, len(src), Elements(count)*esize)
	}
	return Runs(shape, offset, count, esize, func(arrayOff, slabOff, n uint64) error {
		copy(dst[arrayOff:arrayOff+n], src[slabOff:slabOff+n])
		return nil
	})
}
