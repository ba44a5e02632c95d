// Package layout maps hyperslabs of row-major arrays to byte ranges.
//
// Both netCDF variable storage and in-memory window buffers are dense
// row-major arrays. A hyperslab (start, count) selects a box within such an
// array. Rather than copying element by element, the selection is walked as
// a sequence of contiguous runs: trailing dimensions that are selected in
// full are merged into the innermost run, and the remaining leading
// dimensions are iterated like an odometer.
//
//	shape = [4, 6]   start = [1, 2]   count = [2, 3]
//
//	row 1: bytes [8, 11)*esize  -> slab [0, 3)*esize
//	row 2: bytes [14, 17)*esize -> slab [3, 6)*esize
//
// [Runs] is the primitive; [Extract] and [Place] copy between a packed slab
// and a larger array.
package layout
