// Package alloc provides file-space allocation for netCDF variable data.
//
// A netCDF classic file places the header first, then every fixed-size
// variable back to back, then the record section where one record of every
// record variable is interleaved per record. The header stores each
// variable's starting offset ("begin"), so those offsets must be decided
// before the header is written. This package makes those decisions.
//
// # Allocator
//
// The [Allocator] hands out append-only, optionally aligned extents starting
// at a base address (the end of the header plus any reserved padding) and
// records every allocation for validation:
//
//	a := alloc.New(headerEnd)
//	begin := a.AllocAligned(vsize, 4, "temp")
//	if err := a.Validate(); err != nil { ... }
package alloc
