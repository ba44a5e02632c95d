package alloc

import "fmt"

// Allocator assigns file extents in append-only order.
type Allocator struct {
	// eofAddr is the next allocation point.
	eofAddr uint64

	// baseAddr is the minimum address that can be allocated.
	baseAddr uint64

	allocations []Allocation
	stats       Stats
}

// Allocation represents a single allocation made.
type Allocation struct {
	Addr uint64
	Size uint64
	Tag  string
}

// Stats contains allocation statistics.
type Stats struct {
	TotalAllocations uint64
	TotalBytesAlloc  uint64
	LargestAlloc     uint64
	PaddingBytes     uint64 // bytes skipped for alignment
}

// New creates a new Allocator starting at the given base address.
func New(baseAddr uint64) *Allocator {
	return &Allocator{
		eofAddr:  baseAddr,
		baseAddr: baseAddr,
	}
}

// Alloc allocates size bytes at the current end and returns the address.
// A zero-size allocation returns the current end without advancing it.
func (a *Allocator) Alloc(size uint64, tag string) uint64 {
	addr := a.eofAddr
	if size == 0 {
		return addr
	}
	a.eofAddr += size

	a.allocations = append(a.allocations, Allocation{Addr: addr, Size: size, Tag: tag})
	a.stats.TotalAllocations++
	a.stats.TotalBytesAlloc += size
	if size > a.stats.LargestAlloc {
		a.stats.LargestAlloc = size
	}
	return addr
}

// AllocAligned allocates size bytes at the next multiple of alignment.
func (a *Allocator) AllocAligned(size, alignment uint64, tag string) uint64 {
	a.Align(alignment)
	return a.Alloc(size, tag)
}

// Align advances the end to the next multiple of alignment.
func (a *Allocator) Align(alignment uint64) {
	if alignment <= 1 {
		return
	}
	if rem := a.eofAddr % alignment; rem != 0 {
		pad := alignment - rem
		a.eofAddr += pad
		a.stats.PaddingBytes += pad
	}
}

// Stats returns a copy of the allocation statistics.
func (a *Allocator) Stats() Stats {
	return a.stats
}

// Validate checks that allocations don't overlap and are within bounds.
// Allocations are append-only, so checking neighbours is sufficient.
func (a *Allocator) Validate() error {
	for i, cur := range a.allocations {
		if cur.Addr < a.baseAddr {
			return fmt.Errorf("allocation %q at 0x%x is before base address 0x%x", cur.Tag, cur.Addr, a.baseAddr)
		}
		if cur.Addr+cur.Size > a.eofAddr {
			return fmt.Errorf("allocation %q at 0x%x size %d extends past end 0x%x", cur.Tag, cur.Addr, cur.Size, a.eofAddr)
		}
		if i == 0 {
			continue
		}
		prev := a.allocations[i-1]
		if prev.Addr+prev.Size > cur.Addr {
			return fmt.Errorf("overlapping allocations: %q [0x%x, size %d] and %q [0x%x, size %d]",
				prev.Tag, prev.Addr, prev.Size, cur.Tag, cur.Addr, cur.Size)
		}
	}
	return nil
}
