// Package memstats reports process memory statistics after a merge.
package memstats

import (
	"fmt"
	"io"
	"runtime"

	"github.com/dustin/go-humanize"
)

// Report is a snapshot of process memory usage.
type Report struct {
	PageSize  int
	PeakRSS   uint64 // bytes, 0 when the platform does not report it
	HeapAlloc uint64
	HeapSys   uint64
	NumGC     uint32
}

// Collect takes a snapshot of the current process.
func Collect() Report {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return Report{
		PageSize:  pageSize(),
		PeakRSS:   peakRSS(),
		HeapAlloc: ms.HeapAlloc,
		HeapSys:   ms.HeapSys,
		NumGC:     ms.NumGC,
	}
}

// Write prints the report in a human-readable form.
func (r Report) Write(w io.Writer) error {
	rss := "unavailable"
	if r.PeakRSS > 0 {
		rss = fmt.Sprintf("%s (%d pages)", humanize.IBytes(r.PeakRSS), r.PeakRSS/uint64(r.PageSize))
	}
	_, err := fmt.Fprintf(w,
		"memory statistics:\n  page size:  %d bytes\n  peak rss:   %s\n  heap alloc: %s\n  heap sys:   %s\n  gc cycles:  %d\n",
		r.PageSize, rss, humanize.IBytes(r.HeapAlloc), humanize.IBytes(r.HeapSys), r.NumGC)
	return err
}
