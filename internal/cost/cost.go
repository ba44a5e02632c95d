// Package cost estimates the peak memory a merge holds for a blocking factor.
package cost

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"

	"github.com/robert-malhotra/go-nccombine/internal/layout"
	"github.com/robert-malhotra/go-nccombine/internal/schema"
	"github.com/robert-malhotra/go-nccombine/netcdf"
)

// MB is the unit of the estimate report.
const MB = 1 << 20

// Estimate is a breakdown of the bytes a merge holds at its peak.
type Estimate struct {
	// K is the blocking factor the estimate was made for.
	K uint64

	// Records is the tile data read for one block of k records. Static is
	// the tile data of the non-record variables, read once.
	Records uint64
	Static  uint64

	// Overhead is the encoded output header plus every tile header.
	Overhead uint64
}

// Total returns the estimated peak in bytes.
func (e Estimate) Total() uint64 {
	return e.Records + e.Static + e.Overhead
}

// MB returns the estimated peak in megabytes.
func (e Estimate) MB() float64 {
	return float64(e.Total()) / MB
}

// Write prints the estimate.
func (e Estimate) Write(w io.Writer) error {
	_, err := fmt.Fprintf(w, "Estimated peak memory for blocking factor %d: %.2f MB (%s)\n",
		e.K, e.MB(), humanize.IBytes(e.Total()))
	return err
}

// Of estimates the peak memory of merging p with blocking factor k for an
// output in the given format. The estimate is monotone in k.
func Of(p *schema.Plan, k uint64, format netcdf.Format) Estimate {
	e := Estimate{K: k}
	for i := range p.Vars {
		v := &p.Vars[i]
		esize := uint64(v.Type.Size())
		switch {
		case v.IsData():
			for _, t := range p.Tiles {
				_, count := p.Box(v, t.Bounds)
				count[0] = 1
				e.Records += layout.Elements(count) * esize * k
			}
		case !v.Record && !v.Coordinate:
			for _, t := range p.Tiles {
				_, count := p.Box(v, t.Bounds)
				e.Static += layout.Elements(count) * esize
			}
		}
	}

	e.Overhead = uint64(OutputHeaderSize(p, format))
	for _, t := range p.Tiles {
		e.Overhead += uint64(t.Bounds.HeaderSize)
	}
	return e
}

// OutputHeaderSize returns the encoded size of the merged file's header.
func OutputHeaderSize(p *schema.Plan, format netcdf.Format) int64 {
	dims, vars := p.Declarations()
	return netcdf.HeaderSize(format, dims, p.Attrs, vars)
}
