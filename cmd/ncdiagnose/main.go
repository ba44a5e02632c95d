// Diagnostic tool for inspecting netCDF classic-family files and tiles
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/robert-malhotra/go-nccombine/internal/tile"
	"github.com/robert-malhotra/go-nccombine/netcdf"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: ncdiagnose <file.nc> [file.nc ...]")
		os.Exit(1)
	}

	failed := false
	for _, filename := range os.Args[1:] {
		if err := diagnose(os.Stdout, filename); err != nil {
			fmt.Printf("ERROR: %v\n", err)
			failed = true
		}
		fmt.Println()
	}
	if failed {
		os.Exit(1)
	}
}

func diagnose(w io.Writer, filename string) error {
	fmt.Fprintf(w, "=== Analyzing %s ===\n\n", filename)

	f, err := netcdf.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	fmt.Fprintf(w, "Format:      %s\n", f.Format())
	fmt.Fprintf(w, "Header size: %d bytes\n", f.HeaderSize())
	fmt.Fprintf(w, "Data start:  %d\n", f.DataStart())
	fmt.Fprintf(w, "Records:     %d (record size %d bytes)\n", f.NumRecs(), f.RecordSize())
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Dimensions: %d\n", len(f.Dims()))
	for _, d := range f.Dims() {
		if d.Unlimited {
			fmt.Fprintf(w, "  %s = UNLIMITED (%d currently)\n", d.Name, d.Len)
			continue
		}
		fmt.Fprintf(w, "  %s = %d\n", d.Name, d.Len)
	}

	fmt.Fprintf(w, "Global attributes: %d\n", len(f.Attrs()))
	writeAttrs(w, "  ", f.Attrs())

	fmt.Fprintf(w, "Variables: %d\n", len(f.Vars()))
	for _, v := range f.Vars() {
		kind := "fixed"
		if v.IsRecord() {
			kind = "record"
		}
		fmt.Fprintf(w, "  %s %s(%s) shape %v [%s]\n", v.Type(), v.Name(), strings.Join(v.Dims(), ", "), v.Shape(), kind)
		writeAttrs(w, "    ", v.Attrs())
	}

	// Decomposition summary, if this is a tile
	b, err := tile.Resolve(f)
	if err != nil {
		fmt.Fprintf(w, "Decomposition: INVALID: %v\n", err)
		return nil
	}
	var parts []string
	for _, fr := range b.Fragments {
		if fr.Decomposed {
			parts = append(parts, fmt.Sprintf("%s [%d, %d] of %d", fr.Name, fr.Start, fr.End, fr.GlobalLen))
		}
	}
	if len(parts) > 0 {
		fmt.Fprintf(w, "Decomposition: %s\n", strings.Join(parts, "; "))
	}
	return nil
}

func writeAttrs(w io.Writer, indent string, attrs []netcdf.Attribute) {
	for _, a := range attrs {
		fmt.Fprintf(w, "%s:%s = %s (%s, %d)\n", indent, a.Name, a.String(), a.Type, a.Len())
	}
}
