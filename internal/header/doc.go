// Package header handles netCDF classic-family file headers.
//
// The header is the entry point for any netCDF file. It holds the format
// version, the record count and the complete schema: dimensions, global
// attributes and variables with their attributes, types and file offsets.
//
// # Format Versions
//
//   - Version 1 (classic): 32-bit offsets and counts.
//   - Version 2 (64-bit offset): 64-bit variable offsets, 32-bit counts.
//   - Version 5 (64-bit data): 64-bit offsets and counts, extended types.
//
// # Layout
//
//	header  = magic numrecs dim_list gatt_list var_list
//	magic   = 'C' 'D' 'F' version
//	list    = ABSENT | tag nelems [item ...]
//	var     = name ndims [dimid ...] vatt_list nc_type vsize begin
//
// Names and attribute values are padded to 4 bytes. All integers are
// big-endian.
//
// # Usage
//
//	h, err := header.Read(file)
//	if errors.Is(err, header.ErrNotNetCDF) { ... }
//
//	h := &header.Header{Version: header.VersionClassic, ...}
//	if err := h.ComputeLayout(padding); err != nil { ... }
//	_, err = h.Write(binary.NewWriter(file, h.Config()))
package header
