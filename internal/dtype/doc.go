// Package dtype provides netCDF external type handling and Go type conversion.
//
// This package bridges netCDF's external types and Go's type system,
// providing functionality to:
//
//   - Describe each external type (size, name, format requirements)
//   - Encode Go values to big-endian external bytes
//   - Decode external bytes to Go values
//   - Convert a scalar between external types (fill values)
//   - Produce the default fill pattern for a type
//
// # Type Mapping
//
//	netCDF type | Size | Go type  | Format
//	------------|------|----------|---------------
//	NC_BYTE     | 1    | int8     | all
//	NC_CHAR     | 1    | string   | all
//	NC_SHORT    | 2    | int16    | all
//	NC_INT      | 4    | int32    | all
//	NC_FLOAT    | 4    | float32  | all
//	NC_DOUBLE   | 8    | float64  | all
//	NC_UBYTE    | 1    | uint8    | 64-bit data only
//	NC_USHORT   | 2    | uint16   | 64-bit data only
//	NC_UINT     | 4    | uint32   | 64-bit data only
//	NC_INT64    | 8    | int64    | 64-bit data only
//	NC_UINT64   | 8    | uint64   | 64-bit data only
//
// All external data is big-endian.
//
// # Key Functions
//
//   - [Encode]: Converts Go values to external bytes
//   - [DecodeFloat64s], [DecodeInt64s]: Convert external bytes to Go values
//   - [ConvertScalar]: Re-encodes one value in another external type
//   - [DefaultFill]: Returns the netCDF default fill value bytes
//   - [Fill]: Replicates a fill pattern over a buffer
package dtype
