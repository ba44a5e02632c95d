package netcdf

import (
	"fmt"

	"github.com/robert-malhotra/go-nccombine/internal/dtype"
	"github.com/robert-malhotra/go-nccombine/internal/header"
)

// Type is a netCDF external data type.
type Type = dtype.Type

// External types.
const (
	Byte   = dtype.Byte
	Char   = dtype.Char
	Short  = dtype.Short
	Int    = dtype.Int
	Float  = dtype.Float
	Double = dtype.Double
	UByte  = dtype.UByte
	UShort = dtype.UShort
	UInt   = dtype.UInt
	Int64  = dtype.Int64
	UInt64 = dtype.UInt64
)

// Format identifies the on-disk file format.
type Format int

const (
	// FormatClassic uses 32-bit offsets (CDF-1).
	FormatClassic Format = iota + 1
	// Format64BitOffset uses 64-bit variable offsets (CDF-2).
	Format64BitOffset
	// Format64BitData uses 64-bit offsets and counts and allows the extended
	// unsigned and 64-bit integer types (CDF-5).
	Format64BitData
)

func (f Format) valid() bool {
	return f >= FormatClassic && f <= Format64BitData
}

func (f Format) String() string {
	switch f {
	case FormatClassic:
		return "classic"
	case Format64BitOffset:
		return "64-bit offset"
	case Format64BitData:
		return "64-bit data"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

func (f Format) version() uint8 {
	switch f {
	case Format64BitOffset:
		return header.Version64BitOffset
	case Format64BitData:
		return header.Version64BitData
	default:
		return header.VersionClassic
	}
}

func formatFromVersion(v uint8) Format {
	switch v {
	case header.Version64BitOffset:
		return Format64BitOffset
	case header.Version64BitData:
		return Format64BitData
	default:
		return FormatClassic
	}
}

// Dim describes a dimension. For the unlimited dimension Len is the current
// number of records.
type Dim struct {
	Name      string
	Len       uint64
	Unlimited bool
}

// DefaultFill returns the encoded default fill value for t.
func DefaultFill(t Type) []byte {
	return dtype.DefaultFill(t)
}
