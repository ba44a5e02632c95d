// Package netcdf provides a pure Go implementation for reading and writing
// netCDF classic, 64-bit offset and 64-bit data files.
package netcdf

import (
	"errors"

	"github.com/robert-malhotra/go-nccombine/internal/header"
	"github.com/robert-malhotra/go-nccombine/internal/layout"
)

// Common errors
var (
	ErrNotNetCDF     = header.ErrNotNetCDF
	ErrInvalidHeader = header.ErrInvalidHeader
	ErrFormatLimit   = header.ErrFormatLimit
	ErrOutOfBounds   = layout.ErrOutOfBounds
	ErrNotFound      = errors.New("object not found")
	ErrExists        = errors.New("name already defined")
	ErrClosed        = errors.New("file is closed")
	ErrReadOnly      = errors.New("file is read-only")
	ErrDefineMode    = errors.New("operation not allowed in define mode")
	ErrDataMode      = errors.New("operation only allowed in define mode")
	ErrShortData     = errors.New("data length does not match selection")
)
