package netcdf

// FileOption configures file creation options.
type FileOption func(*fileOptions)

type fileOptions struct {
	format    Format
	headerPad uint64
}

func defaultFileOptions() *fileOptions {
	return &fileOptions{
		format: FormatClassic,
	}
}

// WithFormat selects the on-disk format of a new file.
func WithFormat(format Format) FileOption {
	return func(o *fileOptions) {
		if format.valid() {
			o.format = format
		}
	}
}

// WithHeaderPad reserves extra bytes between the header and the data so the
// header can later grow without moving data.
func WithHeaderPad(n uint64) FileOption {
	return func(o *fileOptions) {
		o.headerPad = n
	}
}
