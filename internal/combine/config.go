// Package combine drives a merge from configuration to a closed output
// file: it sequences the tiles, resolves the schema, then either reports a
// memory estimate or merges the records.
package combine

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/robert-malhotra/go-nccombine/internal/errs"
	"github.com/robert-malhotra/go-nccombine/netcdf"
)

// DefaultHeaderPad is the number of bytes reserved after a new output's
// header.
const DefaultHeaderPad = 16384

// Config is the immutable description of one run.
type Config struct {
	// Output is the merged file. Inputs, when empty, are discovered as
	// Output.0000, Output.0001, ...
	Output string   `yaml:"output"`
	Inputs []string `yaml:"inputs,omitempty"`

	Verbosity    int  `yaml:"verbosity"`
	MemoryStats  bool `yaml:"memory_stats"`
	Force        bool `yaml:"force"`
	Append       bool `yaml:"append"`
	RemoveInputs bool `yaml:"remove_inputs"`

	// Start and End bound the discovered extensions. End < 0 derives the
	// end from the tiles.
	Start int `yaml:"start"`
	End   int `yaml:"end"`

	// BlockingFactor is the number of records merged per pass; 0 asks for
	// the largest feasible.
	BlockingFactor int `yaml:"blocking_factor"`
	HeaderPad      int `yaml:"header_pad"`

	Use64BitOffset bool `yaml:"use_64bit_offset"`
	UseClassicV4   bool `yaml:"use_classic_v4"`

	MissingValue bool `yaml:"missing_value"`
	EstimateOnly bool `yaml:"estimate_only"`
}

// DefaultConfig returns the configuration used when no flags are given.
func DefaultConfig() Config {
	return Config{
		End:            -1,
		BlockingFactor: 1,
		HeaderPad:      DefaultHeaderPad,
	}
}

// Validate reports conflicting or out-of-range settings.
func (c Config) Validate() error {
	switch {
	case c.Output == "":
		return fmt.Errorf("%w: no output file", errs.ErrInvalidConfiguration)
	case c.Use64BitOffset && c.UseClassicV4:
		return fmt.Errorf("%w: 64-bit offset and classic v4 formats are exclusive", errs.ErrInvalidConfiguration)
	case c.Start < 0:
		return fmt.Errorf("%w: negative start extension %d", errs.ErrInvalidConfiguration, c.Start)
	case c.End >= 0 && c.End < c.Start:
		return fmt.Errorf("%w: end extension %d before start %d", errs.ErrInvalidConfiguration, c.End, c.Start)
	case c.BlockingFactor < 0:
		return fmt.Errorf("%w: negative blocking factor %d", errs.ErrInvalidConfiguration, c.BlockingFactor)
	case c.HeaderPad < 0:
		return fmt.Errorf("%w: negative header padding %d", errs.ErrInvalidConfiguration, c.HeaderPad)
	}
	for _, in := range c.Inputs {
		if in == c.Output {
			return fmt.Errorf("%w: %s is both input and output", errs.ErrInvalidConfiguration, in)
		}
	}
	return nil
}

// Format returns the on-disk format of a new output.
func (c Config) Format() netcdf.Format {
	switch {
	case c.Use64BitOffset:
		return netcdf.Format64BitOffset
	case c.UseClassicV4:
		return netcdf.Format64BitData
	default:
		return netcdf.FormatClassic
	}
}

// YAML renders the configuration for debugging.
func (c Config) YAML() (string, error) {
	b, err := yaml.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
