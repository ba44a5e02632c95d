// Command nccombine joins the tiles of a domain-decomposed netCDF dataset
// into a single file.
//
//	nccombine [flags] <output> [input ...]
//
// Without inputs the tiles are discovered as <output>.0000, <output>.0001, ...
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/robert-malhotra/go-nccombine/internal/buildinfo"
	"github.com/robert-malhotra/go-nccombine/internal/combine"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "nccombine: %v\n", err)
		os.Exit(1)
	}
}

var errUsage = errors.New("usage")

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	cfg := combine.DefaultConfig()
	var showVersion bool

	cmd := &cobra.Command{
		Use:   "nccombine [flags] <output> [input ...]",
		Short: "Join domain-decomposed netCDF tiles into one file",
		Long: `nccombine merges the tiles written by a domain-decomposed model run into a
single netCDF file. Each decomposed dimension is identified by the
domain_decomposition attribute of its coordinate variable. When no inputs are
named, the tiles <output>.0000, <output>.0001, ... next to the output are used.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), buildinfo.String())
				return err
			}
			if len(args) == 0 {
				return fmt.Errorf("%w: an output file is required", errUsage)
			}
			cfg.Output = args[0]
			cfg.Inputs = args[1:]

			log := newLogger(cmd.ErrOrStderr(), cfg.Verbosity)
			defer func() { _ = log.Sync() }()

			if err := cfg.Validate(); err != nil {
				return err
			}
			if cfg.Verbosity >= 3 {
				dump, err := cfg.YAML()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "configuration:\n%s", dump)
			}

			c := combine.New(cfg, combine.WithLogger(log), combine.WithReport(cmd.OutOrStdout()))
			_, err := c.Run(cmd.Context())
			return err
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	addFlags(cmd.Flags(), &cfg, &showVersion)
	return cmd
}

func addFlags(f *pflag.FlagSet, cfg *combine.Config, showVersion *bool) {
	f.SortFlags = false
	f.CountVarP(&cfg.Verbosity, "verbose", "v", "verbose output; repeat for more (-vvv dumps the configuration)")
	f.BoolVarP(showVersion, "version", "V", false, "print the version and exit")
	f.BoolVarP(&cfg.MemoryStats, "memory-stats", "M", false, "print memory statistics after the merge")
	f.BoolVarP(&cfg.Force, "force", "f", false, "merge even when tiles are missing")
	f.BoolVarP(&cfg.Append, "append", "a", false, "append records to an existing output")
	f.BoolVarP(&cfg.RemoveInputs, "remove-inputs", "r", false, "delete the tiles after a successful merge")
	f.IntVarP(&cfg.Start, "start", "n", cfg.Start, "first tile extension")
	f.IntVarP(&cfg.BlockingFactor, "blocking-factor", "k", cfg.BlockingFactor, "records merged per pass (0 = as many as possible)")
	f.IntVarP(&cfg.End, "end", "e", cfg.End, "last tile extension (default: from the tiles)")
	f.IntVarP(&cfg.HeaderPad, "header-pad", "h", cfg.HeaderPad, "bytes reserved after the output header")
	f.BoolVar(&cfg.Use64BitOffset, "use-64bit-offset", false, "write the 64-bit offset format")
	f.BoolVar(&cfg.UseClassicV4, "use-classic-v4", false, "write the 64-bit data format")
	f.BoolVarP(&cfg.MissingValue, "missing-value", "m", false, "initialise output storage with each variable's fill value")
	f.BoolVarP(&cfg.EstimateOnly, "estimate-only", "x", false, "print a memory estimate and exit")
	f.Bool("help", false, "help for nccombine")
}

// newLogger returns a console logger on w: warnings by default, info at
// verbosity 1 and debug from 2.
func newLogger(w io.Writer, verbosity int) *zap.Logger {
	level := zapcore.WarnLevel
	switch {
	case verbosity >= 2:
		level = zapcore.DebugLevel
	case verbosity == 1:
		level = zapcore.InfoLevel
	}
	enc := zap.NewDevelopmentEncoderConfig()
	enc.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(w), level)
	return zap.New(core)
}
