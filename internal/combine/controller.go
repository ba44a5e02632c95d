package combine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/robert-malhotra/go-nccombine/internal/cost"
	"github.com/robert-malhotra/go-nccombine/internal/errs"
	"github.com/robert-malhotra/go-nccombine/internal/memstats"
	"github.com/robert-malhotra/go-nccombine/internal/merge"
	"github.com/robert-malhotra/go-nccombine/internal/schema"
	"github.com/robert-malhotra/go-nccombine/internal/sequence"
	"github.com/robert-malhotra/go-nccombine/internal/tile"
	"github.com/robert-malhotra/go-nccombine/netcdf"
)

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger. The default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(c *Controller) {
		if log != nil {
			c.log = log
		}
	}
}

// WithLister replaces the directory lister used for tile discovery.
func WithLister(l sequence.Lister) Option {
	return func(c *Controller) { c.lister = l }
}

// WithReport sets where the memory estimate and statistics are printed.
// The default is standard output.
func WithReport(w io.Writer) Option {
	return func(c *Controller) { c.report = w }
}

// Result describes a finished run.
type Result struct {
	RunID   string
	Tiles   []string
	Format  netcdf.Format
	Records uint64

	// Appended is set when records were added to an existing output.
	Appended bool

	// Incomplete is set when coverage gaps were tolerated.
	Incomplete bool

	// Estimate is set for estimate-only runs.
	Estimate *cost.Estimate

	Merge merge.Stats
}

// Controller runs one merge. It is not reusable.
type Controller struct {
	cfg    Config
	log    *zap.Logger
	lister sequence.Lister
	report io.Writer
	state  State
}

// New returns a controller for cfg.
func New(cfg Config, opts ...Option) *Controller {
	c := &Controller{
		cfg:    cfg,
		log:    zap.NewNop(),
		report: os.Stdout,
		state:  StateInit,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the controller's lifecycle state.
func (c *Controller) State() State {
	return c.state
}

func (c *Controller) transition(s State) {
	c.log.Debug("state change", zap.Stringer("from", c.state), zap.Stringer("to", s))
	c.state = s
}

// Run performs the merge. Tile handles and the output are closed on every
// path; on failure the output is left as far as it was written.
func (c *Controller) Run(ctx context.Context) (res *Result, err error) {
	if c.state != StateInit {
		return nil, fmt.Errorf("%w: controller already ran", errs.ErrInvalidConfiguration)
	}
	runID := uuid.NewString()
	c.log = c.log.With(zap.String("run", runID))
	defer func() {
		if err != nil {
			c.log.Debug("run failed", zap.Error(err))
			c.transition(StateFailed)
		}
	}()

	cfg := c.cfg
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	exists, err := outputExists(cfg.Output)
	if err != nil {
		return nil, err
	}
	appending := false
	switch {
	case cfg.EstimateOnly:
		// Nothing is written, so an existing output is left alone.
	case exists && !cfg.Append:
		return nil, fmt.Errorf("%s: %w", cfg.Output, errs.ErrOutputExists)
	case exists:
		appending = true
	case cfg.Append:
		c.log.Info("output does not exist, creating it", zap.String("output", cfg.Output))
	}

	paths, err := c.sequence()
	if err != nil {
		return nil, err
	}
	c.log.Info("tile set", zap.Int("tiles", len(paths)), zap.String("first", paths[0]))

	tiles := tile.Tiles(paths)
	defer func() {
		err = multierr.Append(err, closeTiles(tiles))
	}()

	plan, err := schema.Build(tiles, schema.Options{
		OutputPath: cfg.Output,
		Force:      cfg.Force,
		KeepOpen:   merge.DefaultKeepOpen,
		Logger:     c.log,
	})
	if err != nil {
		return nil, err
	}
	c.transition(StateSchemaResolved)

	res = &Result{
		RunID:      runID,
		Tiles:      paths,
		Format:     cfg.Format(),
		Records:    plan.NumRecs,
		Incomplete: plan.Incomplete,
	}

	if cfg.EstimateOnly {
		if err := c.estimate(plan, res); err != nil {
			return nil, err
		}
		c.transition(StateDryRunReported)
		c.transition(StateClosed)
		return res, nil
	}

	if err := c.merge(ctx, plan, appending, res); err != nil {
		return nil, err
	}
	c.transition(StateComplete)

	if cfg.RemoveInputs {
		if err := closeTiles(tiles); err != nil {
			return nil, err
		}
		for _, p := range paths {
			if err := os.Remove(p); err != nil {
				return nil, errs.IO("remove", p, err)
			}
			c.log.Debug("removed tile", zap.String("tile", p))
		}
	}
	if cfg.MemoryStats {
		if err := memstats.Collect().Write(c.report); err != nil {
			return nil, errs.IO("write", "memory report", err)
		}
	}

	c.transition(StateClosed)
	return res, nil
}

func (c *Controller) sequence() ([]string, error) {
	opts := sequence.Options{
		Force:  c.cfg.Force,
		Start:  c.cfg.Start,
		End:    c.cfg.End,
		Lister: c.lister,
		Logger: c.log,
	}
	if len(c.cfg.Inputs) > 0 {
		return sequence.Explicit(c.cfg.Inputs, opts)
	}
	return sequence.Discover(c.cfg.Output, opts)
}

func (c *Controller) estimate(plan *schema.Plan, res *Result) error {
	if c.cfg.BlockingFactor != 1 {
		c.log.Warn("memory estimate uses a blocking factor of 1",
			zap.Int("requested", c.cfg.BlockingFactor))
	}
	est := cost.Of(plan, 1, res.Format)
	res.Estimate = &est
	if err := est.Write(c.report); err != nil {
		return errs.IO("write", "estimate", err)
	}
	return nil
}

func (c *Controller) merge(ctx context.Context, plan *schema.Plan, appending bool, res *Result) (err error) {
	cfg := c.cfg
	out, err := c.openOutput(plan, appending)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, errs.IO("close", cfg.Output, out.Close()))
	}()
	res.Appended = appending
	res.Format = out.Format()

	k := merge.BlockingFactor(uint64(cfg.BlockingFactor), plan.NumRecs, nil)
	c.log.Debug("memory estimate", zap.Float64("mb", cost.Of(plan, k, res.Format).MB()))

	c.transition(StateMerging)
	eng := merge.New(merge.Config{
		K:            uint64(cfg.BlockingFactor),
		MissingValue: cfg.MissingValue,
		Append:       appending,
		Logger:       c.log,
	})
	st, err := eng.Run(ctx, plan, out)
	res.Merge = st
	if err != nil {
		return err
	}
	c.log.Info("merge complete",
		zap.String("output", cfg.Output),
		zap.Int("windows", st.Windows),
		zap.Uint64("records", st.Records),
		zap.Bool("incomplete", plan.Incomplete))
	return nil
}

func (c *Controller) openOutput(plan *schema.Plan, appending bool) (*netcdf.File, error) {
	path := c.cfg.Output
	if appending {
		out, err := netcdf.OpenReadWrite(path)
		if err != nil {
			return nil, errs.IO("open", path, err)
		}
		if err := plan.CheckOutput(out); err != nil {
			return nil, multierr.Append(err, out.Close())
		}
		c.log.Info("appending records", zap.String("output", path), zap.Uint64("existing", out.NumRecs()))
		return out, nil
	}

	stats, err := plan.Layout(c.cfg.Format(), uint64(c.cfg.HeaderPad))
	if err != nil {
		return nil, defineError(path, err)
	}
	c.log.Debug("output layout",
		zap.Uint64("variables", stats.TotalAllocations),
		zap.Uint64("bytes", stats.TotalBytesAlloc),
		zap.Uint64("padding", stats.PaddingBytes))

	out, err := netcdf.Create(path,
		netcdf.WithFormat(c.cfg.Format()),
		netcdf.WithHeaderPad(uint64(c.cfg.HeaderPad)))
	if err != nil {
		return nil, errs.IO("create", path, err)
	}
	if err := plan.Define(out); err != nil {
		if out.InDefineMode() {
			return nil, multierr.Append(defineError(path, err), out.Discard())
		}
		return nil, multierr.Append(defineError(path, err), out.Close())
	}
	return out, nil
}

// defineError classifies a failure to lay out the output schema.
func defineError(path string, err error) error {
	if errors.Is(err, netcdf.ErrFormatLimit) {
		return fmt.Errorf("%s: %w: %w", path, errs.ErrInvalidConfiguration, err)
	}
	return errs.IO("define", path, err)
}

func outputExists(path string) (bool, error) {
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, errs.IO("stat", path, err)
	}
}

func closeTiles(tiles []*tile.Tile) error {
	var err error
	for _, t := range tiles {
		err = multierr.Append(err, t.Close())
	}
	return err
}
