// Package dispatch runs search jobs for a set of targets and emits their
// results.
//
// With a single target the job runs on the caller's goroutine and a read
// failure is fatal. With several targets one goroutine runs per target (or up
// to a configured limit); the dispatcher waits for all of them and then
// writes every result in submission order. Jobs never write output; the
// dispatcher is the only writer, so blocks cannot interleave.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	amerrors "github.com/Aman-CERP/amangrep/internal/errors"
	"github.com/Aman-CERP/amangrep/internal/job"
	"github.com/Aman-CERP/amangrep/internal/output"
	"github.com/Aman-CERP/amangrep/internal/search"
)

// Mode is the execution strategy chosen for a run.
type Mode int

const (
	// ModeSingleFile searches one target synchronously.
	ModeSingleFile Mode = iota
	// ModeFanOut searches every target concurrently.
	ModeFanOut
)

// String returns the mode name used in logs.
func (m Mode) String() string {
	switch m {
	case ModeSingleFile:
		return "single"
	case ModeFanOut:
		return "fanout"
	default:
		return "unknown"
	}
}

// Summary describes a finished run.
type Summary struct {
	Mode     Mode
	Targets  int
	Failed   int
	Matches  int
	Duration time.Duration
}

// Dispatcher owns the output stream and the pool of jobs for a run.
type Dispatcher struct {
	out     *output.Writer
	runner  *job.Runner
	workers int
	logger  *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithWorkers caps the number of concurrent jobs in fan-out mode.
// Zero or less runs one goroutine per target.
func WithWorkers(n int) Option {
	return func(d *Dispatcher) {
		d.workers = n
	}
}

// WithRunner replaces the job runner, e.g. to inject a reader.
func WithRunner(r *job.Runner) Option {
	return func(d *Dispatcher) {
		if r != nil {
			d.runner = r
		}
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// New creates a Dispatcher writing results to out.
func New(out *output.Writer, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		out:    out,
		runner: job.NewRunner(nil),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run searches targets with cfg and writes the results.
func (d *Dispatcher) Run(ctx context.Context, targets []job.Target, cfg *search.SearchConfig) error {
	_, err := d.RunWithSummary(ctx, targets, cfg)
	return err
}

// RunWithSummary is Run, also returning what happened.
//
// It returns an error for zero targets, for a read failure in single-file
// mode, and when writing output fails. Per-target failures in fan-out mode
// are written inline and do not produce an error.
func (d *Dispatcher) RunWithSummary(ctx context.Context, targets []job.Target, cfg *search.SearchConfig) (Summary, error) {
	if len(targets) == 0 {
		return Summary{}, amerrors.NoTargets()
	}

	start := time.Now()
	d.logger.Debug("search_started",
		slog.String("query", cfg.Query()),
		slog.Bool("case_sensitive", cfg.CaseSensitive()),
		slog.Int("targets", len(targets)))

	var (
		summary Summary
		err     error
	)
	if len(targets) == 1 {
		summary, err = d.runSingle(ctx, targets[0], cfg)
	} else {
		summary, err = d.runFanOut(ctx, targets, cfg)
	}
	summary.Duration = time.Since(start)

	d.logger.Debug("search_complete",
		slog.String("mode", summary.Mode.String()),
		slog.Int("targets", summary.Targets),
		slog.Int("failed", summary.Failed),
		slog.Int("matches", summary.Matches),
		slog.Duration("duration", summary.Duration))

	return summary, err
}

func (d *Dispatcher) runSingle(ctx context.Context, target job.Target, cfg *search.SearchConfig) (Summary, error) {
	summary := Summary{Mode: ModeSingleFile, Targets: 1}

	result := d.execute(ctx, target, cfg)
	if result.Failed() {
		summary.Failed = 1
		return summary, fatal(target.Path, result.Err)
	}

	summary.Matches = len(result.Lines)
	if err := d.out.Lines(result.Lines); err != nil {
		return summary, writeError(err)
	}
	return summary, nil
}

func (d *Dispatcher) runFanOut(ctx context.Context, targets []job.Target, cfg *search.SearchConfig) (Summary, error) {
	summary := Summary{Mode: ModeFanOut, Targets: len(targets)}

	// Each job owns exactly one slot; nothing else is shared.
	results := make([]job.Result, len(targets))

	var g errgroup.Group
	if d.workers > 0 {
		g.SetLimit(d.workers)
	}
	for i, target := range targets {
		g.Go(func() error {
			results[i] = d.execute(ctx, target, cfg)
			return nil
		})
	}
	_ = g.Wait()

	for _, result := range results {
		if result.Failed() {
			summary.Failed++
		} else {
			summary.Matches += len(result.Lines)
		}
		if err := d.out.Block(result.Path, result.Lines, result.Err); err != nil {
			return summary, writeError(err)
		}
	}
	return summary, nil
}

// execute runs one job, converting cancellation and panics into failure
// causes so that every target yields exactly one result.
func (d *Dispatcher) execute(ctx context.Context, target job.Target, cfg *search.SearchConfig) (result job.Result) {
	defer func() {
		if r := recover(); r != nil {
			result = job.Result{
				Path: target.Path,
				Err: amerrors.InternalError(fmt.Sprintf("search panicked: %v", r), nil).
					WithDetail("path", target.Path),
			}
		}
		if result.Failed() {
			d.logger.Info("job_failed", amerrors.FormatForLog(result.Err)...)
		} else {
			d.logger.Debug("job_complete",
				slog.String("path", target.Path),
				slog.Int("matches", len(result.Lines)))
		}
	}()

	if err := ctx.Err(); err != nil {
		return job.Result{
			Path: target.Path,
			Err:  amerrors.New(amerrors.ErrCodeCancelled, err.Error(), err).WithDetail("path", target.Path),
		}
	}

	return d.runner.Execute(target, cfg)
}

// fatal promotes a per-target failure to a run-level error. The message is
// rewritten to the inline failure line so that it names path.
func fatal(path string, err error) error {
	var ae *amerrors.AmanError
	if !errors.As(err, &ae) {
		ae = amerrors.Wrap(amerrors.ErrCodeFileRead, err)
	}
	ae.Message = amerrors.FailureLine(path, ae)
	return ae.AsFatal()
}

func writeError(err error) error {
	return amerrors.InternalError(fmt.Sprintf("write output: %v", err), err).AsFatal()
}
