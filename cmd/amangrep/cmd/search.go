package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/amangrep/internal/config"
	"github.com/Aman-CERP/amangrep/internal/dispatch"
	amerrors "github.com/Aman-CERP/amangrep/internal/errors"
	"github.com/Aman-CERP/amangrep/internal/job"
	"github.com/Aman-CERP/amangrep/internal/output"
	"github.com/Aman-CERP/amangrep/internal/search"
	"github.com/Aman-CERP/amangrep/internal/watcher"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	ignoreCase bool
	workers    int
	color      string
	watch      bool
	stats      bool
}

// applyFlags overrides cfg with the flags that were set explicitly.
func (o searchOptions) applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("ignore-case") {
		cfg.Search.IgnoreCase = o.ignoreCase
	}
	if flags.Changed("workers") {
		cfg.Search.Workers = o.workers
	}
	if flags.Changed("color") {
		cfg.Output.Color = o.color
	}
}

func (a *app) runSearch(cmd *cobra.Command, args []string, opts searchOptions) error {
	if len(args) < 1 {
		return amerrors.NoQuery()
	}
	if len(args) < 2 {
		return amerrors.NoTargets()
	}
	query, paths := args[0], args[1:]

	if a.cfgErr != nil {
		return a.cfgErr
	}
	cfg := *a.cfg
	opts.applyFlags(cmd, &cfg)
	if err := cfg.Validate(); err != nil {
		return amerrors.ConfigError(err.Error(), err)
	}

	mode, err := output.ParseColorMode(cfg.Output.Color)
	if err != nil {
		return amerrors.ConfigError(err.Error(), err)
	}

	d := dispatch.New(
		output.NewWithColor(cmd.OutOrStdout(), mode),
		dispatch.WithWorkers(cfg.Search.Workers),
		dispatch.WithLogger(a.logger),
	)
	searchCfg := search.NewSearchConfig(query, !cfg.Search.IgnoreCase)
	targets := job.Targets(paths)
	ctx := cmd.Context()

	summary, err := d.RunWithSummary(ctx, targets, searchCfg)
	if opts.stats {
		printStats(cmd.ErrOrStderr(), summary)
	}
	if err != nil {
		return err
	}

	if opts.watch {
		debounce, _ := cfg.DebounceDuration()
		return a.watch(ctx, cmd, d, targets, searchCfg, debounce, opts.stats)
	}
	return nil
}

// watch re-runs the search each time a target changes, until ctx is done.
// Errors from a re-run are reported and watching continues, except for
// failures to write output.
func (a *app) watch(ctx context.Context, cmd *cobra.Command, d *dispatch.Dispatcher,
	targets []job.Target, cfg *search.SearchConfig, debounce time.Duration, stats bool) error {
	paths := make([]string, len(targets))
	for i, t := range targets {
		paths[i] = t.Path
	}

	opts := watcher.DefaultOptions()
	opts.DebounceWindow = debounce
	w, err := watcher.New(paths, opts)
	if err != nil {
		return amerrors.InternalError(fmt.Sprintf("failed to watch files: %v", err), err)
	}
	w.SetLogger(a.logger)
	defer func() {
		_ = w.Stop()
		if n := w.DroppedBatches(); n > 0 {
			a.logger.Warn("watch_dropped_changes",
				slog.Uint64("batches", n),
				slog.String("watcher", w.WatcherType()))
		}
	}()

	go func() {
		if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Warn("watcher stopped", slog.String("error", err.Error()))
		}
	}()

	status := output.New(cmd.ErrOrStderr())
	status.Statusf("👀", "Watching %d file(s) for changes (Ctrl+C to stop)", len(paths))

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-w.Errors():
			if !ok {
				return nil
			}
			a.logger.Warn("watcher error", slog.String("error", err.Error()))
		case batch, ok := <-w.Events():
			if !ok {
				return nil
			}
			changed := make([]string, len(batch))
			for i, ev := range batch {
				changed[i] = ev.Path
			}
			a.logger.Info("watch_rerun",
				slog.Any("changed", changed),
				slog.String("watcher", w.WatcherType()))

			summary, err := d.RunWithSummary(ctx, targets, cfg)
			if stats {
				printStats(cmd.ErrOrStderr(), summary)
			}
			if err != nil {
				if amerrors.GetCode(err) == amerrors.ErrCodeInternal {
					return err
				}
				_, _ = fmt.Fprint(cmd.ErrOrStderr(), amerrors.FormatForCLI(err))
			}
		}
	}
}

// printStats writes the one-line --stats summary.
func printStats(w io.Writer, s dispatch.Summary) {
	_, _ = fmt.Fprintf(w, "%s: %d %s searched, %d failed, %d matching %s in %s\n",
		s.Mode, s.Targets, plural(s.Targets, "file", "files"),
		s.Failed, s.Matches, plural(s.Matches, "line", "lines"), s.Duration.Round(time.Microsecond))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
