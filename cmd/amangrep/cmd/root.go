// Package cmd provides the CLI commands for amangrep.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/amangrep/internal/config"
	amerrors "github.com/Aman-CERP/amangrep/internal/errors"
	"github.com/Aman-CERP/amangrep/internal/logging"
	"github.com/Aman-CERP/amangrep/internal/profiling"
	"github.com/Aman-CERP/amangrep/pkg/version"
)

// app is the state of one invocation, shared by the root command and its
// subcommands.
type app struct {
	debug   bool
	profile profiling.Options

	cfg    *config.Config
	cfgErr error
	logger *slog.Logger

	loggingCleanup func()
	profiler       *profiling.Session
}

// NewRootCmd creates the root command for the amangrep CLI.
func NewRootCmd() *cobra.Command {
	cmd, _ := newRootCmd()
	return cmd
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{logger: slog.Default()}
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "amangrep [flags] <query> <file>...",
		Short: "Print the lines of files that contain a string",
		Long: `amangrep prints every line of the given files that contains the query.

With one file, matching lines are printed as they are. With several files,
each file is searched concurrently and its results are printed under a
"[<path>]: " header, in the order the files were given. A file that cannot
be read is reported under its header and the other files are still searched.

Set IGNORE_CASE (to any value) or pass -i for a case-insensitive search.
Use "--" before a query that starts with "-" or is a subcommand name.`,
		Example: `  amangrep to poem.txt
  amangrep -i rust notes.txt todo.txt
  IGNORE_CASE=1 amangrep error *.log
  amangrep --watch --stats TODO main.go README.md
  amangrep -- version CHANGELOG.md`,
		Args:          cobra.ArbitraryArgs,
		Version:       version.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSearch(cmd, args, opts)
		},
	}

	cmd.SetVersionTemplate("amangrep version {{.Version}}\n")
	cmd.CompletionOptions.DisableDefaultCmd = true
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return amerrors.ConfigError(err.Error(), err)
	})

	// Search flags
	cmd.Flags().BoolVarP(&opts.ignoreCase, "ignore-case", "i", false, "Match case-insensitively")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 0, "Maximum files searched at once (0 = all)")
	cmd.Flags().StringVar(&opts.color, "color", "", "Color headers: auto, always, never")
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "Re-run the search whenever a file changes")
	cmd.Flags().BoolVar(&opts.stats, "stats", false, "Print a one-line summary to stderr")

	// Profiling flags
	cmd.PersistentFlags().StringVar(&a.profile.CPUPath, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&a.profile.HeapPath, "profile-mem", "", "Write memory profile to file")
	cmd.PersistentFlags().StringVar(&a.profile.TracePath, "profile-trace", "", "Write execution trace to file")

	// Debug logging flag
	cmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "Enable debug logging to ~/.amangrep/logs/")

	cmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		return a.start(cmd)
	}

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newConfigCmd(a))
	cmd.AddCommand(newLogsCmd())

	return cmd, a
}

// start loads configuration, then sets up logging and profiling.
// A configuration error is kept for the commands that need the config;
// logging falls back to defaults so it can still report it.
func (a *app) start(cmd *cobra.Command) error {
	a.cfg, a.cfgErr = loadConfig()

	logCfg := logging.DefaultConfig()
	logCfg.Stderr = cmd.ErrOrStderr()
	if a.cfgErr == nil {
		logCfg.Level = a.cfg.Logging.Level
	}
	if a.debug {
		logCfg = logging.DebugConfig()
		logCfg.Stderr = cmd.ErrOrStderr()
	}

	logger, cleanup, err := logging.Setup(logCfg)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	a.logger = logger
	a.loggingCleanup = cleanup
	slog.SetDefault(logger)

	if a.debug {
		logger.Info("debug logging enabled",
			slog.String("log_file", logCfg.FilePath),
			slog.String("version", version.Version))
	}
	if a.cfgErr != nil {
		logger.Debug("configuration not loaded", amerrors.FormatForLog(a.cfgErr)...)
	}

	if a.profile.Enabled() {
		session, err := profiling.Start(a.profile)
		if err != nil {
			return err
		}
		a.profiler = session
	}

	return nil
}

// shutdown stops profiling and closes the log file. Safe to call more than once.
func (a *app) shutdown() {
	if a.profiler != nil {
		if err := a.profiler.Stop(); err != nil {
			a.logger.Warn("failed to write profiles", slog.String("error", err.Error()))
		}
		a.profiler = nil
	}

	if a.loggingCleanup != nil {
		a.loggingCleanup()
		a.loggingCleanup = nil
	}
}

// loadConfig loads configuration for the project containing the working directory.
func loadConfig() (*config.Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, amerrors.ConfigError("failed to get current directory", err)
	}
	root, err := config.FindProjectRoot(cwd)
	if err != nil {
		root = cwd
	}
	return config.Load(root)
}

// Execute runs the root command until it finishes or the process is
// interrupted, and reports any error on stderr.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return execute(ctx, os.Args[1:])
}

func execute(ctx context.Context, args []string) error {
	cmd, a := newRootCmd()
	cmd.SetArgs(args)
	return executeCmd(ctx, cmd, a)
}

func executeCmd(ctx context.Context, cmd *cobra.Command, a *app) error {
	err := cmd.ExecuteContext(ctx)
	a.shutdown()
	if err != nil {
		_, _ = fmt.Fprint(cmd.ErrOrStderr(), amerrors.FormatForCLI(err))
	}
	return err
}
