package cmd

import (
	"fmt"
	"regexp"

	"github.com/spf13/cobra"

	amerrors "github.com/Aman-CERP/amangrep/internal/errors"
	"github.com/Aman-CERP/amangrep/internal/logging"
	"github.com/Aman-CERP/amangrep/internal/output"
)

func newLogsCmd() *cobra.Command {
	var (
		lines   int
		level   string
		pattern string
		file    string
		noColor bool
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the debug log",
		Long: `Show recent entries from the debug log written by --debug
(~/.amangrep/logs/amangrep.log).`,
		Example: `  amangrep logs
  amangrep logs -n 200 --level info
  amangrep logs --grep job_failed`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := logging.FindLogFile(file)
			if err != nil {
				return amerrors.New(amerrors.ErrCodeFileNotFound, err.Error(), err).
					WithSuggestion("Run a search with --debug first")
			}

			cfg := logging.ViewerConfig{
				Level:   level,
				NoColor: noColor || output.DetectNoColor() || !output.IsTTY(cmd.OutOrStdout()),
			}
			if pattern != "" {
				re, err := regexp.Compile(pattern)
				if err != nil {
					return amerrors.ConfigError(fmt.Sprintf("invalid --grep pattern: %v", err), err)
				}
				cfg.Pattern = re
			}

			viewer := logging.NewViewer(cfg, cmd.OutOrStdout())
			entries, err := viewer.Tail(path, lines)
			if err != nil {
				return amerrors.ReadError(path, err)
			}
			viewer.Print(entries)
			return nil
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of log lines to read from the end")
	cmd.Flags().StringVar(&level, "level", "", "Minimum level: debug, info, warn, error")
	cmd.Flags().StringVar(&pattern, "grep", "", "Only show lines matching this regular expression")
	cmd.Flags().StringVar(&file, "file", "", "Log file to read instead of the default")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored levels")

	return cmd
}
