package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/amangrep/internal/config"
	"github.com/Aman-CERP/amangrep/internal/logging"
	"github.com/Aman-CERP/amangrep/pkg/version"
)

// versionInfo is `version --json`: build info plus the files this binary
// reads and writes.
type versionInfo struct {
	version.BuildInfo
	UserConfig    string `json:"user_config"`
	ProjectConfig string `json:"project_config,omitempty"`
	DebugLog      string `json:"debug_log"`
}

func currentVersionInfo() versionInfo {
	info := versionInfo{
		BuildInfo:  version.GetInfo(),
		UserConfig: config.GetUserConfigPath(),
		DebugLog:   logging.DefaultLogPath(),
	}
	if cwd, err := os.Getwd(); err == nil {
		if root, err := config.FindProjectRoot(cwd); err == nil {
			info.ProjectConfig = config.ProjectConfigPath(root)
		}
	}
	return info
}

func newVersionCmd() *cobra.Command {
	var jsonOutput, shortOutput bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long: `Print the version, build details and CPU count, followed by the
configuration files and debug log this binary uses.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if shortOutput {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), version.Short())
				return err
			}

			info := currentVersionInfo()
			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			}

			project := info.ProjectConfig
			if project == "" {
				project = "(none)"
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(),
				"%s\n  user config:    %s\n  project config: %s\n  debug log:      %s\n",
				version.String(), info.UserConfig, project, info.DebugLog)
			return err
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&shortOutput, "short", false, "Output only the version number")

	return cmd
}
