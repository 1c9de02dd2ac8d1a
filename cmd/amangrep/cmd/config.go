package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/amangrep/configs"
	"github.com/Aman-CERP/amangrep/internal/config"
	amerrors "github.com/Aman-CERP/amangrep/internal/errors"
	"github.com/Aman-CERP/amangrep/internal/output"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long: `Manage amangrep configuration files.

Configuration precedence (lowest to highest):
  1. Hardcoded defaults
  2. User config (~/.config/amangrep/config.yaml)
  3. Project config (.amangrep.yaml)
  4. Environment variables (IGNORE_CASE, AMANGREP_*)
  5. Command-line flags`,
		Example: `  # Create .amangrep.yaml in the current directory
  amangrep config init

  # Create the user config instead
  amangrep config init --user

  # Show effective configuration
  amangrep config show`,
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd(a))
	cmd.AddCommand(newConfigPathCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force, user bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a configuration file from the template",
		Long: `Create .amangrep.yaml in the current directory, or the user
configuration file with --user. An existing file is left alone unless
--force is given, in which case it is backed up first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigInit(cmd, user, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file (a backup is kept)")
	cmd.Flags().BoolVar(&user, "user", false, "Write the user config instead of the project config")

	return cmd
}

func newConfigShowCmd(a *app) *cobra.Command {
	var (
		jsonOutput bool
		source     string
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runConfigShow(cmd, jsonOutput, source)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().StringVar(&source, "source", "merged", "Config source: merged, user, project, defaults")

	return cmd
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print user config file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), config.GetUserConfigPath())
			return err
		},
	}
}

func runConfigInit(cmd *cobra.Command, user, force bool) error {
	out := output.New(cmd.OutOrStdout())

	path := config.ProjectConfigNames[0]
	template := configs.ProjectConfigTemplate
	if user {
		path = config.GetUserConfigPath()
		template = configs.UserConfigTemplate
	}

	if _, err := os.Stat(path); err == nil {
		if !force {
			out.Warning("Configuration already exists")
			out.Statusf("📁", "Location: %s", path)
			out.Status("💡", "Use --force to replace it (a backup is kept)")
			return nil
		}

		backupPath, err := config.BackupFile(path)
		if err != nil {
			return amerrors.InternalError(fmt.Sprintf("failed to backup config: %v", err), err)
		}
		out.Statusf("💾", "Backup: %s", backupPath)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return amerrors.InternalError(fmt.Sprintf("failed to create config directory: %v", err), err)
	}
	if err := os.WriteFile(path, []byte(template), 0o644); err != nil {
		return amerrors.InternalError(fmt.Sprintf("failed to write config file: %v", err), err)
	}

	out.Success("Created configuration")
	out.Statusf("📁", "Location: %s", path)
	out.Status("💡", "Run 'amangrep config show' to see the effective settings")

	return nil
}

func (a *app) runConfigShow(cmd *cobra.Command, jsonOutput bool, source string) error {
	out := output.New(cmd.OutOrStdout())

	var (
		cfg        *config.Config
		sourceDesc string
	)

	switch source {
	case "merged":
		if a.cfgErr != nil {
			return a.cfgErr
		}
		cfg = a.cfg
		sourceDesc = "merged (defaults + user + project + env)"

	case "user", "project":
		path := config.GetUserConfigPath()
		if source == "project" {
			cwd, err := os.Getwd()
			if err != nil {
				return amerrors.InternalError("failed to get current directory", err)
			}
			root, _ := config.FindProjectRoot(cwd)
			path = config.ProjectConfigPath(root)
		}
		if path == "" || !fileExists(path) {
			out.Warning(fmt.Sprintf("No %s configuration file found", source))
			out.Status("💡", "Run 'amangrep config init' to create one")
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return amerrors.ReadError(path, err)
		}
		cfg = config.NewConfig()
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return amerrors.ConfigError(fmt.Sprintf("failed to parse %s: %v", path, err), err)
		}
		sourceDesc = fmt.Sprintf("%s (%s)", source, path)

	case "defaults":
		cfg = config.NewConfig()
		sourceDesc = "defaults (hardcoded)"

	default:
		return amerrors.ConfigError(fmt.Sprintf("invalid source: %s (use: merged, user, project, defaults)", source), nil)
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	}

	out.Statusf("📋", "Configuration source: %s", sourceDesc)
	out.Newline()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return amerrors.InternalError("failed to marshal config", err)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
