package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	amerrors "github.com/Aman-CERP/amangrep/internal/errors"
)

// ProjectConfigNames are the project config file names, in lookup order.
var ProjectConfigNames = []string{".amangrep.yaml", ".amangrep.yml"}

// Config represents the complete amangrep configuration.
type Config struct {
	Version int           `yaml:"version" json:"version"`
	Search  SearchConfig  `yaml:"search" json:"search"`
	Output  OutputConfig  `yaml:"output" json:"output"`
	Watch   WatchConfig   `yaml:"watch" json:"watch"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// SearchConfig configures how targets are searched.
type SearchConfig struct {
	// IgnoreCase folds case before matching.
	// The IGNORE_CASE environment variable turns this on when present.
	IgnoreCase bool `yaml:"ignore_case" json:"ignore_case"`

	// Workers caps concurrent file jobs when several files are given.
	// 0 runs one job per file.
	Workers int `yaml:"workers" json:"workers"`
}

// OutputConfig configures result output.
type OutputConfig struct {
	// Color is one of auto, always, never.
	Color string `yaml:"color" json:"color"`
}

// WatchConfig configures --watch mode.
type WatchConfig struct {
	// Debounce coalesces bursts of file events before re-running (e.g. "200ms").
	Debounce string `yaml:"debounce" json:"debounce"`
}

// LoggingConfig configures stderr logging.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level" json:"level"`
}

// NewConfig creates a new Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Search: SearchConfig{
			IgnoreCase: false,
			Workers:    0,
		},
		Output: OutputConfig{
			Color: "auto",
		},
		Watch: WatchConfig{
			Debounce: "200ms",
		},
		Logging: LoggingConfig{
			Level: "warn", // grep output goes to stdout; keep stderr quiet
		},
	}
}

// GetUserConfigPath returns the path to the user/global configuration file.
// It follows XDG Base Directory specification:
//   - $XDG_CONFIG_HOME/amangrep/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/amangrep/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "amangrep", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "amangrep", "config.yaml")
	}
	return filepath.Join(home, ".config", "amangrep", "config.yaml")
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// ProjectConfigPath returns the project config file in dir, or "" if none exists.
func ProjectConfigPath(dir string) string {
	for _, name := range ProjectConfigNames {
		p := filepath.Join(dir, name)
		if fileExists(p) {
			return p
		}
	}
	return ""
}

// Load loads configuration for the project containing dir.
// It applies configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User/global config (~/.config/amangrep/config.yaml)
//  3. Project config (.amangrep.yaml in project root)
//  4. Environment variables (IGNORE_CASE, AMANGREP_*)
//
// Command-line flags are applied by the caller on top of the result.
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userPath := GetUserConfigPath(); fileExists(userPath) {
		if err := cfg.loadYAML(userPath); err != nil {
			return nil, fmt.Errorf("failed to load user config: %w", err)
		}
	}

	if projectPath := ProjectConfigPath(dir); projectPath != "" {
		if err := cfg.loadYAML(projectPath); err != nil {
			return nil, err
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, amerrors.ConfigError(fmt.Sprintf("invalid configuration: %v", err), err)
	}

	return cfg, nil
}

// loadYAML loads and merges configuration from a YAML file.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return amerrors.ConfigError(fmt.Sprintf("failed to parse config file %s: %v", path, err), err).
			WithDetail("path", path)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
// A file cannot switch ignore_case back off once a lower layer enabled it;
// use the -i flag's negation on the command line for that.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}
	if other.Search.IgnoreCase {
		c.Search.IgnoreCase = true
	}
	if other.Search.Workers != 0 {
		c.Search.Workers = other.Search.Workers
	}
	if other.Output.Color != "" {
		c.Output.Color = other.Output.Color
	}
	if other.Watch.Debounce != "" {
		c.Watch.Debounce = other.Watch.Debounce
	}
	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
}

// applyEnvOverrides applies IGNORE_CASE and AMANGREP_* environment overrides.
func (c *Config) applyEnvOverrides() {
	// Presence alone enables it, whatever the value.
	if _, ok := os.LookupEnv("IGNORE_CASE"); ok {
		c.Search.IgnoreCase = true
	}
	if v := os.Getenv("AMANGREP_WORKERS"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n >= 0 {
			c.Search.Workers = n
		}
	}
	if v := os.Getenv("AMANGREP_COLOR"); v != "" {
		c.Output.Color = v
	}
	if v := os.Getenv("AMANGREP_WATCH_DEBOUNCE"); v != "" {
		c.Watch.Debounce = v
	}
	if v := os.Getenv("AMANGREP_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.Search.Workers < 0 {
		return fmt.Errorf("search.workers must be non-negative, got %d", c.Search.Workers)
	}

	validColors := map[string]bool{"auto": true, "always": true, "never": true}
	if !validColors[strings.ToLower(strings.TrimSpace(c.Output.Color))] {
		return fmt.Errorf("output.color must be 'auto', 'always', or 'never', got %s", c.Output.Color)
	}

	if _, err := c.DebounceDuration(); err != nil {
		return err
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Logging.Level)
	}

	return nil
}

// DebounceDuration parses Watch.Debounce.
func (c *Config) DebounceDuration() (time.Duration, error) {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil {
		return 0, fmt.Errorf("watch.debounce must be a duration like 200ms, got %q", c.Watch.Debounce)
	}
	if d < 0 {
		return 0, fmt.Errorf("watch.debounce must be non-negative, got %s", d)
	}
	return d, nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// FindProjectRoot finds the project root directory.
// It walks up from startDir looking for a .git directory or a project config
// file, and returns startDir itself when neither is found.
func FindProjectRoot(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	currentDir := absDir
	for {
		if dirExists(filepath.Join(currentDir, ".git")) {
			return currentDir, nil
		}
		if ProjectConfigPath(currentDir) != "" {
			return currentDir, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return absDir, nil
		}
		currentDir = parentDir
	}
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// dirExists checks if a directory exists.
func dirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}
