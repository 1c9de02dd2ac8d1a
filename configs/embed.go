// Package configs embeds the configuration templates written by
// `amangrep config init`.
//
// Template files:
//   - project-config.example.yaml: written to .amangrep.yaml in the current directory
//   - user-config.example.yaml: written to ~/.config/amangrep/config.yaml with --user
//
// Both must stay loadable by internal/config; configs_test.go checks that.
package configs

import _ "embed"

// UserConfigTemplate is the template for user/machine-level configuration.
//
//go:embed user-config.example.yaml
var UserConfigTemplate string

// ProjectConfigTemplate is the template for project-level configuration.
//
//go:embed project-config.example.yaml
var ProjectConfigTemplate string
