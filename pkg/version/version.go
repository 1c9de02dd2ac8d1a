// Package version reports how an amangrep binary was built and what it runs on.
package version

import (
	"fmt"
	"runtime"
)

// Version is set with
// -ldflags "-X github.com/Aman-CERP/amangrep/pkg/version.Version=v1.2.3".
var Version = "dev"

var (
	// Commit is the short git hash of the build.
	Commit = "unknown"

	// Date is the build time, RFC3339.
	Date = "unknown"

	// GoVersion is the toolchain that built the binary.
	GoVersion = runtime.Version()
)

// BuildInfo is the machine-readable form of `amangrep version --json`.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`

	// MaxProcs bounds how many fan-out jobs actually run in parallel,
	// whatever --workers allows.
	MaxProcs int `json:"max_procs"`
}

// String is the one-line form printed by `amangrep version`.
func String() string {
	return fmt.Sprintf("amangrep %s (commit: %s, built: %s, go: %s, %s, %d CPU)",
		Version, Commit, Date, GoVersion, Platform(), runtime.GOMAXPROCS(0))
}

// Short returns just the version string.
func Short() string {
	return Version
}

// Platform returns GOOS/GOARCH.
func Platform() string {
	return runtime.GOOS + "/" + runtime.GOARCH
}

// GetInfo returns the build and runtime information.
func GetInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: GoVersion,
		Platform:  Platform(),
		MaxProcs:  runtime.GOMAXPROCS(0),
	}
}
