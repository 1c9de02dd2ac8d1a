// Package job runs the search for one file target.
//
// A job reads its file, searches the contents and returns a Result. Read
// failures are returned as data inside the Result so that one bad file never
// aborts the other jobs of a run. Jobs never write output.
package job

import (
	"fmt"
	"os"
	"unicode/utf8"

	amerrors "github.com/Aman-CERP/amangrep/internal/errors"
	"github.com/Aman-CERP/amangrep/internal/search"
)

// Target is one input file, in command-line order.
type Target struct {
	Path string
}

// Targets converts paths into targets, preserving order.
func Targets(paths []string) []Target {
	targets := make([]Target, len(paths))
	for i, p := range paths {
		targets[i] = Target{Path: p}
	}
	return targets
}

// Result is the outcome of searching one target: either the matching lines
// or the failure cause, never both.
type Result struct {
	// Path is the target's path as given.
	Path string

	// Lines are the trimmed matching lines in file order.
	Lines []string

	// Err is the failure cause; nil on success. Always an *amerrors.AmanError
	// when set by a Runner.
	Err error
}

// Failed reports whether the job failed to produce lines.
func (r Result) Failed() bool {
	return r.Err != nil
}

// ReadFunc reads the full contents of a file.
type ReadFunc func(path string) ([]byte, error)

// Runner executes jobs with a configurable reader.
type Runner struct {
	read ReadFunc
}

// NewRunner creates a Runner. A nil read uses ReadFile.
func NewRunner(read ReadFunc) *Runner {
	if read == nil {
		read = ReadFile
	}
	return &Runner{read: read}
}

// Execute searches target with cfg and returns its Result.
func (r *Runner) Execute(target Target, cfg *search.SearchConfig) Result {
	data, err := r.read(target.Path)
	if err != nil {
		return Result{Path: target.Path, Err: amerrors.ReadError(target.Path, err)}
	}

	if !utf8.Valid(data) {
		return Result{Path: target.Path, Err: amerrors.ReadError(target.Path, amerrors.ErrInvalidEncoding)}
	}

	return Result{
		Path:  target.Path,
		Lines: cfg.NewMatcher().Search(string(data)),
	}
}

var defaultRunner = NewRunner(nil)

// Execute searches target with cfg using the default file reader.
func Execute(target Target, cfg *search.SearchConfig) Result {
	return defaultRunner.Execute(target, cfg)
}

// ReadFile reads path, rejecting directories up front so the failure cause
// is the same on every platform.
func ReadFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("read %s: %w", path, amerrors.ErrIsDirectory)
	}
	return os.ReadFile(path)
}
