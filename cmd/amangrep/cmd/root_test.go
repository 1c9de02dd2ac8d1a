package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/amangrep/internal/dispatch"
	amerrors "github.com/Aman-CERP/amangrep/internal/errors"
)

const poem = `I'm nobody! Who are you?
Are you nobody, too?
Then there's a pair of us - don't tell!
They'd banish us, you know.

How dreary to be somebody!
How public, like a frog
To tell your name the livelong day
To an admiring bog!
`

// syncBuffer is a bytes.Buffer safe for one writer and one reader goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// isolate runs the test in an empty directory with no user config and no
// environment overrides.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	for _, k := range []string{"AMANGREP_WORKERS", "AMANGREP_COLOR", "AMANGREP_LOG_LEVEL", "AMANGREP_WATCH_DEBOUNCE"} {
		t.Setenv(k, "")
	}
	t.Setenv("IGNORE_CASE", "")
	require.NoError(t, os.Unsetenv("IGNORE_CASE"))
	return dir
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
}

func runCLI(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	cmd, a := newRootCmd()
	var outBuf, errBuf bytes.Buffer
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(args)

	err = executeCmd(context.Background(), cmd, a)
	return outBuf.String(), errBuf.String(), err
}

func TestRootCmd_SingleFilePrintsRawLines(t *testing.T) {
	// Given: one file
	isolate(t)
	writeFile(t, "poem.txt", poem)

	// When: searching it
	stdout, stderr, err := runCLI(t, "frog", "poem.txt")

	// Then: the matching line is printed without a header
	require.NoError(t, err)
	assert.Equal(t, "How public, like a frog\n", stdout)
	assert.Empty(t, stderr)
}

func TestRootCmd_CaseSensitiveByDefault(t *testing.T) {
	isolate(t)
	writeFile(t, "poem.txt", poem)

	stdout, _, err := runCLI(t, "how", "poem.txt")

	require.NoError(t, err)
	assert.Empty(t, stdout)
}

func TestRootCmd_IgnoreCaseFlag(t *testing.T) {
	isolate(t)
	writeFile(t, "poem.txt", poem)

	stdout, _, err := runCLI(t, "-i", "HOW", "poem.txt")

	require.NoError(t, err)
	assert.Equal(t, "How dreary to be somebody!\nHow public, like a frog\n", stdout)
}

func TestRootCmd_IgnoreCaseEnvPresence(t *testing.T) {
	isolate(t)
	writeFile(t, "poem.txt", poem)
	t.Setenv("IGNORE_CASE", "")

	stdout, _, err := runCLI(t, "TO", "poem.txt")

	require.NoError(t, err)
	assert.Equal(t, "Are you nobody, too?\nHow dreary to be somebody!\nTo tell your name the livelong day\nTo an admiring bog!\n", stdout)
}

func TestRootCmd_FlagOverridesIgnoreCaseEnv(t *testing.T) {
	isolate(t)
	writeFile(t, "poem.txt", poem)
	t.Setenv("IGNORE_CASE", "1")

	stdout, _, err := runCLI(t, "--ignore-case=false", "TO", "poem.txt")

	require.NoError(t, err)
	assert.Empty(t, stdout)
}

func TestRootCmd_EmptyQueryPrintsEveryTrimmedLine(t *testing.T) {
	isolate(t)
	writeFile(t, "a.txt", "  one  \n\ttwo\n")

	stdout, _, err := runCLI(t, "", "a.txt")

	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\n", stdout)
}

func TestRootCmd_FanOutKeepsOrderAndIsolatesFailures(t *testing.T) {
	// Given: A and C exist, B does not
	isolate(t)
	writeFile(t, "a.txt", "needle in a\n")
	writeFile(t, "c.txt", "hay\nneedle in c\n")

	// When: searching all three
	stdout, stderr, err := runCLI(t, "needle", "a.txt", "b.txt", "c.txt")

	// Then: success, with B's failure reported in place
	require.NoError(t, err)
	assert.Empty(t, stderr)
	assert.True(t, strings.HasPrefix(stdout, "\n[a.txt]: \nneedle in a\n\n[b.txt]: \nError when reading 'b.txt': "), stdout)
	assert.True(t, strings.HasSuffix(stdout, "\n[c.txt]: \nneedle in c\n"), stdout)
}

func TestRootCmd_SingleFileMissingIsFatal(t *testing.T) {
	isolate(t)

	stdout, stderr, err := runCLI(t, "needle", "missing.txt")

	require.Error(t, err)
	assert.Empty(t, stdout)
	assert.True(t, strings.HasPrefix(stderr, "Application error: "), stderr)
	assert.Contains(t, stderr, amerrors.ErrCodeFileNotFound)
}

func TestRootCmd_SingleFileInvalidUTF8NamesPath(t *testing.T) {
	isolate(t)
	writeFile(t, "bin.dat", "\xff\xfex")

	stdout, stderr, err := runCLI(t, "x", "bin.dat")

	require.Error(t, err)
	assert.Empty(t, stdout)
	assert.Equal(t,
		"Application error: Error when reading 'bin.dat': stream did not contain valid UTF-8\n  Code: "+
			amerrors.ErrCodeInvalidEncoding+"\n",
		stderr)
}

func TestRootCmd_ArgumentErrors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantMsg string
	}{
		{"no arguments", nil, "Problem with parsing: Specify a query string"},
		{"query only", []string{"needle"}, "Problem with parsing: Specify at least one file path."},
		{"unknown flag", []string{"--nope", "a", "b"}, "Problem with parsing: unknown flag: --nope"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)

			stdout, stderr, err := runCLI(t, tt.args...)

			require.Error(t, err)
			assert.Empty(t, stdout)
			assert.True(t, strings.HasPrefix(stderr, tt.wantMsg), stderr)
		})
	}
}

func TestRootCmd_DoubleDashAllowsSubcommandNameAsQuery(t *testing.T) {
	isolate(t)
	writeFile(t, "notes.txt", "bump version\nfix bug\n")

	stdout, _, err := runCLI(t, "--", "version", "notes.txt")

	require.NoError(t, err)
	assert.Equal(t, "bump version\n", stdout)
}

func TestRootCmd_StatsGoToStderr(t *testing.T) {
	isolate(t)
	writeFile(t, "a.txt", "needle\n")

	stdout, stderr, err := runCLI(t, "--stats", "needle", "a.txt", "b.txt")

	require.NoError(t, err)
	assert.NotContains(t, stdout, "searched")
	assert.Contains(t, stderr, "fanout: 2 files searched, 1 failed, 1 matching line in ")
}

func TestRootCmd_ProjectConfigIsApplied(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, ".amangrep.yaml"), "output:\n  color: always\n")
	writeFile(t, "a.txt", "needle\n")
	writeFile(t, "b.txt", "needle\n")

	stdout, _, err := runCLI(t, "needle", "a.txt", "b.txt")

	require.NoError(t, err)
	assert.Contains(t, stdout, "\x1b[", "headers should be styled")
	assert.Contains(t, stdout, "needle\n")
}

func TestRootCmd_ColorFlagOverridesConfig(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, ".amangrep.yaml"), "output:\n  color: always\n")
	writeFile(t, "a.txt", "needle\n")
	writeFile(t, "b.txt", "needle\n")

	stdout, _, err := runCLI(t, "--color", "never", "needle", "a.txt", "b.txt")

	require.NoError(t, err)
	assert.Equal(t, "\n[a.txt]: \nneedle\n\n[b.txt]: \nneedle\n", stdout)
}

func TestRootCmd_ColorEnvIsCaseInsensitive(t *testing.T) {
	isolate(t)
	t.Setenv("AMANGREP_COLOR", "Always")
	writeFile(t, "a.txt", "needle\n")
	writeFile(t, "b.txt", "needle\n")

	stdout, stderr, err := runCLI(t, "needle", "a.txt", "b.txt")

	require.NoError(t, err)
	assert.Empty(t, stderr)
	assert.Contains(t, stdout, "\x1b[", "headers should be styled")
}

func TestRootCmd_InvalidConfigIsParseProblem(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, ".amangrep.yaml"), "search:\n  workers: -3\n")
	writeFile(t, "a.txt", "needle\n")

	_, stderr, err := runCLI(t, "needle", "a.txt")

	require.Error(t, err)
	assert.True(t, strings.HasPrefix(stderr, "Problem with parsing: "), stderr)
	assert.Contains(t, stderr, "search.workers")
}

func TestRootCmd_InvalidColorFlag(t *testing.T) {
	isolate(t)
	writeFile(t, "a.txt", "needle\n")

	_, stderr, err := runCLI(t, "--color", "sometimes", "needle", "a.txt")

	require.Error(t, err)
	assert.Contains(t, stderr, "Problem with parsing: ")
}

func TestRootCmd_DebugWritesLogFile(t *testing.T) {
	isolate(t)
	writeFile(t, "a.txt", "needle\n")

	_, _, err := runCLI(t, "--debug", "needle", "a.txt", "b.txt")
	require.NoError(t, err)

	home := os.Getenv("HOME")
	data, err := os.ReadFile(filepath.Join(home, ".amangrep", "logs", "amangrep.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"search_complete"`)
	assert.Contains(t, string(data), `"msg":"job_failed"`)
}

func TestRootCmd_ProfilesAreWritten(t *testing.T) {
	dir := isolate(t)
	writeFile(t, "a.txt", "needle\n")
	cpu := filepath.Join(dir, "cpu.prof")
	heap := filepath.Join(dir, "heap.prof")

	_, _, err := runCLI(t, "--profile-cpu", cpu, "--profile-mem", heap, "needle", "a.txt")

	require.NoError(t, err)
	assert.FileExists(t, cpu)
	assert.FileExists(t, heap)
}

func TestRootCmd_WatchRerunsOnChange(t *testing.T) {
	// Given: a watched search with a short debounce
	isolate(t)
	t.Setenv("AMANGREP_WATCH_DEBOUNCE", "20ms")
	writeFile(t, "a.txt", "needle one\n")

	cmd, a := newRootCmd()
	stdout, stderr := &syncBuffer{}, &syncBuffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs([]string{"--watch", "needle", "a.txt"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- executeCmd(ctx, cmd, a) }()

	require.Eventually(t, func() bool {
		return strings.Contains(stderr.String(), "Watching 1 file(s)")
	}, 3*time.Second, 10*time.Millisecond)
	assert.Equal(t, "needle one\n", stdout.String())

	// When: the file keeps changing until a re-run shows up
	require.Eventually(t, func() bool {
		writeFile(t, "a.txt", "needle one\nneedle two\n")
		return strings.Contains(stdout.String(), "needle two")
	}, 5*time.Second, 100*time.Millisecond)

	// Then: cancelling ends the watch cleanly
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}

func TestPrintStats(t *testing.T) {
	var buf bytes.Buffer

	printStats(&buf, dispatch.Summary{
		Mode:     dispatch.ModeSingleFile,
		Targets:  1,
		Matches:  3,
		Duration: 1500 * time.Microsecond,
	})

	assert.Equal(t, "single: 1 file searched, 0 failed, 3 matching lines in 1.5ms\n", buf.String())
}

func TestRootCmd_ShowsHelp(t *testing.T) {
	isolate(t)

	stdout, _, err := runCLI(t, "--help")

	require.NoError(t, err)
	assert.Contains(t, stdout, "amangrep [flags] <query> <file>...")
	assert.Contains(t, stdout, "--ignore-case")
	assert.Contains(t, stdout, "--watch")
}
