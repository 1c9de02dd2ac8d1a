package logging

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLogPath(t *testing.T) {
	path := DefaultLogPath()

	assert.Equal(t, "amangrep.log", filepath.Base(path))
	assert.Contains(t, path, ".amangrep")
	assert.Equal(t, DefaultLogDir(), filepath.Dir(path))
}

func TestDefaultConfig_NoFile(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "warn", cfg.Level)
	assert.Empty(t, cfg.FilePath)
	assert.Equal(t, "debug", DebugConfig().Level)
	assert.Equal(t, DefaultLogPath(), DebugConfig().FilePath)
}

func TestSetup_StderrOnlyHonoursLevel(t *testing.T) {
	var stderr bytes.Buffer
	logger, cleanup, err := Setup(Config{Level: "warn", Stderr: &stderr})
	require.NoError(t, err)
	defer cleanup()

	logger.Info("job_complete", slog.String("path", "a.txt"))
	logger.Warn("job_failed", slog.String("path", "b.txt"))

	out := stderr.String()
	assert.NotContains(t, out, "job_complete")
	assert.Contains(t, out, "job_failed")
	assert.Contains(t, out, "path=b.txt")
}

func TestSetup_FileReceivesEverythingAsJSON(t *testing.T) {
	// Given: warn on stderr, a debug file
	var stderr bytes.Buffer
	logPath := filepath.Join(t.TempDir(), "logs", "amangrep.log")
	logger, cleanup, err := Setup(Config{Level: "warn", FilePath: logPath, Stderr: &stderr})
	require.NoError(t, err)

	// When: logging below and above the stderr level
	logger.Debug("job_complete", slog.String("path", "a.txt"))
	logger.With(slog.String("query", "needle")).Warn("job_failed")
	cleanup()

	// Then: the file has both as JSON, stderr only the warning
	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"msg":"job_complete"`)
	assert.Contains(t, lines[1], `"query":"needle"`)

	assert.NotContains(t, stderr.String(), "job_complete")
	assert.Contains(t, stderr.String(), "job_failed")
}

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelWarn},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LevelFromString(tt.in), tt.in)
	}
}

func TestFindLogFile(t *testing.T) {
	t.Run("explicit path exists", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "x.log")
		require.NoError(t, os.WriteFile(path, nil, 0o644))

		got, err := FindLogFile(path)

		require.NoError(t, err)
		assert.Equal(t, path, got)
	})

	t.Run("explicit path missing", func(t *testing.T) {
		_, err := FindLogFile(filepath.Join(t.TempDir(), "missing.log"))

		assert.Error(t, err)
	})
}

func TestRotatingWriter_Rotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "amangrep.log")
	w, err := NewRotatingWriter(path, 1, 2)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	chunk := bytes.Repeat([]byte("x"), 600*1024)
	for range 4 {
		_, err := w.Write(chunk)
		require.NoError(t, err)
	}

	assert.FileExists(t, path)
	assert.FileExists(t, path+".1")
	assert.FileExists(t, path+".2")
	assert.NoFileExists(t, path+".3")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.LessOrEqual(t, info.Size(), int64(1024*1024))
}

func TestRotatingWriter_SharedLogRotatesOnce(t *testing.T) {
	// Given: two writers on one log that is near the limit, as two processes would have
	path := filepath.Join(t.TempDir(), "amangrep.log")
	chunk := bytes.Repeat([]byte("y"), 700*1024)

	first, err := NewRotatingWriter(path, 1, 3)
	require.NoError(t, err)
	defer func() { _ = first.Close() }()
	_, err = first.Write(chunk)
	require.NoError(t, err)

	second, err := NewRotatingWriter(path, 1, 3)
	require.NoError(t, err)
	defer func() { _ = second.Close() }()

	// When: both cross the size limit one after the other
	_, err = first.Write(chunk)
	require.NoError(t, err)
	_, err = second.Write(chunk)
	require.NoError(t, err)

	// Then: the second writer sees the rotation already happened and only reopens
	assert.FileExists(t, path+".1")
	assert.NoFileExists(t, path+".2")
	assert.FileExists(t, path+".lock")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(2*len(chunk)), info.Size())
}

func TestRotatingWriter_WriteAfterClose(t *testing.T) {
	w, err := NewRotatingWriter(filepath.Join(t.TempDir(), "a.log"), 1, 1)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	_, err = w.Write([]byte("late"))

	assert.ErrorIs(t, err, os.ErrClosed)
}

func TestRotatingWriter_ConcurrentWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.log")
	w, err := NewRotatingWriter(path, 10, 1)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 50 {
				_, _ = fmt.Fprintf(w, "writer %d line %d\n", i, j)
			}
		}()
	}
	wg.Wait()
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 400, strings.Count(string(data), "\n"))
}

func TestViewer_TailFiltersAndFormats(t *testing.T) {
	path := filepath.Join(t.TempDir(), "amangrep.log")
	content := strings.Join([]string{
		`{"time":"2026-01-02T10:00:00.000Z","level":"DEBUG","msg":"job_complete","path":"a.txt","matches":2}`,
		`{"time":"2026-01-02T10:00:01.000Z","level":"INFO","msg":"job_failed","path":"b.txt"}`,
		`not json at all`,
		`{"time":"2026-01-02T10:00:02.000Z","level":"INFO","msg":"search_complete","targets":2}`,
	}, "\n") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Run("level filter", func(t *testing.T) {
		v := NewViewer(ViewerConfig{Level: "info", NoColor: true}, nil)

		entries, err := v.Tail(path, 100)

		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.Equal(t, "job_failed", entries[0].Msg)
		assert.False(t, entries[1].IsValid)
	})

	t.Run("pattern and count", func(t *testing.T) {
		v := NewViewer(ViewerConfig{Pattern: regexp.MustCompile(`a\.txt`), NoColor: true}, nil)

		entries, err := v.Tail(path, 100)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "10:00:00.000 DEBUG job_complete matches=2 path=a.txt", v.FormatEntry(entries[0]))

		last, err := v.Tail(path, 1)
		require.NoError(t, err)
		assert.Empty(t, last)
	})

	t.Run("print", func(t *testing.T) {
		var out bytes.Buffer
		v := NewViewer(ViewerConfig{NoColor: true}, &out)

		entries, err := v.Tail(path, 2)
		require.NoError(t, err)
		v.Print(entries)

		assert.Equal(t, "not json at all\n10:00:02.000 INFO  search_complete targets=2\n", out.String())
	})
}

func TestViewer_TailMissingFile(t *testing.T) {
	v := NewViewer(ViewerConfig{}, nil)

	_, err := v.Tail(filepath.Join(t.TempDir(), "nope.log"), 10)

	assert.Error(t, err)
}
