// Package output formats search results and CLI status messages.
//
// Result output is byte-exact with the tool's output contract when color is
// off. Each fan-out block is assembled in memory and written with a single
// Write call so a block is never split.
package output

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"

	amerrors "github.com/Aman-CERP/amangrep/internal/errors"
)

// ColorMode selects when headers and failures are colored.
type ColorMode string

const (
	// ColorAuto colors only when writing to a terminal and NO_COLOR is unset.
	ColorAuto ColorMode = "auto"
	// ColorAlways forces ANSI colors, even into pipes.
	ColorAlways ColorMode = "always"
	// ColorNever disables colors.
	ColorNever ColorMode = "never"
)

// Palette for headers and failure lines.
const (
	colorLime = "154"
	colorRed  = "196"
)

// ParseColorMode converts s into a ColorMode, ignoring case.
func ParseColorMode(s string) (ColorMode, error) {
	switch mode := ColorMode(strings.ToLower(strings.TrimSpace(s))); mode {
	case ColorAuto, ColorAlways, ColorNever:
		return mode, nil
	case "":
		return ColorAuto, nil
	default:
		return "", fmt.Errorf("invalid color mode %q (use: auto, always, never)", s)
	}
}

// Writer provides formatted output for the CLI.
type Writer struct {
	out      io.Writer
	useColor bool
	header   lipgloss.Style
	failure  lipgloss.Style
}

// New creates a plain output Writer.
func New(out io.Writer) *Writer {
	return NewWithColor(out, ColorNever)
}

// NewWithColor creates a Writer that colors according to mode.
func NewWithColor(out io.Writer, mode ColorMode) *Writer {
	w := &Writer{
		out:      out,
		useColor: ShouldColor(out, mode),
	}

	if w.useColor {
		r := lipgloss.NewRenderer(out)
		r.SetColorProfile(termenv.ANSI256)
		w.header = r.NewStyle().Bold(true).Foreground(lipgloss.Color(colorLime))
		w.failure = r.NewStyle().Foreground(lipgloss.Color(colorRed))
	}

	return w
}

// ShouldColor decides whether output to out is colored under mode.
func ShouldColor(out io.Writer, mode ColorMode) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	if DetectNoColor() {
		return false
	}
	return IsTTY(out)
}

// IsTTY checks if output is a terminal.
func IsTTY(w io.Writer) bool {
	if w == nil {
		return false
	}
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

// DetectNoColor checks if NO_COLOR environment variable is set.
func DetectNoColor() bool {
	_, exists := os.LookupEnv("NO_COLOR")
	return exists
}

// Lines writes each line on its own output line with no decoration.
func (w *Writer) Lines(lines []string) error {
	var buf bytes.Buffer
	for _, line := range lines {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	return w.flush(&buf)
}

// Block writes one fan-out block: a blank line, the "[<path>]: " header, then
// either the lines or, when err is set, the failure message.
func (w *Writer) Block(path string, lines []string, err error) error {
	var buf bytes.Buffer

	buf.WriteByte('\n')
	buf.WriteString(w.paint(w.header, "["+path+"]:"))
	buf.WriteString(" \n")

	if err != nil {
		buf.WriteString(w.paint(w.failure, amerrors.FailureLine(path, err)))
		buf.WriteByte('\n')
		return w.flush(&buf)
	}

	for _, line := range lines {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	return w.flush(&buf)
}

func (w *Writer) paint(style lipgloss.Style, s string) string {
	if !w.useColor {
		return s
	}
	return style.Render(s)
}

func (w *Writer) flush(buf *bytes.Buffer) error {
	if buf.Len() == 0 {
		return nil
	}
	_, err := w.out.Write(buf.Bytes())
	return err
}

// Status prints a status message with an icon.
// Errors from writing are intentionally ignored for console output.
func (w *Writer) Status(icon, msg string) {
	if icon != "" {
		_, _ = fmt.Fprintf(w.out, "%s %s\n", icon, msg)
	} else {
		_, _ = fmt.Fprintf(w.out, "   %s\n", msg)
	}
}

// Statusf prints a formatted status message with an icon.
func (w *Writer) Statusf(icon, format string, args ...any) {
	w.Status(icon, fmt.Sprintf(format, args...))
}

// Success prints a success message with checkmark.
func (w *Writer) Success(msg string) {
	w.Status("✅", msg)
}

// Warning prints a warning message.
func (w *Writer) Warning(msg string) {
	w.Status("⚠️ ", msg)
}

// Newline prints an empty line.
func (w *Writer) Newline() {
	_, _ = fmt.Fprintln(w.out)
}
