// Package term resolves whether a writer gets ANSI colors and hands out the
// matching palette. Each logger owns its palette, so two loggers writing to
// different destinations can disagree about color.
package term

import (
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/backmassage/brainbatch/internal/config"
)

// Palette holds the escape sequences for one output. The zero value is the
// colorless palette, where every field is empty and concatenation is a no-op.
type Palette struct {
	Red     string
	Green   string
	Yellow  string
	Blue    string
	Cyan    string
	Magenta string
	Reset   string
}

var ansi = Palette{
	Red:     "\033[1;91m",
	Green:   "\033[1;92m",
	Yellow:  "\033[1;93m",
	Blue:    "\033[1;94m",
	Cyan:    "\033[1;96m",
	Magenta: "\033[1;95m",
	Reset:   "\033[0m",
}

// NewPalette returns the ANSI palette when mode allows color on w, and the
// zero Palette otherwise.
func NewPalette(mode config.ColorMode, w io.Writer) Palette {
	if ColorEnabled(mode, w) {
		return ansi
	}
	return Palette{}
}

// Enabled reports whether p emits escape sequences.
func (p Palette) Enabled() bool { return p.Reset != "" }

// Paint wraps s in color and a reset; with a colorless palette s is
// returned unchanged.
func (p Palette) Paint(color, s string) string {
	if color == "" || !p.Enabled() {
		return s
	}
	return color + s + p.Reset
}

// ColorEnabled applies the color mode to w. Auto mode needs w to be a
// terminal, NO_COLOR unset (https://no-color.org) and TERM other than dumb.
func ColorEnabled(mode config.ColorMode, w io.Writer) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	}
	f, ok := w.(*os.File)
	return ok && IsTerminal(f) &&
		os.Getenv("NO_COLOR") == "" &&
		strings.ToLower(os.Getenv("TERM")) != "dumb"
}

// IsTerminal reports whether f is attached to a TTY (including Cygwin/MSYS
// pseudo terminals).
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
