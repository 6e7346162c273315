// Package term provides ANSI color state and terminal detection.
//
// Colors are package-level variables because the console log handler and
// the display helpers both need them. [Configure] sets them once during
// startup; when colors are disabled the variables are empty strings, making
// string concatenation a no-op.
package term

import (
	"os"
	"strings"

	"github.com/backmassage/posefeed/internal/config"
)

// ANSI color codes. Empty when colors are disabled.
var (
	Magenta = ""
	Bold    = ""
	NC      = "" // Reset sequence.
)

// Configure resolves the color mode against out and sets the package-level
// ANSI variables. It returns whether colors are on.
func Configure(mode config.ColorMode, out *os.File) bool {
	on := Resolve(mode, out)
	if on {
		Magenta = "\033[1;95m"
		Bold = "\033[1m"
		NC = "\033[0m"
	} else {
		Magenta, Bold, NC = "", "", ""
	}
	return on
}

// Enabled reports whether ANSI colors are currently active.
func Enabled() bool { return NC != "" }

// Resolve determines whether colors should be enabled for out based on the
// configured mode, TTY detection, and the NO_COLOR env var
// (https://no-color.org).
func Resolve(mode config.ColorMode, out *os.File) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	default: // ColorAuto
		return IsTerminal(out) &&
			os.Getenv("NO_COLOR") == "" &&
			strings.ToLower(os.Getenv("TERM")) != "dumb"
	}
}

// IsTerminal reports whether f is attached to a TTY (character device).
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
