package ui

import (
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/term"
)

// Color functions for terminal output
var (
	Cyan    = colorize("\033[36m%s\033[0m")
	Yellow  = colorize("\033[33m%s\033[0m")
	Red     = colorize("\033[31m%s\033[0m")
	Green   = colorize("\033[32m%s\033[0m")
	Magenta = colorize("\033[35m%s\033[0m")
	Dim     = colorize("\033[2m%s\033[0m")
)

// colorize returns a function that wraps text with ANSI color codes
func colorize(colorString string) func(string) string {
	return func(text string) string {
		return fmt.Sprintf(colorString, text)
	}
}

// Terminal writes human-facing status to stderr. Records never go through
// it, so stdout stays machine readable.
type Terminal struct {
	mu    sync.Mutex
	out   io.Writer
	quiet bool
	color bool
	live  bool
}

// NewTerminal returns a Terminal on stderr, with colors and live progress
// enabled only when stderr is a TTY.
func NewTerminal(quiet bool) *Terminal {
	tty := term.IsTerminal(int(os.Stderr.Fd()))
	return &Terminal{out: os.Stderr, quiet: quiet, color: tty, live: tty}
}

// NewWriterTerminal returns a plain Terminal on w
func NewWriterTerminal(w io.Writer, quiet bool) *Terminal {
	return &Terminal{out: w, quiet: quiet}
}

// Quiet reports whether informational output is suppressed
func (t *Terminal) Quiet() bool {
	return t.quiet
}

func (t *Terminal) paint(c func(string) string, s string) string {
	if !t.color {
		return s
	}
	return c(s)
}

func (t *Terminal) println(s string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.out, s)
}

// PrintError prints an error message; it is shown even in quiet mode
func (t *Terminal) PrintError(msg string, args ...interface{}) {
	if len(args) > 0 {
		msg = msg + ": " + fmt.Sprintf("%v", args[0])
	}
	t.println(t.paint(Red, msg))
}

// PrintSuccess prints a success message
func (t *Terminal) PrintSuccess(msg string) {
	if t.quiet {
		return
	}
	t.println(t.paint(Green, msg))
}

// PrintInfo prints a label and value
func (t *Terminal) PrintInfo(label string, value string) {
	if t.quiet {
		return
	}
	t.println(fmt.Sprintf("%s: %s", t.paint(Cyan, label), t.paint(Yellow, value)))
}

// PrintWarning prints a warning message
func (t *Terminal) PrintWarning(msg string, args ...interface{}) {
	if t.quiet {
		return
	}
	if len(args) > 0 {
		msg = msg + ": " + fmt.Sprintf("%v", args[0])
	}
	t.println(t.paint(Yellow, msg))
}
