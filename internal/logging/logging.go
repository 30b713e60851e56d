// Package logging builds the process logger.
package logging

import (
	"io"
	"os"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/term"
)

// Options configures New.
type Options struct {
	Name string
	// Level is an hclog level name; unknown or empty means info.
	Level string
	// Output defaults to stderr.
	Output io.Writer
	JSON   bool
}

// New returns an hclog logger. Output is coloured only when it is a
// terminal and JSON is off.
func New(opts Options) hclog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	level := hclog.LevelFromString(opts.Level)
	if level == hclog.NoLevel {
		level = hclog.Info
	}

	color := hclog.ColorOff
	if !opts.JSON && IsTerminal(out) {
		color = hclog.AutoColor
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:       opts.Name,
		Level:      level,
		Output:     out,
		JSONFormat: opts.JSON,
		Color:      color,
	})
}

// Level resolves the effective level from the CLI switches and the
// configured level.
func Level(verbose, quiet bool, configured string) string {
	switch {
	case verbose:
		return "debug"
	case quiet:
		return "error"
	}
	return configured
}

// IsTerminal reports whether w is a terminal file.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
