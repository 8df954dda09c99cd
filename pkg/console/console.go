// Package console handles all terminal output formatting
package console

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/ajkula/renegade/pkg/severity"
)

// Logger prints tagged, optionally colored messages. A nil *Logger discards everything.
type Logger struct {
	mu      sync.Mutex
	out     io.Writer
	errOut  io.Writer
	noColor bool
	quiet   bool
	verbose bool
}

// Options configures a Logger
type Options struct {
	Out     io.Writer
	ErrOut  io.Writer
	NoColor bool
	Quiet   bool
	Verbose bool
}

// New creates a logger; nil writers default to stdout/stderr
func New(opts Options) *Logger {
	l := &Logger{
		out:     opts.Out,
		errOut:  opts.ErrOut,
		noColor: opts.NoColor,
		quiet:   opts.Quiet,
		verbose: opts.Verbose,
	}
	if l.out == nil {
		l.out = color.Output
	}
	if l.errOut == nil {
		l.errOut = os.Stderr
	}
	return l
}

// Verbose reports whether debug output is enabled
func (l *Logger) Verbose() bool {
	return l != nil && l.verbose
}

// NoColor reports whether coloring is disabled
func (l *Logger) NoColor() bool {
	return l == nil || l.noColor
}

func (l *Logger) paint(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if l.noColor {
		c.DisableColor()
	}
	return c
}

func (l *Logger) write(w io.Writer, s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprint(w, s)
}

// Section prints a formatted section header
func (l *Logger) Section(title string) {
	if l == nil || l.quiet {
		return
	}
	l.write(l.out, "\n"+l.paint(color.FgCyan, color.Bold).Sprintf("=== %s ===", title)+"\n\n")
}

// Info prints an info message
func (l *Logger) Info(message string) {
	if l == nil || l.quiet {
		return
	}
	l.write(l.out, l.paint(color.FgBlue).Sprintf("[INFO] %s", message)+"\n")
}

// Infof prints a formatted info message
func (l *Logger) Infof(format string, args ...any) {
	l.Info(fmt.Sprintf(format, args...))
}

// Debugf prints only in verbose mode
func (l *Logger) Debugf(format string, args ...any) {
	if !l.Verbose() || l.quiet {
		return
	}
	l.write(l.out, l.paint(color.FgMagenta).Sprintf("[DEBUG] "+format, args...)+"\n")
}

// Success prints a success message
func (l *Logger) Success(message string) {
	if l == nil || l.quiet {
		return
	}
	l.write(l.out, l.paint(color.FgGreen, color.Bold).Sprintf("[SUCCESS] %s", message)+"\n")
}

// Successf prints a formatted success message
func (l *Logger) Successf(format string, args ...any) {
	l.Success(fmt.Sprintf(format, args...))
}

// Warning prints a warning; warnings survive quiet mode
func (l *Logger) Warning(message string) {
	if l == nil {
		return
	}
	l.write(l.out, l.paint(color.FgYellow, color.Bold).Sprintf("[WARNING] %s", message)+"\n")
}

// Warningf prints a formatted warning
func (l *Logger) Warningf(format string, args ...any) {
	l.Warning(fmt.Sprintf(format, args...))
}

// Error prints an error message to the error writer
func (l *Logger) Error(message string) {
	if l == nil {
		return
	}
	l.write(l.errOut, l.paint(color.FgRed, color.Bold).Sprintf("[ERROR] %s", message)+"\n")
}

// Errorf prints a formatted error message
func (l *Logger) Errorf(format string, args ...any) {
	l.Error(fmt.Sprintf(format, args...))
}

// Printf prints plain text, suppressed in quiet mode
func (l *Logger) Printf(format string, args ...any) {
	if l == nil || l.quiet {
		return
	}
	l.write(l.out, fmt.Sprintf(format, args...))
}

// Severity renders a severity label in its conventional color
func (l *Logger) Severity(s severity.Severity) string {
	label := strings.ToUpper(string(s))
	if l == nil {
		return label
	}
	switch severity.Parse(string(s)) {
	case severity.Critical:
		return l.paint(color.FgRed, color.Bold).Sprint(label)
	case severity.High:
		return l.paint(color.FgRed).Sprint(label)
	case severity.Medium:
		return l.paint(color.FgYellow).Sprint(label)
	case severity.Low:
		return l.paint(color.FgBlue).Sprint(label)
	default:
		return label
	}
}

// ProgressBar renders progress in [0,1] as a fixed-width bar
func ProgressBar(progress float64, width int) string {
	if width <= 0 {
		width = 30
	}
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}
	filled := int(progress * float64(width))
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + "]" +
		fmt.Sprintf(" %3d%%", int(progress*100+0.5))
}
