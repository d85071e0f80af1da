// Package ecolog centralizes the run log so every clamp event, assessment
// failure, and configuration error prints with the same "Time: <t> ..."
// prefix (§7). The teacher logged ad hoc via fmt.Printf at each call site
// (server.go's "ping failed: %T %v"); this collects that into one place and
// colourises severity the way a TTY-aware CLI tool in the retrieval pack
// (Sumatoshi-tech-codefang) does with fatih/color, without forcing colour
// onto piped/CI output.
package ecolog

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// Severity distinguishes the log kinds named in §7.
type Severity int

const (
	Info Severity = iota
	Clamp
	AssessFailure
	ConfigError
)

var (
	clampColor  = color.New(color.FgYellow)
	failColor   = color.New(color.FgRed)
	configColor = color.New(color.FgRed, color.Bold)
)

// Logger writes timestamped run-log lines to an output stream.
type Logger struct {
	out io.Writer
}

// New returns a Logger writing to w.
func New(w io.Writer) *Logger {
	return &Logger{out: w}
}

// Default writes to stdout.
func Default() *Logger {
	return New(os.Stdout)
}

// Logf writes "Time: <t> <severity-colored> <msg>" to the log.
func (l *Logger) Logf(simTime float64, sev Severity, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	line := fmt.Sprintf("Time: %g %s", simTime, msg)
	switch sev {
	case Clamp:
		clampColor.Fprintln(l.out, line)
	case AssessFailure:
		failColor.Fprintln(l.out, line)
	case ConfigError:
		configColor.Fprintln(l.out, line)
	default:
		fmt.Fprintln(l.out, line)
	}
}

// Clampf logs a numerical clamp event tagged with (time, box, layer, group).
func (l *Logger) Clampf(simTime float64, box, layer int, group, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	l.Logf(simTime, Clamp, "box=%d layer=%d group=%s clamp: %s", box, layer, group, msg)
}

// AssessmentFailuref logs a per-stock assessment failure (§4.5, §7).
func (l *Logger) AssessmentFailuref(simTime float64, stock string, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	l.Logf(simTime, AssessFailure, "stock=%s assessment failed: %s", stock, msg)
}
