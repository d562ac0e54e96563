// Package output prints styled status lines for the quill CLI.
//
// Functions use lipgloss for styling but abstract away the details from
// callers. Everything goes to a single writer (stdout by default) so tests
// and the --quiet path can redirect it.
package output

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("green")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("red")).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("yellow")).Bold(true)
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("cyan"))
	stepStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	mu          sync.Mutex
	out         io.Writer = os.Stdout
	verboseMode bool
)

// SetVerbose enables or disables verbose output.
// The CLI calls this when the --verbose flag is set.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verboseMode = v
}

// SetWriter redirects all output and returns the previous writer.
func SetWriter(w io.Writer) io.Writer {
	mu.Lock()
	defer mu.Unlock()
	prev := out
	out = w
	return prev
}

// Success prints a completed operation, e.g. "Synchronized 3 files".
func Success(msg string) {
	writeLine(successStyle.Render("🪶 " + msg))
}

// Error prints a failure that needs user attention.
func Error(msg string) {
	writeLine(errorStyle.Render("❌ " + msg))
}

// Warn prints a non-fatal problem.
func Warn(msg string) {
	writeLine(warnStyle.Render("⚠️  " + msg))
}

// Info prints a status update.
func Info(msg string) {
	writeLine(infoStyle.Render("ℹ️  " + msg))
}

// Step prints an indented sub-item in gray.
func Step(msg string) {
	writeLine(stepStyle.Render("   " + msg))
}

// Verbose prints a debug line only when verbose mode is enabled.
func Verbose(msg string) {
	mu.Lock()
	v := verboseMode
	mu.Unlock()
	if v {
		writeLine(stepStyle.Render("🔍 " + msg))
	}
}

// Raw writes s unstyled, used for diffs that carry their own styling.
func Raw(s string) {
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprint(out, s)
}

func writeLine(s string) {
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprintln(out, s)
}
