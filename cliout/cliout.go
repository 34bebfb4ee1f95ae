package cliout

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/term"
)

// Format represents the output format.
type Format string

const (
	// FormatDefault is the default human-readable format.
	FormatDefault Format = "default"
	// FormatJSON is JSON format.
	FormatJSON Format = "json"
)

// ANSI color codes
const (
	Reset = "\033[0m"
	Bold  = "\033[1m"
	Dim   = "\033[2m"

	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Cyan   = "\033[36m"
	Gray   = "\033[90m"

	BrightRed    = "\033[91m"
	BrightGreen  = "\033[92m"
	BrightYellow = "\033[93m"
	BrightBlue   = "\033[94m"
)

// Unicode symbols and their ASCII fallbacks
const (
	SymbolCheck   = "✓"
	SymbolCross   = "✗"
	SymbolWarning = "⚠"
	SymbolInfo    = "ℹ"
	SymbolDot     = "•"

	ASCIICheck   = "[+]"
	ASCIICross   = "[-]"
	ASCIIWarning = "[!]"
	ASCIIInfo    = "[i]"
	ASCIIDot     = "*"
)

var (
	mu           sync.RWMutex
	globalFormat = FormatDefault
	colorMode    *bool
	out          io.Writer
)

var supportsUnicode = detectUnicodeSupport()

// SetFormat sets the global output format.
func SetFormat(format string) error {
	mu.Lock()
	defer mu.Unlock()
	switch format {
	case "default", "":
		globalFormat = FormatDefault
	case "json":
		globalFormat = FormatJSON
	default:
		return fmt.Errorf("invalid output format: %s (valid options: default, json)", format)
	}
	return nil
}

// GetFormat returns the current output format.
func GetFormat() Format {
	mu.RLock()
	defer mu.RUnlock()
	return globalFormat
}

// IsJSON returns true if the output format is JSON.
func IsJSON() bool {
	return GetFormat() == FormatJSON
}

// SetOutput redirects output. nil restores os.Stdout.
func SetOutput(w io.Writer) {
	mu.Lock()
	out = w
	mu.Unlock()
}

// ForceColor enables colour regardless of terminal detection.
func ForceColor() {
	setColor(true)
}

// NoColor disables colour.
func NoColor() {
	setColor(false)
}

// ResetColor returns to terminal detection.
func ResetColor() {
	mu.Lock()
	colorMode = nil
	mu.Unlock()
}

func setColor(enabled bool) {
	mu.Lock()
	colorMode = &enabled
	mu.Unlock()
}

func writer() io.Writer {
	mu.RLock()
	defer mu.RUnlock()
	if out != nil {
		return out
	}
	return os.Stdout
}

// colorEnabled reports whether ANSI sequences should be emitted.
func colorEnabled() bool {
	mu.RLock()
	forced := colorMode
	w := out
	mu.RUnlock()

	if forced != nil {
		return *forced
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if w == nil {
		w = os.Stdout
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func paint(color, s string) string {
	if !colorEnabled() {
		return s
	}
	return color + s + Reset
}

func detectUnicodeSupport() bool {
	if runtime.GOOS != "windows" {
		return true
	}
	for _, key := range []string{"WT_SESSION", "ConEmuPID", "PSModulePath", "POWERSHELL_DISTRIBUTION_CHANNEL", "TERM"} {
		if os.Getenv(key) != "" {
			return true
		}
	}
	return os.Getenv("TERM_PROGRAM") == "vscode"
}

func getIcon(unicode, ascii string) string {
	if supportsUnicode {
		return unicode
	}
	return ascii
}

func printf(format string, args ...interface{}) {
	fmt.Fprintf(writer(), format, args...)
}

// PrintJSON prints data as indented JSON.
func PrintJSON(data interface{}) error {
	encoder := json.NewEncoder(writer())
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// Print outputs data in the configured format.
// For default format, uses the formatter function.
// For JSON format, marshals the data object.
func Print(data interface{}, formatter func()) error {
	if IsJSON() {
		return PrintJSON(data)
	}
	formatter()
	return nil
}

// CommandHeader prints a minimal header naming the subcommand. It is skipped
// in JSON mode.
func CommandHeader(command string) {
	if IsJSON() {
		return
	}
	printf("\n%s\n%s\n\n", paint(Bold, "autoattach "+command), strings.Repeat("─", 30))
}

// Success prints a success message with green checkmark
func Success(format string, args ...interface{}) {
	printf("%s %s\n", paint(BrightGreen, getIcon(SymbolCheck, ASCIICheck)), fmt.Sprintf(format, args...))
}

// Error prints an error message with red X
func Error(format string, args ...interface{}) {
	printf("%s %s\n", paint(BrightRed, getIcon(SymbolCross, ASCIICross)), fmt.Sprintf(format, args...))
}

// Warning prints a warning message with yellow triangle
func Warning(format string, args ...interface{}) {
	printf("%s  %s\n", paint(BrightYellow, getIcon(SymbolWarning, ASCIIWarning)), fmt.Sprintf(format, args...))
}

// Info prints an info message with blue info icon
func Info(format string, args ...interface{}) {
	printf("%s  %s\n", paint(BrightBlue, getIcon(SymbolInfo, ASCIIInfo)), fmt.Sprintf(format, args...))
}

// Label prints a label and value pair
func Label(label, value string) {
	printf("   %s %s\n", paint(Dim, fmt.Sprintf("%-12s", label+":")), value)
}

// Hint prints compact hints on a single line.
func Hint(hints ...string) {
	if len(hints) == 0 {
		return
	}
	sep := " " + getIcon(SymbolDot, ASCIIDot) + " "
	printf("%s\n", paint(Dim, strings.Join(hints, sep)))
}

// Status colours a classification word.
func Status(status string) string {
	switch strings.ToLower(status) {
	case "attached", "listening", "running", "ok":
		return paint(BrightGreen, status)
	case "debuggable", "pending", "waiting":
		return paint(BrightYellow, status)
	case "failed", "error":
		return paint(BrightRed, status)
	case "tracked", "root":
		return paint(BrightBlue, status)
	default:
		return status
	}
}

// TableRow represents a row in a table as a map of column header to value.
type TableRow map[string]string

// Table prints a table with the given headers and rows. Column widths are
// computed from the uncoloured cell text.
func Table(headers []string, rows []TableRow) {
	if len(rows) == 0 {
		return
	}

	widths := make(map[string]int, len(headers))
	for _, header := range headers {
		widths[header] = len(header)
	}
	for _, row := range rows {
		for _, header := range headers {
			if n := len(row[header]); n > widths[header] {
				widths[header] = n
			}
		}
	}

	var b strings.Builder
	b.WriteString("   ")
	for _, header := range headers {
		b.WriteString(paint(Bold, fmt.Sprintf("%-*s", widths[header], header)))
		b.WriteString("  ")
	}
	b.WriteString("\n   ")
	for _, header := range headers {
		b.WriteString(strings.Repeat("─", widths[header]) + "  ")
	}
	b.WriteString("\n")
	for _, row := range rows {
		b.WriteString("   ")
		for _, header := range headers {
			fmt.Fprintf(&b, "%-*s  ", widths[header], row[header])
		}
		b.WriteString("\n")
	}
	printf("%s", b.String())
}
