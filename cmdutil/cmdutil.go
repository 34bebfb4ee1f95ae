// Package cmdutil provides subprocess execution helpers used by the process
// watcher: capturing a command's stdout line by line, treating any stderr
// output as failure, and running shell commands with data on stdin.
package cmdutil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// MaxOutputBytes caps how much stdout a single command may produce.
const MaxOutputBytes = 1000 * 1024

var (
	// ErrStderrOutput is returned when a command exits cleanly but wrote to stderr.
	ErrStderrOutput = errors.New("command wrote to stderr")

	// ErrOutputTooLarge is returned when stdout exceeds MaxOutputBytes.
	ErrOutputTooLarge = errors.New("command output exceeds limit")
)

// OutputLineHandler is a callback for processing output lines.
type OutputLineHandler func(line string)

// RunLines runs a command and returns its stdout split into lines.
// The call fails when the command exits non-zero, when it writes anything to
// stderr, or when stdout grows past MaxOutputBytes.
func RunLines(ctx context.Context, name string, args ...string) ([]string, error) {
	var lines []string
	err := StreamLines(ctx, name, args, func(line string) {
		lines = append(lines, line)
	})
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// StreamLines runs a command and calls handler for each stdout line.
// Trailing carriage returns are stripped so CRLF output parses the same as LF.
// Lines already delivered to handler are not retracted on failure; callers
// that need all-or-nothing semantics should use RunLines.
func StreamLines(ctx context.Context, name string, args []string, handler OutputLineHandler) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = os.Environ()

	lw := newLineWriter(func(line string) {
		if handler != nil {
			handler(strings.TrimRight(line, "\r"))
		}
	})
	lw.limit = MaxOutputBytes

	var stderr bytes.Buffer
	cmd.Stdout = lw
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(err, ErrOutputTooLarge) {
			return fmt.Errorf("%s: %w", name, ErrOutputTooLarge)
		}
		return fmt.Errorf("command failed: %s: %w", name, err)
	}
	lw.Flush()

	if stderr.Len() > 0 {
		return fmt.Errorf("%s: %w: %s", name, ErrStderrOutput, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// RunWithInput runs a command with input on stdin and returns its combined output.
// The command inherits environment variables from the parent process plus env.
func RunWithInput(ctx context.Context, name string, args []string, env []string, input io.Reader) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(os.Environ(), env...)
	cmd.Stdin = input

	output, err := cmd.CombinedOutput()
	if err != nil {
		return output, fmt.Errorf("command failed: %w", err)
	}

	return output, nil
}
