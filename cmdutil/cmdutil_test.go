package cmdutil

import (
	"context"
	"errors"
	"runtime"
	"strings"
	"testing"
	"time"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("uses POSIX shell utilities")
	}
}

func TestRunLinesSplitsOutput(t *testing.T) {
	skipOnWindows(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	lines, err := RunLines(ctx, "sh", "-c", "printf 'one\\ntwo\\r\\nthree'")
	if err != nil {
		t.Fatalf("RunLines() error = %v", err)
	}
	want := []string{"one", "two", "three"}
	if len(lines) != len(want) {
		t.Fatalf("RunLines() = %q, want %q", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestRunLinesNonZeroExit(t *testing.T) {
	skipOnWindows(t)
	ctx := context.Background()

	lines, err := RunLines(ctx, "sh", "-c", "echo partial; exit 3")
	if err == nil {
		t.Fatal("RunLines() with non-zero exit should fail")
	}
	if lines != nil {
		t.Errorf("RunLines() lines = %q, want nil on failure", lines)
	}
}

func TestRunLinesStderrIsFailure(t *testing.T) {
	skipOnWindows(t)
	ctx := context.Background()

	_, err := RunLines(ctx, "sh", "-c", "echo ok; echo oops 1>&2")
	if !errors.Is(err, ErrStderrOutput) {
		t.Fatalf("RunLines() error = %v, want ErrStderrOutput", err)
	}
}

func TestRunLinesInvalidCommand(t *testing.T) {
	_, err := RunLines(context.Background(), "nonexistent-command-xyz-123")
	if err == nil {
		t.Error("RunLines() with invalid command should fail")
	}
}

func TestRunLinesCanceled(t *testing.T) {
	skipOnWindows(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := RunLines(ctx, "sleep", "10"); err == nil {
		t.Error("RunLines() with canceled context should fail")
	}
}

func TestRunWithInput(t *testing.T) {
	skipOnWindows(t)
	out, err := RunWithInput(context.Background(), "cat", nil, nil, strings.NewReader("payload"))
	if err != nil {
		t.Fatalf("RunWithInput() error = %v", err)
	}
	if string(out) != "payload" {
		t.Errorf("RunWithInput() = %q, want %q", out, "payload")
	}
}

func TestRunShellEnvAndStdin(t *testing.T) {
	skipOnWindows(t)
	out, err := RunShell(context.Background(), ShellCommand{
		Run:   `printf '%s:' "$GREETING"; cat`,
		Shell: ShellSh,
		Env:   []string{"GREETING=hello"},
		Stdin: strings.NewReader("world"),
	})
	if err != nil {
		t.Fatalf("RunShell() error = %v", err)
	}
	if string(out) != "hello:world" {
		t.Errorf("RunShell() = %q, want %q", out, "hello:world")
	}
}

func TestRunShellEmptyScript(t *testing.T) {
	out, err := RunShell(context.Background(), ShellCommand{Run: "   "})
	if err != nil || out != nil {
		t.Errorf("RunShell(empty) = %q, %v; want nil, nil", out, err)
	}
}

func TestRunShellFailure(t *testing.T) {
	skipOnWindows(t)
	_, err := RunShell(context.Background(), ShellCommand{Run: "exit 1", Shell: ShellSh})
	if err == nil {
		t.Error("RunShell() with failing script should fail")
	}
}

func TestGetDefaultShell(t *testing.T) {
	shell := GetDefaultShell()
	if runtime.GOOS == "windows" {
		if shell != ShellPwsh && shell != ShellPowerShell && shell != ShellCmd {
			t.Errorf("GetDefaultShell() = %q, unexpected on windows", shell)
		}
		return
	}
	if shell != ShellBash && shell != ShellSh {
		t.Errorf("GetDefaultShell() = %q, want bash or sh", shell)
	}
}

func TestShellArgs(t *testing.T) {
	tests := []struct {
		shell    string
		wantFlag string
	}{
		{ShellBash, "-c"},
		{ShellSh, "-c"},
		{ShellZsh, "-c"},
		{ShellCmd, "/c"},
		{ShellPwsh, "-Command"},
		{ShellPowerShell, "-Command"},
	}

	for _, tt := range tests {
		t.Run(tt.shell, func(t *testing.T) {
			args := shellArgs(tt.shell, "echo hi")
			found := false
			for _, arg := range args {
				if arg == tt.wantFlag {
					found = true
				}
			}
			if !found {
				t.Errorf("args %q missing %q", args, tt.wantFlag)
			}
			if args[len(args)-1] != "echo hi" {
				t.Errorf("last arg = %q, want script", args[len(args)-1])
			}
		})
	}
}

func TestLineWriterPartialLines(t *testing.T) {
	var got []string
	lw := newLineWriter(func(line string) { got = append(got, line) })

	_, _ = lw.Write([]byte("ab"))
	_, _ = lw.Write([]byte("c\nde"))
	if len(got) != 1 || got[0] != "abc" {
		t.Fatalf("after writes got %q, want [abc]", got)
	}
	lw.Flush()
	if len(got) != 2 || got[1] != "de" {
		t.Errorf("after flush got %q, want [abc de]", got)
	}
}

func TestLineWriterLimit(t *testing.T) {
	lw := newLineWriter(nil)
	lw.limit = 4

	if _, err := lw.Write([]byte("abc")); err != nil {
		t.Fatalf("Write() under limit error = %v", err)
	}
	if _, err := lw.Write([]byte("de")); !errors.Is(err, ErrOutputTooLarge) {
		t.Errorf("Write() over limit error = %v, want ErrOutputTooLarge", err)
	}
}
