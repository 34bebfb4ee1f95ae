package cmdutil

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"strings"
)

// Shell type constants for platform-specific shell detection.
const (
	ShellSh         = "sh"
	ShellBash       = "bash"
	ShellPwsh       = "pwsh"
	ShellPowerShell = "powershell"
	ShellCmd        = "cmd"
	ShellZsh        = "zsh"
)

// ShellCommand describes an inline script run through a shell.
type ShellCommand struct {
	Run   string    // Script to run
	Shell string    // Shell to use (bash, sh, pwsh, cmd, zsh) - auto-detected if empty
	Env   []string  // Additional environment variables (KEY=VALUE format)
	Stdin io.Reader // Optional data written to the script's stdin
}

// RunShell runs an inline script and returns its combined output.
// An empty script is a no-op.
func RunShell(ctx context.Context, sc ShellCommand) ([]byte, error) {
	if strings.TrimSpace(sc.Run) == "" {
		return nil, nil
	}

	shell := sc.Shell
	if shell == "" {
		shell = GetDefaultShell()
	}

	output, err := RunWithInput(ctx, shell, shellArgs(shell, sc.Run), sc.Env, sc.Stdin)
	if err != nil {
		return output, fmt.Errorf("%s: %w", shell, err)
	}
	return output, nil
}

// GetDefaultShell returns the default shell for the current platform.
func GetDefaultShell() string {
	if runtime.GOOS == "windows" {
		if _, err := exec.LookPath(ShellPwsh); err == nil {
			return ShellPwsh
		}
		if _, err := exec.LookPath(ShellPowerShell); err == nil {
			return ShellPowerShell
		}
		return ShellCmd
	}
	if _, err := exec.LookPath(ShellBash); err == nil {
		return ShellBash
	}
	return ShellSh
}

// shellArgs returns the arguments that make shell run script.
func shellArgs(shell, script string) []string {
	shellLower := strings.ToLower(shell)

	switch {
	case strings.Contains(shellLower, "pwsh") || strings.Contains(shellLower, "powershell"):
		return []string{"-NoProfile", "-Command", script}
	case strings.Contains(shellLower, "cmd"):
		return []string{"/c", script}
	default:
		return []string{"-c", script}
	}
}
