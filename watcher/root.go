package watcher

import (
	"os"
	"strconv"
)

// Environment variables consulted for the root process id, in order.
const (
	EnvRootPID   = "AUTOATTACH_ROOT_PID"
	EnvVSCodePID = "VSCODE_PID"
)

// ResolveRootPID picks the root of the watched tree. An explicit positive pid
// wins; otherwise the first valid environment variable is used, and finally
// the parent of the current process.
func ResolveRootPID(explicit int) int {
	if explicit > 0 {
		return explicit
	}
	for _, key := range []string{EnvRootPID, EnvVSCodePID} {
		if pid, err := strconv.Atoi(os.Getenv(key)); err == nil && pid > 0 {
			return pid
		}
	}
	return os.Getppid()
}
