// Package matcher classifies process command lines for the auto-attach watcher.
//
// Two independent checks are applied to a command line:
//
//   - Port override: a "--debugger-port=<n>" argument names the port the
//     debuggee listens on, replacing the configured default.
//   - Debug flag: a bare "--debugger" or "--" argument marks a process that
//     was started with its debug listener on the default port.
//
// A command line is debuggable when either check succeeds. All functions are
// pure and safe for concurrent use.
package matcher

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	// PortFlag is the argument prefix carrying a port override.
	PortFlag = "--debugger-port="

	// DebugFlag enables the debug listener on the default port.
	DebugFlag = "--debugger"

	// bareFlag is the short form of DebugFlag.
	bareFlag = "--"

	maxPort = 65535
)

var portPattern = regexp.MustCompile(`(?:^|\s)--debugger-port=(\d+)`)

// PortOverride extracts the port from a "--debugger-port=<n>" argument.
// The argument must follow whitespace or start the line; the number ends at
// the first non-digit, so an override inside a quoted "sh -c" script is found.
// It reports false when no such argument is present or the number is not a
// valid TCP port.
func PortOverride(cmdline string) (int, bool) {
	m := portPattern.FindStringSubmatch(cmdline)
	if m == nil {
		return 0, false
	}
	port, err := strconv.Atoi(m[1])
	if err != nil || port < 1 || port > maxPort {
		return 0, false
	}
	return port, true
}

// HasDebugFlag reports whether the command line contains a bare "--debugger"
// or "--" argument.
func HasDebugFlag(cmdline string) bool {
	for _, field := range strings.Fields(cmdline) {
		if field == DebugFlag || field == bareFlag {
			return true
		}
	}
	return false
}

// IsDebuggable reports whether a process with this command line exposes a
// debug endpoint.
func IsDebuggable(cmdline string) bool {
	if _, ok := PortOverride(cmdline); ok {
		return true
	}
	return HasDebugFlag(cmdline)
}

// Filter restricts dispatch to command lines containing a marker substring,
// typically the interpreter name. The zero value allows everything.
type Filter struct {
	Contains string
}

// Allows reports whether cmdline passes the filter.
func (f Filter) Allows(cmdline string) bool {
	return f.Contains == "" || strings.Contains(cmdline, f.Contains)
}
