// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package procutil

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v4/process"
)

// Backend names a Platform implementation.
type Backend string

const (
	// BackendCommand shells out to the platform's process and socket tools.
	BackendCommand Backend = "command"
	// BackendNative uses gopsutil system calls.
	BackendNative Backend = "native"
)

// ProcessRecord is one row of a process table snapshot.
type ProcessRecord struct {
	PID         int    `json:"pid"`
	PPID        int    `json:"ppid"`
	CommandLine string `json:"commandLine"`
}

// Platform is the operating-system capability used by the watcher.
type Platform interface {
	// ListProcesses returns a full process snapshot.
	ListProcesses(ctx context.Context) ([]ProcessRecord, error)

	// IsListening reports whether pid holds a listening TCP socket on port.
	IsListening(ctx context.Context, pid, port int) (bool, error)

	// Name identifies the implementation in logs.
	Name() string
}

// New returns the Platform for backend on the current OS.
// An empty backend selects BackendCommand.
func New(backend Backend) (Platform, error) {
	switch backend {
	case "", BackendCommand:
		return commandPlatform(), nil
	case BackendNative:
		return &nativePlatform{}, nil
	default:
		return nil, fmt.Errorf("unknown process backend %q (valid options: command, native)", backend)
	}
}

// Default returns the command-based Platform for the current OS.
func Default() Platform {
	return commandPlatform()
}

// IsProcessRunning checks if a process with the given PID is running.
func IsProcessRunning(pid int) bool {
	if pid <= 0 {
		return false
	}

	exists, err := process.PidExists(int32(pid))
	if err != nil {
		return false
	}
	return exists
}
