//go:build !windows
// +build !windows

package procutil

// commandPlatform returns the ps/lsof platform on Unix-like systems.
func commandPlatform() Platform {
	return newPosixPlatform()
}
