//go:build windows
// +build windows

package procutil

// commandPlatform returns the wmic/netstat platform on Windows.
func commandPlatform() Platform {
	return newWindowsPlatform()
}
