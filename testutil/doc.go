// Package testutil provides helpers shared by the autoattach tests: stdout
// capture for CLI commands and temporary files with automatic cleanup.
//
// All functions call t.Helper() so failures point at the calling test.
package testutil
