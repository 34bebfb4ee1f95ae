// Package config loads the autoattach settings file.
//
// Settings come from autoattach.yaml, searched for in the path given by
// --config, then .autoattach/ under the working directory, then the user
// config directory. Any key can be overridden from the environment with the
// AUTOATTACH_ prefix, nested keys joined by underscores:
//
//	AUTOATTACH_INTERVAL=3s
//	AUTOATTACH_DEBUGGER_PORT=4800
//	AUTOATTACH_METRICS_ENABLED=true
//
// A Store keeps the decoded settings current while the file is watched, so
// flipping "enabled" in the file starts or stops the watcher without a
// restart.
package config
