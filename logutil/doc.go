// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

// Package logutil provides the structured log sink for the auto-attach watcher,
// built on top of slog.
//
// # Basic Usage
//
//	// Initialize logging (typically in main.go)
//	logutil.SetupLogger(debug, structured)
//
//	// Log messages at different levels
//	logutil.Info("starting autoattach", "root", rootPID)
//	logutil.Warn("process enumeration failed", "error", err)
//
//	// Component-scoped logging
//	log := logutil.NewLogger("watcher").WithSession(id)
//	log.Info("attach succeeded", "pid", pid)
//
// # Debug Mode
//
// Debug logging can be enabled in two ways:
//   - Pass debug=true to SetupLogger
//   - Set AUTOATTACH_DEBUG=true environment variable
//
// # Log File
//
// OpenLogFile opens an append-only file; pass it together with stderr to
// SetupLoggerWithWriter through io.MultiWriter to keep a persistent record of
// start/stop and attach outcomes.
package logutil
