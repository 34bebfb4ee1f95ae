// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package logutil

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewLoggerCreatesWithComponent(t *testing.T) {
	var buf bytes.Buffer
	SetupLoggerWithWriter(&buf, false, false)

	logger := NewLogger("mycomponent")
	if logger == nil {
		t.Fatal("NewLogger returned nil")
	}
	if logger.Component() != "mycomponent" {
		t.Errorf("expected component 'mycomponent', got %q", logger.Component())
	}

	logger.Info("hello")
	output := buf.String()
	if !strings.Contains(output, "component=mycomponent") {
		t.Errorf("expected output to contain component=mycomponent, got: %s", output)
	}
}

func TestWithSessionAddsContext(t *testing.T) {
	var buf bytes.Buffer
	SetupLoggerWithWriter(&buf, false, false)

	logger := NewLogger("comp").WithSession(7)
	logger.Info("test")

	output := buf.String()
	if !strings.Contains(output, "component=comp") {
		t.Errorf("expected component=comp in output, got: %s", output)
	}
	if !strings.Contains(output, "session=7") {
		t.Errorf("expected session=7 in output, got: %s", output)
	}
}

func TestWithPIDAddsContext(t *testing.T) {
	var buf bytes.Buffer
	SetupLoggerWithWriter(&buf, false, false)

	logger := NewLogger("comp").WithPID(101)
	logger.Info("test")

	output := buf.String()
	if !strings.Contains(output, "component=comp") {
		t.Errorf("expected component=comp in output, got: %s", output)
	}
	if !strings.Contains(output, "pid=101") {
		t.Errorf("expected pid=101 in output, got: %s", output)
	}
}

func TestWithFieldsAddsArbitraryFields(t *testing.T) {
	var buf bytes.Buffer
	SetupLoggerWithWriter(&buf, false, false)

	logger := NewLogger("comp").WithFields("port", 4711, "backend", "native")
	logger.Info("test")

	output := buf.String()
	if !strings.Contains(output, "port=4711") {
		t.Errorf("expected port=4711 in output, got: %s", output)
	}
	if !strings.Contains(output, "backend=native") {
		t.Errorf("expected backend=native in output, got: %s", output)
	}
}

func TestChainingContexts(t *testing.T) {
	var buf bytes.Buffer
	SetupLoggerWithWriter(&buf, false, false)

	logger := NewLogger("watcher").WithSession(3).WithPID(4712)
	logger.Info("chain test")

	output := buf.String()
	if !strings.Contains(output, "component=watcher") {
		t.Errorf("expected component=watcher, got: %s", output)
	}
	if !strings.Contains(output, "session=3") {
		t.Errorf("expected session=3, got: %s", output)
	}
	if !strings.Contains(output, "pid=4712") {
		t.Errorf("expected pid=4712, got: %s", output)
	}
	// Component should still be the original
	if logger.Component() != "watcher" {
		t.Errorf("expected component 'watcher', got %q", logger.Component())
	}
}

func TestComponentReturnsCorrectName(t *testing.T) {
	SetupLogger(false, false)

	logger := NewLogger("test-component")
	if logger.Component() != "test-component" {
		t.Errorf("expected 'test-component', got %q", logger.Component())
	}

	// Chaining should preserve the component name
	chained := logger.WithSession(1).WithPID(2)
	if chained.Component() != "test-component" {
		t.Errorf("expected 'test-component' after chaining, got %q", chained.Component())
	}
}

func TestLogLevels(t *testing.T) {
	tests := []struct {
		name    string
		logFunc func(*ComponentLogger, string, ...any)
		level   string
	}{
		{"debug", (*ComponentLogger).Debug, "DEBUG"},
		{"info", (*ComponentLogger).Info, "INFO"},
		{"warn", (*ComponentLogger).Warn, "WARN"},
		{"error", (*ComponentLogger).Error, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			SetupLoggerWithWriter(&buf, true, false) // debug=true to capture all levels

			logger := NewLogger("lvl-test")
			tt.logFunc(logger, "level test msg", "k", "v")

			output := buf.String()
			if !strings.Contains(output, tt.level) {
				t.Errorf("expected level %s in output, got: %s", tt.level, output)
			}
			if !strings.Contains(output, "level test msg") {
				t.Errorf("expected message in output, got: %s", output)
			}
		})
	}
}

func TestLogLevelsStructured(t *testing.T) {
	var buf bytes.Buffer
	SetupLoggerWithWriter(&buf, true, true) // structured JSON

	logger := NewLogger("json-test")
	logger.Info("structured msg", "count", 42)

	output := buf.String()
	if !strings.Contains(output, `"component":"json-test"`) {
		t.Errorf("expected component in JSON output, got: %s", output)
	}
	if !strings.Contains(output, `"msg":"structured msg"`) {
		t.Errorf("expected msg in JSON output, got: %s", output)
	}
	if !strings.Contains(output, `"count":42`) {
		t.Errorf("expected count in JSON output, got: %s", output)
	}
}
