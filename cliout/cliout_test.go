package cliout

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

// capture redirects package output into a buffer for the duration of fn.
func capture(t *testing.T, fn func()) string {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(nil) })
	fn()
	return buf.String()
}

func resetState(t *testing.T) {
	t.Helper()
	if err := SetFormat("default"); err != nil {
		t.Fatal(err)
	}
	ResetColor()
	t.Cleanup(func() {
		_ = SetFormat("default")
		ResetColor()
	})
}

func TestSetFormat(t *testing.T) {
	resetState(t)

	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"default", FormatDefault, false},
		{"", FormatDefault, false},
		{"json", FormatJSON, false},
		{"yaml", FormatDefault, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_ = SetFormat("default")
			err := SetFormat(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SetFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if GetFormat() != tt.want {
				t.Errorf("GetFormat() = %v, want %v", GetFormat(), tt.want)
			}
		})
	}
}

func TestPrintJSONMode(t *testing.T) {
	resetState(t)
	_ = SetFormat("json")

	called := false
	output := capture(t, func() {
		if err := Print(map[string]int{"pid": 101}, func() { called = true }); err != nil {
			t.Fatal(err)
		}
	})

	if called {
		t.Error("formatter must not run in JSON mode")
	}
	var decoded map[string]int
	if err := json.Unmarshal([]byte(output), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, output)
	}
	if decoded["pid"] != 101 {
		t.Errorf("pid = %d, want 101", decoded["pid"])
	}
}

func TestPrintDefaultMode(t *testing.T) {
	resetState(t)

	output := capture(t, func() {
		_ = Print(nil, func() { Success("attached to %d", 101) })
	})

	if !strings.Contains(output, "attached to 101") {
		t.Errorf("unexpected output %q", output)
	}
}

func TestNoColorOutsideTerminal(t *testing.T) {
	resetState(t)

	output := capture(t, func() {
		Error("boom")
		Label("Port", "4712")
	})

	if strings.Contains(output, "\033[") {
		t.Errorf("buffer output must not contain ANSI sequences: %q", output)
	}
}

func TestForceColor(t *testing.T) {
	resetState(t)
	ForceColor()

	output := capture(t, func() { Warning("slow") })
	if !strings.Contains(output, BrightYellow) {
		t.Errorf("expected colour sequence in %q", output)
	}

	NoColor()
	if got := Status("attached"); got != "attached" {
		t.Errorf("Status with colour disabled = %q", got)
	}
}

func TestCommandHeaderSkippedInJSON(t *testing.T) {
	resetState(t)

	output := capture(t, func() { CommandHeader("ps") })
	if !strings.Contains(output, "autoattach ps") {
		t.Errorf("missing header in %q", output)
	}

	_ = SetFormat("json")
	output = capture(t, func() { CommandHeader("ps") })
	if output != "" {
		t.Errorf("header printed in JSON mode: %q", output)
	}
}

func TestTable(t *testing.T) {
	resetState(t)

	output := capture(t, func() {
		Table([]string{"PID", "Command"}, []TableRow{
			{"PID": "100", "Command": "host"},
			{"PID": "101", "Command": "pike --debugger-port=4712 main.pike"},
		})
	})

	lines := strings.Split(strings.TrimRight(output, "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header, separator and 2 rows, got %d lines:\n%s", len(lines), output)
	}
	if !strings.Contains(lines[0], "PID") || !strings.Contains(lines[0], "Command") {
		t.Errorf("bad header line %q", lines[0])
	}
	if !strings.Contains(lines[3], "--debugger-port=4712") {
		t.Errorf("bad row %q", lines[3])
	}
}

func TestTableEmpty(t *testing.T) {
	resetState(t)

	if output := capture(t, func() { Table([]string{"PID"}, nil) }); output != "" {
		t.Errorf("expected no output, got %q", output)
	}
}

func TestHint(t *testing.T) {
	resetState(t)

	output := capture(t, func() {
		Hint()
		Hint("Press Ctrl+C to stop", "Use --debug for details")
	})
	if strings.Count(output, "\n") != 1 {
		t.Errorf("expected a single line, got %q", output)
	}
}
