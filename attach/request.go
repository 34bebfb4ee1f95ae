// Package attach turns a discovered debuggable process into an attach request
// and hands it to the debug-session host exactly once.
package attach

import (
	"fmt"

	"github.com/jongio/autoattach/matcher"
)

const (
	// DefaultType is the debugger type identifier sent with every request.
	DefaultType = "pike"

	// DefaultPort is the debug port used when neither the base configuration
	// nor the command line names one.
	DefaultPort = 4711

	// DefaultTimeout is the attach timeout in milliseconds.
	DefaultTimeout = 5000

	requestAttach = "attach"
)

// DebugConfig is the base configuration every derived request starts from.
// Zero-valued fields are treated as absent.
type DebugConfig struct {
	Type                   string            `mapstructure:"type" yaml:"type" json:"type,omitempty"`
	Port                   int               `mapstructure:"port" yaml:"port" json:"port,omitempty"`
	Timeout                int               `mapstructure:"timeout" yaml:"timeout" json:"timeout,omitempty"`
	SourceMaps             bool              `mapstructure:"sourceMaps" yaml:"sourceMaps,omitempty" json:"sourceMaps,omitempty"`
	OutFiles               []string          `mapstructure:"outFiles" yaml:"outFiles,omitempty" json:"outFiles,omitempty"`
	SourceMapPathOverrides map[string]string `mapstructure:"-" yaml:"sourceMapPathOverrides,omitempty" json:"sourceMapPathOverrides,omitempty"`
	SmartStep              bool              `mapstructure:"smartStep" yaml:"smartStep,omitempty" json:"smartStep,omitempty"`
	SkipFiles              []string          `mapstructure:"skipFiles" yaml:"skipFiles,omitempty" json:"skipFiles,omitempty"`
	ShowAsyncStacks        bool              `mapstructure:"showAsyncStacks" yaml:"showAsyncStacks,omitempty" json:"showAsyncStacks,omitempty"`
	Trace                  bool              `mapstructure:"trace" yaml:"trace,omitempty" json:"trace,omitempty"`
}

// Request is the attach action submitted to the debug-session host.
type Request struct {
	Type                   string            `json:"type"`
	Request                string            `json:"request"`
	DebugServer            int               `json:"debugServer"`
	Timeout                int               `json:"timeout"`
	Name                   string            `json:"name"`
	SourceMaps             bool              `json:"sourceMaps,omitempty"`
	OutFiles               []string          `json:"outFiles,omitempty"`
	SourceMapPathOverrides map[string]string `json:"sourceMapPathOverrides,omitempty"`
	SmartStep              bool              `json:"smartStep,omitempty"`
	SkipFiles              []string          `json:"skipFiles,omitempty"`
	ShowAsyncStacks        bool              `json:"showAsyncStacks,omitempty"`
	Trace                  bool              `json:"trace,omitempty"`

	// PID is the target process. It is not part of the wire format; the
	// display name carries it for the user.
	PID int `json:"-"`
}

// DisplayName is the user-facing name of the debug session for pid.
func DisplayName(pid int) string {
	return fmt.Sprintf("Process %d", pid)
}

// BuildRequest derives the attach request for pid from base. Passthrough
// fields are copied only when set in base. A --debugger-port=<n> argument in
// cmdline overrides both the default and the base port.
func BuildRequest(pid int, cmdline string, base DebugConfig) Request {
	req := Request{
		Type:        DefaultType,
		Request:     requestAttach,
		DebugServer: DefaultPort,
		Timeout:     DefaultTimeout,
		Name:        DisplayName(pid),
		PID:         pid,
	}

	if base.Type != "" {
		req.Type = base.Type
	}
	if base.Port > 0 {
		req.DebugServer = base.Port
	}
	if base.Timeout > 0 {
		req.Timeout = base.Timeout
	}
	if base.SourceMaps {
		req.SourceMaps = true
	}
	if len(base.OutFiles) > 0 {
		req.OutFiles = append([]string(nil), base.OutFiles...)
	}
	if len(base.SourceMapPathOverrides) > 0 {
		req.SourceMapPathOverrides = make(map[string]string, len(base.SourceMapPathOverrides))
		for k, v := range base.SourceMapPathOverrides {
			req.SourceMapPathOverrides[k] = v
		}
	}
	if base.SmartStep {
		req.SmartStep = true
	}
	if len(base.SkipFiles) > 0 {
		req.SkipFiles = append([]string(nil), base.SkipFiles...)
	}
	if base.ShowAsyncStacks {
		req.ShowAsyncStacks = true
	}
	if base.Trace {
		req.Trace = true
	}

	if port, ok := matcher.PortOverride(cmdline); ok {
		req.DebugServer = port
	}
	return req
}
