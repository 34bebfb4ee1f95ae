package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const sampleHeader = `# autoattach settings
#
# Every key can be overridden from the environment, for example
# AUTOATTACH_ENABLED=false or AUTOATTACH_DEBUGGER_PORT=4800.
#
#   enabled:        Watch for debuggable processes
#   interval:       Time between discovery passes
#   backend:        Process enumeration: command (ps/wmic) or native
#   commandFilter:  Only attach to command lines containing this text ("" = all)
#   rootPid:        Root of the watched tree (0 = AUTOATTACH_ROOT_PID, VSCODE_PID, parent)
#   probeRate:      Max port liveness probes per second (0 = unlimited)
#   notify:         Show a desktop notification for each attach
#   debugger:       Base attach configuration; --debugger-port=<n> overrides port
#   attach.mode:    stdout (JSON lines) or command (run attach.command per request)
#   metrics:        Prometheus endpoint on metrics.port
#   breaker:        Consecutive enumeration failures before backing off, and for how long

`

// SaveSample writes a commented autoattach.yaml with default settings into
// dir and returns its path. An existing file is left alone.
func SaveSample(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}

	path := filepath.Join(dir, FileName+".yaml")
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("%s already exists: %w", path, os.ErrExist)
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, []byte(sampleHeader+string(data)), 0644); err != nil {
		return "", fmt.Errorf("failed to write config: %w", err)
	}
	return path, nil
}
