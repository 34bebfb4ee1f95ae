package attach

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/jongio/autoattach/cmdutil"
	"github.com/jongio/autoattach/notify"
)

// Attacher submits an attach request to the debug-session host.
// It reports whether the host accepted the request.
type Attacher interface {
	Attach(ctx context.Context, req Request) (bool, error)
}

// AttacherFunc adapts a function to the Attacher interface.
type AttacherFunc func(ctx context.Context, req Request) (bool, error)

// Attach calls f.
func (f AttacherFunc) Attach(ctx context.Context, req Request) (bool, error) {
	return f(ctx, req)
}

// JSONAttacher writes each request as one JSON line. A host reading the
// watcher's stdout starts the debug session from it.
type JSONAttacher struct {
	mu sync.Mutex
	w  io.Writer
}

// NewJSONAttacher creates a JSONAttacher writing to w.
func NewJSONAttacher(w io.Writer) *JSONAttacher {
	return &JSONAttacher{w: w}
}

// Attach encodes req to the writer. Writes from concurrent passes never interleave.
func (a *JSONAttacher) Attach(_ context.Context, req Request) (bool, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return false, fmt.Errorf("failed to marshal attach request: %w", err)
	}
	data = append(data, '\n')

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, err := a.w.Write(data); err != nil {
		return false, fmt.Errorf("failed to write attach request: %w", err)
	}
	return true, nil
}

// Environment variables passed to CommandAttacher scripts.
const (
	EnvPID  = "AUTOATTACH_PID"
	EnvPort = "AUTOATTACH_PORT"
	EnvName = "AUTOATTACH_NAME"
)

// CommandAttacher runs a shell script for each request. The request JSON is
// written to the script's stdin and the pid, port and name are exported as
// environment variables. Exit status zero means the attach succeeded.
type CommandAttacher struct {
	Script  string
	Shell   string
	Timeout time.Duration
}

// Attach runs the script.
func (a *CommandAttacher) Attach(ctx context.Context, req Request) (bool, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return false, fmt.Errorf("failed to marshal attach request: %w", err)
	}

	if a.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.Timeout)
		defer cancel()
	}

	_, err = cmdutil.RunShell(ctx, cmdutil.ShellCommand{
		Run:   a.Script,
		Shell: a.Shell,
		Env: []string{
			EnvPID + "=" + strconv.Itoa(req.PID),
			EnvPort + "=" + strconv.Itoa(req.DebugServer),
			EnvName + "=" + req.Name,
		},
		Stdin: bytes.NewReader(data),
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// NotifyingAttacher forwards to Next and reports the outcome as a desktop
// notification. Notification failures never change the attach result.
type NotifyingAttacher struct {
	Next     Attacher
	Notifier notify.Notifier
}

// Attach forwards req and notifies.
func (a *NotifyingAttacher) Attach(ctx context.Context, req Request) (bool, error) {
	ok, err := a.Next.Attach(ctx, req)

	n := notify.Notification{
		Title:     req.Name,
		Timestamp: time.Now(),
	}
	if ok {
		n.Message = fmt.Sprintf("Debugger attached on port %d", req.DebugServer)
		n.Severity = notify.SeverityInfo
	} else {
		n.Message = fmt.Sprintf("Debugger failed to attach on port %d", req.DebugServer)
		n.Severity = notify.SeverityWarning
	}
	_ = a.Notifier.Send(ctx, n)

	return ok, err
}
