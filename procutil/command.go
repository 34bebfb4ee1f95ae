package procutil

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jongio/autoattach/cmdutil"
)

// runFunc runs a command and returns its stdout lines.
type runFunc func(ctx context.Context, name string, args ...string) ([]string, error)

// posixPlatform lists processes with ps and checks listeners with lsof.
type posixPlatform struct {
	run runFunc
}

func newPosixPlatform() *posixPlatform {
	return &posixPlatform{run: cmdutil.RunLines}
}

func (p *posixPlatform) Name() string { return "ps/lsof" }

// ListProcesses runs ps with -ax so processes started under other users
// (for example via sudo) are included.
func (p *posixPlatform) ListProcesses(ctx context.Context) ([]ProcessRecord, error) {
	lines, err := p.run(ctx, "ps", "-ax", "-o", "pid=,ppid=,command=")
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}
	return parseRecords(lines, ParsePosixLine), nil
}

func (p *posixPlatform) IsListening(ctx context.Context, pid, port int) (bool, error) {
	lines, err := p.run(ctx, "lsof", "-t", "-a", "-n",
		"-p", strconv.Itoa(pid), "-sTCP:LISTEN", "-iTCP:"+strconv.Itoa(port))
	if err != nil {
		return false, fmt.Errorf("check listener: %w", err)
	}
	return containsPID(lines, pid), nil
}

// windowsPlatform lists processes with wmic and checks listeners with netstat.
type windowsPlatform struct {
	run runFunc
}

func newWindowsPlatform() *windowsPlatform {
	return &windowsPlatform{run: cmdutil.RunLines}
}

func (p *windowsPlatform) Name() string { return "wmic/netstat" }

func (p *windowsPlatform) ListProcesses(ctx context.Context) ([]ProcessRecord, error) {
	lines, err := p.run(ctx, "wmic", "process", "get", "CommandLine,ParentProcessId,ProcessId")
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}
	return parseRecords(lines, ParseWindowsLine), nil
}

func (p *windowsPlatform) IsListening(ctx context.Context, pid, port int) (bool, error) {
	lines, err := p.run(ctx, "netstat", "-ano", "-p", "TCP")
	if err != nil {
		return false, fmt.Errorf("check listener: %w", err)
	}
	return netstatListening(lines, pid, port), nil
}
