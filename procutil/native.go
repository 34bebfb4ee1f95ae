package procutil

import (
	"context"
	"fmt"
	"strings"

	"github.com/shirou/gopsutil/v4/net"
	"github.com/shirou/gopsutil/v4/process"
)

// nativePlatform reads the process table and socket state through gopsutil.
type nativePlatform struct{}

func (p *nativePlatform) Name() string { return "gopsutil" }

// ListProcesses skips processes that exit or deny access mid-scan, the same
// way unparseable lines are skipped by the command platforms.
func (p *nativePlatform) ListProcesses(ctx context.Context) ([]ProcessRecord, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}

	records := make([]ProcessRecord, 0, len(procs))
	for _, proc := range procs {
		ppid, err := proc.PpidWithContext(ctx)
		if err != nil {
			continue
		}
		cmdline, err := proc.CmdlineWithContext(ctx)
		if err != nil || strings.TrimSpace(cmdline) == "" {
			continue
		}
		records = append(records, ProcessRecord{
			PID:         int(proc.Pid),
			PPID:        int(ppid),
			CommandLine: cmdline,
		})
	}
	return records, nil
}

func (p *nativePlatform) IsListening(ctx context.Context, pid, port int) (bool, error) {
	conns, err := net.ConnectionsPidWithContext(ctx, "tcp", int32(pid))
	if err != nil {
		return false, fmt.Errorf("check listener: %w", err)
	}
	for _, c := range conns {
		if c.Status == "LISTEN" && int(c.Laddr.Port) == port {
			return true, nil
		}
	}
	return false, nil
}
