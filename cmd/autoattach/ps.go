package main

import (
	"strconv"

	"github.com/jongio/autoattach/attach"
	"github.com/jongio/autoattach/cliout"
	"github.com/jongio/autoattach/matcher"
	"github.com/jongio/autoattach/procutil"
	"github.com/jongio/autoattach/tracker"
	"github.com/jongio/autoattach/watcher"
	"github.com/spf13/cobra"
)

const maxCommandWidth = 80

// psRow is one tracked process as shown by the ps command.
type psRow struct {
	PID         int    `json:"pid"`
	PPID        int    `json:"ppid"`
	State       string `json:"state"`
	Port        int    `json:"port,omitempty"`
	Listening   *bool  `json:"listening,omitempty"`
	CommandLine string `json:"commandLine"`
}

type psOptions struct {
	root    int
	probe   bool
	backend *enumValue
}

func newPsCmd(root *rootOptions) *cobra.Command {
	opts := &psOptions{
		backend: newEnumValue("", string(procutil.BackendCommand), string(procutil.BackendNative)),
	}

	cmd := &cobra.Command{
		Use:   "ps",
		Short: "Show the watched process tree and which processes are debuggable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPs(cmd, root, opts)
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&opts.root, "root", 0, "Root process id (default: $AUTOATTACH_ROOT_PID, $VSCODE_PID, then parent)")
	flags.BoolVar(&opts.probe, "probe", false, "Check whether each debug port is listening")
	flags.Var(opts.backend, "backend", "Process enumeration backend ("+opts.backend.Allowed()+")")
	return cmd
}

func runPs(cmd *cobra.Command, root *rootOptions, opts *psOptions) error {
	_, cfg, closeLog, err := root.loadConfig(cmd)
	if err != nil {
		return err
	}
	defer closeLog()

	backend := cfg.Backend
	if b := opts.backend.String(); b != "" {
		backend = b
	}
	platform, err := root.newPlatform(procutil.Backend(backend))
	if err != nil {
		return err
	}

	rootPID := opts.root
	if rootPID <= 0 {
		rootPID = watcher.ResolveRootPID(cfg.RootPID)
	}

	records, err := platform.ListProcesses(cmd.Context())
	if err != nil {
		return err
	}

	rows := classify(cmd, platform, records, rootPID, cfg.Debugger, matcher.Filter{Contains: cfg.CommandFilter}, opts.probe)

	return cliout.Print(rows, func() {
		cliout.CommandHeader("ps")
		cliout.Label("Root", rootLabel(rootPID))
		cliout.Label("Backend", platform.Name())
		cliout.Label("Processes", strconv.Itoa(len(records)))
		if len(rows) == 0 {
			cliout.Warning("no processes found under root %d", rootPID)
			return
		}
		printRows(rows)
	})
}

// rootLabel names the root pid and flags it when the process has exited.
func rootLabel(pid int) string {
	label := strconv.Itoa(pid)
	if !procutil.IsProcessRunning(pid) {
		label += " (not running)"
	}
	return label
}

// classify builds one row per process in the tree rooted at rootPID.
func classify(cmd *cobra.Command, platform procutil.Platform, records []procutil.ProcessRecord, rootPID int, base attach.DebugConfig, filter matcher.Filter, probe bool) []psRow {
	t := tracker.New(rootPID)
	t.Update(records)

	byPID := make(map[int]procutil.ProcessRecord, len(records))
	for _, r := range records {
		byPID[r.PID] = r
	}

	rows := make([]psRow, 0)
	for _, pid := range t.Tracked() {
		r, ok := byPID[pid]
		if !ok {
			continue
		}
		row := psRow{PID: r.PID, PPID: r.PPID, CommandLine: r.CommandLine, State: "tracked"}

		switch {
		case pid == t.RootPID():
			row.State = "root"
		case !matcher.IsDebuggable(r.CommandLine):
		case !filter.Allows(r.CommandLine):
			row.State = "filtered"
		default:
			row.State = "debuggable"
			row.Port = attach.BuildRequest(pid, r.CommandLine, base).DebugServer
			if probe {
				listening, err := platform.IsListening(cmd.Context(), pid, row.Port)
				if err == nil {
					row.Listening = &listening
				}
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func printRows(rows []psRow) {
	table := make([]cliout.TableRow, 0, len(rows))
	for _, r := range rows {
		port := ""
		if r.Port > 0 {
			port = strconv.Itoa(r.Port)
		}
		state := r.State
		if r.Listening != nil {
			if *r.Listening {
				state = "listening"
			} else {
				state = "waiting"
			}
		}
		table = append(table, cliout.TableRow{
			"PID":     strconv.Itoa(r.PID),
			"PPID":    strconv.Itoa(r.PPID),
			"State":   state,
			"Port":    port,
			"Command": truncate(r.CommandLine, maxCommandWidth),
		})
	}
	cliout.Table([]string{"PID", "PPID", "State", "Port", "Command"}, table)
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
