// Package procutil enumerates processes and checks debug listeners for the
// auto-attach watcher.
//
// # Platforms
//
// A Platform bundles the two operating-system queries the watcher needs:
//
//   - ListProcesses returns a snapshot of (pid, parent pid, command line)
//     records for every process on the machine, including other users'.
//   - IsListening reports whether a given pid holds a listening TCP socket on
//     a given port.
//
// Three variants exist and one is selected at startup:
//
//   - BackendCommand on POSIX systems runs "ps -ax -o pid=,ppid=,command=" and
//     "lsof -t -a -n -p <pid> -sTCP:LISTEN -iTCP:<port>".
//   - BackendCommand on Windows runs
//     "wmic process get CommandLine,ParentProcessId,ProcessId" and
//     "netstat -ano -p TCP".
//   - BackendNative queries the OS directly through
//     github.com/shirou/gopsutil, without spawning subprocesses.
//
// Command output is parsed line by line against a fixed-field grammar; lines
// that do not match are skipped. A command that exits non-zero or writes to
// stderr fails the whole call.
//
// # Example Usage
//
//	platform, err := procutil.New(procutil.BackendCommand)
//	if err != nil {
//	    return err
//	}
//	records, err := platform.ListProcesses(ctx)
//	if err != nil {
//	    // no data this round
//	}
//	for _, r := range records {
//	    fmt.Println(r.PID, r.PPID, r.CommandLine)
//	}
package procutil
