package procutil

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// "  123   1 /usr/bin/pike --debugger script.pike"
	posixLinePattern = regexp.MustCompile(`^\s*([0-9]+)\s+([0-9]+)\s+(.+)$`)

	// "pike.exe --debugger script.pike   1200   1304"
	windowsLinePattern = regexp.MustCompile(`^(.+)\s+([0-9]+)\s+([0-9]+)$`)
)

// ParsePosixLine parses one line of "ps -o pid=,ppid=,command=" output.
func ParsePosixLine(line string) (ProcessRecord, bool) {
	m := posixLinePattern.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return ProcessRecord{}, false
	}
	pid, err1 := strconv.Atoi(m[1])
	ppid, err2 := strconv.Atoi(m[2])
	if err1 != nil || err2 != nil {
		return ProcessRecord{}, false
	}
	return ProcessRecord{PID: pid, PPID: ppid, CommandLine: m[3]}, true
}

// ParseWindowsLine parses one line of
// "wmic process get CommandLine,ParentProcessId,ProcessId" output.
// The header row and rows with an empty command line do not match.
func ParseWindowsLine(line string) (ProcessRecord, bool) {
	m := windowsLinePattern.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return ProcessRecord{}, false
	}
	ppid, err1 := strconv.Atoi(m[2])
	pid, err2 := strconv.Atoi(m[3])
	if err1 != nil || err2 != nil {
		return ProcessRecord{}, false
	}
	return ProcessRecord{PID: pid, PPID: ppid, CommandLine: strings.TrimSpace(m[1])}, true
}

// parseRecords applies parse to every line, skipping lines that do not match.
func parseRecords(lines []string, parse func(string) (ProcessRecord, bool)) []ProcessRecord {
	records := make([]ProcessRecord, 0, len(lines))
	for _, line := range lines {
		if rec, ok := parse(line); ok {
			records = append(records, rec)
		}
	}
	return records
}

// containsPID reports whether any line of "lsof -t" output is exactly pid.
func containsPID(lines []string, pid int) bool {
	want := strconv.Itoa(pid)
	for _, line := range lines {
		if strings.TrimSpace(line) == want {
			return true
		}
	}
	return false
}

// netstatListening reports whether "netstat -ano -p TCP" output has a
// LISTENING row on port owned by pid.
//
//	TCP    0.0.0.0:4711    0.0.0.0:0    LISTENING    1234
func netstatListening(lines []string, pid, port int) bool {
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) < 5 || !strings.EqualFold(fields[0], "TCP") {
			continue
		}
		if !strings.EqualFold(fields[3], "LISTENING") {
			continue
		}
		if fields[4] != strconv.Itoa(pid) {
			continue
		}
		local := fields[1]
		idx := strings.LastIndex(local, ":")
		if idx < 0 {
			continue
		}
		if p, err := strconv.Atoi(local[idx+1:]); err == nil && p == port {
			return true
		}
	}
	return false
}
