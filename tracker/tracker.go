// Package tracker maintains membership of a watched process tree.
//
// A Tracker holds two sets for the lifetime of one watch session:
//
//   - the tracked set: pids known to descend from the root process. It only
//     grows. A child of a tracked pid stays tracked even after its parent
//     exits, and pids are never pruned when they leave the process table.
//   - the dispatched set: pids for which an attach has been issued. A pid
//     enters it at most once, through Claim.
//
// Both sets are guarded by a mutex so overlapping poll passes may call
// Update and Claim concurrently.
package tracker

import (
	"sort"
	"sync"

	"github.com/jongio/autoattach/matcher"
	"github.com/jongio/autoattach/procutil"
)

// Candidate is a tracked, debuggable process not yet dispatched.
type Candidate struct {
	PID         int    `json:"pid"`
	CommandLine string `json:"commandLine"`
}

// Tracker decides which processes in a snapshot belong to the watched tree.
type Tracker struct {
	mu         sync.Mutex
	rootPID    int
	tracked    map[int]struct{}
	dispatched map[int]struct{}
}

// New creates a Tracker rooted at rootPID. A rootPID <= 0 means the root is
// unknown; it will be inferred from the first snapshot containing a process
// with a port override, whose parent is adopted as the root.
func New(rootPID int) *Tracker {
	t := &Tracker{
		tracked:    make(map[int]struct{}),
		dispatched: make(map[int]struct{}),
	}
	if rootPID > 0 {
		t.rootPID = rootPID
		t.tracked[rootPID] = struct{}{}
	}
	return t
}

// RootPID returns the root of the tree, or 0 while it is still unknown.
func (t *Tracker) RootPID() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rootPID
}

// Update folds a process snapshot into the tracked set and returns the
// tracked, debuggable processes in it that have not been dispatched, in
// snapshot order. An empty snapshot changes nothing.
func (t *Tracker) Update(records []procutil.ProcessRecord) []Candidate {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.tracked) == 0 {
		t.adoptRoot(records)
	}
	if len(t.tracked) == 0 {
		return nil
	}

	// Repeat until stable so children listed before their parents are found
	// in the same pass.
	for changed := true; changed; {
		changed = false
		for _, r := range records {
			if _, ok := t.tracked[r.PID]; ok {
				continue
			}
			if _, ok := t.tracked[r.PPID]; ok {
				t.tracked[r.PID] = struct{}{}
				changed = true
			}
		}
	}

	var found []Candidate
	seen := make(map[int]struct{})
	for _, r := range records {
		if r.PID == t.rootPID {
			continue
		}
		if _, ok := t.tracked[r.PID]; !ok {
			continue
		}
		if _, ok := t.dispatched[r.PID]; ok {
			continue
		}
		if _, dup := seen[r.PID]; dup {
			continue
		}
		if matcher.IsDebuggable(r.CommandLine) {
			seen[r.PID] = struct{}{}
			found = append(found, Candidate{PID: r.PID, CommandLine: r.CommandLine})
		}
	}
	return found
}

// adoptRoot seeds an empty tracked set with the parent of the first process
// carrying a port override. Caller must hold t.mu.
func (t *Tracker) adoptRoot(records []procutil.ProcessRecord) {
	for _, r := range records {
		if _, ok := matcher.PortOverride(r.CommandLine); ok && r.PPID > 0 {
			t.rootPID = r.PPID
			t.tracked[r.PPID] = struct{}{}
			return
		}
	}
}

// Claim marks pid as dispatched. It returns false if pid was already
// dispatched, so exactly one caller wins for each pid.
func (t *Tracker) Claim(pid int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.dispatched[pid]; ok {
		return false
	}
	t.dispatched[pid] = struct{}{}
	return true
}

// IsTracked reports whether pid belongs to the watched tree.
func (t *Tracker) IsTracked(pid int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.tracked[pid]
	return ok
}

// IsDispatched reports whether an attach was issued for pid.
func (t *Tracker) IsDispatched(pid int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.dispatched[pid]
	return ok
}

// Tracked returns the tracked pids in ascending order.
func (t *Tracker) Tracked() []int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return sortedKeys(t.tracked)
}

// Dispatched returns the dispatched pids in ascending order.
func (t *Tracker) Dispatched() []int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return sortedKeys(t.dispatched)
}

func sortedKeys(m map[int]struct{}) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
