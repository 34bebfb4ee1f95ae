package version

import (
	"encoding/json"
	"runtime"
	"strings"
	"testing"

	"github.com/jongio/autoattach/cliout"
	"github.com/jongio/autoattach/testutil"
)

func TestNewUsesBuildVariables(t *testing.T) {
	info := New("autoattach")
	if info.Version != Version {
		t.Errorf("expected Version %q, got %q", Version, info.Version)
	}
	if info.GoVersion != runtime.Version() {
		t.Errorf("expected GoVersion %q, got %q", runtime.Version(), info.GoVersion)
	}
	if info.Platform != runtime.GOOS+"/"+runtime.GOARCH {
		t.Errorf("unexpected Platform %q", info.Platform)
	}
}

func TestInfo_String(t *testing.T) {
	info := &Info{
		Name:      "autoattach",
		Version:   "1.2.3",
		BuildDate: "2026-01-01",
		GitCommit: "abc123",
	}
	want := "autoattach version 1.2.3 (commit: abc123, built: 2026-01-01)"
	if got := info.String(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func runVersion(t *testing.T, args ...string) string {
	t.Helper()
	cmd := NewCommand(&Info{Name: "autoattach", Version: "1.2.3", BuildDate: "today", GitCommit: "abc123"})
	cmd.SetArgs(args)
	return testutil.CaptureOutput(t, cmd.Execute)
}

func TestCommandDefaultOutput(t *testing.T) {
	out := runVersion(t)
	for _, want := range []string{"autoattach version", "1.2.3", "abc123"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestCommandQuiet(t *testing.T) {
	out := runVersion(t, "--quiet")
	if strings.TrimSpace(out) != "1.2.3" {
		t.Errorf("expected bare version, got %q", out)
	}
}

func TestCommandJSON(t *testing.T) {
	if err := cliout.SetFormat("json"); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = cliout.SetFormat("default") })

	out := runVersion(t, "--quiet")
	var info Info
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	if info.Version != "1.2.3" || info.GitCommit != "abc123" {
		t.Errorf("unexpected info %+v", info)
	}
}
