// Package tests provides smoke tests that run the compiled xlnt binary and
// check that every command exists and exits cleanly.
package tests

import (
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// xlntBin returns the path to the compiled xlnt binary.
func xlntBin(t *testing.T) string {
	t.Helper()
	_, filename, _, _ := runtime.Caller(0)
	root := filepath.Join(filepath.Dir(filename), "..")
	bin := filepath.Join(root, "bin", "xlnt")
	if runtime.GOOS == "windows" {
		bin += ".exe"
	}
	if _, err := os.Stat(bin); os.IsNotExist(err) {
		t.Skipf("xlnt binary not found at %s — run 'go build -o bin/xlnt .' first", bin)
	}
	return bin
}

// run executes xlnt with args and an isolated HOME and returns stdout,
// stderr, and exit code.
func run(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	cmd := exec.Command(xlntBin(t), args...)
	cmd.Env = append(os.Environ(), "HOME="+t.TempDir())
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	code := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			code = exitErr.ExitCode()
		}
	}
	return stdout.String(), stderr.String(), code
}

// TestAllCommandsExist validates that every command appears in --help.
func TestAllCommandsExist(t *testing.T) {
	commands := []string{
		"date", "finance", "book", "watch", "shell",
		"config", "doctor", "completion", "version",
	}

	stdout, _, code := run(t, "--help")
	if code != 0 {
		t.Fatalf("xlnt --help exited with code %d", code)
	}
	for _, cmd := range commands {
		if !strings.Contains(stdout, cmd) {
			t.Errorf("command %q not found in xlnt --help output", cmd)
		}
	}
}

// TestSumProductJSON validates the JSON envelope.
func TestSumProductJSON(t *testing.T) {
	stdout, stderr, code := run(t, "finance", "sumproduct", "1,2,3", "4,5,6", "--json")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	var result struct {
		OK   bool `json:"ok"`
		Data struct {
			SumProduct float64 `json:"sumproduct"`
		} `json:"data"`
	}
	if err := json.Unmarshal([]byte(stdout), &result); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, stdout)
	}
	if !result.OK || result.Data.SumProduct != 32 {
		t.Errorf("unexpected result: %+v", result)
	}
}

// TestDimensionMismatchExitCode validates user errors exit 1.
func TestDimensionMismatchExitCode(t *testing.T) {
	_, stderr, code := run(t, "finance", "sumproduct", "1,2", "1,2,3")
	if code != 1 {
		t.Errorf("expected exit 1, got %d", code)
	}
	if !strings.Contains(stderr, "Error:") {
		t.Errorf("expected error on stderr, got %q", stderr)
	}
}

// TestXIRRNoSignChangeExitCode validates solver failures exit 3.
func TestXIRRNoSignChangeExitCode(t *testing.T) {
	_, _, code := run(t, "finance", "xirr", "2020-01-01:100", "2021-01-01:110")
	if code != 3 {
		t.Errorf("expected exit 3, got %d", code)
	}
}

// TestXIRRFromYAML validates reading cash flows from a file.
func TestXIRRFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flows.yaml")
	data := "- date: 2020-01-01\n  amount: -100\n- date: 2021-01-01\n  amount: 110\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	stdout, stderr, code := run(t, "finance", "xirr", "--flows", path)
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	if !strings.Contains(stdout, "0.099714") {
		t.Errorf("unexpected output: %q", stdout)
	}
}

// TestEDate validates month-end clamping.
func TestEDate(t *testing.T) {
	stdout, _, code := run(t, "date", "edate", "2021-01-31", "1")
	if code != 0 || strings.TrimSpace(stdout) != "2021-02-28" {
		t.Errorf("got %q (exit %d)", stdout, code)
	}
}

// TestVersionOutput validates version command format.
func TestVersionOutput(t *testing.T) {
	stdout, _, code := run(t, "version")
	if code != 0 {
		t.Fatal("xlnt version should exit 0")
	}
	if !strings.HasPrefix(stdout, "xlnt ") {
		t.Errorf("version output should start with 'xlnt', got: %s", stdout)
	}
}

// TestWatchStatusNotRunning validates watch status when no watcher runs.
func TestWatchStatusNotRunning(t *testing.T) {
	stdout, _, code := run(t, "watch", "status")
	if code != 0 || !strings.Contains(stdout, "not running") {
		t.Errorf("got %q (exit %d)", stdout, code)
	}
}

// TestConfigShowRuns validates config show does not fail.
func TestConfigShowRuns(t *testing.T) {
	stdout, _, code := run(t, "config", "show")
	if code != 0 {
		t.Errorf("config show should exit 0, got %d", code)
	}
	if !strings.Contains(stdout, "finance") {
		t.Errorf("expected finance section, got %q", stdout)
	}
}

// TestAllCommandsHaveHelp validates every command accepts --help.
func TestAllCommandsHaveHelp(t *testing.T) {
	commandPaths := [][]string{
		{"date", "edate"}, {"date", "eomonth"},
		{"finance", "xnpv"}, {"finance", "xirr"}, {"finance", "sumproduct"},
		{"book", "info"}, {"book", "read"}, {"book", "calc"}, {"book", "copy-sheet"},
		{"watch", "start"}, {"watch", "status"}, {"watch", "stop"},
		{"config", "show"}, {"config", "keys"}, {"config", "validate"}, {"config", "env"},
		{"completion"}, {"doctor"}, {"shell"}, {"version"},
	}

	for _, path := range commandPaths {
		args := append(path, "--help")
		t.Run(strings.Join(path, "_"), func(t *testing.T) {
			_, _, code := run(t, args...)
			if code != 0 {
				t.Errorf("xlnt %s --help should exit 0", strings.Join(path, " "))
			}
		})
	}
}
