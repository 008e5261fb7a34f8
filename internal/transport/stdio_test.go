package transport

import (
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"

	vererrors "github.com/mcpvet/mcpvet/internal/errors"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("test relies on /bin/sh")
	}
}

func collectLines(t *testing.T, s *Stdio, timeout time.Duration) []string {
	t.Helper()
	var lines []string
	deadline := time.After(timeout)
	for {
		select {
		case line, ok := <-s.Lines():
			if !ok {
				return lines
			}
			lines = append(lines, line)
		case <-deadline:
			t.Fatalf("timed out waiting for stdout; got %v", lines)
		}
	}
}

func TestSpawn_EchoLine(t *testing.T) {
	skipOnWindows(t)

	s, err := Spawn(SpawnOptions{
		Command: "sh",
		Args:    []string{"-c", `printf '{"jsonrpc":"2.0","id":1,"result":{}}\n'`},
	})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	defer s.Terminate()

	lines := collectLines(t, s, 5*time.Second)
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %v", len(lines), lines)
	}
	if !strings.Contains(lines[0], `"jsonrpc"`) {
		t.Errorf("line = %q", lines[0])
	}

	select {
	case status := <-s.Exited():
		if status.Code != 0 {
			t.Errorf("exit code = %d, want 0", status.Code)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("process did not exit")
	}
}

func TestSpawn_MissingExecutable(t *testing.T) {
	_, err := Spawn(SpawnOptions{Command: "definitely-not-a-real-binary-x9"})
	if err == nil {
		t.Fatal("Spawn should fail for a missing executable")
	}
	if !errors.Is(err, vererrors.ErrSpawnFailure) {
		t.Errorf("error class = %v, want ErrSpawnFailure", err)
	}
}

func TestSpawn_EnvMerged(t *testing.T) {
	skipOnWindows(t)

	s, err := Spawn(SpawnOptions{
		Command: "sh",
		Args:    []string{"-c", `printf '%s\n' "$MCPVET_TEST_VAR"`},
		Env:     map[string]string{"MCPVET_TEST_VAR": "hello"},
	})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	defer s.Terminate()

	lines := collectLines(t, s, 5*time.Second)
	if len(lines) != 1 || lines[0] != "hello" {
		t.Fatalf("lines = %v, want [hello]", lines)
	}
}

func TestSpawn_StderrTailBounded(t *testing.T) {
	skipOnWindows(t)

	// Emit ~2000 chars of stderr ending in a marker; only the tail is kept.
	s, err := Spawn(SpawnOptions{
		Command: "sh",
		Args:    []string{"-c", `i=0; while [ $i -lt 200 ]; do printf '0123456789' >&2; i=$((i+1)); done; printf 'TAILMARK' >&2`},
	})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	defer s.Terminate()

	<-s.Exited()

	tail := s.StderrTail()
	if len(tail) > stderrTailLimit {
		t.Errorf("tail length = %d, want <= %d", len(tail), stderrTailLimit)
	}
	if !strings.HasSuffix(tail, "TAILMARK") {
		t.Errorf("tail should keep the most recent output, got %q...", tail[:40])
	}
}

func TestSpawn_NonzeroExit(t *testing.T) {
	skipOnWindows(t)

	s, err := Spawn(SpawnOptions{
		Command: "sh",
		Args:    []string{"-c", `printf 'boom\n' >&2; exit 3`},
	})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	defer s.Terminate()

	select {
	case status := <-s.Exited():
		if status.Code != 3 {
			t.Errorf("exit code = %d, want 3", status.Code)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("process did not exit")
	}
	if !strings.Contains(s.StderrTail(), "boom") {
		t.Errorf("stderr tail = %q, want to contain boom", s.StderrTail())
	}
}

func TestTerminate_Idempotent(t *testing.T) {
	skipOnWindows(t)

	s, err := Spawn(SpawnOptions{
		Command: "sh",
		Args:    []string{"-c", "sleep 30"},
	})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}

	s.Terminate()
	s.Terminate()
	s.Terminate()

	select {
	case <-s.Exited():
	case <-time.After(5 * time.Second):
		t.Fatal("terminated process did not exit")
	}
}

func TestTerminate_EscalatesToKill(t *testing.T) {
	skipOnWindows(t)

	// Trap TERM so only the escalation kill can end the process.
	s, err := Spawn(SpawnOptions{
		Command: "sh",
		Args:    []string{"-c", `trap '' TERM; sleep 30`},
	})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}

	start := time.Now()
	s.Terminate()

	select {
	case <-s.Exited():
		if elapsed := time.Since(start); elapsed > 5*time.Second {
			t.Errorf("kill escalation took %v", elapsed)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("process survived the kill escalation")
	}
}

func TestWriteLine_AppendsNewline(t *testing.T) {
	skipOnWindows(t)

	s, err := Spawn(SpawnOptions{
		Command: "sh",
		Args:    []string{"-c", "read line; printf '%s\\n' \"$line\""},
	})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	defer s.Terminate()

	if err := s.WriteLine([]byte(`{"jsonrpc":"2.0"}`)); err != nil {
		t.Fatalf("WriteLine: %v", err)
	}

	lines := collectLines(t, s, 5*time.Second)
	if len(lines) != 1 || lines[0] != `{"jsonrpc":"2.0"}` {
		t.Fatalf("lines = %v", lines)
	}
}

func TestNeedsShell(t *testing.T) {
	if runtime.GOOS == "windows" {
		tests := map[string]bool{
			"npx":        true,
			"npm.cmd":    true,
			"server.bat": true,
			"node":       false,
			"python":     false,
		}
		for cmd, want := range tests {
			if got := needsShell(cmd); got != want {
				t.Errorf("needsShell(%q) = %v, want %v", cmd, got, want)
			}
		}
		return
	}
	// Never shell out on POSIX systems.
	for _, cmd := range []string{"npx", "npm.cmd", "node"} {
		if needsShell(cmd) {
			t.Errorf("needsShell(%q) = true on %s", cmd, runtime.GOOS)
		}
	}
}

func TestSpawn_DeliversEveryLineUnderBurst(t *testing.T) {
	skipOnWindows(t)

	// Far more lines than the channel buffer holds; none may be lost
	// while the consumer is still reading.
	const want = 5000
	s, err := Spawn(SpawnOptions{
		Command: "sh",
		Args:    []string{"-c", `i=0; while [ $i -lt 5000 ]; do echo "line $i"; i=$((i+1)); done`},
	})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	defer s.Terminate()

	lines := collectLines(t, s, 30*time.Second)
	if len(lines) != want {
		t.Fatalf("got %d lines, want %d", len(lines), want)
	}
	if lines[0] != "line 0" || lines[want-1] != "line 4999" {
		t.Errorf("boundary lines = %q, %q", lines[0], lines[want-1])
	}
}

func TestTerminate_UnblocksFloodedReader(t *testing.T) {
	skipOnWindows(t)

	// Nobody consumes lines, so the reader fills the buffer and blocks.
	// Terminate must release it and let the exit status come through.
	s, err := Spawn(SpawnOptions{
		Command: "sh",
		Args:    []string{"-c", `while :; do echo spam; done`},
	})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}

	time.Sleep(200 * time.Millisecond)
	s.Terminate()

	select {
	case <-s.Exited():
	case <-time.After(5 * time.Second):
		t.Fatal("exit status never delivered after Terminate")
	}
}
