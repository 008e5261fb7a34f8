package transport

import (
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"

	vererrors "github.com/mcpvet/mcpvet/internal/errors"
	"github.com/mcpvet/mcpvet/internal/protocol"
)

// stderrTailLimit bounds how much trailing stderr is retained for
// diagnostics.
const stderrTailLimit = 500

// stdoutHeadLimit bounds how much leading raw stdout is retained for
// diagnostics.
const stdoutHeadLimit = 500

// termGracePeriod is how long a child gets between SIGTERM and the
// forced kill.
const termGracePeriod = 500 * time.Millisecond

// shellLaunchers are commands that require shell interpretation on
// Windows because they are installed as cmd shims.
var shellLaunchers = map[string]struct{}{
	"npx": {}, "npm": {}, "pnpm": {}, "yarn": {},
}

// ExitStatus describes how the child process ended.
type ExitStatus struct {
	// Code is the process exit code, or -1 when it could not be
	// determined.
	Code int

	// Err is the wait error for abnormal terminations, nil for a plain
	// nonzero exit.
	Err error
}

// Stdio supervises one child process for the duration of one
// verification or discovery call. Stdout is exposed as framed lines,
// stderr is retained as a bounded tail, and termination is guaranteed
// idempotent.
type Stdio struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser

	lines  chan string
	exited chan ExitStatus
	done   chan struct{}
	term   chan struct{}

	termOnce sync.Once
	readers  sync.WaitGroup

	mu         sync.Mutex
	stderrTail string
	stdoutHead string
}

// SpawnOptions configures a child process launch.
type SpawnOptions struct {
	Command string
	Args    []string

	// Env is merged over the current process environment.
	Env map[string]string
}

// Spawn launches the configured command. A launch failure (executable
// not found, permission denied) is returned wrapped as ErrSpawnFailure
// and is never retried.
func Spawn(opts SpawnOptions) (*Stdio, error) {
	cmd := buildCommand(opts.Command, opts.Args)
	cmd.Env = mergedEnv(opts.Env)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, errors.Wrapf(vererrors.ErrSpawnFailure, "%v", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errors.Wrapf(vererrors.ErrSpawnFailure, "%v", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, errors.Wrapf(vererrors.ErrSpawnFailure, "%v", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, errors.Wrapf(vererrors.ErrSpawnFailure, "%v", err)
	}

	s := &Stdio{
		cmd:    cmd,
		stdin:  stdin,
		lines:  make(chan string, 256),
		exited: make(chan ExitStatus, 1),
		done:   make(chan struct{}),
		term:   make(chan struct{}),
	}

	s.readers.Add(2)
	go s.readStdout(stdout)
	go s.readStderr(stderr)
	go s.wait()

	return s, nil
}

// Lines returns the channel of framed stdout lines. It is closed when
// stdout reaches EOF.
func (s *Stdio) Lines() <-chan string {
	return s.lines
}

// Exited returns a channel that receives the exit status exactly once.
func (s *Stdio) Exited() <-chan ExitStatus {
	return s.exited
}

// WriteLine writes one JSON-RPC message to the child's stdin with the
// newline framing the stdio transport requires.
func (s *Stdio) WriteLine(msg []byte) error {
	_, err := s.stdin.Write(append(msg, '\n'))
	return errors.Wrap(err, "writing to child stdin")
}

// StderrTail returns the retained trailing stderr output.
func (s *Stdio) StderrTail() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stderrTail
}

// StdoutHead returns the retained leading raw stdout output.
func (s *Stdio) StdoutHead() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stdoutHead
}

// Terminate stops the child: SIGTERM immediately, forced kill after
// the grace period if it is still alive. Calling it more than once is
// a no-op, and it is safe to call after the process has already
// exited.
func (s *Stdio) Terminate() {
	s.termOnce.Do(func() {
		close(s.term)
		_ = s.stdin.Close()

		proc := s.cmd.Process
		if proc == nil {
			return
		}
		if err := proc.Signal(syscall.SIGTERM); err != nil {
			// Signal delivery can fail on Windows or for an already
			// reaped process; fall through to the forced kill path.
			_ = proc.Kill()
			return
		}

		go func() {
			select {
			case <-s.done:
			case <-time.After(termGracePeriod):
				_ = proc.Kill()
			}
		}()
	})
}

func (s *Stdio) readStdout(r io.Reader) {
	defer s.readers.Done()
	defer close(s.lines)

	var buf protocol.LineBuffer
	chunk := make([]byte, 4096)
	deliver := true
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			s.recordStdout(chunk[:n])
			for _, line := range buf.Append(chunk[:n]) {
				if !deliver {
					continue
				}
				// Every framed line is delivered while the call is live.
				// Once Terminate fires the consumer is gone; the pipe is
				// still drained to EOF but lines are discarded.
				select {
				case s.lines <- line:
				case <-s.term:
					deliver = false
				}
			}
		}
		if err != nil {
			return
		}
	}
}

func (s *Stdio) readStderr(r io.Reader) {
	defer s.readers.Done()
	chunk := make([]byte, 4096)
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			s.recordStderr(chunk[:n])
		}
		if err != nil {
			return
		}
	}
}

func (s *Stdio) recordStdout(chunk []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.stdoutHead) < stdoutHeadLimit {
		s.stdoutHead += string(chunk)
		if len(s.stdoutHead) > stdoutHeadLimit {
			s.stdoutHead = s.stdoutHead[:stdoutHeadLimit]
		}
	}
}

func (s *Stdio) recordStderr(chunk []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stderrTail += string(chunk)
	if len(s.stderrTail) > stderrTailLimit {
		s.stderrTail = s.stderrTail[len(s.stderrTail)-stderrTailLimit:]
	}
}

func (s *Stdio) wait() {
	// Wait must not run until both pipe readers have drained, per the
	// os/exec pipe contract.
	s.readers.Wait()
	err := s.cmd.Wait()

	status := ExitStatus{Code: 0}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			status.Code = exitErr.ExitCode()
		} else {
			status.Code = -1
			status.Err = err
		}
	}
	s.exited <- status
	close(s.done)
}

// buildCommand wraps batch and package-manager launchers in a shell on
// Windows; everything else is spawned directly.
func buildCommand(command string, args []string) *exec.Cmd {
	if needsShell(command) {
		shellArgs := append([]string{"/c", command}, args...)
		return exec.Command("cmd.exe", shellArgs...)
	}
	return exec.Command(command, args...)
}

func needsShell(command string) bool {
	if runtime.GOOS != "windows" {
		return false
	}
	lower := strings.ToLower(command)
	if strings.HasSuffix(lower, ".cmd") || strings.HasSuffix(lower, ".bat") {
		return true
	}
	base := lower
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	base = strings.TrimSuffix(base, ".exe")
	_, ok := shellLaunchers[base]
	return ok
}

// mergedEnv overlays the config-supplied variables on the process
// environment.
func mergedEnv(extra map[string]string) []string {
	if len(extra) == 0 {
		return os.Environ()
	}
	env := os.Environ()
	for k, v := range extra {
		env = append(env, k+"="+v)
	}
	return env
}
