package procexec

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

const (
	defaultGracePeriod = 5 * time.Second
	outputTailBytes    = 4096
)

// ExecRunner runs commands as child processes in their own process group so
// cancellation reaches helpers the tool spawns (whisper forks python workers).
type ExecRunner struct{}

// NewExecRunner returns a Runner backed by os/exec.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run executes cmd and waits for it to complete. A non-zero exit returns
// *ExitError; cancellation of ctx sends SIGTERM to the process group and
// SIGKILL after the grace period.
func (r *ExecRunner) Run(ctx context.Context, cmd Command) (Result, error) {
	if cmd.Binary == "" {
		return Result{}, fmt.Errorf("procexec: binary is required")
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	gracePeriod := cmd.GracePeriod
	if gracePeriod == 0 {
		gracePeriod = defaultGracePeriod
	}

	c := exec.CommandContext(ctx, cmd.Binary, cmd.Args...) //nolint:gosec // argv is built by the tool wrappers
	c.Dir = cmd.Dir
	c.Env = mergeEnv(cmd.Env)

	tail := newTailBuffer(outputTailBytes)
	c.Stdout = teeWriter(tail, cmd.Stdout)
	c.Stderr = teeWriter(tail, cmd.Stderr)

	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	c.Cancel = func() error {
		if c.Process == nil {
			return nil
		}
		return unix.Kill(-c.Process.Pid, unix.SIGTERM)
	}
	c.WaitDelay = gracePeriod

	start := time.Now()
	err := c.Run()
	result := Result{
		Output:   tail.String(),
		ExitCode: c.ProcessState.ExitCode(),
		Duration: time.Since(start),
	}

	if err == nil {
		return result, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return result, fmt.Errorf("%s: interrupted: %w", cmd.String(), ctxErr)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return result, &ExitError{
			Command:  cmd.String(),
			ExitCode: result.ExitCode,
			Output:   result.Output,
			Err:      err,
		}
	}
	return result, fmt.Errorf("start %s: %w", cmd.Binary, err)
}

func mergeEnv(extra []string) []string {
	if len(extra) == 0 {
		return nil // inherit parent env
	}
	return append(os.Environ(), extra...)
}

func teeWriter(tail *tailBuffer, w io.Writer) io.Writer {
	if w == nil {
		return tail
	}
	return io.MultiWriter(tail, w)
}

// tailBuffer keeps the last limit bytes written to it. Stdout and stderr are
// copied from separate goroutines, so writes are serialized.
type tailBuffer struct {
	mu    sync.Mutex
	limit int
	buf   []byte
}

func newTailBuffer(limit int) *tailBuffer {
	return &tailBuffer{limit: limit}
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.limit; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}
