// Package executor runs job command strings through the OS shell.
package executor

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"
)

// Result is the outcome of one execution.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	TimedOut bool
}

// Runner executes one command with a wall-clock timeout.
type Runner interface {
	Run(ctx context.Context, command string, timeout time.Duration) Result
}

// Shell runs commands through `sh -c` (`cmd /C` on Windows) so operators can
// use pipes, redirections, and builtins. The whole child process group is
// killed when the timeout fires or ctx is cancelled.
type Shell struct{}

var _ Runner = Shell{}

// Run executes command and waits for it to finish or time out. On timeout
// the result has TimedOut set and ExitCode -1, with whatever output was
// buffered so far. Run never touches the store and never retries.
func (Shell) Run(ctx context.Context, command string, timeout time.Duration) Result {
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := shellCommand(cctx, command)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	res := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if cctx.Err() != nil {
		res.TimedOut = errors.Is(cctx.Err(), context.DeadlineExceeded)
		res.ExitCode = -1
		return res
	}
	if err == nil {
		return res
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res
	}

	// The shell itself could not be started.
	res.ExitCode = -1
	if res.Stderr == "" {
		res.Stderr = err.Error()
	}
	return res
}
