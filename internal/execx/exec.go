package execx

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// SystemRunner executes commands on the host with exec.CommandContext.
type SystemRunner struct{}

// NewSystemRunner creates the production Runner.
func NewSystemRunner() *SystemRunner {
	return &SystemRunner{}
}

var _ Runner = (*SystemRunner)(nil)

// Run executes argv, honouring the per-invocation timeout from opts.
func (r *SystemRunner) Run(ctx context.Context, argv []string, opts Options) (Result, error) {
	if len(argv) == 0 {
		return Result{ExitCode: -1}, fmt.Errorf("empty command")
	}

	runCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
	cmd.Env = os.Environ()
	if opts.Dir != "" {
		cmd.Dir = opts.Dir
	}

	var stdoutBuf, stderrBuf bytes.Buffer
	if opts.Stream {
		cmd.Stdout = io.MultiWriter(os.Stdout, &stdoutBuf)
		cmd.Stderr = io.MultiWriter(os.Stderr, &stderrBuf)
	} else {
		cmd.Stdout = &stdoutBuf
		cmd.Stderr = &stderrBuf
	}

	err := cmd.Run()

	result := Result{
		Stdout:   strings.TrimSpace(stdoutBuf.String()),
		Stderr:   strings.TrimSpace(stderrBuf.String()),
		ExitCode: exitCodeOf(cmd, err),
	}

	if err != nil {
		// The context error distinguishes a deadline kill from a plain failure.
		if runCtx.Err() == context.DeadlineExceeded {
			if opts.Timeout > 0 {
				return result, fmt.Errorf("%w after %s: %v", ErrTimeout, opts.Timeout, err)
			}
			return result, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return result, err
	}

	return result, nil
}

// LookPath resolves a command name on PATH.
func (r *SystemRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

func exitCodeOf(cmd *exec.Cmd, err error) int {
	if cmd.ProcessState != nil {
		return cmd.ProcessState.ExitCode()
	}
	if err != nil {
		return -1
	}
	return 0
}
