package execx

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// Options controls how a single command invocation behaves.
type Options struct {
	// Timeout bounds the invocation; zero means no bound beyond the parent context.
	Timeout time.Duration
	// Dir sets the working directory when non-empty.
	Dir string
	// Stream mirrors the child's output to the parent's stdout/stderr while
	// still capturing it. Detection probes run quiet; acquisitions stream.
	Stream bool
}

// Result captures the output and exit status of a finished invocation.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// PrimaryOutput returns stderr if present, otherwise stdout. Acquisition
// diagnostics prefer stderr because package managers write errors there.
func (r Result) PrimaryOutput() string {
	if r.Stderr != "" {
		return r.Stderr
	}
	return r.Stdout
}

// Runner abstracts subprocess execution and PATH resolution so the provisioner
// can be exercised in tests without touching the host system.
type Runner interface {
	// Run executes argv and returns its captured output. A non-zero exit
	// status or timeout is reported through the returned error; the Result is
	// still populated with whatever output was collected.
	Run(ctx context.Context, argv []string, opts Options) (Result, error)

	// LookPath resolves a command name on the executable search path.
	LookPath(name string) (string, error)
}

// ErrTimeout marks invocations that were killed by their deadline.
var ErrTimeout = errors.New("command timed out")

// IsTimeout reports whether err was caused by an invocation deadline.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded)
}

// ExitStatusError reports a nonzero child exit status. Fake runners return it
// directly; the system runner's exec.ExitError is recognised alongside it.
type ExitStatusError struct {
	Code int
	Err  error
}

func (e *ExitStatusError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("exit status %d: %v", e.Code, e.Err)
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Unwrap exposes the underlying error.
func (e *ExitStatusError) Unwrap() error {
	return e.Err
}

// ExitCode extracts the child exit status from err, or -1 when the command
// never ran or was terminated abnormally.
func ExitCode(err error) int {
	var statusErr *ExitStatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// FormatArgv renders an argv for log output.
func FormatArgv(argv []string) string {
	return fmt.Sprintf("%v", argv)
}
