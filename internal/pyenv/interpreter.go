package pyenv

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/coursetools/courseup/internal/execx"
	courseuperrors "github.com/coursetools/courseup/pkg/errors"
)

// Interpreter is a handle to a concrete Python executable. It is passed
// explicitly wherever interpreter behaviour is needed; nothing in the module
// consults the ambient process interpreter.
type Interpreter struct {
	Path string
}

// systemCandidates is the prioritized list of interpreter command names probed
// when locating the base interpreter.
var systemCandidates = []string{"python3", "python"}

// FindSystem locates a working system interpreter: the first candidate that
// resolves on PATH and answers a version probe within the timeout.
func FindSystem(ctx context.Context, runner execx.Runner, probeTimeout time.Duration) (Interpreter, error) {
	for _, candidate := range systemCandidates {
		path, err := runner.LookPath(candidate)
		if err != nil {
			continue
		}

		interp := Interpreter{Path: path}
		if _, _, err := interp.Version(ctx, runner, probeTimeout); err == nil {
			return interp, nil
		}
	}

	return Interpreter{}, courseuperrors.NewPrerequisiteError(
		"python",
		fmt.Sprintf("no working interpreter found (tried %s)", strings.Join(systemCandidates, ", ")),
		nil,
	)
}

// Version probes the interpreter for its major.minor version.
func (i Interpreter) Version(ctx context.Context, runner execx.Runner, timeout time.Duration) (int, int, error) {
	argv := []string{i.Path, "-c", "import sys; print('%d.%d' % sys.version_info[:2])"}
	result, err := runner.Run(ctx, argv, execx.Options{Timeout: timeout})
	if err != nil {
		return 0, 0, fmt.Errorf("version probe failed: %w", err)
	}

	major, minor, err := parseVersion(strings.TrimSpace(result.Stdout))
	if err != nil {
		return 0, 0, fmt.Errorf("unexpected version output %q: %w", result.Stdout, err)
	}
	return major, minor, nil
}

// CheckMinVersion verifies the interpreter meets the minimum version. An
// incompatible interpreter is a fatal prerequisite failure.
func (i Interpreter) CheckMinVersion(ctx context.Context, runner execx.Runner, timeout time.Duration, min string) error {
	minMajor, minMinor, err := parseVersion(min)
	if err != nil {
		return courseuperrors.NewValidationError("min_python", fmt.Sprintf("invalid version %q", min), err)
	}

	major, minor, err := i.Version(ctx, runner, timeout)
	if err != nil {
		return courseuperrors.NewPrerequisiteError("python", "interpreter version probe failed", err)
	}

	if major < minMajor || (major == minMajor && minor < minMinor) {
		return courseuperrors.NewPrerequisiteError(
			"python",
			fmt.Sprintf("version %d.%d is older than required %d.%d", major, minor, minMajor, minMinor),
			nil,
		)
	}

	return nil
}

// Importable reports whether the named module loads in this interpreter.
// A nonzero exit means the module is missing; any other failure (including a
// probe timeout) is returned as an error so callers can report it as blocked.
func (i Interpreter) Importable(ctx context.Context, runner execx.Runner, timeout time.Duration, module string) (bool, error) {
	argv := []string{i.Path, "-c", fmt.Sprintf("import %s", module)}
	_, err := runner.Run(ctx, argv, execx.Options{Timeout: timeout})
	if err == nil {
		return true, nil
	}
	if execx.ExitCode(err) > 0 && !execx.IsTimeout(err) {
		return false, nil
	}
	return false, err
}

func parseVersion(s string) (int, int, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ".", 3)
	if len(parts) < 2 {
		return 0, 0, fmt.Errorf("want major.minor, got %q", s)
	}
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, err
	}
	minor, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, err
	}
	return major, minor, nil
}
