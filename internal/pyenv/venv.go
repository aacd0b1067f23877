package pyenv

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/coursetools/courseup/internal/execx"
	courseuperrors "github.com/coursetools/courseup/pkg/errors"
)

// Venv is an isolated interpreter environment rooted at a directory.
type Venv struct {
	Root string
}

// NewVenv constructs a Venv handle for the given root directory.
func NewVenv(root string) Venv {
	return Venv{Root: root}
}

// Python returns the path of the environment's interpreter for the current OS.
func (v Venv) Python() string {
	if runtime.GOOS == "windows" {
		return filepath.Join(v.Root, "Scripts", "python.exe")
	}
	return filepath.Join(v.Root, "bin", "python")
}

// Interpreter returns a handle to the environment's interpreter.
func (v Venv) Interpreter() Interpreter {
	return Interpreter{Path: v.Python()}
}

// Exists reports whether the environment looks provisioned: its interpreter
// binary is present and nonempty.
func (v Venv) Exists() bool {
	info, err := os.Stat(v.Python())
	return err == nil && !info.IsDir() && info.Size() > 0
}

// Create provisions the environment with `python -m venv`. When recreate is
// set an existing environment is removed first; otherwise an existing
// environment is left untouched.
func (v Venv) Create(ctx context.Context, runner execx.Runner, base Interpreter, timeout time.Duration, recreate bool) error {
	if v.Exists() {
		if !recreate {
			return nil
		}
		if err := os.RemoveAll(v.Root); err != nil {
			return fmt.Errorf("remove existing environment: %w", err)
		}
	}

	argv := []string{base.Path, "-m", "venv", v.Root}
	if _, err := runner.Run(ctx, argv, execx.Options{Timeout: timeout, Stream: true}); err != nil {
		return courseuperrors.NewPrerequisiteError("venv", fmt.Sprintf("failed to create environment at %s", v.Root), err)
	}

	if !v.Exists() {
		return courseuperrors.NewPrerequisiteError("venv", fmt.Sprintf("environment created but interpreter missing at %s", v.Python()), nil)
	}

	return nil
}

// UpgradePip upgrades pip inside the environment. Failure is non-fatal for
// the overall run; the caller decides how to surface it.
func (v Venv) UpgradePip(ctx context.Context, runner execx.Runner, timeout time.Duration) error {
	argv := []string{v.Python(), "-m", "pip", "install", "--upgrade", "pip"}
	_, err := runner.Run(ctx, argv, execx.Options{Timeout: timeout, Stream: true})
	return err
}

// InstallArgv returns the acquisition argv that installs a package into the
// environment.
func (v Venv) InstallArgv(pkg string) []string {
	return []string{v.Python(), "-m", "pip", "install", "--upgrade", pkg}
}

// RegisterKernel registers the environment as a selectable notebook kernel
// under the given name and display name.
func (v Venv) RegisterKernel(ctx context.Context, runner execx.Runner, timeout time.Duration, name, display string) error {
	argv := []string{
		v.Python(), "-m", "ipykernel", "install",
		"--user",
		"--name", name,
		"--display-name", display,
	}
	if _, err := runner.Run(ctx, argv, execx.Options{Timeout: timeout, Stream: true}); err != nil {
		return fmt.Errorf("register kernel %q: %w", name, err)
	}
	return nil
}
