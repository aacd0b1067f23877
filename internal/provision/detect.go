package provision

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/coursetools/courseup/internal/config"
	"github.com/coursetools/courseup/internal/execx"
	"github.com/coursetools/courseup/internal/model"
)

// evaluateDetect runs one detection spec against the environment and returns
// what it found. Detection is read-only: the only processes it may start are
// short version/import probes bounded by the probe timeout.
func evaluateDetect(ctx context.Context, env *Env, spec config.DetectSpec) (model.DetectionStatus, string, error) {
	switch spec.Method {
	case config.DetectOnPath:
		return detectOnPath(ctx, env, spec)
	case config.DetectImportable:
		return detectImportable(ctx, env, spec.Module)
	case config.DetectFileExists:
		return detectFileExists(spec.Path)
	case config.DetectOutputContains:
		return detectOutputContains(ctx, env, spec)
	default:
		return model.StatusBlocked, "", fmt.Errorf("unknown detection method %q", spec.Method)
	}
}

// detectOnPath is satisfied when any candidate resolves on the search path
// and answers its version probe with a success exit status within the bound.
func detectOnPath(ctx context.Context, env *Env, spec config.DetectSpec) (model.DetectionStatus, string, error) {
	probeArgs := spec.ProbeArgs
	if len(probeArgs) == 0 {
		probeArgs = []string{"--version"}
	}

	for _, candidate := range spec.Commands {
		path, err := env.Runner.LookPath(candidate)
		if err != nil {
			continue
		}

		argv := append([]string{path}, probeArgs...)
		if _, err := env.Runner.Run(ctx, argv, execx.Options{Timeout: env.ProbeTimeout}); err == nil {
			return model.StatusSatisfied, fmt.Sprintf("found working command %s", path), nil
		}
	}

	return model.StatusMissing, fmt.Sprintf("none of %s resolve to a working command", strings.Join(spec.Commands, ", ")), nil
}

func detectImportable(ctx context.Context, env *Env, module string) (model.DetectionStatus, string, error) {
	ok, err := env.Interpreter().Importable(ctx, env.Runner, env.ProbeTimeout, module)
	if err != nil {
		// A venv that has not been created yet means the module is missing,
		// not that detection is broken: provisioning will create it.
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, exec.ErrNotFound) {
			return model.StatusMissing, fmt.Sprintf("environment interpreter %s not created yet", env.Venv.Python()), nil
		}
		return model.StatusBlocked, fmt.Sprintf("import probe for %s could not run", module), err
	}
	if ok {
		return model.StatusSatisfied, fmt.Sprintf("module %s imports cleanly", module), nil
	}
	return model.StatusMissing, fmt.Sprintf("module %s is not importable", module), nil
}

// detectFileExists is satisfied when the path exists with nonzero content: a
// file with size greater than zero, or a directory with at least one entry
// (downloaded data sets unpack into directories).
func detectFileExists(path string) (model.DetectionStatus, string, error) {
	expanded := ExpandHome(path)

	info, err := os.Stat(expanded)
	if err != nil {
		if os.IsNotExist(err) {
			return model.StatusMissing, fmt.Sprintf("%s does not exist", expanded), nil
		}
		return model.StatusBlocked, fmt.Sprintf("cannot stat %s", expanded), err
	}

	if info.IsDir() {
		entries, err := os.ReadDir(expanded)
		if err != nil {
			return model.StatusBlocked, fmt.Sprintf("cannot read %s", expanded), err
		}
		if len(entries) == 0 {
			return model.StatusMissing, fmt.Sprintf("%s exists but is empty", expanded), nil
		}
		return model.StatusSatisfied, fmt.Sprintf("%s is present", expanded), nil
	}

	if info.Size() == 0 {
		return model.StatusMissing, fmt.Sprintf("%s exists but is empty", expanded), nil
	}
	return model.StatusSatisfied, fmt.Sprintf("%s is present (%d bytes)", expanded, info.Size()), nil
}

func detectOutputContains(ctx context.Context, env *Env, spec config.DetectSpec) (model.DetectionStatus, string, error) {
	argv := env.ExpandArgv(spec.Probe)
	result, err := env.Runner.Run(ctx, argv, execx.Options{Timeout: env.ProbeTimeout})
	if err != nil {
		return model.StatusBlocked, fmt.Sprintf("probe %s failed", execx.FormatArgv(argv)), err
	}

	if strings.Contains(result.Stdout, spec.Marker) {
		return model.StatusSatisfied, fmt.Sprintf("probe output contains %q", spec.Marker), nil
	}
	return model.StatusMissing, fmt.Sprintf("probe output does not contain %q", spec.Marker), nil
}

// ExpandHome resolves a leading ~ against the user's home directory.
func ExpandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") || strings.HasPrefix(path, `~\`) {
		home, err := os.UserHomeDir()
		if err == nil {
			if path == "~" {
				return home
			}
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
