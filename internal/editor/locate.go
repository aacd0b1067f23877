package editor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/coursetools/courseup/internal/execx"
	courseuperrors "github.com/coursetools/courseup/pkg/errors"
)

// CLI is a handle to a working editor command line.
type CLI struct {
	Path string
}

// pathCandidates is the prioritized list of editor command names probed on PATH.
var pathCandidates = []string{"code", "code-insiders"}

// Locate finds a working editor CLI: first any PATH candidate that answers a
// version probe, then the platform's conventional install locations. A missing
// editor is a fatal prerequisite when the manifest requests extensions.
func Locate(ctx context.Context, runner execx.Runner, probeTimeout time.Duration) (CLI, error) {
	for _, candidate := range pathCandidates {
		path, err := runner.LookPath(candidate)
		if err != nil {
			continue
		}
		if probeWorks(ctx, runner, path, probeTimeout) {
			return CLI{Path: path}, nil
		}
	}

	for _, path := range fallbackPaths() {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		if probeWorks(ctx, runner, path, probeTimeout) {
			return CLI{Path: path}, nil
		}
	}

	return CLI{}, courseuperrors.NewPrerequisiteError(
		"editor",
		fmt.Sprintf("no working editor CLI found (tried %s)", strings.Join(pathCandidates, ", ")),
		nil,
	)
}

func probeWorks(ctx context.Context, runner execx.Runner, path string, timeout time.Duration) bool {
	_, err := runner.Run(ctx, []string{path, "--version"}, execx.Options{Timeout: timeout})
	return err == nil
}

// fallbackPaths lists conventional install locations checked when the CLI is
// not on PATH, mirroring where the editor's installer puts it per platform.
func fallbackPaths() []string {
	switch runtime.GOOS {
	case "windows":
		local := os.Getenv("LOCALAPPDATA")
		return []string{
			filepath.Join(`C:\Program Files\Microsoft VS Code\bin`, "code.cmd"),
			filepath.Join(`C:\Program Files (x86)\Microsoft VS Code\bin`, "code.cmd"),
			filepath.Join(local, `Programs\Microsoft VS Code\bin`, "code.cmd"),
		}
	case "darwin":
		return []string{
			"/Applications/Visual Studio Code.app/Contents/Resources/app/bin/code",
		}
	default:
		return []string{
			"/usr/share/code/bin/code",
			"/snap/bin/code",
		}
	}
}

// ListExtensions returns the identifiers of installed extensions, lowercased
// for case-insensitive matching against manifest ids.
func (c CLI) ListExtensions(ctx context.Context, runner execx.Runner, timeout time.Duration) (map[string]struct{}, error) {
	result, err := runner.Run(ctx, []string{c.Path, "--list-extensions"}, execx.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("list extensions: %w", err)
	}

	installed := make(map[string]struct{})
	for _, line := range strings.Split(result.Stdout, "\n") {
		id := strings.ToLower(strings.TrimSpace(line))
		if id != "" {
			installed[id] = struct{}{}
		}
	}
	return installed, nil
}

// InstallArgv returns the acquisition argv for a single extension.
func (c CLI) InstallArgv(extensionID string) []string {
	return []string{c.Path, "--install-extension", extensionID}
}
