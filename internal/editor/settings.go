package editor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// WriteWorkspaceSettings points the editor's workspace settings at the given
// interpreter. Existing settings are preserved: the file is read, the
// interpreter keys are merged in, and the result is written back.
func WriteWorkspaceSettings(settingsDir, interpreterPath string) (string, error) {
	abs, err := filepath.Abs(interpreterPath)
	if err != nil {
		return "", fmt.Errorf("resolve interpreter path: %w", err)
	}

	settings := map[string]any{
		"python.defaultInterpreterPath": abs,
		"jupyter.kernels.filter": []map[string]any{
			{"path": abs, "type": "pythonEnvironment"},
		},
	}

	if err := os.MkdirAll(settingsDir, 0o755); err != nil {
		return "", fmt.Errorf("create settings directory: %w", err)
	}

	settingsFile := filepath.Join(settingsDir, "settings.json")

	if data, err := os.ReadFile(settingsFile); err == nil {
		existing := make(map[string]any)
		if err := json.Unmarshal(data, &existing); err != nil {
			return "", fmt.Errorf("existing settings file %s is not valid JSON: %w", settingsFile, err)
		}
		for key, value := range settings {
			existing[key] = value
		}
		settings = existing
	}

	data, err := json.MarshalIndent(settings, "", "    ")
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(settingsFile, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("write settings file: %w", err)
	}

	return settingsFile, nil
}
