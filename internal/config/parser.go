package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	courseuperrors "github.com/coursetools/courseup/pkg/errors"
)

var yamlLineRegex = regexp.MustCompile(`line (\d+)`)

// Default values applied when the manifest omits optional settings.
const (
	DefaultProbeTimeout   = 10
	DefaultAcquireTimeout = 600
	DefaultEnvironmentDir = "course_env"
	DefaultSettingsDir    = ".vscode"
	DefaultMinPython      = "3.8"
)

// ParseManifest loads a manifest file from disk, validates it, applies defaults,
// and returns the resulting model.
func ParseManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, courseuperrors.NewParseError(path, 0, err)
	}

	return ParseManifestBytes(path, data)
}

// ParseManifestBytes parses manifest content that is already in memory, such as
// the embedded built-in manifest. The path parameter is only used in errors.
func ParseManifestBytes(path string, data []byte) (*Manifest, error) {
	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, courseuperrors.NewParseError(path, extractLine(err), err)
	}

	applyDefaults(&manifest)

	if err := ValidateManifest(&manifest); err != nil {
		return nil, err
	}

	return &manifest, nil
}

func applyDefaults(manifest *Manifest) {
	if manifest.Settings.ProbeTimeout == 0 {
		manifest.Settings.ProbeTimeout = DefaultProbeTimeout
	}
	if manifest.Settings.AcquireTimeout == nil {
		timeout := DefaultAcquireTimeout
		manifest.Settings.AcquireTimeout = &timeout
	}
	if manifest.Environment.Root == "" {
		manifest.Environment.Root = DefaultEnvironmentDir
	}
	if manifest.Environment.MinPython == "" {
		manifest.Environment.MinPython = DefaultMinPython
	}
	if manifest.Editor.SettingsDir == "" {
		manifest.Editor.SettingsDir = DefaultSettingsDir
	}
}

func extractLine(err error) int {
	if err == nil {
		return 0
	}

	matches := yamlLineRegex.FindStringSubmatch(err.Error())
	if len(matches) != 2 {
		return 0
	}

	var line int
	_, scanErr := fmt.Sscanf(matches[1], "%d", &line)
	if scanErr != nil {
		return 0
	}

	return line
}
