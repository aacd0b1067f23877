package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/coursetools/courseup/internal/config"
	"github.com/coursetools/courseup/internal/manifests"
)

const defaultDurationPrecision = 10 * time.Millisecond

// loadManifest reads the manifest from disk, or falls back to the embedded
// built-in course manifest when no path is given.
func loadManifest(path string) (*config.Manifest, error) {
	if strings.TrimSpace(path) == "" {
		return config.ParseManifestBytes(manifests.BuiltinName, manifests.Builtin())
	}

	if err := validateManifestPath(path); err != nil {
		return nil, err
	}
	return config.ParseManifest(path)
}

func validateManifestPath(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve manifest path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("manifest file does not exist: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("manifest path %s is a directory", abs)
	}

	return nil
}

// hasEnabledType reports whether any enabled capability has the given type.
func hasEnabledType(manifest *config.Manifest, capabilityType string) bool {
	for _, capability := range manifest.Capabilities {
		if capability.Enabled && capability.Type == capabilityType {
			return true
		}
	}
	return false
}

// needsInterpreter reports whether the manifest uses the isolated environment:
// package and asset capabilities always do, and command capabilities do when
// their argv references the interpreter placeholder.
func needsInterpreter(manifest *config.Manifest) bool {
	for _, capability := range manifest.Capabilities {
		if !capability.Enabled {
			continue
		}
		switch capability.Type {
		case "package", "asset":
			return true
		case "command":
			if capability.Command == nil {
				continue
			}
			for _, arg := range capability.Command.Acquire {
				if arg == config.InterpreterPlaceholder {
					return true
				}
			}
			for _, arg := range capability.Command.Detect.Probe {
				if arg == config.InterpreterPlaceholder {
					return true
				}
			}
		}
	}
	return manifest.Environment.KernelName != ""
}
