package config

import (
	"time"

	"gopkg.in/yaml.v3"
)

// Detection method names accepted in capability detect blocks.
const (
	DetectOnPath         = "on_path"
	DetectImportable     = "importable"
	DetectFileExists     = "file_exists"
	DetectOutputContains = "output_contains"
)

// Manifest represents the full courseup manifest document.
type Manifest struct {
	Version      string       `yaml:"version" validate:"required,semver"`
	Name         string       `yaml:"name" validate:"required,min=1,max=100"`
	Description  string       `yaml:"description,omitempty"`
	Settings     Settings     `yaml:"settings,omitempty"`
	Environment  Environment  `yaml:"environment,omitempty"`
	Editor       Editor       `yaml:"editor,omitempty"`
	Capabilities []Capability `yaml:"capabilities" validate:"required,min=1,dive"`
}

// Settings holds global execution parameters. Timeouts are in seconds; an
// explicit acquire timeout of zero means unbounded, which large model
// downloads need. AcquireTimeout is a pointer so that an omitted key can take
// the default while a literal 0 is honoured.
type Settings struct {
	ProbeTimeout   int  `yaml:"probe_timeout,omitempty" validate:"omitempty,min=1,max=300"`
	AcquireTimeout *int `yaml:"acquire_timeout,omitempty" validate:"omitempty,min=0,max=86400"`
	Verbose        bool `yaml:"verbose,omitempty"`
}

// ProbeTimeoutDuration returns the detection probe bound.
func (s Settings) ProbeTimeoutDuration() time.Duration {
	return time.Duration(s.ProbeTimeout) * time.Second
}

// AcquireTimeoutDuration returns the per-acquisition bound; zero means unbounded.
func (s Settings) AcquireTimeoutDuration() time.Duration {
	if s.AcquireTimeout == nil {
		return 0
	}
	return time.Duration(*s.AcquireTimeout) * time.Second
}

// Environment describes the isolated interpreter environment to provision.
type Environment struct {
	Root          string `yaml:"root,omitempty"`
	KernelName    string `yaml:"kernel_name,omitempty" validate:"omitempty,capability_id"`
	KernelDisplay string `yaml:"kernel_display,omitempty" validate:"omitempty,max=100"`
	Recreate      bool   `yaml:"recreate,omitempty"`
	MinPython     string `yaml:"min_python,omitempty" validate:"omitempty,semver"`
}

// Editor describes workspace-level editor integration.
type Editor struct {
	SettingsDir string `yaml:"settings_dir,omitempty"`
}

// Capability describes one installable or acquirable unit.
type Capability struct {
	ID      string `yaml:"id" validate:"required,capability_id"`
	Name    string `yaml:"name,omitempty"`
	Type    string `yaml:"type" validate:"required,oneof=extension package asset repo command"`
	Enabled bool   `yaml:"enabled,omitempty"`

	Extension *ExtensionCapability `yaml:",inline,omitempty"`
	Package   *PackageCapability   `yaml:",inline,omitempty"`
	Asset     *AssetCapability     `yaml:",inline,omitempty"`
	Repo      *RepoCapability      `yaml:",inline,omitempty"`
	Command   *CommandCapability   `yaml:",inline,omitempty"`
}

// DisplayName returns the human-facing name, falling back to the id.
func (c Capability) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.ID
}

// UnmarshalYAML customises capability decoding to populate the type-specific
// structure without yaml key conflicts between the variants.
func (c *Capability) UnmarshalYAML(value *yaml.Node) error {
	type baseCapability struct {
		ID      string `yaml:"id"`
		Name    string `yaml:"name"`
		Type    string `yaml:"type"`
		Enabled *bool  `yaml:"enabled"`
	}

	var base baseCapability
	if err := value.Decode(&base); err != nil {
		return err
	}

	c.ID = base.ID
	c.Name = base.Name
	c.Type = base.Type
	if base.Enabled != nil {
		c.Enabled = *base.Enabled
	} else {
		c.Enabled = true
	}

	c.Extension = nil
	c.Package = nil
	c.Asset = nil
	c.Repo = nil
	c.Command = nil

	switch base.Type {
	case "extension":
		var ext ExtensionCapability
		if err := value.Decode(&ext); err != nil {
			return err
		}
		c.Extension = &ext
	case "package":
		var pkg PackageCapability
		if err := value.Decode(&pkg); err != nil {
			return err
		}
		c.Package = &pkg
	case "asset":
		var asset AssetCapability
		if err := value.Decode(&asset); err != nil {
			return err
		}
		c.Asset = &asset
	case "repo":
		var repo RepoCapability
		if err := value.Decode(&repo); err != nil {
			return err
		}
		c.Repo = &repo
	case "command":
		var cmd CommandCapability
		if err := value.Decode(&cmd); err != nil {
			return err
		}
		c.Command = &cmd
	}

	return nil
}

// ExtensionCapability installs an editor extension by marketplace identifier.
type ExtensionCapability struct {
	Extension string `yaml:"extension" validate:"required,min=1,max=200"`
}

// PackageCapability installs an interpreter package inside the isolated environment.
// Module is the import name when it differs from the distribution name.
type PackageCapability struct {
	Package string `yaml:"package" validate:"required,min=1,max=100"`
	Module  string `yaml:"module,omitempty" validate:"omitempty,max=100"`
}

// AssetCapability downloads a data asset through a library's own CLI. Detection is
// a nonempty-file probe when Path is set, otherwise an import probe on Module.
type AssetCapability struct {
	Path    string   `yaml:"path,omitempty"`
	Module  string   `yaml:"module,omitempty"`
	Acquire []string `yaml:"acquire" validate:"required,min=1,dive,min=1"`
}

// RepoCapability clones a git repository, typically the course materials.
type RepoCapability struct {
	URL         string `yaml:"url" validate:"required,url"`
	Destination string `yaml:"destination" validate:"required"`
	Branch      string `yaml:"branch,omitempty"`
	Depth       int    `yaml:"depth,omitempty" validate:"omitempty,min=0"`
}

// CommandCapability is the generic form: an explicit detection spec paired with
// an acquisition argv. The other capability types are conveniences over this.
type CommandCapability struct {
	Detect  DetectSpec `yaml:"detect"`
	Acquire []string   `yaml:"acquire" validate:"required,min=1,dive,min=1"`
}

// DetectSpec selects and parameterises one of the detection methods.
type DetectSpec struct {
	Method string `yaml:"method" validate:"required,oneof=on_path importable file_exists output_contains"`

	// on_path: prioritized command candidates plus an optional version probe.
	Commands  []string `yaml:"commands,omitempty"`
	ProbeArgs []string `yaml:"probe_args,omitempty"`

	// importable: module name resolved in the environment interpreter.
	Module string `yaml:"module,omitempty"`

	// file_exists: path that must exist with nonzero size.
	Path string `yaml:"path,omitempty"`

	// output_contains: probe argv whose stdout must contain the marker.
	Probe  []string `yaml:"probe,omitempty"`
	Marker string   `yaml:"marker,omitempty"`
}

// InterpreterPlaceholder in acquisition argv expands to the environment interpreter path.
const InterpreterPlaceholder = "{python}"

// CapabilityMap builds a lookup table for capabilities by id.
func CapabilityMap(capabilities []Capability) map[string]Capability {
	out := make(map[string]Capability, len(capabilities))
	for _, capability := range capabilities {
		out[capability.ID] = capability
	}
	return out
}
