package provision

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/coursetools/courseup/internal/config"
	"github.com/coursetools/courseup/internal/execx"
	"github.com/coursetools/courseup/internal/materials"
	"github.com/coursetools/courseup/internal/model"
	courseuperrors "github.com/coursetools/courseup/pkg/errors"
)

// extensionProvider installs editor extensions through the editor CLI.
type extensionProvider struct {
	env *Env
}

func newExtensionProvider(env *Env) *extensionProvider {
	return &extensionProvider{env: env}
}

func (p *extensionProvider) Type() string { return "extension" }

func (p *extensionProvider) Detect(ctx context.Context, capability config.Capability) (model.Detection, error) {
	cfg := capability.Extension
	if cfg == nil {
		return model.Detection{}, courseuperrors.NewValidationError(capability.ID, "extension configuration missing", nil)
	}
	if p.env.Editor == nil {
		return model.Detection{}, courseuperrors.NewPrerequisiteError("editor", "editor CLI not located", nil)
	}

	installed, err := p.env.Editor.ListExtensions(ctx, p.env.Runner, p.env.ProbeTimeout)
	if err != nil {
		return detection(capability.ID, model.StatusBlocked, "cannot list installed extensions", err), nil
	}

	if _, ok := installed[strings.ToLower(cfg.Extension)]; ok {
		return detection(capability.ID, model.StatusSatisfied, fmt.Sprintf("extension %s is installed", cfg.Extension), nil), nil
	}
	return detection(capability.ID, model.StatusMissing, fmt.Sprintf("extension %s is not installed", cfg.Extension), nil), nil
}

func (p *extensionProvider) Acquire(ctx context.Context, capability config.Capability) error {
	cfg := capability.Extension
	if cfg == nil {
		return courseuperrors.NewValidationError(capability.ID, "extension configuration missing", nil)
	}
	if p.env.Editor == nil {
		return courseuperrors.NewPrerequisiteError("editor", "editor CLI not located", nil)
	}

	return runAcquisition(ctx, p.env.Runner, p.env.Editor.InstallArgv(cfg.Extension))
}

// packageProvider installs interpreter packages into the isolated environment.
type packageProvider struct {
	env *Env
}

func newPackageProvider(env *Env) *packageProvider {
	return &packageProvider{env: env}
}

func (p *packageProvider) Type() string { return "package" }

func (p *packageProvider) Detect(ctx context.Context, capability config.Capability) (model.Detection, error) {
	cfg := capability.Package
	if cfg == nil {
		return model.Detection{}, courseuperrors.NewValidationError(capability.ID, "package configuration missing", nil)
	}

	module := cfg.Module
	if module == "" {
		module = ImportName(cfg.Package)
	}

	status, message, err := detectImportable(ctx, p.env, module)
	return detection(capability.ID, status, message, err), nil
}

func (p *packageProvider) Acquire(ctx context.Context, capability config.Capability) error {
	cfg := capability.Package
	if cfg == nil {
		return courseuperrors.NewValidationError(capability.ID, "package configuration missing", nil)
	}

	return runAcquisition(ctx, p.env.Runner, p.env.Venv.InstallArgv(cfg.Package))
}

// ImportName derives the import name from a distribution name: version
// specifiers are stripped and dashes become underscores.
func ImportName(pkg string) string {
	name := pkg
	for _, sep := range []string{">=", "<=", "==", "<", ">", "~="} {
		if idx := strings.Index(name, sep); idx >= 0 {
			name = name[:idx]
		}
	}
	return strings.ReplaceAll(strings.TrimSpace(name), "-", "_")
}

// assetProvider downloads data assets via library CLIs (tokenizer data,
// language models, the geographic database).
type assetProvider struct {
	env *Env
}

func newAssetProvider(env *Env) *assetProvider {
	return &assetProvider{env: env}
}

func (p *assetProvider) Type() string { return "asset" }

func (p *assetProvider) Detect(ctx context.Context, capability config.Capability) (model.Detection, error) {
	cfg := capability.Asset
	if cfg == nil {
		return model.Detection{}, courseuperrors.NewValidationError(capability.ID, "asset configuration missing", nil)
	}

	var (
		status  model.DetectionStatus
		message string
		err     error
	)
	if cfg.Path != "" {
		status, message, err = detectFileExists(cfg.Path)
	} else {
		status, message, err = detectImportable(ctx, p.env, cfg.Module)
	}
	return detection(capability.ID, status, message, err), nil
}

func (p *assetProvider) Acquire(ctx context.Context, capability config.Capability) error {
	cfg := capability.Asset
	if cfg == nil {
		return courseuperrors.NewValidationError(capability.ID, "asset configuration missing", nil)
	}

	return runAcquisition(ctx, p.env.Runner, p.env.ExpandArgv(cfg.Acquire))
}

// repoProvider clones the course materials repository.
type repoProvider struct{}

func newRepoProvider() *repoProvider {
	return &repoProvider{}
}

func (p *repoProvider) Type() string { return "repo" }

func (p *repoProvider) Detect(ctx context.Context, capability config.Capability) (model.Detection, error) {
	cfg := capability.Repo
	if cfg == nil {
		return model.Detection{}, courseuperrors.NewValidationError(capability.ID, "repo configuration missing", nil)
	}

	present, err := materials.NewCheckout(*cfg).Present()
	if err != nil {
		return detection(capability.ID, model.StatusBlocked, "cannot inspect destination", err), nil
	}
	if present {
		return detection(capability.ID, model.StatusSatisfied, fmt.Sprintf("repository present at %s", cfg.Destination), nil), nil
	}
	return detection(capability.ID, model.StatusMissing, fmt.Sprintf("no repository at %s", cfg.Destination), nil), nil
}

func (p *repoProvider) Acquire(ctx context.Context, capability config.Capability) error {
	cfg := capability.Repo
	if cfg == nil {
		return courseuperrors.NewValidationError(capability.ID, "repo configuration missing", nil)
	}

	return materials.NewCheckout(*cfg).Clone(ctx)
}

// commandProvider is the generic capability form: an explicit detection spec
// paired with an acquisition argv.
type commandProvider struct {
	env *Env
}

func newCommandProvider(env *Env) *commandProvider {
	return &commandProvider{env: env}
}

func (p *commandProvider) Type() string { return "command" }

func (p *commandProvider) Detect(ctx context.Context, capability config.Capability) (model.Detection, error) {
	cfg := capability.Command
	if cfg == nil {
		return model.Detection{}, courseuperrors.NewValidationError(capability.ID, "command configuration missing", nil)
	}

	status, message, err := evaluateDetect(ctx, p.env, cfg.Detect)
	return detection(capability.ID, status, message, err), nil
}

func (p *commandProvider) Acquire(ctx context.Context, capability config.Capability) error {
	cfg := capability.Command
	if cfg == nil {
		return courseuperrors.NewValidationError(capability.ID, "command configuration missing", nil)
	}

	return runAcquisition(ctx, p.env.Runner, p.env.ExpandArgv(cfg.Acquire))
}

// runAcquisition executes an acquisition argv, streaming its output through to
// the console and folding captured stderr into the returned error.
func runAcquisition(ctx context.Context, runner execx.Runner, argv []string) error {
	result, err := runner.Run(ctx, argv, execx.Options{Stream: true})
	if err != nil {
		if out := result.PrimaryOutput(); out != "" {
			return fmt.Errorf("%w: %s", err, out)
		}
		return err
	}
	return nil
}

func detection(capabilityID string, status model.DetectionStatus, message string, err error) model.Detection {
	return model.Detection{
		CapabilityID: capabilityID,
		Status:       status,
		Message:      message,
		Error:        err,
		Timestamp:    time.Now(),
	}
}
