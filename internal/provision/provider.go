package provision

import (
	"context"
	"fmt"
	"time"

	"github.com/coursetools/courseup/internal/config"
	"github.com/coursetools/courseup/internal/editor"
	"github.com/coursetools/courseup/internal/execx"
	"github.com/coursetools/courseup/internal/model"
	"github.com/coursetools/courseup/internal/pyenv"
	courseuperrors "github.com/coursetools/courseup/pkg/errors"
)

// Env bundles the external handles a provider needs. Everything is passed in
// explicitly; providers never consult ambient process state, which keeps them
// testable with a fake runner.
type Env struct {
	Runner       execx.Runner
	Venv         pyenv.Venv
	Editor       *editor.CLI
	ProbeTimeout time.Duration
}

// Interpreter returns the environment interpreter used for import probes and
// {python} expansion in acquisition argv.
func (e *Env) Interpreter() pyenv.Interpreter {
	return e.Venv.Interpreter()
}

// ExpandArgv substitutes placeholders in an acquisition argv.
func (e *Env) ExpandArgv(argv []string) []string {
	out := make([]string, len(argv))
	for i, arg := range argv {
		if arg == config.InterpreterPlaceholder {
			out[i] = e.Venv.Python()
			continue
		}
		out[i] = arg
	}
	return out
}

// Provider implements detection and acquisition for one capability type.
type Provider interface {
	// Type names the capability type this provider handles.
	Type() string

	// Detect performs a strictly read-only probe for whether the capability
	// is already satisfied. It must not mutate any system state.
	Detect(ctx context.Context, capability config.Capability) (model.Detection, error)

	// Acquire invokes the external command(s) that satisfy the capability.
	// It is only called when Detect reported the capability missing, and its
	// context carries the per-acquisition deadline.
	Acquire(ctx context.Context, capability config.Capability) error
}

// Registry maps capability types to providers.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register adds a provider, rejecting duplicate types.
func (r *Registry) Register(p Provider) error {
	if p == nil {
		return courseuperrors.NewProviderError("", fmt.Errorf("provider is nil"))
	}
	if _, exists := r.providers[p.Type()]; exists {
		return courseuperrors.NewProviderError(p.Type(), fmt.Errorf("provider already registered"))
	}
	r.providers[p.Type()] = p
	return nil
}

// Lookup returns the provider for a capability type.
func (r *Registry) Lookup(capabilityType string) (Provider, error) {
	p, ok := r.providers[capabilityType]
	if !ok {
		return nil, courseuperrors.NewProviderError(capabilityType, fmt.Errorf("no provider registered"))
	}
	return p, nil
}

// DefaultRegistry wires up the built-in providers for the given environment.
func DefaultRegistry(env *Env) *Registry {
	r := NewRegistry()
	for _, p := range []Provider{
		newExtensionProvider(env),
		newPackageProvider(env),
		newAssetProvider(env),
		newRepoProvider(),
		newCommandProvider(env),
	} {
		// Built-in types are distinct; Register cannot fail here.
		_ = r.Register(p)
	}
	return r
}
