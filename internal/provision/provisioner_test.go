package provision

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/coursetools/courseup/internal/config"
	"github.com/coursetools/courseup/internal/execx"
	"github.com/coursetools/courseup/internal/logger"
	"github.com/coursetools/courseup/internal/model"
	courseuperrors "github.com/coursetools/courseup/pkg/errors"
)

type fakeResponse struct {
	result execx.Result
	err    error
}

// fakeRunner scripts subprocess behaviour per argv and records every call.
type fakeRunner struct {
	paths     map[string]string
	responses map[string][]fakeResponse
	calls     [][]string
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		paths:     make(map[string]string),
		responses: make(map[string][]fakeResponse),
	}
}

func argvKey(argv []string) string {
	return strings.Join(argv, " ")
}

func (f *fakeRunner) script(argv []string, result execx.Result, err error) {
	key := argvKey(argv)
	f.responses[key] = append(f.responses[key], fakeResponse{result: result, err: err})
}

func (f *fakeRunner) Run(_ context.Context, argv []string, _ execx.Options) (execx.Result, error) {
	f.calls = append(f.calls, argv)

	key := argvKey(argv)
	queue := f.responses[key]
	if len(queue) == 0 {
		return execx.Result{}, nil
	}
	f.responses[key] = queue[1:]
	return queue[0].result, queue[0].err
}

func (f *fakeRunner) LookPath(name string) (string, error) {
	if path, ok := f.paths[name]; ok {
		return path, nil
	}
	return "", fmt.Errorf("%s not found on path", name)
}

// fakeProvider simulates capability state: acquisitions flip the capability to
// satisfied unless scripted otherwise, so re-runs observe persistent state.
type fakeProvider struct {
	satisfied    map[string]bool
	detectErr    map[string]error
	acquireErr   map[string]error
	blockAcquire map[string]bool
	acquired     []string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		satisfied:    make(map[string]bool),
		detectErr:    make(map[string]error),
		acquireErr:   make(map[string]error),
		blockAcquire: make(map[string]bool),
	}
}

func (p *fakeProvider) Type() string { return "fake" }

func (p *fakeProvider) Detect(_ context.Context, capability config.Capability) (model.Detection, error) {
	if err := p.detectErr[capability.ID]; err != nil {
		return model.Detection{}, err
	}
	status := model.StatusMissing
	if p.satisfied[capability.ID] {
		status = model.StatusSatisfied
	}
	return model.Detection{CapabilityID: capability.ID, Status: status, Message: string(status)}, nil
}

func (p *fakeProvider) Acquire(ctx context.Context, capability config.Capability) error {
	p.acquired = append(p.acquired, capability.ID)

	if p.blockAcquire[capability.ID] {
		<-ctx.Done()
		return ctx.Err()
	}
	if err := p.acquireErr[capability.ID]; err != nil {
		return err
	}
	p.satisfied[capability.ID] = true
	return nil
}

func discardLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(logger.Options{Level: "error", Writer: io.Discard})
	require.NoError(t, err)
	return log
}

func newTestProvisioner(t *testing.T, provider Provider, acquireTimeout time.Duration) *Provisioner {
	t.Helper()
	registry := NewRegistry()
	require.NoError(t, registry.Register(provider))
	return New(&Env{Runner: newFakeRunner(), ProbeTimeout: time.Second}, registry, acquireTimeout, discardLogger(t))
}

func fakeCapability(id string) config.Capability {
	return config.Capability{ID: id, Type: "fake", Enabled: true}
}

func TestRunOneResultPerCapabilityInOrder(t *testing.T) {
	t.Parallel()

	provider := newFakeProvider()
	provider.satisfied["b"] = true
	provider.acquireErr["c"] = fmt.Errorf("boom")

	capabilities := []config.Capability{
		fakeCapability("a"),
		fakeCapability("b"),
		fakeCapability("c"),
		fakeCapability("d"),
	}

	report := newTestProvisioner(t, provider, 0).Run(context.Background(), capabilities)

	require.Len(t, report.Results, len(capabilities))
	for i, capability := range capabilities {
		require.Equal(t, capability.ID, report.Results[i].CapabilityID)
	}
	require.Equal(t, model.OutcomeNewlySatisfied, report.Results[0].Outcome)
	require.Equal(t, model.OutcomeAlreadySatisfied, report.Results[1].Outcome)
	require.Equal(t, model.OutcomeFailed, report.Results[2].Outcome)
	require.Equal(t, model.OutcomeNewlySatisfied, report.Results[3].Outcome)
}

func TestRunSatisfiedSkipsAcquisition(t *testing.T) {
	t.Parallel()

	provider := newFakeProvider()
	provider.satisfied["present"] = true

	report := newTestProvisioner(t, provider, 0).Run(context.Background(), []config.Capability{fakeCapability("present")})

	require.Equal(t, model.OutcomeAlreadySatisfied, report.Results[0].Outcome)
	require.Empty(t, provider.acquired)
}

func TestRunAcquisitionFailureIsIsolated(t *testing.T) {
	t.Parallel()

	provider := newFakeProvider()
	provider.acquireErr["broken"] = fmt.Errorf("exit status 1")

	report := newTestProvisioner(t, provider, 0).Run(context.Background(), []config.Capability{
		fakeCapability("broken"),
		fakeCapability("fine"),
	})

	require.Equal(t, model.OutcomeFailed, report.Results[0].Outcome)
	require.Equal(t, model.OutcomeNewlySatisfied, report.Results[1].Outcome)
	// The failed item runs exactly one command: its acquisition.
	require.Equal(t, []string{"broken", "fine"}, provider.acquired)
}

func TestRunRequiresReverification(t *testing.T) {
	t.Parallel()

	// Acquisition "succeeds" without actually satisfying the capability.
	liar := &lyingProvider{fakeProvider: newFakeProvider()}

	report := newTestProvisioner(t, liar, 0).Run(context.Background(), []config.Capability{fakeCapability("phantom")})

	require.Equal(t, model.OutcomeFailed, report.Results[0].Outcome)
	require.Contains(t, report.Results[0].Message, "verification failed")
}

// lyingProvider reports acquisition success without changing state.
type lyingProvider struct {
	*fakeProvider
}

func (p *lyingProvider) Acquire(_ context.Context, capability config.Capability) error {
	p.acquired = append(p.acquired, capability.ID)
	return nil
}

func TestRunIsIdempotent(t *testing.T) {
	t.Parallel()

	provider := newFakeProvider()
	capabilities := []config.Capability{fakeCapability("a"), fakeCapability("b")}
	provisioner := newTestProvisioner(t, provider, 0)

	first := provisioner.Run(context.Background(), capabilities)
	require.Equal(t, 2, first.NewlySatisfied)
	require.Len(t, provider.acquired, 2)

	second := provisioner.Run(context.Background(), capabilities)
	require.Equal(t, 2, second.AlreadySatisfied)
	// No new acquisition commands on the second run.
	require.Len(t, provider.acquired, 2)
}

func TestRunAcquisitionTimeout(t *testing.T) {
	t.Parallel()

	provider := newFakeProvider()
	provider.blockAcquire["slow"] = true

	report := newTestProvisioner(t, provider, 20*time.Millisecond).Run(context.Background(), []config.Capability{
		fakeCapability("slow"),
		fakeCapability("next"),
	})

	require.Equal(t, model.OutcomeFailed, report.Results[0].Outcome)
	require.Contains(t, report.Results[0].Diagnostic, "timed out")
	// The run proceeds to the next capability.
	require.Equal(t, model.OutcomeNewlySatisfied, report.Results[1].Outcome)

	var acqErr *courseuperrors.AcquisitionError
	require.ErrorAs(t, report.Results[0].Error, &acqErr)
	require.True(t, acqErr.Timeout)
	require.Equal(t, "slow", acqErr.CapabilityID)
}

func TestRunWrapsAcquisitionErrors(t *testing.T) {
	t.Parallel()

	provider := newFakeProvider()
	provider.acquireErr["broken"] = fmt.Errorf("exit status 1")

	report := newTestProvisioner(t, provider, 0).Run(context.Background(), []config.Capability{fakeCapability("broken")})

	var acqErr *courseuperrors.AcquisitionError
	require.ErrorAs(t, report.Results[0].Error, &acqErr)
	require.False(t, acqErr.Timeout)
	require.Equal(t, "broken", acqErr.CapabilityID)
	require.Contains(t, acqErr.Error(), "exit status 1")
}

// interruptingProvider cancels the run from inside its first acquisition, the
// way a Ctrl-C lands while a download is in flight.
type interruptingProvider struct {
	*fakeProvider
	cancel context.CancelFunc
}

func (p *interruptingProvider) Acquire(ctx context.Context, capability config.Capability) error {
	p.acquired = append(p.acquired, capability.ID)
	p.cancel()
	return ctx.Err()
}

func TestRunCancellationSkipsRemaining(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	provider := &interruptingProvider{fakeProvider: newFakeProvider(), cancel: cancel}

	report := newTestProvisioner(t, provider, 0).Run(ctx, []config.Capability{
		fakeCapability("downloading"),
		fakeCapability("pending_a"),
		fakeCapability("pending_b"),
	})

	require.Len(t, report.Results, 3)
	require.Equal(t, model.OutcomeFailed, report.Results[0].Outcome)
	require.Equal(t, model.OutcomeSkipped, report.Results[1].Outcome)
	require.Equal(t, model.OutcomeSkipped, report.Results[2].Outcome)
	require.Contains(t, report.Results[1].Message, "interrupted")
	// Nothing after the interrupted capability attempts an acquisition.
	require.Equal(t, []string{"downloading"}, provider.acquired)
}

func TestRunSkipsDisabledCapabilities(t *testing.T) {
	t.Parallel()

	provider := newFakeProvider()
	disabled := fakeCapability("off")
	disabled.Enabled = false

	report := newTestProvisioner(t, provider, 0).Run(context.Background(), []config.Capability{disabled})

	require.Equal(t, model.OutcomeSkipped, report.Results[0].Outcome)
	require.Empty(t, provider.acquired)
}

func TestRunUnknownTypeFails(t *testing.T) {
	t.Parallel()

	provider := newFakeProvider()
	unknown := config.Capability{ID: "mystery", Type: "mystery", Enabled: true}

	report := newTestProvisioner(t, provider, 0).Run(context.Background(), []config.Capability{unknown})

	require.Equal(t, model.OutcomeFailed, report.Results[0].Outcome)
	require.Error(t, report.Results[0].Error)
}

func TestRunNotifierSeesTerminalResults(t *testing.T) {
	t.Parallel()

	provider := newFakeProvider()
	provisioner := newTestProvisioner(t, provider, 0)

	var events []model.ProvisioningResult
	provisioner.SetNotifier(func(result model.ProvisioningResult) {
		events = append(events, result)
	})

	provisioner.Run(context.Background(), []config.Capability{fakeCapability("a")})

	// One running event followed by one terminal event.
	require.Len(t, events, 2)
	require.Equal(t, model.OutcomeRunning, events[0].Outcome)
	require.Equal(t, model.OutcomeNewlySatisfied, events[1].Outcome)
}

func TestVerifyAllNeverAcquires(t *testing.T) {
	t.Parallel()

	provider := newFakeProvider()
	provider.satisfied["ok"] = true

	provisioner := newTestProvisioner(t, provider, 0)
	summary := provisioner.VerifyAll(context.Background(), []config.Capability{
		fakeCapability("ok"),
		fakeCapability("missing"),
	})

	require.Equal(t, 1, summary.Satisfied)
	require.Equal(t, 1, summary.Missing)
	require.Empty(t, provider.acquired)
	require.Equal(t, 1, summary.ExitCode())
}

func TestPackageCapabilityNewlySatisfied(t *testing.T) {
	t.Parallel()

	runner := newFakeRunner()
	env := &Env{Runner: runner, Venv: testVenv(), ProbeTimeout: time.Second}
	python := env.Venv.Python()

	importProbe := []string{python, "-c", "import pkg_a"}
	install := []string{python, "-m", "pip", "install", "--upgrade", "pkg-a"}

	// Not importable before the install, importable afterwards.
	runner.script(importProbe, execx.Result{ExitCode: 1}, &execx.ExitStatusError{Code: 1})
	runner.script(install, execx.Result{}, nil)
	runner.script(importProbe, execx.Result{}, nil)

	registry := DefaultRegistry(env)
	provisioner := New(env, registry, 0, discardLogger(t))

	capability := config.Capability{
		ID:      "pkg_a",
		Type:    "package",
		Enabled: true,
		Package: &config.PackageCapability{Package: "pkg-a"},
	}

	report := provisioner.Run(context.Background(), []config.Capability{capability})

	require.Equal(t, model.OutcomeNewlySatisfied, report.Results[0].Outcome)
	require.Equal(t, [][]string{importProbe, install, importProbe}, runner.calls)
}
