package provision

import (
	"context"
	"fmt"
	"time"

	"github.com/coursetools/courseup/internal/config"
	"github.com/coursetools/courseup/internal/execx"
	"github.com/coursetools/courseup/internal/logger"
	"github.com/coursetools/courseup/internal/model"
	courseuperrors "github.com/coursetools/courseup/pkg/errors"
)

// Notifier receives progress events while a run executes. The TUI subscribes
// here; a nil notifier is valid.
type Notifier func(model.ProvisioningResult)

// Provisioner walks an ordered capability list through the
// detect → acquire → re-verify workflow. Capabilities are processed strictly
// sequentially and a single capability's failure never aborts the run.
type Provisioner struct {
	env            *Env
	registry       *Registry
	acquireTimeout time.Duration
	log            *logger.Logger
	notify         Notifier
}

// New constructs a Provisioner. acquireTimeout bounds each acquisition; zero
// means unbounded, which large model downloads need.
func New(env *Env, registry *Registry, acquireTimeout time.Duration, log *logger.Logger) *Provisioner {
	return &Provisioner{
		env:            env,
		registry:       registry,
		acquireTimeout: acquireTimeout,
		log:            log,
	}
}

// SetNotifier installs a progress callback invoked for every state change.
func (p *Provisioner) SetNotifier(notify Notifier) {
	p.notify = notify
}

// Run processes every capability in input order and returns one result per
// capability. The report is complete even when individual items fail.
func (p *Provisioner) Run(ctx context.Context, capabilities []config.Capability) *model.RunReport {
	report := model.NewRunReport()

	for _, capability := range capabilities {
		// A cancelled run stops acquiring; remaining capabilities still get a
		// result so the report stays one entry per input.
		if ctx.Err() != nil {
			result := model.ProvisioningResult{
				CapabilityID: capability.ID,
				Outcome:      model.OutcomeSkipped,
				Message:      "run interrupted",
				Timestamp:    time.Now(),
			}
			report.Add(result)
			p.emit(result)
			continue
		}

		result := p.runOne(ctx, capability)
		report.Add(result)
		p.emit(result)
	}

	report.Duration = time.Since(report.StartedAt)
	return report
}

func (p *Provisioner) runOne(ctx context.Context, capability config.Capability) model.ProvisioningResult {
	start := time.Now()
	log := p.log.WithCapability(capability.ID)

	finish := func(outcome, message, diagnostic string, err error) model.ProvisioningResult {
		return model.ProvisioningResult{
			CapabilityID: capability.ID,
			Outcome:      outcome,
			Message:      message,
			Diagnostic:   diagnostic,
			Error:        err,
			Duration:     time.Since(start),
			Timestamp:    time.Now(),
		}
	}

	if !capability.Enabled {
		log.Debug("capability disabled, skipping")
		return finish(model.OutcomeSkipped, "disabled in manifest", "", nil)
	}

	provider, err := p.registry.Lookup(capability.Type)
	if err != nil {
		log.Error(err, "no provider for capability")
		return finish(model.OutcomeFailed, "no provider for capability type", err.Error(), err)
	}

	det, err := provider.Detect(ctx, capability)
	if err != nil {
		log.Error(err, "detection could not run")
		return finish(model.OutcomeFailed, "detection could not run", err.Error(), err)
	}

	switch det.Status {
	case model.StatusSatisfied:
		log.Debug("already satisfied")
		return finish(model.OutcomeAlreadySatisfied, det.Message, "", nil)
	case model.StatusBlocked:
		log.Error(det.Error, "detection blocked")
		return finish(model.OutcomeFailed, det.Message, diagnosticOf(det.Error), det.Error)
	}

	p.emit(model.ProvisioningResult{
		CapabilityID: capability.ID,
		Outcome:      model.OutcomeRunning,
		Message:      det.Message,
		Timestamp:    time.Now(),
	})

	log.WithFields(map[string]any{"reason": det.Message}).Info("acquiring")
	if err := p.acquire(ctx, provider, capability); err != nil {
		if execx.IsTimeout(err) {
			diag := fmt.Sprintf("timed out after %s: %v", p.acquireTimeout, err)
			log.Error(err, "acquisition timed out")
			return finish(model.OutcomeFailed, "acquisition timed out", diag, err)
		}
		log.Error(err, "acquisition failed")
		return finish(model.OutcomeFailed, "acquisition failed", err.Error(), err)
	}

	// The acquisition reported success; trust only re-detection.
	verify, err := provider.Detect(ctx, capability)
	if err != nil || verify.Status != model.StatusSatisfied {
		diag := "acquisition reported success but verification failed"
		if err != nil {
			log.Error(err, diag)
			return finish(model.OutcomeFailed, diag, err.Error(), err)
		}
		log.WithFields(map[string]any{"status": string(verify.Status)}).Warn(diag)
		return finish(model.OutcomeFailed, diag, verify.Message, nil)
	}

	log.Info("newly satisfied")
	return finish(model.OutcomeNewlySatisfied, verify.Message, "", nil)
}

func (p *Provisioner) acquire(ctx context.Context, provider Provider, capability config.Capability) error {
	acquireCtx := ctx
	if p.acquireTimeout > 0 {
		var cancel context.CancelFunc
		acquireCtx, cancel = context.WithTimeout(ctx, p.acquireTimeout)
		defer cancel()
	}

	if err := provider.Acquire(acquireCtx, capability); err != nil {
		if execx.IsTimeout(err) {
			return courseuperrors.NewAcquisitionTimeout(capability.ID, err)
		}
		return courseuperrors.NewAcquisitionError(capability.ID, err)
	}
	return nil
}

// VerifyAll runs the read-only detection pass over every capability without
// acquiring anything.
func (p *Provisioner) VerifyAll(ctx context.Context, capabilities []config.Capability) *model.DetectionSummary {
	summary := &model.DetectionSummary{}
	start := time.Now()

	for _, capability := range capabilities {
		detStart := time.Now()

		if !capability.Enabled {
			continue
		}

		provider, err := p.registry.Lookup(capability.Type)
		if err != nil {
			summary.Add(model.Detection{
				CapabilityID: capability.ID,
				Status:       model.StatusBlocked,
				Message:      "no provider for capability type",
				Error:        err,
				Duration:     time.Since(detStart),
				Timestamp:    time.Now(),
			})
			continue
		}

		det, err := provider.Detect(ctx, capability)
		if err != nil {
			det = model.Detection{
				CapabilityID: capability.ID,
				Status:       model.StatusBlocked,
				Message:      "detection could not run",
				Error:        err,
				Timestamp:    time.Now(),
			}
		}
		det.Duration = time.Since(detStart)
		summary.Add(det)
	}

	summary.Duration = time.Since(start)
	return summary
}

func (p *Provisioner) emit(result model.ProvisioningResult) {
	if p.notify != nil {
		p.notify(result)
	}
}

func diagnosticOf(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
