package model

import (
	"time"
)

const (
	// OutcomePending indicates a capability has not been processed yet.
	OutcomePending = "pending"
	// OutcomeRunning indicates a capability is actively being acquired.
	OutcomeRunning = "running"
	// OutcomeAlreadySatisfied marks a capability that detection found present.
	OutcomeAlreadySatisfied = "already_satisfied"
	// OutcomeNewlySatisfied marks a capability acquired and re-verified during this run.
	OutcomeNewlySatisfied = "newly_satisfied"
	// OutcomeFailed marks an acquisition or verification failure.
	OutcomeFailed = "failed"
	// OutcomeSkipped indicates the capability was disabled or deliberately not processed.
	OutcomeSkipped = "skipped"
)

// ProvisioningResult captures the outcome of processing a single capability.
type ProvisioningResult struct {
	CapabilityID string
	Outcome      string
	Message      string
	Diagnostic   string
	Error        error
	Duration     time.Duration
	Timestamp    time.Time
}

// Satisfied reports whether the capability ended the run present on the system.
func (r ProvisioningResult) Satisfied() bool {
	return r.Outcome == OutcomeAlreadySatisfied || r.Outcome == OutcomeNewlySatisfied
}

// Terminal reports whether the result represents a finished capability.
func (r ProvisioningResult) Terminal() bool {
	switch r.Outcome {
	case OutcomeAlreadySatisfied, OutcomeNewlySatisfied, OutcomeFailed, OutcomeSkipped:
		return true
	}
	return false
}
