package model

import (
	"time"
)

// RunReport is the ordered, append-only record of a single provisioning run.
// It holds exactly one ProvisioningResult per input capability, in input order,
// and is not mutated once the run completes.
type RunReport struct {
	StartedAt time.Time
	Duration  time.Duration

	Results []ProvisioningResult

	AlreadySatisfied int
	NewlySatisfied   int
	Failed           int
	Skipped          int
}

// NewRunReport constructs an empty report stamped with the current time.
func NewRunReport() *RunReport {
	return &RunReport{StartedAt: time.Now()}
}

// Add appends a result and updates the outcome counters.
func (r *RunReport) Add(result ProvisioningResult) {
	r.Results = append(r.Results, result)
	switch result.Outcome {
	case OutcomeAlreadySatisfied:
		r.AlreadySatisfied++
	case OutcomeNewlySatisfied:
		r.NewlySatisfied++
	case OutcomeFailed:
		r.Failed++
	case OutcomeSkipped:
		r.Skipped++
	}
}

// Total returns the number of capabilities processed.
func (r *RunReport) Total() int {
	return len(r.Results)
}

// AllSatisfied reports whether every processed capability ended satisfied.
func (r *RunReport) AllSatisfied() bool {
	return r.Failed == 0 && r.Skipped == 0
}

// FailedResults returns the failed entries in input order, for the remediation summary.
func (r *RunReport) FailedResults() []ProvisioningResult {
	var out []ProvisioningResult
	for _, result := range r.Results {
		if result.Outcome == OutcomeFailed {
			out = append(out, result)
		}
	}
	return out
}
