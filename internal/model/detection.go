package model

import (
	"time"
)

// DetectionStatus describes what a read-only detection pass found for one capability.
type DetectionStatus string

const (
	// StatusSatisfied means the capability is already present.
	StatusSatisfied DetectionStatus = "satisfied"
	// StatusMissing means the capability is absent and an acquisition would run.
	StatusMissing DetectionStatus = "missing"
	// StatusBlocked means detection itself could not be completed.
	StatusBlocked DetectionStatus = "blocked"
)

// IsValid reports whether the status is one of the defined values.
func (s DetectionStatus) IsValid() bool {
	switch s {
	case StatusSatisfied, StatusMissing, StatusBlocked:
		return true
	}
	return false
}

// Detection is the result of a single read-only state probe.
type Detection struct {
	CapabilityID string
	Status       DetectionStatus
	Message      string
	Error        error
	Duration     time.Duration
	Timestamp    time.Time
}

// DetectionSummary aggregates a verify pass over a full capability list.
type DetectionSummary struct {
	Results   []Detection
	Satisfied int
	Missing   int
	Blocked   int
	Duration  time.Duration
}

// Add appends a detection and updates counters.
func (s *DetectionSummary) Add(d Detection) {
	s.Results = append(s.Results, d)
	switch d.Status {
	case StatusSatisfied:
		s.Satisfied++
	case StatusMissing:
		s.Missing++
	case StatusBlocked:
		s.Blocked++
	}
}

// Total returns the number of capabilities probed.
func (s *DetectionSummary) Total() int {
	return len(s.Results)
}

// AllSatisfied reports whether nothing is missing or blocked.
func (s *DetectionSummary) AllSatisfied() bool {
	return s.Missing == 0 && s.Blocked == 0
}

// ExitCode maps the summary onto the verify command's exit status.
func (s *DetectionSummary) ExitCode() int {
	if s.Blocked > 0 {
		return 2
	}
	if s.Missing > 0 {
		return 1
	}
	return 0
}
