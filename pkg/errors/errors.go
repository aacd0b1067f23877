package errors

import (
	"fmt"
)

// ParseError represents a YAML manifest parsing failure with optional line metadata.
type ParseError struct {
	Path    string
	Line    int
	Message string
	Err     error
}

// NewParseError constructs a ParseError.
func NewParseError(path string, line int, err error) error {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ParseError{Path: path, Line: line, Message: message, Err: err}
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}

	if e.Line > 0 {
		return fmt.Sprintf("parse error: %s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error: %s: %s", e.Path, e.Message)
}

// Unwrap exposes the underlying error.
func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ValidationError captures manifest validation issues.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError constructs a ValidationError.
func NewValidationError(field, message string, err error) error {
	return &ValidationError{Field: field, Message: message, Err: err}
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// PrerequisiteError indicates a missing or incompatible prerequisite (editor binary,
// interpreter version). Prerequisite failures are fatal: the run aborts before any
// acquisition and the process exits nonzero.
type PrerequisiteError struct {
	Name    string
	Message string
	Err     error
}

// NewPrerequisiteError constructs a PrerequisiteError for the named prerequisite.
func NewPrerequisiteError(name, message string, err error) error {
	return &PrerequisiteError{Name: name, Message: message, Err: err}
}

func (e *PrerequisiteError) Error() string {
	if e == nil {
		return ""
	}
	if e.Name != "" {
		return fmt.Sprintf("prerequisite %s: %s", e.Name, e.Message)
	}
	return fmt.Sprintf("prerequisite check failed: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *PrerequisiteError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// AcquisitionError represents a failed acquisition attempt for a single capability.
// Acquisition failures are recoverable: they are recorded in the run report and the
// provisioner continues with the next capability.
type AcquisitionError struct {
	CapabilityID string
	Timeout      bool
	Err          error
}

// NewAcquisitionError constructs an AcquisitionError.
func NewAcquisitionError(capabilityID string, err error) error {
	return &AcquisitionError{CapabilityID: capabilityID, Err: err}
}

// NewAcquisitionTimeout constructs an AcquisitionError caused by the acquire deadline.
func NewAcquisitionTimeout(capabilityID string, err error) error {
	return &AcquisitionError{CapabilityID: capabilityID, Timeout: true, Err: err}
}

func (e *AcquisitionError) Error() string {
	if e == nil {
		return ""
	}
	if e.Timeout {
		return fmt.Sprintf("acquisition timed out for %s: %v", e.CapabilityID, e.Err)
	}
	if e.CapabilityID != "" {
		return fmt.Sprintf("acquisition failed for %s: %v", e.CapabilityID, e.Err)
	}
	return fmt.Sprintf("acquisition failed: %v", e.Err)
}

// Unwrap exposes the root error.
func (e *AcquisitionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ProviderError indicates issues within provider registration or dispatch.
type ProviderError struct {
	Provider string
	Message  string
	Err      error
}

// NewProviderError constructs a ProviderError for the given capability type.
func NewProviderError(provider string, err error) error {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ProviderError{Provider: provider, Message: message, Err: err}
}

func (e *ProviderError) Error() string {
	if e == nil {
		return ""
	}
	if e.Provider != "" {
		return fmt.Sprintf("provider error [%s]: %s", e.Provider, e.Message)
	}
	return fmt.Sprintf("provider error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *ProviderError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
