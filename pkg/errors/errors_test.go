package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseError(t *testing.T) {
	t.Parallel()

	underlying := fmt.Errorf("yaml: line 7: mapping values are not allowed")
	err := NewParseError("courseup.yaml", 7, underlying)

	assert.Contains(t, err.Error(), "courseup.yaml:7")
	assert.ErrorIs(t, err, underlying)

	noLine := NewParseError("courseup.yaml", 0, fmt.Errorf("read failed"))
	assert.NotContains(t, noLine.Error(), ":0")
}

func TestValidationError(t *testing.T) {
	t.Parallel()

	err := NewValidationError("capabilities[0].id", "duplicate capability id", nil)
	assert.Contains(t, err.Error(), "capabilities[0].id")
	assert.Contains(t, err.Error(), "duplicate capability id")

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "capabilities[0].id", validationErr.Field)
}

func TestPrerequisiteError(t *testing.T) {
	t.Parallel()

	underlying := errors.New("not on PATH")
	err := NewPrerequisiteError("editor", "no working editor CLI found", underlying)

	assert.Contains(t, err.Error(), "prerequisite editor")
	assert.ErrorIs(t, err, underlying)
}

func TestAcquisitionError(t *testing.T) {
	t.Parallel()

	underlying := errors.New("exit status 1")

	err := NewAcquisitionError("pandas", underlying)
	assert.Contains(t, err.Error(), "pandas")
	assert.ErrorIs(t, err, underlying)

	var acqErr *AcquisitionError
	require.ErrorAs(t, err, &acqErr)
	assert.False(t, acqErr.Timeout)

	timeout := NewAcquisitionTimeout("torch", underlying)
	require.ErrorAs(t, timeout, &acqErr)
	assert.True(t, acqErr.Timeout)
	assert.Contains(t, timeout.Error(), "timed out")
}

func TestProviderError(t *testing.T) {
	t.Parallel()

	underlying := errors.New("no provider registered")
	err := NewProviderError("mystery", underlying)

	assert.Contains(t, err.Error(), "mystery")
	assert.ErrorIs(t, err, underlying)
}

func TestNilReceiversAreSafe(t *testing.T) {
	t.Parallel()

	assert.Empty(t, (*ParseError)(nil).Error())
	assert.Empty(t, (*ValidationError)(nil).Error())
	assert.Empty(t, (*PrerequisiteError)(nil).Error())
	assert.Empty(t, (*AcquisitionError)(nil).Error())
	assert.Empty(t, (*ProviderError)(nil).Error())
	assert.Nil(t, (*ParseError)(nil).Unwrap())
}
