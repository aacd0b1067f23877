package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	courseuperrors "github.com/coursetools/courseup/pkg/errors"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate

	semverPattern       = regexp.MustCompile(`^\d+\.\d+(?:\.\d+)?$`)
	capabilityIDPattern = regexp.MustCompile(`^[a-z0-9_]+$`)
)

func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		_ = v.RegisterValidation("semver", func(fl validator.FieldLevel) bool {
			return semverPattern.MatchString(fl.Field().String())
		})

		_ = v.RegisterValidation("capability_id", func(fl validator.FieldLevel) bool {
			return capabilityIDPattern.MatchString(fl.Field().String())
		})

		validateInst = v
	})

	return validateInst
}

// ValidateManifest performs schema and cross-field validation on the manifest.
func ValidateManifest(manifest *Manifest) error {
	if manifest == nil {
		return courseuperrors.NewValidationError("manifest", "manifest is nil", nil)
	}

	v := validatorInstance()
	if err := v.Struct(manifest); err != nil {
		return convertValidationError(err)
	}

	seen := make(map[string]struct{}, len(manifest.Capabilities))
	for i, capability := range manifest.Capabilities {
		if _, exists := seen[capability.ID]; exists {
			return courseuperrors.NewValidationError(fieldForCapability(i, "id"), fmt.Sprintf("duplicate capability id %q", capability.ID), nil)
		}
		seen[capability.ID] = struct{}{}

		if err := validateCapability(capability, i); err != nil {
			return err
		}
	}

	return nil
}

// validateCapability checks a single capability against its type-specific schema.
func validateCapability(capability Capability, index int) error {
	v := validatorInstance()

	switch capability.Type {
	case "extension":
		if capability.Extension == nil {
			return courseuperrors.NewValidationError(fieldForCapability(index, "extension"), "extension is required", nil)
		}
		if err := v.Struct(capability.Extension); err != nil {
			return convertValidationError(err)
		}
	case "package":
		if capability.Package == nil {
			return courseuperrors.NewValidationError(fieldForCapability(index, "package"), "package is required", nil)
		}
		if err := v.Struct(capability.Package); err != nil {
			return convertValidationError(err)
		}
	case "asset":
		if capability.Asset == nil {
			return courseuperrors.NewValidationError(fieldForCapability(index, "acquire"), "asset configuration is required", nil)
		}
		if err := v.Struct(capability.Asset); err != nil {
			return convertValidationError(err)
		}
		if capability.Asset.Path == "" && capability.Asset.Module == "" {
			return courseuperrors.NewValidationError(fieldForCapability(index, "path"), "asset requires either path or module for detection", nil)
		}
	case "repo":
		if capability.Repo == nil {
			return courseuperrors.NewValidationError(fieldForCapability(index, "url"), "url and destination are required", nil)
		}
		if err := v.Struct(capability.Repo); err != nil {
			return convertValidationError(err)
		}
	case "command":
		if capability.Command == nil {
			return courseuperrors.NewValidationError(fieldForCapability(index, "detect"), "detect and acquire are required", nil)
		}
		if err := v.Struct(capability.Command); err != nil {
			return convertValidationError(err)
		}
		if err := validateDetectSpec(capability.Command.Detect, index); err != nil {
			return err
		}
	default:
		return courseuperrors.NewValidationError(fieldForCapability(index, "type"), fmt.Sprintf("unknown capability type %q", capability.Type), nil)
	}

	return nil
}

func validateDetectSpec(spec DetectSpec, index int) error {
	switch spec.Method {
	case DetectOnPath:
		if len(spec.Commands) == 0 {
			return courseuperrors.NewValidationError(fieldForCapability(index, "detect.commands"), "on_path detection requires at least one command candidate", nil)
		}
	case DetectImportable:
		if spec.Module == "" {
			return courseuperrors.NewValidationError(fieldForCapability(index, "detect.module"), "importable detection requires a module name", nil)
		}
	case DetectFileExists:
		if spec.Path == "" {
			return courseuperrors.NewValidationError(fieldForCapability(index, "detect.path"), "file_exists detection requires a path", nil)
		}
	case DetectOutputContains:
		if len(spec.Probe) == 0 || spec.Marker == "" {
			return courseuperrors.NewValidationError(fieldForCapability(index, "detect.probe"), "output_contains detection requires probe and marker", nil)
		}
	default:
		return courseuperrors.NewValidationError(fieldForCapability(index, "detect.method"), fmt.Sprintf("unknown detection method %q", spec.Method), nil)
	}

	return nil
}

func convertValidationError(err error) error {
	if err == nil {
		return nil
	}

	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		return courseuperrors.NewValidationError("", invalid.Error(), err)
	}

	if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
		first := fieldErrs[0]
		field := strings.ToLower(first.Field())
		message := fmt.Sprintf("failed %q constraint", first.Tag())
		return courseuperrors.NewValidationError(field, message, err)
	}

	return courseuperrors.NewValidationError("", err.Error(), err)
}

func fieldForCapability(index int, field string) string {
	return fmt.Sprintf("capabilities[%d].%s", index, field)
}
